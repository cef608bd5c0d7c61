package dissipation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/cptcheck/internal/testutil"
	"github.com/leapstack-labs/cptcheck/pkg/document"
	"github.com/leapstack-labs/cptcheck/pkg/lint"
	"github.com/leapstack-labs/cptcheck/pkg/lint/rules/dissipation"
)

func matrixRows(n, gaps int, col document.DissipationColumn) [][]float64 {
	rows := testutil.Rows(n, document.DissipationFieldCount)
	for i := 0; i < gaps; i++ {
		rows[i][col.Index()] = document.MissingValue
	}
	return rows
}

func parse(t *testing.T, req testutil.Request) *document.Document {
	t.Helper()
	doc, err := document.ParseString(req.XML())
	require.NoError(t, err)
	return doc
}

func TestDissipationRules_OneMessagePerMatrix(t *testing.T) {
	tests := []struct {
		rule    lint.RuleDef
		col     document.DissipationColumn
		subject string
	}{
		{dissipation.ConeResistance, document.DissipationConeResistance, "Dissipatietest Conusweerstand (coneResistance)"},
		{dissipation.PorePressureU1, document.DissipationPorePressureU1, "Dissipatietest waterspanning u1 ()"},
		{dissipation.PorePressureU2, document.DissipationPorePressureU2, "Dissipatietest waterspanning u2 ()"},
	}

	for _, tt := range tests {
		t.Run(tt.rule.ID, func(t *testing.T) {
			doc := parse(t, testutil.Request{
				Dissipation: [][][]float64{
					matrixRows(6, 2, tt.col),
					matrixRows(4, 0, tt.col),
					matrixRows(3, 3, tt.col),
				},
			})

			out := tt.rule.Check(doc)
			assert.Equal(t, lint.KindFindings, out.Kind())
			assert.Equal(t, []string{
				"In de 6 regels met meetwaarden is " + tt.subject + " 2 keer niet ingevuld.",
				"In de 3 regels met meetwaarden is " + tt.subject + " 3 keer niet ingevuld.",
			}, out.Messages())
		})
	}
}

func TestDissipationRules_AbsentIsSilent(t *testing.T) {
	doc := parse(t, testutil.Request{})
	assert.Equal(t, lint.KindNoFinding, dissipation.ConeResistance.Check(doc).Kind())
}

func TestDissipationRules_ColumnsAreIndependent(t *testing.T) {
	doc := parse(t, testutil.Request{
		Dissipation: [][][]float64{matrixRows(5, 5, document.DissipationPorePressureU1)},
	})

	assert.Equal(t, lint.KindNoFinding, dissipation.ConeResistance.Check(doc).Kind())
	assert.Equal(t, lint.KindFindings, dissipation.PorePressureU1.Check(doc).Kind())
	assert.Equal(t, lint.KindNoFinding, dissipation.PorePressureU2.Check(doc).Kind())
}

func TestDissipationRules_EmptyTestIsSilent(t *testing.T) {
	doc := parse(t, testutil.Request{Dissipation: [][][]float64{{}}})
	assert.Equal(t, lint.KindNoFinding, dissipation.PorePressureU2.Check(doc).Kind())
}
