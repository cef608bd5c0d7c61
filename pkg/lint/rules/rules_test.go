package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/cptcheck/internal/testutil"
	"github.com/leapstack-labs/cptcheck/pkg/document"
	"github.com/leapstack-labs/cptcheck/pkg/lint"
	_ "github.com/leapstack-labs/cptcheck/pkg/lint/rules"
)

func parse(t *testing.T, req testutil.Request) *document.Document {
	t.Helper()
	doc, err := document.ParseString(req.XML())
	require.NoError(t, err)
	return doc
}

func TestRegisteredRulesInEvaluationOrder(t *testing.T) {
	var ids []string
	for _, r := range lint.Rules() {
		ids = append(ids, r.ID)
		assert.NotEmpty(t, r.Name, r.ID)
		assert.NotEmpty(t, r.Description, r.ID)
	}
	assert.Equal(t, []string{
		"CP01", "CP02", "CP03", "CP04", "CP05",
		"CT01", "CT02", "CT03", "CT04", "CT05",
		"DT01", "DT02", "DT03",
	}, ids)
	assert.Equal(t, []string{"penetrometer", "cpt", "dissipation"}, lint.Groups())
}

func TestEvaluate_CompleteDocumentPasses(t *testing.T) {
	msgs := lint.Evaluate(parse(t, testutil.CompleteRequest()))
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
}

func TestEvaluate_MissingConeDiameter(t *testing.T) {
	req := testutil.CompleteRequest()
	req.Penetrometer = testutil.DefaultPenetrometer()
	delete(req.Penetrometer, "coneDiameter")

	assert.Equal(t,
		[]string{"Sondeerapparaat Conusdiameter (coneDiameter) is niet ingevuld"},
		lint.Evaluate(parse(t, req)))
}

func TestEvaluate_OrderAcrossGroups(t *testing.T) {
	req := testutil.CompleteRequest()
	req.Penetrometer = map[string]string{}
	req.CPTRows[0][document.CptFrictionRatio.Index()] = document.MissingValue
	req.Dissipation = [][][]float64{
		{testutil.Row(5, map[int]float64{document.DissipationPorePressureU2.Index(): document.MissingValue})},
	}

	msgs := lint.Evaluate(parse(t, req))
	require.Len(t, msgs, 7)
	assert.Equal(t, "Sondeerapparaat Conusdiameter (coneDiameter) is niet ingevuld", msgs[0])
	assert.Equal(t, "Sondeerapparaat Oppervlaktequotient kleefmantel (frictionSleeveSurfaceQuotient) is niet ingevuld", msgs[4])
	assert.Equal(t, "In de 10 regels met meetwaarden is Conuspenetratietest wrijvingsgetal (frictionRatio) 1 keer niet ingevuld.", msgs[5])
	assert.Equal(t, "In de 1 regels met meetwaarden is Dissipatietest waterspanning u2 () 1 keer niet ingevuld.", msgs[6])
}

func TestEvaluate_FailingRulesDoNotBlockOthers(t *testing.T) {
	// No conePenetrometer: CP rules fail, CT and DT still run.
	req := testutil.CompleteRequest()
	req.OmitPenetrometer = true
	req.CPTRows[2][document.CptDepth.Index()] = document.MissingValue

	diags := lint.NewAnalyzer(nil).Analyze(parse(t, req))
	require.Len(t, diags, 6)
	for _, d := range diags[:5] {
		assert.True(t, d.Failed, d.RuleID)
		assert.Contains(t, d.Message, `missing key "conePenetrometer"`)
	}
	assert.Equal(t, "CT01", diags[5].RuleID)
	assert.False(t, diags[5].Failed)
}

func TestEvaluate_TwoDissipationTestsOneMessageEach(t *testing.T) {
	gap := map[int]float64{document.DissipationConeResistance.Index(): document.MissingValue}
	req := testutil.CompleteRequest()
	req.Dissipation = [][][]float64{
		{testutil.Row(5, gap), testutil.Row(5, nil)},
		{testutil.Row(5, gap), testutil.Row(5, gap), testutil.Row(5, nil)},
	}

	assert.Equal(t, []string{
		"In de 2 regels met meetwaarden is Dissipatietest Conusweerstand (coneResistance) 1 keer niet ingevuld.",
		"In de 3 regels met meetwaarden is Dissipatietest Conusweerstand (coneResistance) 2 keer niet ingevuld.",
	}, lint.Evaluate(parse(t, req)))
}

func TestAnalyze_ParallelMatchesSequential(t *testing.T) {
	req := testutil.CompleteRequest()
	req.Penetrometer = map[string]string{"coneDiameter": "36"}
	req.CPTRows[1][document.CptLocalFriction.Index()] = document.MissingValue
	doc := parse(t, req)

	seq := lint.NewAnalyzer(nil).Analyze(doc)
	par := lint.NewAnalyzer(lint.NewConfig().WithParallel(3)).Analyze(doc)
	assert.Equal(t, seq, par)
}
