package dissipation

import (
	"fmt"

	"github.com/leapstack-labs/cptcheck/pkg/document"
	"github.com/leapstack-labs/cptcheck/pkg/lint"
)

func init() {
	lint.Register(ConeResistance)
	lint.Register(PorePressureU1)
	lint.Register(PorePressureU2)
}

// ConeResistance checks cone resistance in every dissipation test.
var ConeResistance = lint.RuleDef{
	ID:          "DT01",
	Name:        "dissipation.cone_resistance",
	Group:       "dissipation",
	Description: "Cone resistance must be filled in every dissipation test row.",
	Severity:    lint.SeverityWarning,
	Check:       column(document.DissipationConeResistance, "Dissipatietest Conusweerstand (coneResistance)"),
}

// PorePressureU1 checks pore pressure u1 in every dissipation test.
var PorePressureU1 = lint.RuleDef{
	ID:          "DT02",
	Name:        "dissipation.pore_pressure_u1",
	Group:       "dissipation",
	Description: "Pore pressure u1 must be filled in every dissipation test row.",
	Severity:    lint.SeverityWarning,
	Check:       column(document.DissipationPorePressureU1, "Dissipatietest waterspanning u1 ()"),
}

// PorePressureU2 checks pore pressure u2 in every dissipation test.
var PorePressureU2 = lint.RuleDef{
	ID:          "DT03",
	Name:        "dissipation.pore_pressure_u2",
	Group:       "dissipation",
	Description: "Pore pressure u2 must be filled in every dissipation test row.",
	Severity:    lint.SeverityWarning,
	Check:       column(document.DissipationPorePressureU2, "Dissipatietest waterspanning u2 ()"),
}

func column(col document.DissipationColumn, subject string) lint.CheckFunc {
	return func(doc *document.Document) lint.Outcome {
		matrices, ok := doc.DissipationMatrices()
		if !ok {
			return lint.NoFinding()
		}
		var msgs []string
		for _, m := range matrices {
			missing := m.CountMissing(col.Index())
			if missing == 0 {
				continue
			}
			msgs = append(msgs, fmt.Sprintf(
				"In de %d regels met meetwaarden is %s %d keer niet ingevuld.",
				m.Rows(), subject, missing))
		}
		return lint.Findings(msgs)
	}
}
