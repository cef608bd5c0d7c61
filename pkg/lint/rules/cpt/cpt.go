package cpt

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/cptcheck/pkg/document"
	"github.com/leapstack-labs/cptcheck/pkg/lint"
)

func init() {
	lint.Register(Depth)
	lint.Register(CorrectedConeResistance)
	lint.Register(InclinationResultant)
	lint.Register(LocalFriction)
	lint.Register(FrictionRatio)
}

// measured is the parameter flag value marking a column as measured.
const measured = "ja"

// ErrNoMeasurements is returned when a column is flagged as measured but the
// document carries no cone penetration test values.
var ErrNoMeasurements = errors.New("cpt: column flagged as measured but conePenetrationTest has no values")

const fix = "Fill the missing values, or set the parameter flag to \"nee\" if the quantity was not measured."

// Depth checks the depth column.
var Depth = lint.RuleDef{
	ID:          "CT01",
	Name:        "cpt.depth",
	Group:       "cpt",
	Description: "Depth must be filled in every measurement row when flagged as measured.",
	Severity:    lint.SeverityWarning,
	Check:       column(document.CptDepth, "Diepte"),
	Fix:         fix,
}

// CorrectedConeResistance checks the corrected cone resistance column.
var CorrectedConeResistance = lint.RuleDef{
	ID:          "CT02",
	Name:        "cpt.corrected_cone_resistance",
	Group:       "cpt",
	Description: "Corrected cone resistance must be filled in every measurement row when flagged as measured.",
	Severity:    lint.SeverityWarning,
	Check:       column(document.CptCorrectedConeResistance, "gecorrigeerde conusweerstand"),
	Fix:         fix,
}

// InclinationResultant checks the inclination resultant column.
var InclinationResultant = lint.RuleDef{
	ID:          "CT03",
	Name:        "cpt.inclination_resultant",
	Group:       "cpt",
	Description: "Inclination resultant must be filled in every measurement row when flagged as measured.",
	Severity:    lint.SeverityWarning,
	Check:       column(document.CptInclinationResultant, "hellingsresultante"),
	Fix:         fix,
}

// LocalFriction checks the local friction column.
var LocalFriction = lint.RuleDef{
	ID:          "CT04",
	Name:        "cpt.local_friction",
	Group:       "cpt",
	Description: "Local friction must be filled in every measurement row when flagged as measured.",
	Severity:    lint.SeverityWarning,
	Check:       column(document.CptLocalFriction, "plaatselijke wrijving"),
	Fix:         fix,
}

// FrictionRatio checks the friction ratio column.
var FrictionRatio = lint.RuleDef{
	ID:          "CT05",
	Name:        "cpt.friction_ratio",
	Group:       "cpt",
	Description: "Friction ratio must be filled in every measurement row when flagged as measured.",
	Severity:    lint.SeverityWarning,
	Check:       column(document.CptFrictionRatio, "wrijvingsgetal"),
	Fix:         fix,
}

func column(col document.CptColumn, label string) lint.CheckFunc {
	return func(doc *document.Document) lint.Outcome {
		params, err := doc.CptParameters()
		if err != nil {
			return lint.Failure(err)
		}
		if flag, _ := params[col.String()].(string); flag != measured {
			return lint.NoFinding()
		}

		m, ok := doc.ConeTestMatrix()
		if !ok {
			return lint.Failure(ErrNoMeasurements)
		}
		missing := m.CountMissing(col.Index())
		if missing == 0 {
			return lint.NoFinding()
		}
		return lint.Finding(fmt.Sprintf(
			"In de %d regels met meetwaarden is Conuspenetratietest %s (%s) %d keer niet ingevuld.",
			m.Rows(), label, col, missing))
	}
}
