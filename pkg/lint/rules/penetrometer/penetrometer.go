package penetrometer

import (
	"github.com/leapstack-labs/cptcheck/pkg/document"
	"github.com/leapstack-labs/cptcheck/pkg/lint"
)

func init() {
	lint.Register(ConeDiameter)
	lint.Register(ConeSurfaceQuotient)
	lint.Register(ConeToFrictionSleeveDistance)
	lint.Register(FrictionSleeveSurfaceArea)
	lint.Register(FrictionSleeveSurfaceQuotient)
}

const fix = "Add the element under conePenetrometer with the value from the calibration sheet."

// ConeDiameter requires the cone diameter.
var ConeDiameter = lint.RuleDef{
	ID:          "CP01",
	Name:        "penetrometer.cone_diameter",
	Group:       "penetrometer",
	Description: "Cone penetrometer must state its cone diameter.",
	Severity:    lint.SeverityError,
	Check:       requireKey("coneDiameter", "Sondeerapparaat Conusdiameter (coneDiameter) is niet ingevuld"),
	Rationale:   "The cone diameter is needed to interpret the measured cone resistance.",
	Fix:         fix,
}

// ConeSurfaceQuotient requires the cone surface quotient.
var ConeSurfaceQuotient = lint.RuleDef{
	ID:          "CP02",
	Name:        "penetrometer.cone_surface_quotient",
	Group:       "penetrometer",
	Description: "Cone penetrometer must state the surface quotient of the cone tip.",
	Severity:    lint.SeverityError,
	Check:       requireKey("coneSurfaceQuotient", "Sondeerapparaat Oppervlaktequotient conuspunt (coneSurfaceQuotient) is niet ingevuld"),
	Rationale:   "The surface quotient corrects cone resistance for pore pressure.",
	Fix:         fix,
}

// ConeToFrictionSleeveDistance requires the distance between cone and
// friction sleeve.
var ConeToFrictionSleeveDistance = lint.RuleDef{
	ID:          "CP03",
	Name:        "penetrometer.cone_to_friction_sleeve_distance",
	Group:       "penetrometer",
	Description: "Cone penetrometer must state the distance from the cone to the centre of the friction sleeve.",
	Severity:    lint.SeverityError,
	Check:       requireKey("coneToFrictionSleeveDistance", "Sondeerapparaat Afstand conus tot midden kleefmantel (coneToFrictionSleeveDistance) is niet ingevuld"),
	Rationale:   "The distance is needed to align local friction with cone resistance by depth.",
	Fix:         fix,
}

// FrictionSleeveSurfaceArea requires the friction sleeve surface area.
var FrictionSleeveSurfaceArea = lint.RuleDef{
	ID:          "CP04",
	Name:        "penetrometer.friction_sleeve_surface_area",
	Group:       "penetrometer",
	Description: "Cone penetrometer must state the surface area of the friction sleeve.",
	Severity:    lint.SeverityError,
	Check:       requireKey("frictionSleeveSurfaceArea", "Sondeerapparaat Oppervlakte kleefmantel (frictionSleeveSurfaceArea) is niet ingevuld"),
	Rationale:   "Local friction is derived from the force on the sleeve and its surface area.",
	Fix:         fix,
}

// FrictionSleeveSurfaceQuotient requires the friction sleeve surface quotient.
var FrictionSleeveSurfaceQuotient = lint.RuleDef{
	ID:          "CP05",
	Name:        "penetrometer.friction_sleeve_surface_quotient",
	Group:       "penetrometer",
	Description: "Cone penetrometer must state the surface quotient of the friction sleeve.",
	Severity:    lint.SeverityError,
	Check:       requireKey("frictionSleeveSurfaceQuotient", "Sondeerapparaat Oppervlaktequotient kleefmantel (frictionSleeveSurfaceQuotient) is niet ingevuld"),
	Rationale:   "The sleeve surface quotient corrects local friction for pore pressure.",
	Fix:         fix,
}

// requireKey reports msg when key is absent from the conePenetrometer node.
// Presence is enough; an empty element counts as filled. A document without
// a conePenetrometer node fails the rule.
func requireKey(key, msg string) lint.CheckFunc {
	return func(doc *document.Document) lint.Outcome {
		pen, err := doc.ConePenetrometer()
		if err != nil {
			return lint.Failure(err)
		}
		if _, ok := pen[key]; ok {
			return lint.NoFinding()
		}
		return lint.Finding(msg)
	}
}
