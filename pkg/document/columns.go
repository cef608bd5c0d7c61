package document

// CptColumn is the index of a measured quantity in a cone penetration test row.
type CptColumn int

// Cone penetration test columns. Rows carry CptFieldCount fields; only the
// columns checked by rules are named.
const (
	CptDepth                   CptColumn = 1
	CptCorrectedConeResistance CptColumn = 4
	CptInclinationResultant    CptColumn = 15
	CptLocalFriction           CptColumn = 18
	CptFrictionRatio           CptColumn = 24
)

// CptFieldCount is the number of fields in a cone penetration test row.
const CptFieldCount = 25

// Index returns the column as a matrix index.
func (c CptColumn) Index() int { return int(c) }

func (c CptColumn) String() string {
	switch c {
	case CptDepth:
		return "depth"
	case CptCorrectedConeResistance:
		return "correctedConeResistance"
	case CptInclinationResultant:
		return "inclinationResultant"
	case CptLocalFriction:
		return "localFriction"
	case CptFrictionRatio:
		return "frictionRatio"
	default:
		return "unknown"
	}
}

// DissipationColumn is the index of a measured quantity in a dissipation test row.
type DissipationColumn int

// Dissipation test columns.
const (
	DissipationConeResistance DissipationColumn = 1
	DissipationPorePressureU1 DissipationColumn = 2
	DissipationPorePressureU2 DissipationColumn = 3
)

// DissipationFieldCount is the number of fields in a dissipation test row.
const DissipationFieldCount = 5

// Index returns the column as a matrix index.
func (c DissipationColumn) Index() int { return int(c) }

func (c DissipationColumn) String() string {
	switch c {
	case DissipationConeResistance:
		return "coneResistance"
	case DissipationPorePressureU1:
		return "porePressureU1"
	case DissipationPorePressureU2:
		return "porePressureU2"
	default:
		return "unknown"
	}
}
