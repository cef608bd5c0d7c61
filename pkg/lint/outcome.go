package lint

// OutcomeKind discriminates an Outcome.
type OutcomeKind int

// Outcome kinds.
const (
	KindNoFinding OutcomeKind = iota
	KindFinding
	KindFindings
	KindFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case KindNoFinding:
		return "no_finding"
	case KindFinding:
		return "finding"
	case KindFindings:
		return "findings"
	case KindFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Outcome is the result of one rule evaluation. The zero value is NoFinding.
type Outcome struct {
	kind     OutcomeKind
	messages []string
	err      error
}

// NoFinding reports a passing check.
func NoFinding() Outcome {
	return Outcome{kind: KindNoFinding}
}

// Finding reports a single message.
func Finding(msg string) Outcome {
	return Outcome{kind: KindFinding, messages: []string{msg}}
}

// Findings reports several messages. An empty list is NoFinding.
func Findings(msgs []string) Outcome {
	if len(msgs) == 0 {
		return NoFinding()
	}
	return Outcome{kind: KindFindings, messages: msgs}
}

// Failure reports that the rule could not be evaluated. A nil err is
// NoFinding.
func Failure(err error) Outcome {
	if err == nil {
		return NoFinding()
	}
	return Outcome{kind: KindFailure, err: err}
}

// Kind returns the outcome kind.
func (o Outcome) Kind() OutcomeKind { return o.kind }

// Messages returns the reported messages; nil unless the outcome is a
// Finding or Findings.
func (o Outcome) Messages() []string { return o.messages }

// Err returns the failure, or nil.
func (o Outcome) Err() error { return o.err }
