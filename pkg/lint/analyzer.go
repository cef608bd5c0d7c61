package lint

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/cptcheck/pkg/document"
)

// Analyzer runs lint rules against a parsed document.
type Analyzer struct {
	config *Config
	rules  []RuleDef // nil = registry rules at Analyze time
}

// NewAnalyzer creates a new analyzer over the registered rules with optional
// configuration.
func NewAnalyzer(config *Config) *Analyzer {
	if config == nil {
		config = NewConfig()
	}
	return &Analyzer{config: config}
}

// NewAnalyzerWithRules creates an analyzer over an explicit rule list,
// evaluated in the order given.
func NewAnalyzerWithRules(config *Config, rules []RuleDef) *Analyzer {
	a := NewAnalyzer(config)
	a.rules = rules
	if a.rules == nil {
		a.rules = []RuleDef{}
	}
	return a
}

// Rules returns the enabled rules in evaluation order.
func (a *Analyzer) Rules() []RuleDef {
	all := a.rules
	if all == nil {
		all = Rules()
	}
	enabled := make([]RuleDef, 0, len(all))
	for _, rule := range all {
		if a.config.IsDisabled(rule.ID) {
			continue
		}
		enabled = append(enabled, rule)
	}
	return enabled
}

// Analyze evaluates every enabled rule against doc and returns the
// diagnostics in rule order. It never fails: rule failures and panics are
// reported as diagnostics with Failed set.
func (a *Analyzer) Analyze(doc *document.Document) []Diagnostic {
	rules := a.Rules()
	results := make([][]Diagnostic, len(rules))

	if a.config.Parallel && len(rules) > 1 {
		var g errgroup.Group
		if a.config.MaxParallel > 0 {
			g.SetLimit(a.config.MaxParallel)
		}
		for i, rule := range rules {
			g.Go(func() error {
				results[i] = a.diagnose(rule, doc)
				return nil
			})
		}
		_ = g.Wait() // workers never return an error
	} else {
		for i, rule := range rules {
			results[i] = a.diagnose(rule, doc)
		}
	}

	var diagnostics []Diagnostic
	for _, diags := range results {
		diagnostics = append(diagnostics, diags...)
	}
	return diagnostics
}

func (a *Analyzer) diagnose(rule RuleDef, doc *document.Document) []Diagnostic {
	out := runRule(rule, doc)
	switch out.Kind() {
	case KindFinding, KindFindings:
		severity := a.config.GetSeverity(rule.ID, rule.Severity)
		diags := make([]Diagnostic, 0, len(out.Messages()))
		for _, msg := range out.Messages() {
			diags = append(diags, Diagnostic{RuleID: rule.ID, Severity: severity, Message: msg})
		}
		return diags
	case KindFailure:
		return []Diagnostic{{
			RuleID:   rule.ID,
			Severity: SeverityError,
			Message:  out.Err().Error(),
			Failed:   true,
		}}
	default:
		return nil
	}
}

// runRule evaluates one rule, converting a panic into a Failure.
func runRule(rule RuleDef, doc *document.Document) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				out = Failure(err)
				return
			}
			out = Failure(fmt.Errorf("%v", r))
		}
	}()
	return rule.Check(doc)
}

// Evaluate runs the registered rules with the default configuration and
// returns the diagnostic texts in order. An empty list means the document
// passed.
func Evaluate(doc *document.Document) []string {
	return Messages(NewAnalyzer(nil).Analyze(doc))
}
