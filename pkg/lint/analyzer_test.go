package lint_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/cptcheck/internal/testutil"
	"github.com/leapstack-labs/cptcheck/pkg/document"
	"github.com/leapstack-labs/cptcheck/pkg/lint"
)

func completeDoc(t *testing.T) *document.Document {
	t.Helper()
	doc, err := document.ParseString(testutil.CompleteRequest().XML())
	require.NoError(t, err)
	return doc
}

func rule(id string, check lint.CheckFunc) lint.RuleDef {
	return lint.RuleDef{ID: id, Name: "test." + id, Group: "test", Severity: lint.SeverityWarning, Check: check}
}

func constant(out lint.Outcome) lint.CheckFunc {
	return func(*document.Document) lint.Outcome { return out }
}

func TestAnalyzer_CollectsInRuleOrder(t *testing.T) {
	rules := []lint.RuleDef{
		rule("R1", constant(lint.Finding("first"))),
		rule("R2", constant(lint.NoFinding())),
		rule("R3", constant(lint.Findings([]string{"second", "third"}))),
		rule("R4", constant(lint.Finding("fourth"))),
	}

	diags := lint.NewAnalyzerWithRules(nil, rules).Analyze(completeDoc(t))
	assert.Equal(t, []string{"first", "second", "third", "fourth"}, lint.Messages(diags))
	assert.Equal(t, "R3", diags[1].RuleID)
	assert.Equal(t, "R3", diags[2].RuleID)
	for _, d := range diags {
		assert.False(t, d.Failed)
		assert.Equal(t, lint.SeverityWarning, d.Severity)
	}
}

func TestAnalyzer_FailureDoesNotBlockOtherRules(t *testing.T) {
	rules := []lint.RuleDef{
		rule("R1", constant(lint.Failure(errors.New("metadata: missing key \"x\" at a")))),
		rule("R2", func(*document.Document) lint.Outcome {
			var m map[string]int
			m["boom"] = 1 // nil map write panics
			return lint.NoFinding()
		}),
		rule("R3", func(*document.Document) lint.Outcome { panic("plain string") }),
		rule("R4", constant(lint.Finding("still runs"))),
	}

	diags := lint.NewAnalyzerWithRules(nil, rules).Analyze(completeDoc(t))
	require.Len(t, diags, 4)

	assert.Equal(t, `metadata: missing key "x" at a`, diags[0].Message)
	assert.True(t, diags[0].Failed)
	assert.Equal(t, lint.SeverityError, diags[0].Severity)

	assert.True(t, diags[1].Failed)
	assert.Contains(t, diags[1].Message, "nil map")

	assert.True(t, diags[2].Failed)
	assert.Equal(t, "plain string", diags[2].Message)

	assert.False(t, diags[3].Failed)
	assert.Equal(t, "still runs", diags[3].Message)
}

func TestAnalyzer_ConfigDisableAndSeverity(t *testing.T) {
	rules := []lint.RuleDef{
		rule("R1", constant(lint.Finding("one"))),
		rule("R2", constant(lint.Finding("two"))),
		rule("R3", constant(lint.Finding("three"))),
	}

	cfg := lint.NewConfig().Disable("R2").SetSeverity("R3", lint.SeverityError)
	diags := lint.NewAnalyzerWithRules(cfg, rules).Analyze(completeDoc(t))
	require.Len(t, diags, 2)
	assert.Equal(t, "R1", diags[0].RuleID)
	assert.Equal(t, lint.SeverityWarning, diags[0].Severity)
	assert.Equal(t, "R3", diags[1].RuleID)
	assert.Equal(t, lint.SeverityError, diags[1].Severity)
}

func TestAnalyzer_Only(t *testing.T) {
	rules := []lint.RuleDef{
		rule("R1", constant(lint.Finding("one"))),
		rule("R2", constant(lint.Finding("two"))),
	}

	cfg := lint.NewConfig().Only("R2")
	a := lint.NewAnalyzerWithRules(cfg, rules)
	require.Len(t, a.Rules(), 1)
	assert.Equal(t, []string{"two"}, lint.Messages(a.Analyze(completeDoc(t))))
}

func TestAnalyzer_ParallelPreservesOrder(t *testing.T) {
	var rules []lint.RuleDef
	var want []string
	for i := 0; i < 40; i++ {
		msg := fmt.Sprintf("message %02d", i)
		want = append(want, msg)
		if i%7 == 3 {
			rules = append(rules, rule(fmt.Sprintf("R%02d", i), func(*document.Document) lint.Outcome { panic(msg) }))
			continue
		}
		rules = append(rules, rule(fmt.Sprintf("R%02d", i), constant(lint.Finding(msg))))
	}

	for _, limit := range []int{0, 1, 4} {
		cfg := lint.NewConfig().WithParallel(limit)
		diags := lint.NewAnalyzerWithRules(cfg, rules).Analyze(completeDoc(t))
		assert.Equal(t, want, lint.Messages(diags), "limit %d", limit)
	}
}

func TestAnalyzer_EmptyRuleSet(t *testing.T) {
	diags := lint.NewAnalyzerWithRules(nil, nil).Analyze(completeDoc(t))
	assert.Empty(t, diags)
	assert.NotNil(t, lint.Messages(diags))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, lint.KindNoFinding, lint.Outcome{}.Kind())
	assert.Equal(t, lint.KindNoFinding, lint.Findings(nil).Kind())
	assert.Equal(t, lint.KindNoFinding, lint.Failure(nil).Kind())

	out := lint.Finding("x")
	assert.Equal(t, lint.KindFinding, out.Kind())
	assert.Equal(t, []string{"x"}, out.Messages())
	assert.NoError(t, out.Err())

	err := errors.New("bad")
	out = lint.Failure(err)
	assert.Equal(t, lint.KindFailure, out.Kind())
	assert.Same(t, err, out.Err())
	assert.Nil(t, out.Messages())
	assert.Equal(t, "failure", out.Kind().String())
}
