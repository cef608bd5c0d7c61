package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/cptcheck/internal/cli/output"
	"github.com/leapstack-labs/cptcheck/pkg/core"
	"github.com/leapstack-labs/cptcheck/pkg/lint"
	_ "github.com/leapstack-labs/cptcheck/pkg/lint/rules" // register rules
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Group   string // Filter by group
	Details bool   // Add fix guidance
}

// RulesOutput is the structured output of the rules listing.
type RulesOutput struct {
	Rules []core.RuleInfo `json:"rules" yaml:"rules"`
	Count int             `json:"count" yaml:"count"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules [rule-id]",
		Short: "List the completeness rules",
		Long: `List the rules applied by validate, in evaluation order.

Rules are grouped by the part of the request they check: the cone
penetrometer description (CP), the cone penetration test measurements (CT)
and the dissipation tests (DT).

Output adapts to environment:
  - Terminal: Styled table
  - Piped/Scripted: Markdown format
  - JSON/YAML: Machine-readable format`,
		Example: `  # List all rules
  cptcheck rules

  # Show details for a specific rule
  cptcheck rules CT03

  # List the dissipation rules
  cptcheck rules --group dissipation

  # Output as JSON
  cptcheck rules --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return showRule(cmd, args[0])
			}
			return listRules(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Group, "group", "g", "", "Filter by group: penetrometer, cpt, dissipation")
	cmd.Flags().BoolVarP(&opts.Details, "details", "d", false, "Add fix guidance to the listing")
	cmd.Flags().StringP("format", "f", "", "Output format: text, markdown, json, yaml")

	return cmd
}

func listRules(cmd *cobra.Command, opts *RulesOptions) error {
	r := NewCommandContext(cmd).Renderer

	var rules []core.RuleInfo
	if opts.Group != "" {
		defs := lint.GetByGroup(opts.Group)
		if len(defs) == 0 {
			return fmt.Errorf("unknown rule group %q (groups: %s)", opts.Group, strings.Join(lint.Groups(), ", "))
		}
		for _, def := range defs {
			rules = append(rules, def.Info())
		}
	} else {
		rules = lint.RuleInfos()
	}

	if ok, err := r.Structured(RulesOutput{Rules: rules, Count: len(rules)}); ok {
		return err
	}

	markdown := r.EffectiveMode() == output.ModeMarkdown
	if markdown {
		r.Println("# Rules")
		r.Println("")
	} else {
		r.Println("")
		r.Println(r.Styles().Header1.Render(fmt.Sprintf("Rules (%d)", len(rules))))
		r.Println("")
	}

	for _, group := range groupsOf(rules) {
		if markdown {
			r.Printf("## %s\n\n", output.Title(group))
		} else {
			r.Println(r.Styles().Header2.Render(output.Title(group)))
		}

		header := []string{"ID", "Name", "Severity", "Description"}
		if opts.Details {
			header = append(header, "Fix")
		}
		var rows [][]string
		for _, rule := range rules {
			if rule.Group != group {
				continue
			}
			row := []string{rule.ID, rule.Name, rule.DefaultSeverity.String(), rule.Description}
			if opts.Details {
				row = append(row, rule.Fix)
			}
			rows = append(rows, row)
		}
		r.Table(header, rows)
		r.Println("")
	}

	if !markdown {
		r.Println(r.Styles().Muted.Render("Use 'cptcheck rules <rule-id>' for detailed documentation"))
	}
	return nil
}

// groupsOf returns the groups of rules in order of first appearance.
func groupsOf(rules []core.RuleInfo) []string {
	seen := make(map[string]bool)
	var groups []string
	for _, rule := range rules {
		if !seen[rule.Group] {
			seen[rule.Group] = true
			groups = append(groups, rule.Group)
		}
	}
	return groups
}

func showRule(cmd *cobra.Command, ruleID string) error {
	r := NewCommandContext(cmd).Renderer

	def, ok := lint.GetByID(strings.ToUpper(strings.TrimSpace(ruleID)))
	if !ok {
		return fmt.Errorf("rule %q not found", ruleID)
	}
	rule := def.Info()

	if ok, err := r.Structured(rule); ok {
		return err
	}

	if r.EffectiveMode() == output.ModeMarkdown {
		showRuleMarkdown(r, rule)
		return nil
	}
	showRuleText(r, rule)
	return nil
}

// showRuleText displays detailed rule info in text format.
func showRuleText(r *output.Renderer, rule core.RuleInfo) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("%s - %s", rule.ID, rule.Name)))
	r.Println("")

	r.Printf("  %s: %s\n", styles.Bold.Render("Group"), rule.Group)
	r.Printf("  %s: %s\n", styles.Bold.Render("Severity"), rule.DefaultSeverity.String())
	r.Println("")

	r.Println(styles.Bold.Render("Description"))
	r.Println("  " + rule.Description)
	r.Println("")

	if rule.Rationale != "" {
		r.Println(styles.Bold.Render("Why This Matters"))
		r.Println("  " + rule.Rationale)
		r.Println("")
	}

	if rule.Fix != "" {
		r.Println(styles.Bold.Render("How to Fix"))
		r.Println("  " + rule.Fix)
		r.Println("")
	}
}

// showRuleMarkdown displays detailed rule info in markdown format.
func showRuleMarkdown(r *output.Renderer, rule core.RuleInfo) {
	r.Printf("# %s - %s\n\n", rule.ID, rule.Name)
	r.Printf("**Group:** %s | **Severity:** `%s`\n\n", rule.Group, rule.DefaultSeverity.String())
	r.Println(rule.Description)
	r.Println("")

	if rule.Rationale != "" {
		r.Println("## Why This Matters")
		r.Println("")
		r.Println(rule.Rationale)
		r.Println("")
	}

	if rule.Fix != "" {
		r.Println("## How to Fix")
		r.Println("")
		r.Println(rule.Fix)
		r.Println("")
	}
}
