package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/cptcheck/pkg/core"
	"github.com/leapstack-labs/cptcheck/pkg/lint"
	_ "github.com/leapstack-labs/cptcheck/pkg/lint/rules"
)

// groupDescriptions provides human-readable descriptions for rule groups.
var groupDescriptions = map[string]string{
	"penetrometer": "Rules about the description of the cone penetrometer.",
	"cpt":          "Rules about the cone penetration test measurements.",
	"dissipation":  "Rules about the dissipation test measurements.",
}

// generateRuleDocs generates the rule reference.
func generateRuleDocs(outDir string) error {
	log.Printf("Generating rule docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Completeness Rules", "Checks applied to CPT registration requests")
	w.GeneratedMarker()

	w.Header(1, "Completeness Rules")
	w.Paragraph(fmt.Sprintf("cptcheck applies %d rules in ID order. A rule either passes, reports one or more findings, or fails to evaluate; a failure is reported as a finding at error severity.", lint.Count()))

	w.Header(2, "Severity Levels")
	w.Table(
		[]string{"Severity", "Description"},
		[][]string{
			{InlineCode(core.SeverityError.String()), "The registration will be rejected"},
			{InlineCode(core.SeverityWarning.String()), "Likely to be rejected or questioned"},
			{InlineCode(core.SeverityInfo.String()), "Informational feedback"},
			{InlineCode(core.SeverityHint.String()), "Suggestion for improvement"},
		},
	)

	w.Header(2, "Configuration")
	w.Paragraph("Rules can be configured in `cptcheck.yaml`:")
	w.CodeBlock("yaml", `lint:
  disabled: [CT05]        # skip rules
  severity:
    DT03: warning         # override severity
  min_severity: warning   # hide hints and info`)

	title := cases.Title(language.English)
	for _, group := range lint.Groups() {
		w.Line(fmt.Sprintf("## %s {#%s}", title.String(group), group))
		w.Newline()
		if desc, ok := groupDescriptions[group]; ok {
			w.Paragraph(desc)
		}
		for _, rule := range lint.GetByGroup(group) {
			writeRuleDoc(w, rule.Info())
		}
	}

	log.Printf("  Generated rules.md")
	return os.WriteFile(filepath.Join(outDir, "rules.md"), w.Bytes(), 0600)
}

// writeRuleDoc writes detailed documentation for a single rule.
func writeRuleDoc(w *MarkdownWriter, rule core.RuleInfo) {
	// Rule header with anchor: ### CP01 - penetrometer.cone_diameter {#CP01}
	w.Line(fmt.Sprintf("### %s - %s {#%s}", rule.ID, rule.Name, rule.ID))
	w.Newline()

	w.Line(fmt.Sprintf("**Severity:** %s", InlineCode(rule.DefaultSeverity.String())))
	w.Newline()

	w.Paragraph(cleanDescription(rule.Description))

	if rule.Rationale != "" {
		w.Header(4, "Why This Matters")
		w.Paragraph(strings.TrimSpace(rule.Rationale))
	}

	if rule.Fix != "" {
		w.Header(4, "How to Fix")
		w.Paragraph(strings.TrimSpace(rule.Fix))
	}

	w.Line("---")
	w.Newline()
}
