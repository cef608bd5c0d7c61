package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/cptcheck/internal/cli"
	"github.com/leapstack-labs/cptcheck/internal/cli/config"
	"github.com/leapstack-labs/cptcheck/internal/cli/output"
)

// issueCommands exit 1 when they report problems, without printing an error.
var issueCommands = []string{"validate", "doctor"}

var outputModes = []struct {
	mode output.OutputMode
	desc string
}{
	{output.ModeAuto, "Styled text on a terminal, markdown when piped"},
	{output.ModeText, "Plain text"},
	{output.ModeMarkdown, "Markdown, for pasting into tickets and reviews"},
	{output.ModeJSON, "One JSON document"},
	{output.ModeYAML, "One YAML document"},
}

// generateCLIDocs writes the CLI reference to outDir/cli.md.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	content := buildCLIReference(cli.NewRootCmd())
	log.Printf("  Generated cli.md")
	return os.WriteFile(filepath.Join(outDir, "cli.md"), content, 0600)
}

// buildCLIReference renders the reference page for root and its commands.
func buildCLIReference(root *cobra.Command) []byte {
	cmds := documented(root)

	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Commands, configuration keys and exit codes of cptcheck")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph(cleanDescription(root.Long))
	w.CodeBlock("bash", "go install github.com/leapstack-labs/cptcheck/cmd/cptcheck@latest")

	w.Header(2, "Output Modes")
	w.Paragraph(fmt.Sprintf("Set with %s, %s or the %s key. Commands that take %s accept the same values.",
		InlineCode("--output"), InlineCode(config.EnvVar("output")), InlineCode("output"), InlineCode("--format")))
	var modeRows [][]string
	for _, m := range outputModes {
		modeRows = append(modeRows, []string{InlineCode(string(m.mode)), m.desc})
	}
	w.Table([]string{"Mode", "Output"}, modeRows)

	writeConfigKeys(w, root, cmds)
	writeExitCodes(w, cmds)

	w.Header(2, "Commands")
	for _, cmd := range cmds {
		writeCommand(w, cmd)
	}
	return w.Bytes()
}

func documented(root *cobra.Command) []*cobra.Command {
	var cmds []*cobra.Command
	for _, cmd := range root.Commands() {
		if cmd.Hidden || cmd.Name() == "help" || cmd.Name() == "completion" {
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

// writeConfigKeys lists every config key with its variable and the flags
// that set it.
func writeConfigKeys(w *MarkdownWriter, root *cobra.Command, cmds []*cobra.Command) {
	setBy := map[string][]string{}
	note := func(prefix string) func(*pflag.Flag) {
		return func(f *pflag.Flag) {
			key := config.FlagKey(f.Name)
			if !config.IsKey(key) {
				return
			}
			flag := InlineCode(prefix + "--" + f.Name)
			if !slices.Contains(setBy[key], flag) {
				setBy[key] = append(setBy[key], flag)
			}
		}
	}
	root.PersistentFlags().VisitAll(note(""))
	for _, cmd := range cmds {
		cmd.LocalNonPersistentFlags().VisitAll(note(cmd.Name() + " "))
	}

	w.Header(2, "Configuration")
	w.Paragraph("Values come from the built-in defaults, then `cptcheck.yaml` (searched upward from the working directory), then the environment, then flags. A double underscore in a variable name separates nested keys.")

	var rows [][]string
	for _, key := range config.Keys() {
		rows = append(rows, []string{InlineCode(key), InlineCode(config.EnvVar(key)), strings.Join(setBy[key], ", ")})
	}
	w.Table([]string{"Key", "Environment", "Flags"}, rows)
}

func writeExitCodes(w *MarkdownWriter, cmds []*cobra.Command) {
	var names []string
	for _, cmd := range cmds {
		if slices.Contains(issueCommands, cmd.Name()) {
			names = append(names, InlineCode(cmd.Name()))
		}
	}

	w.Header(2, "Exit Codes")
	w.Table([]string{"Code", "Meaning"}, [][]string{
		{InlineCode("0"), "No problems"},
		{InlineCode("1"), fmt.Sprintf("An error (printed to stderr), or problems reported by %s", strings.Join(names, " or "))},
	})
}

func writeCommand(w *MarkdownWriter, cmd *cobra.Command) {
	w.Line(fmt.Sprintf("### %s {#%s}", cmd.Name(), cmd.Name()))
	w.Newline()
	w.Paragraph(cleanDescription(cmd.Short))
	w.CodeBlock("bash", cmd.UseLine())

	if cmd.HasLocalFlags() {
		var rows [][]string
		cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
			if f.Hidden {
				return
			}
			flag := "--" + f.Name
			if f.Shorthand != "" {
				flag = "-" + f.Shorthand + ", " + flag
			}
			key := ""
			if k := config.FlagKey(f.Name); config.IsKey(k) {
				key = InlineCode(k)
			}
			rows = append(rows, []string{InlineCode(flag), key, defaultValue(f), cleanDescription(f.Usage)})
		})
		w.Table([]string{"Flag", "Config key", "Default", "Description"}, rows)
	}

	if cmd.Example != "" {
		w.CodeBlock("bash", dedent(cmd.Example))
	}
}

func defaultValue(f *pflag.Flag) string {
	switch f.DefValue {
	case "", "[]", "0", "0s":
		return ""
	}
	return InlineCode(f.DefValue)
}

// dedent strips the two-space indent cobra examples are written with.
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, "  ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
