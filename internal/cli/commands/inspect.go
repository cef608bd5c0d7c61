package commands

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/cptcheck/internal/cli/output"
	"github.com/leapstack-labs/cptcheck/pkg/document"
)

// InspectOptions holds options for the inspect command.
type InspectOptions struct {
	Paths      bool // List element paths instead of metadata
	Namespaces bool // List namespace prefixes
}

// InspectOutput is the structured output of inspect.
type InspectOutput struct {
	Path         string            `json:"path" yaml:"path"`
	IsCPT        bool              `json:"is_cpt" yaml:"is_cpt"`
	Metadata     document.Metadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Measurements []MatrixSummary   `json:"measurements" yaml:"measurements"`
	Namespaces   map[string]string `json:"namespaces,omitempty" yaml:"namespaces,omitempty"`
	Paths        []string          `json:"paths,omitempty" yaml:"paths,omitempty"`
}

// MatrixSummary describes one measurement table.
type MatrixSummary struct {
	Test    string          `json:"test" yaml:"test"`
	Rows    int             `json:"rows" yaml:"rows"`
	Columns int             `json:"columns" yaml:"columns"`
	Missing []ColumnMissing `json:"missing" yaml:"missing"`
}

// ColumnMissing counts missing-value markers in a checked column.
type ColumnMissing struct {
	Column string `json:"column" yaml:"column"`
	Index  int    `json:"index" yaml:"index"`
	Count  int    `json:"count" yaml:"count"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	opts := &InspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show how a registration request is read",
		Long: `Print the flattened metadata of a registration request and a summary of
its measurement tables, as the rules see them.

Repeated sibling elements appear with a numeric suffix (name2, name3, ...).
Measurement values are summarised, never printed.`,
		Example: `  # Metadata and measurement summary
  cptcheck inspect request.xml

  # Element paths and namespace prefixes
  cptcheck inspect request.xml --paths --namespaces

  # Everything as JSON
  cptcheck inspect request.xml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Paths, "paths", false, "List element paths instead of metadata")
	cmd.Flags().BoolVar(&opts.Namespaces, "namespaces", false, "List namespace prefixes")
	cmd.Flags().StringP("format", "f", "", "Output format: text, markdown, json, yaml")

	return cmd
}

func runInspect(cmd *cobra.Command, path string, opts *InspectOptions) error {
	r := NewCommandContext(cmd).Renderer

	content, err := os.ReadFile(path) //nolint:gosec // G304: path is supplied by the user
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := document.ParseBytes(content)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	out := InspectOutput{
		Path:         path,
		IsCPT:        doc.IsCPT(),
		Measurements: summarizeMatrices(doc),
	}
	if opts.Paths {
		out.Paths = doc.Paths()
	} else {
		out.Metadata = doc.Metadata()
	}
	if opts.Namespaces {
		out.Namespaces = doc.Namespaces()
	}

	if ok, err := r.Structured(out); ok {
		return err
	}
	return renderInspect(r, out)
}

func summarizeMatrices(doc *document.Document) []MatrixSummary {
	summaries := make([]MatrixSummary, 0)

	if m, ok := doc.ConeTestMatrix(); ok {
		s := MatrixSummary{Test: "conePenetrationTest", Rows: m.Rows(), Columns: m.Cols()}
		for _, c := range []document.CptColumn{
			document.CptDepth,
			document.CptCorrectedConeResistance,
			document.CptInclinationResultant,
			document.CptLocalFriction,
			document.CptFrictionRatio,
		} {
			s.Missing = append(s.Missing, ColumnMissing{Column: c.String(), Index: c.Index(), Count: m.CountMissing(c.Index())})
		}
		summaries = append(summaries, s)
	}

	if matrices, ok := doc.DissipationMatrices(); ok {
		for i, m := range matrices {
			s := MatrixSummary{Test: "dissipationTest " + strconv.Itoa(i+1), Rows: m.Rows(), Columns: m.Cols()}
			for _, c := range []document.DissipationColumn{
				document.DissipationConeResistance,
				document.DissipationPorePressureU1,
				document.DissipationPorePressureU2,
			} {
				s.Missing = append(s.Missing, ColumnMissing{Column: c.String(), Index: c.Index(), Count: m.CountMissing(c.Index())})
			}
			summaries = append(summaries, s)
		}
	}
	return summaries
}

func renderInspect(r *output.Renderer, out InspectOutput) error {
	mode := r.EffectiveMode()
	markdown := mode == output.ModeMarkdown

	r.Header(out.Path)
	r.Println(output.FormatKeyValue(mode, "CPT registration request", strconv.FormatBool(out.IsCPT)))
	r.Println("")

	if out.Paths != nil {
		r.Println(output.FormatHeader(mode, "Paths"))
		r.Println("")
		for _, p := range out.Paths {
			if markdown {
				r.Printf("- `%s`\n", p)
			} else {
				r.Println("  " + p)
			}
		}
		r.Println("")
	} else {
		r.Println(output.FormatHeader(mode, "Metadata"))
		r.Println("")
		if markdown {
			r.Println("```yaml")
		}
		if err := r.YAML(out.Metadata); err != nil {
			return err
		}
		if markdown {
			r.Println("```")
		}
		r.Println("")
	}

	if out.Namespaces != nil {
		r.Println(output.FormatHeader(mode, "Namespaces"))
		r.Println("")
		prefixes := make([]string, 0, len(out.Namespaces))
		for p := range out.Namespaces {
			prefixes = append(prefixes, p)
		}
		sort.Strings(prefixes)
		rows := make([][]string, 0, len(prefixes))
		for _, p := range prefixes {
			name := p
			if name == "" {
				name = "(default)"
			}
			rows = append(rows, []string{name, out.Namespaces[p]})
		}
		r.Table([]string{"Prefix", "URI"}, rows)
		r.Println("")
	}

	r.Println(output.FormatHeader(mode, "Measurements"))
	r.Println("")
	if len(out.Measurements) == 0 {
		r.Println("No measurement tables.")
		return nil
	}
	var rows [][]string
	for _, m := range out.Measurements {
		for _, c := range m.Missing {
			rows = append(rows, []string{
				m.Test,
				strconv.Itoa(m.Rows),
				fmt.Sprintf("%s (%d)", c.Column, c.Index),
				strconv.Itoa(c.Count),
			})
		}
	}
	r.Table([]string{"Test", "Rows", "Column", "Missing"}, rows)
	return nil
}
