package commands

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

//go:embed templates/cptcheck.yaml
var configTemplate []byte

// configFileName is the file written by init.
const configFileName = "cptcheck.yaml"

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a cptcheck.yaml with the default settings",
		Long: `Write a commented cptcheck.yaml holding every setting at its default value,
plus two example lint profiles.`,
		Example: `  # Initialize in current directory
  cptcheck init

  # Initialize in another directory
  cptcheck init ./intake

  # Overwrite an existing config
  cptcheck init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			path, err := writeConfig(dir, force)
			if err != nil {
				return err
			}
			r := NewCommandContext(cmd).Renderer
			r.Success("Created " + path)
			r.Muted("Run 'cptcheck doctor' to check the setup")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration")

	return cmd
}

// writeConfig writes the config template into dir and returns its path.
func writeConfig(dir string, force bool) (string, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, configFileName)
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%s already exists. Use --force to overwrite", path)
	}

	if err := os.WriteFile(path, configTemplate, 0600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
