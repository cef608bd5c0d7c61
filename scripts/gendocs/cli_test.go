package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/cptcheck/internal/cli"
)

func TestBuildCLIReference(t *testing.T) {
	doc := string(buildCLIReference(cli.NewRootCmd()))

	assert.True(t, strings.HasPrefix(doc, "---\n"))
	assert.Contains(t, doc, "| `markdown` |")

	// config keys carry their variable and the flags that set them
	assert.Contains(t, doc, "| `lint.disabled` | `CPTCHECK_LINT__DISABLED` | `validate --disable`, `watch --disable` |")
	assert.Contains(t, doc, "| `state_path` | `CPTCHECK_STATE_PATH` | `--state` |")
	assert.Contains(t, doc, "`CPTCHECK_SERVER__MAX_BODY_BYTES`")

	assert.Contains(t, doc, "problems reported by `doctor` or `validate`")

	assert.Contains(t, doc, "### validate {#validate}")
	assert.Contains(t, doc, "| `--disable` | `lint.disabled` |")
	assert.Contains(t, doc, "| `-n, --limit` |  | `20` |", "history flags are not config keys")
	assert.NotContains(t, doc, "### completion")
}

func TestGenerateCLIDocs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cli")
	require.NoError(t, generateCLIDocs(dir))

	content, err := os.ReadFile(filepath.Join(dir, "cli.md"))
	require.NoError(t, err)
	assert.Contains(t, string(content), generatedMarker)
}

func TestDedent(t *testing.T) {
	assert.Equal(t, "# a\ncptcheck validate .", dedent("  # a\n  cptcheck validate .\n"))
}
