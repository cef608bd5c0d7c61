package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/cptcheck/pkg/document"
)

func noop(*document.Document) Outcome { return NoFinding() }

func TestRegistry_SortedByID(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	// Registration order differs from ID order on purpose.
	Register(RuleDef{ID: "DT01", Group: "dissipation", Check: noop})
	Register(RuleDef{ID: "CP02", Group: "penetrometer", Check: noop})
	Register(RuleDef{ID: "CT01", Group: "cpt", Check: noop})
	Register(RuleDef{ID: "CP01", Group: "penetrometer", Check: noop})

	var ids []string
	for _, r := range Rules() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"CP01", "CP02", "CT01", "DT01"}, ids)
	assert.Equal(t, 4, Count())
	assert.Equal(t, []string{"penetrometer", "cpt", "dissipation"}, Groups())

	group := GetByGroup("penetrometer")
	require.Len(t, group, 2)
	assert.Equal(t, "CP01", group[0].ID)

	r, ok := GetByID("CT01")
	require.True(t, ok)
	assert.Equal(t, "cpt", r.Group)

	_, ok = GetByID("XX99")
	assert.False(t, ok)

	infos := RuleInfos()
	require.Len(t, infos, 4)
	assert.Equal(t, "CP01", infos[0].ID)
}

func TestRegistry_RejectsDuplicatesAndIncompleteRules(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	Register(RuleDef{ID: "CP01", Check: noop})
	assert.Panics(t, func() { Register(RuleDef{ID: "CP01", Check: noop}) })
	assert.Panics(t, func() { Register(RuleDef{ID: "CP02"}) })
	assert.Panics(t, func() { Register(RuleDef{Check: noop}) })
}

func TestConfig_NilIsPermissive(t *testing.T) {
	var c *Config
	assert.False(t, c.IsDisabled("CP01"))
	assert.Equal(t, SeverityInfo, c.GetSeverity("CP01", SeverityInfo))
}
