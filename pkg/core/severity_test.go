package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		sev  Severity
		want string
	}{
		{SeverityError, "error"},
		{SeverityWarning, "warning"},
		{SeverityInfo, "info"},
		{SeverityHint, "hint"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sev.String())
		})
	}
}

func TestParseSeverity(t *testing.T) {
	sev, ok := ParseSeverity(" Error ")
	assert.True(t, ok)
	assert.Equal(t, SeverityError, sev)

	sev, ok = ParseSeverity("loud")
	assert.False(t, ok)
	assert.Equal(t, SeverityWarning, sev)
}

func TestSeverity_AtLeast(t *testing.T) {
	assert.True(t, SeverityError.AtLeast(SeverityWarning))
	assert.True(t, SeverityWarning.AtLeast(SeverityWarning))
	assert.False(t, SeverityInfo.AtLeast(SeverityWarning))
}

func TestSeverity_JSON(t *testing.T) {
	out, err := json.Marshal(RuleInfo{ID: "CP01", DefaultSeverity: SeverityError})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"default_severity":"error"`)

	var info RuleInfo
	require.NoError(t, json.Unmarshal([]byte(`{"default_severity":"hint"}`), &info))
	assert.Equal(t, SeverityHint, info.DefaultSeverity)

	assert.Error(t, json.Unmarshal([]byte(`{"default_severity":"loud"}`), &info))
}
