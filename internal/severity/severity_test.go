package severity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverity(t *testing.T) {
	tests := []struct {
		severity Severity
		name     string
		symbol   string
	}{
		{SeverityError, "error", "✗"},
		{SeverityWarning, "warning", "⚠"},
		{SeverityInfo, "info", "ℹ"},
		{Severity(-1), "unknown", "?"},
		{Severity(42), "unknown", "?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.severity.String())
			assert.Equal(t, tt.symbol, tt.severity.Symbol())
		})
	}
}

func TestZeroValueIsError(t *testing.T) {
	var s Severity
	assert.Equal(t, SeverityError, s)
}

func TestMarshalText(t *testing.T) {
	data, err := json.Marshal(map[string]Severity{"level": SeverityWarning})
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":"warning"}`, string(data))
}
