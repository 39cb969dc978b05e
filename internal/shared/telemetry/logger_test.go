package telemetry

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONOutputCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	Info("llm.attempt", map[string]any{"provider": "groq", "input_chars": 32000, "truncated": true})
	Warn("llm.fallback", map[string]any{"from": "groq", "to": "openai"})
	Error("http.error", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "llm.attempt", first["msg"])
	assert.Equal(t, "info", first["level"])
	assert.Equal(t, "groq", first["provider"])
	assert.Equal(t, float64(32000), first["input_chars"])
	assert.Equal(t, true, first["truncated"])
	assert.NotEmpty(t, first["ts"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "warn", second["level"])

	var third map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &third))
	assert.Equal(t, "error", third["level"])
}

func TestSetOutputRestores(t *testing.T) {
	var first, second bytes.Buffer
	restoreFirst := SetOutput(&first)
	restoreSecond := SetOutput(&second)

	Info("to-second", nil)
	restoreSecond()
	Info("to-first", nil)
	restoreFirst()

	assert.Contains(t, second.String(), "to-second")
	assert.NotContains(t, second.String(), "to-first")
	assert.Contains(t, first.String(), "to-first")
}
