package logging

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogWritesJSONFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	Debug("hidden", nil)
	Info("search_failed", map[string]any{"tier": "pairs", "calls": 2})

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "search_failed", line["message"])
	assert.Equal(t, "pairs", line["tier"])
	assert.EqualValues(t, 2, line["calls"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "warn", parseLevel("WARNING").String())
	assert.Equal(t, "disabled", parseLevel("off").String())
	assert.Equal(t, "info", parseLevel("bogus").String())
}
