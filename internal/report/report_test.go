package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSuccess(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteSuccess(&out, map[string]any{"cpu_count": 8}))

	var m map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &m))
	assert.Equal(t, "success", m["status"])
	data, ok := m["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(8), data["cpu_count"])
	assert.NotContains(t, m, "message")
}

func TestWriteError(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteError(&out, "plugin execution failed: bad config"))

	assert.Equal(t, 1, strings.Count(out.String(), "\n"), "error envelope is a single line")

	var m map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &m))
	assert.Equal(t, "error", m["status"])
	assert.Equal(t, "plugin execution failed: bad config", m["message"])
	assert.NotContains(t, m, "data")
}
