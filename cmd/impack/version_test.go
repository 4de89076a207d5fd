package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderVersionPretty(t *testing.T) {
	info := versionInfo{Version: "1.2.3", GitCommit: "abc123", BuildDate: "2026-08-23"}

	var buf strings.Builder
	renderVersionPretty(&buf, info, versionOptions{showHash: true, showDate: true})
	out := buf.String()
	assert.Contains(t, out, "impack 1.2.3")
	assert.Contains(t, out, "commit: abc123")
	assert.Contains(t, out, "built:  2026-08-23")
}

func TestRenderVersionPrettyHintsAtFlags(t *testing.T) {
	var buf strings.Builder
	renderVersionPretty(&buf, versionInfo{Version: "dev"}, versionOptions{})
	assert.Contains(t, buf.String(), "--full")
}

func TestRenderVersionJSONOmitsHiddenFields(t *testing.T) {
	info := versionInfo{Version: "1.2.3", GitCommit: "abc123"}

	var buf strings.Builder
	require.NoError(t, renderVersionJSON(&buf, info, versionOptions{showHash: true}))

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(buf.String()), &payload))
	assert.Equal(t, "impack", payload["tool"])
	assert.Equal(t, "abc123", payload["git_commit"])
	_, hasDate := payload["build_date"]
	assert.False(t, hasDate)
}

func TestReadUIMode(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want uiMode
	}{
		{"", uiModeAuto},
		{"auto", uiModeAuto},
		{"ON", uiModeOn},
		{" off ", uiModeOff},
	} {
		got, err := readUIMode(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
	_, err := readUIMode("never")
	assert.Error(t, err)
}
