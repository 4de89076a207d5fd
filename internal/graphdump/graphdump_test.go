package graphdump

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"impack/internal/diag"
	"impack/internal/graph"
	"impack/internal/resolve"
	"impack/internal/source"
)

func TestDumpRoundTrip(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"main.py": "from lib import used\nprint(used())\n",
		"lib.py":  "def used():\n    return helper()\n\ndef helper():\n    return 1\n\ndef unused():\n    return 2\n",
	}
	for rel, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, rel), []byte(content), 0o644))
	}
	cache := resolve.NewCache(source.NewFileSet(), []string{dir}, nil)
	entry, err := cache.Load(filepath.Join(dir, "main.py"))
	require.NoError(t, err)
	g, err := graph.Build(cache, entry, diag.NopReporter{})
	require.NoError(t, err)
	retained := g.Shake(true)

	path := filepath.Join(dir, "out", "graph.mp")
	require.NoError(t, Write(path, g, retained))

	payload, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, entry.Path, payload.Entry)
	assert.Len(t, payload.Modules, 2)
	require.Len(t, payload.Defs, 3)

	byName := make(map[string]DefRecord)
	for _, d := range payload.Defs {
		byName[d.Name] = d
	}
	assert.True(t, byName["used"].Retained)
	assert.True(t, byName["helper"].Retained)
	assert.False(t, byName["unused"].Retained)
	assert.Equal(t, "func", byName["used"].Kind)

	var rootToUsed, usedToHelper bool
	for _, e := range payload.Edges {
		if e.From == 0 && e.To == byName["used"].Node {
			rootToUsed = true
		}
		if e.From == byName["used"].Node && e.To == byName["helper"].Node {
			usedToHelper = true
		}
	}
	assert.True(t, rootToUsed, "root edge must point at the entry's only call target")
	assert.True(t, usedToHelper)
}

func TestReadRejectsUnknownSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.mp")

	data, err := msgpack.Marshal(&Payload{Schema: 99})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = Read(path)
	assert.Error(t, err)
}
