package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xyproto/env/v2"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "impack.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDiscoverWalksUp(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[package]\nname = \"demo\"\n")
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	m, ok, err := Discover(nested)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, dir, m.Root)
	assert.Equal(t, "demo", m.Config.Package.Name)
}

func TestDiscoverWithoutManifest(t *testing.T) {
	_, ok, err := Discover(t.TempDir())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPackDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "[package]\nname = \"demo\"\n")

	m, err := Load(path)
	require.NoError(t, err)
	assert.True(t, m.Config.Pack.ShakeTree)
	assert.True(t, m.Config.Pack.Inline)
	assert.True(t, m.Config.Pack.SourceLocation)
	assert.False(t, m.Config.Pack.Strip)
}

func TestPackOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `[package]
name = "demo"

[pack]
shake_tree = false
strip = true
`)
	m, err := Load(path)
	require.NoError(t, err)
	assert.False(t, m.Config.Pack.ShakeTree)
	assert.True(t, m.Config.Pack.Strip)
	assert.True(t, m.Config.Pack.Inline, "untouched keys keep their defaults")
}

func TestNamedPackageSectionRequiresName(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "[package]\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSearchRootsResolveAgainstManifestRoot(t *testing.T) {
	t.Setenv("IMPACK_PATH", "")
	env.Load() // the package caches the environment; pick up the override
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lib"), 0o755))
	path := writeManifest(t, dir, "[package]\nname = \"demo\"\n\n[lib]\npaths = [\"lib\"]\n")

	m, err := Load(path)
	require.NoError(t, err)
	roots := SearchRoots(m)
	require.Len(t, roots, 1)
	assert.Equal(t, filepath.Join(dir, "lib"), roots[0])
}

func TestSearchRootsFromEnvironment(t *testing.T) {
	extra := t.TempDir()
	t.Setenv("IMPACK_PATH", extra)
	env.Load()

	roots := SearchRoots(nil)
	require.Len(t, roots, 1)
	assert.Equal(t, extra, roots[0])
}
