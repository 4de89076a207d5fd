// Package project locates and parses impack.toml, the optional
// per-project manifest that carries library search paths and default
// packing options.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/xyproto/env/v2"
)

// pathEnvVar names extra library roots, separated like $PATH.
const pathEnvVar = "IMPACK_PATH"

// Manifest is a parsed impack.toml together with its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the impack.toml layout.
type Config struct {
	Package PackageConfig `toml:"package"`
	Lib     LibConfig     `toml:"lib"`
	Pack    PackConfig    `toml:"pack"`
}

// PackageConfig is the [package] section.
type PackageConfig struct {
	Name string `toml:"name"`
}

// LibConfig is the [lib] section: search roots relative to the
// manifest's directory.
type LibConfig struct {
	Paths []string `toml:"paths"`
}

// PackConfig is the [pack] section: per-project defaults for the
// pack command's flags.
type PackConfig struct {
	ShakeTree      bool `toml:"shake_tree"`
	Inline         bool `toml:"inline"`
	Strip          bool `toml:"strip"`
	StripDocstring bool `toml:"strip_docstring"`
	SourceLocation bool `toml:"source_location"`
}

// defaultConfig seeds the fields an absent key leaves untouched.
func defaultConfig() Config {
	return Config{
		Pack: PackConfig{
			ShakeTree:      true,
			Inline:         true,
			SourceLocation: true,
		},
	}
}

// FindImpackToml walks up from startDir to locate impack.toml.
func FindImpackToml(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "impack.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load parses the manifest at path.
func Load(path string) (*Manifest, error) {
	cfg := defaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if meta.IsDefined("package") && strings.TrimSpace(cfg.Package.Name) == "" {
		return nil, fmt.Errorf("%s: missing [package].name", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	return &Manifest{
		Path:   abs,
		Root:   filepath.Dir(abs),
		Config: cfg,
	}, nil
}

// Discover finds and parses the nearest manifest above startDir.
// A missing manifest is not an error; ok reports whether one exists.
func Discover(startDir string) (m *Manifest, ok bool, err error) {
	path, ok, err := FindImpackToml(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err = Load(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// SearchRoots combines the manifest's [lib].paths, resolved against
// the manifest root, with any roots named in IMPACK_PATH. The manifest
// may be nil.
func SearchRoots(m *Manifest) []string {
	var roots []string
	if m != nil {
		for _, p := range m.Config.Lib.Paths {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if !filepath.IsAbs(p) {
				p = filepath.Join(m.Root, filepath.FromSlash(p))
			}
			roots = append(roots, p)
		}
	}
	for _, p := range filepath.SplitList(env.Str(pathEnvVar)) {
		if p = strings.TrimSpace(p); p != "" {
			roots = append(roots, p)
		}
	}
	return roots
}
