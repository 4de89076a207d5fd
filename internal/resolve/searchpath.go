package resolve

import (
	"os"
	"path/filepath"
	"strings"
)

// sourceExt is the file extension of module files.
const sourceExt = ".py"

// target classifies what an import specifier points at.
type targetKind uint8

const (
	targetNotFound targetKind = iota
	targetModule
	targetPackage
	targetAmbiguous
)

type target struct {
	kind  targetKind
	path  string   // module file path for targetModule
	paths []string // the conflicting candidates for targetAmbiguous
}

// splitSpecifier separates the leading relative-import dots from the
// dotted module path: "..pkg.mod" -> (2, "pkg.mod").
func splitSpecifier(spec string) (level int, name string) {
	for level < len(spec) && spec[level] == '.' {
		level++
	}
	return level, spec[level:]
}

// locate finds the file an import specifier refers to. Relative
// specifiers resolve against the importing module's directory, one
// parent per dot beyond the first. Absolute specifiers are tried
// against the importing directory first, then each configured search
// root; two distinct hits among the roots make the import ambiguous.
func locate(spec, fromDir string, roots []string) target {
	level, name := splitSpecifier(spec)

	if level > 0 {
		dir := fromDir
		for i := 1; i < level; i++ {
			dir = filepath.Dir(dir)
		}
		return probe(dir, name)
	}

	// The importing module's own directory wins outright.
	if t := probe(fromDir, name); t.kind != targetNotFound {
		return t
	}

	var hits []target
	for _, root := range roots {
		if t := probe(root, name); t.kind != targetNotFound {
			hits = append(hits, t)
		}
	}
	switch len(hits) {
	case 0:
		return target{kind: targetNotFound}
	case 1:
		return hits[0]
	}
	paths := make([]string, 0, len(hits))
	for _, h := range hits {
		paths = append(paths, h.path)
	}
	// Identical canonical paths (e.g. duplicate roots) are one hit.
	if allEqual(paths) {
		return hits[0]
	}
	return target{kind: targetAmbiguous, paths: paths}
}

// probe checks one base directory for the dotted name. An empty name
// means the directory itself (a relative "from . import x").
func probe(dir, name string) target {
	if name == "" {
		if isDir(dir) {
			return target{kind: targetPackage, path: dir}
		}
		return target{kind: targetNotFound}
	}

	segments := strings.Split(name, ".")
	cur := dir
	for i, seg := range segments {
		last := i == len(segments)-1
		if last {
			file := filepath.Join(cur, seg+sourceExt)
			if isFile(file) {
				abs, err := filepath.Abs(file)
				if err != nil {
					abs = file
				}
				return target{kind: targetModule, path: abs}
			}
			pkg := filepath.Join(cur, seg)
			if isDir(pkg) {
				return target{kind: targetPackage, path: pkg}
			}
			return target{kind: targetNotFound}
		}
		cur = filepath.Join(cur, seg)
		if !isDir(cur) {
			return target{kind: targetNotFound}
		}
	}
	return target{kind: targetNotFound}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func allEqual(paths []string) bool {
	for i := 1; i < len(paths); i++ {
		if paths[i] != paths[0] {
			return false
		}
	}
	return true
}
