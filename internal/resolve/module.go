// Package resolve maps import specifiers to on-disk module files and
// owns the per-run module cache: every module is parsed exactly once,
// keyed by its canonical path, no matter how many different specifiers
// reach it.
package resolve

import (
	"path/filepath"

	"impack/internal/ast"
	"impack/internal/source"
)

// ModuleID identifies a module within one Cache, in discovery order.
type ModuleID uint32

// Module is one parsed source file. Immutable once constructed.
type Module struct {
	ID     ModuleID
	Path   string // canonical absolute path; the cache key
	Name   string // base file name, e.g. "vec.py"
	Dir    string
	FileID source.FileID
	AST    *ast.File
	// Defs maps a top-level definition name to its statement handle.
	// A name defined twice keeps the later definition, matching
	// runtime rebinding semantics.
	Defs map[string]ast.StmtID
}

func newModule(id ModuleID, path string, fileID source.FileID, tree *ast.File) *Module {
	m := &Module{
		ID:     id,
		Path:   path,
		Name:   filepath.Base(path),
		Dir:    filepath.Dir(path),
		FileID: fileID,
		AST:    tree,
		Defs:   make(map[string]ast.StmtID),
	}
	tree.Definitions(func(sid ast.StmtID, st *ast.Stmt) bool {
		m.Defs[st.Name] = sid
		return true
	})
	return m
}

// Imports returns the module's top-level import statements in source
// order, paired with their statement handles.
func (m *Module) Imports() []ImportRecord {
	var out []ImportRecord
	for _, sid := range m.AST.Stmts {
		st := m.AST.Get(sid)
		if st.Import != nil {
			out = append(out, ImportRecord{Stmt: sid, Import: st.Import})
		}
	}
	return out
}

// ImportRecord pairs an import statement with its handle.
type ImportRecord struct {
	Stmt   ast.StmtID
	Import *ast.ImportStmt
}
