// Package ast models a parsed source file as a flat sequence of
// top-level statements. The representation is deliberately shallow:
// a statement keeps its full token stream and byte span, which is all
// the downstream stages need: scope analysis walks tokens and the
// emitter re-serializes spans verbatim.
package ast

import (
	"impack/internal/source"
	"impack/internal/token"
)

// StmtID is a 1-based arena handle; 0 means "no statement".
type StmtID uint32

// StmtKind is the closed set of top-level statement categories.
type StmtKind uint8

const (
	StmtBad StmtKind = iota
	// StmtFunc is a (possibly async, possibly decorated) function definition.
	StmtFunc
	// StmtClass is a class definition.
	StmtClass
	// StmtConst is a simple top-level binding: NAME = expr, with an
	// optional annotation.
	StmtConst
	// StmtImport is a whole-module import statement.
	StmtImport
	// StmtImportFrom is a from-import, including the star form.
	StmtImportFrom
	// StmtOther is any other top-level statement (expressions,
	// conditionals, loops, ...). Only the entry module ever emits these.
	StmtOther
)

func (k StmtKind) String() string {
	switch k {
	case StmtFunc:
		return "func"
	case StmtClass:
		return "class"
	case StmtConst:
		return "const"
	case StmtImport:
		return "import"
	case StmtImportFrom:
		return "import-from"
	case StmtOther:
		return "other"
	}
	return "bad"
}

// IsDefinition reports whether the statement introduces a named
// top-level definition.
func (k StmtKind) IsDefinition() bool {
	return k == StmtFunc || k == StmtClass || k == StmtConst
}

// Decorator is one annotation line above a definition.
type Decorator struct {
	Name string // dotted path without arguments, e.g. "functools.cache"
	Span source.Span
	Line uint32
}

// Param is one parameter of a function definition.
type Param struct {
	Name       string
	Star       bool // *args
	StarStar   bool // **kwargs
	HasDefault bool
}

// ImportForm distinguishes the supported import statement shapes.
type ImportForm uint8

const (
	// ImportModule is "import M [as A][, ...]"; always left verbatim.
	ImportModule ImportForm = iota
	// ImportFrom is "from M import N [as A][, ...]".
	ImportFrom
	// ImportFromStar is "from M import *".
	ImportFromStar
)

// ImportItem is one imported name. Alias equals Name when no "as"
// clause was written; for ImportModule entries Name is the dotted
// module and Alias its local binding (first segment when unaliased).
type ImportItem struct {
	Name  string
	Alias string
}

// ImportStmt is a parsed import statement.
type ImportStmt struct {
	Form     ImportForm
	Module   string // dotted target, leading dots for relative imports
	Items    []ImportItem
	Span     source.Span
	Line     uint32
	TopLevel bool
}

// FuncBody describes a function body simple enough for substitution:
// an optional docstring followed by a single return statement.
type FuncBody struct {
	ReturnExpr []token.Token
}

// Stmt is one top-level statement.
type Stmt struct {
	Kind StmtKind
	Name string // definition name; empty for non-definitions
	Line uint32 // line of the defining keyword, not the first decorator
	Span source.Span

	Decorators []Decorator
	Docstring  string        // raw token text of the doc literal, quotes included
	DocSpans   []source.Span // every string-expression-statement inside, for stripping
	Params     []Param
	Tokens     []token.Token // full token stream of the statement

	Import *ImportStmt // for StmtImport / StmtImportFrom
	Simple *FuncBody   // non-nil when the body is substitution-friendly

	InlineMarked bool
}

// File is the parse result for one module file.
type File struct {
	Source   source.FileID
	Stmts    []StmtID
	Arena    *Arena[Stmt]
	Comments []source.Span
	// NestedImports are import statements found below the top level.
	// They resolve to nothing; the surrounding statement text passes
	// through unchanged.
	NestedImports []ImportStmt
}

// Get returns the statement for a handle.
func (f *File) Get(id StmtID) *Stmt {
	return f.Arena.Get(uint32(id))
}

// Definitions iterates top-level definitions in source order.
func (f *File) Definitions(fn func(StmtID, *Stmt) bool) {
	for _, id := range f.Stmts {
		st := f.Get(id)
		if st.Kind.IsDefinition() {
			if !fn(id, st) {
				return
			}
		}
	}
}
