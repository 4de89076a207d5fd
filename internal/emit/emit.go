// Package emit serializes the retained definitions into one output
// file. Statements are reproduced from their original byte spans; the
// only rewrites are textual edits: inline substitutions, marker
// decorator removal, and the optional comment and docstring strips.
package emit

import (
	"fmt"
	"strings"

	"impack/internal/ast"
	"impack/internal/graph"
	"impack/internal/inline"
	"impack/internal/resolve"
	"impack/internal/source"
)

// Options controls the cosmetic output filters.
type Options struct {
	StripComments   bool
	StripDocstrings bool
	LocationNotes   bool
}

// Input carries the pipeline results the emitter consumes.
type Input struct {
	Graph    *graph.Graph
	FSet     *source.FileSet
	Retained []bool
	Groups   [][]graph.NodeID
	Inline   inline.Result
}

// Render produces the final output text: verbatim imports first, then
// definition groups in dependency order, then the entry module's own
// code.
func Render(in Input, opts Options) string {
	e := &emitter{in: in, opts: opts, subs: make(map[stmtKey][]edit)}
	for _, s := range in.Inline.Subs {
		k := stmtKey{s.Module.ID, s.Stmt}
		e.subs[k] = append(e.subs[k], edit{span: s.Span, text: s.Text})
	}

	var chunks []string
	if header := e.importHeader(); header != "" {
		chunks = append(chunks, header)
	}
	chunks = append(chunks, e.definitionChunks()...)
	if main := e.mainChunk(); main != "" {
		chunks = append(chunks, main)
	}
	if len(chunks) == 0 {
		return ""
	}
	return strings.Join(chunks, "\n\n") + "\n"
}

type stmtKey struct {
	mod  resolve.ModuleID
	stmt ast.StmtID
}

// edit replaces a byte span of the statement's file with text; empty
// text deletes the span.
type edit struct {
	span source.Span
	text string
}

type emitter struct {
	in   Input
	opts Options
	subs map[stmtKey][]edit
}

// importHeader renders the surviving import statements, deduplicated
// by text: two modules importing the same external name need one line.
func (e *emitter) importHeader() string {
	uses := e.in.Graph.VerbatimImports(e.in.Retained)
	seen := make(map[string]bool)
	var lines []string
	for _, u := range uses {
		text := e.renderStmt(u.Module, u.Stmt)
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		lines = append(lines, text)
	}
	return strings.Join(lines, "\n")
}

// definitionChunks walks the ordered groups. A multi-member group is
// mutually recursive and emits as one unit; alias rebindings follow
// the group that defines their target.
func (e *emitter) definitionChunks() []string {
	aliasesFor := e.collectAliases()

	var chunks []string
	for _, grp := range e.in.Groups {
		var parts []string
		var aliasLines []string
		for _, id := range grp {
			if e.in.Inline.Dropped[id] {
				continue
			}
			n := e.in.Graph.Node(id)
			if e.opts.LocationNotes {
				parts = append(parts, fmt.Sprintf("# %s | from %s, line %d", n.Name, n.Module.Name, n.Def.Line))
			}
			parts = append(parts, e.renderStmt(n.Module, n.Stmt))
			for _, a := range aliasesFor[id] {
				aliasLines = append(aliasLines, fmt.Sprintf("%s = %s", a, n.Name))
			}
		}
		parts = append(parts, aliasLines...)
		if len(parts) > 0 {
			chunks = append(chunks, strings.Join(parts, "\n"))
		}
	}
	return chunks
}

// collectAliases gathers every alias spelling used by a retained
// statement, keyed by the definition it rebinds. Aliases of dropped
// definitions are dropped with them: their call sites were rewritten.
func (e *emitter) collectAliases() map[graph.NodeID][]string {
	out := make(map[graph.NodeID][]string)
	seen := make(map[graph.Alias]bool)
	add := func(a graph.Alias) {
		if seen[a] || e.in.Inline.Dropped[a.Target] {
			return
		}
		seen[a] = true
		out[a.Target] = append(out[a.Target], a.Name)
	}
	for id := 1; id <= e.in.Graph.Len(); id++ {
		if !e.in.Retained[id] {
			continue
		}
		for _, a := range e.in.Graph.Node(graph.NodeID(id)).Aliases {
			add(a)
		}
	}
	for _, a := range e.in.Graph.RootAliases {
		add(a)
	}
	return out
}

// mainChunk is the entry module's non-definition code, last and in
// original order.
func (e *emitter) mainChunk() string {
	g := e.in.Graph
	var lines []string
	if e.opts.LocationNotes && len(g.RootStmts) > 0 {
		lines = append(lines, "# From main code")
	}
	for _, sid := range g.RootStmts {
		lines = append(lines, e.renderStmt(g.Entry, sid))
	}
	return strings.Join(lines, "\n")
}

// renderStmt reproduces one statement's source text with all edits
// applied.
func (e *emitter) renderStmt(m *resolve.Module, sid ast.StmtID) string {
	st := m.AST.Get(sid)
	base := st.Span
	text := []byte(e.in.FSet.Text(base))

	edits := append([]edit(nil), e.subs[stmtKey{m.ID, sid}]...)
	edits = append(edits, e.markerEdits(st)...)
	if e.opts.StripDocstrings {
		// A suite whose only statement was its docstring must not end
		// up empty; pass keeps it valid everywhere.
		for _, sp := range st.DocSpans {
			edits = append(edits, edit{span: sp, text: "pass"})
		}
	}
	if e.opts.StripComments {
		for _, sp := range m.AST.Comments {
			if sp.Start >= base.Start && sp.End <= base.End {
				edits = append(edits, edit{span: sp})
			}
		}
	}

	sortEditsDesc(edits)
	for _, ed := range edits {
		s, en := ed.span.Start-base.Start, ed.span.End-base.Start
		if en > uint32(len(text)) {
			en = uint32(len(text))
		}
		text = append(text[:s], append([]byte(ed.text), text[en:]...)...)
	}

	out := string(text)
	if e.opts.StripComments {
		out = trimLineTrailers(out)
	}
	return strings.Trim(out, "\n")
}

// markerEdits removes the inline marker decorator from a retained
// definition. The marker is a packing directive, not a runtime name;
// leaving it in would emit a reference to nothing.
func (e *emitter) markerEdits(st *ast.Stmt) []edit {
	if !st.InlineMarked {
		return nil
	}
	var edits []edit
	for _, d := range st.Decorators {
		name := d.Name
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		if name != "inline" {
			continue
		}
		sp := d.Span
		// Take the line break with the decorator.
		f := e.in.FSet.Get(sp.File)
		if sp.End < uint32(len(f.Content)) && f.Content[sp.End] == '\n' {
			sp.End++
		}
		edits = append(edits, edit{span: sp})
	}
	return edits
}

func sortEditsDesc(edits []edit) {
	for i := 1; i < len(edits); i++ {
		for j := i; j > 0 && edits[j].span.Start > edits[j-1].span.Start; j-- {
			edits[j], edits[j-1] = edits[j-1], edits[j]
		}
	}
}

// trimLineTrailers drops the whitespace a removed trailing comment
// leaves behind.
func trimLineTrailers(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}
