package graph

import (
	"fmt"

	"impack/internal/ast"
	"impack/internal/diag"
	"impack/internal/resolve"
	"impack/internal/scope"
)

// Build loads the transitive import closure of entry through the
// cache, then resolves every free name of every definition into graph
// edges. Resolution order for a name used in module M: M's own
// definitions first, then M's imports from last to first (a later
// import rebinds an earlier one), wildcard imports consulting the
// target module's definition table recursively. Names that resolve to
// nothing are assumed external and produce no edge.
func Build(c *resolve.Cache, entry *resolve.Module, reporter diag.Reporter) (*Graph, error) {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	g := &Graph{
		Entry:    entry,
		nodes:    make([]Node, 1),
		byKey:    make(map[nodeKey]NodeID),
		bindings: make(map[resolve.ModuleID]*moduleImports),
	}
	b := &builder{g: g, cache: c, reporter: reporter}

	if err := b.loadClosure(entry); err != nil {
		return nil, err
	}
	b.collectNodes()
	b.resolveEdges()
	b.resolveRoot()
	return g, nil
}

type builder struct {
	g        *Graph
	cache    *resolve.Cache
	reporter diag.Reporter
}

// loadClosure walks modules breadth-first from the entry, resolving
// each top-level import exactly once and recording the result.
func (b *builder) loadClosure(entry *resolve.Module) error {
	seen := map[resolve.ModuleID]bool{entry.ID: true}
	queue := []*resolve.Module{entry}
	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		b.g.Modules = append(b.g.Modules, m)

		mi := &moduleImports{}
		for _, rec := range m.Imports() {
			target := b.cache.ResolveImport(m, rec.Import)
			mi.entries = append(mi.entries, importEntry{stmt: rec.Stmt, imp: rec.Import, target: target})
			if target != nil && !seen[target.ID] {
				seen[target.ID] = true
				queue = append(queue, target)
			}
		}
		b.g.bindings[m.ID] = mi

		if m != entry {
			b.warnSideEffects(m)
		}
		if err := b.cache.Err(); err != nil {
			return err
		}
	}
	return nil
}

// warnSideEffects flags library modules whose top level does more than
// define names. Those statements are never merged; running the output
// skips whatever they did.
func (b *builder) warnSideEffects(m *resolve.Module) {
	for _, sid := range m.AST.Stmts {
		st := m.AST.Get(sid)
		if st.Kind != ast.StmtOther {
			continue
		}
		diag.ReportWarning(b.reporter, diag.UnsupSideEffects, st.Span,
			fmt.Sprintf("module %s runs code at top level; those statements are not merged", m.Name)).Emit()
		return
	}
}

// collectNodes creates one node per (module, name). When a library
// module rebinds a name, only the winning definition becomes a node.
// Entry-module constants are not nodes at all: they are emitted with
// the main code in source order, so rebinding chains like "x = 1"
// followed by "x = x + 1" survive intact and effects stay ordered.
func (b *builder) collectNodes() {
	for _, m := range b.g.Modules {
		mod := m
		mod.AST.Definitions(func(sid ast.StmtID, st *ast.Stmt) bool {
			if mod == b.g.Entry && st.Kind == ast.StmtConst {
				return true
			}
			if mod.Defs[st.Name] != sid {
				return true
			}
			id := NodeID(len(b.g.nodes))
			b.g.nodes = append(b.g.nodes, Node{Module: mod, Name: st.Name, Stmt: sid, Def: st})
			b.g.byKey[nodeKey{mod.ID, st.Name}] = id
			return true
		})
	}
}

func (b *builder) resolveEdges() {
	for id := 1; id < len(b.g.nodes); id++ {
		n := &b.g.nodes[id]
		info := scope.Analyze(n.Def)
		n.SelfRecursive = info.SelfRecursive

		refs := newRefSet()
		for _, name := range info.Free {
			b.resolveName(refs, n.Module, name)
		}
		n.Edges, n.Refs, n.Aliases, n.Verbatim = refs.edges, refs.refs, refs.aliases, refs.verbatim
	}
}

// resolveRoot links the synthetic root: the entry module's top-level
// code (plain statements and constant assignments, in source order)
// and everything it reads.
func (b *builder) resolveRoot() {
	refs := newRefSet()
	for _, sid := range b.g.Entry.AST.Stmts {
		st := b.g.Entry.AST.Get(sid)
		if st.Kind != ast.StmtOther && st.Kind != ast.StmtConst {
			continue
		}
		b.g.RootStmts = append(b.g.RootStmts, sid)
		for _, name := range scope.Analyze(st).Free {
			b.resolveName(refs, b.g.Entry, name)
		}
	}
	b.g.RootEdges, b.g.RootRefs, b.g.RootAliases, b.g.RootVerbatim = refs.edges, refs.refs, refs.aliases, refs.verbatim
}

// resolveName records what a free name in module m refers to.
func (b *builder) resolveName(refs *refSet, m *resolve.Module, name string) {
	if id := b.g.byKey[nodeKey{m.ID, name}]; id != NoNode {
		refs.addEdge(id, name)
		return
	}

	entries := b.g.bindings[m.ID].entries
	for i := len(entries) - 1; i >= 0; i-- {
		e := &entries[i]
		switch e.imp.Form {
		case ast.ImportModule, ast.ImportFrom:
			for _, it := range e.imp.Items {
				if it.Alias != name {
					continue
				}
				if e.imp.Form == ast.ImportModule || e.target == nil {
					refs.addVerbatim(VerbatimUse{Module: m, Stmt: e.stmt})
					return
				}
				if id := b.g.byKey[nodeKey{e.target.ID, it.Name}]; id != NoNode {
					refs.addEdge(id, it.Alias)
					if it.Alias != it.Name {
						refs.addAlias(Alias{Name: it.Alias, Target: id})
					}
					return
				}
				// The target merged but never defines the name. Keep
				// the import so the reference stays spelled out.
				refs.addVerbatim(VerbatimUse{Module: m, Stmt: e.stmt})
				return
			}
		case ast.ImportFromStar:
			if e.target == nil {
				// The unresolved wildcard may well be where this name
				// comes from; keep the import so the output still binds
				// it at runtime. An earlier import can still claim the
				// name as a definition edge.
				refs.addVerbatim(VerbatimUse{Module: m, Stmt: e.stmt})
				continue
			}
			if id := b.lookupStar(e.target, name, map[resolve.ModuleID]bool{m.ID: true}); id != NoNode {
				refs.addEdge(id, name)
				return
			}
		}
	}
	// External or builtin: assumed available at runtime, no edge.
}

// lookupStar finds name among a wildcard-imported module's own
// definitions, chasing chained wildcard imports recursively.
func (b *builder) lookupStar(m *resolve.Module, name string, visited map[resolve.ModuleID]bool) NodeID {
	if visited[m.ID] {
		return NoNode
	}
	visited[m.ID] = true

	if id := b.g.byKey[nodeKey{m.ID, name}]; id != NoNode {
		return id
	}
	mi := b.g.bindings[m.ID]
	entries := mi.entries
	for i := len(entries) - 1; i >= 0; i-- {
		e := &entries[i]
		if e.imp.Form != ast.ImportFromStar {
			continue
		}
		if e.target == nil {
			if !mi.starWarned {
				mi.starWarned = true
				diag.ReportWarning(b.reporter, diag.UnsupStarReexport, e.imp.Span,
					fmt.Sprintf("names re-exported by %s through an unresolved wildcard import cannot be traced", m.Name)).Emit()
			}
			continue
		}
		if id := b.lookupStar(e.target, name, visited); id != NoNode {
			return id
		}
	}
	return NoNode
}

// refSet accumulates resolution results with deduplication.
type refSet struct {
	edges    []NodeID
	refs     []Ref
	aliases  []Alias
	verbatim []VerbatimUse

	edgeSeen     map[NodeID]bool
	refSeen      map[Ref]bool
	aliasSeen    map[Alias]bool
	verbatimSeen map[VerbatimUse]bool
}

func newRefSet() *refSet {
	return &refSet{
		edgeSeen:     make(map[NodeID]bool),
		refSeen:      make(map[Ref]bool),
		aliasSeen:    make(map[Alias]bool),
		verbatimSeen: make(map[VerbatimUse]bool),
	}
}

func (r *refSet) addEdge(id NodeID, name string) {
	if !r.edgeSeen[id] {
		r.edgeSeen[id] = true
		r.edges = append(r.edges, id)
	}
	ref := Ref{Name: name, Target: id}
	if !r.refSeen[ref] {
		r.refSeen[ref] = true
		r.refs = append(r.refs, ref)
	}
}

func (r *refSet) addAlias(a Alias) {
	if !r.aliasSeen[a] {
		r.aliasSeen[a] = true
		r.aliases = append(r.aliases, a)
	}
}

func (r *refSet) addVerbatim(u VerbatimUse) {
	if !r.verbatimSeen[u] {
		r.verbatimSeen[u] = true
		r.verbatim = append(r.verbatim, u)
	}
}
