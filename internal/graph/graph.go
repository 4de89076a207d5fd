// Package graph builds the dependency graph over top-level
// definitions: one node per (module, name), edges following resolved
// free-name references. The entry module's non-definition statements
// act as a synthetic root. Reachability over the graph is the tree
// shaker; strongly connected components drive emission order.
package graph

import (
	"impack/internal/ast"
	"impack/internal/resolve"
)

// NodeID is a 1-based handle into the graph's node arena; 0 means
// "no node".
type NodeID uint32

// NoNode is the zero handle.
const NoNode NodeID = 0

// Ref is one resolved free-name reference: the name as spelled at the
// use site and the definition it lands on. Edges carry the same
// information deduplicated by target; Refs keep the spelling, which
// the inliner needs to find call sites.
type Ref struct {
	Name   string
	Target NodeID
}

// Alias records that a definition is referenced under a local name
// different from its own, via "from M import N as Z". The output must
// rebind the alias after the target's definition.
type Alias struct {
	Name   string
	Target NodeID
}

// VerbatimUse marks an import statement that must survive into the
// output because a retained definition (or the entry root) reads a
// name bound by it.
type VerbatimUse struct {
	Module *resolve.Module
	Stmt   ast.StmtID
}

// Node is one top-level definition.
type Node struct {
	Module *resolve.Module
	Name   string
	Stmt   ast.StmtID
	Def    *ast.Stmt

	// Edges point at the definitions this one reads, deduplicated.
	Edges []NodeID
	// Refs, Aliases and Verbatim record how the reads were spelled;
	// the inliner and emitter need them to keep every reference
	// resolvable.
	Refs     []Ref
	Aliases  []Alias
	Verbatim []VerbatimUse

	SelfRecursive bool
}

// Graph is the fully resolved dependency graph for one run.
type Graph struct {
	Entry *resolve.Module
	// Modules lists every merged module in discovery order, entry
	// first. Discovery order breaks emission ties.
	Modules []*resolve.Module

	// RootStmts are the entry module's non-definition, non-import
	// statements in source order. Together they form the synthetic
	// root node.
	RootStmts    []ast.StmtID
	RootEdges    []NodeID
	RootRefs     []Ref
	RootAliases  []Alias
	RootVerbatim []VerbatimUse

	nodes    []Node // index 0 unused
	byKey    map[nodeKey]NodeID
	bindings map[resolve.ModuleID]*moduleImports
}

type nodeKey struct {
	mod  resolve.ModuleID
	name string
}

// moduleImports keeps one module's top-level imports in source order,
// each paired with its resolution result.
type moduleImports struct {
	entries []importEntry
	// starWarned suppresses repeated unresolved-wildcard warnings.
	starWarned bool
}

type importEntry struct {
	stmt   ast.StmtID
	imp    *ast.ImportStmt
	target *resolve.Module // nil when the import stays verbatim
}

// Len returns the number of definition nodes.
func (g *Graph) Len() int {
	return len(g.nodes) - 1
}

// Node returns the node for a handle.
func (g *Graph) Node(id NodeID) *Node {
	return &g.nodes[id]
}

// Lookup finds the definition node for a name in a module, or NoNode.
func (g *Graph) Lookup(m *resolve.Module, name string) NodeID {
	return g.byKey[nodeKey{m.ID, name}]
}

// EntryVerbatimImports returns the entry module's import statements
// that are never merged, in source order. They are always emitted:
// dropping an import the merge did not replace would change runtime
// behavior.
func (g *Graph) EntryVerbatimImports() []VerbatimUse {
	var out []VerbatimUse
	for _, e := range g.bindings[g.Entry.ID].entries {
		if e.target == nil {
			out = append(out, VerbatimUse{Module: g.Entry, Stmt: e.stmt})
		}
	}
	return out
}

// VerbatimImports collects every import statement the output must
// keep: the entry module's unresolved imports plus any library import
// a retained definition reads through. Order: entry imports first in
// source order, then library imports in module discovery order.
func (g *Graph) VerbatimImports(retained []bool) []VerbatimUse {
	type useKey struct {
		mod  resolve.ModuleID
		stmt ast.StmtID
	}
	seen := make(map[useKey]bool)
	var out []VerbatimUse
	add := func(u VerbatimUse) {
		k := useKey{u.Module.ID, u.Stmt}
		if !seen[k] {
			seen[k] = true
			out = append(out, u)
		}
	}
	for _, u := range g.EntryVerbatimImports() {
		add(u)
	}
	for _, u := range g.RootVerbatim {
		add(u)
	}
	for id := 1; id < len(g.nodes); id++ {
		if !retained[id] {
			continue
		}
		for _, u := range g.nodes[id].Verbatim {
			add(u)
		}
	}
	return out
}
