// Package graphdump serializes a resolved dependency graph to disk as
// a debugging artifact. The dump is a one-shot snapshot of a single
// run; nothing ever reads it back into the pipeline.
package graphdump

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"impack/internal/graph"
)

// Schema version - increment when Payload format changes.
const graphDumpSchemaVersion uint16 = 1

// Payload is the on-disk shape of one dumped graph.
type Payload struct {
	Schema uint16
	Entry  string

	Modules []ModuleRecord
	Defs    []DefRecord
	// Edges reference Defs by node handle; From 0 is the synthetic
	// root formed by the entry module's non-definition statements.
	Edges []EdgeRecord
}

// ModuleRecord identifies one merged module.
type ModuleRecord struct {
	ID   uint32
	Path string
}

// DefRecord is one definition node.
type DefRecord struct {
	Node     uint32
	Module   uint32
	Name     string
	Kind     string
	Line     uint32
	Retained bool
	Inline   bool
}

// EdgeRecord is one resolved reference.
type EdgeRecord struct {
	From uint32
	To   uint32
}

// Snapshot flattens a graph and its retained set into a Payload.
func Snapshot(g *graph.Graph, retained []bool) *Payload {
	p := &Payload{
		Schema: graphDumpSchemaVersion,
		Entry:  g.Entry.Path,
	}
	for _, m := range g.Modules {
		p.Modules = append(p.Modules, ModuleRecord{ID: uint32(m.ID), Path: m.Path})
	}
	for id := 1; id <= g.Len(); id++ {
		n := g.Node(graph.NodeID(id))
		p.Defs = append(p.Defs, DefRecord{
			Node:     uint32(id),
			Module:   uint32(n.Module.ID),
			Name:     n.Name,
			Kind:     n.Def.Kind.String(),
			Line:     n.Def.Line,
			Retained: retained[id],
			Inline:   n.Def.InlineMarked,
		})
		for _, to := range n.Edges {
			p.Edges = append(p.Edges, EdgeRecord{From: uint32(id), To: uint32(to)})
		}
	}
	for _, to := range g.RootEdges {
		p.Edges = append(p.Edges, EdgeRecord{From: 0, To: uint32(to)})
	}
	return p
}

// Write dumps the graph to path, replacing any previous dump
// atomically.
func Write(path string, g *graph.Graph, retained []bool) error {
	payload := Snapshot(g, retained)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create graph dump dir: %w", err)
	}
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("create graph dump: %w", err)
	}
	defer func() {
		_ = os.Remove(f.Name())
	}()

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(payload); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode graph dump: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write graph dump: %w", err)
	}
	return os.Rename(f.Name(), path)
}

// Read loads a dump back, for tests and external tooling.
func Read(path string) (*Payload, error) {
	// #nosec G304 -- path is provided by the caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var payload Payload
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode graph dump: %w", err)
	}
	if payload.Schema != graphDumpSchemaVersion {
		return nil, fmt.Errorf("graph dump schema %d is not supported", payload.Schema)
	}
	return &payload, nil
}
