// Package packpipeline orchestrates a pack run end to end: resolve,
// graph, shake, inline, emit, write. Stages run strictly in order and
// each fully consumes its predecessor's output; the only shared state
// is the module cache, written once per module.
package packpipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"impack/internal/diag"
	"impack/internal/emit"
	"impack/internal/graph"
	"impack/internal/graphdump"
	"impack/internal/inline"
	"impack/internal/resolve"
	"impack/internal/source"
)

// defaultMaxDiagnostics caps the bag when the caller does not.
const defaultMaxDiagnostics = 100

// PackRequest configures one pack run.
type PackRequest struct {
	EntryPath  string
	OutputPath string // empty: result text only, nothing written
	LibRoots   []string

	ShakeTree bool
	Inline    bool
	// Strip removes comments; it implies StripDocstring and turns
	// source-location notes off.
	Strip                 bool
	StripDocstring        bool
	IncludeSourceLocation bool

	// EmitGraphPath writes the resolved graph as a msgpack artifact.
	EmitGraphPath string

	MaxDiagnostics int
	Progress       ProgressSink
}

// PackResult captures the run's output and bookkeeping.
type PackResult struct {
	Output     string
	OutputPath string
	Bag        *diag.Bag
	FileSet    *source.FileSet
	Timings    Timings

	Modules  int
	Retained int
	Inlined  int
}

// Pack runs the whole pipeline for one entry file.
func Pack(ctx context.Context, req *PackRequest) (PackResult, error) {
	var result PackResult
	if req == nil {
		return result, fmt.Errorf("missing pack request")
	}
	reqCopy := *req
	req = &reqCopy
	if req.MaxDiagnostics <= 0 {
		req.MaxDiagnostics = defaultMaxDiagnostics
	}

	stripDocstring := req.StripDocstring || req.Strip
	locationNotes := req.IncludeSourceLocation && !req.Strip

	bag := diag.NewBag(req.MaxDiagnostics)
	result.Bag = bag
	rep := diag.BagReporter{Bag: bag}
	fset := source.NewFileSet()
	result.FileSet = fset

	// Resolve: entry file plus the transitive import closure.
	start := time.Now()
	emitStage(req.Progress, req.EntryPath, StageResolve, StatusWorking, nil, 0)
	cache := resolve.NewCache(fset, req.LibRoots, rep)
	entry, err := cache.Load(req.EntryPath)
	if err != nil {
		err = fmt.Errorf("cannot read entry file: %w", err)
		diag.ReportError(rep, diag.ResEntryNotFound, source.Span{}, err.Error()).Emit()
		emitStage(req.Progress, req.EntryPath, StageResolve, StatusError, err, time.Since(start))
		return result, err
	}
	if bag.HasErrors() {
		err = fmt.Errorf("entry file has syntax errors")
		emitStage(req.Progress, req.EntryPath, StageResolve, StatusError, err, time.Since(start))
		return result, err
	}
	result.Timings.Set(StageResolve, time.Since(start))
	emitStage(req.Progress, req.EntryPath, StageResolve, StatusDone, nil, result.Timings.Duration(StageResolve))
	if err := ctx.Err(); err != nil {
		return result, err
	}

	start = time.Now()
	emitStage(req.Progress, req.EntryPath, StageGraph, StatusWorking, nil, 0)
	g, err := graph.Build(cache, entry, rep)
	if err != nil {
		emitStage(req.Progress, req.EntryPath, StageGraph, StatusError, err, time.Since(start))
		return result, err
	}
	if bag.HasErrors() {
		err = fmt.Errorf("imported modules have syntax errors")
		emitStage(req.Progress, req.EntryPath, StageGraph, StatusError, err, time.Since(start))
		return result, err
	}
	result.Modules = len(g.Modules)
	result.Timings.Set(StageGraph, time.Since(start))
	emitStage(req.Progress, req.EntryPath, StageGraph, StatusDone, nil, result.Timings.Duration(StageGraph))
	if err := ctx.Err(); err != nil {
		return result, err
	}

	start = time.Now()
	emitStage(req.Progress, req.EntryPath, StageShake, StatusWorking, nil, 0)
	retained := g.Shake(req.ShakeTree)
	groups := g.Order(retained)
	for id := 1; id <= g.Len(); id++ {
		if retained[id] {
			result.Retained++
		}
	}
	result.Timings.Set(StageShake, time.Since(start))
	emitStage(req.Progress, req.EntryPath, StageShake, StatusDone, nil, result.Timings.Duration(StageShake))
	if err := ctx.Err(); err != nil {
		return result, err
	}

	start = time.Now()
	emitStage(req.Progress, req.EntryPath, StageInline, StatusWorking, nil, 0)
	var inlined inline.Result
	if req.Inline {
		inlined = inline.Apply(g, fset, retained, groups, rep)
	} else {
		inlined = inline.Result{Dropped: make([]bool, g.Len()+1)}
	}
	for id := 1; id <= g.Len(); id++ {
		if inlined.Dropped[id] {
			result.Inlined++
		}
	}
	result.Timings.Set(StageInline, time.Since(start))
	emitStage(req.Progress, req.EntryPath, StageInline, StatusDone, nil, result.Timings.Duration(StageInline))
	if err := ctx.Err(); err != nil {
		return result, err
	}

	start = time.Now()
	emitStage(req.Progress, req.EntryPath, StageEmit, StatusWorking, nil, 0)
	result.Output = emit.Render(emit.Input{
		Graph:    g,
		FSet:     fset,
		Retained: retained,
		Groups:   groups,
		Inline:   inlined,
	}, emit.Options{
		StripComments:   req.Strip,
		StripDocstrings: stripDocstring,
		LocationNotes:   locationNotes,
	})
	result.Timings.Set(StageEmit, time.Since(start))
	emitStage(req.Progress, req.EntryPath, StageEmit, StatusDone, nil, result.Timings.Duration(StageEmit))
	if err := ctx.Err(); err != nil {
		return result, err
	}

	start = time.Now()
	emitStage(req.Progress, req.EntryPath, StageWrite, StatusWorking, nil, 0)
	if req.EmitGraphPath != "" {
		if err := graphdump.Write(req.EmitGraphPath, g, retained); err != nil {
			emitStage(req.Progress, req.EntryPath, StageWrite, StatusError, err, time.Since(start))
			return result, err
		}
	}
	if req.OutputPath != "" {
		if err := os.WriteFile(req.OutputPath, []byte(result.Output), 0o600); err != nil {
			err = fmt.Errorf("failed to write output %q: %w", req.OutputPath, err)
			emitStage(req.Progress, req.EntryPath, StageWrite, StatusError, err, time.Since(start))
			return result, err
		}
		result.OutputPath = req.OutputPath
	}
	result.Timings.Set(StageWrite, time.Since(start))
	emitStage(req.Progress, req.EntryPath, StageWrite, StatusDone, nil, result.Timings.Duration(StageWrite))

	return result, nil
}
