package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"impack/internal/diagfmt"
	"impack/internal/packpipeline"
	"impack/internal/project"
	"impack/internal/ui"
)

var packCmd = &cobra.Command{
	Use:   "pack [flags] <entry> [output]",
	Short: "Bundle an entry file and its imports into one file",
	Long: `Pack resolves the entry file's import closure, drops unused
definitions, inlines functions marked @inline, and writes the merged
result. Defaults come from the nearest impack.toml, when one exists;
flags override it. Without an output argument the result goes to stdout.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: packExecution,
}

func init() {
	packCmd.Flags().StringP("output", "o", "", "output file (alternative to the positional argument)")
	packCmd.Flags().StringArrayP("lib", "L", nil, "extra library root (repeatable)")
	packCmd.Flags().Bool("no-shake-tree", false, "keep every definition, used or not")
	packCmd.Flags().Bool("no-inline", false, "leave @inline functions as calls")
	packCmd.Flags().BoolP("strip", "s", false, "remove comments, docstrings, and location notes")
	packCmd.Flags().Bool("strip-docstring", false, "remove docstrings only")
	packCmd.Flags().Bool("no-include-source-location", false, "omit the per-definition origin notes")
	packCmd.Flags().String("emit-graph", "", "write the dependency graph artifact to FILE")
	packCmd.Flags().String("ui", "auto", "stage progress display (auto|on|off)")
	packCmd.Flags().BoolP("verbose", "v", false, "log each pipeline stage")
}

func packExecution(cmd *cobra.Command, args []string) error {
	entryPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve entry path: %w", err)
	}

	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if len(args) == 2 {
		if outputPath != "" {
			return fmt.Errorf("output given twice: positional %q and --output %q", args[1], outputPath)
		}
		outputPath = args[1]
	}

	libFlags, err := cmd.Flags().GetStringArray("lib")
	if err != nil {
		return err
	}
	noShake, err := cmd.Flags().GetBool("no-shake-tree")
	if err != nil {
		return err
	}
	noInline, err := cmd.Flags().GetBool("no-inline")
	if err != nil {
		return err
	}
	strip, err := cmd.Flags().GetBool("strip")
	if err != nil {
		return err
	}
	stripDocstring, err := cmd.Flags().GetBool("strip-docstring")
	if err != nil {
		return err
	}
	noLocation, err := cmd.Flags().GetBool("no-include-source-location")
	if err != nil {
		return err
	}
	emitGraph, err := cmd.Flags().GetString("emit-graph")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	colored := useColor(cmd, os.Stderr)

	manifest, manifestFound, err := project.Discover(filepath.Dir(entryPath))
	if err != nil {
		return err
	}

	cfg := project.PackConfig{ShakeTree: true, Inline: true, SourceLocation: true}
	if manifestFound {
		cfg = manifest.Config.Pack
	}

	req := &packpipeline.PackRequest{
		EntryPath:             entryPath,
		OutputPath:            outputPath,
		LibRoots:              append(libFlags, project.SearchRoots(manifest)...),
		ShakeTree:             cfg.ShakeTree && !noShake,
		Inline:                cfg.Inline && !noInline,
		Strip:                 cfg.Strip || strip,
		StripDocstring:        cfg.StripDocstring || stripDocstring,
		IncludeSourceLocation: cfg.SourceLocation && !noLocation,
		EmitGraphPath:         emitGraph,
		MaxDiagnostics:        maxDiagnostics,
	}

	var res packpipeline.PackResult
	var packErr error
	switch {
	case shouldUseTUI(uiModeValue) && outputPath != "" && !quiet:
		res, packErr = runPackWithUI(cmd.Context(), entryPath, req)
	case verbose && !quiet:
		req.Progress = ui.StageLogger{W: os.Stderr, Color: colored}
		fallthrough
	default:
		res, packErr = packpipeline.Pack(cmd.Context(), req)
	}

	// Quiet suppresses warnings and infos, never errors.
	if res.Bag != nil && res.Bag.Len() > 0 && (!quiet || res.Bag.HasErrors()) {
		res.Bag.Sort()
		res.Bag.Dedup()
		diagfmt.Pretty(os.Stderr, res.Bag, res.FileSet, diagfmt.PrettyOpts{
			Color:     colored,
			ShowNotes: true,
		})
	}
	if packErr != nil {
		return packErr
	}

	if showTimings {
		printStageTimings(os.Stderr, res.Timings)
	}
	if outputPath == "" {
		fmt.Fprint(os.Stdout, res.Output)
		return nil
	}
	if !quiet {
		fmt.Fprintf(os.Stdout, "packed %s (%d modules, %d definitions kept, %d inlined)\n",
			outputPath, res.Modules, res.Retained, res.Inlined)
	}
	return nil
}
