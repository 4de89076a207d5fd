// Package diagfmt renders collected diagnostics for the terminal.
package diagfmt

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"

	"impack/internal/diag"
	"impack/internal/source"
)

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto shows paths as stored in the file set.
	PathModeAuto PathMode = iota
	// PathModeBasename shows only the file name.
	PathModeBasename
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	PathMode  PathMode
	ShowNotes bool
}

var (
	errorColor = color.New(color.FgRed, color.Bold)
	warnColor  = color.New(color.FgYellow, color.Bold)
	infoColor  = color.New(color.FgCyan)
	posColor   = color.New(color.Faint)
)

// Pretty writes one line per diagnostic:
// <path>:<line>:<col>: <severity> <code>: <message>
// followed by indented notes when enabled. The bag is expected to be
// sorted and deduplicated by the caller.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			position(fs, d.Primary, opts),
			severityLabel(d.Severity, opts.Color),
			d.Code.String(),
			d.Message)
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  %s: note: %s\n", position(fs, n.Span, opts), n.Msg)
		}
	}
}

func position(fs *source.FileSet, sp source.Span, opts PrettyOpts) string {
	if fs == nil || fs.Len() == 0 || sp.Empty() && sp.File == 0 && sp.Start == 0 {
		return paint(posColor, opts.Color, "<input>")
	}
	f := fs.Get(sp.File)
	start, _ := fs.Resolve(sp)
	path := f.Path
	if opts.PathMode == PathModeBasename {
		path = filepath.Base(path)
	}
	return paint(posColor, opts.Color, fmt.Sprintf("%s:%d:%d", path, start.Line, start.Col))
}

func severityLabel(sev diag.Severity, colored bool) string {
	switch sev {
	case diag.SevError:
		return paint(errorColor, colored, sev.String())
	case diag.SevWarning:
		return paint(warnColor, colored, sev.String())
	default:
		return paint(infoColor, colored, sev.String())
	}
}

func paint(c *color.Color, colored bool, s string) string {
	if !colored {
		return s
	}
	return c.Sprint(s)
}
