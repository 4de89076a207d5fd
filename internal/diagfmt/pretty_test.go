package diagfmt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impack/internal/diag"
	"impack/internal/source"
)

func fixture(t *testing.T) (*diag.Bag, *source.FileSet, source.Span) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("pkg/main.py", []byte("from missing import thing\nprint(thing)\n"))
	sp := source.Span{File: id, Start: 5, End: 12}
	bag := diag.NewBag(16)
	rep := diag.BagReporter{Bag: bag}
	diag.ReportWarning(rep, diag.ResImportNotFound, sp, "cannot find module \"missing\"").
		WithNote(sp, "searched 2 library roots").
		Emit()
	require.Equal(t, 1, bag.Len())
	return bag, fs, sp
}

func TestPrettyPlainFormat(t *testing.T) {
	bag, fs, _ := fixture(t)
	var buf strings.Builder
	Pretty(&buf, bag, fs, PrettyOpts{ShowNotes: true})

	want := "pkg/main.py:1:6: WARNING res-import-not-found: cannot find module \"missing\"\n" +
		"  pkg/main.py:1:6: note: searched 2 library roots\n"
	assert.Equal(t, want, buf.String())
}

func TestPrettyNotesSuppressed(t *testing.T) {
	bag, fs, _ := fixture(t)
	var buf strings.Builder
	Pretty(&buf, bag, fs, PrettyOpts{})

	assert.NotContains(t, buf.String(), "note:")
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestPrettyBasenamePaths(t *testing.T) {
	bag, fs, _ := fixture(t)
	var buf strings.Builder
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})

	assert.True(t, strings.HasPrefix(buf.String(), "main.py:1:6:"), buf.String())
}

func TestPrettyWithoutFileSet(t *testing.T) {
	bag := diag.NewBag(4)
	rep := diag.BagReporter{Bag: bag}
	diag.ReportError(rep, diag.ResEntryNotFound, source.Span{}, "cannot read entry file").Emit()

	var buf strings.Builder
	Pretty(&buf, bag, nil, PrettyOpts{})
	assert.Equal(t, "<input>: ERROR res-entry-not-found: cannot read entry file\n", buf.String())
}

func TestPrettySeverityLabels(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.py", []byte("x = 1\n"))
	sp := source.Span{File: id, Start: 0, End: 1}
	bag := diag.NewBag(8)
	rep := diag.BagReporter{Bag: bag}
	diag.ReportInfo(rep, diag.InlineFallback, sp, "call site too complex").Emit()
	diag.ReportError(rep, diag.ResAmbiguousImport, sp, "module found in 2 roots").Emit()

	var buf strings.Builder
	Pretty(&buf, bag, fs, PrettyOpts{})
	out := buf.String()
	assert.Contains(t, out, "INFO inline-fallback:")
	assert.Contains(t, out, "ERROR res-ambiguous-import:")
}
