package source

import (
	"testing"
)

func TestFileSetDedupByPath(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("lib/util.py", []byte("x = 1\n"), 0)
	if id1 != 0 {
		t.Errorf("expected first FileID to be 0, got %d", id1)
	}

	// Same path again: must return the existing ID, content untouched.
	id2 := fs.Add("lib/util.py", []byte("x = 2\n"), 0)
	if id2 != id1 {
		t.Errorf("expected duplicate Add to return %d, got %d", id1, id2)
	}
	if got := string(fs.Get(id1).Content); got != "x = 1\n" {
		t.Errorf("duplicate Add overwrote content: %q", got)
	}

	if fs.Len() != 1 {
		t.Errorf("expected 1 file, got %d", fs.Len())
	}
}

func TestFileSetGetByPathNormalizes(t *testing.T) {
	fs := NewFileSet()
	fs.Add("a/./b.py", []byte("pass\n"), 0)

	f, ok := fs.GetByPath("a/b.py")
	if !ok {
		t.Fatal("expected normalized lookup to find the file")
	}
	if f.Path != "a/b.py" {
		t.Errorf("expected normalized path a/b.py, got %q", f.Path)
	}
}

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("t.py", []byte("a = 1\nb = 2\nc = 3\n"))

	tests := []struct {
		off  uint32
		line uint32
		col  uint32
	}{
		{0, 1, 1},
		{4, 1, 5},
		{5, 1, 6}, // the newline belongs to the line it terminates
		{6, 2, 1},
		{13, 3, 2},
		{17, 3, 6},
	}
	for _, tt := range tests {
		start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
		if start.Line != tt.line || start.Col != tt.col {
			t.Errorf("offset %d: expected %d:%d, got %d:%d", tt.off, tt.line, tt.col, start.Line, start.Col)
		}
	}
}

func TestLoadNormalizesCRLF(t *testing.T) {
	fs := NewFileSet()
	id := fs.Add("crlf.py", norm(t, "a = 1\r\nb = 2\r\n"), FileNormalizedCRLF)
	if got := string(fs.Get(id).Content); got != "a = 1\nb = 2\n" {
		t.Errorf("expected CRLF to normalize, got %q", got)
	}
}

func norm(t *testing.T, s string) []byte {
	t.Helper()
	out, _ := normalizeCRLF([]byte(s))
	return out
}

func TestSpanCoverAndContains(t *testing.T) {
	a := Span{File: 1, Start: 10, End: 20}
	b := Span{File: 1, Start: 5, End: 15}
	c := a.Cover(b)
	if c.Start != 5 || c.End != 20 {
		t.Errorf("expected cover 5-20, got %d-%d", c.Start, c.End)
	}
	if !c.Contains(5) || c.Contains(20) {
		t.Error("Contains must be inclusive of Start and exclusive of End")
	}

	other := Span{File: 2, Start: 0, End: 100}
	if got := a.Cover(other); got != a {
		t.Error("cover across files must be a no-op")
	}
}
