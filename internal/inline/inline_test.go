package inline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impack/internal/diag"
	"impack/internal/graph"
	"impack/internal/resolve"
	"impack/internal/source"
)

type fixture struct {
	g        *graph.Graph
	fset     *source.FileSet
	bag      *diag.Bag
	retained []bool
	res      Result
}

func run(t *testing.T, files map[string]string) fixture {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	fset := source.NewFileSet()
	bag := diag.NewBag(50)
	cache := resolve.NewCache(fset, []string{dir}, diag.BagReporter{Bag: bag})
	entry, err := cache.Load(filepath.Join(dir, "main.py"))
	require.NoError(t, err)
	g, err := graph.Build(cache, entry, diag.BagReporter{Bag: bag})
	require.NoError(t, err)

	retained := g.Shake(true)
	groups := g.Order(retained)
	res := Apply(g, fset, retained, groups, diag.BagReporter{Bag: bag})
	return fixture{g: g, fset: fset, bag: bag, retained: retained, res: res}
}

func (f fixture) dropped(t *testing.T, name string) bool {
	t.Helper()
	for id := 1; id <= f.g.Len(); id++ {
		if f.g.Node(graph.NodeID(id)).Name == name {
			return f.res.Dropped[id]
		}
	}
	t.Fatalf("no definition named %s", name)
	return false
}

func (f fixture) hasFallback() bool {
	for _, d := range f.bag.Items() {
		if d.Code == diag.InlineFallback {
			return true
		}
	}
	return false
}

func TestLiteralCallIsSubstituted(t *testing.T) {
	f := run(t, map[string]string{
		"main.py": "from lib import add\nprint(add(1, 2))\n",
		"lib.py":  "@inline\ndef add(a, b):\n    return a + b\n",
	})
	require.Len(t, f.res.Subs, 1)
	assert.Equal(t, "(1 + 2)", f.res.Subs[0].Text)
	assert.True(t, f.dropped(t, "add"))
	assert.False(t, f.hasFallback())
}

func TestNameArgumentsAreSubstituted(t *testing.T) {
	f := run(t, map[string]string{
		"main.py": "from lib import scale\nx = 3\nprint(scale(x, 10))\n",
		"lib.py":  "@inline\ndef scale(v, k):\n    return v * k\n",
	})
	require.Len(t, f.res.Subs, 1)
	assert.Equal(t, "(x * 10)", f.res.Subs[0].Text)
}

func TestNegativeNumberArgument(t *testing.T) {
	f := run(t, map[string]string{
		"main.py": "from lib import neg\nprint(neg(-5))\n",
		"lib.py":  "@inline\ndef neg(n):\n    return n * n\n",
	})
	require.Len(t, f.res.Subs, 1)
	assert.Equal(t, "(-5 * -5)", f.res.Subs[0].Text)
}

func TestAliasedCallSite(t *testing.T) {
	f := run(t, map[string]string{
		"main.py": "from lib import add as plus\nprint(plus(1, 2))\n",
		"lib.py":  "@inline\ndef add(a, b):\n    return a + b\n",
	})
	require.Len(t, f.res.Subs, 1)
	assert.Equal(t, "(1 + 2)", f.res.Subs[0].Text)
	assert.True(t, f.dropped(t, "add"))
}

func TestRepeatedParameter(t *testing.T) {
	f := run(t, map[string]string{
		"main.py": "from lib import sq\nprint(sq(7))\n",
		"lib.py":  "@inline\ndef sq(x):\n    return x * x\n",
	})
	require.Len(t, f.res.Subs, 1)
	assert.Equal(t, "(7 * 7)", f.res.Subs[0].Text)
}

func TestComplexArgumentBlocksCandidate(t *testing.T) {
	f := run(t, map[string]string{
		"main.py": "from lib import sq\nprint(sq(2 + 3))\n",
		"lib.py":  "@inline\ndef sq(x):\n    return x * x\n",
	})
	assert.Empty(t, f.res.Subs)
	assert.False(t, f.dropped(t, "sq"))
	assert.True(t, f.hasFallback())
}

func TestValueUseBlocksEveryCallSite(t *testing.T) {
	f := run(t, map[string]string{
		"main.py": "from lib import sq\nprint(sq(2))\ng = sq\nprint(g(3))\n",
		"lib.py":  "@inline\ndef sq(x):\n    return x * x\n",
	})
	assert.Empty(t, f.res.Subs, "one unsafe use disables the whole candidate")
	assert.False(t, f.dropped(t, "sq"))
	assert.True(t, f.hasFallback())
}

func TestSelfRecursiveCandidateFallsBack(t *testing.T) {
	f := run(t, map[string]string{
		"main.py": "from lib import fact\nprint(fact(5))\n",
		"lib.py":  "@inline\ndef fact(n):\n    return 1 if n <= 1 else n * fact(n - 1)\n",
	})
	assert.Empty(t, f.res.Subs)
	assert.True(t, f.hasFallback())
}

func TestMultiStatementBodyFallsBack(t *testing.T) {
	f := run(t, map[string]string{
		"main.py": "from lib import step\nprint(step(5))\n",
		"lib.py":  "@inline\ndef step(n):\n    m = n + 1\n    return m\n",
	})
	assert.Empty(t, f.res.Subs)
	assert.True(t, f.hasFallback())
}

func TestBodyReadingOuterNameFallsBack(t *testing.T) {
	f := run(t, map[string]string{
		"main.py": "from lib import scaled\nprint(scaled(5))\n",
		"lib.py":  "FACTOR = 3\n\n@inline\ndef scaled(n):\n    return n * FACTOR\n",
	})
	assert.Empty(t, f.res.Subs)
	assert.True(t, f.hasFallback())
}

func TestWrongArityBlocks(t *testing.T) {
	f := run(t, map[string]string{
		"main.py": "from lib import add\nprint(add(1))\n",
		"lib.py":  "@inline\ndef add(a, b=0):\n    return a + b\n",
	})
	assert.Empty(t, f.res.Subs)
	assert.False(t, f.dropped(t, "add"))
}

func TestUnmarkedFunctionIsLeftAlone(t *testing.T) {
	f := run(t, map[string]string{
		"main.py": "from lib import add\nprint(add(1, 2))\n",
		"lib.py":  "def add(a, b):\n    return a + b\n",
	})
	assert.Empty(t, f.res.Subs)
	assert.False(t, f.dropped(t, "add"))
	assert.False(t, f.hasFallback())
}

func TestCallInsideRetainedDefinition(t *testing.T) {
	f := run(t, map[string]string{
		"main.py": "from lib import area\nprint(area(2))\n",
		"lib.py":  "@inline\ndef sq(x):\n    return x * x\n\ndef area(r):\n    return sq(r)\n",
	})
	require.Len(t, f.res.Subs, 1)
	assert.Equal(t, "(r * r)", f.res.Subs[0].Text)
	assert.True(t, f.dropped(t, "sq"))
}

func TestKeywordArgumentCallBlocks(t *testing.T) {
	f := run(t, map[string]string{
		"main.py": "from lib import add\nprint(add(a=1, b=2))\n",
		"lib.py":  "@inline\ndef add(a, b):\n    return a + b\n",
	})
	assert.Empty(t, f.res.Subs)
	assert.False(t, f.dropped(t, "add"))
}
