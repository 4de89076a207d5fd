package graph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impack/internal/diag"
	"impack/internal/resolve"
	"impack/internal/source"
)

type fixture struct {
	g     *Graph
	bag   *diag.Bag
	cache *resolve.Cache
}

// build writes the file tree, loads "main.py" as entry and builds the
// graph with the tree root as the single search root.
func build(t *testing.T, files map[string]string) fixture {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	bag := diag.NewBag(50)
	cache := resolve.NewCache(source.NewFileSet(), []string{dir}, diag.BagReporter{Bag: bag})
	entry, err := cache.Load(filepath.Join(dir, "main.py"))
	require.NoError(t, err)
	g, err := Build(cache, entry, diag.BagReporter{Bag: bag})
	require.NoError(t, err)
	return fixture{g: g, bag: bag, cache: cache}
}

func retainedNames(g *Graph, retained []bool) []string {
	var out []string
	for id := 1; id <= g.Len(); id++ {
		if retained[id] {
			n := g.Node(NodeID(id))
			out = append(out, n.Name)
		}
	}
	return out
}

func TestShakeRetainsOnlyUsed(t *testing.T) {
	f := build(t, map[string]string{
		"main.py": "from lib import used\nprint(used())\n",
		"lib.py":  "def used():\n    return 1\n\ndef unused():\n    return 2\n",
	})
	retained := f.g.Shake(true)
	assert.Equal(t, []string{"used"}, retainedNames(f.g, retained))
}

func TestShakeDisabledRetainsEverything(t *testing.T) {
	f := build(t, map[string]string{
		"main.py": "from lib import used\nprint(used())\n",
		"lib.py":  "def used():\n    return 1\n\ndef unused():\n    return 2\n",
	})
	retained := f.g.Shake(false)
	assert.ElementsMatch(t, []string{"used", "unused"}, retainedNames(f.g, retained))
}

func TestWildcardImportShakesToUsedName(t *testing.T) {
	f := build(t, map[string]string{
		"main.py": "from lib import *\nprint(c())\n",
		"lib.py":  "def c():\n    return 1\n\ndef d():\n    return 2\n",
	})
	retained := f.g.Shake(true)
	assert.Equal(t, []string{"c"}, retainedNames(f.g, retained))
}

func TestChainedWildcardResolvesRecursively(t *testing.T) {
	f := build(t, map[string]string{
		"main.py":  "from outer import *\nprint(deep())\n",
		"outer.py": "from inner import *\n",
		"inner.py": "def deep():\n    return 1\n",
	})
	retained := f.g.Shake(true)
	assert.Equal(t, []string{"deep"}, retainedNames(f.g, retained))
}

func TestEntryDefinitionsAreShakenToo(t *testing.T) {
	f := build(t, map[string]string{
		"main.py": "def helper():\n    return 1\n\ndef dead():\n    return 2\n\nprint(helper())\n",
	})
	retained := f.g.Shake(true)
	assert.Equal(t, []string{"helper"}, retainedNames(f.g, retained))
}

func TestLocalDefinitionShadowsImport(t *testing.T) {
	f := build(t, map[string]string{
		"main.py": "from lib import f\n\ndef f():\n    return 0\n\nprint(f())\n",
		"lib.py":  "def f():\n    return 1\n",
	})
	require.Len(t, f.g.RootEdges, 1)
	n := f.g.Node(f.g.RootEdges[0])
	assert.Same(t, f.g.Entry, n.Module)
}

func TestLaterImportWins(t *testing.T) {
	f := build(t, map[string]string{
		"main.py": "from a import f\nfrom b import f\nprint(f())\n",
		"a.py":    "def f():\n    return 1\n",
		"b.py":    "def f():\n    return 2\n",
	})
	require.Len(t, f.g.RootEdges, 1)
	n := f.g.Node(f.g.RootEdges[0])
	assert.Equal(t, "b.py", n.Module.Name)
}

func TestAliasRecorded(t *testing.T) {
	f := build(t, map[string]string{
		"main.py": "from lib import norm as length\nprint(length(3, 4))\n",
		"lib.py":  "def norm(x, y):\n    return (x * x + y * y) ** 0.5\n",
	})
	require.Len(t, f.g.RootAliases, 1)
	a := f.g.RootAliases[0]
	assert.Equal(t, "length", a.Name)
	assert.Equal(t, "norm", f.g.Node(a.Target).Name)
}

func TestCycleAcrossModules(t *testing.T) {
	f := build(t, map[string]string{
		"main.py": "from even import is_even\nprint(is_even(4))\n",
		"even.py": "from odd import is_odd\n\ndef is_even(n):\n    return n == 0 or is_odd(n - 1)\n",
		"odd.py":  "from even import is_even\n\ndef is_odd(n):\n    return n != 0 and is_even(n - 1)\n",
	})
	retained := f.g.Shake(true)
	assert.ElementsMatch(t, []string{"is_even", "is_odd"}, retainedNames(f.g, retained))

	groups := f.g.Order(retained)
	require.Len(t, groups, 1, "a mutual recursion pair is one ordering unit")
	assert.Len(t, groups[0], 2)
}

func TestOrderDependenciesFirst(t *testing.T) {
	f := build(t, map[string]string{
		"main.py": "from shapes import area\nprint(area(2))\n",
		"shapes.py": "PI = 3.14159\n\ndef square(x):\n    return x * x\n\ndef area(r):\n    return PI * square(r)\n",
	})
	retained := f.g.Shake(true)
	groups := f.g.Order(retained)

	var names []string
	for _, grp := range groups {
		for _, id := range grp {
			names = append(names, f.g.Node(id).Name)
		}
	}
	require.Len(t, names, 3)
	assert.Equal(t, "area", names[2], "dependents come last")
	assert.ElementsMatch(t, []string{"PI", "square"}, names[:2])
}

func TestEntryVerbatimImportsAlwaysKept(t *testing.T) {
	f := build(t, map[string]string{
		"main.py": "import sys\nfrom lib import f\nprint(f())\n",
		"lib.py":  "def f():\n    return 1\n",
	})
	retained := f.g.Shake(true)
	uses := f.g.VerbatimImports(retained)
	require.Len(t, uses, 1)
	st := f.g.Entry.AST.Get(uses[0].Stmt)
	assert.Equal(t, "sys", st.Import.Items[0].Name)
}

func TestLibraryVerbatimImportKeptWhenUsed(t *testing.T) {
	f := build(t, map[string]string{
		"main.py": "from geom import dist\nprint(dist(3, 4))\n",
		"geom.py": "import math\n\ndef dist(x, y):\n    return math.sqrt(x * x + y * y)\n",
	})
	retained := f.g.Shake(true)
	uses := f.g.VerbatimImports(retained)
	require.Len(t, uses, 1)
	assert.Equal(t, "geom.py", uses[0].Module.Name)
}

func TestLibraryVerbatimImportDroppedWhenUnused(t *testing.T) {
	f := build(t, map[string]string{
		"main.py": "from geom import one\nprint(one())\n",
		"geom.py": "import math\n\ndef one():\n    return 1\n\ndef dist(x, y):\n    return math.sqrt(x * x + y * y)\n",
	})
	retained := f.g.Shake(true)
	assert.Empty(t, f.g.VerbatimImports(retained))
}

func TestSideEffectWarningForLibraryTopLevelCode(t *testing.T) {
	f := build(t, map[string]string{
		"main.py": "from noisy import f\nprint(f())\n",
		"noisy.py": "print(\"loading\")\n\ndef f():\n    return 1\n",
	})
	var found bool
	for _, d := range f.bag.Items() {
		if d.Code == diag.UnsupSideEffects {
			found = true
		}
	}
	assert.True(t, found, "library top-level code must be warned about")
}

func TestEntryTopLevelCodeIsNotASideEffectWarning(t *testing.T) {
	f := build(t, map[string]string{
		"main.py": "x = input()\nprint(x)\n",
	})
	for _, d := range f.bag.Items() {
		assert.NotEqual(t, diag.UnsupSideEffects, d.Code)
	}
	assert.Len(t, f.g.RootStmts, 2, "entry top-level statements all stay in the main code")
}

func TestEntryRebindingStaysInRootOrder(t *testing.T) {
	f := build(t, map[string]string{
		"main.py": "x = 1\nx = x + 1\nprint(x)\n",
	})
	assert.Equal(t, 0, f.g.Len(), "entry assignments are root statements, not nodes")
	assert.Len(t, f.g.RootStmts, 3)
}

func TestEntryConstantReadsRetainLibraryDefs(t *testing.T) {
	f := build(t, map[string]string{
		"main.py": "from dec import Decimal\nRATE = Decimal(1)\nprint(RATE)\n",
		"dec.py":  "class Decimal:\n    pass\n",
	})
	retained := f.g.Shake(true)
	assert.Equal(t, []string{"Decimal"}, retainedNames(f.g, retained))
}

func TestUnresolvedStarImportKeptForLibraryUse(t *testing.T) {
	f := build(t, map[string]string{
		"main.py": "from lib import f\nprint(f())\n",
		"lib.py":  "from ext import *\n\ndef f():\n    return helper()\n",
	})
	retained := f.g.Shake(true)
	uses := f.g.VerbatimImports(retained)
	require.Len(t, uses, 1)
	assert.Equal(t, "lib.py", uses[0].Module.Name)
}

func TestSelfRecursionFlag(t *testing.T) {
	f := build(t, map[string]string{
		"main.py": "def fact(n):\n    return 1 if n <= 1 else n * fact(n - 1)\n\nprint(fact(5))\n",
	})
	id := f.g.Lookup(f.g.Entry, "fact")
	require.NotEqual(t, NoNode, id)
	assert.True(t, f.g.Node(id).SelfRecursive)
}
