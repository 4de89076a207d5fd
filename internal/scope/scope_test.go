package scope

import (
	"reflect"
	"sort"
	"testing"

	"impack/internal/ast"
	"impack/internal/diag"
	"impack/internal/parser"
	"impack/internal/source"
)

func analyzeFirst(t *testing.T, src string) Info {
	t.Helper()
	f := parseSrc(t, src)
	return Analyze(f.Get(f.Stmts[0]))
}

func parseSrc(t *testing.T, src string) *ast.File {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("t.py", []byte(src))
	bag := diag.NewBag(50)
	f := parser.ParseFile(fs.Get(id), diag.BagReporter{Bag: bag})
	if bag.HasErrors() {
		t.Fatalf("parse errors: %+v", bag.Items())
	}
	return f
}

func assertFree(t *testing.T, inf Info, want ...string) {
	t.Helper()
	got := append([]string(nil), inf.Free...)
	sort.Strings(got)
	sort.Strings(want)
	if len(want) == 0 {
		want = []string{}
	}
	if len(got) == 0 {
		got = []string{}
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("free set: got %v, want %v", inf.Free, want)
	}
}

func TestParamsAndLocalsBind(t *testing.T) {
	inf := analyzeFirst(t, `def f(a, b=1):
    c = a + b
    return c + d
`)
	assertFree(t, inf, "d")
}

func TestDefaultsAndAnnotationsAreReads(t *testing.T) {
	inf := analyzeFirst(t, "def f(a: Vec = origin) -> Vec:\n    return a\n")
	assertFree(t, inf, "Vec", "origin")
}

func TestDecoratorContributesButInlineMarkerDoesNot(t *testing.T) {
	inf := analyzeFirst(t, "@inline\n@registry.register\ndef f(x):\n    return x\n")
	assertFree(t, inf, "registry")
}

func TestClassBasesAndMethodReads(t *testing.T) {
	inf := analyzeFirst(t, `class Child(Base):
    def go(self):
        return helper(self)
`)
	assertFree(t, inf, "Base", "helper")
}

func TestClassSelfReferenceIsRecursion(t *testing.T) {
	inf := analyzeFirst(t, `class Node:
    def clone(self):
        return Node()
`)
	assertFree(t, inf)
	if !inf.SelfRecursive {
		t.Error("expected class self-reference to set SelfRecursive")
	}
}

func TestSelfRecursiveFunc(t *testing.T) {
	inf := analyzeFirst(t, "def fact(n):\n    if n <= 1:\n        return 1\n    return n * fact(n - 1)\n")
	assertFree(t, inf)
	if !inf.SelfRecursive {
		t.Error("expected recursion flag")
	}
}

func TestComprehensionVariablesDoNotLeakOrRead(t *testing.T) {
	inf := analyzeFirst(t, "def f(xs):\n    return [y * scale for y in xs]\n")
	assertFree(t, inf, "scale")
}

func TestLambdaParamsBind(t *testing.T) {
	inf := analyzeFirst(t, "def f(xs):\n    return sorted(xs, key=lambda item: item.weight + bias)\n")
	assertFree(t, inf, "sorted", "bias")
}

func TestAttributeChainBaseOnly(t *testing.T) {
	inf := analyzeFirst(t, "def f():\n    return config.server.port\n")
	assertFree(t, inf, "config")
}

func TestKeywordArgumentsAreNotReads(t *testing.T) {
	inf := analyzeFirst(t, "def f():\n    return connect(host=default_host, timeout=30)\n")
	assertFree(t, inf, "connect", "default_host")
}

func TestForTargetsBind(t *testing.T) {
	inf := analyzeFirst(t, `def f(rows):
    total = 0
    for row in rows:
        total += row.weight
    return total * factor
`)
	assertFree(t, inf, "factor")
}

func TestWithAndExceptTargetsBind(t *testing.T) {
	inf := analyzeFirst(t, `def f(path):
    with open(path) as fh:
        try:
            return fh.read()
        except OSError as err:
            return err
`)
	assertFree(t, inf, "open", "OSError")
}

func TestNestedDefBindsAndScopes(t *testing.T) {
	inf := analyzeFirst(t, `def outer(x):
    def inner(y):
        return y + x
    return inner(seed)
`)
	assertFree(t, inf, "seed")
}

func TestNestedImportBindsAlias(t *testing.T) {
	inf := analyzeFirst(t, `def lazy():
    import json as j
    from os import path
    return j.dumps(path), missing
`)
	assertFree(t, inf, "missing")
}

func TestConstStatement(t *testing.T) {
	inf := analyzeFirst(t, "LIMIT = BASE * 2\n")
	assertFree(t, inf, "BASE")
}

func TestOtherStatementReads(t *testing.T) {
	inf := analyzeFirst(t, `if __name__ == "__main__":
    main(sys.argv)
`)
	assertFree(t, inf, "__name__", "main", "sys")
}

func TestGlobalSilencesName(t *testing.T) {
	inf := analyzeFirst(t, "def bump():\n    global counter\n    counter = counter + 1\n")
	assertFree(t, inf)
}

func TestAnnotatedConst(t *testing.T) {
	inf := analyzeFirst(t, "RATE: Decimal = Decimal(\"0.1\")\n")
	assertFree(t, inf, "Decimal")
}

func TestSubscriptedAnnotationReads(t *testing.T) {
	inf := analyzeFirst(t, "names: List[str] = make()\n")
	assertFree(t, inf, "List", "str", "make")
}

func TestLambdaColonIsNotAnAnnotation(t *testing.T) {
	// The depth-0 colon here is a lambda body, not an annotation, so
	// "f" is still a target and "g" is the only read.
	inf := analyzeFirst(t, "f = lambda x: g(x)\n")
	assertFree(t, inf, "g")
}

func TestWalrusBinds(t *testing.T) {
	inf := analyzeFirst(t, "def f(xs):\n    if (n := len(xs)) > 0:\n        return n\n    return 0\n")
	assertFree(t, inf, "len")
}
