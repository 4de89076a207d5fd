package resolve

import (
	"fmt"
	"path/filepath"
	"strings"

	"impack/internal/ast"
	"impack/internal/diag"
	"impack/internal/parser"
	"impack/internal/source"
)

// Cache parses each module at most once per run. It is not shared
// across runs; the whole pipeline is a one-shot batch transform.
type Cache struct {
	fset     *source.FileSet
	reporter diag.Reporter
	roots    []string

	byPath  map[string]*Module
	modules []*Module // discovery order

	// importMemo caches (module, specifier) resolutions, including
	// negative ones, mirroring the parse-once guarantee.
	importMemo map[ModuleID]map[string]*Module

	fatal error
}

// NewCache creates a cache over the given search roots.
func NewCache(fset *source.FileSet, roots []string, reporter diag.Reporter) *Cache {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	return &Cache{
		fset:       fset,
		reporter:   reporter,
		roots:      roots,
		byPath:     make(map[string]*Module),
		importMemo: make(map[ModuleID]map[string]*Module),
	}
}

// Roots returns the configured search roots.
func (c *Cache) Roots() []string {
	return c.roots
}

// Modules returns every parsed module in discovery order.
func (c *Cache) Modules() []*Module {
	return c.modules
}

// Err returns the first unrecoverable resolution error, if any.
func (c *Cache) Err() error {
	return c.fatal
}

// Load parses the module at path, or returns the cached instance.
func (c *Cache) Load(path string) (*Module, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path %q: %w", path, err)
	}
	key := filepath.ToSlash(filepath.Clean(abs))
	if m, ok := c.byPath[key]; ok {
		return m, nil
	}

	fileID, err := c.fset.Load(abs)
	if err != nil {
		return nil, fmt.Errorf("read module %q: %w", path, err)
	}
	tree := parser.ParseFile(c.fset.Get(fileID), c.reporter)

	m := newModule(ModuleID(len(c.modules)), abs, fileID, tree)
	c.byPath[key] = m
	c.modules = append(c.modules, m)
	c.warnNestedImports(m)
	return m, nil
}

// ResolveImport maps an import specifier, as written in from, to a
// parsed module. A nil result means the import stays verbatim in the
// output: target missing, target is a package, or the statement is a
// whole-module form. Ambiguity is the one unrecoverable case; it
// poisons the cache and surfaces through Err.
func (c *Cache) ResolveImport(from *Module, imp *ast.ImportStmt) *Module {
	if imp.Form == ast.ImportModule {
		// Whole-module imports are never merged, by design.
		names := make([]string, 0, len(imp.Items))
		for _, it := range imp.Items {
			names = append(names, it.Name)
		}
		diag.ReportWarning(c.reporter, diag.UnsupWholeModuleImport, imp.Span,
			fmt.Sprintf("whole-module import of %s is left verbatim", strings.Join(names, ", "))).Emit()
		return nil
	}
	return c.resolveSpec(from, imp)
}

func (c *Cache) resolveSpec(from *Module, imp *ast.ImportStmt) *Module {
	memo, ok := c.importMemo[from.ID]
	if !ok {
		memo = make(map[string]*Module)
		c.importMemo[from.ID] = memo
	}
	if m, ok := memo[imp.Module]; ok {
		return m
	}

	var resolved *Module
	switch t := locate(imp.Module, from.Dir, c.roots); t.kind {
	case targetModule:
		m, err := c.Load(t.path)
		if err != nil {
			diag.ReportWarning(c.reporter, diag.ResImportNotFound, imp.Span,
				fmt.Sprintf("cannot read %s: %v; import left verbatim", t.path, err)).Emit()
		} else {
			resolved = m
		}
	case targetPackage:
		diag.ReportWarning(c.reporter, diag.ResPackageTarget, imp.Span,
			fmt.Sprintf("%s resolves to a package, not a module; import left verbatim", imp.Module)).Emit()
	case targetAmbiguous:
		err := fmt.Errorf("import %s is ambiguous: matches %s", imp.Module, strings.Join(t.paths, " and "))
		diag.ReportError(c.reporter, diag.ResAmbiguousImport, imp.Span, err.Error()).Emit()
		if c.fatal == nil {
			c.fatal = err
		}
	default:
		diag.ReportWarning(c.reporter, diag.ResImportNotFound, imp.Span,
			fmt.Sprintf("cannot locate module %s; import left verbatim", imp.Module)).Emit()
	}

	memo[imp.Module] = resolved
	return resolved
}

// warnNestedImports surfaces imports found below the top level. They
// are never scanned for resolution; the surrounding statement text
// passes through unchanged.
func (c *Cache) warnNestedImports(m *Module) {
	for _, imp := range m.AST.NestedImports {
		diag.ReportWarning(c.reporter, diag.UnsupNestedImport, imp.Span,
			fmt.Sprintf("import of %s below the top level is not resolved", imp.Module)).Emit()
	}
}
