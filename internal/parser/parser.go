// Package parser turns a token stream into the flat top-level
// statement list the rest of the pipeline works on.
//
// Only the top level is parsed structurally. Suite interiors stay as
// raw token runs: scope analysis and the inliner walk tokens, the
// emitter re-serializes byte spans. Import statements below the top
// level are recorded for the unsupported-construct warning and
// otherwise pass through inside their surrounding statement text.
package parser

import (
	"impack/internal/ast"
	"impack/internal/diag"
	"impack/internal/lexer"
	"impack/internal/source"
	"impack/internal/token"
)

// ParseFile lexes and parses one source file.
func ParseFile(file *source.File, reporter diag.Reporter) *ast.File {
	lexed := lexer.Lex(file, reporter)
	return Parse(file, lexed, reporter)
}

// Parse builds the statement list from an already-lexed file.
func Parse(file *source.File, lexed lexer.Result, reporter diag.Reporter) *ast.File {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	p := &parser{
		file:     file,
		reporter: reporter,
		toks:     lexed.Tokens,
		out: &ast.File{
			Source:   file.ID,
			Arena:    ast.NewArena[ast.Stmt](16),
			Comments: lexed.Comments,
		},
	}
	p.run()
	return p.out
}

type parser struct {
	file     *source.File
	reporter diag.Reporter
	toks     []token.Token
	out      *ast.File
}

func (p *parser) run() {
	n := len(p.toks)
	i := 0
	for i < n && p.toks[i].Kind != token.EOF {
		switch p.toks[i].Kind {
		case token.Newline, token.Indent, token.Dedent:
			i++
			continue
		}
		start := i
		i = p.consumeStatement(i, n)
		p.addStatement(p.toks[start:i])
	}
}

// consumeStatement advances past one whole top-level statement,
// including decorators, suites, and continuation clauses
// (elif/else/except/finally).
func (p *parser) consumeStatement(i, n int) int {
	// Decorator lines attach to the following def/class.
	for i < n && p.toks[i].Kind == token.At {
		for i < n && p.toks[i].Kind != token.Newline && p.toks[i].Kind != token.EOF {
			i++
		}
		if i < n && p.toks[i].Kind == token.Newline {
			i++
		}
	}

	level := 0
	for i < n {
		switch p.toks[i].Kind {
		case token.EOF:
			return i
		case token.Indent:
			level++
			i++
		case token.Dedent:
			level--
			i++
			if level <= 0 && !p.isContinuation(i) {
				return i
			}
		case token.Newline:
			i++
			if level == 0 {
				if i < n && p.toks[i].Kind == token.Indent {
					continue // suite follows
				}
				return i
			}
		default:
			i++
		}
	}
	return i
}

// isContinuation reports whether the token at i extends the current
// compound statement after a dedent back to the top level.
func (p *parser) isContinuation(i int) bool {
	if i >= len(p.toks) {
		return false
	}
	switch p.toks[i].Kind {
	case token.KwElif, token.KwElse, token.KwExcept, token.KwFinally:
		return true
	default:
		return false
	}
}

// addStatement classifies one statement group and stores it.
func (p *parser) addStatement(group []token.Token) {
	st := p.classify(group)
	id := ast.StmtID(p.out.Arena.Allocate(st))
	p.out.Stmts = append(p.out.Stmts, id)
}

func (p *parser) classify(group []token.Token) ast.Stmt {
	st := ast.Stmt{
		Kind:   ast.StmtOther,
		Span:   groupSpan(group),
		Tokens: group,
	}
	if len(group) == 0 {
		st.Kind = ast.StmtBad
		return st
	}
	st.Line = group[0].Line

	idx := p.parseDecorators(group, &st)
	if idx >= len(group) {
		st.Kind = ast.StmtBad
		return st
	}

	st.DocSpans = collectDocSpans(group)
	p.collectNestedImports(group)

	first := group[idx]
	asyncDef := first.Kind == token.KwAsync && idx+1 < len(group) && group[idx+1].Kind == token.KwDef
	if asyncDef {
		idx++
		first = group[idx]
	}

	switch first.Kind {
	case token.KwDef:
		p.parseFunc(group, idx, &st)
	case token.KwClass:
		p.parseClass(group, idx, &st)
	case token.KwImport:
		p.parseImport(group, idx, &st)
	case token.KwFrom:
		p.parseFrom(group, idx, &st)
	case token.Ident:
		p.tryParseConst(group, idx, &st)
	}
	return st
}

// groupSpan covers every position-bearing token in the group. Indent
// and Dedent markers sit at the start of the following line and would
// drag the span past the statement's own text.
func groupSpan(group []token.Token) source.Span {
	var sp source.Span
	seeded := false
	for _, tok := range group {
		switch tok.Kind {
		case token.Indent, token.Dedent:
			continue
		}
		if !seeded {
			sp = tok.Span
			seeded = true
			continue
		}
		sp = sp.Cover(tok.Span)
	}
	return sp
}

// collectDocSpans finds every string literal standing alone as a
// statement: the docstring positions the strip filter removes.
func collectDocSpans(group []token.Token) []source.Span {
	var spans []source.Span
	for j, tok := range group {
		if tok.Kind != token.StringLit {
			continue
		}
		if j+1 >= len(group) || group[j+1].Kind != token.Newline {
			continue
		}
		if j == 0 || atLineStart(group[j-1].Kind) {
			spans = append(spans, tok.Span)
		}
	}
	return spans
}

func atLineStart(k token.Kind) bool {
	switch k {
	case token.Newline, token.Indent, token.Dedent, token.Semicolon:
		return true
	default:
		return false
	}
}

// collectNestedImports records import statements below the top level.
func (p *parser) collectNestedImports(group []token.Token) {
	level := 0
	for j, tok := range group {
		switch tok.Kind {
		case token.Indent:
			level++
		case token.Dedent:
			level--
		case token.KwImport, token.KwFrom:
			if level <= 0 {
				continue
			}
			if j > 0 && !atLineStart(group[j-1].Kind) {
				continue
			}
			p.out.NestedImports = append(p.out.NestedImports, ast.ImportStmt{
				Form:     ast.ImportModule,
				Module:   nestedImportTarget(group[j:]),
				Span:     tok.Span,
				Line:     tok.Line,
				TopLevel: false,
			})
		}
	}
}

// nestedImportTarget extracts a best-effort module spelling for the
// nested-import warning.
func nestedImportTarget(rest []token.Token) string {
	name := ""
	for _, tok := range rest[1:] {
		switch tok.Kind {
		case token.Ident:
			name += tok.Text
		case token.Dot:
			name += "."
		case token.Ellipsis:
			name += "..."
		default:
			return name
		}
	}
	return name
}
