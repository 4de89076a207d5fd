package parser

import (
	"strings"

	"impack/internal/ast"
	"impack/internal/diag"
	"impack/internal/token"
)

// inlineMarker is the decorator name that flags a function for call
// site substitution.
const inlineMarker = "inline"

// parseDecorators consumes leading "@name[(...)]" lines and returns
// the index of the first token after them.
func (p *parser) parseDecorators(group []token.Token, st *ast.Stmt) int {
	idx := 0
	for idx < len(group) && group[idx].Kind == token.At {
		decoStart := idx
		idx++
		var parts []string
		for idx < len(group) {
			if group[idx].Kind == token.Ident {
				parts = append(parts, group[idx].Text)
				idx++
				if idx < len(group) && group[idx].Kind == token.Dot {
					idx++
					continue
				}
			}
			break
		}
		if len(parts) == 0 {
			p.reporter.Report(diag.SynBadDecorator, diag.SevError, group[decoStart].Span,
				"decorator must name a function", nil)
		}
		// Skip a call argument list, then the line terminator.
		idx = skipBalanced(group, idx)
		for idx < len(group) && group[idx].Kind != token.Newline {
			idx++
		}
		if idx < len(group) {
			idx++ // newline
		}
		deco := ast.Decorator{
			Name: strings.Join(parts, "."),
			Span: group[decoStart].Span,
			Line: group[decoStart].Line,
		}
		if idx-1 > decoStart {
			deco.Span = deco.Span.Cover(group[idx-2].Span)
		}
		st.Decorators = append(st.Decorators, deco)
		if last := lastSegment(deco.Name); last == inlineMarker {
			st.InlineMarked = true
		}
	}
	return idx
}

func lastSegment(dotted string) string {
	if i := strings.LastIndexByte(dotted, '.'); i >= 0 {
		return dotted[i+1:]
	}
	return dotted
}

// skipBalanced advances past one bracketed run starting at idx, or
// returns idx unchanged when no bracket opens there.
func skipBalanced(group []token.Token, idx int) int {
	if idx >= len(group) || !group[idx].OpensBracket() {
		return idx
	}
	depth := 0
	for idx < len(group) {
		if group[idx].OpensBracket() {
			depth++
		} else if group[idx].ClosesBracket() {
			depth--
			if depth == 0 {
				return idx + 1
			}
		}
		idx++
	}
	return idx
}

func (p *parser) parseFunc(group []token.Token, idx int, st *ast.Stmt) {
	st.Kind = ast.StmtFunc
	st.Line = group[idx].Line
	idx++ // def
	if idx >= len(group) || group[idx].Kind != token.Ident {
		p.reporter.Report(diag.SynExpectName, diag.SevError, group[idx-1].Span,
			"expected function name after def", nil)
		st.Kind = ast.StmtBad
		return
	}
	st.Name = group[idx].Text
	idx++

	if idx >= len(group) || group[idx].Kind != token.LParen {
		p.reporter.Report(diag.SynBadParameterList, diag.SevError, group[idx-1].Span,
			"expected parameter list", nil)
		st.Kind = ast.StmtBad
		return
	}
	var end int
	st.Params, end = p.parseParams(group, idx)
	idx = end

	// Optional return annotation, then the suite colon.
	colon := findColonAtDepth0(group, idx)
	if colon < 0 {
		p.reporter.Report(diag.SynExpectColon, diag.SevError, st.Span,
			"expected ':' after function header", nil)
		st.Kind = ast.StmtBad
		return
	}
	p.parseSuite(group, colon+1, st, true)
}

func (p *parser) parseClass(group []token.Token, idx int, st *ast.Stmt) {
	st.Kind = ast.StmtClass
	st.Line = group[idx].Line
	idx++ // class
	if idx >= len(group) || group[idx].Kind != token.Ident {
		p.reporter.Report(diag.SynExpectName, diag.SevError, group[idx-1].Span,
			"expected class name", nil)
		st.Kind = ast.StmtBad
		return
	}
	st.Name = group[idx].Text
	idx++
	idx = skipBalanced(group, idx) // optional base list

	colon := findColonAtDepth0(group, idx)
	if colon < 0 {
		p.reporter.Report(diag.SynExpectColon, diag.SevError, st.Span,
			"expected ':' after class header", nil)
		st.Kind = ast.StmtBad
		return
	}
	p.parseSuite(group, colon+1, st, false)
}

// parseParams reads "(...)" starting at the opening paren and returns
// the parsed parameters plus the index just past the closing paren.
func (p *parser) parseParams(group []token.Token, idx int) ([]ast.Param, int) {
	var params []ast.Param
	depth := 0
	var cur *ast.Param
	expectName := true
	inDefault := false
	inAnnotation := false

	for ; idx < len(group); idx++ {
		tok := group[idx]
		if tok.OpensBracket() {
			depth++
			if depth == 1 {
				continue
			}
		}
		if tok.ClosesBracket() {
			depth--
			if depth == 0 {
				if cur != nil && cur.Name != "" {
					params = append(params, *cur)
				}
				return params, idx + 1
			}
			continue
		}
		if depth != 1 {
			continue
		}
		switch tok.Kind {
		case token.Comma:
			// Bare "*" and "/" markers produce nameless entries; drop them.
			if cur != nil && cur.Name != "" {
				params = append(params, *cur)
			}
			cur = nil
			expectName = true
			inDefault = false
			inAnnotation = false
		case token.Star:
			if expectName {
				cur = &ast.Param{Star: true}
			}
		case token.StarStar:
			if expectName {
				cur = &ast.Param{StarStar: true}
			}
		case token.Slash:
			// Positional-only marker; binds nothing.
		case token.Colon:
			if !inDefault {
				inAnnotation = true
			}
		case token.Assign:
			inAnnotation = false
			inDefault = true
			if cur != nil {
				cur.HasDefault = true
			}
		case token.Ident:
			if expectName && !inAnnotation && !inDefault {
				if cur == nil {
					cur = &ast.Param{}
				}
				if cur.Name == "" {
					cur.Name = tok.Text
					expectName = false
				}
			}
		}
	}
	return params, idx
}

// findColonAtDepth0 locates the suite colon after a def/class header.
func findColonAtDepth0(group []token.Token, idx int) int {
	depth := 0
	for ; idx < len(group); idx++ {
		tok := group[idx]
		if tok.OpensBracket() {
			depth++
		} else if tok.ClosesBracket() {
			depth--
		} else if tok.Kind == token.Colon && depth == 0 {
			return idx
		} else if tok.Kind == token.Newline && depth == 0 {
			return -1
		}
	}
	return -1
}

// parseSuite handles the body after the header colon: docstring
// capture and, for functions, the simple-body check the inliner needs.
func (p *parser) parseSuite(group []token.Token, idx int, st *ast.Stmt, isFunc bool) {
	var suite []token.Token
	if idx < len(group) && group[idx].Kind == token.Newline {
		// Indented suite.
		idx++
		if idx >= len(group) || group[idx].Kind != token.Indent {
			p.reporter.Report(diag.SynExpectIndent, diag.SevError, st.Span,
				"expected an indented block", nil)
			st.Kind = ast.StmtBad
			return
		}
		idx++
		level := 1
		start := idx
		for ; idx < len(group); idx++ {
			switch group[idx].Kind {
			case token.Indent:
				level++
			case token.Dedent:
				level--
				if level == 0 {
					suite = group[start:idx]
				}
			}
			if level == 0 {
				break
			}
		}
		if level != 0 {
			suite = group[start:]
		}
	} else {
		// Same-line suite: everything up to the newline.
		start := idx
		for ; idx < len(group); idx++ {
			if group[idx].Kind == token.Newline {
				break
			}
		}
		suite = group[start:idx]
	}

	if len(suite) == 0 {
		p.reporter.Report(diag.SynEmptySuite, diag.SevError, st.Span, "empty suite", nil)
		return
	}

	body := suite
	if len(body) >= 2 && body[0].Kind == token.StringLit && body[1].Kind == token.Newline {
		st.Docstring = body[0].Text
		body = body[2:]
	} else if len(body) >= 1 && body[0].Kind == token.StringLit && len(body) == 1 {
		st.Docstring = body[0].Text
		body = nil
	}

	if isFunc {
		st.Simple = simpleBody(body)
	}
}

// simpleBody recognizes a body that is exactly one return statement
// with a non-empty expression at the suite's own level.
func simpleBody(body []token.Token) *ast.FuncBody {
	if len(body) == 0 || body[0].Kind != token.KwReturn {
		return nil
	}
	var expr []token.Token
	for i := 1; i < len(body); i++ {
		switch body[i].Kind {
		case token.Newline:
			// Anything after the return line disqualifies the body.
			if len(expr) == 0 || i != len(body)-1 {
				return nil
			}
			return &ast.FuncBody{ReturnExpr: expr}
		case token.Semicolon, token.Indent, token.Dedent:
			return nil
		default:
			expr = append(expr, body[i])
		}
	}
	if len(expr) == 0 {
		return nil
	}
	return &ast.FuncBody{ReturnExpr: expr}
}

func (p *parser) parseImport(group []token.Token, idx int, st *ast.Stmt) {
	st.Kind = ast.StmtImport
	st.Line = group[idx].Line
	imp := &ast.ImportStmt{
		Form:     ast.ImportModule,
		Span:     st.Span,
		Line:     st.Line,
		TopLevel: true,
	}
	idx++ // import
	for idx < len(group) && group[idx].Kind != token.Newline {
		name, next := dottedName(group, idx)
		if name == "" {
			p.reporter.Report(diag.SynBadImport, diag.SevError, group[idx].Span,
				"expected module name in import", nil)
			st.Kind = ast.StmtBad
			return
		}
		idx = next
		alias := firstSegment(name)
		if idx < len(group) && group[idx].Kind == token.KwAs {
			idx++
			if idx >= len(group) || group[idx].Kind != token.Ident {
				p.reporter.Report(diag.SynBadImport, diag.SevError, imp.Span,
					"expected alias name after as", nil)
				st.Kind = ast.StmtBad
				return
			}
			alias = group[idx].Text
			idx++
		}
		imp.Items = append(imp.Items, ast.ImportItem{Name: name, Alias: alias})
		if idx < len(group) && group[idx].Kind == token.Comma {
			idx++
		}
	}
	st.Import = imp
}

func (p *parser) parseFrom(group []token.Token, idx int, st *ast.Stmt) {
	st.Kind = ast.StmtImportFrom
	st.Line = group[idx].Line
	imp := &ast.ImportStmt{
		Form:     ast.ImportFrom,
		Span:     st.Span,
		Line:     st.Line,
		TopLevel: true,
	}
	idx++ // from

	dots := 0
	for idx < len(group) {
		if group[idx].Kind == token.Dot {
			dots++
			idx++
		} else if group[idx].Kind == token.Ellipsis {
			dots += 3
			idx++
		} else {
			break
		}
	}
	name := ""
	if idx < len(group) && group[idx].Kind == token.Ident {
		name, idx = dottedName(group, idx)
	}
	if dots == 0 && name == "" {
		p.reporter.Report(diag.SynBadImport, diag.SevError, st.Span,
			"expected module name in from-import", nil)
		st.Kind = ast.StmtBad
		return
	}
	imp.Module = strings.Repeat(".", dots) + name

	if idx >= len(group) || group[idx].Kind != token.KwImport {
		p.reporter.Report(diag.SynBadImport, diag.SevError, st.Span,
			"expected import keyword in from-import", nil)
		st.Kind = ast.StmtBad
		return
	}
	idx++

	if idx < len(group) && group[idx].Kind == token.Star {
		imp.Form = ast.ImportFromStar
		st.Import = imp
		return
	}

	parens := idx < len(group) && group[idx].Kind == token.LParen
	if parens {
		idx++
	}
	for idx < len(group) {
		switch group[idx].Kind {
		case token.Newline, token.RParen:
			st.Import = imp
			return
		case token.Comma:
			idx++
			continue
		case token.Ident:
			item := ast.ImportItem{Name: group[idx].Text, Alias: group[idx].Text}
			idx++
			if idx < len(group) && group[idx].Kind == token.KwAs {
				idx++
				if idx >= len(group) || group[idx].Kind != token.Ident {
					p.reporter.Report(diag.SynBadImport, diag.SevError, imp.Span,
						"expected alias name after as", nil)
					st.Kind = ast.StmtBad
					return
				}
				item.Alias = group[idx].Text
				idx++
			}
			imp.Items = append(imp.Items, item)
		default:
			p.reporter.Report(diag.SynBadImport, diag.SevError, group[idx].Span,
				"unexpected token in from-import", nil)
			st.Kind = ast.StmtBad
			return
		}
	}
	st.Import = imp
}

// dottedName reads "a.b.c" and returns the joined spelling plus the
// index after it; empty string when idx is not at an identifier.
func dottedName(group []token.Token, idx int) (string, int) {
	if idx >= len(group) || group[idx].Kind != token.Ident {
		return "", idx
	}
	name := group[idx].Text
	idx++
	for idx+1 < len(group) && group[idx].Kind == token.Dot && group[idx+1].Kind == token.Ident {
		name += "." + group[idx+1].Text
		idx += 2
	}
	return name, idx
}

func firstSegment(dotted string) string {
	if i := strings.IndexByte(dotted, '.'); i >= 0 {
		return dotted[:i]
	}
	return dotted
}

// tryParseConst recognizes a plain top-level binding "NAME = expr" or
// "NAME: ann = expr". Multi-target and semicolon-joined statements
// stay StmtOther: they bind more than one name and are only legal in
// the entry module.
func (p *parser) tryParseConst(group []token.Token, idx int, st *ast.Stmt) {
	if hasTopLevelSemicolon(group) {
		return
	}
	next := idx + 1
	if next >= len(group) {
		return
	}
	switch group[next].Kind {
	case token.Assign:
		st.Kind = ast.StmtConst
		st.Name = group[idx].Text
		st.Line = group[idx].Line
	case token.Colon:
		// Annotated binding: the '=' must appear before the newline at
		// bracket depth zero.
		depth := 0
		for j := next + 1; j < len(group); j++ {
			tok := group[j]
			if tok.OpensBracket() {
				depth++
			} else if tok.ClosesBracket() {
				depth--
			} else if tok.Kind == token.Assign && depth == 0 {
				st.Kind = ast.StmtConst
				st.Name = group[idx].Text
				st.Line = group[idx].Line
				return
			} else if tok.Kind == token.Newline && depth == 0 {
				return
			}
		}
	}
}

func hasTopLevelSemicolon(group []token.Token) bool {
	depth := 0
	for _, tok := range group {
		if tok.OpensBracket() {
			depth++
		} else if tok.ClosesBracket() {
			depth--
		} else if tok.Kind == token.Semicolon && depth == 0 {
			return true
		}
	}
	return false
}
