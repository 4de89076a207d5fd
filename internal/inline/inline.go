// Package inline rewrites call sites of functions marked with the
// @inline decorator, substituting arguments into the function's single
// return expression. A candidate that cannot be substituted safely is
// kept as an ordinary definition; inlining never fails a run.
package inline

import (
	"fmt"

	"impack/internal/ast"
	"impack/internal/diag"
	"impack/internal/graph"
	"impack/internal/resolve"
	"impack/internal/source"
	"impack/internal/token"
)

// Substitution replaces one call site, from the callee name through
// the closing parenthesis, with substituted body text.
type Substitution struct {
	Module *resolve.Module
	Stmt   ast.StmtID
	Span   source.Span
	Text   string
}

// Result is what the emitter applies: text edits per statement, plus
// the definitions that no remaining use requires.
type Result struct {
	Subs []Substitution
	// Dropped is indexed by NodeID. A dropped definition had every
	// call site substituted and is omitted from the output.
	Dropped []bool
}

type candidate struct {
	id     graph.NodeID
	node   *graph.Node
	params map[string]int

	uses    int
	blocked bool
	subs    []Substitution
}

// Apply finds every eligible @inline function among the retained
// definitions and substitutes its call sites across all retained
// statements. groups is the SCC partition from graph.Order; members of
// a multi-node group are mutually recursive and never inlined.
func Apply(g *graph.Graph, fset *source.FileSet, retained []bool, groups [][]graph.NodeID, reporter diag.Reporter) Result {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	a := &applier{
		g:          g,
		fset:       fset,
		reporter:   reporter,
		candidates: make(map[graph.NodeID]*candidate),
	}

	cyclic := make(map[graph.NodeID]bool)
	for _, grp := range groups {
		if len(grp) > 1 {
			for _, id := range grp {
				cyclic[id] = true
			}
		}
	}

	for id := 1; id <= g.Len(); id++ {
		if !retained[id] {
			continue
		}
		n := g.Node(graph.NodeID(id))
		if !n.Def.InlineMarked {
			continue
		}
		if reason := ineligible(n, cyclic[graph.NodeID(id)]); reason != "" {
			a.fallback(n, reason)
			continue
		}
		params := make(map[string]int, len(n.Def.Params))
		for i, p := range n.Def.Params {
			params[p.Name] = i
		}
		a.candidates[graph.NodeID(id)] = &candidate{id: graph.NodeID(id), node: n, params: params}
	}
	if len(a.candidates) == 0 {
		return Result{Dropped: make([]bool, g.Len()+1)}
	}

	for id := 1; id <= g.Len(); id++ {
		if !retained[id] {
			continue
		}
		n := g.Node(graph.NodeID(id))
		a.scan(n.Module, n.Stmt, n.Def.Tokens, n.Refs)
	}
	for _, sid := range g.RootStmts {
		a.scan(g.Entry, sid, g.Entry.AST.Get(sid).Tokens, g.RootRefs)
	}

	res := Result{Dropped: make([]bool, g.Len()+1)}
	for _, c := range a.candidates {
		if c.blocked {
			a.fallback(c.node, "it is passed as a value or called in a form substitution cannot express")
			continue
		}
		res.Subs = append(res.Subs, c.subs...)
		res.Dropped[c.id] = c.uses > 0 && len(c.subs) == c.uses
	}
	return res
}

// ineligible explains why a marked function cannot be a candidate, or
// returns "".
func ineligible(n *graph.Node, cyclic bool) string {
	switch {
	case n.Def.Simple == nil:
		return "its body is not a single return expression"
	case n.SelfRecursive:
		return "it calls itself"
	case cyclic:
		return "it is part of a dependency cycle"
	}
	for _, p := range n.Def.Params {
		if p.Star || p.StarStar {
			return "starred parameters cannot be substituted"
		}
	}
	params := make(map[string]bool, len(n.Def.Params))
	for _, p := range n.Def.Params {
		params[p.Name] = true
	}
	for _, name := range exprNames(n.Def.Simple.ReturnExpr) {
		if !params[name] {
			return fmt.Sprintf("its body reads %s from outside its parameters", name)
		}
	}
	return ""
}

type applier struct {
	g          *graph.Graph
	fset       *source.FileSet
	reporter   diag.Reporter
	candidates map[graph.NodeID]*candidate
}

func (a *applier) fallback(n *graph.Node, reason string) {
	diag.ReportInfo(a.reporter, diag.InlineFallback, n.Def.Span,
		fmt.Sprintf("%s is marked inline but %s; keeping the definition", n.Name, reason)).Emit()
}

// scan walks one retained statement's tokens looking for uses of
// candidates reachable from it under their local spelling.
func (a *applier) scan(m *resolve.Module, sid ast.StmtID, tokens []token.Token, refs []graph.Ref) {
	spell := make(map[string]*candidate)
	for _, ref := range refs {
		if c, ok := a.candidates[ref.Target]; ok {
			spell[ref.Name] = c
		}
	}
	if len(spell) == 0 {
		return
	}

	depth := 0
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.OpensBracket() {
			depth++
		} else if tok.ClosesBracket() {
			depth--
		}
		if tok.Kind != token.Ident {
			continue
		}
		c, ok := spell[tok.Text]
		if !ok {
			continue
		}
		if i > 0 && (tokens[i-1].Kind == token.Dot || tokens[i-1].IsBinder()) {
			continue
		}
		// Keyword arguments reuse identifier syntax; f(name=1) is not
		// a use of name.
		if depth > 0 && i+1 < len(tokens) && tokens[i+1].Kind == token.Assign &&
			i > 0 && (tokens[i-1].Kind == token.LParen || tokens[i-1].Kind == token.Comma) {
			continue
		}

		c.uses++
		if i+1 >= len(tokens) || tokens[i+1].Kind != token.LParen {
			c.blocked = true
			continue
		}
		args, close, ok := parseCall(tokens, i+1)
		if !ok || len(args) != len(c.node.Def.Params) {
			c.blocked = true
			continue
		}
		simple := true
		for _, arg := range args {
			if !simpleArg(arg) {
				simple = false
				break
			}
		}
		if !simple {
			c.blocked = true
			continue
		}
		c.subs = append(c.subs, Substitution{
			Module: m,
			Stmt:   sid,
			Span:   tok.Span.Cover(tokens[close].Span),
			Text:   a.substitute(c, args),
		})
		i = close
	}
}

// parseCall splits the argument list starting at the opening paren.
func parseCall(tokens []token.Token, open int) (args [][]token.Token, close int, ok bool) {
	depth := 0
	start := open + 1
	for j := open; j < len(tokens); j++ {
		tok := tokens[j]
		switch {
		case tok.OpensBracket():
			depth++
		case tok.ClosesBracket():
			depth--
			if depth == 0 {
				if j > start {
					args = append(args, tokens[start:j])
				}
				return args, j, true
			}
		case tok.Kind == token.Comma && depth == 1:
			if j > start {
				args = append(args, tokens[start:j])
			}
			start = j + 1
		case tok.Kind == token.Newline || tok.Kind == token.Indent || tok.Kind == token.Dedent:
			return nil, 0, false
		}
	}
	return nil, 0, false
}

// simpleArg accepts a bare name, a literal, or a negated number.
// Anything with its own evaluation order stays at the call site.
func simpleArg(arg []token.Token) bool {
	switch len(arg) {
	case 1:
		return arg[0].Kind == token.Ident || arg[0].IsLiteral()
	case 2:
		return arg[0].Kind == token.Minus &&
			(arg[1].Kind == token.IntLit || arg[1].Kind == token.FloatLit)
	}
	return false
}

// substitute renders the candidate's return expression with parameter
// occurrences replaced by argument text, parenthesized for precedence.
func (a *applier) substitute(c *candidate, args [][]token.Token) string {
	ret := c.node.Def.Simple.ReturnExpr
	if len(ret) == 0 {
		return "(None)"
	}
	base := ret[0].Span
	for _, t := range ret {
		base = base.Cover(t.Span)
	}
	text := []byte(a.fset.Text(base))

	// Replace right to left so earlier offsets stay valid.
	for i := len(ret) - 1; i >= 0; i-- {
		t := ret[i]
		if t.Kind != token.Ident {
			continue
		}
		idx, ok := c.params[t.Text]
		if !ok {
			continue
		}
		if i > 0 && ret[i-1].Kind == token.Dot {
			continue
		}
		if i+1 < len(ret) && ret[i+1].Kind == token.Assign &&
			i > 0 && (ret[i-1].Kind == token.LParen || ret[i-1].Kind == token.Comma) {
			continue
		}
		repl := a.argText(args[idx])
		s, e := t.Span.Start-base.Start, t.Span.End-base.Start
		text = append(text[:s], append([]byte(repl), text[e:]...)...)
	}
	return "(" + string(text) + ")"
}

func (a *applier) argText(arg []token.Token) string {
	span := arg[0].Span
	for _, t := range arg {
		span = span.Cover(t.Span)
	}
	return a.fset.Text(span)
}

// exprNames lists the identifiers an expression reads: attribute tails
// and keyword-argument names do not count.
func exprNames(tokens []token.Token) []string {
	var out []string
	for i, tok := range tokens {
		if tok.Kind != token.Ident {
			continue
		}
		if i > 0 && tokens[i-1].Kind == token.Dot {
			continue
		}
		if i+1 < len(tokens) && tokens[i+1].Kind == token.Assign &&
			i > 0 && (tokens[i-1].Kind == token.LParen || tokens[i-1].Kind == token.Comma) {
			continue
		}
		out = append(out, tok.Text)
	}
	return out
}
