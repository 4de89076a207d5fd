// Package scope computes, for one top-level statement, the set of
// free names it reads: names that are not bound by the statement's own
// parameters, local assignments, loop targets, lambda parameters, or
// comprehension variables.
//
// The analysis walks the statement's token stream with a scope stack.
// Like the original reference extractor this is flow-ordered: a name
// binds from its first assignment onward, there is no whole-body
// hoisting pass. Names introduced by match-case patterns and names
// interpolated inside f-strings are not tracked; both are documented
// limitations.
package scope

import (
	"impack/internal/ast"
	"impack/internal/token"
)

// Info is the analysis result for one statement.
type Info struct {
	// Free lists unbound read names in first-occurrence order.
	Free []string
	// SelfRecursive reports a reference to the definition's own name
	// (a recursive call, or a method touching its enclosing class).
	SelfRecursive bool
}

// HasFree reports whether name is in the free set.
func (inf *Info) HasFree(name string) bool {
	for _, f := range inf.Free {
		if f == name {
			return true
		}
	}
	return false
}

// Analyze extracts the free-name set of one top-level statement.
// Decorators, base-class expressions, default parameter values, and
// annotations all contribute; the inline marker itself does not.
func Analyze(st *ast.Stmt) Info {
	w := &walker{
		topName: st.Name,
		freeSet: make(map[string]bool),
	}
	if !st.Kind.IsDefinition() {
		// Non-definition statements have no self to recurse into.
		w.topName = ""
	}
	w.frames = append(w.frames, &frame{bound: make(map[string]bool)})
	w.walk(st.Tokens)
	return Info{Free: w.free, SelfRecursive: w.selfRec}
}

type frameKind uint8

const (
	frameBlock frameKind = iota
	frameLambda
	frameComprehension
)

type frame struct {
	bound     map[string]bool
	kind      frameKind
	bodyLevel int  // pop when indentation falls below this (block frames)
	sameLine  bool // pop at the next logical line end
	minDepth  int  // pop when bracket depth falls below this
}

type walker struct {
	topName string
	frames  []*frame
	free    []string
	freeSet map[string]bool
	selfRec bool

	toks  []token.Token
	level int // indentation level
	depth int // bracket nesting depth

	// Per-logical-line assignment info.
	lineFirst     int
	lastAssignIdx int
	annColonIdx   int  // first depth-0 colon of the line, -1 if none
	forTargets    bool // between "for" and "in" at statement level
	globalBinds   bool // inside a global/nonlocal line
}

func (w *walker) walk(toks []token.Token) {
	w.toks = toks
	w.startLine(0)

	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		switch tok.Kind {
		case token.Indent:
			w.level++
			w.startLine(i + 1)
		case token.Dedent:
			w.level--
			w.popBlockFrames()
			w.startLine(i + 1)
		case token.Newline:
			w.forTargets = false
			w.globalBinds = false
			w.popSameLineFrames()
			w.startLine(i + 1)
		case token.Semicolon:
			w.forTargets = false
			w.globalBinds = false
			w.startLine(i + 1)
		case token.LParen, token.LBracket, token.LBrace:
			w.pushComprehensionFrame(i)
			w.depth++
		case token.RParen, token.RBracket, token.RBrace:
			w.depth--
			w.popBracketFrames()
		case token.KwDef, token.KwClass:
			i = w.handleDef(i)
		case token.KwLambda:
			w.handleLambda(i)
		case token.KwFor:
			if w.depth == 0 {
				w.forTargets = true
			}
		case token.KwIn:
			w.forTargets = false
		case token.KwGlobal, token.KwNonlocal:
			w.globalBinds = true
		case token.KwImport, token.KwFrom:
			if w.atLineStart(i) {
				i = w.handleImportLine(i)
			}
		case token.Ident:
			w.handleIdent(i)
		}
	}
}

// startLine prepares per-line assignment positions beginning at index i.
func (w *walker) startLine(i int) {
	w.lineFirst = i
	w.lastAssignIdx = -1
	w.annColonIdx = -1
	depth := 0
	for j := i; j < len(w.toks); j++ {
		tok := w.toks[j]
		switch {
		case tok.OpensBracket():
			depth++
		case tok.ClosesBracket():
			depth--
		case tok.Kind == token.Newline, tok.Kind == token.Semicolon:
			if depth <= 0 {
				return
			}
		case tok.Kind == token.Colon && depth == 0:
			if w.annColonIdx < 0 {
				w.annColonIdx = j
			}
		case (tok.Kind == token.Assign || tok.Kind == token.AugAssign) && depth == 0:
			w.lastAssignIdx = j
		}
	}
}

func (w *walker) atLineStart(i int) bool {
	return i == w.lineFirst
}

func (w *walker) bind(name string) {
	w.frames[len(w.frames)-1].bound[name] = true
}

func (w *walker) read(name string) {
	if name == w.topName && w.topName != "" {
		w.selfRec = true
		return
	}
	for j := len(w.frames) - 1; j >= 0; j-- {
		if w.frames[j].bound[name] {
			return
		}
	}
	if !w.freeSet[name] {
		w.freeSet[name] = true
		w.free = append(w.free, name)
	}
}

func (w *walker) prev(i int) token.Kind {
	if i == 0 {
		return token.EOF
	}
	return w.toks[i-1].Kind
}

func (w *walker) next(i int) token.Kind {
	if i+1 >= len(w.toks) {
		return token.EOF
	}
	return w.toks[i+1].Kind
}

func (w *walker) handleIdent(i int) {
	tok := w.toks[i]
	name := tok.Text
	prev := w.prev(i)
	next := w.next(i)

	if prev == token.Dot {
		// Attribute access: only the base of the chain counts.
		return
	}
	if prev == token.At && name == "inline" {
		// The inline marker feeds the inliner, not the reference set.
		return
	}
	if prev == token.KwAs || w.globalBinds {
		w.bind(name)
		return
	}
	if w.forTargets && next != token.Dot && next != token.LBracket && next != token.LParen {
		w.bind(name)
		return
	}
	if next == token.Walrus {
		w.bind(name)
		return
	}
	if w.depth > 0 && next == token.Assign && (prev == token.LParen || prev == token.Comma) {
		// Keyword argument: binds nothing, reads nothing.
		return
	}
	if w.depth == 0 && w.lastAssignIdx >= 0 && i < w.lastAssignIdx &&
		!w.pastAnnotation(i) &&
		next != token.Dot && next != token.LBracket && next != token.LParen {
		// Assignment target.
		w.bind(name)
		return
	}
	if w.depth == 0 && i == w.lineFirst && next == token.Colon && w.lastAssignIdx < 0 {
		// Bare annotation: "x: int" still binds x.
		w.bind(name)
		return
	}
	w.read(name)
}

// pastAnnotation reports whether index i sits in the annotation part of
// an annotated assignment, "x: Type = expr". The type is a read, not a
// target. Only the exact shape NAME ":" ... "=" counts: a colon after
// the "=" (a lambda body) or after a keyword (a one-line suite) is not
// an annotation.
func (w *walker) pastAnnotation(i int) bool {
	if w.annColonIdx != w.lineFirst+1 || w.annColonIdx >= w.lastAssignIdx {
		return false
	}
	if w.toks[w.lineFirst].Kind != token.Ident {
		return false
	}
	return i > w.annColonIdx
}

// handleDef binds the definition name, pre-binds parameters into a
// fresh frame, and leaves the header tokens to the ordinary walk so
// defaults, annotations, and base classes contribute reads.
func (w *walker) handleDef(i int) int {
	isFunc := w.toks[i].Kind == token.KwDef
	if i+1 < len(w.toks) && w.toks[i+1].Kind == token.Ident {
		w.bind(w.toks[i+1].Text)
	}

	fr := &frame{bound: make(map[string]bool), kind: frameBlock}
	if isFunc {
		for _, name := range scanParamNames(w.toks, i+2) {
			fr.bound[name] = true
		}
	}

	// Determine the suite form from the header colon.
	colon := findHeaderColon(w.toks, i+1)
	if colon >= 0 && colon+1 < len(w.toks) && w.toks[colon+1].Kind == token.Newline {
		fr.bodyLevel = w.level + 1
	} else {
		fr.sameLine = true
	}
	w.frames = append(w.frames, fr)

	if i+1 < len(w.toks) {
		return i + 1 // skip just the name; the header is walked normally
	}
	return i
}

// handleLambda pre-binds the lambda's parameters in a frame that lives
// to the end of the expression.
func (w *walker) handleLambda(i int) {
	fr := &frame{
		bound:    make(map[string]bool),
		kind:     frameLambda,
		minDepth: w.depth,
		sameLine: w.depth == 0,
	}
	depth := 0
	inDefault := false
	for j := i + 1; j < len(w.toks); j++ {
		tok := w.toks[j]
		switch {
		case tok.OpensBracket():
			depth++
		case tok.ClosesBracket():
			if depth == 0 {
				j = len(w.toks)
				continue
			}
			depth--
		case tok.Kind == token.Colon && depth == 0:
			j = len(w.toks)
			continue
		case tok.Kind == token.Comma && depth == 0:
			inDefault = false
		case tok.Kind == token.Assign && depth == 0:
			inDefault = true
		case tok.Kind == token.Ident && depth == 0 && !inDefault:
			fr.bound[tok.Text] = true
		case tok.Kind == token.Newline:
			j = len(w.toks)
			continue
		}
	}
	w.frames = append(w.frames, fr)
}

// pushComprehensionFrame prescans a bracketed region for "for" clauses
// and binds their targets for the duration of the bracket, so the
// expression part written before the clause resolves correctly.
func (w *walker) pushComprehensionFrame(i int) {
	targets := comprehensionTargets(w.toks, i)
	if len(targets) == 0 {
		return
	}
	fr := &frame{
		bound:    make(map[string]bool),
		kind:     frameComprehension,
		minDepth: w.depth + 1,
	}
	for _, name := range targets {
		fr.bound[name] = true
	}
	w.frames = append(w.frames, fr)
}

func comprehensionTargets(toks []token.Token, open int) []string {
	var targets []string
	depth := 0
	inTargets := false
	for j := open; j < len(toks); j++ {
		tok := toks[j]
		switch {
		case tok.OpensBracket():
			depth++
		case tok.ClosesBracket():
			depth--
			if depth == 0 {
				return targets
			}
		case tok.Kind == token.KwFor && depth == 1:
			inTargets = true
		case tok.Kind == token.KwIn && depth == 1:
			inTargets = false
		case tok.Kind == token.Ident && depth == 1 && inTargets:
			targets = append(targets, tok.Text)
		}
	}
	return targets
}

// handleImportLine binds the aliases a nested import introduces and
// skips the rest of the line: module path segments are not reads.
func (w *walker) handleImportLine(i int) int {
	isFrom := w.toks[i].Kind == token.KwFrom
	sawImport := !isFrom
	for j := i + 1; j < len(w.toks); j++ {
		tok := w.toks[j]
		switch tok.Kind {
		case token.Newline, token.Semicolon, token.EOF:
			return j - 1
		case token.KwImport:
			sawImport = true
		case token.KwAs:
			if j+1 < len(w.toks) && w.toks[j+1].Kind == token.Ident {
				w.bind(w.toks[j+1].Text)
				j++
			}
		case token.Ident:
			if !sawImport {
				continue // module path of a from-import
			}
			if w.prev(j) == token.Dot {
				continue
			}
			// A following "as" clause supplies the binding instead.
			if aliasFollows(w.toks, j, isFrom) {
				continue
			}
			w.bind(tok.Text)
		}
	}
	return len(w.toks) - 1
}

// aliasFollows reports whether the (possibly dotted) name starting at
// j is renamed by an "as" clause.
func aliasFollows(toks []token.Token, j int, isFrom bool) bool {
	if isFrom {
		return j+1 < len(toks) && toks[j+1].Kind == token.KwAs
	}
	for j+1 < len(toks) {
		switch toks[j+1].Kind {
		case token.Dot:
			j += 2
		case token.KwAs:
			return true
		default:
			return false
		}
	}
	return false
}

func (w *walker) popBlockFrames() {
	for len(w.frames) > 1 {
		top := w.frames[len(w.frames)-1]
		if top.kind == frameBlock && !top.sameLine && top.bodyLevel > w.level {
			w.frames = w.frames[:len(w.frames)-1]
			continue
		}
		return
	}
}

func (w *walker) popSameLineFrames() {
	for len(w.frames) > 1 {
		top := w.frames[len(w.frames)-1]
		if top.sameLine {
			w.frames = w.frames[:len(w.frames)-1]
			continue
		}
		return
	}
}

func (w *walker) popBracketFrames() {
	for len(w.frames) > 1 {
		top := w.frames[len(w.frames)-1]
		if (top.kind == frameComprehension || top.kind == frameLambda) && top.minDepth > w.depth {
			w.frames = w.frames[:len(w.frames)-1]
			continue
		}
		return
	}
}

// scanParamNames collects the parameter names of a def header whose
// opening paren is at index start.
func scanParamNames(toks []token.Token, start int) []string {
	if start >= len(toks) || toks[start].Kind != token.LParen {
		return nil
	}
	var names []string
	depth := 0
	expectName := true
	inValue := false
	for j := start; j < len(toks); j++ {
		tok := toks[j]
		if tok.OpensBracket() {
			depth++
			continue
		}
		if tok.ClosesBracket() {
			depth--
			if depth == 0 {
				return names
			}
			continue
		}
		if depth != 1 {
			continue
		}
		switch tok.Kind {
		case token.Comma:
			expectName = true
			inValue = false
		case token.Colon, token.Assign:
			inValue = true
		case token.Star, token.StarStar:
			// prefix; the name follows
		case token.Ident:
			if expectName && !inValue {
				names = append(names, tok.Text)
				expectName = false
			}
		}
	}
	return names
}

// findHeaderColon locates the suite colon of a def/class header.
func findHeaderColon(toks []token.Token, i int) int {
	depth := 0
	for ; i < len(toks); i++ {
		tok := toks[i]
		switch {
		case tok.OpensBracket():
			depth++
		case tok.ClosesBracket():
			depth--
		case tok.Kind == token.Colon && depth == 0:
			return i
		case tok.Kind == token.Newline && depth == 0:
			return -1
		}
	}
	return -1
}
