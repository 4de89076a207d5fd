// Package lexer tokenizes the indentation-scoped source language.
//
// Logical lines follow the usual rules: physical lines join implicitly
// inside (), [] and {}, explicitly with a trailing backslash, and
// block structure is reported through Indent/Dedent tokens. Comments
// never become tokens; their spans are collected separately so the
// emitter's strip filter can delete them from output text.
package lexer

import (
	"fmt"

	"impack/internal/diag"
	"impack/internal/source"
	"impack/internal/token"
)

// Result carries everything lexing one file produces.
type Result struct {
	Tokens   []token.Token
	Comments []source.Span
}

// Lexer scans one source file.
type Lexer struct {
	file     *source.File
	reporter diag.Reporter

	src  []byte
	pos  uint32
	line uint32

	toks     []token.Token
	comments []source.Span

	indents       []uint32 // column stack, always starts at 0
	depth         int      // open bracket depth
	atLineStart   bool
	lineHasTokens bool
}

// New creates a lexer for the given file.
func New(file *source.File, reporter diag.Reporter) *Lexer {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	return &Lexer{
		file:        file,
		reporter:    reporter,
		src:         file.Content,
		line:        1,
		indents:     []uint32{0},
		atLineStart: true,
	}
}

// Lex scans the whole file.
func Lex(file *source.File, reporter diag.Reporter) Result {
	lx := New(file, reporter)
	lx.run()
	return Result{Tokens: lx.toks, Comments: lx.comments}
}

func (lx *Lexer) run() {
	for lx.pos < uint32(len(lx.src)) {
		if lx.atLineStart && lx.depth == 0 {
			if !lx.handleIndentation() {
				break
			}
			continue
		}

		ch := lx.src[lx.pos]
		switch {
		case ch == '\n':
			lx.consumeNewline()
		case ch == ' ' || ch == '\t' || ch == '\r':
			lx.pos++
		case ch == '\\' && lx.pos+1 < uint32(len(lx.src)) && lx.src[lx.pos+1] == '\n':
			// Explicit line join: swallow the newline, keep the logical line open.
			lx.pos += 2
			lx.line++
		case ch == '\\':
			lx.reportHere(diag.LexDanglingLineContinuation, "backslash not followed by a newline")
			lx.pos++
		case ch == '#':
			lx.consumeComment()
		case isIdentStart(ch):
			lx.scanIdentOrString()
		case isDigit(ch):
			lx.scanNumber()
		case ch == '\'' || ch == '"':
			lx.scanString(lx.pos, false, false)
		default:
			lx.scanOperator()
		}
	}

	lx.finish()
}

// handleIndentation measures the leading whitespace of a fresh logical
// line and emits Indent/Dedent tokens. Blank and comment-only lines
// contribute nothing. Returns false at end of input.
func (lx *Lexer) handleIndentation() bool {
	col := uint32(0)
	for lx.pos < uint32(len(lx.src)) {
		switch lx.src[lx.pos] {
		case ' ':
			col++
			lx.pos++
		case '\t':
			col = (col/8 + 1) * 8
			lx.pos++
		case '\r':
			lx.pos++
		default:
			goto measured
		}
	}
measured:
	if lx.pos >= uint32(len(lx.src)) {
		return false
	}

	switch lx.src[lx.pos] {
	case '\n':
		// Blank line.
		lx.pos++
		lx.line++
		return true
	case '#':
		lx.consumeComment()
		return true
	}

	top := lx.indents[len(lx.indents)-1]
	switch {
	case col > top:
		lx.indents = append(lx.indents, col)
		lx.add(token.Indent, lx.pos, lx.pos)
	case col < top:
		for len(lx.indents) > 1 && lx.indents[len(lx.indents)-1] > col {
			lx.indents = lx.indents[:len(lx.indents)-1]
			lx.add(token.Dedent, lx.pos, lx.pos)
		}
		if lx.indents[len(lx.indents)-1] != col {
			lx.reportHere(diag.LexInconsistentIndentation,
				fmt.Sprintf("dedent to column %d does not match any outer indentation level", col))
			lx.indents = append(lx.indents, col)
		}
	}
	lx.atLineStart = false
	lx.lineHasTokens = false
	return true
}

func (lx *Lexer) consumeNewline() {
	if lx.depth > 0 {
		// Implicit join inside brackets.
		lx.pos++
		lx.line++
		return
	}
	if lx.lineHasTokens {
		lx.add(token.Newline, lx.pos, lx.pos+1)
	}
	lx.pos++
	lx.line++
	lx.atLineStart = true
	lx.lineHasTokens = false
}

func (lx *Lexer) consumeComment() {
	start := lx.pos
	for lx.pos < uint32(len(lx.src)) && lx.src[lx.pos] != '\n' {
		lx.pos++
	}
	lx.comments = append(lx.comments, source.Span{File: lx.file.ID, Start: start, End: lx.pos})
}

func (lx *Lexer) finish() {
	if lx.lineHasTokens {
		lx.add(token.Newline, lx.pos, lx.pos)
	}
	for len(lx.indents) > 1 {
		lx.indents = lx.indents[:len(lx.indents)-1]
		lx.add(token.Dedent, lx.pos, lx.pos)
	}
	if lx.depth > 0 {
		lx.reportHere(diag.LexUnbalancedBracket, "unclosed bracket at end of file")
	}
	lx.add(token.EOF, lx.pos, lx.pos)
}

// add appends a token covering src[start:end].
func (lx *Lexer) add(kind token.Kind, start, end uint32) {
	tok := token.Token{
		Kind: kind,
		Span: source.Span{File: lx.file.ID, Start: start, End: end},
		Text: string(lx.src[start:end]),
		Line: lx.line,
	}
	switch kind {
	case token.LParen, token.LBracket, token.LBrace:
		lx.depth++
	case token.RParen, token.RBracket, token.RBrace:
		if lx.depth > 0 {
			lx.depth--
		} else {
			lx.reporter.Report(diag.LexUnbalancedBracket, diag.SevError, tok.Span,
				"closing bracket without a matching opener", nil)
		}
	}
	switch kind {
	case token.Newline, token.Indent, token.Dedent, token.EOF:
	default:
		lx.lineHasTokens = true
	}
	lx.toks = append(lx.toks, tok)
}

func (lx *Lexer) reportHere(code diag.Code, msg string) {
	sp := source.Span{File: lx.file.ID, Start: lx.pos, End: lx.pos + 1}
	if sp.End > uint32(len(lx.src)) {
		sp.End = uint32(len(lx.src))
	}
	sev := diag.SevError
	lx.reporter.Report(code, sev, sp, msg, nil)
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= 0x80
}

func isIdentCont(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
