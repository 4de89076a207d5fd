package lexer

import (
	"strings"

	"impack/internal/diag"
	"impack/internal/source"
	"impack/internal/token"
)

// scanIdentOrString scans an identifier, keyword, or prefixed string
// literal ("r'...'", "f\"...\"", "rb'...'" and friends).
func (lx *Lexer) scanIdentOrString() {
	start := lx.pos
	for lx.pos < uint32(len(lx.src)) && isIdentCont(lx.src[lx.pos]) {
		lx.pos++
	}
	text := string(lx.src[start:lx.pos])

	// A short all-prefix identifier glued to a quote is a string prefix.
	if lx.pos < uint32(len(lx.src)) && (lx.src[lx.pos] == '\'' || lx.src[lx.pos] == '"') && isStringPrefix(text) {
		lower := strings.ToLower(text)
		lx.scanString(start, strings.Contains(lower, "f"), strings.Contains(lower, "r"))
		return
	}

	lx.add(token.Lookup(text), start, lx.pos)
}

func isStringPrefix(s string) bool {
	if len(s) == 0 || len(s) > 2 {
		return false
	}
	for _, r := range strings.ToLower(s) {
		switch r {
		case 'r', 'b', 'u', 'f':
		default:
			return false
		}
	}
	return true
}

// scanString scans a quoted literal starting at the current quote
// character; start is the beginning of the token including any prefix.
func (lx *Lexer) scanString(start uint32, isFString, isRaw bool) {
	startLine := lx.line
	defer func() {
		// A triple-quoted literal may span lines; the token reports
		// the line it started on.
		lx.toks[len(lx.toks)-1].Line = startLine
	}()
	quote := lx.src[lx.pos]
	triple := lx.pos+2 < uint32(len(lx.src)) && lx.src[lx.pos+1] == quote && lx.src[lx.pos+2] == quote
	if triple {
		lx.pos += 3
	} else {
		lx.pos++
	}

	kind := token.StringLit
	if isFString {
		kind = token.FStringLit
	}

	for lx.pos < uint32(len(lx.src)) {
		ch := lx.src[lx.pos]
		switch {
		case ch == '\\' && !isRaw:
			lx.pos++
			if lx.pos < uint32(len(lx.src)) {
				if lx.src[lx.pos] == '\n' {
					lx.line++
				}
				lx.pos++
			}
		case ch == '\\' && isRaw:
			// A raw string cannot end with a backslash, but one still
			// escapes the quote for scanning purposes.
			lx.pos++
			if lx.pos < uint32(len(lx.src)) {
				if lx.src[lx.pos] == '\n' {
					lx.line++
				}
				lx.pos++
			}
		case ch == '\n':
			if !triple {
				lx.reporter.Report(diag.LexUnterminatedString, diag.SevError,
					source.Span{File: lx.file.ID, Start: start, End: lx.pos},
					"string literal not closed before end of line", nil)
				lx.add(kind, start, lx.pos)
				return
			}
			lx.line++
			lx.pos++
		case ch == quote:
			if !triple {
				lx.pos++
				lx.add(kind, start, lx.pos)
				return
			}
			if lx.pos+2 < uint32(len(lx.src)) && lx.src[lx.pos+1] == quote && lx.src[lx.pos+2] == quote {
				lx.pos += 3
				lx.add(kind, start, lx.pos)
				return
			}
			lx.pos++
		default:
			lx.pos++
		}
	}

	lx.reporter.Report(diag.LexUnterminatedString, diag.SevError,
		source.Span{File: lx.file.ID, Start: start, End: lx.pos},
		"string literal not closed before end of file", nil)
	lx.add(kind, start, lx.pos)
}

// scanNumber scans integer and float literals, including hex/oct/bin
// forms, underscores, exponents, and the imaginary suffix.
func (lx *Lexer) scanNumber() {
	start := lx.pos
	isFloat := false

	if lx.src[lx.pos] == '0' && lx.pos+1 < uint32(len(lx.src)) {
		switch lx.src[lx.pos+1] {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			lx.pos += 2
			for lx.pos < uint32(len(lx.src)) && (isHexDigit(lx.src[lx.pos]) || lx.src[lx.pos] == '_') {
				lx.pos++
			}
			lx.add(token.IntLit, start, lx.pos)
			return
		}
	}

	for lx.pos < uint32(len(lx.src)) && (isDigit(lx.src[lx.pos]) || lx.src[lx.pos] == '_') {
		lx.pos++
	}
	if lx.pos < uint32(len(lx.src)) && lx.src[lx.pos] == '.' && lx.pos+1 < uint32(len(lx.src)) && isDigit(lx.src[lx.pos+1]) {
		isFloat = true
		lx.pos++
		for lx.pos < uint32(len(lx.src)) && (isDigit(lx.src[lx.pos]) || lx.src[lx.pos] == '_') {
			lx.pos++
		}
	}
	if lx.pos < uint32(len(lx.src)) && (lx.src[lx.pos] == 'e' || lx.src[lx.pos] == 'E') {
		peek := lx.pos + 1
		if peek < uint32(len(lx.src)) && (lx.src[peek] == '+' || lx.src[peek] == '-') {
			peek++
		}
		if peek < uint32(len(lx.src)) && isDigit(lx.src[peek]) {
			isFloat = true
			lx.pos = peek
			for lx.pos < uint32(len(lx.src)) && isDigit(lx.src[lx.pos]) {
				lx.pos++
			}
		}
	}
	if lx.pos < uint32(len(lx.src)) && (lx.src[lx.pos] == 'j' || lx.src[lx.pos] == 'J') {
		isFloat = true
		lx.pos++
	}

	if isFloat {
		lx.add(token.FloatLit, start, lx.pos)
	} else {
		lx.add(token.IntLit, start, lx.pos)
	}
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// scanOperator scans punctuation with longest-match semantics.
func (lx *Lexer) scanOperator() {
	rest := lx.src[lx.pos:]
	start := lx.pos

	try := func(text string, kind token.Kind) bool {
		if len(rest) >= len(text) && string(rest[:len(text)]) == text {
			lx.pos += uint32(len(text))
			lx.add(kind, start, lx.pos)
			return true
		}
		return false
	}

	// Three-character forms first.
	for _, op := range []struct {
		text string
		kind token.Kind
	}{
		{"**=", token.AugAssign},
		{"//=", token.AugAssign},
		{"<<=", token.AugAssign},
		{">>=", token.AugAssign},
		{"...", token.Ellipsis},
		{"**", token.StarStar},
		{"//", token.SlashSlash},
		{"<<", token.Shl},
		{">>", token.Shr},
		{"<=", token.LtEq},
		{">=", token.GtEq},
		{"==", token.EqEq},
		{"!=", token.BangEq},
		{"->", token.Arrow},
		{":=", token.Walrus},
		{"+=", token.AugAssign},
		{"-=", token.AugAssign},
		{"*=", token.AugAssign},
		{"/=", token.AugAssign},
		{"%=", token.AugAssign},
		{"@=", token.AugAssign},
		{"&=", token.AugAssign},
		{"|=", token.AugAssign},
		{"^=", token.AugAssign},
		{"+", token.Plus},
		{"-", token.Minus},
		{"*", token.Star},
		{"/", token.Slash},
		{"%", token.Percent},
		{"@", token.At},
		{"&", token.Amp},
		{"|", token.Pipe},
		{"^", token.Caret},
		{"~", token.Tilde},
		{"<", token.Lt},
		{">", token.Gt},
		{"=", token.Assign},
		{"(", token.LParen},
		{")", token.RParen},
		{"[", token.LBracket},
		{"]", token.RBracket},
		{"{", token.LBrace},
		{"}", token.RBrace},
		{",", token.Comma},
		{":", token.Colon},
		{";", token.Semicolon},
		{".", token.Dot},
	} {
		if try(op.text, op.kind) {
			return
		}
	}

	lx.reportHere(diag.LexUnknownChar, "unexpected character "+string(rune(lx.src[lx.pos])))
	lx.pos++
}
