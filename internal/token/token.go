package token

import (
	"impack/internal/source"
)

// Token represents a single source token with its location.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
	Line uint32 // 1-based line of the token's first byte
}

// IsLiteral reports whether the token is a numeric, boolean, string,
// or None literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case IntLit, FloatLit, StringLit, FStringLit, KwNone, KwTrue, KwFalse:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is a reserved word.
func (t Token) IsKeyword() bool {
	return t.Kind >= KwDef && t.Kind <= KwCase
}

// OpensBracket reports whether the token increases bracket depth.
func (t Token) OpensBracket() bool {
	return t.Kind == LParen || t.Kind == LBracket || t.Kind == LBrace
}

// ClosesBracket reports whether the token decreases bracket depth.
func (t Token) ClosesBracket() bool {
	return t.Kind == RParen || t.Kind == RBracket || t.Kind == RBrace
}

// IsBinder reports whether the token kind introduces a binding of the
// following identifier(s): "as NAME", "def NAME", "class NAME".
func (t Token) IsBinder() bool {
	switch t.Kind {
	case KwAs, KwDef, KwClass:
		return true
	default:
		return false
	}
}
