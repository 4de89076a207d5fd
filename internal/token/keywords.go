package token

// keywords maps reserved identifiers to their token kinds.
//
// "match" and "case" are soft keywords in the source language; the
// lexer still tags them so the parser can recognize the statement
// forms, and scope analysis treats them as identifiers when they
// appear in expression position.
var keywords = map[string]Kind{
	"def":      KwDef,
	"class":    KwClass,
	"return":   KwReturn,
	"import":   KwImport,
	"from":     KwFrom,
	"as":       KwAs,
	"lambda":   KwLambda,
	"if":       KwIf,
	"elif":     KwElif,
	"else":     KwElse,
	"for":      KwFor,
	"while":    KwWhile,
	"in":       KwIn,
	"not":      KwNot,
	"and":      KwAnd,
	"or":       KwOr,
	"is":       KwIs,
	"pass":     KwPass,
	"break":    KwBreak,
	"continue": KwContinue,
	"global":   KwGlobal,
	"nonlocal": KwNonlocal,
	"del":      KwDel,
	"with":     KwWith,
	"try":      KwTry,
	"except":   KwExcept,
	"finally":  KwFinally,
	"raise":    KwRaise,
	"yield":    KwYield,
	"assert":   KwAssert,
	"None":     KwNone,
	"True":     KwTrue,
	"False":    KwFalse,
	"async":    KwAsync,
	"await":    KwAwait,
}

// Lookup returns the keyword kind for an identifier spelling, or Ident.
func Lookup(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return Ident
}

// IsSoftKeyword reports whether the spelling is only a keyword in
// specific statement positions.
func IsSoftKeyword(ident string) bool {
	return ident == "match" || ident == "case"
}
