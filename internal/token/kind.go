package token

// Kind enumerates every token the lexer can produce.
type Kind uint8

const (
	EOF Kind = iota
	// Newline terminates a logical line. Lines continued inside
	// brackets or with a trailing backslash produce no Newline.
	Newline
	// Indent / Dedent track block structure.
	Indent
	Dedent

	Ident
	IntLit
	FloatLit
	StringLit
	FStringLit

	// Operators and punctuation.
	Plus
	Minus
	Star
	StarStar
	Slash
	SlashSlash
	Percent
	At
	Amp
	Pipe
	Caret
	Tilde
	Shl
	Shr
	Lt
	Gt
	LtEq
	GtEq
	EqEq
	BangEq
	Assign
	AugAssign // +=, -=, *=, /=, //=, %=, **=, &=, |=, ^=, <<=, >>=, @=
	Walrus    // :=
	Arrow     // ->
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	Comma
	Colon
	Semicolon
	Dot
	Ellipsis

	// Keywords.
	KwDef
	KwClass
	KwReturn
	KwImport
	KwFrom
	KwAs
	KwLambda
	KwIf
	KwElif
	KwElse
	KwFor
	KwWhile
	KwIn
	KwNot
	KwAnd
	KwOr
	KwIs
	KwPass
	KwBreak
	KwContinue
	KwGlobal
	KwNonlocal
	KwDel
	KwWith
	KwTry
	KwExcept
	KwFinally
	KwRaise
	KwYield
	KwAssert
	KwNone
	KwTrue
	KwFalse
	KwAsync
	KwAwait
	KwMatch
	KwCase
)

var kindNames = map[Kind]string{
	EOF:        "EOF",
	Newline:    "NEWLINE",
	Indent:     "INDENT",
	Dedent:     "DEDENT",
	Ident:      "IDENT",
	IntLit:     "INT",
	FloatLit:   "FLOAT",
	StringLit:  "STRING",
	FStringLit: "FSTRING",
	Plus:       "+",
	Minus:      "-",
	Star:       "*",
	StarStar:   "**",
	Slash:      "/",
	SlashSlash: "//",
	Percent:    "%",
	At:         "@",
	Amp:        "&",
	Pipe:       "|",
	Caret:      "^",
	Tilde:      "~",
	Shl:        "<<",
	Shr:        ">>",
	Lt:         "<",
	Gt:         ">",
	LtEq:       "<=",
	GtEq:       ">=",
	EqEq:       "==",
	BangEq:     "!=",
	Assign:     "=",
	AugAssign:  "AUGASSIGN",
	Walrus:     ":=",
	Arrow:      "->",
	LParen:     "(",
	RParen:     ")",
	LBracket:   "[",
	RBracket:   "]",
	LBrace:     "{",
	RBrace:     "}",
	Comma:      ",",
	Colon:      ":",
	Semicolon:  ";",
	Dot:        ".",
	Ellipsis:   "...",
	KwDef:      "def",
	KwClass:    "class",
	KwReturn:   "return",
	KwImport:   "import",
	KwFrom:     "from",
	KwAs:       "as",
	KwLambda:   "lambda",
	KwIf:       "if",
	KwElif:     "elif",
	KwElse:     "else",
	KwFor:      "for",
	KwWhile:    "while",
	KwIn:       "in",
	KwNot:      "not",
	KwAnd:      "and",
	KwOr:       "or",
	KwIs:       "is",
	KwPass:     "pass",
	KwBreak:    "break",
	KwContinue: "continue",
	KwGlobal:   "global",
	KwNonlocal: "nonlocal",
	KwDel:      "del",
	KwWith:     "with",
	KwTry:      "try",
	KwExcept:   "except",
	KwFinally:  "finally",
	KwRaise:    "raise",
	KwYield:    "yield",
	KwAssert:   "assert",
	KwNone:     "None",
	KwTrue:     "True",
	KwFalse:    "False",
	KwAsync:    "async",
	KwAwait:    "await",
	KwMatch:    "match",
	KwCase:     "case",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "UNKNOWN"
}
