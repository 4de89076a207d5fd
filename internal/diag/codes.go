package diag

import (
	"fmt"
)

// Code identifies a diagnostic class. Ranges are reserved per phase:
// 1xxx lexer, 2xxx parser, 3xxx resolution, 4xxx unsupported
// constructs, 5xxx inliner.
type Code uint16

const (
	UnknownCode Code = 0

	// Lexical.
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexBadNumber                Code = 1003
	LexInconsistentIndentation  Code = 1004
	LexUnbalancedBracket        Code = 1005
	LexDanglingLineContinuation Code = 1006

	// Syntactic.
	SynInfo              Code = 2000
	SynUnexpectedToken   Code = 2001
	SynExpectName        Code = 2002
	SynExpectColon       Code = 2003
	SynExpectIndent      Code = 2004
	SynBadImport         Code = 2005
	SynBadParameterList  Code = 2006
	SynBadDecorator      Code = 2007
	SynEmptySuite        Code = 2008

	// Resolution.
	ResInfo            Code = 3000
	ResImportNotFound  Code = 3001
	ResAmbiguousImport Code = 3002
	ResPackageTarget   Code = 3003
	ResEntryNotFound   Code = 3004

	// Unsupported constructs (degrade-gracefully fallbacks).
	UnsupWholeModuleImport Code = 4001
	UnsupNestedImport      Code = 4002
	UnsupSideEffects       Code = 4003
	UnsupStarReexport      Code = 4004

	// Inliner.
	InlineFallback Code = 5001
)

var codeNames = map[Code]string{
	UnknownCode:                 "unknown",
	LexInfo:                     "lex-info",
	LexUnknownChar:              "lex-unknown-char",
	LexUnterminatedString:       "lex-unterminated-string",
	LexBadNumber:                "lex-bad-number",
	LexInconsistentIndentation:  "lex-inconsistent-indentation",
	LexUnbalancedBracket:        "lex-unbalanced-bracket",
	LexDanglingLineContinuation: "lex-dangling-line-continuation",
	SynInfo:                     "syn-info",
	SynUnexpectedToken:          "syn-unexpected-token",
	SynExpectName:               "syn-expect-name",
	SynExpectColon:              "syn-expect-colon",
	SynExpectIndent:             "syn-expect-indent",
	SynBadImport:                "syn-bad-import",
	SynBadParameterList:         "syn-bad-parameter-list",
	SynBadDecorator:             "syn-bad-decorator",
	SynEmptySuite:               "syn-empty-suite",
	ResInfo:                     "res-info",
	ResImportNotFound:           "res-import-not-found",
	ResAmbiguousImport:          "res-ambiguous-import",
	ResPackageTarget:            "res-package-target",
	ResEntryNotFound:            "res-entry-not-found",
	UnsupWholeModuleImport:      "unsup-whole-module-import",
	UnsupNestedImport:           "unsup-nested-import",
	UnsupSideEffects:            "unsup-side-effects",
	UnsupStarReexport:           "unsup-star-reexport",
	InlineFallback:              "inline-fallback",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("code-%d", uint16(c))
}
