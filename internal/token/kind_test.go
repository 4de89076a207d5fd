package token

import "testing"

func TestLookupKeywords(t *testing.T) {
	tests := []struct {
		ident string
		want  Kind
	}{
		{"def", KwDef},
		{"class", KwClass},
		{"lambda", KwLambda},
		{"None", KwNone},
		{"match", Ident}, // soft keyword
		{"foo", Ident},
	}
	for _, tt := range tests {
		if got := Lookup(tt.ident); got != tt.want {
			t.Errorf("Lookup(%q) = %v, want %v", tt.ident, got, tt.want)
		}
	}
}

func TestTokenPredicates(t *testing.T) {
	if !(Token{Kind: KwTrue}).IsLiteral() {
		t.Error("True must count as a literal")
	}
	if (Token{Kind: Ident}).IsKeyword() {
		t.Error("Ident must not count as a keyword")
	}
	if !(Token{Kind: LBrace}).OpensBracket() || !(Token{Kind: RBracket}).ClosesBracket() {
		t.Error("bracket predicates broken")
	}
}
