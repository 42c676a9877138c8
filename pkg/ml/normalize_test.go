package ml

import "testing"

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase and trim", "  Hello World  ", "hello world"},
		{"whitespace collapsed", "share   your\t\tdetails", "share your details"},
		{"cyrillic homoglyphs", "vеrify yоur аccount", "verify your account"}, // е, о, а are Cyrillic
		{"digit substitution", "fr33 pr1ze", "free prize"},
		{"spaced out keyword", "share your U P I pin", "share your upi pin"},
		{"spaced digits collapse", "O T P is 4 5 6", "otp is 4s6"},
		{"single letter word survives", "i am a winner", "i am a winner"},
		{"accents stripped", "vérify café", "verify cafe"},
		{"empty", "", ""},
		{"only whitespace", "   \t\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.in); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTextIdempotent(t *testing.T) {
	inputs := []string{
		"URGENT: verify your U P I account now",
		"ordinary sentence with no tricks",
		"fr33 m0ney wіth lооkаlіkеs",
	}
	for _, in := range inputs {
		once := NormalizeText(in)
		twice := NormalizeText(once)
		if once != twice {
			t.Errorf("not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestCollapseSpacedRunes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"U P I", "UPI"},
		{"share U P I now", "share UPI now"},
		{"a b", "ab"},
		{"a normal sentence", "a normal sentence"},
		{"", ""},
		{"x", "x"},
	}

	for _, tt := range tests {
		if got := collapseSpacedRunes(tt.in); got != tt.want {
			t.Errorf("collapseSpacedRunes(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
