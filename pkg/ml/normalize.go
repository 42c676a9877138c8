package ml

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// homoglyphs maps lookalike characters used for keyword evasion to their
// canonical ASCII letter. Fullwidth forms are already folded by NFKD and do
// not need entries here.
var homoglyphs = map[rune]rune{
	// Cyrillic lookalikes
	'а': 'a', 'е': 'e', 'о': 'o', 'р': 'p', 'с': 'c', 'у': 'y', 'х': 'x',
	// Digit lookalikes
	'0': 'o', '1': 'i', '3': 'e', '5': 's', '7': 't',
}

// stripMarks removes combining marks left over after NFKD decomposition.
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// NormalizeText normalizes message text to defeat evasion tactics before
// intent scoring:
//
//   - Unicode compatibility decomposition (NFKD), dropping combining marks
//   - homoglyph replacement (lookalike chars to standard ASCII)
//   - collapse of spaced-out obfuscation ("U P I" becomes "UPI")
//   - whitespace normalization, trim, lowercase
//
// The function is idempotent: normalizing already-normalized text returns
// the same string.
func NormalizeText(text string) string {
	if decomposed, _, err := transform.String(stripMarks, text); err == nil {
		text = decomposed
	}

	text = strings.Map(func(r rune) rune {
		if repl, ok := homoglyphs[r]; ok {
			return repl
		}
		return r
	}, text)

	text = collapseSpacedRunes(text)

	return strings.ToLower(strings.TrimSpace(text))
}

// collapseSpacedRunes rejoins runs of two or more single-character tokens so
// that character-spacing evasion collapses back into a matchable word.
// Ordinary multi-word text is left intact. The rejoined text uses single
// spaces, which also normalizes whitespace.
func collapseSpacedRunes(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}

	var out []string
	var run []string
	flush := func() {
		if len(run) == 0 {
			return
		}
		if len(run) >= 2 {
			out = append(out, strings.Join(run, ""))
		} else {
			out = append(out, run[0])
		}
		run = run[:0]
	}

	for _, f := range fields {
		if isSingleWordRune(f) {
			run = append(run, f)
			continue
		}
		flush()
		out = append(out, f)
	}
	flush()

	return strings.Join(out, " ")
}

func isSingleWordRune(s string) bool {
	if utf8.RuneCountInString(s) != 1 {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
