package analyzer

import (
	"strings"
	"unicode"
)

// NormalizeTitle case-folds a title, drops punctuation and symbols, and
// collapses whitespace so that cosmetic differences do not split one policy
// into two.
func NormalizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r), r == '-', r == '/', r == '_':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
