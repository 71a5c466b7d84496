package analyzer

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"roundtable-ingestor/pkg/utils"
)

const (
	DefaultSummarySentences = 4

	minSentenceLength = 40
	maxSentenceLength = 320
	positionBonus     = 12
)

var (
	wordPattern = regexp.MustCompile(`[a-z']{2,}`)

	stopwords = map[string]struct{}{
		"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "to": {}, "of": {}, "in": {},
		"on": {}, "for": {}, "with": {}, "that": {}, "this": {}, "is": {}, "are": {},
		"was": {}, "were": {}, "be": {}, "as": {}, "by": {}, "at": {}, "from": {},
		"it": {}, "its": {}, "will": {}, "would": {}, "can": {}, "could": {}, "should": {},
	}
)

// ExtractiveSummary selects at most maxSentences sentences from text, ranked
// by shared term frequency with an early-position bonus, and returns them in
// their original order joined by a space.
func ExtractiveSummary(text string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = DefaultSummarySentences
	}

	var sentences []string
	for _, s := range SplitSentences(utils.CollapseWhitespace(text)) {
		if n := utf8.RuneCountInString(s); n >= minSentenceLength && n <= maxSentenceLength {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) <= maxSentences {
		return strings.Join(sentences, " ")
	}

	freq := make(map[string]int)
	for _, s := range sentences {
		for _, w := range wordPattern.FindAllString(strings.ToLower(s), -1) {
			if _, stop := stopwords[w]; stop {
				continue
			}
			freq[w]++
		}
	}

	type scoredSentence struct {
		index int
		score int
	}
	scored := make([]scoredSentence, len(sentences))
	for i, s := range sentences {
		score := 0
		for _, w := range wordPattern.FindAllString(strings.ToLower(s), -1) {
			score += freq[w]
		}
		if bonus := positionBonus - i; bonus > 0 {
			score += bonus
		}
		scored[i] = scoredSentence{index: i, score: score}
	}

	sort.SliceStable(scored, func(a, b int) bool { return scored[a].score > scored[b].score })
	top := scored[:maxSentences]
	sort.Slice(top, func(a, b int) bool { return top[a].index < top[b].index })

	picked := make([]string, len(top))
	for i, s := range top {
		picked[i] = sentences[s.index]
	}
	return strings.Join(picked, " ")
}

// SplitSentences splits text at whitespace that follows '.', '!' or '?'.
func SplitSentences(text string) []string {
	var (
		out   []string
		start int
		prev  rune
	)
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if unicode.IsSpace(r) && (prev == '.' || prev == '!' || prev == '?') {
			if s := strings.TrimSpace(string(runes[start:i])); s != "" {
				out = append(out, s)
			}
			for i < len(runes) && unicode.IsSpace(runes[i]) {
				i++
			}
			start = i
			if i < len(runes) {
				prev = runes[i]
			}
			continue
		}
		prev = r
	}
	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			out = append(out, s)
		}
	}
	return out
}
