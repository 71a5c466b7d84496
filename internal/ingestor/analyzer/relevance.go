// Package analyzer holds the pure text heuristics of the pipeline: relevance
// scoring, classification, extractive summarization and title normalization.
package analyzer

import (
	"math"
	"strings"
)

const (
	// DefaultRelevanceThreshold is the admission score below which an article is rejected.
	DefaultRelevanceThreshold = 0.3

	locationSaturation = 3
	policySaturation   = 5
	locationWeight     = 0.6
	policyWeight       = 0.4
)

// LocationKeywords are Pennsylvania places, agencies and institutions.
// Matching is by substring on lower-cased text.
var LocationKeywords = []string{
	"pennsylvania", "pa", "philadelphia", "pittsburgh", "harrisburg",
	"allentown", "erie", "scranton", "reading", "bethlehem", "lancaster",
	"state college", "septa", "penndot", "peco", "upmc", "penn state",
	"temple", "drexel", "villanova", "governor", "legislature", "commonwealth",
}

// PolicyKeywords are political and civic topic stems.
var PolicyKeywords = []string{
	"election", "vote", "ballot", "campaign", "democrat", "republican",
	"legislation", "bill", "law", "policy", "senator", "representative",
	"congress", "mayor", "council", "budget", "tax", "school", "education",
	"healthcare", "infrastructure", "environment", "police", "crime",
	"housing", "transit", "jobs", "economy",
}

// Score returns the relevance of an article to Pennsylvania civic news in [0,1],
// rounded to two decimals.
func Score(title, content string) float64 {
	text := strings.ToLower(title + " " + content)

	location := math.Min(float64(countMatches(text, LocationKeywords))/locationSaturation, 1)
	topic := math.Min(float64(countMatches(text, PolicyKeywords))/policySaturation, 1)

	return math.Round((location*locationWeight+topic*policyWeight)*100) / 100
}

// IsRelevant reports whether score clears threshold.
func IsRelevant(score, threshold float64) bool {
	return score >= threshold
}

func countMatches(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}
