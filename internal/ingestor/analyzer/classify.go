package analyzer

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	RegionStatewide = "Statewide"
	CategoryDefault = "Politics"
)

type keywordGroup struct {
	name     string
	keywords []string
}

// Checked in order; the first group with any hit wins.
var regionGroups = []keywordGroup{
	{"Philadelphia", []string{"philadelphia", "septa"}},
	{"Pittsburgh", []string{"pittsburgh", "allegheny"}},
	{"Harrisburg", []string{"harrisburg", "capitol"}},
	{"Lehigh Valley", []string{"allentown", "lehigh", "bethlehem"}},
	{"Erie", []string{"erie"}},
	{"Northeast PA", []string{"scranton", "wilkes-barre"}},
}

// Scored by hit count; ties keep the earlier group.
var categoryGroups = []keywordGroup{
	{"Elections", []string{"election", "vote", "ballot", "campaign", "candidate", "poll"}},
	{"Education", []string{"school", "education", "student", "teacher", "university", "college"}},
	{"Healthcare", []string{"health", "hospital", "medical", "doctor", "patient", "insurance"}},
	{"Transportation", []string{"transit", "septa", "road", "highway", "traffic", "penndot"}},
	{"Environment", []string{"environment", "climate", "pollution", "energy", "water", "air"}},
	{"Economy", []string{"job", "employment", "business", "economy", "tax", "budget"}},
	{"Crime", []string{"crime", "police", "safety", "arrest", "violence", "shooting"}},
	{"Housing", []string{"housing", "rent", "apartment", "home", "affordable", "property"}},
}

var audienceGroups = []keywordGroup{
	{"%s parents and students", []string{"parent", "student"}},
	{"%s commuters", []string{"commuter", "transit"}},
	{"%s homeowners", []string{"homeowner", "property"}},
	{"%s business owners", []string{"business", "employer"}},
	{"%s seniors", []string{"senior", "elderly"}},
}

var categoryAudience = map[string]string{
	"Elections":      "%s voters",
	"Education":      "%s families, educators",
	"Healthcare":     "%s residents, patients",
	"Transportation": "%s commuters",
	"Environment":    "%s residents",
	"Economy":        "%s workers, businesses",
	"Crime":          "%s residents",
	"Housing":        "%s renters, homeowners",
	"Politics":       "%s residents",
}

var categoryImpact = map[string]string{
	"Elections":      "Could influence upcoming election outcomes.",
	"Education":      "May affect local schools and students.",
	"Healthcare":     "Could impact healthcare access and costs.",
	"Transportation": "May affect commute times and transit access.",
	"Environment":    "Could impact local environmental quality.",
	"Economy":        "May affect local jobs and economic growth.",
	"Crime":          "Could impact community safety measures.",
	"Housing":        "May affect housing availability and costs.",
	"Politics":       "Could influence local policy decisions.",
}

var (
	moneyPattern   = regexp.MustCompile(`\$[\d,]+(?:\.\d+)?(?:\s*(?:million|billion))?`)
	percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
)

// DetectRegion maps an article onto a Pennsylvania region, defaulting to Statewide.
func DetectRegion(title, content string) string {
	text := strings.ToLower(title + " " + content)
	for _, g := range regionGroups {
		if countMatches(text, g.keywords) > 0 {
			return g.name
		}
	}
	return RegionStatewide
}

// DetectCategory returns the topic category with the most keyword hits.
func DetectCategory(title, content string) string {
	text := strings.ToLower(title + " " + content)

	best, bestScore := CategoryDefault, 0
	for _, g := range categoryGroups {
		if score := countMatches(text, g.keywords); score > bestScore {
			best, bestScore = g.name, score
		}
	}
	return best
}

// WhoShouldCare names the audience of an article in region.
func WhoShouldCare(region, category, content string) string {
	text := strings.ToLower(content)
	for _, g := range audienceGroups {
		if countMatches(text, g.keywords) > 0 {
			return fmt.Sprintf(g.name, region)
		}
	}
	if format, ok := categoryAudience[category]; ok {
		return fmt.Sprintf(format, region)
	}
	return region + " residents"
}

// Impact produces a one-line impact statement, preferring concrete dollar
// amounts and percentages found in the content.
func Impact(category, content string) string {
	text := strings.ToLower(content)

	if m := moneyPattern.FindString(text); m != "" {
		return fmt.Sprintf("May affect funding of %s in related programs.", m)
	}
	if m := percentPattern.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("Could result in %s%% change in affected areas.", m[1])
	}
	if impact, ok := categoryImpact[category]; ok {
		return impact
	}
	return "May affect local communities."
}

// ShortenTitle caps a headline at 80 characters, ending in an ellipsis when cut.
func ShortenTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= 80 {
		return title
	}
	return string(runes[:77]) + "..."
}
