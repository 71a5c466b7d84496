package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		content string
		want    float64
	}{
		{
			name:    "no keywords",
			title:   "Recipe of the week",
			content: "Mix flour with eggs.",
			want:    0,
		},
		{
			name:    "saturated on both families",
			title:   "Philadelphia council passes budget",
			content: "SEPTA and the governor in Harrisburg debated the tax bill before the election vote.",
			want:    1,
		},
		{
			name:    "location only",
			title:   "Pittsburgh weather",
			content: "Rain in Pittsburgh and Erie.",
			want:    0.4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.title, tt.content))
		})
	}
}

func TestScoreFarePriceHikeIsAdmitted(t *testing.T) {
	content := strings.Repeat("Philadelphia riders and SEPTA officials met again. The board will vote on the budget. ", 7)
	score := Score("SEPTA board votes on fare hike", content)
	assert.GreaterOrEqual(t, score, DefaultRelevanceThreshold)
	assert.True(t, IsRelevant(score, DefaultRelevanceThreshold))
}

func TestScoreIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, Score("pittsburgh mayor", ""), Score("PITTSBURGH MAYOR", ""))
}

func TestScoreIsBoundedAndMonotonic(t *testing.T) {
	words := append(append([]string{}, LocationKeywords...), PolicyKeywords...)

	text := ""
	prev := Score("", text)
	for _, w := range words {
		text += " " + w
		got := Score("", text)
		assert.GreaterOrEqual(t, got, prev, "adding %q lowered the score", w)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
		prev = got
	}
	assert.Equal(t, 1.0, prev)
}

func TestIsRelevant(t *testing.T) {
	assert.True(t, IsRelevant(0.3, 0.3))
	assert.False(t, IsRelevant(0.29, 0.3))
}
