package repository

import (
	"encoding/json"
	"fmt"
	"strings"

	"roundtable-ingestor/internal/ingestor/dto"
	"roundtable-ingestor/pkg/utils"
)

// MaxPromptContentLength caps the article text sent to the model.
const MaxPromptContentLength = 4000

func BuildPolicySummaryPrompt(input dto.SummaryInput) string {
	return fmt.Sprintf(`You are a nonpartisan civic policy analyst helping Pennsylvania residents stay informed. Analyze this PA news article and extract structured policy information.

Your goal is to make policy news:
- CONCISE: Get to the point quickly
- ACCESSIBLE: Use plain language, not jargon
- REWARDING: Give readers a sense of "I learned something important" without anxiety or overwhelm
- ACTIONABLE: Help them understand what this means for them

ARTICLE SOURCE: %s
ARTICLE TITLE: %s

ARTICLE CONTENT:
%s

---

Respond in JSON format with these fields:

{
  "isPolicyRelevant": boolean,  // Is this about PA state/local policy, legislation, or government action? (Not just general news, sports, crime, weather)
  "title": string,              // Clear policy title, e.g., "SEPTA Funding Increase Bill" (NOT the article headline)
  "shortTitle": string,         // 5-7 word version, e.g., "SEPTA Funding Bill"
  "description": string,        // 1-2 neutral sentences explaining what this policy is about
  "domain": string,             // One of: transit, education, housing, budget, elections, health, environment, general
  "status": string,             // One of: INTRODUCED, COMMITTEE, HEARING_SCHEDULED, VOTE_SCHEDULED, PASSED, FAILED, SIGNED, ENACTED, IMPLEMENTED
  "changeSummary": string,      // One sentence: what just happened, e.g., "Bill advanced to Transportation Committee"
  "aiSummary": string,          // 2-3 sentences in plain language explaining this update. End with why it matters.
  "nextMilestone": string|null  // What's expected next, e.g., "Committee hearing expected in February" or null if unknown
}

Guidelines:
- Be nonpartisan and factual, no political spin
- Write for busy people who want to feel informed in 30 seconds
- If this isn't about PA policy (e.g., sports, individual crime, weather, national news), set isPolicyRelevant to false
- The title should describe the POLICY, not be a news headline
- Keep language calm and clear, avoid "breaking", "shocking", "controversial"

Respond ONLY with valid JSON, no other text.`,
		input.SourceName,
		input.Title,
		utils.Truncate(input.Content, MaxPromptContentLength),
	)
}

// ParsePolicySummary decodes a model reply, tolerating a markdown code fence
// around the JSON, and validates the enum and title fields.
func ParsePolicySummary(raw string) (*dto.PolicySummary, error) {
	text := StripCodeFence(raw)
	if text == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var summary dto.PolicySummary
	if err := json.Unmarshal([]byte(text), &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal policy summary: %w", err)
	}
	if err := summary.Validate(); err != nil {
		return nil, err
	}
	if summary.NextMilestone != nil && strings.TrimSpace(*summary.NextMilestone) == "" {
		summary.NextMilestone = nil
	}
	return &summary, nil
}

// StripCodeFence removes a leading ```json (or bare ```) line and a trailing ``` fence.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
