package dto

import (
	"fmt"
	"strings"

	"roundtable-ingestor/internal/entity"
)

// PolicySummary is the structured output of the external summarization model.
type PolicySummary struct {
	IsPolicyRelevant bool                `json:"isPolicyRelevant"`
	Title            string              `json:"title"`
	ShortTitle       string              `json:"shortTitle"`
	Description      string              `json:"description"`
	Domain           entity.PolicyDomain `json:"domain"`
	Status           entity.PolicyStatus `json:"status"`
	ChangeSummary    string              `json:"changeSummary"`
	AISummary        string              `json:"aiSummary"`
	NextMilestone    *string             `json:"nextMilestone"`
}

// Validate checks the fields the policy merge depends on. A summary flagged as
// not policy relevant carries no policy data and is always valid.
func (p *PolicySummary) Validate() error {
	if !p.IsPolicyRelevant {
		return nil
	}
	if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.ShortTitle) == "" {
		return fmt.Errorf("policy summary is missing title or shortTitle")
	}
	if !p.Domain.Valid() {
		return fmt.Errorf("policy summary has unknown domain %q", p.Domain)
	}
	if !p.Status.Valid() {
		return fmt.Errorf("policy summary has unknown status %q", p.Status)
	}
	return nil
}

// PolicyFeedItem is the read-side projection of a policy and its latest event.
type PolicyFeedItem struct {
	ID            uint                `json:"id"`
	Title         string              `json:"title"`
	ShortTitle    string              `json:"shortTitle"`
	WhoShouldCare string              `json:"whoShouldCare"`
	Summary       string              `json:"summary"`
	Impact        string              `json:"impact"`
	SourceName    string              `json:"sourceName"`
	SourceURL     string              `json:"sourceUrl"`
	Category      string              `json:"category"`
	Region        string              `json:"region"`
	Status        entity.PolicyStatus `json:"status"`
	ChangeSummary *string             `json:"changeSummary,omitempty"`
	PublishedAt   string              `json:"publishedAt"`
}
