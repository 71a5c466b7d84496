package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"roundtable-ingestor/internal/entity"
	"roundtable-ingestor/internal/ingestor/dto"
	"roundtable-ingestor/internal/ingestor/repository"
)

const (
	DefaultPolicyFeedLimit = 20
	MaxPolicyFeedLimit     = 100

	defaultAudience = "PA residents"
	defaultImpact   = "Monitoring for updates"
)

var domainAudience = map[entity.PolicyDomain]string{
	entity.PolicyDomainTransit:     "Commuters and transit riders",
	entity.PolicyDomainEducation:   "Students, parents, and educators",
	entity.PolicyDomainHousing:     "Renters and homeowners",
	entity.PolicyDomainBudget:      "PA taxpayers",
	entity.PolicyDomainElections:   "PA voters",
	entity.PolicyDomainHealth:      "Healthcare users",
	entity.PolicyDomainEnvironment: "Environmental advocates",
	entity.PolicyDomainGeneral:     defaultAudience,
}

// PolicyService serves the audience-facing policy feed.
type PolicyService interface {
	ListPolicyFeed(ctx context.Context, limit int) ([]dto.PolicyFeedItem, error)
}

// NewPolicyService creates a new PolicyService.
func NewPolicyService(policyRepo repository.PolicyRepository) PolicyService {
	return &policyService{policyRepo: policyRepo}
}

type policyService struct {
	policyRepo repository.PolicyRepository
}

// ListPolicyFeed returns the most recently updated active policies projected
// into feed items. limit is clamped to [1, MaxPolicyFeedLimit].
func (s *policyService) ListPolicyFeed(ctx context.Context, limit int) ([]dto.PolicyFeedItem, error) {
	if limit <= 0 {
		limit = DefaultPolicyFeedLimit
	}
	if limit > MaxPolicyFeedLimit {
		limit = MaxPolicyFeedLimit
	}

	policies, err := s.policyRepo.FindActive(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list active policies: %w", err)
	}

	items := make([]dto.PolicyFeedItem, 0, len(policies))
	for i := range policies {
		items = append(items, ProjectPolicy(&policies[i]))
	}
	return items, nil
}

// ProjectPolicy flattens a policy and its newest event into a feed item.
// Events are expected newest first.
func ProjectPolicy(p *entity.Policy) dto.PolicyFeedItem {
	item := dto.PolicyFeedItem{
		ID:            p.ID,
		Title:         p.Title,
		ShortTitle:    p.ShortTitle,
		WhoShouldCare: audienceFor(p.Domain),
		Summary:       p.Description,
		Impact:        defaultImpact,
		SourceName:    p.SourceName,
		SourceURL:     p.SourceURL,
		Category:      capitalize(string(p.Domain)),
		Region:        p.State,
		Status:        p.Status,
		PublishedAt:   p.UpdatedAt.UTC().Format(time.RFC3339),
	}

	var latest *entity.PolicyEvent
	if len(p.Events) > 0 {
		latest = &p.Events[0]
		item.Status = latest.Status
		if latest.AISummary != "" {
			item.Summary = latest.AISummary
		}
		if latest.ChangeSummary != "" {
			change := latest.ChangeSummary
			item.ChangeSummary = &change
			item.Impact = change
		}
	}
	if p.NextMilestone != nil && *p.NextMilestone != "" {
		item.Impact = *p.NextMilestone
	}
	return item
}

func audienceFor(domain entity.PolicyDomain) string {
	if audience, ok := domainAudience[domain]; ok {
		return audience
	}
	return defaultAudience
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
