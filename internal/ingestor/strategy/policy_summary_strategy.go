package strategy

import (
	"context"
	"fmt"
	"time"

	"roundtable-ingestor/internal/entity"
	"roundtable-ingestor/internal/ingestor/analyzer"
	"roundtable-ingestor/internal/ingestor/dto"
	"roundtable-ingestor/internal/ingestor/repository"
	"roundtable-ingestor/pkg/logger"

	"github.com/lib/pq"
)

// PolicySummaryStrategy asks an external model for a structured summary and
// merges it into the policy timeline.
type PolicySummaryStrategy struct {
	aiRepo     repository.AIRepository
	policyRepo repository.PolicyRepository
	logger     *logger.Logger
	delay      time.Duration
	now        func() time.Time
}

// NewPolicySummaryStrategy creates a new instance of PolicySummaryStrategy.
func NewPolicySummaryStrategy(aiRepo repository.AIRepository, policyRepo repository.PolicyRepository, log *logger.Logger, delay time.Duration, now func() time.Time) *PolicySummaryStrategy {
	if now == nil {
		now = time.Now
	}
	return &PolicySummaryStrategy{
		aiRepo:     aiRepo,
		policyRepo: policyRepo,
		logger:     log,
		delay:      delay,
		now:        now,
	}
}

// GetType returns the summarizer type this strategy implements.
func (s *PolicySummaryStrategy) GetType() entity.SummarizerType {
	return entity.SummarizerTypePolicy
}

func (s *PolicySummaryStrategy) CallDelay() time.Duration {
	return s.delay
}

func (s *PolicySummaryStrategy) Summarize(ctx context.Context, raw *entity.RawArticle) (*dto.SummaryOutcome, error) {
	summary, err := s.aiRepo.SummarizePolicy(ctx, dto.SummaryInput{
		Title:      raw.SourceTitle,
		Content:    raw.SourceContent,
		SourceName: raw.SourceName,
		SourceURL:  raw.SourceURL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrItemFailed, err)
	}

	if !summary.IsPolicyRelevant {
		s.logger.Info("Skipping non-policy article", logger.StringField("title", raw.SourceTitle))
		return &dto.SummaryOutcome{Status: entity.RawArticleStatusRejected}, nil
	}

	var outcome *dto.SummaryOutcome
	err = s.policyRepo.Transaction(ctx, func(repo repository.PolicyRepository) error {
		var txErr error
		outcome, txErr = s.merge(ctx, repo, raw, summary)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// merge appends an event to the policy matching summary by normalized title,
// or creates a new policy with the event as its first entry.
func (s *PolicySummaryStrategy) merge(ctx context.Context, repo repository.PolicyRepository, raw *entity.RawArticle, summary *dto.PolicySummary) (*dto.SummaryOutcome, error) {
	normalizedTitle := analyzer.NormalizeTitle(summary.Title)
	normalizedShortTitle := analyzer.NormalizeTitle(summary.ShortTitle)

	existing, err := repo.FindByTitleMatch(ctx, normalizedShortTitle, normalizedTitle)
	if err != nil {
		return nil, fmt.Errorf("failed to find policy by title: %w", err)
	}

	rawID := raw.ID
	event := entity.PolicyEvent{
		Status:        summary.Status,
		EventDate:     s.now(),
		ChangeSummary: summary.ChangeSummary,
		AISummary:     summary.AISummary,
		Sources:       pq.StringArray{raw.SourceURL},
		RawArticleID:  &rawID,
	}

	if existing != nil {
		event.PolicyID = existing.ID
		if err := repo.AppendEvent(ctx, &event); err != nil {
			return nil, fmt.Errorf("failed to append policy event: %w", err)
		}
		if existing.Status != summary.Status {
			if err := repo.UpdateStatus(ctx, existing.ID, summary.Status, summary.NextMilestone); err != nil {
				return nil, fmt.Errorf("failed to update policy status: %w", err)
			}
		} else if err := repo.Touch(ctx, existing.ID, event.EventDate); err != nil {
			return nil, fmt.Errorf("failed to touch policy: %w", err)
		}

		s.logger.Info("Added policy event",
			logger.StringField("short_title", existing.ShortTitle),
			logger.StringField("from_status", string(existing.Status)),
			logger.StringField("to_status", string(summary.Status)),
		)
		policyID := existing.ID
		return &dto.SummaryOutcome{
			Status:     entity.RawArticleStatusProcessed,
			PolicyID:   &policyID,
			EventAdded: true,
		}, nil
	}

	policy := &entity.Policy{
		Title:                summary.Title,
		ShortTitle:           summary.ShortTitle,
		Description:          summary.Description,
		Domain:               summary.Domain,
		Status:               summary.Status,
		State:                "PA",
		Region:               analyzer.DetectRegion(raw.SourceTitle, raw.SourceContent),
		NextMilestone:        summary.NextMilestone,
		SourceName:           raw.SourceName,
		SourceURL:            raw.SourceURL,
		IsActive:             true,
		NormalizedTitle:      normalizedTitle,
		NormalizedShortTitle: normalizedShortTitle,
		Events:               []entity.PolicyEvent{event},
	}
	if err := repo.Create(ctx, policy); err != nil {
		return nil, fmt.Errorf("failed to create policy: %w", err)
	}

	s.logger.Info("Created policy",
		logger.StringField("short_title", policy.ShortTitle),
		logger.StringField("status", string(policy.Status)),
	)
	policyID := policy.ID
	return &dto.SummaryOutcome{
		Status:        entity.RawArticleStatusProcessed,
		PolicyID:      &policyID,
		PolicyCreated: true,
	}, nil
}
