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
	"roundtable-ingestor/pkg/utils"
)

const fallbackSummaryLength = 200

// ExtractiveSummaryStrategy builds flat articles locally from ranked sentences.
type ExtractiveSummaryStrategy struct {
	articleRepo  repository.ArticleRepository
	logger       *logger.Logger
	maxSentences int
	now          func() time.Time
}

// NewExtractiveSummaryStrategy creates a new instance of ExtractiveSummaryStrategy.
func NewExtractiveSummaryStrategy(articleRepo repository.ArticleRepository, log *logger.Logger, maxSentences int, now func() time.Time) *ExtractiveSummaryStrategy {
	if now == nil {
		now = time.Now
	}
	return &ExtractiveSummaryStrategy{
		articleRepo:  articleRepo,
		logger:       log,
		maxSentences: maxSentences,
		now:          now,
	}
}

// GetType returns the summarizer type this strategy implements.
func (s *ExtractiveSummaryStrategy) GetType() entity.SummarizerType {
	return entity.SummarizerTypeExtractive
}

func (s *ExtractiveSummaryStrategy) CallDelay() time.Duration {
	return 0
}

func (s *ExtractiveSummaryStrategy) Summarize(ctx context.Context, raw *entity.RawArticle) (*dto.SummaryOutcome, error) {
	content := raw.SourceContent
	region := analyzer.DetectRegion(raw.SourceTitle, content)
	category := analyzer.DetectCategory(raw.SourceTitle, content)

	summary := analyzer.ExtractiveSummary(content, s.maxSentences)
	if summary == "" {
		summary = utils.Truncate(utils.CollapseWhitespace(content), fallbackSummaryLength)
	}
	if summary == "" {
		return nil, fmt.Errorf("%w: article %d has no content to summarize", ErrItemFailed, raw.ID)
	}

	publishedAt := s.now()
	if raw.PublishedAt != nil {
		publishedAt = *raw.PublishedAt
	}

	article := &entity.Article{
		Title:         analyzer.ShortenTitle(raw.SourceTitle),
		WhoShouldCare: analyzer.WhoShouldCare(region, category, content),
		Summary:       summary,
		Impact:        analyzer.Impact(category, content),
		SourceURL:     raw.SourceURL,
		SourceName:    raw.SourceName,
		Category:      category,
		Region:        region,
		PublishedAt:   publishedAt,
		IsActive:      true,
	}
	if err := s.articleRepo.Create(ctx, article); err != nil {
		return nil, fmt.Errorf("failed to create article: %w", err)
	}

	s.logger.Info("Created article",
		logger.StringField("title", article.Title),
		logger.StringField("category", category),
		logger.StringField("region", region),
	)

	return &dto.SummaryOutcome{
		Status:    entity.RawArticleStatusSummarized,
		ArticleID: &article.ID,
	}, nil
}
