package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"roundtable-ingestor/internal/entity"
	"roundtable-ingestor/internal/ingestor/analyzer"
	"roundtable-ingestor/internal/ingestor/config"
	"roundtable-ingestor/internal/ingestor/dto"
	"roundtable-ingestor/internal/ingestor/repository"
	"roundtable-ingestor/internal/ingestor/strategy"
	"roundtable-ingestor/pkg/logger"
	"roundtable-ingestor/pkg/telegram"
	"roundtable-ingestor/pkg/utils"
)

var (
	// ErrRunInProgress is returned when another run holds the run lock.
	ErrRunInProgress = errors.New("an ingestion run is already in progress")
	// ErrArticleNotFound is returned by Requeue for an unknown raw article.
	ErrArticleNotFound = errors.New("raw article not found")
)

// IngestionService drives the feed-to-summary pipeline.
type IngestionService interface {
	// Run executes every stage once and records the run in the audit log.
	Run(ctx context.Context, trigger string) (*dto.RunResult, error)
	InitializeFeeds(ctx context.Context) (int, error)
	FetchNewArticles(ctx context.Context) (*dto.FetchResult, error)
	ScoreAndFilterArticles(ctx context.Context) (*dto.ScoreResult, error)
	SummarizeApprovedArticles(ctx context.Context) (*dto.SummarizeResult, error)
	Stats(ctx context.Context) (*dto.IngestionStats, error)
	RecentRuns(ctx context.Context, limit int) ([]entity.IngestionRun, error)
	// Requeue moves an ERROR or stranded PROCESSING article back to PENDING.
	Requeue(ctx context.Context, id uint) error
	// Wait blocks until background run reports have been sent.
	Wait()
}

// NewIngestionService creates a new IngestionService. notifier may be nil.
func NewIngestionService(
	cfg *config.Config,
	log *logger.Logger,
	feedSourceRepo repository.FeedSourceRepository,
	rawArticleRepo repository.RawArticleRepository,
	policyRepo repository.PolicyRepository,
	articleRepo repository.ArticleRepository,
	runRepo repository.IngestionRunRepository,
	feedRepo repository.FeedRepository,
	contentRepo repository.ContentRepository,
	runLock repository.RunLockRepository,
	summarizer strategy.SummarizeStrategy,
	notifier telegram.Notifier,
) IngestionService {
	return &ingestionService{
		cfg:            cfg.Ingestion,
		logger:         log,
		feedSourceRepo: feedSourceRepo,
		rawArticleRepo: rawArticleRepo,
		policyRepo:     policyRepo,
		articleRepo:    articleRepo,
		runRepo:        runRepo,
		feedRepo:       feedRepo,
		contentRepo:    contentRepo,
		runLock:        runLock,
		summarizer:     summarizer,
		notifier:       notifier,
		now:            time.Now,
	}
}

type ingestionService struct {
	cfg            config.Ingestion
	logger         *logger.Logger
	feedSourceRepo repository.FeedSourceRepository
	rawArticleRepo repository.RawArticleRepository
	policyRepo     repository.PolicyRepository
	articleRepo    repository.ArticleRepository
	runRepo        repository.IngestionRunRepository
	feedRepo       repository.FeedRepository
	contentRepo    repository.ContentRepository
	runLock        repository.RunLockRepository
	summarizer     strategy.SummarizeStrategy
	notifier       telegram.Notifier
	now            func() time.Time
	reports        sync.WaitGroup
}

func (s *ingestionService) Run(ctx context.Context, trigger string) (*dto.RunResult, error) {
	release, ok, err := s.runLock.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRunInProgress
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error("Failed to release run lock", logger.ErrorField(err))
		}
	}()

	startedAt := s.now()
	run := &entity.IngestionRun{
		Trigger:   trigger,
		Status:    entity.RunStatusRunning,
		StartedAt: startedAt,
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create ingestion run: %w", err)
	}

	s.logger.Info("Starting ingestion run",
		logger.Field("run_id", run.ID),
		logger.StringField("trigger", trigger),
		logger.StringField("summarizer", string(s.summarizer.GetType())),
	)

	result, runErr := s.runStages(ctx)
	s.finishRun(ctx, run, result, runErr)

	if runErr != nil {
		s.logger.Error("Ingestion run failed", logger.ErrorField(runErr), logger.Field("run_id", run.ID))
		return result, runErr
	}

	s.logger.Info("Ingestion run complete",
		logger.Field("run_id", run.ID),
		logger.DurationField("duration", s.now().Sub(startedAt)),
		logger.Field("result", result),
	)
	return result, nil
}

func (s *ingestionService) runStages(ctx context.Context) (*dto.RunResult, error) {
	result := dto.NewRunResult()

	initialized, err := s.InitializeFeeds(ctx)
	result.FeedsInitialized = initialized
	if err != nil {
		return result, err
	}

	fetched, err := s.FetchNewArticles(ctx)
	if fetched != nil {
		result.FeedsFetched = fetched.FeedsFetched
		result.ArticlesFetched = fetched.Fetched
		result.ArticlesNew = fetched.New
		result.Errors = append(result.Errors, fetched.Errors...)
	}
	if err != nil {
		return result, err
	}

	scored, err := s.ScoreAndFilterArticles(ctx)
	if scored != nil {
		result.ArticlesApproved = scored.Approved
		result.ArticlesRejected += scored.Rejected
		result.ArticlesErrored += scored.Errored
		result.Errors = append(result.Errors, scored.Errors...)
	}
	if err != nil {
		return result, err
	}

	summarized, err := s.SummarizeApprovedArticles(ctx)
	if summarized != nil {
		result.ArticlesSummarized = summarized.Summarized
		result.ArticlesRejected += summarized.Rejected
		result.PoliciesCreated = summarized.PoliciesCreated
		result.EventsAdded = summarized.EventsAdded
		result.ArticlesErrored += summarized.Errored
		result.Errors = append(result.Errors, summarized.Errors...)
	}
	return result, err
}

func (s *ingestionService) finishRun(ctx context.Context, run *entity.IngestionRun, result *dto.RunResult, runErr error) {
	ctx = context.WithoutCancel(ctx)
	completedAt := s.now()

	run.Status = entity.RunStatusCompleted
	run.CompletedAt = sql.NullTime{Time: completedAt, Valid: true}
	if runErr != nil {
		run.Status = entity.RunStatusFailed
		run.ErrorMessage = sql.NullString{String: runErr.Error(), Valid: true}
	}
	if payload, err := json.Marshal(result); err == nil {
		run.Result = payload
	}

	if err := s.runRepo.Update(ctx, run); err != nil {
		s.logger.Error("Failed to update ingestion run", logger.ErrorField(err), logger.Field("run_id", run.ID))
	}

	if s.notifier == nil {
		return
	}
	msg := telegram.FormatRunReport(run.Trigger, string(run.Status), run.StartedAt, completedAt.Sub(run.StartedAt), result)
	runID := run.ID
	s.reports.Add(1)
	utils.GoSafe(s.logger, func() {
		defer s.reports.Done()
		if err := s.notifier.SendMessage(ctx, msg); err != nil {
			s.logger.Error("Failed to send run report", logger.ErrorField(err), logger.Field("run_id", runID))
		}
	})
}

func (s *ingestionService) Wait() {
	s.reports.Wait()
}

// InitializeFeeds upserts every configured feed by URL and returns how many were processed.
func (s *ingestionService) InitializeFeeds(ctx context.Context) (int, error) {
	for i, feed := range s.cfg.Feeds {
		source := &entity.FeedSource{
			Name:     feed.Name,
			URL:      feed.URL,
			Region:   feed.Region,
			IsActive: true,
		}
		if err := s.feedSourceRepo.Upsert(ctx, source); err != nil {
			return i, fmt.Errorf("failed to upsert feed source %s: %w", feed.URL, err)
		}
	}

	s.logger.Info("Initialized feed sources", logger.IntField("count", len(s.cfg.Feeds)))
	return len(s.cfg.Feeds), nil
}

// FetchNewArticles polls every active feed and stores unseen items as PENDING.
// A failing feed is reported in the result and does not stop the stage.
func (s *ingestionService) FetchNewArticles(ctx context.Context) (*dto.FetchResult, error) {
	result := &dto.FetchResult{Errors: []string{}}

	sources, err := s.feedSourceRepo.FindActive(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list active feed sources: %w", err)
	}

	for _, source := range sources {
		if !utils.ShouldContinue(ctx, s.logger) {
			return result, ctx.Err()
		}

		s.logger.Info("Fetching feed", logger.StringField("source", source.Name), logger.StringField("url", source.URL))

		articles, err := s.feedRepo.FetchFeed(ctx, source.URL, source.Name)
		if err != nil {
			s.logger.Error("Failed to fetch feed", logger.ErrorField(err), logger.StringField("source", source.Name))
			result.Errors = append(result.Errors, fmt.Sprintf("Feed %s: %v", source.Name, err))
			continue
		}
		result.FeedsFetched++
		result.Fetched += len(articles)

		newCount := 0
		for _, article := range articles {
			created, err := s.storeFetched(ctx, article)
			if err != nil {
				return result, err
			}
			if created {
				newCount++
			}
		}
		result.New += newCount

		if err := s.feedSourceRepo.UpdateLastFetchedAt(ctx, source.ID, s.now()); err != nil {
			return result, fmt.Errorf("failed to update feed source %d: %w", source.ID, err)
		}

		s.logger.Info("Fetched feed",
			logger.StringField("source", source.Name),
			logger.IntField("fetched", len(articles)),
			logger.IntField("new", newCount),
		)
	}

	s.logger.Info("Fetch stage complete",
		logger.IntField("feeds", result.FeedsFetched),
		logger.IntField("fetched", result.Fetched),
		logger.IntField("new", result.New),
	)
	return result, nil
}

func (s *ingestionService) storeFetched(ctx context.Context, article dto.FetchedArticle) (bool, error) {
	existing, err := s.rawArticleRepo.FindBySourceURL(ctx, article.SourceURL)
	if err != nil {
		return false, fmt.Errorf("failed to look up raw article: %w", err)
	}
	if existing != nil {
		return false, nil
	}

	created, err := s.rawArticleRepo.Create(ctx, &entity.RawArticle{
		SourceURL:     article.SourceURL,
		SourceName:    article.SourceName,
		SourceTitle:   article.SourceTitle,
		SourceContent: article.SourceContent,
		PublishedAt:   article.PublishedAt,
		Status:        entity.RawArticleStatusPending,
	})
	if err != nil {
		return false, fmt.Errorf("failed to create raw article: %w", err)
	}
	return created, nil
}

// ScoreAndFilterArticles scores a batch of PENDING articles, fetching the full
// page first when the stored snippet is short.
func (s *ingestionService) ScoreAndFilterArticles(ctx context.Context) (*dto.ScoreResult, error) {
	result := &dto.ScoreResult{Errors: []string{}}

	pending, err := s.rawArticleRepo.FindByStatus(ctx, entity.RawArticleStatusPending, s.cfg.ScoreBatchSize)
	if err != nil {
		return result, fmt.Errorf("failed to list pending articles: %w", err)
	}

	for i := range pending {
		if !utils.ShouldContinue(ctx, s.logger) {
			return result, ctx.Err()
		}
		if err := s.scoreArticle(ctx, &pending[i], result); err != nil {
			return result, err
		}
	}

	s.logger.Info("Scoring stage complete",
		logger.IntField("scored", len(pending)),
		logger.IntField("approved", result.Approved),
		logger.IntField("rejected", result.Rejected),
		logger.IntField("errored", result.Errored),
	)
	return result, nil
}

func (s *ingestionService) scoreArticle(ctx context.Context, article *entity.RawArticle, result *dto.ScoreResult) error {
	if err := s.advance(ctx, article, entity.RawArticleStatusProcessing); err != nil {
		return skipStale(s.logger, article, err)
	}

	content := article.SourceContent
	if utils.CharCount(content) < s.cfg.MinContentLength {
		full, err := s.contentRepo.FetchContent(ctx, article.SourceURL)
		if err != nil {
			if ctx.Err() != nil {
				return s.releaseArticle(ctx, article)
			}
			result.Errored++
			result.Errors = append(result.Errors, fmt.Sprintf("Score %d: %v", article.ID, err))
			return s.fail(ctx, article, err)
		}
		if full != "" {
			content = full
			article.SourceContent = full
		}
	}

	score := analyzer.Score(article.SourceTitle, content)
	article.RelevanceScore = &score

	next := entity.RawArticleStatusRejected
	if analyzer.IsRelevant(score, s.cfg.RelevanceThreshold) {
		next = entity.RawArticleStatusApproved
	}
	if err := s.advance(ctx, article, next); err != nil {
		return skipStale(s.logger, article, err)
	}

	if next == entity.RawArticleStatusApproved {
		result.Approved++
		s.logger.Info("Approved article", logger.StringField("title", article.SourceTitle), logger.Float64Field("score", score))
	} else {
		result.Rejected++
		s.logger.Info("Rejected article", logger.StringField("title", article.SourceTitle), logger.Float64Field("score", score))
	}
	return nil
}

// SummarizeApprovedArticles hands a batch of APPROVED articles to the
// configured summarizer and records each terminal status.
func (s *ingestionService) SummarizeApprovedArticles(ctx context.Context) (*dto.SummarizeResult, error) {
	result := &dto.SummarizeResult{Errors: []string{}}

	approved, err := s.rawArticleRepo.FindByStatus(ctx, entity.RawArticleStatusApproved, s.cfg.SummarizeBatchSize)
	if err != nil {
		return result, fmt.Errorf("failed to list approved articles: %w", err)
	}

	delay := s.summarizer.CallDelay()
	for i := range approved {
		if i > 0 && delay > 0 {
			if err := sleepContext(ctx, delay); err != nil {
				return result, err
			}
		}
		if !utils.ShouldContinue(ctx, s.logger) {
			return result, ctx.Err()
		}
		if err := s.summarizeArticle(ctx, &approved[i], result); err != nil {
			return result, err
		}
	}

	s.logger.Info("Summarize stage complete",
		logger.IntField("summarized", result.Summarized),
		logger.IntField("rejected", result.Rejected),
		logger.IntField("policies_created", result.PoliciesCreated),
		logger.IntField("events_added", result.EventsAdded),
		logger.IntField("errored", result.Errored),
	)
	return result, nil
}

func (s *ingestionService) summarizeArticle(ctx context.Context, article *entity.RawArticle, result *dto.SummarizeResult) error {
	s.logger.Info("Summarizing article", logger.StringField("title", article.SourceTitle))

	outcome, err := s.summarizer.Summarize(ctx, article)
	if err != nil {
		if !errors.Is(err, strategy.ErrItemFailed) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Error("Failed to summarize article", logger.ErrorField(err), logger.Field("raw_article_id", article.ID))
		result.Errored++
		result.Errors = append(result.Errors, fmt.Sprintf("Summarize %d: %v", article.ID, err))
		return s.fail(ctx, article, err)
	}

	article.ArticleID = outcome.ArticleID
	article.PolicyID = outcome.PolicyID
	if err := s.advance(ctx, article, outcome.Status); err != nil {
		return skipStale(s.logger, article, err)
	}

	if outcome.Status == entity.RawArticleStatusRejected {
		result.Rejected++
		return nil
	}
	result.Summarized++
	if outcome.PolicyCreated {
		result.PoliciesCreated++
	}
	if outcome.EventAdded {
		result.EventsAdded++
	}
	return nil
}

// advance moves article to next and persists it, guarded by its current status.
// The write ignores cancellation of ctx so a decided status is never dropped.
func (s *ingestionService) advance(ctx context.Context, article *entity.RawArticle, next entity.RawArticleStatus) error {
	expected := article.Status
	if err := article.TransitionTo(next, s.now()); err != nil {
		return err
	}
	if err := s.rawArticleRepo.Update(context.WithoutCancel(ctx), article, expected); err != nil {
		return fmt.Errorf("failed to update raw article %d: %w", article.ID, err)
	}
	return nil
}

// fail records cause on the article and moves it to ERROR.
func (s *ingestionService) fail(ctx context.Context, article *entity.RawArticle, cause error) error {
	expected := article.Status
	if err := article.Fail(cause, s.now()); err != nil {
		return err
	}
	if err := s.rawArticleRepo.Update(context.WithoutCancel(ctx), article, expected); err != nil {
		return skipStale(s.logger, article, fmt.Errorf("failed to update raw article %d: %w", article.ID, err))
	}
	return nil
}

// skipStale swallows a lost status race so the stage can continue; any other error is returned.
func skipStale(log *logger.Logger, article *entity.RawArticle, err error) error {
	if errors.Is(err, repository.ErrStaleStatus) {
		log.Warn("Raw article changed concurrently, skipping", logger.Field("raw_article_id", article.ID))
		return nil
	}
	return err
}

func (s *ingestionService) Stats(ctx context.Context) (*dto.IngestionStats, error) {
	feeds, err := s.feedSourceRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count feed sources: %w", err)
	}
	raw, err := s.rawArticleRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count raw articles: %w", err)
	}
	policies, err := s.policyRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count policies: %w", err)
	}
	articles, err := s.articleRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count articles: %w", err)
	}

	return &dto.IngestionStats{
		Feeds:       feeds,
		RawArticles: raw,
		Policies:    policies,
		Articles:    articles,
		GeneratedAt: s.now(),
	}, nil
}

func (s *ingestionService) RecentRuns(ctx context.Context, limit int) ([]entity.IngestionRun, error) {
	return s.runRepo.FindRecent(ctx, limit)
}

func (s *ingestionService) Requeue(ctx context.Context, id uint) error {
	article, err := s.rawArticleRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find raw article: %w", err)
	}
	if article == nil {
		return fmt.Errorf("%w: %d", ErrArticleNotFound, id)
	}

	expected := article.Status
	if err := article.TransitionTo(entity.RawArticleStatusPending, s.now()); err != nil {
		return err
	}
	article.ErrorMessage = ""
	article.ProcessedAt = nil
	article.RelevanceScore = nil

	if err := s.rawArticleRepo.Update(ctx, article, expected); err != nil {
		return fmt.Errorf("failed to requeue raw article %d: %w", id, err)
	}

	s.logger.Info("Requeued raw article", logger.Field("raw_article_id", id))
	return nil
}

// releaseArticle returns a PROCESSING article to PENDING after its run was cancelled
// and reports the cancellation.
func (s *ingestionService) releaseArticle(ctx context.Context, article *entity.RawArticle) error {
	cause := ctx.Err()
	if err := s.advance(ctx, article, entity.RawArticleStatusPending); err != nil {
		s.logger.Error("Failed to release raw article", logger.ErrorField(err), logger.Field("raw_article_id", article.ID))
		return cause
	}
	s.logger.Warn("Released raw article after cancellation", logger.Field("raw_article_id", article.ID))
	return cause
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
