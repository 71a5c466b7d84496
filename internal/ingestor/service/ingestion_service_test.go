package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"roundtable-ingestor/internal/entity"
	"roundtable-ingestor/internal/ingestor/config"
	"roundtable-ingestor/internal/ingestor/dto"
	"roundtable-ingestor/internal/ingestor/repository/repositorytest"
	"roundtable-ingestor/internal/ingestor/strategy"
	"roundtable-ingestor/pkg/common"
	"roundtable-ingestor/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	whyyFeed     = "https://whyy.org/feed"
	pennliveFeed = "https://pennlive.com/feed"

	relevantTitle   = "Pennsylvania legislature passes transit budget bill"
	irrelevantTitle = "Local bakery wins cookie contest"
)

var fixedNow = time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) SendMessage(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return nil
}

type harness struct {
	sources  *repositorytest.FeedSources
	raw      *repositorytest.RawArticles
	policies *repositorytest.Policies
	articles *repositorytest.Articles
	runs     *repositorytest.IngestionRuns
	feeds    *repositorytest.Feeds
	contents *repositorytest.Contents
	ai       *repositorytest.AI
	lock     *repositorytest.RunLock
	notifier *recordingNotifier
	svc      *ingestionService
}

func testConfig() *config.Config {
	return &config.Config{
		Ingestion: config.Ingestion{
			RelevanceThreshold: 0.3,
			ScoreBatchSize:     20,
			SummarizeBatchSize: 5,
			MinContentLength:   500,
			Feeds: []config.FeedSource{
				{Name: "WHYY", URL: whyyFeed, Region: "Philadelphia"},
				{Name: "PennLive", URL: pennliveFeed, Region: "Statewide"},
			},
		},
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		sources:  repositorytest.NewFeedSources(),
		raw:      repositorytest.NewRawArticles(),
		policies: repositorytest.NewPolicies(),
		articles: repositorytest.NewArticles(),
		runs:     repositorytest.NewIngestionRuns(),
		feeds:    repositorytest.NewFeeds(),
		contents: repositorytest.NewContents(),
		ai:       &repositorytest.AI{},
		lock:     &repositorytest.RunLock{},
		notifier: &recordingNotifier{},
	}
	h.ai.Fn = func(_ context.Context, input dto.SummaryInput) (*dto.PolicySummary, error) {
		return transitSummary(), nil
	}

	log := logger.NewNop()
	clock := func() time.Time { return fixedNow }
	summarizer := strategy.NewPolicySummaryStrategy(h.ai, h.policies, log, 0, clock)

	h.svc = NewIngestionService(testConfig(), log, h.sources, h.raw, h.policies, h.articles, h.runs,
		h.feeds, h.contents, h.lock, summarizer, h.notifier).(*ingestionService)
	h.svc.now = clock
	h.feeds.Set(whyyFeed)
	h.feeds.Set(pennliveFeed)
	return h
}

func transitSummary() *dto.PolicySummary {
	return &dto.PolicySummary{
		IsPolicyRelevant: true,
		Title:            "SEPTA Fare Increase Proposal",
		ShortTitle:       "SEPTA Fares",
		Description:      "SEPTA proposes raising base fares.",
		Domain:           entity.PolicyDomainTransit,
		Status:           entity.PolicyStatusIntroduced,
		ChangeSummary:    "Proposal announced.",
		AISummary:        "SEPTA wants to raise fares.",
	}
}

func fetched(url, title string) dto.FetchedArticle {
	return dto.FetchedArticle{SourceURL: url, SourceTitle: title, SourceContent: title + " snippet."}
}

func statusOf(t *testing.T, h *harness, url string) entity.RawArticle {
	t.Helper()
	a, err := h.raw.FindBySourceURL(context.Background(), url)
	require.NoError(t, err)
	require.NotNil(t, a)
	return *a
}

func TestInitializeFeeds_Idempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	n, err := h.svc.InitializeFeeds(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = h.svc.InitializeFeeds(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sources := h.sources.All()
	require.Len(t, sources, 2)
	for _, s := range sources {
		assert.True(t, s.IsActive)
	}
}

func TestFetchNewArticles_DeduplicatesBySourceURL(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.InitializeFeeds(ctx)
	require.NoError(t, err)

	h.raw.Put(entity.RawArticle{SourceURL: "https://whyy.org/a", SourceTitle: "old", Status: entity.RawArticleStatusRejected})
	h.feeds.Set(whyyFeed, fetched("https://whyy.org/a", "A"), fetched("https://whyy.org/b", "B"))
	h.feeds.Set(pennliveFeed, fetched("https://whyy.org/b", "B again"))

	result, err := h.svc.FetchNewArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.FeedsFetched)
	assert.Equal(t, 3, result.Fetched)
	assert.Equal(t, 1, result.New)
	assert.Empty(t, result.Errors)

	all := h.raw.All()
	require.Len(t, all, 2)
	assert.Equal(t, entity.RawArticleStatusRejected, all[0].Status)
	assert.Equal(t, entity.RawArticleStatusPending, all[1].Status)
	assert.Equal(t, "WHYY", all[1].SourceName)

	for _, s := range h.sources.All() {
		require.NotNil(t, s.LastFetchedAt)
		assert.Equal(t, fixedNow, *s.LastFetchedAt)
	}
}

func TestFetchNewArticles_FeedFailureDoesNotStopStage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.InitializeFeeds(ctx)
	require.NoError(t, err)

	h.feeds.Fail(whyyFeed, errors.New("connection refused"))
	h.feeds.Set(pennliveFeed, fetched("https://pennlive.com/x", "X"))

	result, err := h.svc.FetchNewArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.FeedsFetched)
	assert.Equal(t, 1, result.New)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "WHYY")
	assert.Contains(t, result.Errors[0], "connection refused")

	for _, s := range h.sources.All() {
		if s.URL == whyyFeed {
			assert.Nil(t, s.LastFetchedAt)
		} else {
			assert.NotNil(t, s.LastFetchedAt)
		}
	}
}

func TestFetchNewArticles_SkipsInactiveSources(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.InitializeFeeds(ctx)
	require.NoError(t, err)
	h.sources.SetActive(whyyFeed, false)

	result, err := h.svc.FetchNewArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.FeedsFetched)
	assert.Equal(t, []string{pennliveFeed}, h.feeds.Called)
}

func TestScoreAndFilterArticles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	relevant := h.raw.Put(entity.RawArticle{SourceURL: "https://x/relevant", SourceTitle: relevantTitle, SourceContent: "short", Status: entity.RawArticleStatusPending})
	irrelevant := h.raw.Put(entity.RawArticle{SourceURL: "https://x/irrelevant", SourceTitle: irrelevantTitle, SourceContent: "The cookies were delicious.", Status: entity.RawArticleStatusPending})
	broken := h.raw.Put(entity.RawArticle{SourceURL: "https://x/broken", SourceTitle: relevantTitle, SourceContent: "short", Status: entity.RawArticleStatusPending})
	long := h.raw.Put(entity.RawArticle{SourceURL: "https://x/long", SourceTitle: relevantTitle, SourceContent: strings.Repeat("a", 600), Status: entity.RawArticleStatusPending})

	h.contents.Set(relevant.SourceURL, "Full page text about the Harrisburg vote.")
	h.contents.Fail(broken.SourceURL, errors.New("context deadline exceeded"))

	result, err := h.svc.ScoreAndFilterArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Approved)
	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, 1, result.Errored)
	require.Len(t, result.Errors, 1)

	got := statusOf(t, h, relevant.SourceURL)
	assert.Equal(t, entity.RawArticleStatusApproved, got.Status)
	assert.Equal(t, "Full page text about the Harrisburg vote.", got.SourceContent)
	require.NotNil(t, got.RelevanceScore)
	assert.GreaterOrEqual(t, *got.RelevanceScore, 0.3)
	assert.Nil(t, got.ProcessedAt)

	got = statusOf(t, h, irrelevant.SourceURL)
	assert.Equal(t, entity.RawArticleStatusRejected, got.Status)
	require.NotNil(t, got.RelevanceScore)
	assert.Zero(t, *got.RelevanceScore)
	require.NotNil(t, got.ProcessedAt)
	assert.Equal(t, fixedNow, *got.ProcessedAt)
	// Empty fetched content keeps the snippet.
	assert.Equal(t, "The cookies were delicious.", got.SourceContent)

	got = statusOf(t, h, broken.SourceURL)
	assert.Equal(t, entity.RawArticleStatusError, got.Status)
	assert.Contains(t, got.ErrorMessage, "deadline exceeded")
	assert.Nil(t, got.RelevanceScore)

	assert.Zero(t, h.contents.Hits[long.SourceURL])
	assert.Equal(t, entity.RawArticleStatusApproved, statusOf(t, h, long.SourceURL).Status)
}

func TestSummarizeApprovedArticles_MergesIntoPolicies(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.raw.Put(entity.RawArticle{SourceURL: "https://x/1", SourceName: "WHYY", SourceTitle: "SEPTA fares", SourceContent: "c", Status: entity.RawArticleStatusApproved})
	second := h.raw.Put(entity.RawArticle{SourceURL: "https://x/2", SourceName: "WHYY", SourceTitle: "SEPTA fares again", SourceContent: "c", Status: entity.RawArticleStatusApproved})

	calls := 0
	h.ai.Fn = func(context.Context, dto.SummaryInput) (*dto.PolicySummary, error) {
		calls++
		s := transitSummary()
		if calls == 2 {
			s.Status = entity.PolicyStatusHearingScheduled
			milestone := "Board vote on March 20"
			s.NextMilestone = &milestone
		}
		return s, nil
	}

	result, err := h.svc.SummarizeApprovedArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Summarized)
	assert.Equal(t, 1, result.PoliciesCreated)
	assert.Equal(t, 1, result.EventsAdded)
	assert.Zero(t, result.Errored)

	policies := h.policies.All()
	require.Len(t, policies, 1)
	assert.Equal(t, entity.PolicyStatusHearingScheduled, policies[0].Status)
	require.NotNil(t, policies[0].NextMilestone)
	assert.Len(t, policies[0].Events, 2)

	for _, raw := range []entity.RawArticle{first, second} {
		got := statusOf(t, h, raw.SourceURL)
		assert.Equal(t, entity.RawArticleStatusProcessed, got.Status)
		require.NotNil(t, got.PolicyID)
		assert.Equal(t, policies[0].ID, *got.PolicyID)
		require.NotNil(t, got.ProcessedAt)
	}
}

// cancellingContents cancels the run while a page fetch is in flight.
type cancellingContents struct {
	cancel context.CancelFunc
}

func (c cancellingContents) FetchContent(ctx context.Context, _ string) (string, error) {
	c.cancel()
	<-ctx.Done()
	return "", ctx.Err()
}

func TestScoreAndFilterArticles_CancelledFetchReleasesArticle(t *testing.T) {
	h := newHarness(t)
	article := h.raw.Put(entity.RawArticle{SourceURL: "https://x/slow", SourceTitle: relevantTitle, SourceContent: "short", Status: entity.RawArticleStatusPending})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.svc.contentRepo = cancellingContents{cancel: cancel}

	_, err := h.svc.ScoreAndFilterArticles(ctx)
	require.ErrorIs(t, err, context.Canceled)

	got := statusOf(t, h, article.SourceURL)
	assert.Equal(t, entity.RawArticleStatusPending, got.Status)
	assert.Nil(t, got.ProcessedAt)
	assert.Nil(t, got.RelevanceScore)

	// The next run picks the article up again.
	h.svc.contentRepo = h.contents
	h.contents.Set(article.SourceURL, "Full page text about the Harrisburg vote.")
	result, err := h.svc.ScoreAndFilterArticles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Approved)
	assert.Equal(t, entity.RawArticleStatusApproved, statusOf(t, h, article.SourceURL).Status)
}

func TestSummarizeApprovedArticles_CancelAfterMergeRecordsArticle(t *testing.T) {
	h := newHarness(t)
	article := h.raw.Put(entity.RawArticle{SourceURL: "https://x/septa", SourceTitle: "SEPTA fares", Status: entity.RawArticleStatusApproved})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.ai.Fn = func(context.Context, dto.SummaryInput) (*dto.PolicySummary, error) {
		cancel()
		return transitSummary(), nil
	}

	result, err := h.svc.SummarizeApprovedArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summarized)

	got := statusOf(t, h, article.SourceURL)
	assert.Equal(t, entity.RawArticleStatusProcessed, got.Status)
	require.NotNil(t, got.PolicyID)

	// A later run has nothing left to merge.
	result, err = h.svc.SummarizeApprovedArticles(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Summarized)
	require.Len(t, h.policies.All(), 1)
	assert.Len(t, h.policies.All()[0].Events, 1)
}

func TestSummarizeApprovedArticles_ItemFailureContinues(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	bad := h.raw.Put(entity.RawArticle{SourceURL: "https://x/bad", SourceTitle: "bad", Status: entity.RawArticleStatusApproved})
	gossip := h.raw.Put(entity.RawArticle{SourceURL: "https://x/gossip", SourceTitle: "gossip", Status: entity.RawArticleStatusApproved})
	good := h.raw.Put(entity.RawArticle{SourceURL: "https://x/good", SourceTitle: "good", Status: entity.RawArticleStatusApproved})

	h.ai.Fn = func(_ context.Context, input dto.SummaryInput) (*dto.PolicySummary, error) {
		switch input.Title {
		case "bad":
			return nil, errors.New("model returned invalid JSON")
		case "gossip":
			return &dto.PolicySummary{IsPolicyRelevant: false}, nil
		}
		return transitSummary(), nil
	}

	result, err := h.svc.SummarizeApprovedArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summarized)
	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, 1, result.Errored)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "invalid JSON")

	got := statusOf(t, h, bad.SourceURL)
	assert.Equal(t, entity.RawArticleStatusError, got.Status)
	assert.Contains(t, got.ErrorMessage, "invalid JSON")
	assert.Equal(t, entity.RawArticleStatusRejected, statusOf(t, h, gossip.SourceURL).Status)
	assert.Equal(t, entity.RawArticleStatusProcessed, statusOf(t, h, good.SourceURL).Status)
}

func TestSummarizeApprovedArticles_RespectsBatchSize(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 7; i++ {
		h.raw.Put(entity.RawArticle{SourceURL: "https://x/" + string(rune('a'+i)), SourceTitle: "t", Status: entity.RawArticleStatusApproved})
	}

	result, err := h.svc.SummarizeApprovedArticles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, result.Summarized)
	assert.Len(t, h.ai.Inputs, 5)
}

func TestRun_EndToEnd(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.feeds.Set(whyyFeed,
		fetched("https://whyy.org/septa", relevantTitle),
		fetched("https://whyy.org/cookies", irrelevantTitle),
	)

	result, err := h.svc.Run(ctx, common.TriggerCLI)
	require.NoError(t, err)
	assert.Equal(t, 2, result.FeedsInitialized)
	assert.Equal(t, 2, result.FeedsFetched)
	assert.Equal(t, 2, result.ArticlesFetched)
	assert.Equal(t, 2, result.ArticlesNew)
	assert.Equal(t, 1, result.ArticlesApproved)
	assert.Equal(t, 1, result.ArticlesRejected)
	assert.Equal(t, 1, result.ArticlesSummarized)
	assert.Equal(t, 1, result.PoliciesCreated)
	assert.Zero(t, result.ArticlesErrored)
	assert.Empty(t, result.Errors)

	assert.Equal(t, entity.RawArticleStatusProcessed, statusOf(t, h, "https://whyy.org/septa").Status)
	assert.Equal(t, entity.RawArticleStatusRejected, statusOf(t, h, "https://whyy.org/cookies").Status)

	runs, err := h.svc.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, entity.RunStatusCompleted, runs[0].Status)
	assert.Equal(t, common.TriggerCLI, runs[0].Trigger)
	assert.True(t, runs[0].CompletedAt.Valid)
	assert.False(t, runs[0].ErrorMessage.Valid)

	var stored dto.RunResult
	require.NoError(t, json.Unmarshal(runs[0].Result, &stored))
	assert.Equal(t, 1, stored.PoliciesCreated)

	h.svc.Wait()
	require.Len(t, h.notifier.messages, 1)

	// A second run over the same feed creates nothing new.
	result, err = h.svc.Run(ctx, common.TriggerCLI)
	require.NoError(t, err)
	assert.Zero(t, result.ArticlesNew)
	assert.Zero(t, result.ArticlesSummarized)
	assert.Len(t, h.policies.All(), 1)
}

func TestRun_LockHeld(t *testing.T) {
	h := newHarness(t)
	h.lock.Hold()

	result, err := h.svc.Run(context.Background(), common.TriggerHTTP)
	assert.ErrorIs(t, err, ErrRunInProgress)
	assert.Nil(t, result)

	runs, err := h.svc.RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.Empty(t, h.feeds.Called)
}

func TestRun_StoreFailureIsFatal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.feeds.Set(whyyFeed, fetched("https://whyy.org/septa", relevantTitle))
	h.raw.UpdateErr = errors.New("database is down")

	result, err := h.svc.Run(ctx, common.TriggerCLI)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is down")
	require.NotNil(t, result)
	assert.Equal(t, 1, result.ArticlesNew)

	runs, err := h.svc.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, entity.RunStatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].ErrorMessage.String, "database is down")

	// The lock was released.
	h.raw.UpdateErr = nil
	_, err = h.svc.Run(ctx, common.TriggerCLI)
	require.NoError(t, err)
}

func TestRun_CancelledContext(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.svc.Run(ctx, common.TriggerWatch)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.feeds.Called)
}

func TestRequeue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	processedAt := fixedNow.Add(-time.Hour)
	score := 0.5

	failed := h.raw.Put(entity.RawArticle{SourceURL: "https://x/failed", Status: entity.RawArticleStatusError, ErrorMessage: "timeout", ProcessedAt: &processedAt, RelevanceScore: &score})
	done := h.raw.Put(entity.RawArticle{SourceURL: "https://x/done", Status: entity.RawArticleStatusProcessed})

	require.NoError(t, h.svc.Requeue(ctx, failed.ID))
	got := statusOf(t, h, failed.SourceURL)
	assert.Equal(t, entity.RawArticleStatusPending, got.Status)
	assert.Empty(t, got.ErrorMessage)
	assert.Nil(t, got.ProcessedAt)
	assert.Nil(t, got.RelevanceScore)

	assert.ErrorIs(t, h.svc.Requeue(ctx, done.ID), entity.ErrInvalidTransition)

	stranded := h.raw.Put(entity.RawArticle{SourceURL: "https://x/stranded", Status: entity.RawArticleStatusProcessing})
	require.NoError(t, h.svc.Requeue(ctx, stranded.ID))
	assert.Equal(t, entity.RawArticleStatusPending, statusOf(t, h, stranded.SourceURL).Status)
	assert.ErrorIs(t, h.svc.Requeue(ctx, 999), ErrArticleNotFound)
}

func TestStats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.InitializeFeeds(ctx)
	require.NoError(t, err)
	h.raw.Put(entity.RawArticle{SourceURL: "https://x/1", Status: entity.RawArticleStatusPending})
	h.raw.Put(entity.RawArticle{SourceURL: "https://x/2", Status: entity.RawArticleStatusError})

	stats, err := h.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Feeds)
	assert.Equal(t, int64(1), stats.RawArticles[entity.RawArticleStatusPending])
	assert.Equal(t, int64(1), stats.RawArticles[entity.RawArticleStatusError])
	assert.Equal(t, int64(0), stats.RawArticles[entity.RawArticleStatusProcessed])
	assert.Zero(t, stats.Policies)
	assert.Equal(t, fixedNow, stats.GeneratedAt)
}

func TestRun_Scenarios(t *testing.T) {
	const septaTitle = "SEPTA board votes on fare hike"

	t.Run("long relevant snippet is approved without a page fetch", func(t *testing.T) {
		h := newHarness(t)
		h.ai.Fn = func(context.Context, dto.SummaryInput) (*dto.PolicySummary, error) {
			return &dto.PolicySummary{IsPolicyRelevant: false}, nil
		}
		content := strings.Repeat("Philadelphia riders told SEPTA the vote on the budget matters. ", 4)
		content += strings.Repeat("x", 600-len(content))
		h.feeds.Set(whyyFeed, dto.FetchedArticle{SourceURL: "https://x/a", SourceTitle: septaTitle, SourceContent: content})

		ctx := context.Background()
		_, err := h.svc.InitializeFeeds(ctx)
		require.NoError(t, err)
		_, err = h.svc.FetchNewArticles(ctx)
		require.NoError(t, err)
		scored, err := h.svc.ScoreAndFilterArticles(ctx)
		require.NoError(t, err)

		assert.Equal(t, 1, scored.Approved)
		got := statusOf(t, h, "https://x/a")
		assert.Equal(t, entity.RawArticleStatusApproved, got.Status)
		assert.GreaterOrEqual(t, *got.RelevanceScore, 0.3)
		assert.Zero(t, h.contents.Hits["https://x/a"])
	})

	t.Run("short snippet with missing page is rejected", func(t *testing.T) {
		h := newHarness(t)
		h.feeds.Set(whyyFeed, dto.FetchedArticle{
			SourceURL:     "https://x/a",
			SourceTitle:   septaTitle,
			SourceContent: "The board met on Thursday to discuss the proposal.",
		})

		result, err := h.svc.Run(context.Background(), common.TriggerCLI)
		require.NoError(t, err)
		assert.Equal(t, 1, result.ArticlesRejected)
		assert.Zero(t, result.ArticlesErrored)
		assert.Equal(t, 1, h.contents.Hits["https://x/a"])

		got := statusOf(t, h, "https://x/a")
		assert.Equal(t, entity.RawArticleStatusRejected, got.Status)
		assert.Less(t, *got.RelevanceScore, 0.3)
	})

	t.Run("summarizer timeout marks only that article", func(t *testing.T) {
		h := newHarness(t)
		h.feeds.Set(whyyFeed,
			fetched("https://x/slow", relevantTitle),
			fetched("https://x/fast", relevantTitle+" again"),
		)
		h.ai.Fn = func(_ context.Context, input dto.SummaryInput) (*dto.PolicySummary, error) {
			if input.SourceURL == "https://x/slow" {
				return nil, context.DeadlineExceeded
			}
			return transitSummary(), nil
		}

		result, err := h.svc.Run(context.Background(), common.TriggerCLI)
		require.NoError(t, err)
		assert.Equal(t, 1, result.ArticlesErrored)
		assert.Equal(t, 1, result.ArticlesSummarized)

		slow := statusOf(t, h, "https://x/slow")
		assert.Equal(t, entity.RawArticleStatusError, slow.Status)
		assert.NotEmpty(t, slow.ErrorMessage)
		require.NotNil(t, slow.ProcessedAt)
		assert.Equal(t, entity.RawArticleStatusProcessed, statusOf(t, h, "https://x/fast").Status)
	})

	t.Run("matching titles across runs coalesce into one policy", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		titles := []string{"SEPTA Fare Increase", "  septa fare increase! "}
		statuses := []entity.PolicyStatus{entity.PolicyStatusIntroduced, entity.PolicyStatusVoteScheduled}
		run := 0
		h.ai.Fn = func(context.Context, dto.SummaryInput) (*dto.PolicySummary, error) {
			s := transitSummary()
			s.ShortTitle = titles[run]
			s.Title = titles[run] + " Proposal"
			s.Status = statuses[run]
			return s, nil
		}

		h.feeds.Set(whyyFeed, fetched("https://x/first", relevantTitle))
		first, err := h.svc.Run(ctx, common.TriggerCLI)
		require.NoError(t, err)
		assert.Equal(t, 1, first.PoliciesCreated)

		run = 1
		h.feeds.Set(whyyFeed, fetched("https://x/first", relevantTitle), fetched("https://x/second", relevantTitle))
		second, err := h.svc.Run(ctx, common.TriggerCLI)
		require.NoError(t, err)
		assert.Zero(t, second.PoliciesCreated)
		assert.Equal(t, 1, second.EventsAdded)

		policies := h.policies.All()
		require.Len(t, policies, 1)
		assert.Equal(t, entity.PolicyStatusVoteScheduled, policies[0].Status)
		require.Len(t, policies[0].Events, 2)
		assert.Equal(t, entity.PolicyStatusVoteScheduled, policies[0].Events[0].Status)
	})
}

func TestRun_TerminalArticlesAreNeverTouched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	processedAt := fixedNow.Add(-24 * time.Hour)

	terminal := []entity.RawArticle{
		{SourceURL: "https://x/rejected", SourceTitle: relevantTitle, Status: entity.RawArticleStatusRejected, ProcessedAt: &processedAt},
		{SourceURL: "https://x/summarized", SourceTitle: relevantTitle, Status: entity.RawArticleStatusSummarized, ProcessedAt: &processedAt},
		{SourceURL: "https://x/processed", SourceTitle: relevantTitle, Status: entity.RawArticleStatusProcessed, ProcessedAt: &processedAt},
	}
	for i := range terminal {
		terminal[i] = h.raw.Put(terminal[i])
	}
	h.feeds.Set(whyyFeed,
		fetched("https://x/rejected", relevantTitle),
		fetched("https://x/summarized", relevantTitle),
		fetched("https://x/processed", relevantTitle),
	)

	for i := 0; i < 2; i++ {
		result, err := h.svc.Run(ctx, common.TriggerCLI)
		require.NoError(t, err)
		assert.Zero(t, result.ArticlesNew)
	}

	for _, want := range terminal {
		got := statusOf(t, h, want.SourceURL)
		assert.Equal(t, want, got)
	}
	assert.Empty(t, h.ai.Inputs)
}
