package dto

import (
	"time"

	"roundtable-ingestor/internal/entity"
)

// RunResult is the counter set reported by one orchestrator run.
type RunResult struct {
	FeedsInitialized   int      `json:"feedsInitialized"`
	FeedsFetched       int      `json:"feedsFetched"`
	ArticlesFetched    int      `json:"articlesFetched"`
	ArticlesNew        int      `json:"articlesNew"`
	ArticlesApproved   int      `json:"articlesApproved"`
	ArticlesRejected   int      `json:"articlesRejected"`
	ArticlesSummarized int      `json:"articlesSummarized"`
	PoliciesCreated    int      `json:"policiesCreated"`
	EventsAdded        int      `json:"eventsAdded"`
	ArticlesErrored    int      `json:"articlesErrored"`
	Errors             []string `json:"errors"`
}

// NewRunResult returns a result whose Errors slice encodes as [] rather than null.
func NewRunResult() *RunResult {
	return &RunResult{Errors: []string{}}
}

// FetchResult reports the fetch stage.
type FetchResult struct {
	FeedsFetched int
	Fetched      int
	New          int
	Errors       []string
}

// ScoreResult reports the scoring stage.
type ScoreResult struct {
	Approved int
	Rejected int
	Errored  int
	Errors   []string
}

// SummarizeResult reports the summarization stage.
type SummarizeResult struct {
	Summarized      int
	Rejected        int
	PoliciesCreated int
	EventsAdded     int
	Errored         int
	Errors          []string
}

// SummaryOutcome is what a summarize strategy did with one approved article.
// Status is the terminal status the caller must record.
type SummaryOutcome struct {
	Status        entity.RawArticleStatus
	ArticleID     *uint
	PolicyID      *uint
	PolicyCreated bool
	EventAdded    bool
}

// IngestionStats is the store-wide snapshot served by the status endpoint.
type IngestionStats struct {
	Feeds       int64                             `json:"feeds"`
	RawArticles map[entity.RawArticleStatus]int64 `json:"rawArticles"`
	Policies    int64                             `json:"policies"`
	Articles    int64                             `json:"articles"`
	GeneratedAt time.Time                         `json:"generatedAt"`
}
