package strategy

import (
	"context"
	"errors"
	"time"

	"roundtable-ingestor/internal/entity"
	"roundtable-ingestor/internal/ingestor/dto"
)

// ErrItemFailed marks a failure confined to one article. Callers record it on
// the article and move on; any other error from a strategy is fatal to the run.
var ErrItemFailed = errors.New("article summarization failed")

// SummarizeStrategy defines the interface for the pluggable summarizers.
type SummarizeStrategy interface {
	// Summarize folds one APPROVED article into the output store and returns
	// the terminal status the article must take.
	Summarize(ctx context.Context, article *entity.RawArticle) (*dto.SummaryOutcome, error)
	GetType() entity.SummarizerType
	// CallDelay is the pause the caller keeps between two Summarize calls.
	CallDelay() time.Duration
}
