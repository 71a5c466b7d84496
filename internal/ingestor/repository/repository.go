package repository

import (
	"context"

	"roundtable-ingestor/internal/ingestor/dto"
)

// AIRepository turns one article into a structured policy summary using an
// external language model.
type AIRepository interface {
	SummarizePolicy(ctx context.Context, input dto.SummaryInput) (*dto.PolicySummary, error)
}
