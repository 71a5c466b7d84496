package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"roundtable-ingestor/internal/ingestor/dto"
	"roundtable-ingestor/pkg/common"
	"roundtable-ingestor/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingIngestionService struct {
	IngestionService
	mu       sync.Mutex
	triggers []string
	err      error
}

func (s *countingIngestionService) Run(_ context.Context, trigger string) (*dto.RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggers = append(s.triggers, trigger)
	if s.err != nil {
		return nil, s.err
	}
	return dto.NewRunResult(), nil
}

func (s *countingIngestionService) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.triggers...)
}

func TestSchedulerService_RunOnce(t *testing.T) {
	ingestion := &countingIngestionService{}
	s := NewSchedulerService(ingestion, logger.NewNop(), "@every 1m")

	s.RunOnce(context.Background())
	assert.Equal(t, []string{common.TriggerWatch}, ingestion.Calls())

	ingestion.err = ErrRunInProgress
	s.RunOnce(context.Background())
	ingestion.err = errors.New("boom")
	s.RunOnce(context.Background())
	assert.Len(t, ingestion.Calls(), 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.RunOnce(ctx)
	assert.Len(t, ingestion.Calls(), 3)
}

func TestSchedulerService_StartRejectsBadSchedule(t *testing.T) {
	s := NewSchedulerService(&countingIngestionService{}, logger.NewNop(), "not a schedule")
	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a schedule")
}

func TestSchedulerService_StartStopsOnCancel(t *testing.T) {
	ingestion := &countingIngestionService{}
	s := NewSchedulerService(ingestion, logger.NewNop(), "@every 1s")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return len(ingestion.Calls()) > 0 }, 5*time.Second, 50*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
