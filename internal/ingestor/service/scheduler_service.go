package service

import (
	"context"
	"errors"
	"fmt"

	"roundtable-ingestor/pkg/common"
	"roundtable-ingestor/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SchedulerService runs the ingestion pipeline on a cron schedule.
type SchedulerService interface {
	// Start blocks until ctx is cancelled. A run still in flight is awaited before returning.
	Start(ctx context.Context) error
	// RunOnce executes a single scheduled run.
	RunOnce(ctx context.Context)
}

// NewSchedulerService creates a new scheduler service for the given cron spec.
func NewSchedulerService(ingestionService IngestionService, log *logger.Logger, schedule string) SchedulerService {
	return &schedulerService{
		ingestionService: ingestionService,
		logger:           log,
		schedule:         schedule,
	}
}

type schedulerService struct {
	ingestionService IngestionService
	logger           *logger.Logger
	schedule         string
}

func (s *schedulerService) Start(ctx context.Context) error {
	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{s.logger}),
		cron.SkipIfStillRunning(cronLogger{s.logger}),
	))

	if _, err := c.AddFunc(s.schedule, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to register schedule %q: %w", s.schedule, err)
	}

	s.logger.Info("Scheduler service started", logger.StringField("schedule", s.schedule))
	c.Start()

	<-ctx.Done()
	s.logger.Info("Scheduler service stopping")
	<-c.Stop().Done()
	return nil
}

func (s *schedulerService) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.ingestionService.Run(ctx, common.TriggerWatch); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			s.logger.Warn("Skipping scheduled run, another run is in progress")
			return
		}
		s.logger.Error("Scheduled ingestion run failed", logger.ErrorField(err))
	}
}

// cronLogger adapts the zap logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Infow(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append([]interface{}{zap.Error(err)}, keysAndValues...)...)
}
