package main

import (
	"context"
	"fmt"
	"time"

	"roundtable-ingestor/internal/ingestor/config"
	"roundtable-ingestor/internal/ingestor/repository"
	"roundtable-ingestor/internal/ingestor/service"
	"roundtable-ingestor/internal/ingestor/strategy"
	"roundtable-ingestor/pkg/common"
	"roundtable-ingestor/pkg/logger"
	"roundtable-ingestor/pkg/postgres"
	"roundtable-ingestor/pkg/redis"
	"roundtable-ingestor/pkg/telegram"

	"google.golang.org/genai"
)

// app holds the wired services shared by every command.
type app struct {
	cfg       *config.Config
	logger    *logger.Logger
	ingestion service.IngestionService
	policies  service.PolicyService
	closers   []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: appLogger}

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		a.closers = append(a.closers, func() { _ = sqlDB.Close() })
	}

	runLock, err := a.newRunLock()
	if err != nil {
		a.Close()
		return nil, err
	}

	// Initialize repositories
	feedSourceRepo := repository.NewFeedSourceRepository(db.DB)
	rawArticleRepo := repository.NewRawArticleRepository(db.DB)
	policyRepo := repository.NewPolicyRepository(db.DB)
	articleRepo := repository.NewArticleRepository(db.DB)
	runRepo := repository.NewIngestionRunRepository(db.DB)
	feedRepo := repository.NewFeedRepository(appLogger, cfg.Ingestion.FeedTimeout, cfg.Ingestion.MaxItemsPerFeed)
	contentRepo := a.newContentRepository()

	summarizer, err := a.newSummarizer(ctx, policyRepo, articleRepo)
	if err != nil {
		a.Close()
		return nil, err
	}

	var notifier telegram.Notifier
	if cfg.Telegram.Enabled {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize telegram notifier: %w", err)
		}
	}

	a.ingestion = service.NewIngestionService(
		cfg,
		appLogger,
		feedSourceRepo,
		rawArticleRepo,
		policyRepo,
		articleRepo,
		runRepo,
		feedRepo,
		contentRepo,
		runLock,
		summarizer,
		notifier,
	)
	a.policies = service.NewPolicyService(policyRepo)
	a.closers = append(a.closers, a.ingestion.Wait)

	appLogger.Info("Ingestion pipeline initialized",
		logger.StringField("summarizer", string(summarizer.GetType())),
		logger.StringField("provider", cfg.Summarizer.Provider),
		logger.StringField("extractor", cfg.Ingestion.Extractor),
		logger.IntField("feeds", len(cfg.Ingestion.Feeds)),
	)
	return a, nil
}

func (a *app) newRunLock() (repository.RunLockRepository, error) {
	if !a.cfg.RunLock.Enabled {
		return repository.NewNoopRunLockRepository(), nil
	}

	redisCfg := redis.Config{
		Host:     a.cfg.Redis.Host,
		Port:     a.cfg.Redis.Port,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
		PoolSize: a.cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}
	a.closers = append(a.closers, func() { _ = redisClient.Close() })

	return repository.NewRedisRunLockRepository(redisClient.Client, common.RedisKeyIngestionRunLock, a.cfg.RunLock.TTL), nil
}

func (a *app) newContentRepository() repository.ContentRepository {
	in := a.cfg.Ingestion
	opts := repository.ContentOptions{
		Timeout:      in.ContentTimeout,
		MinLength:    in.MinExtractedLength,
		MaxLength:    in.MaxContentLength,
		CacheTTL:     in.ContentCacheTTL,
		CacheCleanup: 2 * in.ContentCacheTTL,
	}
	if in.Extractor == config.ExtractorReadability {
		return repository.NewReadabilityContentRepository(a.logger, opts)
	}
	return repository.NewSelectorContentRepository(a.logger, opts)
}

func (a *app) newSummarizer(ctx context.Context, policyRepo repository.PolicyRepository, articleRepo repository.ArticleRepository) (strategy.SummarizeStrategy, error) {
	cfg := a.cfg
	var aiRepo repository.AIRepository

	switch cfg.Summarizer.Provider {
	case config.ProviderExtractive:
		return strategy.NewExtractiveSummaryStrategy(articleRepo, a.logger, cfg.Ingestion.ExtractiveMaxSentences, time.Now), nil
	case config.ProviderGemini:
		genAiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.Gemini.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize gemini client: %w", err)
		}
		aiRepo, err = repository.NewGeminiAIRepository(cfg, a.logger, genAiClient)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize gemini repository: %w", err)
		}
	case config.ProviderOllama:
		llm, err := repository.NewOllamaModel(cfg.Ollama.ServerURL, cfg.Ollama.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ollama model: %w", err)
		}
		aiRepo = repository.NewOllamaAIRepository(llm, a.logger, cfg.Ollama.Timeout)
	default:
		return nil, fmt.Errorf("invalid summarizer provider %q", cfg.Summarizer.Provider)
	}

	return strategy.NewPolicySummaryStrategy(aiRepo, policyRepo, a.logger, cfg.Ingestion.SummarizeDelay, time.Now), nil
}
