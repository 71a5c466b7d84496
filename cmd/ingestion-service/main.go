package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roundtable-ingestor/internal/ingestor/config"
	delivery "roundtable-ingestor/internal/ingestor/delivery/http"
	_ "roundtable-ingestor/internal/ingestor/docs"
	"roundtable-ingestor/internal/ingestor/service"
	"roundtable-ingestor/pkg/common"
	"roundtable-ingestor/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	swagger "github.com/swaggo/echo-swagger"
)

var (
	configPath string
	watch      bool
	requeueID  uint
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs the ingestion pipeline once, or on a schedule with --watch",
	RunE:  runIngest,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the HTTP ingestion trigger and read API",
	RunE:  runServe,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upserts the configured feed sources",
	RunE:  runSeed,
}

var requeueCmd = &cobra.Command{
	Use:   "requeue",
	Short: "Moves an ERROR raw article back to PENDING",
	RunE:  runRequeue,
}

// bootstrap loads configuration, builds the logger and wires the app.
func bootstrap(ctx context.Context, validate func(*config.Config) error) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("malformed configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a, err := newApp(ctx, cfg, appLogger)
	if err != nil {
		_ = appLogger.Sync()
		return nil, err
	}
	a.closers = append([]func(){func() { _ = appLogger.Sync() }}, a.closers...)
	return a, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, (*config.Config).Validate)
	if err != nil {
		return err
	}
	defer a.Close()

	if !watch {
		a.logger.Info("Starting ingestion run", logger.Field("name", a.cfg.App.Name))
		result, err := a.ingestion.Run(ctx, common.TriggerCLI)
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
		return printJSON(cmd, result)
	}

	scheduler := service.NewSchedulerService(a.ingestion, a.logger, a.cfg.Ingestion.WatchSchedule)
	a.logger.Info("Running in watch mode", logger.StringField("schedule", a.cfg.Ingestion.WatchSchedule))
	scheduler.RunOnce(ctx)
	return scheduler.Start(ctx)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, (*config.Config).ValidateServe)
	if err != nil {
		return err
	}
	defer a.Close()

	a.logger.Info("Starting Ingestion Service", logger.Field("name", a.cfg.App.Name))

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// Initialize handlers and routes
	apiV1 := e.Group("/api/v1")
	ingestHandler := delivery.NewIngestHandler(a.ingestion, a.cfg.Auth.IngestSecret, a.logger)
	ingestHandler.RegisterRoutes(apiV1.Group("/ingest"))

	policyHandler := delivery.NewPolicyHandler(a.policies, a.logger)
	policyHandler.RegisterRoutes(apiV1.Group("/policies"))

	e.GET("/swagger/*", swagger.WrapHandler)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%d", a.cfg.API.Host, a.cfg.API.Port)
		a.logger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	a.logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	a.logger.Info("Server exiting")
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, (*config.Config).Validate)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.ingestion.InitializeFeeds(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d feed sources.\n", n)
	return nil
}

func runRequeue(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, (*config.Config).Validate)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.ingestion.Requeue(ctx, requeueID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Raw article %d requeued.\n", requeueID)
	return nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// @title Roundtable Ingestion API
// @version 1.0
// @description Triggers and inspects the Pennsylvania policy-news ingestion pipeline.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	rootCmd := &cobra.Command{Use: "ingestion-service", SilenceUsage: true}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-ingestor.yaml", "Path to the configuration file")

	runCmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep running on the configured schedule")
	requeueCmd.Flags().UintVar(&requeueID, "id", 0, "ID of the raw article to requeue")
	if err := requeueCmd.MarkFlagRequired("id"); err != nil {
		log.Fatalf("Failed to configure requeue command: %v", err)
	}

	rootCmd.AddCommand(runCmd, serveCmd, seedCmd, requeueCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing ingestion-service CLI: %s\n", err)
		os.Exit(1)
	}
}
