package http

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"roundtable-ingestor/internal/ingestor/dto"
	"roundtable-ingestor/internal/ingestor/service"
	"roundtable-ingestor/pkg/common"
	"roundtable-ingestor/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const defaultRunsLimit = 20

// IngestHandler handles HTTP requests for the ingestion pipeline.
type IngestHandler struct {
	ingestionService service.IngestionService
	secret           string
	logger           *logger.Logger
}

// NewIngestHandler creates a new IngestHandler. secret guards the trigger endpoint.
func NewIngestHandler(ingestionService service.IngestionService, secret string, logger *logger.Logger) *IngestHandler {
	return &IngestHandler{ingestionService: ingestionService, secret: secret, logger: logger}
}

// RegisterRoutes registers the ingest routes to the Echo group.
func (h *IngestHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.Ingest, h.requireSecret())
	g.GET("", h.GetStatus)
	g.GET("/runs", h.GetRecentRuns)
}

func (h *IngestHandler) requireSecret() echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup:  "header:" + echo.HeaderAuthorization,
		AuthScheme: "Bearer",
		Validator: func(key string, c echo.Context) (bool, error) {
			return h.secret != "" && subtle.ConstantTimeCompare([]byte(key), []byte(h.secret)) == 1, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			h.logger.Warn("Rejected ingestion trigger", logger.ErrorField(err), logger.StringField("remote_ip", c.RealIP()))
			return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
		},
	})
}

// Ingest godoc
// @Summary Trigger an ingestion run
// @Description Runs every pipeline stage once and returns the run counters
// @Tags ingest
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} dto.IngestResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /ingest [post]
func (h *IngestHandler) Ingest(c echo.Context) error {
	result, err := h.ingestionService.Run(c.Request().Context(), common.TriggerHTTP)
	if err != nil {
		if errors.Is(err, service.ErrRunInProgress) {
			return c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "Ingestion already running", Message: err.Error()})
		}
		h.logger.Error("Ingestion failed", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Ingestion failed", Message: err.Error()})
	}

	return c.JSON(http.StatusOK, dto.IngestResponse{Success: true, Results: result})
}

// GetStatus godoc
// @Summary Get ingestion status
// @Description Counts of feeds, raw articles per status, policies and articles
// @Tags ingest
// @Produce  json
// @Success 200 {object} dto.StatusResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /ingest [get]
func (h *IngestHandler) GetStatus(c echo.Context) error {
	stats, err := h.ingestionService.Stats(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to get ingestion status", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get status", Message: err.Error()})
	}
	return c.JSON(http.StatusOK, dto.StatusResponse{Status: "ready", Stats: stats})
}

// GetRecentRuns godoc
// @Summary List recent ingestion runs
// @Description Audit rows of the most recent runs, newest first
// @Tags ingest
// @Produce  json
// @Param   limit  query    int false    "Maximum number of runs"
// @Success 200 {array} entity.IngestionRun
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /ingest/runs [get]
func (h *IngestHandler) GetRecentRuns(c echo.Context) error {
	limit, err := queryLimit(c, defaultRunsLimit)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid limit"})
	}

	runs, err := h.ingestionService.RecentRuns(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("Failed to get ingestion runs", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get runs"})
	}
	return c.JSON(http.StatusOK, runs)
}

func queryLimit(c echo.Context, fallback int) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return fallback, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	return limit, nil
}
