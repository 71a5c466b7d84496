package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"roundtable-ingestor/internal/entity"
	"roundtable-ingestor/internal/ingestor/dto"
	"roundtable-ingestor/internal/ingestor/service"
	"roundtable-ingestor/pkg/common"
	"roundtable-ingestor/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "s3cret"

type stubIngestionService struct {
	service.IngestionService
	runErr    error
	triggers  []string
	runsLimit int
}

func (s *stubIngestionService) Run(_ context.Context, trigger string) (*dto.RunResult, error) {
	s.triggers = append(s.triggers, trigger)
	if s.runErr != nil {
		return nil, s.runErr
	}
	result := dto.NewRunResult()
	result.ArticlesNew = 3
	return result, nil
}

func (s *stubIngestionService) Stats(context.Context) (*dto.IngestionStats, error) {
	return &dto.IngestionStats{
		Feeds:       6,
		RawArticles: map[entity.RawArticleStatus]int64{entity.RawArticleStatusPending: 2},
	}, nil
}

func (s *stubIngestionService) RecentRuns(_ context.Context, limit int) ([]entity.IngestionRun, error) {
	s.runsLimit = limit
	return []entity.IngestionRun{{ID: 1, Trigger: common.TriggerHTTP, Status: entity.RunStatusCompleted}}, nil
}

type stubPolicyService struct {
	limit int
	err   error
}

func (s *stubPolicyService) ListPolicyFeed(_ context.Context, limit int) ([]dto.PolicyFeedItem, error) {
	s.limit = limit
	if s.err != nil {
		return nil, s.err
	}
	return []dto.PolicyFeedItem{{ID: 1, Title: "SEPTA Fare Increase", Category: "Transit"}}, nil
}

func newTestServer(ingestion *stubIngestionService, policies *stubPolicyService) *echo.Echo {
	e := echo.New()
	api := e.Group("/api/v1")
	NewIngestHandler(ingestion, testSecret, logger.NewNop()).RegisterRoutes(api.Group("/ingest"))
	NewPolicyHandler(policies, logger.NewNop()).RegisterRoutes(api.Group("/policies"))
	return e
}

func do(e *echo.Echo, method, target, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestIngestHandler_Auth(t *testing.T) {
	tests := []struct {
		name string
		auth string
	}{
		{name: "missing header", auth: ""},
		{name: "wrong secret", auth: "Bearer nope"},
		{name: "wrong scheme", auth: "Basic " + testSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ingestion := &stubIngestionService{}
			rec := do(newTestServer(ingestion, &stubPolicyService{}), http.MethodPost, "/api/v1/ingest", tt.auth)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
			assert.Empty(t, ingestion.triggers)
		})
	}
}

func TestIngestHandler_Ingest(t *testing.T) {
	ingestion := &stubIngestionService{}
	rec := do(newTestServer(ingestion, &stubPolicyService{}), http.MethodPost, "/api/v1/ingest", "Bearer "+testSecret)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool           `json:"success"`
		Results map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.EqualValues(t, 3, body.Results["articlesNew"])
	assert.Equal(t, []any{}, body.Results["errors"])
	assert.Equal(t, []string{common.TriggerHTTP}, ingestion.triggers)
}

func TestIngestHandler_IngestErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{name: "run in progress", err: service.ErrRunInProgress, wantCode: http.StatusConflict, wantErr: "Ingestion already running"},
		{name: "fatal", err: errors.New("database is down"), wantCode: http.StatusInternalServerError, wantErr: "Ingestion failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ingestion := &stubIngestionService{runErr: tt.err}
			rec := do(newTestServer(ingestion, &stubPolicyService{}), http.MethodPost, "/api/v1/ingest", "Bearer "+testSecret)

			assert.Equal(t, tt.wantCode, rec.Code)
			var body dto.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantErr, body.Error)
			assert.Equal(t, tt.err.Error(), body.Message)
		})
	}
}

func TestIngestHandler_GetStatus(t *testing.T) {
	rec := do(newTestServer(&stubIngestionService{}, &stubPolicyService{}), http.MethodGet, "/api/v1/ingest", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
	stats := body["stats"].(map[string]any)
	assert.EqualValues(t, 6, stats["feeds"])
	assert.EqualValues(t, 2, stats["rawArticles"].(map[string]any)["PENDING"])
}

func TestIngestHandler_GetRecentRuns(t *testing.T) {
	ingestion := &stubIngestionService{}
	e := newTestServer(ingestion, &stubPolicyService{})

	rec := do(e, http.MethodGet, "/api/v1/ingest/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultRunsLimit, ingestion.runsLimit)

	rec = do(e, http.MethodGet, "/api/v1/ingest/runs?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, ingestion.runsLimit)

	rec = do(e, http.MethodGet, "/api/v1/ingest/runs?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPolicyHandler_GetPolicyFeed(t *testing.T) {
	policies := &stubPolicyService{}
	e := newTestServer(&stubIngestionService{}, policies)

	rec := do(e, http.MethodGet, "/api/v1/policies?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, policies.limit)

	var items []dto.PolicyFeedItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "SEPTA Fare Increase", items[0].Title)

	rec = do(e, http.MethodGet, "/api/v1/policies?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	policies.err = errors.New("boom")
	rec = do(e, http.MethodGet, "/api/v1/policies", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, service.DefaultPolicyFeedLimit, policies.limit)
}
