package http

import (
	"net/http"

	"roundtable-ingestor/internal/ingestor/dto"
	"roundtable-ingestor/internal/ingestor/service"
	"roundtable-ingestor/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PolicyHandler serves the policy feed.
type PolicyHandler struct {
	policyService service.PolicyService
	logger        *logger.Logger
}

// NewPolicyHandler creates a new PolicyHandler.
func NewPolicyHandler(policyService service.PolicyService, logger *logger.Logger) *PolicyHandler {
	return &PolicyHandler{policyService: policyService, logger: logger}
}

// RegisterRoutes registers the policy routes to the Echo group.
func (h *PolicyHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetPolicyFeed)
}

// GetPolicyFeed godoc
// @Summary Get the policy feed
// @Description Active policies, most recently updated first, flattened with their latest event
// @Tags policies
// @Produce  json
// @Param   limit  query    int false    "Maximum number of policies (default 20, max 100)"
// @Success 200 {array} dto.PolicyFeedItem
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /policies [get]
func (h *PolicyHandler) GetPolicyFeed(c echo.Context) error {
	limit, err := queryLimit(c, service.DefaultPolicyFeedLimit)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid limit"})
	}

	items, err := h.policyService.ListPolicyFeed(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("Failed to get policy feed", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to fetch policies"})
	}
	return c.JSON(http.StatusOK, items)
}
