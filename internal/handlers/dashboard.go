package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mailforge/mailforge/internal/services"
	appErrors "github.com/mailforge/mailforge/pkg/errors"
	"github.com/mailforge/mailforge/pkg/response"
)

// DashboardHandler serves the analytics overview.
type DashboardHandler struct {
	dashboard *services.DashboardService
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(dashboard *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// GET /api/dashboard
func (h *DashboardHandler) Overview(c *gin.Context) {
	overview, err := h.dashboard.Overview(requestContext(c), currentOrgID(c))
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.JSON(c, http.StatusOK, overview)
}
