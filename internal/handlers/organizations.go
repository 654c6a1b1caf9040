package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mailforge/mailforge/internal/services"
	appErrors "github.com/mailforge/mailforge/pkg/errors"
	"github.com/mailforge/mailforge/pkg/response"
)

// OrganizationHandler serves tenant-level endpoints: profile, settings,
// usage and the audit trail.
type OrganizationHandler struct {
	orgs  *services.OrganizationService
	audit *services.AuditService
}

// NewOrganizationHandler constructs an OrganizationHandler.
func NewOrganizationHandler(orgs *services.OrganizationService, audit *services.AuditService) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs, audit: audit}
}

type updateOrganizationRequest struct {
	Name string `json:"name" validate:"required,max=255"`
	Plan string `json:"plan" validate:"omitempty,oneof=free starter pro"`
}

type updateSettingsRequest struct {
	Settings map[string]string `json:"settings" validate:"required,min=1"`
}

// GET /api/organizations
func (h *OrganizationHandler) Get(c *gin.Context) {
	overview, err := h.orgs.Get(requestContext(c), currentOrgID(c))
	if err != nil {
		if errors.Is(err, services.ErrOrganizationNotFound) {
			response.Error(c, appErrors.NewNotFound("Organization not found"))
			return
		}
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.JSON(c, http.StatusOK, overview)
}

// PUT /api/organizations
func (h *OrganizationHandler) Update(c *gin.Context) {
	var req updateOrganizationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	_, err := h.orgs.Update(requestContext(c), currentOrgID(c), currentActor(c),
		services.UpdateOrganizationInput{Name: req.Name, Plan: req.Plan})
	if err != nil {
		if errors.Is(err, services.ErrOrganizationNotFound) {
			response.Error(c, appErrors.NewNotFound("Organization not found"))
			return
		}
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.Message(c, http.StatusOK, "Organization updated successfully")
}

// GET /api/organizations/settings
func (h *OrganizationHandler) Settings(c *gin.Context) {
	settings, err := h.orgs.Settings(requestContext(c), currentOrgID(c))
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"settings": settings})
}

// PUT /api/organizations/settings
func (h *OrganizationHandler) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	err := h.orgs.UpdateSettings(requestContext(c), currentOrgID(c), currentActor(c), req.Settings)
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.Message(c, http.StatusOK, "Settings updated successfully")
}

// GET /api/organizations/usage
func (h *OrganizationHandler) Usage(c *gin.Context) {
	usage, err := h.orgs.Usage(requestContext(c), currentOrgID(c))
	if err != nil {
		if errors.Is(err, services.ErrOrganizationNotFound) {
			response.Error(c, appErrors.NewNotFound("Organization not found"))
			return
		}
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.JSON(c, http.StatusOK, usage)
}

// GET /api/organizations/audit-logs
func (h *OrganizationHandler) AuditLogs(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	limit := parseIntQuery(c, "limit", 50)
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	logs, total, err := h.audit.List(requestContext(c), currentOrgID(c),
		services.AuditListOptions{Page: page, Limit: limit})
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"logs":       logs,
		"pagination": response.NewPagination(page, limit, total),
	})
}
