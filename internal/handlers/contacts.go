package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mailforge/mailforge/internal/services"
	appErrors "github.com/mailforge/mailforge/pkg/errors"
	"github.com/mailforge/mailforge/pkg/response"
)

// ContactHandler serves audience management endpoints.
type ContactHandler struct {
	contacts *services.ContactService
}

// NewContactHandler constructs a ContactHandler.
func NewContactHandler(contacts *services.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

type createContactRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"omitempty,max=128"`
	LastName  string `json:"last_name" validate:"omitempty,max=128"`
	Status    string `json:"status" validate:"omitempty,oneof=subscribed unsubscribed"`
}

type updateContactRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=128"`
	LastName  *string `json:"last_name" validate:"omitempty,max=128"`
	Status    *string `json:"status" validate:"omitempty,oneof=subscribed unsubscribed"`
}

// GET /api/contacts
func (h *ContactHandler) List(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	limit := parseIntQuery(c, "limit", 50)
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	contacts, total, err := h.contacts.List(requestContext(c), currentOrgID(c), services.ContactListOptions{
		Page:   page,
		Limit:  limit,
		Search: c.Query("search"),
	})
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"contacts":   contacts,
		"pagination": response.NewPagination(page, limit, total),
	})
}

// POST /api/contacts
func (h *ContactHandler) Create(c *gin.Context) {
	var req createContactRequest
	if !bindAndValidate(c, &req) {
		return
	}

	contact, err := h.contacts.Create(requestContext(c), currentOrgID(c), currentActor(c),
		services.CreateContactInput{
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Status:    req.Status,
		})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrContactLimitReached):
			response.Error(c, appErrors.NewBadRequest("Contact limit reached for your plan"))
		case errors.Is(err, services.ErrContactEmailTaken):
			response.Error(c, appErrors.NewBadRequest("Contact with this email already exists"))
		default:
			response.Error(c, appErrors.ErrInternalServer)
		}
		return
	}

	response.JSON(c, http.StatusCreated, gin.H{"contact": contact})
}

// PUT /api/contacts/:id
func (h *ContactHandler) Update(c *gin.Context) {
	contactID := strings.TrimSpace(c.Param("id"))
	if contactID == "" {
		response.Error(c, appErrors.NewBadRequest("Contact ID is required"))
		return
	}

	var req updateContactRequest
	if !bindAndValidate(c, &req) {
		return
	}

	contact, err := h.contacts.Update(requestContext(c), currentOrgID(c), currentActor(c), contactID,
		services.UpdateContactInput{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Status:    req.Status,
		})
	if err != nil {
		if errors.Is(err, services.ErrContactNotFound) {
			response.Error(c, appErrors.NewNotFound("Contact not found"))
			return
		}
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"contact": contact})
}

// DELETE /api/contacts/:id
func (h *ContactHandler) Delete(c *gin.Context) {
	contactID := strings.TrimSpace(c.Param("id"))
	if contactID == "" {
		response.Error(c, appErrors.NewBadRequest("Contact ID is required"))
		return
	}

	err := h.contacts.Delete(requestContext(c), currentOrgID(c), currentActor(c), contactID)
	if err != nil {
		if errors.Is(err, services.ErrContactNotFound) {
			response.Error(c, appErrors.NewNotFound("Contact not found"))
			return
		}
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.Message(c, http.StatusOK, "Contact deleted successfully")
}
