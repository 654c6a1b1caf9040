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

// UserHandler serves member management and the invitation lifecycle.
type UserHandler struct {
	users   *services.UserService
	invites *services.InviteService
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(users *services.UserService, invites *services.InviteService) *UserHandler {
	return &UserHandler{users: users, invites: invites}
}

type inviteUserRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=admin manager user"`
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin manager user"`
}

type acceptInvitationRequest struct {
	Token     string `json:"token" validate:"required"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required,max=128"`
	LastName  string `json:"last_name" validate:"required,max=128"`
}

// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(requestContext(c), currentOrgID(c))
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"users": users})
}

// POST /api/users/invite
func (h *UserHandler) Invite(c *gin.Context) {
	var req inviteUserRequest
	if !bindAndValidate(c, &req) {
		return
	}

	_, token, err := h.invites.Create(requestContext(c), currentOrgID(c), currentActor(c), req.Email, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInviteEmailInUse):
			response.Error(c, appErrors.NewBadRequest("User with this email already exists"))
		case errors.Is(err, services.ErrInviteAlreadyPending):
			response.Error(c, appErrors.NewBadRequest("Invitation already sent to this email"))
		case errors.Is(err, services.ErrInvalidRole):
			response.Error(c, appErrors.NewBadRequest("Invalid role"))
		default:
			response.Error(c, appErrors.ErrInternalServer)
		}
		return
	}

	response.JSON(c, http.StatusCreated, gin.H{
		"message":         "Invitation sent successfully",
		"invitationToken": token,
	})
}

// POST /api/users/accept-invitation (public)
func (h *UserHandler) AcceptInvitation(c *gin.Context) {
	var req acceptInvitationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	_, err := h.invites.Accept(requestContext(c), services.AcceptInviteInput{
		Token:     req.Token,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInviteNotFound):
			response.Error(c, appErrors.NewBadRequest("Invalid or expired invitation"))
		case errors.Is(err, services.ErrInviteEmailInUse):
			response.Error(c, appErrors.NewBadRequest("User with this email already exists"))
		default:
			response.Error(c, appErrors.ErrInternalServer)
		}
		return
	}

	response.Message(c, http.StatusCreated, "Account created successfully")
}

// PUT /api/users/:id/role
func (h *UserHandler) UpdateRole(c *gin.Context) {
	targetID := strings.TrimSpace(c.Param("id"))
	if targetID == "" {
		response.Error(c, appErrors.NewBadRequest("User ID is required"))
		return
	}

	var req updateRoleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	err := h.users.UpdateRole(requestContext(c), currentOrgID(c), currentActor(c), targetID, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRole):
			response.Error(c, appErrors.NewBadRequest("Invalid role"))
		case errors.Is(err, services.ErrUserNotFound):
			response.Error(c, appErrors.NewNotFound("User not found"))
		default:
			response.Error(c, appErrors.ErrInternalServer)
		}
		return
	}

	response.Message(c, http.StatusOK, "User role updated successfully")
}

// PUT /api/users/:id/deactivate
func (h *UserHandler) Deactivate(c *gin.Context) {
	targetID := strings.TrimSpace(c.Param("id"))
	if targetID == "" {
		response.Error(c, appErrors.NewBadRequest("User ID is required"))
		return
	}

	err := h.users.Deactivate(requestContext(c), currentOrgID(c), currentActor(c), targetID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfDeactivation):
			response.Error(c, appErrors.NewBadRequest("Cannot deactivate your own account"))
		case errors.Is(err, services.ErrUserNotFound):
			response.Error(c, appErrors.NewNotFound("User not found"))
		default:
			response.Error(c, appErrors.ErrInternalServer)
		}
		return
	}

	response.Message(c, http.StatusOK, "User deactivated successfully")
}

// GET /api/users/invitations
func (h *UserHandler) ListInvitations(c *gin.Context) {
	invites, err := h.invites.ListPending(requestContext(c), currentOrgID(c))
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"invitations": invites})
}

// DELETE /api/users/invitations/:id
func (h *UserHandler) CancelInvitation(c *gin.Context) {
	inviteID := strings.TrimSpace(c.Param("id"))
	if inviteID == "" {
		response.Error(c, appErrors.NewBadRequest("Invitation ID is required"))
		return
	}

	err := h.invites.Cancel(requestContext(c), currentOrgID(c), currentActor(c), inviteID)
	if err != nil {
		if errors.Is(err, services.ErrInviteNotFound) {
			response.Error(c, appErrors.NewNotFound("Invitation not found"))
			return
		}
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.Message(c, http.StatusOK, "Invitation cancelled successfully")
}
