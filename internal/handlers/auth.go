package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mailforge/mailforge/internal/auth"
	"github.com/mailforge/mailforge/internal/middleware"
	"github.com/mailforge/mailforge/internal/models"
	"github.com/mailforge/mailforge/internal/permissions"
	"github.com/mailforge/mailforge/internal/services"
	appErrors "github.com/mailforge/mailforge/pkg/errors"
	"github.com/mailforge/mailforge/pkg/response"
)

// AuthHandler serves login and identity endpoints.
type AuthHandler struct {
	users *services.UserService
	jwt   *auth.JWTService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users *services.UserService, jwt *auth.JWTService) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userDTO struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	Email          string     `json:"email"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Role           string     `json:"role"`
	Status         string     `json:"status"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
}

func toUserDTO(user *models.User) userDTO {
	return userDTO{
		ID:             user.ID,
		OrganizationID: user.OrganizationID,
		Email:          user.Email,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Role:           user.Role,
		Status:         user.Status,
		LastLoginAt:    user.LastLoginAt,
	}
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Authenticate(requestContext(c), req.Email, req.Password, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrUserInactive):
			response.Error(c, appErrors.ErrInvalidCredentials)
		default:
			response.Error(c, appErrors.ErrInternalServer)
		}
		return
	}

	token, err := h.jwt.GenerateAccessToken(auth.AccessTokenInput{
		UserID:         user.ID,
		OrganizationID: user.OrganizationID,
		Role:           user.Role,
	})
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"token": token,
		"user":  toUserDTO(user),
	})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	orgID := currentOrgID(c)
	if userID == "" || orgID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	user, err := h.users.GetByID(requestContext(c), orgID, userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"user":        toUserDTO(user),
		"permissions": permissions.ForRole(user.Role),
	})
}
