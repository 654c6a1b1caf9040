package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mailforge/mailforge/internal/models"
	"github.com/mailforge/mailforge/pkg/crypto"
	"github.com/mailforge/mailforge/pkg/metrics"
)

// UserSummary is an org-scoped user listing row with its campaign count.
type UserSummary struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Role          string     `json:"role"`
	Status        string     `json:"status"`
	LastLoginAt   *time.Time `json:"last_login_at"`
	CreatedAt     time.Time  `json:"created_at"`
	CampaignCount int64      `json:"campaign_count"`
}

// UserOption customises UserService behaviour.
type UserOption func(*UserService)

// WithUserClock injects a custom clock primarily for testing.
func WithUserClock(clock func() time.Time) UserOption {
	return func(s *UserService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// UserService manages member accounts within an organization.
type UserService struct {
	db    *gorm.DB
	audit *AuditService
	now   func() time.Time
}

// NewUserService constructs a UserService with the provided dependencies.
func NewUserService(db *gorm.DB, audit *AuditService, opts ...UserOption) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	if audit == nil {
		return nil, errors.New("user service: audit service is required")
	}

	service := &UserService{db: db, audit: audit, now: time.Now}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// List returns all users in the organization with their campaign counts,
// newest first.
func (s *UserService) List(ctx context.Context, organizationID string) ([]UserSummary, error) {
	ctx = ensureContext(ctx)

	var summaries []UserSummary
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Select(`users.id, users.email, users.first_name, users.last_name,
			users.role, users.status, users.last_login_at, users.created_at,
			COUNT(campaigns.id) AS campaign_count`).
		Joins("LEFT JOIN campaigns ON campaigns.created_by = users.id").
		Where("users.organization_id = ?", organizationID).
		Group("users.id").
		Order("users.created_at DESC").
		Scan(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("user service: list users: %w", err)
	}

	return summaries, nil
}

// Authenticate verifies credentials for login. Unknown emails, wrong
// passwords and inactive accounts are indistinguishable to the caller. A
// successful login stamps last_login_at and is audited.
func (s *UserService) Authenticate(ctx context.Context, email, password, ipAddress string) (*models.User, error) {
	ctx = ensureContext(ctx)

	email = normaliseEmail(email)
	if email == "" || password == "" {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, ErrUserNotFound
	}

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: find user: %w", err)
	}

	if !crypto.VerifyPassword(user.PasswordHash, password) {
		s.recordFailedLogin(ctx, &user, ipAddress, "invalid password")
		return nil, ErrUserNotFound
	}
	if !user.IsActive() {
		s.recordFailedLogin(ctx, &user, ipAddress, "account inactive")
		return nil, ErrUserInactive
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("last_login_at", now).Error; err != nil {
			return fmt.Errorf("user service: stamp login: %w", err)
		}
		return s.audit.Record(tx, AuditEntry{
			OrganizationID: user.OrganizationID,
			UserID:         &user.ID,
			Action:         "user.login",
			ResourceType:   "user",
			ResourceID:     user.ID,
			IPAddress:      ipAddress,
		})
	})
	if err != nil {
		return nil, err
	}

	user.LastLoginAt = &now
	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return &user, nil
}

// recordFailedLogin audits a rejected attempt against a known account.
// Best effort: a failed audit write must not change the login outcome.
func (s *UserService) recordFailedLogin(ctx context.Context, user *models.User, ipAddress, reason string) {
	metrics.AuthAttempts.WithLabelValues("failure").Inc()
	_ = s.audit.Log(ctx, AuditEntry{
		OrganizationID: user.OrganizationID,
		UserID:         &user.ID,
		Action:         "user.login_failed",
		ResourceType:   "user",
		ResourceID:     user.ID,
		NewValues:      map[string]any{"reason": reason},
		IPAddress:      ipAddress,
	})
}

// GetByID loads a user within the caller's organization.
func (s *UserService) GetByID(ctx context.Context, organizationID, userID string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).
		First(&user, "id = ? AND organization_id = ?", userID, organizationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// UpdateRole changes a member's role. Targets outside the caller's
// organization are reported as not found.
func (s *UserService) UpdateRole(ctx context.Context, organizationID string, actor Actor, targetID, role string) error {
	ctx = ensureContext(ctx)

	role = strings.TrimSpace(role)
	if !models.ValidRole(role) {
		return ErrInvalidRole
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.First(&user, "id = ? AND organization_id = ?", targetID, organizationID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("user service: get user: %w", err)
		}

		oldRole := user.Role
		if err := tx.Model(&user).Update("role", role).Error; err != nil {
			return fmt.Errorf("user service: update role: %w", err)
		}

		return s.audit.Record(tx, AuditEntry{
			OrganizationID: organizationID,
			UserID:         actor.userIDRef(),
			Action:         "user.role_updated",
			ResourceType:   "user",
			ResourceID:     user.ID,
			OldValues:      map[string]any{"role": oldRole},
			NewValues:      map[string]any{"role": role},
			IPAddress:      actor.IPAddress,
		})
	})
}

// Deactivate marks a member inactive. Users cannot deactivate themselves,
// and rows are never deleted.
func (s *UserService) Deactivate(ctx context.Context, organizationID string, actor Actor, targetID string) error {
	ctx = ensureContext(ctx)

	if targetID == actor.UserID {
		return ErrSelfDeactivation
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.First(&user, "id = ? AND organization_id = ?", targetID, organizationID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("user service: get user: %w", err)
		}

		oldStatus := user.Status
		if err := tx.Model(&user).Update("status", models.UserStatusInactive).Error; err != nil {
			return fmt.Errorf("user service: deactivate user: %w", err)
		}

		return s.audit.Record(tx, AuditEntry{
			OrganizationID: organizationID,
			UserID:         actor.userIDRef(),
			Action:         "user.deactivated",
			ResourceType:   "user",
			ResourceID:     user.ID,
			OldValues:      map[string]any{"status": oldStatus},
			NewValues:      map[string]any{"status": models.UserStatusInactive},
			IPAddress:      actor.IPAddress,
		})
	})
}
