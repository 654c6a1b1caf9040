package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mailforge/mailforge/internal/models"
	"github.com/mailforge/mailforge/pkg/crypto"
	"github.com/mailforge/mailforge/pkg/logger"
	"github.com/mailforge/mailforge/pkg/mail"
	"github.com/mailforge/mailforge/pkg/metrics"
)

const (
	defaultInviteExpiry     = 7 * 24 * time.Hour
	defaultInviteTokenBytes = 32
)

// InviteOption customises InviteService behaviour.
type InviteOption func(*InviteService)

// WithInviteBaseURL configures the frontend URL used to build acceptance links.
func WithInviteBaseURL(url string) InviteOption {
	return func(s *InviteService) {
		s.baseURL = strings.TrimRight(url, "/")
	}
}

// WithInviteExpiry overrides the invitation lifetime.
func WithInviteExpiry(d time.Duration) InviteOption {
	return func(s *InviteService) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithInviteClock injects a custom clock primarily for testing.
func WithInviteClock(clock func() time.Time) InviteOption {
	return func(s *InviteService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// AcceptInviteInput carries the fields required to convert an invitation
// into an account.
type AcceptInviteInput struct {
	Token     string
	Password  string
	FirstName string
	LastName  string
	IPAddress string
}

// InviteService manages the invitation lifecycle: issue, list, cancel,
// accept. Only a sha256 hash of the token is ever stored.
type InviteService struct {
	db         *gorm.DB
	audit      *AuditService
	mailer     mail.Mailer
	baseURL    string
	expiry     time.Duration
	bcryptCost int
	now        func() time.Time
}

// NewInviteService constructs an InviteService with the provided dependencies.
func NewInviteService(db *gorm.DB, audit *AuditService, mailer mail.Mailer, bcryptCost int, opts ...InviteOption) (*InviteService, error) {
	if db == nil {
		return nil, errors.New("invite service: db is required")
	}
	if audit == nil {
		return nil, errors.New("invite service: audit service is required")
	}
	if bcryptCost <= 0 {
		bcryptCost = crypto.DefaultBcryptCost
	}

	service := &InviteService{
		db:         db,
		audit:      audit,
		mailer:     mailer,
		expiry:     defaultInviteExpiry,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Create issues an invitation for the email within the organization and
// returns the raw token alongside the stored invite. Emails that already
// belong to a user anywhere, or that have an unexpired pending invite in
// this organization, are rejected.
func (s *InviteService) Create(ctx context.Context, organizationID string, actor Actor, email, role string) (*models.UserInvite, string, error) {
	ctx = ensureContext(ctx)

	email = normaliseEmail(email)
	if email == "" {
		return nil, "", errors.New("invite service: email is required")
	}
	role = strings.TrimSpace(role)
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		return nil, "", ErrInvalidRole
	}

	rawToken, err := crypto.GenerateToken(defaultInviteTokenBytes)
	if err != nil {
		return nil, "", fmt.Errorf("invite service: generate token: %w", err)
	}

	now := s.now()
	invite := models.UserInvite{
		OrganizationID: organizationID,
		Email:          email,
		Role:           role,
		TokenHash:      tokenHash(rawToken),
		InvitedBy:      strings.TrimSpace(actor.UserID),
		ExpiresAt:      now.Add(s.expiry),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var userCount int64
		if err := tx.Model(&models.User{}).
			Where("email = ?", email).
			Count(&userCount).Error; err != nil {
			return fmt.Errorf("invite service: check users: %w", err)
		}
		if userCount > 0 {
			return ErrInviteEmailInUse
		}

		var pendingCount int64
		if err := tx.Model(&models.UserInvite{}).
			Where("organization_id = ? AND email = ? AND accepted_at IS NULL AND expires_at > ?",
				organizationID, email, now).
			Count(&pendingCount).Error; err != nil {
			return fmt.Errorf("invite service: check pending invites: %w", err)
		}
		if pendingCount > 0 {
			return ErrInviteAlreadyPending
		}

		if err := tx.Create(&invite).Error; err != nil {
			return fmt.Errorf("invite service: create invite: %w", err)
		}

		return s.audit.Record(tx, AuditEntry{
			OrganizationID: organizationID,
			UserID:         actor.userIDRef(),
			Action:         "user.invited",
			ResourceType:   "user_invite",
			ResourceID:     invite.ID,
			NewValues:      map[string]any{"email": email, "role": role},
			IPAddress:      actor.IPAddress,
		})
	})
	if err != nil {
		return nil, "", err
	}

	metrics.InvitationsIssued.Inc()
	s.deliver(ctx, email, rawToken)

	return &invite, rawToken, nil
}

// Accept consumes an invitation and creates the member account. The lookup,
// the email re-check, the user insert and the accepted_at stamp all commit
// in one transaction, so a token can only ever convert once.
func (s *InviteService) Accept(ctx context.Context, input AcceptInviteInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	token := strings.TrimSpace(input.Token)
	if token == "" || input.Password == "" {
		return nil, ErrInviteNotFound
	}

	hash, err := crypto.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("invite service: hash password: %w", err)
	}

	now := s.now()
	var user models.User

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invite models.UserInvite
		err := tx.First(&invite,
			"token_hash = ? AND accepted_at IS NULL AND expires_at > ?",
			tokenHash(token), now).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInviteNotFound
		}
		if err != nil {
			return fmt.Errorf("invite service: find invite: %w", err)
		}

		// An account may have been created for this email after the
		// invite was issued.
		var userCount int64
		if err := tx.Model(&models.User{}).
			Where("email = ?", invite.Email).
			Count(&userCount).Error; err != nil {
			return fmt.Errorf("invite service: check users: %w", err)
		}
		if userCount > 0 {
			return ErrInviteEmailInUse
		}

		user = models.User{
			OrganizationID: invite.OrganizationID,
			Email:          invite.Email,
			PasswordHash:   hash,
			FirstName:      strings.TrimSpace(input.FirstName),
			LastName:       strings.TrimSpace(input.LastName),
			Role:           invite.Role,
			Status:         models.UserStatusActive,
		}
		if err := tx.Create(&user).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrInviteEmailInUse
			}
			return fmt.Errorf("invite service: create user: %w", err)
		}

		if err := tx.Model(&invite).Update("accepted_at", now).Error; err != nil {
			return fmt.Errorf("invite service: mark accepted: %w", err)
		}

		return s.audit.Record(tx, AuditEntry{
			OrganizationID: invite.OrganizationID,
			UserID:         &user.ID,
			Action:         "user.registered",
			ResourceType:   "user",
			ResourceID:     user.ID,
			NewValues:      map[string]any{"email": user.Email, "role": user.Role},
			IPAddress:      input.IPAddress,
		})
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// ListPending returns the organization's non-accepted, non-expired invites,
// newest first. Expired rows stay in the table; they are filtered here.
func (s *InviteService) ListPending(ctx context.Context, organizationID string) ([]models.UserInvite, error) {
	ctx = ensureContext(ctx)

	var invites []models.UserInvite
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND accepted_at IS NULL AND expires_at > ?",
			organizationID, s.now()).
		Order("created_at DESC").
		Find(&invites).Error
	if err != nil {
		return nil, fmt.Errorf("invite service: list invites: %w", err)
	}
	return invites, nil
}

// Cancel deletes a pending invitation after an ownership check.
func (s *InviteService) Cancel(ctx context.Context, organizationID string, actor Actor, inviteID string) error {
	ctx = ensureContext(ctx)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invite models.UserInvite
		err := tx.First(&invite, "id = ? AND organization_id = ?", inviteID, organizationID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInviteNotFound
		}
		if err != nil {
			return fmt.Errorf("invite service: get invite: %w", err)
		}

		if err := tx.Delete(&invite).Error; err != nil {
			return fmt.Errorf("invite service: delete invite: %w", err)
		}

		return s.audit.Record(tx, AuditEntry{
			OrganizationID: organizationID,
			UserID:         actor.userIDRef(),
			Action:         "user.invite_cancelled",
			ResourceType:   "user_invite",
			ResourceID:     invite.ID,
			OldValues:      map[string]any{"email": invite.Email, "role": invite.Role},
			IPAddress:      actor.IPAddress,
		})
	})
}

// deliver emails the acceptance link when SMTP is configured. Delivery
// failures are logged, not surfaced: the token is already in the API
// response.
func (s *InviteService) deliver(ctx context.Context, email, token string) {
	if s.mailer == nil {
		return
	}

	link := token
	if s.baseURL != "" {
		link = fmt.Sprintf("%s/accept-invitation?token=%s", s.baseURL, token)
	}

	msg := mail.Message{
		To:      []string{email},
		Subject: "You've been invited to MailForge",
		Body: fmt.Sprintf("Hello,\n\nYou have been invited to join a MailForge organization. "+
			"Use the following link to accept your invitation:\n%s\n\n"+
			"The invitation expires in 7 days. If you did not expect this email, you can ignore it.\n", link),
	}
	if err := s.mailer.Send(ctx, msg); err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
		logger.WithModule("invites").Warn("invitation email delivery failed",
			zap.String("email", email),
			zap.Error(err),
		)
	}
}

func tokenHash(token string) string {
	checksum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(checksum[:])
}
