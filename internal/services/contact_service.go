package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mailforge/mailforge/internal/models"
)

// ContactListOptions controls pagination and search for contact queries.
type ContactListOptions struct {
	Page   int
	Limit  int
	Search string
}

// CreateContactInput captures the attributes for a new contact.
type CreateContactInput struct {
	Email     string
	FirstName string
	LastName  string
	Status    string
}

// UpdateContactInput represents mutable contact fields. Nil pointers leave
// the current value untouched.
type UpdateContactInput struct {
	FirstName *string
	LastName  *string
	Status    *string
}

// ContactService manages an organization's audience.
type ContactService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewContactService constructs a ContactService with the provided dependencies.
func NewContactService(db *gorm.DB, audit *AuditService) (*ContactService, error) {
	if db == nil {
		return nil, errors.New("contact service: db is required")
	}
	if audit == nil {
		return nil, errors.New("contact service: audit service is required")
	}
	return &ContactService{db: db, audit: audit}, nil
}

// List returns paginated contacts for the organization, newest first. The
// search term matches email and name fields.
func (s *ContactService) List(ctx context.Context, organizationID string, opts ContactListOptions) ([]models.Contact, int64, error) {
	ctx = ensureContext(ctx)

	page := opts.Page
	if page <= 0 {
		page = 1
	}
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := s.db.WithContext(ctx).
		Model(&models.Contact{}).
		Where("organization_id = ?", organizationID)

	if search := strings.TrimSpace(opts.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("contact service: count contacts: %w", err)
	}

	var contacts []models.Contact
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&contacts).Error; err != nil {
		return nil, 0, fmt.Errorf("contact service: list contacts: %w", err)
	}

	return contacts, total, nil
}

// Create adds a contact, enforcing the organization's contact limit and the
// per-organization email uniqueness inside one transaction.
func (s *ContactService) Create(ctx context.Context, organizationID string, actor Actor, input CreateContactInput) (*models.Contact, error) {
	ctx = ensureContext(ctx)

	email := normaliseEmail(input.Email)
	if email == "" {
		return nil, errors.New("contact service: email is required")
	}

	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = models.ContactStatusSubscribed
	}
	if status != models.ContactStatusSubscribed && status != models.ContactStatusUnsubscribed {
		return nil, fmt.Errorf("contact service: unknown status %q", status)
	}

	contact := models.Contact{
		OrganizationID: organizationID,
		Email:          email,
		FirstName:      strings.TrimSpace(input.FirstName),
		LastName:       strings.TrimSpace(input.LastName),
		Status:         status,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var org models.Organization
		err := tx.First(&org, "id = ?", organizationID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrganizationNotFound
		}
		if err != nil {
			return fmt.Errorf("contact service: get organization: %w", err)
		}

		var count int64
		if err := tx.Model(&models.Contact{}).
			Where("organization_id = ?", organizationID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("contact service: count contacts: %w", err)
		}
		if org.ContactLimit > 0 && count >= int64(org.ContactLimit) {
			return ErrContactLimitReached
		}

		if err := tx.Create(&contact).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrContactEmailTaken
			}
			return fmt.Errorf("contact service: create contact: %w", err)
		}

		return s.audit.Record(tx, AuditEntry{
			OrganizationID: organizationID,
			UserID:         actor.userIDRef(),
			Action:         "contact.created",
			ResourceType:   "contact",
			ResourceID:     contact.ID,
			NewValues:      map[string]any{"email": email, "status": status},
			IPAddress:      actor.IPAddress,
		})
	})
	if err != nil {
		return nil, err
	}

	return &contact, nil
}

// Update modifies a contact within the caller's organization.
func (s *ContactService) Update(ctx context.Context, organizationID string, actor Actor, contactID string, input UpdateContactInput) (*models.Contact, error) {
	ctx = ensureContext(ctx)

	if input.Status != nil {
		status := strings.TrimSpace(*input.Status)
		if status != models.ContactStatusSubscribed && status != models.ContactStatusUnsubscribed {
			return nil, fmt.Errorf("contact service: unknown status %q", status)
		}
	}

	var contact models.Contact
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&contact, "id = ? AND organization_id = ?", contactID, organizationID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrContactNotFound
		}
		if err != nil {
			return fmt.Errorf("contact service: get contact: %w", err)
		}

		oldValues := map[string]any{
			"first_name": contact.FirstName,
			"last_name":  contact.LastName,
			"status":     contact.Status,
		}

		updates := map[string]any{}
		if input.FirstName != nil {
			updates["first_name"] = strings.TrimSpace(*input.FirstName)
		}
		if input.LastName != nil {
			updates["last_name"] = strings.TrimSpace(*input.LastName)
		}
		if input.Status != nil {
			updates["status"] = strings.TrimSpace(*input.Status)
		}
		if len(updates) == 0 {
			return errors.New("contact service: no fields to update")
		}

		if err := tx.Model(&contact).Updates(updates).Error; err != nil {
			return fmt.Errorf("contact service: update contact: %w", err)
		}

		return s.audit.Record(tx, AuditEntry{
			OrganizationID: organizationID,
			UserID:         actor.userIDRef(),
			Action:         "contact.updated",
			ResourceType:   "contact",
			ResourceID:     contact.ID,
			OldValues:      oldValues,
			NewValues:      updates,
			IPAddress:      actor.IPAddress,
		})
	})
	if err != nil {
		return nil, err
	}

	return &contact, nil
}

// Delete removes a contact after an ownership check.
func (s *ContactService) Delete(ctx context.Context, organizationID string, actor Actor, contactID string) error {
	ctx = ensureContext(ctx)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var contact models.Contact
		err := tx.First(&contact, "id = ? AND organization_id = ?", contactID, organizationID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrContactNotFound
		}
		if err != nil {
			return fmt.Errorf("contact service: get contact: %w", err)
		}

		if err := tx.Delete(&contact).Error; err != nil {
			return fmt.Errorf("contact service: delete contact: %w", err)
		}

		return s.audit.Record(tx, AuditEntry{
			OrganizationID: organizationID,
			UserID:         actor.userIDRef(),
			Action:         "contact.deleted",
			ResourceType:   "contact",
			ResourceID:     contact.ID,
			OldValues:      map[string]any{"email": contact.Email},
			IPAddress:      actor.IPAddress,
		})
	})
}
