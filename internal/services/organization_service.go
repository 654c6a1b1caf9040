package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mailforge/mailforge/internal/models"
)

// usageWindow is the trailing period considered when reporting email sends.
const usageWindow = 30 * 24 * time.Hour

// Actor identifies the authenticated user performing a mutation, for audit
// attribution.
type Actor struct {
	UserID    string
	IPAddress string
}

func (a Actor) userIDRef() *string {
	id := strings.TrimSpace(a.UserID)
	if id == "" {
		return nil
	}
	return &id
}

// OrganizationOverview is an organization together with derived counts.
type OrganizationOverview struct {
	Organization models.Organization `json:"organization"`
	ActiveUsers  int64               `json:"active_users"`
	Contacts     int64               `json:"contacts"`
	Campaigns    int64               `json:"campaigns"`
}

// UpdateOrganizationInput represents mutable organization fields.
type UpdateOrganizationInput struct {
	Name string
	Plan string
}

// UsageMetric pairs a current value with its plan limit.
type UsageMetric struct {
	Current int64 `json:"current"`
	Limit   int   `json:"limit"`
}

// OrganizationUsage reports plan consumption for an organization.
type OrganizationUsage struct {
	Contacts         UsageMetric        `json:"contacts"`
	EmailsSent       UsageMetric        `json:"emails_sent"`
	UsagePercentages map[string]float64 `json:"usage_percentages"`
}

// OrganizationOption customises OrganizationService behaviour.
type OrganizationOption func(*OrganizationService)

// WithOrganizationClock injects a custom clock primarily for testing.
func WithOrganizationClock(clock func() time.Time) OrganizationOption {
	return func(s *OrganizationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// OrganizationService manages tenant-level operations: overview, profile
// updates, key-value settings and usage reporting.
type OrganizationService struct {
	db    *gorm.DB
	audit *AuditService
	now   func() time.Time
}

// NewOrganizationService constructs an OrganizationService instance.
func NewOrganizationService(db *gorm.DB, audit *AuditService, opts ...OrganizationOption) (*OrganizationService, error) {
	if db == nil {
		return nil, errors.New("organization service: db is required")
	}
	if audit == nil {
		return nil, errors.New("organization service: audit service is required")
	}

	service := &OrganizationService{db: db, audit: audit, now: time.Now}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Get loads the caller's organization with derived counts.
func (s *OrganizationService) Get(ctx context.Context, organizationID string) (*OrganizationOverview, error) {
	ctx = ensureContext(ctx)

	var org models.Organization
	err := s.db.WithContext(ctx).First(&org, "id = ?", organizationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrganizationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("organization service: get organization: %w", err)
	}

	overview := OrganizationOverview{Organization: org}

	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("organization_id = ? AND status = ?", organizationID, models.UserStatusActive).
		Count(&overview.ActiveUsers).Error; err != nil {
		return nil, fmt.Errorf("organization service: count users: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.Contact{}).
		Where("organization_id = ?", organizationID).
		Count(&overview.Contacts).Error; err != nil {
		return nil, fmt.Errorf("organization service: count contacts: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.Campaign{}).
		Where("organization_id = ?", organizationID).
		Count(&overview.Campaigns).Error; err != nil {
		return nil, fmt.Errorf("organization service: count campaigns: %w", err)
	}

	return &overview, nil
}

// Update modifies the organization's name and plan. The audit entry captures
// the old and new values and commits with the update.
func (s *OrganizationService) Update(ctx context.Context, organizationID string, actor Actor, input UpdateOrganizationInput) (*models.Organization, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New("organization service: name is required")
	}
	plan := strings.TrimSpace(input.Plan)
	if plan != "" && !models.ValidPlan(plan) {
		return nil, fmt.Errorf("organization service: unknown plan %q", plan)
	}

	var org models.Organization
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&org, "id = ?", organizationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrganizationNotFound
			}
			return fmt.Errorf("organization service: get organization: %w", err)
		}

		oldValues := map[string]any{"name": org.Name, "plan": org.Plan}

		org.Name = name
		if plan != "" {
			org.Plan = plan
		}

		if err := tx.Model(&org).Updates(map[string]any{
			"name": org.Name,
			"plan": org.Plan,
		}).Error; err != nil {
			return fmt.Errorf("organization service: update organization: %w", err)
		}

		return s.audit.Record(tx, AuditEntry{
			OrganizationID: organizationID,
			UserID:         actor.userIDRef(),
			Action:         "organization.updated",
			ResourceType:   "organization",
			ResourceID:     organizationID,
			OldValues:      oldValues,
			NewValues:      map[string]any{"name": org.Name, "plan": org.Plan},
			IPAddress:      actor.IPAddress,
		})
	})
	if err != nil {
		return nil, err
	}

	return &org, nil
}

// Settings returns the organization's settings as a flat key-value map.
func (s *OrganizationService) Settings(ctx context.Context, organizationID string) (map[string]string, error) {
	ctx = ensureContext(ctx)

	var rows []models.OrganizationSetting
	if err := s.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("organization service: list settings: %w", err)
	}

	settings := make(map[string]string, len(rows))
	for _, row := range rows {
		settings[row.Key] = row.Value
	}
	return settings, nil
}

// UpdateSettings upserts each supplied key and writes a single audit entry
// for the whole batch.
func (s *OrganizationService) UpdateSettings(ctx context.Context, organizationID string, actor Actor, settings map[string]string) error {
	ctx = ensureContext(ctx)

	if len(settings) == 0 {
		return errors.New("organization service: no settings supplied")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed := make(map[string]any, len(settings))
		for key, value := range settings {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}

			row := models.OrganizationSetting{
				OrganizationID: organizationID,
				Key:            key,
				Value:          value,
			}
			// Composite-PK upsert: update value on conflict.
			err := tx.Where("organization_id = ? AND setting_key = ?", organizationID, key).
				Assign(map[string]any{"setting_value": value}).
				FirstOrCreate(&row).Error
			if err != nil {
				return fmt.Errorf("organization service: upsert setting %s: %w", key, err)
			}
			changed[key] = value
		}

		if len(changed) == 0 {
			return errors.New("organization service: no settings supplied")
		}

		return s.audit.Record(tx, AuditEntry{
			OrganizationID: organizationID,
			UserID:         actor.userIDRef(),
			Action:         "organization.settings_updated",
			ResourceType:   "organization",
			ResourceID:     organizationID,
			NewValues:      changed,
			IPAddress:      actor.IPAddress,
		})
	})
}

// Usage reports current plan consumption: stored contacts against the
// contact limit and trailing-30-day sends against the email limit.
func (s *OrganizationService) Usage(ctx context.Context, organizationID string) (*OrganizationUsage, error) {
	ctx = ensureContext(ctx)

	var org models.Organization
	err := s.db.WithContext(ctx).First(&org, "id = ?", organizationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrganizationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("organization service: get organization: %w", err)
	}

	var contacts int64
	if err := s.db.WithContext(ctx).Model(&models.Contact{}).
		Where("organization_id = ?", organizationID).
		Count(&contacts).Error; err != nil {
		return nil, fmt.Errorf("organization service: count contacts: %w", err)
	}

	since := s.now().Add(-usageWindow)
	var sent struct{ Total int64 }
	if err := s.db.WithContext(ctx).Model(&models.Campaign{}).
		Select("COALESCE(SUM(emails_sent), 0) AS total").
		Where("organization_id = ? AND sent_at > ?", organizationID, since).
		Scan(&sent).Error; err != nil {
		return nil, fmt.Errorf("organization service: sum emails sent: %w", err)
	}

	return &OrganizationUsage{
		Contacts:   UsageMetric{Current: contacts, Limit: org.ContactLimit},
		EmailsSent: UsageMetric{Current: sent.Total, Limit: org.EmailLimit},
		UsagePercentages: map[string]float64{
			"contacts": usagePercentage(contacts, org.ContactLimit),
			"emails":   usagePercentage(sent.Total, org.EmailLimit),
		},
	}, nil
}

// usagePercentage guards against zero limits.
func usagePercentage(current int64, limit int) float64 {
	if limit <= 0 {
		return 0
	}
	return float64(current) / float64(limit) * 100
}
