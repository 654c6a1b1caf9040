package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mailforge/mailforge/internal/models"
	"github.com/mailforge/mailforge/pkg/metrics"
)

// AuditEntry captures a single audit event to persist.
type AuditEntry struct {
	OrganizationID string
	UserID         *string
	Action         string
	ResourceType   string
	ResourceID     string
	OldValues      map[string]any
	NewValues      map[string]any
	IPAddress      string
}

// AuditListOptions controls pagination for audit queries.
type AuditListOptions struct {
	Page  int
	Limit int
}

// AuditService persists and retrieves audit log entries. Mutating services
// write their entry through Record inside the same transaction as the
// mutation itself, so a rolled-back change never leaves a log row behind.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService constructs an AuditService using the provided database handle.
func NewAuditService(db *gorm.DB) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &AuditService{db: db}, nil
}

// Record writes an audit entry using the supplied handle, which may be a
// transaction in progress.
func (s *AuditService) Record(tx *gorm.DB, entry AuditEntry) error {
	if tx == nil {
		return errors.New("audit service: db handle is required")
	}
	if strings.TrimSpace(entry.OrganizationID) == "" {
		return errors.New("audit service: organization id is required")
	}
	if strings.TrimSpace(entry.Action) == "" {
		return errors.New("audit service: action is required")
	}

	log := models.AuditLog{
		OrganizationID: entry.OrganizationID,
		Action:         strings.TrimSpace(entry.Action),
		ResourceType:   strings.TrimSpace(entry.ResourceType),
		ResourceID:     strings.TrimSpace(entry.ResourceID),
		OldValues:      jsonValues(entry.OldValues),
		NewValues:      jsonValues(entry.NewValues),
		IPAddress:      strings.TrimSpace(entry.IPAddress),
	}

	if entry.UserID != nil && strings.TrimSpace(*entry.UserID) != "" {
		id := strings.TrimSpace(*entry.UserID)
		log.UserID = &id
	}

	if err := tx.Create(&log).Error; err != nil {
		return fmt.Errorf("audit service: create log: %w", err)
	}

	metrics.AuditEntries.WithLabelValues(log.Action).Inc()
	return nil
}

// Log stores an audit entry outside any caller-managed transaction.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	return s.Record(s.db.WithContext(ensureContext(ctx)), entry)
}

// List returns paginated audit logs for an organization, newest first, with
// the acting user preloaded.
func (s *AuditService) List(ctx context.Context, organizationID string, opts AuditListOptions) ([]models.AuditLog, int64, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(organizationID) == "" {
		return nil, 0, errors.New("audit service: organization id is required")
	}

	page := opts.Page
	if page <= 0 {
		page = 1
	}
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var (
		results []models.AuditLog
		total   int64
	)

	query := s.db.WithContext(ctx).
		Model(&models.AuditLog{}).
		Where("organization_id = ?", organizationID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: count logs: %w", err)
	}

	if err := query.
		Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: list logs: %w", err)
	}

	return results, total, nil
}

// CleanupOlderThan removes audit logs older than the supplied retention
// window (in days) across all organizations.
func (s *AuditService) CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	ctx = ensureContext(ctx)

	if retentionDays <= 0 {
		return 0, errors.New("audit service: retentionDays must be positive")
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("audit service: cleanup logs: %w", result.Error)
	}

	return result.RowsAffected, nil
}
