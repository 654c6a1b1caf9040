package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mailforge/mailforge/internal/models"
)

const recentCampaignCount = 5

// DashboardOverview aggregates the numbers shown on the landing screen.
type DashboardOverview struct {
	ActiveUsers     int64             `json:"active_users"`
	Contacts        int64             `json:"contacts"`
	Campaigns       int64             `json:"campaigns"`
	EmailsSent30d   int64             `json:"emails_sent_30d"`
	RecentCampaigns []models.Campaign `json:"recent_campaigns"`
}

// DashboardOption customises DashboardService behaviour.
type DashboardOption func(*DashboardService)

// WithDashboardClock injects a custom clock primarily for testing.
func WithDashboardClock(clock func() time.Time) DashboardOption {
	return func(s *DashboardService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// DashboardService computes per-organization analytics summaries.
type DashboardService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(db *gorm.DB, opts ...DashboardOption) (*DashboardService, error) {
	if db == nil {
		return nil, errors.New("dashboard service: db is required")
	}

	service := &DashboardService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Overview returns org counts, recent campaigns and the trailing-30-day
// send total.
func (s *DashboardService) Overview(ctx context.Context, organizationID string) (*DashboardOverview, error) {
	ctx = ensureContext(ctx)

	overview := DashboardOverview{RecentCampaigns: []models.Campaign{}}

	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("organization_id = ? AND status = ?", organizationID, models.UserStatusActive).
		Count(&overview.ActiveUsers).Error; err != nil {
		return nil, fmt.Errorf("dashboard service: count users: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.Contact{}).
		Where("organization_id = ?", organizationID).
		Count(&overview.Contacts).Error; err != nil {
		return nil, fmt.Errorf("dashboard service: count contacts: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.Campaign{}).
		Where("organization_id = ?", organizationID).
		Count(&overview.Campaigns).Error; err != nil {
		return nil, fmt.Errorf("dashboard service: count campaigns: %w", err)
	}

	since := s.now().Add(-usageWindow)
	var sent struct{ Total int64 }
	if err := s.db.WithContext(ctx).Model(&models.Campaign{}).
		Select("COALESCE(SUM(emails_sent), 0) AS total").
		Where("organization_id = ? AND sent_at > ?", organizationID, since).
		Scan(&sent).Error; err != nil {
		return nil, fmt.Errorf("dashboard service: sum emails sent: %w", err)
	}
	overview.EmailsSent30d = sent.Total

	if err := s.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("created_at DESC").
		Limit(recentCampaignCount).
		Find(&overview.RecentCampaigns).Error; err != nil {
		return nil, fmt.Errorf("dashboard service: recent campaigns: %w", err)
	}

	return &overview, nil
}
