package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mailforge/mailforge/internal/services"
	"github.com/mailforge/mailforge/pkg/logger"
)

const defaultAuditSpec = "@daily"

// Cleaner enforces audit log retention on a schedule. A retention of zero
// disables it entirely. Expired invitations are deliberately left in place;
// they document the invitation history and are filtered out of every query
// by their expiry timestamp.
type Cleaner struct {
	audit     *services.AuditService
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
	retention int
	schedule  string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for scheduling comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithAuditSchedule overrides the cron specification for retention enforcement.
func WithAuditSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner. retentionDays <= 0 leaves the audit trail
// untouched.
func NewCleaner(audit *services.AuditService, retentionDays int, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		audit:     audit,
		now:       time.Now,
		retention: retentionDays,
		schedule:  defaultAuditSpec,
		log:       logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

func (c *Cleaner) enabled() bool {
	return c.audit != nil && c.retention > 0
}

// Start registers the retention job and launches the scheduler when enabled.
func (c *Cleaner) Start() error {
	if !c.enabled() {
		return nil
	}

	if _, err := c.cron.AddFunc(c.schedule, func() {
		if _, err := c.audit.CleanupOlderThan(context.Background(), c.retention); err != nil {
			c.log.Warn("audit cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for any running job to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes the retention pass immediately. Used in tests and during
// graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	removed, err := c.audit.CleanupOlderThan(ctx, c.retention)
	if err != nil {
		return err
	}
	if removed > 0 {
		c.log.Info("audit logs pruned",
			zap.Int64("removed", removed),
			zap.Int("retention_days", c.retention),
		)
	}
	return nil
}
