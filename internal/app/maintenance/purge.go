package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/softstore/pkg/logger"
)

const (
	defaultRetention     = 30 * 24 * time.Hour
	defaultPurgeSchedule = "@daily"
)

// Purgeable is a store able to drop soft-deleted rows older than a cutoff.
type Purgeable interface {
	EntityName() string
	PurgeDeleted(ctx context.Context, before time.Time) (int64, error)
}

// PurgeStats reports the rows removed per entity.
type PurgeStats map[string]int64

// Purger periodically removes soft-deleted rows once they have been deleted for longer
// than the retention window.
type Purger struct {
	targets   []Purgeable
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
	retention time.Duration
	schedule  string
}

// Option customises the Purger.
type Option func(*Purger)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(p *Purger) {
		if c != nil {
			p.cron = c
		}
	}
}

// WithNow overrides the clock used to compute the purge cutoff.
func WithNow(now func() time.Time) Option {
	return func(p *Purger) {
		if now != nil {
			p.now = now
		}
	}
}

// WithRetention adjusts how long soft-deleted rows are kept.
func WithRetention(d time.Duration) Option {
	return func(p *Purger) {
		if d > 0 {
			p.retention = d
		}
	}
}

// WithSchedule overrides the cron expression of the purge job.
func WithSchedule(schedule string) Option {
	return func(p *Purger) {
		if schedule != "" {
			p.schedule = schedule
		}
	}
}

// NewPurger constructs a Purger over the supplied targets. Nil targets are skipped.
func NewPurger(targets []Purgeable, opts ...Option) *Purger {
	p := &Purger{
		now:       time.Now,
		retention: defaultRetention,
		schedule:  defaultPurgeSchedule,
		log:       logger.WithModule("maintenance"),
	}
	for _, target := range targets {
		if target != nil {
			p.targets = append(p.targets, target)
		}
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.cron == nil {
		p.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return p
}

// Start registers the purge job and launches the scheduler. Without targets it does nothing.
func (p *Purger) Start() error {
	if len(p.targets) == 0 {
		return nil
	}

	if _, err := p.cron.AddFunc(p.schedule, func() {
		if err := p.RunOnce(context.Background()); err != nil {
			p.log.Warn("purge failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("maintenance: schedule purge %q: %w", p.schedule, err)
	}

	p.cron.Start()
	p.log.Info("purge scheduled", zap.String("schedule", p.schedule), zap.Duration("retention", p.retention))
	return nil
}

// Stop halts the underlying scheduler. The returned context is done once running jobs finish.
func (p *Purger) Stop() context.Context {
	if p.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return p.cron.Stop()
}

// Cutoff returns the instant before which soft-deleted rows are purged.
func (p *Purger) Cutoff() time.Time {
	return p.now().Add(-p.retention)
}

// RunOnce purges every target once. A failing target does not stop the others.
func (p *Purger) RunOnce(ctx context.Context) error {
	_, err := p.Purge(ctx)
	return err
}

// Purge purges every target once and reports the rows removed per entity.
func (p *Purger) Purge(ctx context.Context) (PurgeStats, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cutoff := p.Cutoff()
	stats := make(PurgeStats, len(p.targets))
	var errs error

	for _, target := range p.targets {
		removed, err := target.PurgeDeleted(ctx, cutoff)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("purge %s: %w", target.EntityName(), err))
			continue
		}
		stats[target.EntityName()] += removed
		if removed > 0 {
			p.log.Info("purged soft-deleted rows",
				zap.String("entity", target.EntityName()),
				zap.Int64("rows", removed),
				zap.Time("before", cutoff),
			)
		}
	}

	return stats, errs
}
