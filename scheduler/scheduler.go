// Package scheduler drives recurring billing. On each tick it sweeps the
// active subscriptions and charges every one whose period has elapsed since
// it was last billed.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/xraph/ectoplasma"
	"github.com/xraph/ectoplasma/id"
	"github.com/xraph/ectoplasma/plan"
	"github.com/xraph/ectoplasma/subscription"
)

// DefaultSchedule is the cron spec used when none is configured.
const DefaultSchedule = "@every 1m"

const pageSize = 100

// Scheduler owns the billing cadence for an engine.
type Scheduler struct {
	engine   *ectoplasma.Engine
	schedule string
	logger   *slog.Logger
	now      func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithSchedule sets the cron spec for sweeps.
func WithSchedule(spec string) Option {
	return func(s *Scheduler) { s.schedule = spec }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithClock overrides the time source used to decide which periods are due.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a scheduler for engine.
func New(engine *ectoplasma.Engine, opts ...Option) *Scheduler {
	s := &Scheduler{
		engine:   engine,
		schedule: DefaultSchedule,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers the sweep and starts the cron runner. Calling Start on a
// running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(s.schedule, func() {
		billed, err := s.RunOnce(ctx)
		if err != nil {
			s.logger.Error("scheduler: sweep failed", "error", err, "billed", billed)
			return
		}
		if billed > 0 {
			s.logger.Info("scheduler: sweep complete", "billed", billed)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduler: invalid schedule %q: %w", s.schedule, err)
	}

	c.Start()
	s.cron = c
	s.logger.Info("scheduler started", "schedule", s.schedule)
	return nil
}

// Stop halts the cron runner and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunOnce sweeps all active subscriptions once and bills those that are due.
// A subscription is due when it has never been billed, or when its plan's
// period has elapsed since the last charge. Rejected charges are skipped;
// the first environment failure aborts the sweep.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	now := s.now().UTC()
	plans := make(map[id.PlanID]*plan.Plan)
	billed := 0

	for offset := 0; ; offset += pageSize {
		subs, err := s.engine.ListSubscriptions(ctx, subscription.ListOpts{
			ActiveOnly: true,
			Limit:      pageSize,
			Offset:     offset,
		})
		if err != nil {
			return billed, fmt.Errorf("scheduler: list subscriptions: %w", err)
		}

		for _, sub := range subs {
			p, err := s.plan(ctx, plans, sub.PlanID)
			if err != nil {
				return billed, err
			}
			if p == nil || !p.Active || !due(sub, p, now) {
				continue
			}

			out, err := s.engine.ProcessBilling(ctx, sub.ID)
			if err != nil {
				return billed, fmt.Errorf("scheduler: bill subscription %s: %w", sub.ID, err)
			}
			if out.Applied {
				billed++
				continue
			}
			s.logger.Debug("scheduler: charge skipped",
				"subscription_id", sub.ID,
				"reason", out.Reason,
			)
		}

		if len(subs) < pageSize {
			return billed, nil
		}
	}
}

func (s *Scheduler) plan(ctx context.Context, cache map[id.PlanID]*plan.Plan, planID id.PlanID) (*plan.Plan, error) {
	if p, ok := cache[planID]; ok {
		return p, nil
	}
	p, err := s.engine.GetPlan(ctx, planID)
	if err != nil {
		if ectoplasma.IsNotFound(err) {
			cache[planID] = nil
			return nil, nil
		}
		return nil, fmt.Errorf("scheduler: get plan %s: %w", planID, err)
	}
	cache[planID] = p
	return p, nil
}

// due reports whether sub owes another period at now. Periods too long to
// express as a time.Duration never come due after the first charge.
func due(sub *subscription.Subscription, p *plan.Plan, now time.Time) bool {
	if sub.LastBilledAt == nil {
		return true
	}
	if p.PeriodSecs > uint64(math.MaxInt64/int64(time.Second)) {
		return false
	}
	period := time.Duration(p.PeriodSecs) * time.Second //nolint:gosec // bounded above
	return !sub.LastBilledAt.Add(period).After(now)
}
