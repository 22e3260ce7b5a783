package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	ectoplasma "github.com/xraph/ectoplasma"
	"github.com/xraph/ectoplasma/account"
	"github.com/xraph/ectoplasma/id"
	"github.com/xraph/ectoplasma/plan"
	ectostore "github.com/xraph/ectoplasma/store"
	"github.com/xraph/ectoplasma/subscription"
	"github.com/xraph/ectoplasma/types"
)

// compile-time interface check
var _ ectostore.Store = (*Store)(nil)

// Store is an in-process store. Records are copied in and out so callers
// never alias stored state.
type Store struct {
	mu sync.RWMutex

	counters      map[string]uint64
	accounts      map[types.Identity]account.Account
	plans         map[id.PlanID]plan.Plan
	subscriptions map[id.SubscriptionID]subscription.Subscription
}

func New() *Store {
	return &Store{
		counters:      make(map[string]uint64),
		accounts:      make(map[types.Identity]account.Account),
		plans:         make(map[id.PlanID]plan.Plan),
		subscriptions: make(map[id.SubscriptionID]subscription.Subscription),
	}
}

// Counter Store implementation
func (s *Store) GetCounter(_ context.Context, name string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.counters[name]
	if !ok {
		return 0, ectoplasma.ErrCounterNotFound
	}
	return v, nil
}

func (s *Store) SetCounter(_ context.Context, name string, value uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters[name] = value
	return nil
}

// Account Store implementation
func (s *Store) GetAccount(_ context.Context, owner types.Identity) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.accounts[owner]; ok {
		return &a, nil
	}
	return nil, ectoplasma.ErrAccountNotFound
}

func (s *Store) PutAccount(_ context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[a.Owner] = *a
	return nil
}

// Plan Store implementation
func (s *Store) CreatePlan(_ context.Context, p *plan.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[p.ID]; exists {
		return ectoplasma.ErrAlreadyExists
	}
	s.plans[p.ID] = *p
	return nil
}

func (s *Store) GetPlan(_ context.Context, planID id.PlanID) (*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.plans[planID]; ok {
		return &p, nil
	}
	return nil, ectoplasma.ErrPlanNotFound
}

func (s *Store) ListPlans(_ context.Context, opts plan.ListOpts) ([]*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := lo.Filter(lo.Values(s.plans), func(p plan.Plan, _ int) bool {
		if opts.Merchant != "" && p.Merchant != opts.Merchant {
			return false
		}
		return !opts.ActiveOnly || p.Active
	})
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	page := ectostore.Page(matched, opts.Limit, opts.Offset)
	return lo.Map(page, func(p plan.Plan, _ int) *plan.Plan { return &p }), nil
}

func (s *Store) SetPlanActive(_ context.Context, planID id.PlanID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.plans[planID]
	if !exists {
		return ectoplasma.ErrPlanNotFound
	}
	p.Active = active
	p.Touch(time.Now())
	s.plans[planID] = p
	return nil
}

// Subscription Store implementation
func (s *Store) CreateSubscription(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[sub.ID]; exists {
		return ectoplasma.ErrAlreadyExists
	}
	s.subscriptions[sub.ID] = *sub
	return nil
}

func (s *Store) GetSubscription(_ context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sub, ok := s.subscriptions[subID]; ok {
		return &sub, nil
	}
	return nil, ectoplasma.ErrSubscriptionNotFound
}

func (s *Store) ListSubscriptions(_ context.Context, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := lo.Filter(lo.Values(s.subscriptions), func(sub subscription.Subscription, _ int) bool {
		if opts.Subscriber != "" && sub.Subscriber != opts.Subscriber {
			return false
		}
		if opts.PlanID != nil && sub.PlanID != *opts.PlanID {
			return false
		}
		return !opts.ActiveOnly || sub.Active
	})
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	page := ectostore.Page(matched, opts.Limit, opts.Offset)
	return lo.Map(page, func(sub subscription.Subscription, _ int) *subscription.Subscription { return &sub }), nil
}

func (s *Store) DeactivateSubscription(_ context.Context, subID id.SubscriptionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, exists := s.subscriptions[subID]
	if !exists {
		return ectoplasma.ErrSubscriptionNotFound
	}
	sub.Active = false
	sub.Touch(time.Now())
	s.subscriptions[subID] = sub
	return nil
}

func (s *Store) RecordBilling(_ context.Context, subID id.SubscriptionID, periodsPaid uint32, billedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, exists := s.subscriptions[subID]
	if !exists {
		return ectoplasma.ErrSubscriptionNotFound
	}
	sub.PeriodsPaid = periodsPaid
	if billedAt == nil {
		sub.LastBilledAt = nil
		sub.Touch(time.Now().UTC())
	} else {
		t := billedAt.UTC()
		sub.LastBilledAt = &t
		sub.Touch(t)
	}
	s.subscriptions[subID] = sub
	return nil
}

// Core methods
func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) Close() error { return nil }
