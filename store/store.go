package store

import (
	"context"
	"time"

	"github.com/xraph/ectoplasma/account"
	"github.com/xraph/ectoplasma/id"
	"github.com/xraph/ectoplasma/plan"
	"github.com/xraph/ectoplasma/subscription"
	"github.com/xraph/ectoplasma/types"
)

// Store is the unified persistent key-value interface behind the engine.
// Reads of absent keys return not-found errors, never zero records, so the
// engine can tell "absent" from "stored default".
//
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
type Store interface {
	// Counter methods (id.CounterStore)
	GetCounter(ctx context.Context, name string) (uint64, error)
	SetCounter(ctx context.Context, name string, value uint64) error

	// Account methods
	GetAccount(ctx context.Context, owner types.Identity) (*account.Account, error)
	PutAccount(ctx context.Context, a *account.Account) error

	// Plan methods
	CreatePlan(ctx context.Context, p *plan.Plan) error
	GetPlan(ctx context.Context, planID id.PlanID) (*plan.Plan, error)
	ListPlans(ctx context.Context, opts plan.ListOpts) ([]*plan.Plan, error)
	SetPlanActive(ctx context.Context, planID id.PlanID, active bool) error

	// Subscription methods
	CreateSubscription(ctx context.Context, s *subscription.Subscription) error
	GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error)
	ListSubscriptions(ctx context.Context, opts subscription.ListOpts) ([]*subscription.Subscription, error)
	DeactivateSubscription(ctx context.Context, subID id.SubscriptionID) error
	RecordBilling(ctx context.Context, subID id.SubscriptionID, periodsPaid uint32, billedAt *time.Time) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
