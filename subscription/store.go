package subscription

import (
	"context"
	"time"

	"github.com/xraph/ectoplasma/id"
	"github.com/xraph/ectoplasma/types"
)

type Store interface {
	Create(ctx context.Context, s *Subscription) error
	Get(ctx context.Context, subID id.SubscriptionID) (*Subscription, error)
	List(ctx context.Context, opts ListOpts) ([]*Subscription, error)
	Deactivate(ctx context.Context, subID id.SubscriptionID) error
	// RecordBilling sets the paid period count and the last billing time.
	// A nil billedAt clears the last billing time.
	RecordBilling(ctx context.Context, subID id.SubscriptionID, periodsPaid uint32, billedAt *time.Time) error
}

// ListOpts filters subscription listings. Results are ordered by id.
type ListOpts struct {
	Subscriber types.Identity
	PlanID     *id.PlanID
	ActiveOnly bool
	Limit      int
	Offset     int
}
