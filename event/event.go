// Package event defines the notifications the engine emits. Events are
// immutable records; within one operation they are delivered in emission
// order.
package event

import (
	"time"

	"github.com/xraph/ectoplasma/id"
	"github.com/xraph/ectoplasma/types"
)

// Event names.
const (
	NamePlanCreated          = "plan.created"
	NameSubscribed           = "subscription.created"
	NameSubscriptionCanceled = "subscription.canceled"
	NameBillingProcessed     = "billing.processed"
)

// Event is implemented by every notification.
type Event interface {
	EventName() string
	EventMeta() Meta
}

// Meta is common to all events.
type Meta struct {
	ID         id.EventID `json:"id"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// NewMeta stamps a fresh event id at t.
func NewMeta(t time.Time) Meta {
	return Meta{ID: id.NewEventID(), OccurredAt: t.UTC()}
}

// EventMeta implements Event.
func (m Meta) EventMeta() Meta { return m }

// PlanCreated is emitted by CreatePlan.
type PlanCreated struct {
	Meta
	PlanID   id.PlanID      `json:"plan_id"`
	Merchant types.Identity `json:"merchant"`
}

// EventName implements Event.
func (*PlanCreated) EventName() string { return NamePlanCreated }

// Subscribed is emitted by Subscribe.
type Subscribed struct {
	Meta
	SubscriptionID id.SubscriptionID `json:"subscription_id"`
	PlanID         id.PlanID         `json:"plan_id"`
	Subscriber     types.Identity    `json:"subscriber"`
}

// EventName implements Event.
func (*Subscribed) EventName() string { return NameSubscribed }

// SubscriptionCanceled is emitted by CancelSubscription.
type SubscriptionCanceled struct {
	Meta
	SubscriptionID id.SubscriptionID `json:"subscription_id"`
	PlanID         id.PlanID         `json:"plan_id"`
	Subscriber     types.Identity    `json:"subscriber"`
}

// EventName implements Event.
func (*SubscriptionCanceled) EventName() string { return NameSubscriptionCanceled }

// BillingProcessed is emitted by a successful ProcessBilling. PeriodIndex is
// the zero-based index of the period just paid.
type BillingProcessed struct {
	Meta
	SubscriptionID id.SubscriptionID `json:"subscription_id"`
	PlanID         id.PlanID         `json:"plan_id"`
	Subscriber     types.Identity    `json:"subscriber"`
	Merchant       types.Identity    `json:"merchant"`
	PeriodIndex    uint32            `json:"period_index"`
	PricePerPeriod types.Amount      `json:"price_per_period"`
}

// EventName implements Event.
func (*BillingProcessed) EventName() string { return NameBillingProcessed }
