// Package subscription defines subscriber enrollments in plans.
package subscription

import (
	"time"

	"github.com/xraph/ectoplasma/id"
	"github.com/xraph/ectoplasma/types"
)

// Subscription is a subscriber's enrollment in a plan. Subscriber and PlanID
// are immutable. Active only ever goes from true to false. PeriodsPaid is
// advanced by successful billing alone.
type Subscription struct {
	types.Entity
	ID           id.SubscriptionID `json:"id"`
	Subscriber   types.Identity    `json:"subscriber"`
	PlanID       id.PlanID         `json:"plan_id"`
	Active       bool              `json:"active"`
	PeriodsPaid  uint32            `json:"periods_paid"`
	LastBilledAt *time.Time        `json:"last_billed_at,omitempty"`
}

// Core is the (subscriber, plan, active) view of a subscription.
type Core struct {
	Subscriber types.Identity `json:"subscriber"`
	PlanID     id.PlanID      `json:"plan_id"`
	Active     bool           `json:"active"`
}

// Core returns the core view.
func (s *Subscription) Core() Core {
	return Core{
		Subscriber: s.Subscriber,
		PlanID:     s.PlanID,
		Active:     s.Active,
	}
}
