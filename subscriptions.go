package ectoplasma

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/ectoplasma/event"
	"github.com/xraph/ectoplasma/id"
	"github.com/xraph/ectoplasma/identity"
	"github.com/xraph/ectoplasma/subscription"
	"github.com/xraph/ectoplasma/types"
)

// ──────────────────────────────────────────────────
// Subscription Registry
// ──────────────────────────────────────────────────

// Subscribe enrolls the caller in an active plan. A rejected subscribe
// returns id 0 and allocates nothing; check the Outcome to tell it apart
// from a genuine first subscription.
//
// Once the subscription sequence is exhausted the reissued id collides in
// the store and Subscribe returns an error wrapping ErrAlreadyExists.
func (e *Engine) Subscribe(ctx context.Context, planID id.PlanID) (id.SubscriptionID, Outcome, error) {
	var emitted event.Event
	defer e.emit(ctx, &emitted)

	e.mu.Lock()
	defer e.mu.Unlock()

	subscriber, ok := identity.Caller(ctx)
	if !ok {
		return 0, Outcome{}, ErrNoCaller
	}

	p, err := e.lookupPlan(ctx, planID)
	if err != nil {
		return 0, Outcome{}, err
	}
	if p == nil {
		return 0, e.rejected("subscribe", ReasonPlanNotFound, "plan_id", planID), nil
	}
	if !p.Active {
		return 0, e.rejected("subscribe", ReasonPlanInactive, "plan_id", planID), nil
	}

	next, err := e.subSeq.Next(ctx)
	if err != nil {
		return 0, Outcome{}, fmt.Errorf("allocate subscription id: %w", err)
	}

	now := e.now()
	sub := &subscription.Subscription{
		Entity:     types.NewEntity(now),
		ID:         id.SubscriptionID(next),
		Subscriber: subscriber,
		PlanID:     planID,
		Active:     true,
	}
	if err := e.store.CreateSubscription(ctx, sub); err != nil {
		return 0, Outcome{}, fmt.Errorf("create subscription %s: %w", sub.ID, err)
	}

	e.logger.Info("subscription created",
		"subscription_id", sub.ID,
		"plan_id", planID,
		"subscriber", subscriber,
	)
	emitted = &event.Subscribed{
		Meta:           event.NewMeta(now),
		SubscriptionID: sub.ID,
		PlanID:         planID,
		Subscriber:     subscriber,
	}
	return sub.ID, Applied, nil
}

// CancelSubscription deactivates a subscription. Only its subscriber may
// cancel; cancelling an unknown or already inactive subscription is a no-op.
func (e *Engine) CancelSubscription(ctx context.Context, subID id.SubscriptionID) (Outcome, error) {
	var emitted event.Event
	defer e.emit(ctx, &emitted)

	e.mu.Lock()
	defer e.mu.Unlock()

	caller, ok := identity.Caller(ctx)
	if !ok {
		return Outcome{}, ErrNoCaller
	}

	sub, err := e.lookupSubscription(ctx, subID)
	if err != nil {
		return Outcome{}, err
	}
	if sub == nil {
		return e.rejected("cancel subscription", ReasonSubscriptionNotFound, "subscription_id", subID), nil
	}
	if !sub.Active {
		return e.rejected("cancel subscription", ReasonSubscriptionInactive, "subscription_id", subID), nil
	}
	if sub.Subscriber != caller {
		return e.rejected("cancel subscription", ReasonUnauthorized, "subscription_id", subID, "caller", caller), nil
	}

	if err := e.store.DeactivateSubscription(ctx, subID); err != nil {
		return Outcome{}, fmt.Errorf("deactivate subscription %s: %w", subID, err)
	}

	e.logger.Info("subscription canceled", "subscription_id", subID, "subscriber", caller)
	emitted = &event.SubscriptionCanceled{
		Meta:           event.NewMeta(e.now()),
		SubscriptionID: subID,
		PlanID:         sub.PlanID,
		Subscriber:     sub.Subscriber,
	}
	return Applied, nil
}

// GetSubscription returns the full subscription record or
// ErrSubscriptionNotFound.
func (e *Engine) GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.store.GetSubscription(ctx, subID)
}

// ListSubscriptions lists subscriptions in allocation order.
func (e *Engine) ListSubscriptions(ctx context.Context, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.store.ListSubscriptions(ctx, opts)
}

// SubscriptionCore returns subscriber, plan and active flag. The boolean is
// false when the id was never issued.
func (e *Engine) SubscriptionCore(ctx context.Context, subID id.SubscriptionID) (subscription.Core, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sub, err := e.lookupSubscription(ctx, subID)
	if err != nil || sub == nil {
		return subscription.Core{}, false, err
	}
	return sub.Core(), true, nil
}

// SubscriptionPeriodsPaid returns the number of paid periods, or 0 for an
// unknown id.
func (e *Engine) SubscriptionPeriodsPaid(ctx context.Context, subID id.SubscriptionID) (uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sub, err := e.lookupSubscription(ctx, subID)
	if err != nil || sub == nil {
		return 0, err
	}
	return sub.PeriodsPaid, nil
}

func (e *Engine) lookupSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	sub, err := e.store.GetSubscription(ctx, subID)
	if errors.Is(err, ErrSubscriptionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load subscription %s: %w", subID, err)
	}
	return sub, nil
}
