package ectoplasma

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/xraph/ectoplasma/event"
	"github.com/xraph/ectoplasma/id"
	"github.com/xraph/ectoplasma/types"
)

// ──────────────────────────────────────────────────
// Billing
// ──────────────────────────────────────────────────

// ProcessBilling charges one period of the subscription's plan price from
// the subscriber to the merchant. An unknown or inactive subscription, an
// unknown or inactive plan, or a balance below the price rejects the charge
// with no effect.
//
// The subscription record is updated before the merchant is paid. A failure
// after the debit restores the balance and the record and returns an error.
//
// No elapsed-time check is made; callers own the billing cadence.
func (e *Engine) ProcessBilling(ctx context.Context, subID id.SubscriptionID) (Outcome, error) {
	var emitted event.Event
	defer e.emit(ctx, &emitted)

	e.mu.Lock()
	defer e.mu.Unlock()

	sub, err := e.lookupSubscription(ctx, subID)
	if err != nil {
		return Outcome{}, err
	}
	if sub == nil {
		return e.rejected("billing", ReasonSubscriptionNotFound, "subscription_id", subID), nil
	}
	if !sub.Active {
		return e.rejected("billing", ReasonSubscriptionInactive, "subscription_id", subID), nil
	}

	p, err := e.lookupPlan(ctx, sub.PlanID)
	if err != nil {
		return Outcome{}, err
	}
	if p == nil {
		return e.rejected("billing", ReasonPlanNotFound, "subscription_id", subID, "plan_id", sub.PlanID), nil
	}
	if !p.Active {
		return e.rejected("billing", ReasonPlanInactive, "subscription_id", subID, "plan_id", sub.PlanID), nil
	}

	price := p.PricePerPeriod
	remaining, err := e.debit(ctx, sub.Subscriber, price)
	if errors.Is(err, ErrInsufficientFunds) {
		return e.rejected("billing", ReasonInsufficientFunds,
			"subscription_id", subID,
			"subscriber", sub.Subscriber,
			"price", price,
		), nil
	}
	if err != nil {
		return Outcome{}, err
	}

	periodIndex := sub.PeriodsPaid
	paid := periodIndex
	if paid < math.MaxUint32 {
		paid++
	}

	now := e.now()
	if err := e.store.RecordBilling(ctx, subID, paid, &now); err != nil {
		failure := fmt.Errorf("record billing for subscription %s: %w", subID, err)
		if cerr := e.refund(ctx, sub.Subscriber, price, subID); cerr != nil {
			return Outcome{}, errors.Join(failure, cerr)
		}
		return Outcome{}, failure
	}

	if err := e.transfer.Transfer(ctx, p.Merchant, price); err != nil {
		failure := fmt.Errorf("%w: subscription %s to %s: %w", ErrTransferFailed, subID, p.Merchant, err)
		cerr := e.store.RecordBilling(ctx, subID, sub.PeriodsPaid, sub.LastBilledAt)
		if cerr != nil {
			e.logger.Error("billing record rollback failed",
				"subscription_id", subID,
				"error", cerr,
			)
			cerr = fmt.Errorf("%w: restore subscription %s: %w", ErrCompensationFailed, subID, cerr)
		}
		if rerr := e.refund(ctx, sub.Subscriber, price, subID); rerr != nil {
			cerr = errors.Join(cerr, rerr)
		}
		if cerr != nil {
			return Outcome{}, errors.Join(failure, cerr)
		}
		e.logger.Warn("billing transfer failed",
			"subscription_id", subID,
			"merchant", p.Merchant,
			"error", err,
		)
		return Outcome{}, failure
	}

	e.logger.Info("billing processed",
		"subscription_id", subID,
		"plan_id", p.ID,
		"period_index", periodIndex,
		"amount", price,
		"remaining_balance", remaining,
	)
	emitted = &event.BillingProcessed{
		Meta:           event.NewMeta(now),
		SubscriptionID: subID,
		PlanID:         p.ID,
		Subscriber:     sub.Subscriber,
		Merchant:       p.Merchant,
		PeriodIndex:    periodIndex,
		PricePerPeriod: price,
	}
	return Applied, nil
}

// refund credits back a debit whose charge could not complete.
func (e *Engine) refund(ctx context.Context, owner types.Identity, amount types.Amount, subID id.SubscriptionID) error {
	if _, err := e.credit(ctx, owner, amount); err != nil {
		e.logger.Error("billing compensation failed",
			"subscription_id", subID,
			"subscriber", owner,
			"amount", amount,
			"error", err,
		)
		return fmt.Errorf("%w: %w", ErrCompensationFailed, err)
	}
	return nil
}
