package ectoplasma

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/ectoplasma/event"
	"github.com/xraph/ectoplasma/id"
	"github.com/xraph/ectoplasma/identity"
	"github.com/xraph/ectoplasma/plan"
	"github.com/xraph/ectoplasma/types"
)

// ──────────────────────────────────────────────────
// Plan Registry
// ──────────────────────────────────────────────────

// CreatePlan stores a new active plan owned by the caller and returns its id.
//
// Once the plan sequence is exhausted it keeps reissuing the last id, and
// the store refuses the duplicate: CreatePlan then returns an error
// wrapping ErrAlreadyExists and no plan is written.
func (e *Engine) CreatePlan(ctx context.Context, in plan.Input) (id.PlanID, error) {
	var emitted event.Event
	defer e.emit(ctx, &emitted)

	e.mu.Lock()
	defer e.mu.Unlock()

	merchant, ok := identity.Caller(ctx)
	if !ok {
		return 0, ErrNoCaller
	}

	next, err := e.planSeq.Next(ctx)
	if err != nil {
		return 0, fmt.Errorf("allocate plan id: %w", err)
	}

	now := e.now()
	p := &plan.Plan{
		Entity:         types.NewEntity(now),
		ID:             id.PlanID(next),
		Merchant:       merchant,
		PricePerPeriod: in.PricePerPeriod,
		PeriodSecs:     in.PeriodSecs,
		Active:         true,
		Name:           in.Name,
		Description:    in.Description,
	}
	if err := e.store.CreatePlan(ctx, p); err != nil {
		return 0, fmt.Errorf("create plan %s: %w", p.ID, err)
	}

	e.logger.Info("plan created",
		"plan_id", p.ID,
		"merchant", merchant,
		"price_per_period", p.PricePerPeriod,
		"period_secs", p.PeriodSecs,
	)
	emitted = &event.PlanCreated{
		Meta:     event.NewMeta(now),
		PlanID:   p.ID,
		Merchant: merchant,
	}
	return p.ID, nil
}

// GetPlan returns the full plan record or ErrPlanNotFound.
func (e *Engine) GetPlan(ctx context.Context, planID id.PlanID) (*plan.Plan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.store.GetPlan(ctx, planID)
}

// ListPlans lists plans in allocation order.
func (e *Engine) ListPlans(ctx context.Context, opts plan.ListOpts) ([]*plan.Plan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.store.ListPlans(ctx, opts)
}

// PlanFinancial returns the plan's merchant, price and period. The boolean is
// false when the id was never issued.
func (e *Engine) PlanFinancial(ctx context.Context, planID id.PlanID) (plan.Financial, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.lookupPlan(ctx, planID)
	if err != nil || p == nil {
		return plan.Financial{}, false, err
	}
	return p.Financial(), true, nil
}

// PlanMetadata returns the plan's active flag, name and description. The
// boolean is false when the id was never issued.
func (e *Engine) PlanMetadata(ctx context.Context, planID id.PlanID) (plan.Metadata, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.lookupPlan(ctx, planID)
	if err != nil || p == nil {
		return plan.Metadata{}, false, err
	}
	return p.Metadata(), true, nil
}

// SetPlanActive toggles the plan's active flag. Only the plan's merchant may
// do so; anyone else, or an unknown plan, gets a rejected outcome.
func (e *Engine) SetPlanActive(ctx context.Context, planID id.PlanID, active bool) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	caller, ok := identity.Caller(ctx)
	if !ok {
		return Outcome{}, ErrNoCaller
	}

	p, err := e.lookupPlan(ctx, planID)
	if err != nil {
		return Outcome{}, err
	}
	if p == nil {
		return e.rejected("set plan active", ReasonPlanNotFound, "plan_id", planID), nil
	}
	if p.Merchant != caller {
		return e.rejected("set plan active", ReasonUnauthorized, "plan_id", planID, "caller", caller), nil
	}

	if err := e.store.SetPlanActive(ctx, planID, active); err != nil {
		return Outcome{}, fmt.Errorf("set plan %s active: %w", planID, err)
	}

	e.logger.Info("plan active flag set", "plan_id", planID, "active", active)
	return Applied, nil
}

// lookupPlan returns nil for an id that was never issued.
func (e *Engine) lookupPlan(ctx context.Context, planID id.PlanID) (*plan.Plan, error) {
	p, err := e.store.GetPlan(ctx, planID)
	if errors.Is(err, ErrPlanNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load plan %s: %w", planID, err)
	}
	return p, nil
}
