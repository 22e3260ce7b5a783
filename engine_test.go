package ectoplasma_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/ectoplasma"
	"github.com/xraph/ectoplasma/event"
	"github.com/xraph/ectoplasma/id"
	"github.com/xraph/ectoplasma/identity"
	"github.com/xraph/ectoplasma/plan"
	"github.com/xraph/ectoplasma/store/memory"
	"github.com/xraph/ectoplasma/subscription"
	"github.com/xraph/ectoplasma/transfer"
	"github.com/xraph/ectoplasma/types"
)

const (
	merchant   types.Identity = "merchant-a"
	subscriber types.Identity = "alice"
	stranger   types.Identity = "mallory"
)

// sink records every emitted event name in order.
type sink struct {
	mu     sync.Mutex
	events []event.Event
}

func (s *sink) Name() string { return "test-sink" }

func (s *sink) OnEvent(_ context.Context, e event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *sink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventName())
	}
	return out
}

type harness struct {
	engine   *ectoplasma.Engine
	store    *memory.Store
	payouts  *transfer.Recorder
	events   *sink
	ctx      context.Context
	merchant context.Context
	alice    context.Context
}

func newHarness(t *testing.T, opts ...ectoplasma.Option) *harness {
	t.Helper()

	h := &harness{
		store:   memory.New(),
		payouts: transfer.NewRecorder(),
		events:  &sink{},
		ctx:     context.Background(),
	}
	opts = append([]ectoplasma.Option{
		ectoplasma.WithTransfer(h.payouts),
		ectoplasma.WithPlugin(h.events),
	}, opts...)
	h.engine = ectoplasma.New(h.store, opts...)
	require.NoError(t, h.engine.Start(h.ctx))
	t.Cleanup(func() { _ = h.engine.Stop() })

	h.merchant = identity.WithCaller(h.ctx, merchant)
	h.alice = identity.WithCaller(h.ctx, subscriber)
	return h
}

func (h *harness) createPlan(t *testing.T, price uint64) id.PlanID {
	t.Helper()
	planID, err := h.engine.CreatePlan(h.merchant, plan.Input{
		PricePerPeriod: types.NewAmount(price),
		PeriodSecs:     2592000,
		Name:           "Test",
		Description:    "Desc",
	})
	require.NoError(t, err)
	return planID
}

func (h *harness) subscribe(t *testing.T, planID id.PlanID) id.SubscriptionID {
	t.Helper()
	subID, out, err := h.engine.Subscribe(h.alice, planID)
	require.NoError(t, err)
	require.True(t, out.Applied)
	return subID
}

func (h *harness) deposit(t *testing.T, who types.Identity, amount uint64) {
	t.Helper()
	out, err := h.engine.Deposit(identity.Call(h.ctx, who, types.NewAmount(amount)))
	require.NoError(t, err)
	require.True(t, out.Applied)
}

func (h *harness) balance(t *testing.T, who types.Identity) uint64 {
	t.Helper()
	b, err := h.engine.Balance(h.ctx, who)
	require.NoError(t, err)
	return b.Big().Uint64()
}

func (h *harness) periodsPaid(t *testing.T, subID id.SubscriptionID) uint32 {
	t.Helper()
	n, err := h.engine.SubscriptionPeriodsPaid(h.ctx, subID)
	require.NoError(t, err)
	return n
}

// ──────────────────────────────────────────────────
// Ledger
// ──────────────────────────────────────────────────

func TestDepositIsAdditive(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, uint64(0), h.balance(t, subscriber))
	h.deposit(t, subscriber, 70)
	h.deposit(t, subscriber, 30)
	assert.Equal(t, uint64(100), h.balance(t, subscriber))
	assert.Equal(t, uint64(0), h.balance(t, stranger))
}

func TestDepositZeroIsNoop(t *testing.T) {
	h := newHarness(t)

	out, err := h.engine.Deposit(h.alice)
	require.NoError(t, err)
	assert.False(t, out.Applied)
	assert.Equal(t, ectoplasma.ReasonZeroAmount, out.Reason)

	_, err = h.store.GetAccount(h.ctx, subscriber)
	assert.ErrorIs(t, err, ectoplasma.ErrAccountNotFound)
}

func TestDepositRequiresCaller(t *testing.T) {
	h := newHarness(t)

	_, err := h.engine.Deposit(identity.WithAttachedValue(h.ctx, types.NewAmount(5)))
	assert.ErrorIs(t, err, ectoplasma.ErrNoCaller)
}

func TestDepositOverflow(t *testing.T) {
	h := newHarness(t)

	out, err := h.engine.Deposit(identity.Call(h.ctx, subscriber, types.MaxAmount()))
	require.NoError(t, err)
	require.True(t, out.Applied)

	_, err = h.engine.Deposit(identity.Call(h.ctx, subscriber, types.NewAmount(1)))
	require.ErrorIs(t, err, ectoplasma.ErrBalanceOverflow)

	b, err := h.engine.Balance(h.ctx, subscriber)
	require.NoError(t, err)
	assert.True(t, b.Equal(types.MaxAmount()))
}

// ──────────────────────────────────────────────────
// Plans
// ──────────────────────────────────────────────────

func TestCreatePlan(t *testing.T) {
	h := newHarness(t)

	first := h.createPlan(t, 100)
	second := h.createPlan(t, 250)
	assert.Equal(t, id.PlanID(0), first)
	assert.Equal(t, id.PlanID(1), second)

	fin, ok, err := h.engine.PlanFinancial(h.ctx, first)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, merchant, fin.Merchant)
	assert.Equal(t, "100", fin.PricePerPeriod.String())
	assert.Equal(t, uint64(2592000), fin.PeriodSecs)

	meta, ok, err := h.engine.PlanMetadata(h.ctx, first)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, plan.Metadata{Active: true, Name: "Test", Description: "Desc"}, meta)

	assert.Equal(t, []string{event.NamePlanCreated, event.NamePlanCreated}, h.events.names())
}

func TestCreatePlanRequiresCaller(t *testing.T) {
	h := newHarness(t)

	_, err := h.engine.CreatePlan(h.ctx, plan.Input{PricePerPeriod: types.NewAmount(1)})
	assert.ErrorIs(t, err, ectoplasma.ErrNoCaller)
	assert.Empty(t, h.events.names())
}

func TestPlanAccessorsUnknownID(t *testing.T) {
	h := newHarness(t)

	_, ok, err := h.engine.PlanFinancial(h.ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = h.engine.PlanMetadata(h.ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.engine.GetPlan(h.ctx, 42)
	assert.ErrorIs(t, err, ectoplasma.ErrPlanNotFound)
}

func TestSetPlanActive(t *testing.T) {
	h := newHarness(t)
	planID := h.createPlan(t, 100)

	out, err := h.engine.SetPlanActive(identity.WithCaller(h.ctx, stranger), planID, false)
	require.NoError(t, err)
	assert.Equal(t, ectoplasma.ReasonUnauthorized, out.Reason)
	meta, _, _ := h.engine.PlanMetadata(h.ctx, planID)
	assert.True(t, meta.Active)

	out, err = h.engine.SetPlanActive(h.merchant, 99, false)
	require.NoError(t, err)
	assert.Equal(t, ectoplasma.ReasonPlanNotFound, out.Reason)

	out, err = h.engine.SetPlanActive(h.merchant, planID, false)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	meta, _, _ = h.engine.PlanMetadata(h.ctx, planID)
	assert.False(t, meta.Active)
}

func TestListPlans(t *testing.T) {
	h := newHarness(t)
	h.createPlan(t, 1)
	inactive := h.createPlan(t, 2)
	_, err := h.engine.CreatePlan(identity.WithCaller(h.ctx, "merchant-b"), plan.Input{PricePerPeriod: types.NewAmount(3)})
	require.NoError(t, err)
	_, err = h.engine.SetPlanActive(h.merchant, inactive, false)
	require.NoError(t, err)

	all, err := h.engine.ListPlans(h.ctx, plan.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := h.engine.ListPlans(h.ctx, plan.ListOpts{Merchant: merchant, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, id.PlanID(0), mine[0].ID)
}

func TestPlanSequenceSaturates(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.SetCounter(h.ctx, id.CounterPlan, math.MaxUint64-1))

	planID := h.createPlan(t, 1)
	assert.Equal(t, id.PlanID(math.MaxUint64-1), planID)

	next, err := h.store.GetCounter(h.ctx, id.CounterPlan)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), next)
}

func TestPlanSequenceExhausted(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.SetCounter(h.ctx, id.CounterPlan, math.MaxUint64))

	assert.Equal(t, id.PlanID(math.MaxUint64), h.createPlan(t, 1))

	_, err := h.engine.CreatePlan(h.merchant, plan.Input{PricePerPeriod: types.NewAmount(2)})
	require.ErrorIs(t, err, ectoplasma.ErrAlreadyExists)

	p, err := h.engine.GetPlan(h.ctx, id.PlanID(math.MaxUint64))
	require.NoError(t, err)
	assert.Equal(t, "1", p.PricePerPeriod.String())
}

// ──────────────────────────────────────────────────
// Subscriptions
// ──────────────────────────────────────────────────

func TestSubscribe(t *testing.T) {
	h := newHarness(t)
	planID := h.createPlan(t, 100)

	subID := h.subscribe(t, planID)
	assert.Equal(t, id.SubscriptionID(0), subID)

	core, ok, err := h.engine.SubscriptionCore(h.ctx, subID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, subscription.Core{Subscriber: subscriber, PlanID: planID, Active: true}, core)
	assert.Equal(t, uint32(0), h.periodsPaid(t, subID))

	assert.Equal(t, []string{event.NamePlanCreated, event.NameSubscribed}, h.events.names())
}

func TestSubscribeRejected(t *testing.T) {
	h := newHarness(t)
	planID := h.createPlan(t, 100)
	_, err := h.engine.SetPlanActive(h.merchant, planID, false)
	require.NoError(t, err)

	tests := []struct {
		name   string
		planID id.PlanID
		reason ectoplasma.Reason
	}{
		{"unknown plan", 7, ectoplasma.ReasonPlanNotFound},
		{"inactive plan", planID, ectoplasma.ReasonPlanInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subID, out, err := h.engine.Subscribe(h.alice, tt.planID)
			require.NoError(t, err)
			assert.Equal(t, id.SubscriptionID(0), subID)
			assert.False(t, out.Applied)
			assert.Equal(t, tt.reason, out.Reason)
		})
	}

	_, err = h.store.GetCounter(h.ctx, id.CounterSubscription)
	assert.ErrorIs(t, err, ectoplasma.ErrCounterNotFound)
	assert.NotContains(t, h.events.names(), event.NameSubscribed)
}

func TestCancelSubscription(t *testing.T) {
	h := newHarness(t)
	subID := h.subscribe(t, h.createPlan(t, 100))

	out, err := h.engine.CancelSubscription(identity.WithCaller(h.ctx, stranger), subID)
	require.NoError(t, err)
	assert.Equal(t, ectoplasma.ReasonUnauthorized, out.Reason)

	out, err = h.engine.CancelSubscription(h.alice, subID)
	require.NoError(t, err)
	assert.True(t, out.Applied)

	core, ok, err := h.engine.SubscriptionCore(h.ctx, subID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, core.Active)

	out, err = h.engine.CancelSubscription(h.alice, subID)
	require.NoError(t, err)
	assert.Equal(t, ectoplasma.ReasonSubscriptionInactive, out.Reason)

	out, err = h.engine.CancelSubscription(h.alice, 99)
	require.NoError(t, err)
	assert.Equal(t, ectoplasma.ReasonSubscriptionNotFound, out.Reason)

	assert.Equal(t,
		[]string{event.NamePlanCreated, event.NameSubscribed, event.NameSubscriptionCanceled},
		h.events.names(),
	)
}

func TestSubscriptionAccessorsUnknownID(t *testing.T) {
	h := newHarness(t)

	_, ok, err := h.engine.SubscriptionCore(h.ctx, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, uint32(0), h.periodsPaid(t, 3))

	_, err = h.engine.GetSubscription(h.ctx, 3)
	assert.ErrorIs(t, err, ectoplasma.ErrSubscriptionNotFound)
}

func TestListSubscriptions(t *testing.T) {
	h := newHarness(t)
	p0 := h.createPlan(t, 1)
	p1 := h.createPlan(t, 1)
	h.subscribe(t, p0)
	canceled := h.subscribe(t, p1)
	_, _, err := h.engine.Subscribe(identity.WithCaller(h.ctx, "bob"), p1)
	require.NoError(t, err)
	_, err = h.engine.CancelSubscription(h.alice, canceled)
	require.NoError(t, err)

	mine, err := h.engine.ListSubscriptions(h.ctx, subscription.ListOpts{Subscriber: subscriber})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	onP1, err := h.engine.ListSubscriptions(h.ctx, subscription.ListOpts{PlanID: &p1, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, onP1, 1)
	assert.Equal(t, types.Identity("bob"), onP1[0].Subscriber)

	page, err := h.engine.ListSubscriptions(h.ctx, subscription.ListOpts{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, canceled, page[0].ID)
}

// ──────────────────────────────────────────────────
// Billing
// ──────────────────────────────────────────────────

func TestBillingScenario(t *testing.T) {
	h := newHarness(t)
	planID := h.createPlan(t, 100)
	subID := h.subscribe(t, planID)
	h.deposit(t, subscriber, 200)

	out, err := h.engine.ProcessBilling(h.ctx, subID)
	require.NoError(t, err)
	require.True(t, out.Applied)

	assert.Equal(t, uint32(1), h.periodsPaid(t, subID))
	assert.Equal(t, uint64(100), h.balance(t, subscriber))
	assert.Equal(t, "100", h.payouts.Received(merchant).String())

	sub, err := h.engine.GetSubscription(h.ctx, subID)
	require.NoError(t, err)
	assert.NotNil(t, sub.LastBilledAt)

	h.events.mu.Lock()
	last := h.events.events[len(h.events.events)-1]
	h.events.mu.Unlock()
	billed, ok := last.(*event.BillingProcessed)
	require.True(t, ok)
	assert.Equal(t, subID, billed.SubscriptionID)
	assert.Equal(t, planID, billed.PlanID)
	assert.Equal(t, subscriber, billed.Subscriber)
	assert.Equal(t, merchant, billed.Merchant)
	assert.Equal(t, uint32(0), billed.PeriodIndex)
	assert.Equal(t, "100", billed.PricePerPeriod.String())
}

func TestBillingRepeated(t *testing.T) {
	h := newHarness(t)
	subID := h.subscribe(t, h.createPlan(t, 40))
	h.deposit(t, subscriber, 1000)

	const n = 5
	for i := 0; i < n; i++ {
		out, err := h.engine.ProcessBilling(h.ctx, subID)
		require.NoError(t, err)
		require.True(t, out.Applied)
	}

	assert.Equal(t, uint32(n), h.periodsPaid(t, subID))
	assert.Equal(t, uint64(1000-n*40), h.balance(t, subscriber))
	assert.Equal(t, "200", h.payouts.Received(merchant).String())
	assert.Len(t, h.payouts.Payouts(), n)
}

func TestBillingWithoutFunds(t *testing.T) {
	h := newHarness(t)
	subID := h.subscribe(t, h.createPlan(t, 100))

	out, err := h.engine.ProcessBilling(h.ctx, subID)
	require.NoError(t, err)
	assert.Equal(t, ectoplasma.ReasonInsufficientFunds, out.Reason)

	h.deposit(t, subscriber, 99)
	out, err = h.engine.ProcessBilling(h.ctx, subID)
	require.NoError(t, err)
	assert.Equal(t, ectoplasma.ReasonInsufficientFunds, out.Reason)

	assert.Equal(t, uint32(0), h.periodsPaid(t, subID))
	assert.Equal(t, uint64(99), h.balance(t, subscriber))
	assert.Empty(t, h.payouts.Payouts())
	assert.NotContains(t, h.events.names(), event.NameBillingProcessed)
}

func TestBillingRejections(t *testing.T) {
	h := newHarness(t)
	planID := h.createPlan(t, 10)
	active := h.subscribe(t, planID)
	canceled := h.subscribe(t, planID)
	h.deposit(t, subscriber, 1000)
	_, err := h.engine.CancelSubscription(h.alice, canceled)
	require.NoError(t, err)

	out, err := h.engine.ProcessBilling(h.ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, ectoplasma.ReasonSubscriptionNotFound, out.Reason)

	out, err = h.engine.ProcessBilling(h.ctx, canceled)
	require.NoError(t, err)
	assert.Equal(t, ectoplasma.ReasonSubscriptionInactive, out.Reason)

	_, err = h.engine.SetPlanActive(h.merchant, planID, false)
	require.NoError(t, err)
	out, err = h.engine.ProcessBilling(h.ctx, active)
	require.NoError(t, err)
	assert.Equal(t, ectoplasma.ReasonPlanInactive, out.Reason)
	assert.ErrorIs(t, out.Err(), ectoplasma.ErrPlanInactive)

	assert.Equal(t, uint64(1000), h.balance(t, subscriber))
	assert.Equal(t, uint32(0), h.periodsPaid(t, active))
	assert.NotContains(t, h.events.names(), event.NameBillingProcessed)

	_, err = h.engine.SetPlanActive(h.merchant, planID, true)
	require.NoError(t, err)
	out, err = h.engine.ProcessBilling(h.ctx, active)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, uint32(1), h.periodsPaid(t, active))
}

func TestBillingTransferFailure(t *testing.T) {
	boom := errors.New("custody unavailable")
	h := newHarness(t, ectoplasma.WithTransfer(transfer.Func(
		func(context.Context, types.Identity, types.Amount) error { return boom },
	)))
	subID := h.subscribe(t, h.createPlan(t, 100))
	h.deposit(t, subscriber, 150)
	before := h.events.names()

	_, err := h.engine.ProcessBilling(h.ctx, subID)
	require.ErrorIs(t, err, ectoplasma.ErrTransferFailed)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, uint64(150), h.balance(t, subscriber))
	assert.Equal(t, uint32(0), h.periodsPaid(t, subID))
	assert.Equal(t, before, h.events.names())

	sub, err := h.engine.GetSubscription(h.ctx, subID)
	require.NoError(t, err)
	assert.Nil(t, sub.LastBilledAt)
}

func TestBillingTransferFailureRestoresLastBilled(t *testing.T) {
	var fail bool
	h := newHarness(t, ectoplasma.WithTransfer(transfer.Func(
		func(context.Context, types.Identity, types.Amount) error {
			if fail {
				return errors.New("custody unavailable")
			}
			return nil
		},
	)))
	subID := h.subscribe(t, h.createPlan(t, 100))
	h.deposit(t, subscriber, 300)

	out, err := h.engine.ProcessBilling(h.ctx, subID)
	require.NoError(t, err)
	require.True(t, out.Applied)
	first, err := h.engine.GetSubscription(h.ctx, subID)
	require.NoError(t, err)
	require.NotNil(t, first.LastBilledAt)

	fail = true
	_, err = h.engine.ProcessBilling(h.ctx, subID)
	require.ErrorIs(t, err, ectoplasma.ErrTransferFailed)

	after, err := h.engine.GetSubscription(h.ctx, subID)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), after.PeriodsPaid)
	require.NotNil(t, after.LastBilledAt)
	assert.True(t, first.LastBilledAt.Equal(*after.LastBilledAt))
	assert.Equal(t, uint64(200), h.balance(t, subscriber))
}

// brokenBillingStore fails every billing record write.
type brokenBillingStore struct {
	*memory.Store
}

func (brokenBillingStore) RecordBilling(context.Context, id.SubscriptionID, uint32, *time.Time) error {
	return errors.New("disk full")
}

func TestBillingRecordFailureLeavesNoCharge(t *testing.T) {
	ctx := context.Background()
	payouts := transfer.NewRecorder()
	events := &sink{}
	engine := ectoplasma.New(brokenBillingStore{memory.New()},
		ectoplasma.WithTransfer(payouts),
		ectoplasma.WithPlugin(events),
	)
	require.NoError(t, engine.Start(ctx))
	t.Cleanup(func() { _ = engine.Stop() })

	planID, err := engine.CreatePlan(identity.WithCaller(ctx, merchant), plan.Input{
		PricePerPeriod: types.NewAmount(100),
		PeriodSecs:     2592000,
	})
	require.NoError(t, err)
	subID, out, err := engine.Subscribe(identity.WithCaller(ctx, subscriber), planID)
	require.NoError(t, err)
	require.True(t, out.Applied)
	out, err = engine.Deposit(identity.Call(ctx, subscriber, types.NewAmount(200)))
	require.NoError(t, err)
	require.True(t, out.Applied)

	_, err = engine.ProcessBilling(ctx, subID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ectoplasma.ErrCompensationFailed)

	bal, err := engine.Balance(ctx, subscriber)
	require.NoError(t, err)
	assert.Equal(t, "200", bal.String())
	assert.True(t, payouts.Received(merchant).IsZero())
	assert.Empty(t, payouts.Payouts())

	paid, err := engine.SubscriptionPeriodsPaid(ctx, subID)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), paid)
	assert.NotContains(t, events.names(), event.NameBillingProcessed)
}

func TestBillingPeriodsSaturate(t *testing.T) {
	h := newHarness(t)
	subID := h.subscribe(t, h.createPlan(t, 10))
	h.deposit(t, subscriber, 100)

	seeded := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, h.store.RecordBilling(h.ctx, subID, math.MaxUint32, &seeded))

	out, err := h.engine.ProcessBilling(h.ctx, subID)
	require.NoError(t, err)
	require.True(t, out.Applied)
	assert.Equal(t, uint32(math.MaxUint32), h.periodsPaid(t, subID))
	assert.Equal(t, uint64(90), h.balance(t, subscriber))

	var billed *event.BillingProcessed
	for _, e := range h.events.events {
		if b, ok := e.(*event.BillingProcessed); ok {
			billed = b
		}
	}
	require.NotNil(t, billed)
	assert.Equal(t, uint32(math.MaxUint32), billed.PeriodIndex)
}

func TestBillingZeroPrice(t *testing.T) {
	h := newHarness(t)
	subID := h.subscribe(t, h.createPlan(t, 0))

	out, err := h.engine.ProcessBilling(h.ctx, subID)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, uint32(1), h.periodsPaid(t, subID))
}

// ──────────────────────────────────────────────────
// Plugins
// ──────────────────────────────────────────────────

// lookback reads the engine back from inside an event hook.
type lookback struct {
	engine *ectoplasma.Engine
	seen   []string
}

func (l *lookback) Name() string { return "lookback" }

func (l *lookback) OnInit(_ context.Context, engine interface{}) error {
	l.engine = engine.(*ectoplasma.Engine)
	return nil
}

func (l *lookback) OnPlanCreated(ctx context.Context, e *event.PlanCreated) error {
	p, err := l.engine.GetPlan(ctx, e.PlanID)
	if err != nil {
		return err
	}
	l.seen = append(l.seen, p.Name)
	return nil
}

func TestPluginHookCanCallEngine(t *testing.T) {
	l := &lookback{}
	h := newHarness(t, ectoplasma.WithPlugin(l))

	start := time.Now()
	h.createPlan(t, 100)

	assert.Equal(t, []string{"Test"}, l.seen)
	assert.Less(t, time.Since(start), time.Second)
}
