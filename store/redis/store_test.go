package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/ectoplasma"
	"github.com/xraph/ectoplasma/account"
	"github.com/xraph/ectoplasma/id"
	"github.com/xraph/ectoplasma/identity"
	"github.com/xraph/ectoplasma/plan"
	"github.com/xraph/ectoplasma/store/redis"
	"github.com/xraph/ectoplasma/subscription"
	"github.com/xraph/ectoplasma/types"
)

func setupStore(t *testing.T) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	s, err := redis.Open(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestOpenInvalidURL(t *testing.T) {
	_, err := redis.Open(context.Background(), "not-a-url")
	assert.Error(t, err)
}

func TestCounters(t *testing.T) {
	s, mr := setupStore(t)
	ctx := context.Background()

	_, err := s.GetCounter(ctx, id.CounterPlan)
	require.ErrorIs(t, err, ectoplasma.ErrCounterNotFound)

	require.NoError(t, s.SetCounter(ctx, id.CounterPlan, 18446744073709551615))
	v, err := s.GetCounter(ctx, id.CounterPlan)
	require.NoError(t, err)
	assert.Equal(t, uint64(18446744073709551615), v)

	raw, err := mr.Get("ectoplasma:counter:plan")
	require.NoError(t, err)
	assert.Equal(t, "18446744073709551615", raw)
}

func TestAccounts(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	_, err := s.GetAccount(ctx, "alice")
	require.ErrorIs(t, err, ectoplasma.ErrAccountNotFound)

	big := types.MustParseAmount("1000000000000000000000000000000")
	require.NoError(t, s.PutAccount(ctx, &account.Account{Owner: "alice", Balance: big}))

	a, err := s.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, a.Balance.Equal(big))
}

func TestPlans(t *testing.T) {
	s, mr := setupStore(t)
	ctx := context.Background()

	for i, m := range []types.Identity{"m1", "m2", "m1"} {
		require.NoError(t, s.CreatePlan(ctx, &plan.Plan{
			ID:             id.PlanID(i),
			Merchant:       m,
			PricePerPeriod: types.NewAmount(uint64(10 * (i + 1))),
			Active:         true,
		}))
	}
	require.ErrorIs(t, s.CreatePlan(ctx, &plan.Plan{ID: 1}), ectoplasma.ErrAlreadyExists)

	order, err := mr.List("ectoplasma:plans")
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2"}, order)

	require.NoError(t, s.SetPlanActive(ctx, 0, false))
	require.ErrorIs(t, s.SetPlanActive(ctx, 7, false), ectoplasma.ErrPlanNotFound)

	p, err := s.GetPlan(ctx, 0)
	require.NoError(t, err)
	assert.False(t, p.Active)
	assert.Equal(t, "10", p.PricePerPeriod.String())

	active, err := s.ListPlans(ctx, plan.ListOpts{Merchant: "m1", ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, id.PlanID(2), active[0].ID)

	page, err := s.ListPlans(ctx, plan.ListOpts{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestSubscriptions(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSubscription(ctx, &subscription.Subscription{ID: 0, Subscriber: "alice", PlanID: 3, Active: true}))
	require.NoError(t, s.CreateSubscription(ctx, &subscription.Subscription{ID: 1, Subscriber: "bob", PlanID: 3, Active: true}))

	billedAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordBilling(ctx, 0, 2, &billedAt))
	require.NoError(t, s.DeactivateSubscription(ctx, 1))
	require.ErrorIs(t, s.DeactivateSubscription(ctx, 9), ectoplasma.ErrSubscriptionNotFound)

	sub, err := s.GetSubscription(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), sub.PeriodsPaid)
	require.NotNil(t, sub.LastBilledAt)
	assert.True(t, billedAt.Equal(*sub.LastBilledAt))

	planID := id.PlanID(3)
	active, err := s.ListSubscriptions(ctx, subscription.ListOpts{PlanID: &planID, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, types.Identity("alice"), active[0].Subscriber)
}

func TestEngineOnRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	s := redis.New(client, redis.WithPrefix("test"))

	ctx := context.Background()
	e := ectoplasma.New(s)
	require.NoError(t, e.Start(ctx))
	defer func() { _ = e.Stop() }()

	merchant := identity.WithCaller(ctx, "merchant")
	planID, err := e.CreatePlan(merchant, plan.Input{PricePerPeriod: types.NewAmount(100), PeriodSecs: 60})
	require.NoError(t, err)

	alice := identity.WithCaller(ctx, "alice")
	subID, out, err := e.Subscribe(alice, planID)
	require.NoError(t, err)
	require.True(t, out.Applied)

	_, err = e.Deposit(identity.WithAttachedValue(alice, types.NewAmount(200)))
	require.NoError(t, err)

	out, err = e.ProcessBilling(ctx, subID)
	require.NoError(t, err)
	assert.True(t, out.Applied)

	paid, err := e.SubscriptionPeriodsPaid(ctx, subID)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), paid)

	assert.True(t, mr.Exists("test:balance:alice"))
	assert.True(t, mr.Exists("test:sub:0"))
}
