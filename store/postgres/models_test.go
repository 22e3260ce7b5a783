package postgres

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/ectoplasma/account"
	"github.com/xraph/ectoplasma/id"
	"github.com/xraph/ectoplasma/plan"
	"github.com/xraph/ectoplasma/subscription"
	"github.com/xraph/ectoplasma/types"
)

func TestPlanModelKeepsFullIDRange(t *testing.T) {
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p := &plan.Plan{
		Entity:         types.NewEntity(created),
		ID:             id.PlanID(math.MaxUint64),
		Merchant:       "merchant",
		PricePerPeriod: types.MustParseAmount("340282366920938463463374607431768211456"),
		PeriodSecs:     2592000,
		Active:         true,
		Name:           "Pro",
		Description:    "monthly",
	}

	m := toPlanModel(p)
	assert.Equal(t, int64(-1), m.ID)
	assert.Equal(t, "340282366920938463463374607431768211456", m.PricePerPeriod)

	got, err := fromPlanModel(m)
	require.NoError(t, err)
	assert.True(t, p.PricePerPeriod.Equal(got.PricePerPeriod))
	got.PricePerPeriod = p.PricePerPeriod
	assert.Equal(t, p, got)
}

func TestPlanModelRejectsBadPrice(t *testing.T) {
	_, err := fromPlanModel(&planModel{ID: 1, PricePerPeriod: "-5"})
	assert.Error(t, err)
}

func TestSubscriptionModel(t *testing.T) {
	billed := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	sub := &subscription.Subscription{
		Entity:       types.NewEntity(billed),
		ID:           12,
		Subscriber:   "alice",
		PlanID:       3,
		Active:       true,
		PeriodsPaid:  math.MaxUint32,
		LastBilledAt: &billed,
	}

	got := fromSubscriptionModel(toSubscriptionModel(sub))
	assert.Equal(t, sub, got)
}

func TestAccountModel(t *testing.T) {
	a := &account.Account{Owner: "alice", Balance: types.NewAmount(250)}

	m := toAccountModel(a)
	assert.Equal(t, "250", m.Balance)

	got, err := fromAccountModel(m)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(a.Balance))
	assert.Equal(t, a.Owner, got.Owner)
}
