package mongo

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/ectoplasma/plan"
	"github.com/xraph/ectoplasma/subscription"
	"github.com/xraph/ectoplasma/types"
)

func TestPlanModelRoundTrip(t *testing.T) {
	p := &plan.Plan{
		Entity:         types.NewEntity(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)),
		ID:             math.MaxUint64 - 1,
		Merchant:       "merchant",
		PricePerPeriod: types.NewAmount(100),
		PeriodSecs:     60,
		Active:         true,
		Name:           "Test",
	}

	got, err := fromPlanModel(toPlanModel(p))
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.Merchant, got.Merchant)
	assert.True(t, p.PricePerPeriod.Equal(got.PricePerPeriod))
	assert.Equal(t, p.Metadata(), got.Metadata())
}

func TestIndexesCoverBillingSweep(t *testing.T) {
	idx := migrationIndexes()
	require.Contains(t, idx, colSubscriptions)
	assert.Len(t, idx[colSubscriptions], 3)
	assert.Contains(t, idx, colCounters)
}

func TestSubscriptionModelOmitsUnbilled(t *testing.T) {
	sub := &subscription.Subscription{ID: 4, Subscriber: "alice", PlanID: 1, Active: true}
	m := toSubscriptionModel(sub)
	assert.Nil(t, m.LastBilledAt)
	assert.Equal(t, sub, fromSubscriptionModel(m))
}
