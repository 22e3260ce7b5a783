package mongo

import (
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/ectoplasma/account"
	"github.com/xraph/ectoplasma/id"
	"github.com/xraph/ectoplasma/plan"
	"github.com/xraph/ectoplasma/subscription"
	"github.com/xraph/ectoplasma/types"
)

// ==================== Counter models ====================

type counterModel struct {
	grove.BaseModel `grove:"table:ectoplasma_counters"`

	Name  string `grove:"name,pk" bson:"_id"`
	Value int64  `grove:"value"   bson:"value"`
}

// ==================== Account models ====================

type accountModel struct {
	grove.BaseModel `grove:"table:ectoplasma_accounts"`

	Owner     string    `grove:"owner,pk"   bson:"_id"`
	Balance   string    `grove:"balance"    bson:"balance"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

func toAccountModel(a *account.Account) *accountModel {
	return &accountModel{
		Owner:     a.Owner.String(),
		Balance:   a.Balance.String(),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func fromAccountModel(m *accountModel) (*account.Account, error) {
	balance, err := types.ParseAmount(m.Balance)
	if err != nil {
		return nil, fmt.Errorf("ectoplasma/mongo: account %s balance: %w", m.Owner, err)
	}
	return &account.Account{
		Entity:  types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Owner:   types.Identity(m.Owner),
		Balance: balance,
	}, nil
}

// ==================== Plan models ====================

type planModel struct {
	grove.BaseModel `grove:"table:ectoplasma_plans"`

	ID             int64     `grove:"id,pk"            bson:"_id"`
	Merchant       string    `grove:"merchant"         bson:"merchant"`
	PricePerPeriod string    `grove:"price_per_period" bson:"price_per_period"`
	PeriodSecs     int64     `grove:"period_secs"      bson:"period_secs"`
	Active         bool      `grove:"active"           bson:"active"`
	Name           string    `grove:"name"             bson:"name"`
	Description    string    `grove:"description"      bson:"description"`
	CreatedAt      time.Time `grove:"created_at"       bson:"created_at"`
	UpdatedAt      time.Time `grove:"updated_at"       bson:"updated_at"`
}

func toPlanModel(p *plan.Plan) *planModel {
	return &planModel{
		ID:             int64(p.ID), //nolint:gosec // bit-cast
		Merchant:       p.Merchant.String(),
		PricePerPeriod: p.PricePerPeriod.String(),
		PeriodSecs:     int64(p.PeriodSecs), //nolint:gosec // bit-cast
		Active:         p.Active,
		Name:           p.Name,
		Description:    p.Description,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func fromPlanModel(m *planModel) (*plan.Plan, error) {
	price, err := types.ParseAmount(m.PricePerPeriod)
	if err != nil {
		return nil, fmt.Errorf("ectoplasma/mongo: plan %d price: %w", uint64(m.ID), err) //nolint:gosec // bit-cast
	}
	return &plan.Plan{
		Entity:         types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:             id.PlanID(uint64(m.ID)), //nolint:gosec // bit-cast
		Merchant:       types.Identity(m.Merchant),
		PricePerPeriod: price,
		PeriodSecs:     uint64(m.PeriodSecs), //nolint:gosec // bit-cast
		Active:         m.Active,
		Name:           m.Name,
		Description:    m.Description,
	}, nil
}

// ==================== Subscription models ====================

type subscriptionModel struct {
	grove.BaseModel `grove:"table:ectoplasma_subscriptions"`

	ID           int64      `grove:"id,pk"          bson:"_id"`
	Subscriber   string     `grove:"subscriber"     bson:"subscriber"`
	PlanID       int64      `grove:"plan_id"        bson:"plan_id"`
	Active       bool       `grove:"active"         bson:"active"`
	PeriodsPaid  int64      `grove:"periods_paid"   bson:"periods_paid"`
	LastBilledAt *time.Time `grove:"last_billed_at" bson:"last_billed_at,omitempty"`
	CreatedAt    time.Time  `grove:"created_at"     bson:"created_at"`
	UpdatedAt    time.Time  `grove:"updated_at"     bson:"updated_at"`
}

func toSubscriptionModel(s *subscription.Subscription) *subscriptionModel {
	return &subscriptionModel{
		ID:           int64(s.ID), //nolint:gosec // bit-cast
		Subscriber:   s.Subscriber.String(),
		PlanID:       int64(s.PlanID), //nolint:gosec // bit-cast
		Active:       s.Active,
		PeriodsPaid:  int64(s.PeriodsPaid),
		LastBilledAt: s.LastBilledAt,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func fromSubscriptionModel(m *subscriptionModel) *subscription.Subscription {
	return &subscription.Subscription{
		Entity:       types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:           id.SubscriptionID(uint64(m.ID)), //nolint:gosec // bit-cast
		Subscriber:   types.Identity(m.Subscriber),
		PlanID:       id.PlanID(uint64(m.PlanID)), //nolint:gosec // bit-cast
		Active:       m.Active,
		PeriodsPaid:  uint32(m.PeriodsPaid), //nolint:gosec // field holds a uint32
		LastBilledAt: m.LastBilledAt,
	}
}
