// Package plan defines merchant billing plans.
package plan

import (
	"github.com/xraph/ectoplasma/id"
	"github.com/xraph/ectoplasma/types"
)

// Plan is a merchant-defined recurring charge. Merchant, PricePerPeriod and
// PeriodSecs are immutable after creation; only the merchant may toggle
// Active.
type Plan struct {
	types.Entity
	ID             id.PlanID      `json:"id"`
	Merchant       types.Identity `json:"merchant"`
	PricePerPeriod types.Amount   `json:"price_per_period"`
	PeriodSecs     uint64         `json:"period_secs"`
	Active         bool           `json:"active"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
}

// Input holds the caller-supplied fields of a new plan.
type Input struct {
	PricePerPeriod types.Amount
	PeriodSecs     uint64
	Name           string
	Description    string
}

// Financial is the (merchant, price, period) view of a plan.
type Financial struct {
	Merchant       types.Identity `json:"merchant"`
	PricePerPeriod types.Amount   `json:"price_per_period"`
	PeriodSecs     uint64         `json:"period_secs"`
}

// Metadata is the (active, name, description) view of a plan.
type Metadata struct {
	Active      bool   `json:"active"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Financial returns the financial view.
func (p *Plan) Financial() Financial {
	return Financial{
		Merchant:       p.Merchant,
		PricePerPeriod: p.PricePerPeriod,
		PeriodSecs:     p.PeriodSecs,
	}
}

// Metadata returns the metadata view.
func (p *Plan) Metadata() Metadata {
	return Metadata{
		Active:      p.Active,
		Name:        p.Name,
		Description: p.Description,
	}
}
