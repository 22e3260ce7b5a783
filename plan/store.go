package plan

import (
	"context"

	"github.com/xraph/ectoplasma/id"
	"github.com/xraph/ectoplasma/types"
)

type Store interface {
	Create(ctx context.Context, p *Plan) error
	Get(ctx context.Context, planID id.PlanID) (*Plan, error)
	List(ctx context.Context, opts ListOpts) ([]*Plan, error)
	SetActive(ctx context.Context, planID id.PlanID, active bool) error
}

// ListOpts filters plan listings. Results are ordered by id.
type ListOpts struct {
	Merchant   types.Identity
	ActiveOnly bool
	Limit      int
	Offset     int
}
