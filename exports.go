package ectoplasma

import (
	"github.com/xraph/ectoplasma/id"
	"github.com/xraph/ectoplasma/types"
)

// Re-export common types so callers don't have to import the types package.

// Amount is re-exported from types package.
type Amount = types.Amount

// Identity is re-exported from types package.
type Identity = types.Identity

// Entity is re-exported from types package.
type Entity = types.Entity

// PlanID is re-exported from id package.
type PlanID = id.PlanID

// SubscriptionID is re-exported from id package.
type SubscriptionID = id.SubscriptionID

// Re-export constructors
var (
	NewAmount     = types.NewAmount
	ParseAmount   = types.ParseAmount
	ParseIdentity = types.ParseIdentity
)
