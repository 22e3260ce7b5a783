// Package account defines prepaid balances held in custody per identity.
package account

import (
	"context"

	"github.com/xraph/ectoplasma/types"
)

// Account is a prepaid balance. A missing account and a zero balance are
// distinct at the storage layer.
type Account struct {
	types.Entity
	Owner   types.Identity `json:"owner"`
	Balance types.Amount   `json:"balance"`
}

type Store interface {
	// GetAccount returns the account or a not-found error.
	GetAccount(ctx context.Context, owner types.Identity) (*Account, error)
	// PutAccount creates or replaces the account.
	PutAccount(ctx context.Context, a *Account) error
}
