package ectoplasma

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/ectoplasma/account"
	"github.com/xraph/ectoplasma/identity"
	"github.com/xraph/ectoplasma/types"
)

// ──────────────────────────────────────────────────
// Ledger
// ──────────────────────────────────────────────────

// Deposit credits the caller's balance with the value attached to ctx.
// A zero attachment is a no-op.
func (e *Engine) Deposit(ctx context.Context) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	amount := identity.AttachedValue(ctx)
	if amount.IsZero() {
		return e.rejected("deposit", ReasonZeroAmount), nil
	}

	caller, ok := identity.Caller(ctx)
	if !ok {
		return Outcome{}, ErrNoCaller
	}

	balance, err := e.credit(ctx, caller, amount)
	if err != nil {
		return Outcome{}, err
	}

	e.logger.Info("deposit applied",
		"owner", caller,
		"amount", amount,
		"balance", balance,
	)
	return Applied, nil
}

// Balance returns the owner's balance; unknown owners hold zero.
func (e *Engine) Balance(ctx context.Context, owner types.Identity) (types.Amount, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, err := e.loadAccount(ctx, owner)
	if err != nil {
		return types.Amount{}, err
	}
	if a == nil {
		return types.Amount{}, nil
	}
	return a.Balance, nil
}

// loadAccount returns nil for an owner that never held a balance.
func (e *Engine) loadAccount(ctx context.Context, owner types.Identity) (*account.Account, error) {
	a, err := e.store.GetAccount(ctx, owner)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", owner, err)
	}
	return a, nil
}

func (e *Engine) credit(ctx context.Context, owner types.Identity, amount types.Amount) (types.Amount, error) {
	a, err := e.loadAccount(ctx, owner)
	if err != nil {
		return types.Amount{}, err
	}
	if a == nil {
		a = &account.Account{Entity: types.NewEntity(e.now()), Owner: owner}
	}

	next, err := a.Balance.Add(amount)
	if err != nil {
		return types.Amount{}, fmt.Errorf("%w: %s", ErrBalanceOverflow, owner)
	}

	a.Balance = next
	a.Touch(e.now())
	if err := e.store.PutAccount(ctx, a); err != nil {
		return types.Amount{}, fmt.Errorf("store account %s: %w", owner, err)
	}
	return next, nil
}

// debit reduces the owner's balance. It returns ErrInsufficientFunds without
// writing anything when the balance is below amount.
func (e *Engine) debit(ctx context.Context, owner types.Identity, amount types.Amount) (types.Amount, error) {
	a, err := e.loadAccount(ctx, owner)
	if err != nil {
		return types.Amount{}, err
	}
	if a == nil {
		if amount.IsZero() {
			return types.Amount{}, nil
		}
		return types.Amount{}, ErrInsufficientFunds
	}

	next, err := a.Balance.Sub(amount)
	if err != nil {
		return types.Amount{}, ErrInsufficientFunds
	}

	a.Balance = next
	a.Touch(e.now())
	if err := e.store.PutAccount(ctx, a); err != nil {
		return types.Amount{}, fmt.Errorf("store account %s: %w", owner, err)
	}
	return next, nil
}
