package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Ectoplasma store (SQLite).
var Migrations = migrate.NewGroup("ectoplasma")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_ectoplasma_counters",
			Version: "20260101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS ectoplasma_counters (
    name  TEXT PRIMARY KEY,
    value INTEGER NOT NULL DEFAULT 0
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS ectoplasma_counters`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_ectoplasma_accounts",
			Version: "20260101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS ectoplasma_accounts (
    owner      TEXT PRIMARY KEY,
    balance    TEXT NOT NULL DEFAULT '0',
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS ectoplasma_accounts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_ectoplasma_plans",
			Version: "20260101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS ectoplasma_plans (
    id               INTEGER PRIMARY KEY,
    merchant         TEXT NOT NULL,
    price_per_period TEXT NOT NULL DEFAULT '0',
    period_secs      INTEGER NOT NULL DEFAULT 0,
    active           INTEGER NOT NULL DEFAULT 1,
    name             TEXT NOT NULL DEFAULT '',
    description      TEXT NOT NULL DEFAULT '',
    created_at       TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at       TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_ectoplasma_plans_merchant ON ectoplasma_plans (merchant, active);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS ectoplasma_plans`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_ectoplasma_subscriptions",
			Version: "20260101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS ectoplasma_subscriptions (
    id             INTEGER PRIMARY KEY,
    subscriber     TEXT NOT NULL,
    plan_id        INTEGER NOT NULL,
    active         INTEGER NOT NULL DEFAULT 1,
    periods_paid   INTEGER NOT NULL DEFAULT 0,
    last_billed_at TEXT,
    created_at     TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at     TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_ectoplasma_subs_subscriber ON ectoplasma_subscriptions (subscriber);
CREATE INDEX IF NOT EXISTS idx_ectoplasma_subs_plan ON ectoplasma_subscriptions (plan_id, active);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS ectoplasma_subscriptions`)
				return err
			},
		},
	)
}
