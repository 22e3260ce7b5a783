package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Ectoplasma store.
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
    value BIGINT NOT NULL DEFAULT 0
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
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
    id               BIGINT PRIMARY KEY,
    merchant         TEXT NOT NULL,
    price_per_period TEXT NOT NULL DEFAULT '0',
    period_secs      BIGINT NOT NULL DEFAULT 0,
    active           BOOLEAN NOT NULL DEFAULT TRUE,
    name             TEXT NOT NULL DEFAULT '',
    description      TEXT NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
    id             BIGINT PRIMARY KEY,
    subscriber     TEXT NOT NULL,
    plan_id        BIGINT NOT NULL,
    active         BOOLEAN NOT NULL DEFAULT TRUE,
    periods_paid   BIGINT NOT NULL DEFAULT 0,
    last_billed_at TIMESTAMPTZ,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
