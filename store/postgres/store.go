package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	ectoplasma "github.com/xraph/ectoplasma"
	"github.com/xraph/ectoplasma/account"
	"github.com/xraph/ectoplasma/id"
	"github.com/xraph/ectoplasma/plan"
	ectostore "github.com/xraph/ectoplasma/store"
	"github.com/xraph/ectoplasma/subscription"
	"github.com/xraph/ectoplasma/types"
)

// compile-time interface check
var _ ectostore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("ectoplasma/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: ectoplasma/postgres: %w", ectoplasma.ErrMigrationFailed, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Counter Store ====================

func (s *Store) GetCounter(ctx context.Context, name string) (uint64, error) {
	m := new(counterModel)
	err := s.pg.NewSelect(m).
		Where("name = $1", name).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return 0, ectoplasma.ErrCounterNotFound
		}
		return 0, err
	}
	return uint64(m.Value), nil //nolint:gosec // bit-cast
}

func (s *Store) SetCounter(ctx context.Context, name string, value uint64) error {
	m := &counterModel{Name: name, Value: int64(value)} //nolint:gosec // bit-cast
	_, err := s.pg.NewInsert(m).
		OnConflict("(name) DO UPDATE").
		Set("value = EXCLUDED.value").
		Exec(ctx)
	return err
}

// ==================== Account Store ====================

func (s *Store) GetAccount(ctx context.Context, owner types.Identity) (*account.Account, error) {
	m := new(accountModel)
	err := s.pg.NewSelect(m).
		Where("owner = $1", owner.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, ectoplasma.ErrAccountNotFound
		}
		return nil, err
	}
	return fromAccountModel(m)
}

func (s *Store) PutAccount(ctx context.Context, a *account.Account) error {
	m := toAccountModel(a)
	_, err := s.pg.NewInsert(m).
		OnConflict("(owner) DO UPDATE").
		Set("balance = EXCLUDED.balance").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// ==================== Plan Store ====================

func (s *Store) CreatePlan(ctx context.Context, p *plan.Plan) error {
	m := toPlanModel(p)
	_, err := s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetPlan(ctx context.Context, planID id.PlanID) (*plan.Plan, error) {
	m := new(planModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", int64(planID)). //nolint:gosec // bit-cast
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, ectoplasma.ErrPlanNotFound
		}
		return nil, err
	}
	return fromPlanModel(m)
}

func (s *Store) ListPlans(ctx context.Context, opts plan.ListOpts) ([]*plan.Plan, error) {
	var models []planModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if opts.Merchant != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("merchant = $%d", argIdx), opts.Merchant.String())
	}
	if opts.ActiveOnly {
		argIdx++
		q = q.Where(fmt.Sprintf("active = $%d", argIdx), true)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*plan.Plan, len(models))
	for i := range models {
		p, err := fromPlanModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) SetPlanActive(ctx context.Context, planID id.PlanID, active bool) error {
	res, err := s.pg.NewUpdate((*planModel)(nil)).
		Set("active = $1", active).
		Set("updated_at = $2", now()).
		Where("id = $3", int64(planID)). //nolint:gosec // bit-cast
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRow(res, ectoplasma.ErrPlanNotFound)
}

// ==================== Subscription Store ====================

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	m := toSubscriptionModel(sub)
	_, err := s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	m := new(subscriptionModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", int64(subID)). //nolint:gosec // bit-cast
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, ectoplasma.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return fromSubscriptionModel(m), nil
}

func (s *Store) ListSubscriptions(ctx context.Context, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	var models []subscriptionModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if opts.Subscriber != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("subscriber = $%d", argIdx), opts.Subscriber.String())
	}
	if opts.PlanID != nil {
		argIdx++
		q = q.Where(fmt.Sprintf("plan_id = $%d", argIdx), int64(*opts.PlanID)) //nolint:gosec // bit-cast
	}
	if opts.ActiveOnly {
		argIdx++
		q = q.Where(fmt.Sprintf("active = $%d", argIdx), true)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*subscription.Subscription, len(models))
	for i := range models {
		result[i] = fromSubscriptionModel(&models[i])
	}
	return result, nil
}

func (s *Store) DeactivateSubscription(ctx context.Context, subID id.SubscriptionID) error {
	res, err := s.pg.NewUpdate((*subscriptionModel)(nil)).
		Set("active = $1", false).
		Set("updated_at = $2", now()).
		Where("id = $3", int64(subID)). //nolint:gosec // bit-cast
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRow(res, ectoplasma.ErrSubscriptionNotFound)
}

func (s *Store) RecordBilling(ctx context.Context, subID id.SubscriptionID, periodsPaid uint32, billedAt *time.Time) error {
	t, last := billedTimes(billedAt)
	res, err := s.pg.NewUpdate((*subscriptionModel)(nil)).
		Set("periods_paid = $1", int64(periodsPaid)).
		Set("last_billed_at = $2", last).
		Set("updated_at = $3", t).
		Where("id = $4", int64(subID)). //nolint:gosec // bit-cast
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRow(res, ectoplasma.ErrSubscriptionNotFound)
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// billedTimes returns the update timestamp and the last_billed_at value.
// A nil billedAt stores NULL.
func billedTimes(billedAt *time.Time) (time.Time, any) {
	if billedAt == nil {
		return now(), nil
	}
	t := billedAt.UTC()
	return t, t
}

// expectRow maps an update that touched nothing to notFound.
func expectRow(res interface{ RowsAffected() (int64, error) }, notFound error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
