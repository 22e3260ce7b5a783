package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	ectoplasma "github.com/xraph/ectoplasma"
	"github.com/xraph/ectoplasma/account"
	"github.com/xraph/ectoplasma/id"
	"github.com/xraph/ectoplasma/plan"
	ectostore "github.com/xraph/ectoplasma/store"
	"github.com/xraph/ectoplasma/subscription"
	"github.com/xraph/ectoplasma/types"
)

// Collection name constants.
const (
	colCounters      = "ectoplasma_counters"
	colAccounts      = "ectoplasma_accounts"
	colPlans         = "ectoplasma_plans"
	colSubscriptions = "ectoplasma_subscriptions"
)

// compile-time interface check
var _ ectostore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all ectoplasma collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("%w: ectoplasma/mongo: %s indexes: %w", ectoplasma.ErrMigrationFailed, col, err)
		}
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
	var m counterModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": name}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return 0, ectoplasma.ErrCounterNotFound
		}
		return 0, fmt.Errorf("ectoplasma/mongo: get counter: %w", err)
	}
	return uint64(m.Value), nil //nolint:gosec // bit-cast
}

func (s *Store) SetCounter(ctx context.Context, name string, value uint64) error {
	m := &counterModel{Name: name, Value: int64(value)} //nolint:gosec // bit-cast
	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": name}).
		SetUpdate(bson.M{"$set": bson.M{"value": m.Value}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ectoplasma/mongo: set counter: %w", err)
	}
	return nil
}

// ==================== Account Store ====================

func (s *Store) GetAccount(ctx context.Context, owner types.Identity) (*account.Account, error) {
	var m accountModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": owner.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ectoplasma.ErrAccountNotFound
		}
		return nil, fmt.Errorf("ectoplasma/mongo: get account: %w", err)
	}
	return fromAccountModel(&m)
}

func (s *Store) PutAccount(ctx context.Context, a *account.Account) error {
	m := toAccountModel(a)
	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Owner}).
		SetUpdate(bson.M{"$set": bson.M{
			"balance":    m.Balance,
			"created_at": m.CreatedAt,
			"updated_at": m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ectoplasma/mongo: put account: %w", err)
	}
	return nil
}

// ==================== Plan Store ====================

func (s *Store) CreatePlan(ctx context.Context, p *plan.Plan) error {
	m := toPlanModel(p)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("ectoplasma/mongo: create plan: %w", err)
	}
	return nil
}

func (s *Store) GetPlan(ctx context.Context, planID id.PlanID) (*plan.Plan, error) {
	var m planModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(planID)}). //nolint:gosec // bit-cast
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ectoplasma.ErrPlanNotFound
		}
		return nil, fmt.Errorf("ectoplasma/mongo: get plan: %w", err)
	}
	return fromPlanModel(&m)
}

func (s *Store) ListPlans(ctx context.Context, opts plan.ListOpts) ([]*plan.Plan, error) {
	var models []planModel

	filter := bson.M{}
	if opts.Merchant != "" {
		filter["merchant"] = opts.Merchant.String()
	}
	if opts.ActiveOnly {
		filter["active"] = true
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("ectoplasma/mongo: list plans: %w", err)
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
	res, err := s.mdb.NewUpdate((*planModel)(nil)).
		Filter(bson.M{"_id": int64(planID)}). //nolint:gosec // bit-cast
		Set("active", active).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ectoplasma/mongo: set plan active: %w", err)
	}
	if res.MatchedCount() == 0 {
		return ectoplasma.ErrPlanNotFound
	}
	return nil
}

// ==================== Subscription Store ====================

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	m := toSubscriptionModel(sub)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("ectoplasma/mongo: create subscription: %w", err)
	}
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	var m subscriptionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(subID)}). //nolint:gosec // bit-cast
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ectoplasma.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("ectoplasma/mongo: get subscription: %w", err)
	}
	return fromSubscriptionModel(&m), nil
}

func (s *Store) ListSubscriptions(ctx context.Context, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	var models []subscriptionModel

	filter := bson.M{}
	if opts.Subscriber != "" {
		filter["subscriber"] = opts.Subscriber.String()
	}
	if opts.PlanID != nil {
		filter["plan_id"] = int64(*opts.PlanID) //nolint:gosec // bit-cast
	}
	if opts.ActiveOnly {
		filter["active"] = true
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("ectoplasma/mongo: list subscriptions: %w", err)
	}

	result := make([]*subscription.Subscription, len(models))
	for i := range models {
		result[i] = fromSubscriptionModel(&models[i])
	}
	return result, nil
}

func (s *Store) DeactivateSubscription(ctx context.Context, subID id.SubscriptionID) error {
	res, err := s.mdb.NewUpdate((*subscriptionModel)(nil)).
		Filter(bson.M{"_id": int64(subID)}). //nolint:gosec // bit-cast
		Set("active", false).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ectoplasma/mongo: deactivate subscription: %w", err)
	}
	if res.MatchedCount() == 0 {
		return ectoplasma.ErrSubscriptionNotFound
	}
	return nil
}

func (s *Store) RecordBilling(ctx context.Context, subID id.SubscriptionID, periodsPaid uint32, billedAt *time.Time) error {
	t := now()
	var last any
	if billedAt != nil {
		t = billedAt.UTC()
		last = t
	}
	res, err := s.mdb.NewUpdate((*subscriptionModel)(nil)).
		Filter(bson.M{"_id": int64(subID)}). //nolint:gosec // bit-cast
		Set("periods_paid", int64(periodsPaid)).
		Set("last_billed_at", last).
		Set("updated_at", t).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ectoplasma/mongo: record billing: %w", err)
	}
	if res.MatchedCount() == 0 {
		return ectoplasma.ErrSubscriptionNotFound
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all ectoplasma collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colCounters: nil,
		colAccounts: nil,
		colPlans: {
			{Keys: bson.D{{Key: "merchant", Value: 1}, {Key: "active", Value: 1}}},
		},
		colSubscriptions: {
			{Keys: bson.D{{Key: "subscriber", Value: 1}}},
			{Keys: bson.D{{Key: "plan_id", Value: 1}, {Key: "active", Value: 1}}},
			{
				Keys:    bson.D{{Key: "active", Value: 1}, {Key: "last_billed_at", Value: 1}},
				Options: options.Index().SetSparse(true),
			},
		},
	}
}
