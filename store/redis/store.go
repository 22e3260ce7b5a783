// Package redis implements store.Store on a Redis key space. Records are
// JSON documents; allocation order is kept in per-kind lists.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/go-redis/redis/v8"

	ectoplasma "github.com/xraph/ectoplasma"
	"github.com/xraph/ectoplasma/account"
	"github.com/xraph/ectoplasma/id"
	"github.com/xraph/ectoplasma/plan"
	ectostore "github.com/xraph/ectoplasma/store"
	"github.com/xraph/ectoplasma/subscription"
	"github.com/xraph/ectoplasma/types"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "ectoplasma"

// compile-time interface check
var _ ectostore.Store = (*Store)(nil)

// Store implements store.Store using Redis.
type Store struct {
	client *goredis.Client
	prefix string
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// New wraps an existing client.
func New(client *goredis.Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open parses a redis:// URL and connects.
func Open(ctx context.Context, url string, opts ...Option) (*Store, error) {
	redisOpts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("ectoplasma/redis: invalid url: %w", err)
	}
	redisOpts.DialTimeout = 5 * time.Second
	redisOpts.ReadTimeout = 3 * time.Second
	redisOpts.WriteTimeout = 3 * time.Second

	s := New(goredis.NewClient(redisOpts), opts...)
	if err := s.Ping(ctx); err != nil {
		_ = s.client.Close() //nolint:errcheck // already failing
		return nil, err
	}
	return s, nil
}

// Client returns the underlying redis client.
func (s *Store) Client() *goredis.Client { return s.client }

// Migrate is a no-op; Redis needs no schema.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ectoplasma/redis: %w", ectoplasma.ErrStoreNotReady, err)
	}
	return nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

// ==================== Keys ====================

func (s *Store) counterKey(name string) string { return s.prefix + ":counter:" + name }

func (s *Store) balanceKey(owner types.Identity) string {
	return s.prefix + ":balance:" + owner.String()
}

func (s *Store) planKey(planID id.PlanID) string { return s.prefix + ":plan:" + planID.String() }

func (s *Store) plansKey() string { return s.prefix + ":plans" }

func (s *Store) subKey(subID id.SubscriptionID) string { return s.prefix + ":sub:" + subID.String() }

func (s *Store) subsKey() string { return s.prefix + ":subs" }

// ==================== Counter Store ====================

func (s *Store) GetCounter(ctx context.Context, name string) (uint64, error) {
	raw, err := s.client.Get(ctx, s.counterKey(name)).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, ectoplasma.ErrCounterNotFound
	} else if err != nil {
		return 0, fmt.Errorf("ectoplasma/redis: get counter: %w", err)
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ectoplasma/redis: counter %s: %w", name, err)
	}
	return v, nil
}

func (s *Store) SetCounter(ctx context.Context, name string, value uint64) error {
	return s.client.Set(ctx, s.counterKey(name), strconv.FormatUint(value, 10), 0).Err()
}

// ==================== Account Store ====================

func (s *Store) GetAccount(ctx context.Context, owner types.Identity) (*account.Account, error) {
	var a account.Account
	if err := s.getJSON(ctx, s.balanceKey(owner), &a); err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ectoplasma.ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *Store) PutAccount(ctx context.Context, a *account.Account) error {
	return s.setJSON(ctx, s.balanceKey(a.Owner), a)
}

// ==================== Plan Store ====================

func (s *Store) CreatePlan(ctx context.Context, p *plan.Plan) error {
	return s.create(ctx, s.planKey(p.ID), s.plansKey(), p.ID.String(), p)
}

func (s *Store) GetPlan(ctx context.Context, planID id.PlanID) (*plan.Plan, error) {
	var p plan.Plan
	if err := s.getJSON(ctx, s.planKey(planID), &p); err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ectoplasma.ErrPlanNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListPlans(ctx context.Context, opts plan.ListOpts) ([]*plan.Plan, error) {
	ids, err := s.client.LRange(ctx, s.plansKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("ectoplasma/redis: list plans: %w", err)
	}

	keys := make([]string, len(ids))
	for i, raw := range ids {
		keys[i] = s.prefix + ":plan:" + raw
	}

	var result []*plan.Plan
	err = s.scanAll(ctx, keys, func(data []byte) error {
		p := new(plan.Plan)
		if err := json.Unmarshal(data, p); err != nil {
			return err
		}
		if opts.Merchant != "" && p.Merchant != opts.Merchant {
			return nil
		}
		if opts.ActiveOnly && !p.Active {
			return nil
		}
		result = append(result, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ectoplasma/redis: list plans: %w", err)
	}
	return ectostore.Page(result, opts.Limit, opts.Offset), nil
}

func (s *Store) SetPlanActive(ctx context.Context, planID id.PlanID, active bool) error {
	p := new(plan.Plan)
	err := s.update(ctx, s.planKey(planID), p, func() {
		p.Active = active
		p.Touch(time.Now())
	})
	if errors.Is(err, goredis.Nil) {
		return ectoplasma.ErrPlanNotFound
	}
	return err
}

// ==================== Subscription Store ====================

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	return s.create(ctx, s.subKey(sub.ID), s.subsKey(), sub.ID.String(), sub)
}

func (s *Store) GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	if err := s.getJSON(ctx, s.subKey(subID), &sub); err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ectoplasma.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (s *Store) ListSubscriptions(ctx context.Context, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	ids, err := s.client.LRange(ctx, s.subsKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("ectoplasma/redis: list subscriptions: %w", err)
	}

	keys := make([]string, len(ids))
	for i, raw := range ids {
		keys[i] = s.prefix + ":sub:" + raw
	}

	var result []*subscription.Subscription
	err = s.scanAll(ctx, keys, func(data []byte) error {
		sub := new(subscription.Subscription)
		if err := json.Unmarshal(data, sub); err != nil {
			return err
		}
		if opts.Subscriber != "" && sub.Subscriber != opts.Subscriber {
			return nil
		}
		if opts.PlanID != nil && sub.PlanID != *opts.PlanID {
			return nil
		}
		if opts.ActiveOnly && !sub.Active {
			return nil
		}
		result = append(result, sub)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ectoplasma/redis: list subscriptions: %w", err)
	}
	return ectostore.Page(result, opts.Limit, opts.Offset), nil
}

func (s *Store) DeactivateSubscription(ctx context.Context, subID id.SubscriptionID) error {
	sub := new(subscription.Subscription)
	err := s.update(ctx, s.subKey(subID), sub, func() {
		sub.Active = false
		sub.Touch(time.Now())
	})
	if errors.Is(err, goredis.Nil) {
		return ectoplasma.ErrSubscriptionNotFound
	}
	return err
}

func (s *Store) RecordBilling(ctx context.Context, subID id.SubscriptionID, periodsPaid uint32, billedAt *time.Time) error {
	sub := new(subscription.Subscription)
	err := s.update(ctx, s.subKey(subID), sub, func() {
		sub.PeriodsPaid = periodsPaid
		if billedAt == nil {
			sub.LastBilledAt = nil
			sub.Touch(time.Now().UTC())
			return
		}
		t := billedAt.UTC()
		sub.LastBilledAt = &t
		sub.Touch(t)
	})
	if errors.Is(err, goredis.Nil) {
		return ectoplasma.ErrSubscriptionNotFound
	}
	return err
}

// ==================== Helpers ====================

func (s *Store) getJSON(ctx context.Context, key string, dst any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return err
	} else if err != nil {
		return fmt.Errorf("ectoplasma/redis: get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("ectoplasma/redis: decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("ectoplasma/redis: encode %s: %w", key, err)
	}
	return s.client.Set(ctx, key, data, 0).Err()
}

// create writes a new record and appends its id to the index list in one
// transaction. An existing key yields ErrAlreadyExists.
func (s *Store) create(ctx context.Context, key, indexKey, member string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("ectoplasma/redis: encode %s: %w", key, err)
	}

	return s.client.Watch(ctx, func(tx *goredis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return ectoplasma.ErrAlreadyExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.RPush(ctx, indexKey, member)
			return nil
		})
		return err
	}, key)
}

// update loads key into dst, applies mutate and writes it back, failing
// with goredis.Nil when the key is absent.
func (s *Store) update(ctx context.Context, key string, dst any, mutate func()) error {
	return s.client.Watch(ctx, func(tx *goredis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, dst); err != nil {
			return fmt.Errorf("ectoplasma/redis: decode %s: %w", key, err)
		}
		mutate()
		out, err := json.Marshal(dst)
		if err != nil {
			return fmt.Errorf("ectoplasma/redis: encode %s: %w", key, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		return err
	}, key)
}

// scanAll fetches keys with MGET and calls fn for each present value in order.
func (s *Store) scanAll(ctx context.Context, keys []string, fn func([]byte) error) error {
	if len(keys) == 0 {
		return nil
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return err
	}
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		if err := fn([]byte(str)); err != nil {
			return err
		}
	}
	return nil
}
