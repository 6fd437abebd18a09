// README: Read-through Redis cache in front of the rate store.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"stayprice/internal/types"
)

const (
	defaultRateKeyPrefix = "rates:unit:%s:default"
	planListKeyPrefix    = "rates:unit:%s:plans"
	tableListKeyPrefix   = "rates:plan:%s:tables"
)

// recordSource is the subset of Store the cache reads through.
type recordSource interface {
	defaultRecord(ctx context.Context, unitID types.ID) (defaultRecord, bool, error)
	planRecords(ctx context.Context, unitID types.ID) ([]planRecord, error)
	tableRecords(ctx context.Context, f TableFilter) ([]tableRecord, error)
	planExists(ctx context.Context, planID types.ID) (bool, error)
}

// Cache serves the same read methods as Store. Entries are JSON with a TTL; any Redis
// failure is logged and the store answers instead.
type Cache struct {
	src   recordSource
	redis *redis.Client
	ttl   time.Duration
	log   *zap.Logger
}

func NewCache(store *Store, client *redis.Client, ttl time.Duration, log *zap.Logger) *Cache {
	return newCache(store, client, ttl, log)
}

func newCache(src recordSource, client *redis.Client, ttl time.Duration, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{src: src, redis: client, ttl: ttl, log: log}
}

type cachedDefault struct {
	Found bool           `json:"found"`
	Rate  *defaultRecord `json:"rate,omitempty"`
}

func (c *Cache) DefaultRate(ctx context.Context, unitID types.ID) (UnitDefaultRate, bool, error) {
	v, err := readThrough(ctx, c, fmt.Sprintf(defaultRateKeyPrefix, unitID), func() (cachedDefault, error) {
		rec, ok, err := c.src.defaultRecord(ctx, unitID)
		if err != nil || !ok {
			return cachedDefault{}, err
		}
		return cachedDefault{Found: true, Rate: &rec}, nil
	})
	if err != nil || !v.Found || v.Rate == nil {
		return UnitDefaultRate{}, false, err
	}
	return v.Rate.model(), true, nil
}

func (c *Cache) RatePlans(ctx context.Context, unitID types.ID) ([]RatePlan, error) {
	recs, err := readThrough(ctx, c, fmt.Sprintf(planListKeyPrefix, unitID), func() ([]planRecord, error) {
		return c.src.planRecords(ctx, unitID)
	})
	if err != nil {
		return nil, err
	}
	plans := make([]RatePlan, len(recs))
	for i, r := range recs {
		plans[i] = r.model()
	}
	return plans, nil
}

func (c *Cache) EnabledRatePlan(ctx context.Context, unitID types.ID, seg Segment) (RatePlan, int, error) {
	plans, err := c.RatePlans(ctx, unitID)
	if err != nil {
		return RatePlan{}, 0, err
	}
	plan, n := MatchPlan(plans, seg)
	return plan, n, nil
}

// ListRateTables matches Store.ListRateTables. The existence check behind an empty list
// is not cached.
func (c *Cache) ListRateTables(ctx context.Context, planID types.ID) ([]RateTable, error) {
	tables, err := c.tables(ctx, planID)
	if err != nil || len(tables) > 0 {
		return tables, err
	}
	return tables, requirePlan(ctx, c.src, planID)
}

func (c *Cache) tables(ctx context.Context, planID types.ID) ([]RateTable, error) {
	recs, err := readThrough(ctx, c, fmt.Sprintf(tableListKeyPrefix, planID), func() ([]tableRecord, error) {
		return c.src.tableRecords(ctx, NewTableFilter(planID))
	})
	if err != nil {
		return nil, err
	}
	out := make([]RateTable, 0, len(recs))
	for _, r := range recs {
		t, err := r.model()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (c *Cache) CoveringRateTable(ctx context.Context, planID types.ID, kind RateType, d civil.Date) (RateTable, int, error) {
	tables, err := c.tables(ctx, planID)
	if err != nil {
		return RateTable{}, 0, err
	}
	t, n := NewIndex(tables).Covering(planID, kind, d)
	return t, n, nil
}

func (c *Cache) RateTablesInRange(ctx context.Context, planID types.ID, from, to civil.Date) ([]RateTable, error) {
	tables, err := c.tables(ctx, planID)
	if err != nil {
		return nil, err
	}
	f := NewTableFilter(planID).Overlapping(from, to)
	var out []RateTable
	for _, t := range tables {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Invalidate drops cached entries of a unit and, optionally, of some of its plans.
func (c *Cache) Invalidate(ctx context.Context, unitID types.ID, planIDs ...types.ID) error {
	keys := []string{
		fmt.Sprintf(defaultRateKeyPrefix, unitID),
		fmt.Sprintf(planListKeyPrefix, unitID),
	}
	for _, id := range planIDs {
		keys = append(keys, fmt.Sprintf(tableListKeyPrefix, id))
	}
	return c.redis.Del(ctx, keys...).Err()
}

func readThrough[T any](ctx context.Context, c *Cache, key string, load func() (T, error)) (T, error) {
	raw, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var v T
		jerr := json.Unmarshal(raw, &v)
		if jerr == nil {
			return v, nil
		}
		c.log.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(jerr))
	case !errors.Is(err, redis.Nil):
		c.log.Warn("rate cache read failed", zap.String("key", key), zap.Error(err))
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	payload, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("rate cache encode failed", zap.String("key", key), zap.Error(err))
		return v, nil
	}
	if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.Warn("rate cache write failed", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}
