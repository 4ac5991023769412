package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"

	"product-catalog-api/internal/domain"
	"product-catalog-api/internal/paging"
)

// Redis key layout.
const (
	redisProductKeyPrefix = "catalog:product:"
	redisProductIndexKey  = "catalog:products"
	redisProductSeqKey    = "catalog:products:seq"
)

// Index scores are float64, so ids above 2^53 lose precision in range
// scans. Postgres BIGSERIAL ids stay far below that in practice.
const redisMaxExactID = 1 << 53

// redisScanBatch is how many index members are fetched per round trip when
// filling a window.
const redisScanBatch = 64

// RedisStore implements ProductStore on Redis: one JSON document per product
// plus a sorted set of ids scored by id for keyset scans.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a new RedisStore backed by rdb.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func productKey(id int64) string {
	return redisProductKeyPrefix + strconv.FormatInt(id, 10)
}

// saveProductScript writes the document and its index entry and raises the
// sequence to at least the saved id, so ids taken from the sequence never
// land on a product saved with an explicit id. With ARGV[3] == "new" an
// existing document is left alone and 0 is returned.
//
// KEYS: product doc, index, sequence. ARGV: id, doc, mode.
var saveProductScript = redis.NewScript(`
if ARGV[3] == "new" and redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("SET", KEYS[1], ARGV[2])
redis.call("ZADD", KEYS[2], ARGV[1], ARGV[1])
local seq = tonumber(redis.call("GET", KEYS[3]) or "0")
if seq < tonumber(ARGV[1]) then
  redis.call("SET", KEYS[3], ARGV[1])
end
return 1
`)

// redisMaxIDAttempts bounds how often Save draws a fresh id when the drawn
// one is already taken.
const redisMaxIDAttempts = 16

// Save writes the document and its index entry atomically. Products without
// id get the next free id from the sequence counter; products with an id
// overwrite the stored document.
func (s *RedisStore) Save(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID != nil {
		if *product.ID > redisMaxExactID {
			return nil, fmt.Errorf("%w: id %d exceeds the read store index range", ErrConstraint, *product.ID)
		}
		if _, err := s.writeProduct(ctx, product, "put"); err != nil {
			return nil, err
		}
		return &product, nil
	}

	for attempt := 0; attempt < redisMaxIDAttempts; attempt++ {
		id, err := s.rdb.Incr(ctx, redisProductSeqKey).Result()
		if err != nil {
			return nil, fmt.Errorf("store: Save failed to allocate id: %w", err)
		}
		candidate := product.WithID(id)
		written, err := s.writeProduct(ctx, candidate, "new")
		if err != nil {
			return nil, err
		}
		if written {
			return &candidate, nil
		}
	}
	return nil, fmt.Errorf("store: Save found no free id after %d attempts", redisMaxIDAttempts)
}

func (s *RedisStore) writeProduct(ctx context.Context, product domain.Product, mode string) (bool, error) {
	doc, err := json.Marshal(product)
	if err != nil {
		return false, fmt.Errorf("store: Save failed to encode product: %w", err)
	}

	id := *product.ID
	member := strconv.FormatInt(id, 10)
	written, err := saveProductScript.Run(ctx, s.rdb,
		[]string{productKey(id), redisProductIndexKey, redisProductSeqKey},
		member, doc, mode,
	).Int()
	if err != nil {
		return false, fmt.Errorf("store: Save failed to write product %d: %w", id, err)
	}
	return written == 1, nil
}

func (s *RedisStore) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	doc, err := s.rdb.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: FindByID failed to read product %d: %w", id, err)
	}
	var p domain.Product
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("store: FindByID failed to decode product %d: %w", id, err)
	}
	return &p, nil
}

func (s *RedisStore) FindActiveByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *RedisStore) DeactivateProduct(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return p, nil
	}
	return s.Save(ctx, p.Deactivated())
}

func (s *RedisStore) FindActiveProducts(ctx context.Context, query domain.PaginationQuery, filter domain.ProductFilter) (domain.PaginatedResult[domain.Product], error) {
	return paginate(ctx, s, query, filter)
}

// FetchWindow walks the id index from the resume key in batches, loading
// documents and applying the predicate until the window is full.
func (s *RedisStore) FetchWindow(ctx context.Context, w paging.Window) ([]domain.Product, error) {
	products := make([]domain.Product, 0, w.Limit)
	bound := w.After

	for len(products) < w.Limit {
		members, err := s.indexBatch(ctx, bound, w.Descending)
		if err != nil {
			return nil, fmt.Errorf("store: FetchWindow failed to scan index: %w", err)
		}
		if len(members) == 0 {
			break
		}

		keys := make([]string, len(members))
		for i, m := range members {
			keys[i] = redisProductKeyPrefix + m
		}
		docs, err := s.rdb.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, fmt.Errorf("store: FetchWindow failed to load products: %w", err)
		}

		for i, raw := range docs {
			doc, ok := raw.(string)
			if !ok {
				// Index entry without a document; skip it.
				continue
			}
			var p domain.Product
			if err := json.Unmarshal([]byte(doc), &p); err != nil {
				return nil, fmt.Errorf("store: FetchWindow failed to decode %s: %w", keys[i], err)
			}
			if !w.Predicate.Matches(p) {
				continue
			}
			products = append(products, p)
			if len(products) == w.Limit {
				break
			}
		}

		last, err := strconv.ParseInt(members[len(members)-1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("store: FetchWindow found malformed index member %q: %w", members[len(members)-1], err)
		}
		bound = &last
		if len(members) < redisScanBatch {
			break
		}
	}
	return products, nil
}

func (s *RedisStore) indexBatch(ctx context.Context, after *int64, descending bool) ([]string, error) {
	if descending {
		hi := "+inf"
		if after != nil {
			hi = "(" + strconv.FormatInt(*after, 10)
		}
		return s.rdb.ZRevRangeByScore(ctx, redisProductIndexKey, &redis.ZRangeBy{
			Min: "-inf", Max: hi, Count: redisScanBatch,
		}).Result()
	}
	lo := "-inf"
	if after != nil {
		lo = "(" + strconv.FormatInt(*after, 10)
	}
	return s.rdb.ZRangeByScore(ctx, redisProductIndexKey, &redis.ZRangeBy{
		Min: lo, Max: "+inf", Count: redisScanBatch,
	}).Result()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
