package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/actuallystonmai/meal-recommendation-service/internal/domain"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

const (
	defaultTTL = 10 * time.Minute
	keyPrefix  = "rec:meal:"
)

type Cache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{
		client: client,
		ttl:    ttl,
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        "redis-result-cache",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// Key identifies one engine result: the fingerprint of the catalog, scaler and model it
// was computed with, the 12 user values and the set of excluded names. Order and duplicates in recent do not change the key.
func Key(fingerprint string, state domain.UserState, recent []string) string {
	names := append([]string(nil), recent...)
	sort.Strings(names)

	h := sha256.New()
	var buf [8]byte
	for _, v := range state {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	prev := ""
	for i, n := range names {
		if i > 0 && n == prev {
			continue
		}
		prev = n
		h.Write([]byte(n))
		h.Write([]byte{0})
	}
	return keyPrefix + fingerprint + ":" + hex.EncodeToString(h.Sum(nil))
}

// Get returns cached recommendations; found is false on a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]domain.Recommendation, bool, error) {
	val, err := c.breaker.Execute(func() ([]byte, error) {
		b, err := c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return b, err
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get recommendations from cache: %w", err)
	}
	if val == nil {
		return nil, false, nil
	}

	var recs []domain.Recommendation
	if err := json.Unmarshal(val, &recs); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal recommendations %s: %w", key, err)
	}
	return recs, true, nil
}

// Set stores recommendations under key for the cache TTL.
func (c *Cache) Set(ctx context.Context, key string, recs []domain.Recommendation) error {
	val, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}

	_, err = c.breaker.Execute(func() ([]byte, error) {
		return nil, c.client.Set(ctx, key, val, c.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to set recommendations in cache: %w", err)
	}
	return nil
}

// ClearStale deletes results computed by any engine other than fingerprint.
func (c *Cache) ClearStale(ctx context.Context, fingerprint string) (int, error) {
	current := keyPrefix + fingerprint + ":"
	deleted := 0
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if strings.HasPrefix(key, current) {
			continue
		}
		if err := c.client.Del(ctx, key).Err(); err != nil {
			return deleted, fmt.Errorf("cache delete %s: %w", key, err)
		}
		deleted++
	}
	return deleted, iter.Err()
}

// Ping connectivity
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
