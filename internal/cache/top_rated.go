package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"pwarestaurants/internal/http-api/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// topRatedKey holds one hash field per requested limit.
	topRatedKey = "restaurants:top"
	// generationKey is bumped on every invalidation. Set only writes when
	// the generation still matches the one its Get observed.
	generationKey = "restaurants:top:gen"
)

// NoGeneration is returned by Get when the generation could not be read;
// Set ignores it.
const NoGeneration int64 = -1

// TopRatedCache keeps recent top-rated query results in Redis. Any write to
// restaurants or ratings drops the whole hash. A nil cache is a no-op.
type TopRatedCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

// NewTopRatedCache connects to the Redis instance at redisURL
// (redis://[user:pass@]host:port/db).
func NewTopRatedCache(redisURL string, ttl time.Duration, log logrus.FieldLogger) (*TopRatedCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	rdb := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewTopRatedCacheWithClient(rdb, ttl, log), nil
}

func NewTopRatedCacheWithClient(client *redis.Client, ttl time.Duration, log logrus.FieldLogger) *TopRatedCache {
	return &TopRatedCache{client: client, ttl: ttl, log: log}
}

// Get returns the cached rows for limit together with the current
// generation. Misses and Redis errors both report false so the caller falls
// through to the store; the generation is then passed back to Set.
func (c *TopRatedCache) Get(ctx context.Context, limit int) ([]models.TopRestaurant, int64, bool) {
	if c == nil || c.client == nil {
		return nil, NoGeneration, false
	}

	var rowsCmd *redis.StringCmd
	var genCmd *redis.StringCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		rowsCmd = pipe.HGet(ctx, topRatedKey, strconv.Itoa(limit))
		genCmd = pipe.Get(ctx, generationKey)
		return nil
	})
	if err != nil && err != redis.Nil {
		c.log.WithError(err).Warn("top-rated cache read failed")
		return nil, NoGeneration, false
	}

	gen, err := readGeneration(genCmd)
	if err != nil {
		c.log.WithError(err).Warn("top-rated cache generation is corrupt")
		return nil, NoGeneration, false
	}

	raw, err := rowsCmd.Bytes()
	if err != nil {
		return nil, gen, false
	}

	var rows []models.TopRestaurant
	if err := json.Unmarshal(raw, &rows); err != nil {
		c.log.WithError(err).Warn("top-rated cache entry is corrupt")
		return nil, gen, false
	}
	return rows, gen, true
}

// Set stores rows under limit and refreshes the TTL of the hash. Nothing is
// written when an Invalidate happened since the Get that returned gen.
func (c *TopRatedCache) Set(ctx context.Context, limit int, gen int64, rows []models.TopRestaurant) {
	if c == nil || c.client == nil || gen == NoGeneration {
		return
	}
	if rows == nil {
		rows = []models.TopRestaurant{}
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		c.log.WithError(err).Warn("top-rated cache encode failed")
		return
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(tx.Get(ctx, generationKey))
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, topRatedKey, strconv.Itoa(limit), payload)
			pipe.Expire(ctx, topRatedKey, c.ttl)
			return nil
		})
		return err
	}, generationKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		c.log.WithField("limit", limit).Debug("top-rated cache write skipped, data changed meanwhile")
	default:
		c.log.WithError(err).Warn("top-rated cache write failed")
	}
}

// Invalidate drops every cached limit and bumps the generation so reads
// that started before the write cannot repopulate the hash.
func (c *TopRatedCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, topRatedKey)
		return nil
	})
	if err != nil {
		c.log.WithError(err).Warn("top-rated cache invalidation failed")
	}
}

var errStaleGeneration = errors.New("top-rated generation changed")

// readGeneration treats a missing counter as generation 0.
func readGeneration(cmd *redis.StringCmd) (int64, error) {
	gen, err := cmd.Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

func (c *TopRatedCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
