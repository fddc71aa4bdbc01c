package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/use-agent/seoaudit/config"
	"github.com/use-agent/seoaudit/models"
)

const redisKeyPrefix = "seoaudit:report:"

// redisEntry is the JSON value stored per key.
type redisEntry struct {
	StoredAt time.Time      `json:"stored_at"`
	Report   *models.Report `json:"report"`
}

// Redis stores reports as JSON strings that expire after the TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(cfg config.CacheConfig) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword, // "" if no auth
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	slog.Info("connected to redis", "addr", cfg.RedisAddr, "db", cfg.RedisDB)

	return newRedis(rdb, cfg.TTL), nil
}

func newRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Redis{client: rdb, ttl: ttl, now: time.Now}
}

// Get fetches and decodes the report under key. Errors are logged and
// reported as misses so a Redis outage never fails an audit.
func (r *Redis) Get(ctx context.Context, key string, maxAge time.Duration) (*models.Report, bool) {
	if maxAge <= 0 {
		return nil, false
	}

	raw, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("redis cache get failed", "error", err)
		}
		return nil, false
	}

	var e redisEntry
	if err := json.Unmarshal(raw, &e); err != nil || e.Report == nil {
		slog.Warn("redis cache entry unreadable", "key", key, "error", err)
		return nil, false
	}
	if r.now().Sub(e.StoredAt) > maxAge {
		return nil, false
	}
	return e.Report, true
}

// Set stores rep under key with the configured TTL.
func (r *Redis) Set(ctx context.Context, key string, rep *models.Report) {
	raw, err := json.Marshal(&redisEntry{StoredAt: r.now(), Report: rep})
	if err != nil {
		slog.Warn("redis cache encode failed", "error", err)
		return
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, raw, r.ttl).Err(); err != nil {
		slog.Warn("redis cache set failed", "error", err)
	}
}

// Close closes the client connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

// New selects the backend named by cfg.Backend ("memory" or "redis").
func New(cfg config.CacheConfig) (Store, error) {
	if cfg.Backend == "redis" {
		return NewRedis(cfg)
	}
	return NewMemory(cfg.MaxEntries, cfg.TTL), nil
}
