package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
	"github.com/redis/go-redis/v9"
)

// Client is the subset of *redis.Client the cache needs.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// Source is the authoritative reader behind the cache.
type Source interface {
	Config(ctx context.Context) (model.ClubConfig, error)
	Snapshot(ctx context.Context, date model.Date, court int) (model.Snapshot, error)
}

// Reader serves club config and day snapshots from Redis, falling back to
// Source on a miss or a Redis error. Entries are keyed by a generation
// counter, so Invalidate drops every entry at once.
type Reader struct {
	rdb    Client
	src    Source
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

func NewReader(rdb Client, src Source, ttl time.Duration, prefix string, logger *slog.Logger) *Reader {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if prefix == "" {
		prefix = "courtbook"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{rdb: rdb, src: src, ttl: ttl, prefix: prefix, logger: logger}
}

func (r *Reader) genKey() string { return r.prefix + ":gen" }

func (r *Reader) generation(ctx context.Context) (int64, error) {
	v, err := r.rdb.Get(ctx, r.genKey()).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

// Invalidate bumps the generation. Callers run it after every write.
func (r *Reader) Invalidate(ctx context.Context) error {
	return r.rdb.Incr(ctx, r.genKey()).Err()
}

// Config does not cache failures, so a fixed configuration is seen at once.
func (r *Reader) Config(ctx context.Context) (model.ClubConfig, error) {
	var cfg model.ClubConfig
	gen, err := r.generation(ctx)
	if err != nil {
		r.logger.Warn("snapshot cache unavailable", "err", err)
		return r.src.Config(ctx)
	}
	key := fmt.Sprintf("%s:cfg:%d", r.prefix, gen)
	if r.load(ctx, key, &cfg) {
		return cfg, nil
	}
	cfg, err = r.src.Config(ctx)
	if err != nil {
		return cfg, err
	}
	r.store(ctx, key, cfg)
	return cfg, nil
}

func (r *Reader) Snapshot(ctx context.Context, date model.Date, court int) (model.Snapshot, error) {
	var snap model.Snapshot
	gen, err := r.generation(ctx)
	if err != nil {
		r.logger.Warn("snapshot cache unavailable", "err", err)
		return r.src.Snapshot(ctx, date, court)
	}
	key := fmt.Sprintf("%s:snap:%d:%s:%d", r.prefix, gen, date, court)
	if r.load(ctx, key, &snap) {
		return snap, nil
	}
	snap, err = r.src.Snapshot(ctx, date, court)
	if err != nil {
		return snap, err
	}
	r.store(ctx, key, snap)
	return snap, nil
}

func (r *Reader) load(ctx context.Context, key string, dst any) bool {
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("snapshot cache read failed", "key", key, "err", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		r.logger.Warn("snapshot cache entry corrupt", "key", key, "err", err)
		return false
	}
	return true
}

func (r *Reader) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.rdb.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		r.logger.Warn("snapshot cache write failed", "key", key, "err", err)
	}
}
