package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vitaliisemenov/transform-edge/internal/obslog"
)

// RedisOptions carries the connection, pool, timeout and retry knobs a
// deployment tunes for the Redis-backed store.
type RedisOptions struct {
	Addr            string
	Password        string
	DB              int
	PoolSize        int
	MinIdleConns    int
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxRetries      int
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration
}

func (o RedisOptions) toRedis() *redis.Options {
	return &redis.Options{
		Addr:            o.Addr,
		Password:        o.Password,
		DB:              o.DB,
		PoolSize:        o.PoolSize,
		MinIdleConns:    o.MinIdleConns,
		DialTimeout:     o.DialTimeout,
		ReadTimeout:     o.ReadTimeout,
		WriteTimeout:    o.WriteTimeout,
		MaxRetries:      o.MaxRetries,
		MinRetryBackoff: o.MinRetryBackoff,
		MaxRetryBackoff: o.MaxRetryBackoff,
	}
}

// envelope bundles a value with its metadata into the single string
// Redis stores per key, since Redis itself has no native per-key
// structured-metadata slot the way the KV contract assumes.
type envelope struct {
	Value    []byte   `json:"value"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// RedisStore is a Store backed by go-redis/v9.
type RedisStore struct {
	client *redis.Client
	logger obslog.Logger
}

// NewRedisStore dials Redis per opts and verifies the connection with a
// Ping before returning.
func NewRedisStore(ctx context.Context, opts RedisOptions, logger obslog.Logger) (*RedisStore, error) {
	logger = obslog.OrDefault(logger)
	client := redis.NewClient(opts.toRedis())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Error(ctx, "kvstore redis connect failed", "addr", opts.Addr, "error", err)
		return nil, WrapErr("connect", "", err)
	}
	logger.Info(ctx, "kvstore redis connected", "addr", opts.Addr, "db", opts.DB)

	return &RedisStore{client: client, logger: logger}, nil
}

// NewRedisStoreFromClient wraps an already-constructed *redis.Client;
// this is the path miniredis-backed tests use.
func NewRedisStoreFromClient(client *redis.Client, logger obslog.Logger) *RedisStore {
	return &RedisStore{client: client, logger: obslog.OrDefault(logger)}
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, _, err := r.GetWithMetadata(ctx, key)
	return b, err
}

func (r *RedisStore) GetWithMetadata(ctx context.Context, key string) ([]byte, Metadata, error) {
	raw, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, WrapErr("get", key, err)
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, nil, WrapErr("get-decode", key, err)
	}
	return env.Value, env.Metadata, nil
}

func (r *RedisStore) Put(ctx context.Context, key string, value []byte, opts PutOptions) error {
	env := envelope{Value: value, Metadata: opts.Metadata}
	data, err := json.Marshal(env)
	if err != nil {
		return WrapErr("put-encode", key, err)
	}

	var ttl time.Duration
	if opts.TTLSeconds > 0 {
		ttl = time.Duration(opts.TTLSeconds) * time.Second
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		r.logger.Error(ctx, "kvstore redis put failed", "key", key, "error", err)
		return WrapErr("put", key, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return WrapErr("delete", key, err)
	}
	return nil
}

// List implements the paginated listing contract using SCAN with a
// prefix match; the opaque cursor is Redis's own (a uint64 rendered as
// a string). Since listing surfaces metadata, each match triggers a
// GetWithMetadata to unpack its envelope.
func (r *RedisStore) List(ctx context.Context, opts ListOptions) (ListPage, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	cursor := uint64(0)
	if opts.Cursor != "" {
		parsed, err := strconv.ParseUint(opts.Cursor, 10, 64)
		if err != nil {
			return ListPage{}, WrapErr("list-cursor", "", err)
		}
		cursor = parsed
	}

	match := opts.Prefix + "*"
	if opts.Prefix == "" {
		match = "*"
	}

	page := ListPage{}
	for len(page.Keys) < limit {
		keys, nextCursor, err := r.client.Scan(ctx, cursor, match, int64(limit)).Result()
		if err != nil {
			return ListPage{}, WrapErr("list", "", err)
		}

		for _, k := range keys {
			if len(page.Keys) >= limit {
				break
			}
			_, meta, err := r.GetWithMetadata(ctx, k)
			if err != nil {
				continue
			}
			page.Keys = append(page.Keys, ListKey{Name: k, Metadata: meta})
		}

		cursor = nextCursor
		if cursor == 0 {
			page.Complete = true
			break
		}
	}
	if !page.Complete {
		page.Cursor = strconv.FormatUint(cursor, 10)
	}
	return page, nil
}

// Close releases the underlying Redis connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
