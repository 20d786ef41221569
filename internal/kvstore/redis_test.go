package kvstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/transform-edge/internal/kvstore"
)

func newMiniredisStore(t *testing.T) *kvstore.RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return kvstore.NewRedisStoreFromClient(client, nil)
}

func TestRedisStorePutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newMiniredisStore(t)

	err := s.Put(ctx, "transform:k1", []byte("payload"), kvstore.PutOptions{
		Metadata:   kvstore.Metadata{"contentType": "image/webp"},
		TTLSeconds: 60,
	})
	require.NoError(t, err)

	val, meta, err := s.GetWithMetadata(ctx, "transform:k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), val)
	assert.Equal(t, "image/webp", meta["contentType"])
}

func TestRedisStoreGetMissingIsNotFound(t *testing.T) {
	s := newMiniredisStore(t)
	_, err := s.Get(context.Background(), "nope")
	assert.True(t, errors.Is(err, kvstore.ErrNotFound))
}

func TestRedisStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := newMiniredisStore(t)
	require.NoError(t, s.Put(ctx, "k", []byte("v"), kvstore.PutOptions{}))
	require.NoError(t, s.Delete(ctx, "k"))

	_, err := s.Get(ctx, "k")
	assert.True(t, errors.Is(err, kvstore.ErrNotFound))
}

func TestRedisStoreListByPrefix(t *testing.T) {
	ctx := context.Background()
	s := newMiniredisStore(t)

	for _, k := range []string{"transform:a", "transform:b", "other:c"} {
		require.NoError(t, s.Put(ctx, k, []byte("x"), kvstore.PutOptions{}))
	}

	page, err := s.List(ctx, kvstore.ListOptions{Prefix: "transform:", Limit: 10})
	require.NoError(t, err)
	names := make([]string, 0, len(page.Keys))
	for _, k := range page.Keys {
		names = append(names, k.Name)
	}
	assert.ElementsMatch(t, []string{"transform:a", "transform:b"}, names)
}
