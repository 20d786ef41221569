package kvstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/transform-edge/internal/kvstore"
)

func TestFaultInjectingStorePassesThroughWithZeroProfile(t *testing.T) {
	ctx := context.Background()
	inner := kvstore.NewMemoryStore(nil)
	f := kvstore.NewFaultInjectingStore(inner)

	require.NoError(t, f.Put(ctx, "k", []byte("v"), kvstore.PutOptions{}))
	val, err := f.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
}

func TestFaultInjectingStoreAlwaysFails(t *testing.T) {
	ctx := context.Background()
	inner := kvstore.NewMemoryStore(nil)
	sentinel := errors.New("boom")
	f := kvstore.NewFaultInjectingStore(inner)
	f.GetProfile = kvstore.FaultProfile{FailRate: 1, Err: sentinel}

	_, err := f.Get(ctx, "k")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel))
}

func TestFaultInjectingStorePutFailureLeavesInnerUntouched(t *testing.T) {
	ctx := context.Background()
	inner := kvstore.NewMemoryStore(nil)
	f := kvstore.NewFaultInjectingStore(inner)
	f.PutProfile = kvstore.FaultProfile{FailRate: 1}

	err := f.Put(ctx, "k", []byte("v"), kvstore.PutOptions{})
	require.Error(t, err)

	_, err = inner.Get(ctx, "k")
	assert.True(t, errors.Is(err, kvstore.ErrNotFound))
}
