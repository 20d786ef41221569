package kvstore

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"
)

// FaultProfile configures how FaultInjectingStore misbehaves for one
// operation. Each call independently fails with probability FailRate
// (0..1) and, when it does, returns Err (or a generic error if nil).
// Latency, if set, is slept before every call regardless of outcome.
type FaultProfile struct {
	FailRate float64
	Err      error
	Latency  time.Duration
}

// FaultInjectingStore wraps another Store and injects configurable
// failures/latency per operation, so transformcache and configstore
// tests can exercise their partial-failure paths without standing up a
// genuinely flaky backend.
type FaultInjectingStore struct {
	inner Store
	mu    sync.Mutex
	rng   *rand.Rand

	GetProfile             FaultProfile
	GetWithMetadataProfile FaultProfile
	PutProfile             FaultProfile
	DeleteProfile          FaultProfile
	ListProfile            FaultProfile
}

// NewFaultInjectingStore wraps inner with all-zero fault profiles, so it
// behaves identically to inner until a profile is set on it directly.
func NewFaultInjectingStore(inner Store) *FaultInjectingStore {
	return &FaultInjectingStore{inner: inner, rng: rand.New(rand.NewSource(1))}
}

func (f *FaultInjectingStore) roll(p FaultProfile) error {
	if p.Latency > 0 {
		time.Sleep(p.Latency)
	}
	if p.FailRate <= 0 {
		return nil
	}

	f.mu.Lock()
	draw := f.rng.Float64()
	f.mu.Unlock()

	if draw < p.FailRate {
		if p.Err != nil {
			return p.Err
		}
		return errors.New("kvstore: injected fault")
	}
	return nil
}

func (f *FaultInjectingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := f.roll(f.GetProfile); err != nil {
		return nil, WrapErr("get", key, err)
	}
	return f.inner.Get(ctx, key)
}

func (f *FaultInjectingStore) GetWithMetadata(ctx context.Context, key string) ([]byte, Metadata, error) {
	if err := f.roll(f.GetWithMetadataProfile); err != nil {
		return nil, nil, WrapErr("get-with-metadata", key, err)
	}
	return f.inner.GetWithMetadata(ctx, key)
}

func (f *FaultInjectingStore) Put(ctx context.Context, key string, value []byte, opts PutOptions) error {
	if err := f.roll(f.PutProfile); err != nil {
		return WrapErr("put", key, err)
	}
	return f.inner.Put(ctx, key, value, opts)
}

func (f *FaultInjectingStore) Delete(ctx context.Context, key string) error {
	if err := f.roll(f.DeleteProfile); err != nil {
		return WrapErr("delete", key, err)
	}
	return f.inner.Delete(ctx, key)
}

func (f *FaultInjectingStore) List(ctx context.Context, opts ListOptions) (ListPage, error) {
	if err := f.roll(f.ListProfile); err != nil {
		return ListPage{}, WrapErr("list", "", err)
	}
	return f.inner.List(ctx, opts)
}
