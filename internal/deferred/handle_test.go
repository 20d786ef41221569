package deferred_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vitaliisemenov/transform-edge/internal/deferred"
)

func TestInlineRunsSynchronously(t *testing.T) {
	ran := false
	deferred.Inline{}.Go(func(context.Context) { ran = true })
	assert.True(t, ran)
}

func TestOrInlineNormalizesNil(t *testing.T) {
	h := deferred.OrInline(nil)
	ran := false
	h.Go(func(context.Context) { ran = true })
	assert.True(t, ran)
}

func TestOrInlinePassesThroughNonNil(t *testing.T) {
	h := deferred.NewGoroutine()
	assert.Equal(t, h, deferred.OrInline(h))
}

func TestGoroutineHandleRunsConcurrently(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)

	h := deferred.NewGoroutine()
	h.Go(func(ctx context.Context) {
		defer wg.Done()
		_ = ctx
	})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine handle did not run submitted work")
	}
}
