// Package deferred expresses the host-provided "deferred-work handle"
// collaborator: a capability that keeps a caller-submitted task alive
// past the originating request. Components accept a Handle explicitly
// (never a hidden global) and call Go to run work in the background when
// one is configured, or run it inline when it isn't.
package deferred

import "context"

// Handle accepts a unit of work to run past the lifetime of whatever
// triggered it. Real implementations spawn a goroutine with a background
// context; when no handle is configured, the same work runs inline on
// the caller's goroutine via Inline.
type Handle interface {
	Go(fn func(context.Context))
}

// Inline is the default Handle: it runs fn synchronously on the calling
// goroutine. Passing a nil Handle anywhere in this module is equivalent
// to passing Inline{}: callers use OrInline to normalize.
type Inline struct{}

func (Inline) Go(fn func(context.Context)) {
	fn(context.Background())
}

// goroutine is the real implementation: it spawns fn on its own
// goroutine with a background context, detached from any request
// deadline, so it can outlive the HTTP response that triggered it.
type goroutine struct{}

// NewGoroutine returns a Handle that runs submitted work on its own
// goroutine, detached from the caller's context.
func NewGoroutine() Handle {
	return goroutine{}
}

func (goroutine) Go(fn func(context.Context)) {
	go fn(context.Background())
}

// OrInline returns h unchanged if non-nil, otherwise Inline{}.
func OrInline(h Handle) Handle {
	if h == nil {
		return Inline{}
	}
	return h
}
