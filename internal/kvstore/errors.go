package kvstore

import "errors"

// ErrNotFound is returned by Get/GetWithMetadata when the key does not
// exist; Delete of a missing key is a no-op that returns nil. Callers (the cache read path in particular) must treat this
// the same as any other miss, never as a fatal error.
var ErrNotFound = errors.New("kvstore: key not found")

// StoreError wraps a lower-level failure (connection, marshal, codec)
// with the operation and key that triggered it, so callers can log
// structured context without string-matching error messages.
type StoreError struct {
	Op    string
	Key   string
	Cause error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return "kvstore: " + e.Op + " " + e.Key + ": " + e.Cause.Error()
	}
	return "kvstore: " + e.Op + ": " + e.Cause.Error()
}

func (e *StoreError) Unwrap() error { return e.Cause }

// WrapErr builds a *StoreError, or returns nil if cause is nil.
func WrapErr(op, key string, cause error) error {
	if cause == nil {
		return nil
	}
	return &StoreError{Op: op, Key: key, Cause: cause}
}
