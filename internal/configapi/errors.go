package configapi

import "errors"

// Admin-operation error kinds. An admin transport layering atop this
// package maps each to its status code, so the facade must distinguish
// invalid-request, unauthorized, not-found, validation-failed, conflict,
// and backend-unavailable. Sentinels rather than bespoke structs, since
// none of these carry data beyond a wrapped cause; match with errors.Is.
var (
	ErrInvalidRequest     = errors.New("configapi: invalid request")
	ErrUnauthorized       = errors.New("configapi: unauthorized")
	ErrNotFound           = errors.New("configapi: not found")
	ErrValidationFailed   = errors.New("configapi: validation failed")
	ErrConflict           = errors.New("configapi: conflict")
	ErrBackendUnavailable = errors.New("configapi: backend unavailable")
)
