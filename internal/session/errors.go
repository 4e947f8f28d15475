package session

import "errors"

// Errors returned by session stores
var (
	ErrInvalidConfig    = errors.New("invalid session store configuration")
	ErrInvalidStoreType = errors.New("invalid session store type")
	ErrVersionConflict  = errors.New("session version conflict")
	ErrSessionNotFound  = errors.New("session not found")
)
