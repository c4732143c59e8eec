package store

import "errors"

var (
	// ErrNotFound covers both a missing session and a session owned by
	// someone else; callers cannot tell the two apart.
	ErrNotFound = errors.New("store: session not found")

	// ErrVersionConflict means the caller presented a stale version.
	// The row is left untouched; the caller must re-fetch and retry.
	ErrVersionConflict = errors.New("store: session version conflict")
)
