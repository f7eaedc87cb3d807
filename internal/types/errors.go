package types

import "errors"

// Sentinel errors shared by the provider and the stores.
var (
	// ErrNoData marks a structurally valid response that carries no rows.
	// Callers retry later; caches never persist it.
	ErrNoData = errors.New("no data in response")

	// ErrNotFound marks a symbol the provider does not know.
	ErrNotFound = errors.New("symbol not found")
)
