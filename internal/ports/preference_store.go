package ports

import "context"

// Contract for the per-user key/value settings the board remembers between
// visits (selected dispatch group, bookings panel visibility).
type PreferenceStore interface {
	// Return the stored value and whether the key exists.
	Get(ctx context.Context, scope, key string) (string, bool, error)
	Set(ctx context.Context, scope, key, value string) error
	Remove(ctx context.Context, scope, key string) error
}
