package eventstore

import (
	"context"
	"time"
)

// Store defines the interface for persisting and retrieving history events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, e Event) error

	// GetByLifecycleID retrieves all events for one lifecycle, oldest first.
	GetByLifecycleID(ctx context.Context, lifecycleID string) ([]Event, error)

	// GetRange retrieves events within a time range, both ends inclusive.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Close closes the store and releases resources.
	Close() error
}
