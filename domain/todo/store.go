package todo

import (
	"context"
	"time"
)

// Store persists todos. Update and Delete are single atomic statements and
// return ErrNotFound when no row matches.
type Store interface {
	List(ctx context.Context, filter ListFilter) ([]Todo, error)
	Get(ctx context.Context, id ID) (Todo, error)
	Create(ctx context.Context, title, description string) (Todo, error)
	Update(ctx context.Context, id ID, patch Patch) (Todo, error)
	Delete(ctx context.Context, id ID) (Todo, error)
	// Stats counts todos; Today covers created_at in [dayStart, dayEnd).
	Stats(ctx context.Context, dayStart, dayEnd time.Time) (Stats, error)
	// Ping checks connectivity and returns the store's clock.
	Ping(ctx context.Context) (time.Time, error)
	Close() error
}
