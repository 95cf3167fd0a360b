package notification

import (
	"context"
	"time"
)

type Repo interface {
	Create(ctx context.Context, r *Record) error
	List(ctx context.Context) ([]*Entry, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*Entry, error)
	Stats(ctx context.Context, since time.Time) ([]*Stat, error)
	// ExistsSent reports whether a successful notice of type t for the pair was recorded in the day starting at dayStart.
	ExistsSent(ctx context.Context, userID, bookID int64, t Type, dayStart time.Time) (bool, error)
}
