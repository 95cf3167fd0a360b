package loan

import (
	"context"
	"time"
)

type Repo interface {
	Create(ctx context.Context, l *Loan) error
	GetByID(ctx context.Context, id int64) (*Loan, error)
	List(ctx context.Context) ([]*View, error)
	MarkReturned(ctx context.Context, id int64, returnDate time.Time) error
	Delete(ctx context.Context, id int64) error

	FindActive(ctx context.Context, userID, bookID int64) (*Loan, error)
	FindDueBetween(ctx context.Context, from, to time.Time) ([]*Notice, error)
	FindOverdue(ctx context.Context, today time.Time) ([]*Notice, error)
}
