package reservation

import "context"

type Repo interface {
	Create(ctx context.Context, r *Reservation) error
	List(ctx context.Context) ([]*View, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	Delete(ctx context.Context, id int64) error
}
