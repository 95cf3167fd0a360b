package book

import "context"

type Repo interface {
	Create(ctx context.Context, b *Book) error
	GetByID(ctx context.Context, id int64) (*Book, error)
	GetMany(ctx context.Context, ids []int64) ([]*Book, error)
	List(ctx context.Context) ([]*Book, error)
	Update(ctx context.Context, b *Book) error
	Delete(ctx context.Context, id int64) error
	SetCover(ctx context.Context, id int64, url string) error
}
