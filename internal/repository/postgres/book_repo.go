package postgres

import (
	"context"
	"fmt"

	"github.com/NordCoder/Libra/internal/domain/book"
	"github.com/jackc/pgx/v5"
)

var _ book.Repo = (*BookRepo)(nil)

type BookRepo struct {
	db *DB
}

func NewBookRepo(db *DB) *BookRepo { return &BookRepo{db: db} }

const bookColumns = `id, title, author, isbn, cover_url, created_at`

const (
	qBookInsert = `
INSERT INTO books (title, author, isbn)
VALUES ($1, $2, $3)
RETURNING ` + bookColumns + `;`

	qBookByID = `SELECT ` + bookColumns + ` FROM books WHERE id = $1;`

	qBookMany = `SELECT ` + bookColumns + ` FROM books WHERE id = ANY($1) ORDER BY id;`

	qBookList = `SELECT ` + bookColumns + ` FROM books ORDER BY id;`

	qBookUpdate = `
UPDATE books
SET title = $2, author = $3, isbn = $4
WHERE id = $1
RETURNING ` + bookColumns + `;`

	qBookDelete = `DELETE FROM books WHERE id = $1;`

	qBookSetCover = `UPDATE books SET cover_url = $2 WHERE id = $1;`
)

func (r *BookRepo) Create(ctx context.Context, b *book.Book) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if err := scanBook(r.db.execQueryer(ctx).QueryRow(ctx, qBookInsert, b.Title, b.Author, b.ISBN), b); err != nil {
		return mapErr("book insert", err)
	}
	return nil
}

func (r *BookRepo) GetByID(ctx context.Context, id int64) (*book.Book, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var b book.Book
	if err := scanBook(r.db.execQueryer(ctx).QueryRow(ctx, qBookByID, id), &b); err != nil {
		return nil, mapErr("book by id", err)
	}
	return &b, nil
}

func (r *BookRepo) GetMany(ctx context.Context, ids []int64) ([]*book.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.query(ctx, qBookMany, ids)
}

func (r *BookRepo) List(ctx context.Context) ([]*book.Book, error) {
	return r.query(ctx, qBookList)
}

func (r *BookRepo) Update(ctx context.Context, b *book.Book) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if err := scanBook(r.db.execQueryer(ctx).QueryRow(ctx, qBookUpdate, b.ID, b.Title, b.Author, b.ISBN), b); err != nil {
		return mapErr("book update", err)
	}
	return nil
}

func (r *BookRepo) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qBookDelete, id)
	if err != nil {
		return mapErr("delete book", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *BookRepo) SetCover(ctx context.Context, id int64, url string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qBookSetCover, id, url)
	if err != nil {
		return fmt.Errorf("set cover: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *BookRepo) query(ctx context.Context, q string, args ...any) ([]*book.Book, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	var out []*book.Book
	for rows.Next() {
		var b book.Book
		if err := scanBook(rows, &b); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func scanBook(row pgx.Row, b *book.Book) error {
	return row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.CoverURL, &b.CreatedAt)
}
