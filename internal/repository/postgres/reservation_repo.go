package postgres

import (
	"context"
	"fmt"

	"github.com/NordCoder/Libra/internal/domain/reservation"
)

var _ reservation.Repo = (*ReservationRepo)(nil)

type ReservationRepo struct {
	db *DB
}

func NewReservationRepo(db *DB) *ReservationRepo { return &ReservationRepo{db: db} }

const (
	qReservationInsert = `
INSERT INTO reservations (user_id, book_id, reservation_date, status)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, book_id, reservation_date, status;`

	qReservationList = `
SELECT r.id, u.name, b.title, r.reservation_date, r.status
FROM reservations r
JOIN users u ON u.id = r.user_id
JOIN books b ON b.id = r.book_id
ORDER BY r.id;`

	qReservationStatus = `UPDATE reservations SET status = $2 WHERE id = $1;`

	qReservationDelete = `DELETE FROM reservations WHERE id = $1;`
)

func (r *ReservationRepo) Create(ctx context.Context, res *reservation.Reservation) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if res.Status == "" {
		res.Status = reservation.StatusPending
	}
	if err := r.db.execQueryer(ctx).QueryRow(ctx, qReservationInsert,
		res.UserID, res.BookID, res.ReservationDate, res.Status,
	).Scan(&res.ID, &res.UserID, &res.BookID, &res.ReservationDate, &res.Status); err != nil {
		return mapErr("reservation insert", err)
	}
	return nil
}

func (r *ReservationRepo) List(ctx context.Context) ([]*reservation.View, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qReservationList)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	var out []*reservation.View
	for rows.Next() {
		var v reservation.View
		if err := rows.Scan(&v.ID, &v.User, &v.Book, &v.ReservationDate, &v.Status); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *ReservationRepo) UpdateStatus(ctx context.Context, id int64, status reservation.Status) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qReservationStatus, id, status)
	if err != nil {
		return mapErr("reservation status", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ReservationRepo) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qReservationDelete, id)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
