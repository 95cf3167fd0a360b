package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/Libra/internal/domain/notification"
)

var _ notification.Repo = (*NotificationRepoImpl)(nil)

type NotificationRepoImpl struct{ db *DB }

func NewNotificationRepo(db *DB) *NotificationRepoImpl { return &NotificationRepoImpl{db: db} }

const (
	qNotifInsert = `
INSERT INTO notifications (user_id, book_id, type, sent_at, status, message_id, error_message)
VALUES ($1, $2, $3, now(), $4, $5, $6)
RETURNING id, sent_at;
`
	qNotifSelect = `
SELECT n.id, n.user_id, n.book_id, n.type, n.sent_at, n.status, n.message_id, n.error_message,
       u.name, b.title
FROM notifications n
JOIN users u ON u.id = n.user_id
JOIN books b ON b.id = n.book_id
`
	qNotifAll    = qNotifSelect + `ORDER BY n.sent_at DESC, n.id DESC;`
	qNotifByUser = qNotifSelect + `WHERE n.user_id = $1 ORDER BY n.sent_at DESC, n.id DESC LIMIT $2;`

	qNotifStats = `
SELECT type, status, COUNT(*), to_char(sent_at::date, 'YYYY-MM-DD') AS day
FROM notifications
WHERE sent_at >= $1
GROUP BY type, status, day
ORDER BY day DESC, type, status;
`
	qNotifExistsSent = `
SELECT EXISTS (
  SELECT 1 FROM notifications
  WHERE user_id = $1 AND book_id = $2 AND type = $3 AND status = 'sent'
    AND sent_at >= $4 AND sent_at < $4 + INTERVAL '1 day'
);
`
)

// Create appends a record. Inside a transaction (see Transactor) it joins the caller's tx.
func (r *NotificationRepoImpl) Create(ctx context.Context, n *notification.Record) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if err := r.db.execQueryer(ctx).QueryRow(ctx, qNotifInsert,
		n.UserID,
		n.BookID,
		n.Type,
		n.Status,
		n.MessageID,
		n.ErrorMessage,
	).Scan(&n.ID, &n.SentAt); err != nil {
		return mapErr("insert notification", err)
	}
	return nil
}

func (r *NotificationRepoImpl) List(ctx context.Context) ([]*notification.Entry, error) {
	return r.entries(ctx, qNotifAll)
}

func (r *NotificationRepoImpl) ListByUser(ctx context.Context, userID int64, limit int) ([]*notification.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.entries(ctx, qNotifByUser, userID, limit)
}

func (r *NotificationRepoImpl) Stats(ctx context.Context, since time.Time) ([]*notification.Stat, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qNotifStats, since)
	if err != nil {
		return nil, fmt.Errorf("query notification stats: %w", err)
	}
	defer rows.Close()

	var out []*notification.Stat
	for rows.Next() {
		var s notification.Stat
		if err := rows.Scan(&s.Type, &s.Status, &s.Count, &s.Date); err != nil {
			return nil, fmt.Errorf("scan stat: %w", err)
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// ExistsSent looks for a sent record within the 24h starting at dayStart.
func (r *NotificationRepoImpl) ExistsSent(ctx context.Context, userID, bookID int64, t notification.Type, dayStart time.Time) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var ok bool
	if err := r.db.execQueryer(ctx).QueryRow(ctx, qNotifExistsSent, userID, bookID, t, dayStart).Scan(&ok); err != nil {
		return false, fmt.Errorf("notification exists: %w", err)
	}
	return ok, nil
}

func (r *NotificationRepoImpl) entries(ctx context.Context, q string, args ...any) ([]*notification.Entry, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var out []*notification.Entry
	for rows.Next() {
		var e notification.Entry
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.BookID, &e.Type, &e.SentAt, &e.Status, &e.MessageID, &e.ErrorMessage,
			&e.UserName, &e.BookTitle,
		); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
