package repo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/NordCoder/Libra/internal/domain/book"
	"github.com/NordCoder/Libra/internal/domain/kafka"
	"github.com/NordCoder/Libra/internal/domain/loan"
	"github.com/NordCoder/Libra/internal/domain/notification"
	outboxdomain "github.com/NordCoder/Libra/internal/domain/outbox"
	"github.com/NordCoder/Libra/internal/domain/user"
	"github.com/NordCoder/Libra/internal/outbox"
	pg "github.com/NordCoder/Libra/internal/repository/postgres"
	notifier "github.com/NordCoder/Libra/internal/services/notifier"
)

var (
	_ notifier.LoanScanner     = LoanScanner{}
	_ notifier.Directory       = Directory{}
	_ notifier.NotificationLog = (*NotificationLog)(nil)
)

type LoanScanner struct{ R loan.Repo }

func (a LoanScanner) FindDueOn(ctx context.Context, day time.Time) ([]*loan.Notice, error) {
	return a.R.FindDueBetween(ctx, day, day)
}

func (a LoanScanner) FindDueBetween(ctx context.Context, from, to time.Time) ([]*loan.Notice, error) {
	return a.R.FindDueBetween(ctx, from, to)
}

func (a LoanScanner) FindOverdue(ctx context.Context, today time.Time) ([]*loan.Notice, error) {
	return a.R.FindOverdue(ctx, today)
}

type Directory struct {
	Users user.Repo
	Books book.Repo
	Loans loan.Repo
}

func (a Directory) User(ctx context.Context, id int64) (*user.User, error) {
	u, err := a.Users.GetByID(ctx, id)
	if errors.Is(err, pg.ErrNotFound) {
		return nil, notifier.ErrNotFound
	}
	return u, err
}

func (a Directory) Book(ctx context.Context, id int64) (*book.Book, error) {
	b, err := a.Books.GetByID(ctx, id)
	if errors.Is(err, pg.ErrNotFound) {
		return nil, notifier.ErrNotFound
	}
	return b, err
}

func (a Directory) ActiveLoan(ctx context.Context, userID, bookID int64) (*loan.Loan, error) {
	l, err := a.Loans.FindActive(ctx, userID, bookID)
	if errors.Is(err, pg.ErrNotFound) {
		return nil, nil
	}
	return l, err
}

// NotificationLog writes records. With an Outbox set, every record also enqueues a
// notification-recorded event in the same transaction.
type NotificationLog struct {
	Store  notification.Repo
	Outbox outboxdomain.Repository
	Tx     pg.Transactor
}

func (a *NotificationLog) Record(ctx context.Context, r *notification.Record) error {
	if a.Outbox == nil || a.Tx == nil {
		return a.Store.Create(ctx, r)
	}
	return a.Tx.WithTx(ctx, func(ctx context.Context) error {
		if err := a.Store.Create(ctx, r); err != nil {
			return err
		}
		ev := kafka.NotificationRecorded{
			NotificationID: r.ID,
			UserID:         r.UserID,
			BookID:         r.BookID,
			Type:           string(r.Type),
			Status:         string(r.Status),
			SentAt:         r.SentAt,
		}
		if r.MessageID != nil {
			ev.MessageID = *r.MessageID
		}
		if r.ErrorMessage != nil {
			ev.Error = *r.ErrorMessage
		}
		data, err := outbox.EncodeNotificationRecorded(ev)
		if err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
		key := "notification-" + strconv.FormatInt(r.ID, 10)
		return a.Outbox.Enqueue(ctx, key, outboxdomain.KindNotificationRecorded, data)
	})
}

func (a *NotificationLog) SentOn(ctx context.Context, userID, bookID int64, t notification.Type, dayStart time.Time) (bool, error) {
	return a.Store.ExistsSent(ctx, userID, bookID, t, dayStart)
}
