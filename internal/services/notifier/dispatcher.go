package notifier

import (
	"context"
	"fmt"

	"github.com/NordCoder/Libra/internal/domain/loan"
	"github.com/NordCoder/Libra/internal/domain/notification"
	"go.uber.org/zap"
)

// Dispatch sends one notice for a (user, book) pair on demand. It is never suppressed as a duplicate.
func (u *Usecase) Dispatch(ctx context.Context, userID, bookID int64, t notification.Type) (notification.Result, error) {
	if !t.Valid() {
		return notification.Result{}, fmt.Errorf("%w: %q", ErrUnsupportedType, t)
	}

	usr, err := u.Directory.User(ctx, userID)
	if err != nil {
		return notification.Result{}, fmt.Errorf("user %d: %w", userID, err)
	}
	bk, err := u.Directory.Book(ctx, bookID)
	if err != nil {
		return notification.Result{}, fmt.Errorf("book %d: %w", bookID, err)
	}

	today, _ := u.today()
	dueDate, daysOverdue := today, 1
	active, err := u.Directory.ActiveLoan(ctx, userID, bookID)
	if err != nil {
		u.Logger.Warn("active loan lookup failed, using today", zap.Int64("user_id", userID), zap.Int64("book_id", bookID), zap.Error(err))
	} else if active != nil {
		dueDate = active.DueDate
		if d := loan.DaysBetween(active.DueDate, today); d > 0 {
			daysOverdue = d
		}
	}

	// a record failure is logged inside deliver; the email has already gone out
	res, _ := u.deliver(ctx, t, usr.ID, bk.ID,
		Recipient{Name: usr.Name, Email: usr.Email},
		BookRef{Title: bk.Title, Author: bk.Author},
		dueDate, daysOverdue,
	)
	if !res.Success {
		return res, fmt.Errorf("%w: %s", ErrDeliveryFailed, res.Error)
	}
	return res, nil
}
