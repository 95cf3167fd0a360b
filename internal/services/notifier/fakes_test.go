package notifier

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/NordCoder/Libra/internal/domain/book"
	"github.com/NordCoder/Libra/internal/domain/loan"
	"github.com/NordCoder/Libra/internal/domain/notification"
	"github.com/NordCoder/Libra/internal/domain/user"
	"github.com/stretchr/testify/require"
)

type scanCall struct {
	method   string
	from, to time.Time
}

type fakeScanner struct {
	notices []*loan.Notice
	err     error
	calls   []scanCall
}

func (f *fakeScanner) FindDueOn(_ context.Context, day time.Time) ([]*loan.Notice, error) {
	f.calls = append(f.calls, scanCall{method: "due_on", from: day, to: day})
	return f.notices, f.err
}

func (f *fakeScanner) FindDueBetween(_ context.Context, from, to time.Time) ([]*loan.Notice, error) {
	f.calls = append(f.calls, scanCall{method: "due_between", from: from, to: to})
	return f.notices, f.err
}

func (f *fakeScanner) FindOverdue(_ context.Context, today time.Time) ([]*loan.Notice, error) {
	f.calls = append(f.calls, scanCall{method: "overdue", from: today, to: today})
	return f.notices, f.err
}

type fakeLog struct {
	mu        sync.Mutex
	records   []*notification.Record
	recordErr error
	sent      map[int64]bool // keyed by user id
	sentErr   error
}

func (f *fakeLog) Record(_ context.Context, r *notification.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	r.ID = int64(len(f.records) + 1)
	f.records = append(f.records, r)
	return nil
}

func (f *fakeLog) SentOn(_ context.Context, userID, _ int64, _ notification.Type, _ time.Time) (bool, error) {
	return f.sent[userID], f.sentErr
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []notification.Message
	failFor map[string]string // recipient -> error
}

func (f *fakeSender) Send(_ context.Context, msg notification.Message) notification.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	if e, ok := f.failFor[msg.To]; ok {
		return notification.Result{Error: e}
	}
	return notification.Result{Success: true, MessageID: "<id-" + msg.To + ">"}
}

type fakeDirectory struct {
	users map[int64]*user.User
	books map[int64]*book.Book
	loans map[[2]int64]*loan.Loan
}

func (f *fakeDirectory) User(_ context.Context, id int64) (*user.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func (f *fakeDirectory) Book(_ context.Context, id int64) (*book.Book, error) {
	if b, ok := f.books[id]; ok {
		return b, nil
	}
	return nil, ErrNotFound
}

func (f *fakeDirectory) ActiveLoan(_ context.Context, userID, bookID int64) (*loan.Loan, error) {
	return f.loans[[2]int64{userID, bookID}], nil
}

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func fixedClock(t time.Time) notification.Clock {
	return notification.ClockFunc(func() time.Time { return t })
}

type fixture struct {
	scanner *fakeScanner
	log     *fakeLog
	sender  *fakeSender
	dir     *fakeDirectory
	uc      *Usecase
}

func newFixture(t *testing.T, now time.Time, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		scanner: &fakeScanner{},
		log:     &fakeLog{sent: map[int64]bool{}},
		sender:  &fakeSender{failFor: map[string]string{}},
		dir: &fakeDirectory{
			users: map[int64]*user.User{},
			books: map[int64]*book.Book{},
			loans: map[[2]int64]*loan.Loan{},
		},
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if cfg.DueSoonHorizonDays == 0 {
		cfg.DueSoonHorizonDays = 2
	}
	uc, err := NewUsecase(f.scanner, f.log, f.dir, f.sender, NewRenderer(""), fixedClock(now), cfg, nil)
	require.NoError(t, err)
	f.uc = uc
	return f
}

func notice(id int64, email string, due time.Time, days int) *loan.Notice {
	return &loan.Notice{
		LoanID:      id,
		UserID:      id * 10,
		UserName:    "User " + email,
		UserEmail:   email,
		BookID:      id * 100,
		BookTitle:   "Book",
		BookAuthor:  "Author",
		DueDate:     due,
		DaysOverdue: days,
	}
}
