//go:build integration

package integration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/NordCoder/Libra/internal/domain/loan"
	"github.com/NordCoder/Libra/internal/domain/notification"
	"github.com/NordCoder/Libra/internal/domain/outbox"
	pg "github.com/NordCoder/Libra/internal/repository/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// openRepos returns a pgx pool for the repositories and a lib/pq handle for seeding.
func openRepos(t *testing.T) (*pg.DB, *sql.DB, Cfg) {
	t.Helper()
	cfg := LoadCfg()
	raw := DBOpen(t, cfg.DBDSN)
	db, err := pg.New(context.Background(), pg.Config{DSN: cfg.DBDSN, MaxConns: 4, QueryTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db, raw, cfg
}

func noticeFor(ns []*loan.Notice, loanID int64) *loan.Notice {
	for _, n := range ns {
		if n.LoanID == loanID {
			return n
		}
	}
	return nil
}

func TestLoanRepo_Scans(t *testing.T) {
	db, raw, _ := openRepos(t)
	ctx := context.Background()

	sfx := RandSuffix()
	uid := SeedUser(t, raw, "Ada", "ada-"+sfx+"@example.com")
	bid := SeedBook(t, raw, "Dune", "Frank Herbert")

	today := time.Date(2031, 3, 16, 0, 0, 0, 0, time.UTC)
	dueSoon := SeedLoan(t, raw, uid, bid, today.AddDate(0, 0, -10), today.AddDate(0, 0, 2))
	overdue := SeedLoan(t, raw, uid, bid, today.AddDate(0, 0, -20), today.AddDate(0, 0, -3))
	returned := SeedLoan(t, raw, uid, bid, today.AddDate(0, 0, -20), today.AddDate(0, 0, -4))

	repo := pg.NewLoanRepo(db)
	require.NoError(t, repo.MarkReturned(ctx, returned, today.AddDate(0, 0, -1)))
	assert.ErrorIs(t, repo.MarkReturned(ctx, returned, today), pg.ErrConflict)

	due, err := repo.FindDueBetween(ctx, today.AddDate(0, 0, 2), today.AddDate(0, 0, 2))
	require.NoError(t, err)
	n := noticeFor(due, dueSoon)
	require.NotNil(t, n)
	assert.Equal(t, "ada-"+sfx+"@example.com", n.UserEmail)
	assert.Equal(t, "Frank Herbert", n.BookAuthor)
	assert.Nil(t, noticeFor(due, overdue))

	late, err := repo.FindOverdue(ctx, today)
	require.NoError(t, err)
	n = noticeFor(late, overdue)
	require.NotNil(t, n)
	assert.Equal(t, 3, n.DaysOverdue)
	assert.Nil(t, noticeFor(late, returned))
	assert.Nil(t, noticeFor(late, dueSoon))

	active, err := repo.FindActive(ctx, uid, bid)
	require.NoError(t, err)
	assert.True(t, active.Active())
}

func TestNotificationRepo_LogAndStats(t *testing.T) {
	db, raw, _ := openRepos(t)
	ctx := context.Background()

	uid := SeedUser(t, raw, "Grace", "grace-"+RandSuffix()+"@example.com")
	bid := SeedBook(t, raw, "Neuromancer", "William Gibson")

	repo := pg.NewNotificationRepo(db)
	now := time.Now().UTC()
	msgID := "<it@libra>"
	errMsg := "550 mailbox unavailable"
	require.NoError(t, repo.Create(ctx, &notification.Record{
		UserID: uid, BookID: bid, Type: notification.TypeOverdue, SentAt: now,
		Status: notification.StatusSent, MessageID: &msgID,
	}))
	require.NoError(t, repo.Create(ctx, &notification.Record{
		UserID: uid, BookID: bid, Type: notification.TypeDueReminder, SentAt: now,
		Status: notification.StatusFailed, ErrorMessage: &errMsg,
	}))

	es, err := repo.ListByUser(ctx, uid, 50)
	require.NoError(t, err)
	require.Len(t, es, 2)
	assert.Equal(t, "Neuromancer", es[0].BookTitle)
	assert.Equal(t, "Grace", es[0].UserName)

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	ok, err := repo.ExistsSent(ctx, uid, bid, notification.TypeOverdue, dayStart)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.ExistsSent(ctx, uid, bid, notification.TypeDueReminder, dayStart)
	require.NoError(t, err)
	assert.False(t, ok, "failed attempts do not count as sent")

	stats, err := repo.Stats(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.NotEmpty(t, stats)

	assert.Equal(t, 1, CountNotifications(t, raw, uid, "sent"))
	assert.Equal(t, 1, CountNotifications(t, raw, uid, "failed"))
}

func TestOutboxRepo_PickAndMark(t *testing.T) {
	db, _, _ := openRepos(t)
	ctx := context.Background()
	repo := pg.NewOutboxRepo(db)
	tx := pg.NewTransactor(db, zap.NewNop())

	key := "it-" + RandSuffix()
	require.NoError(t, tx.WithTx(ctx, func(ctx context.Context) error {
		return repo.Enqueue(ctx, key, outbox.KindNotificationRecorded, []byte(`{"id":1}`))
	}))

	var picked *outbox.Message
	require.Eventually(t, func() bool {
		ms, err := repo.PickBatch(ctx, 100, 30*time.Second)
		if err != nil {
			return false
		}
		for i := range ms {
			if ms[i].IdempotencyKey == key {
				picked = &ms[i]
				return true
			}
		}
		return false
	}, 5*time.Second, 100*time.Millisecond)

	assert.Equal(t, outbox.KindNotificationRecorded, picked.Kind)
	assert.JSONEq(t, `{"id":1}`, string(picked.Data))
	require.NoError(t, repo.MarkSuccess(ctx, []string{key}))

	ms, err := repo.PickBatch(ctx, 100, 0)
	require.NoError(t, err)
	for _, m := range ms {
		assert.NotEqual(t, key, m.IdempotencyKey)
	}
}
