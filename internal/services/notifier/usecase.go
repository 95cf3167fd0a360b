package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/Libra/internal/domain/book"
	"github.com/NordCoder/Libra/internal/domain/loan"
	"github.com/NordCoder/Libra/internal/domain/notification"
	"github.com/NordCoder/Libra/internal/domain/user"
	"github.com/NordCoder/Libra/internal/obs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// LoanScanner finds active loans by due date.
type LoanScanner interface {
	FindDueOn(ctx context.Context, day time.Time) ([]*loan.Notice, error)
	FindDueBetween(ctx context.Context, from, to time.Time) ([]*loan.Notice, error)
	FindOverdue(ctx context.Context, today time.Time) ([]*loan.Notice, error)
}

// NotificationLog is the append-only record of delivery attempts.
type NotificationLog interface {
	Record(ctx context.Context, r *notification.Record) error
	SentOn(ctx context.Context, userID, bookID int64, t notification.Type, dayStart time.Time) (bool, error)
}

// Directory resolves the entities a manual dispatch names.
// ActiveLoan returns (nil, nil) when the user holds no open loan of the book.
type Directory interface {
	User(ctx context.Context, id int64) (*user.User, error)
	Book(ctx context.Context, id int64) (*book.Book, error)
	ActiveLoan(ctx context.Context, userID, bookID int64) (*loan.Loan, error)
}

type Report struct {
	Found   int `json:"found"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

var (
	mCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_cycles_total",
		Help: "Notification cycles by kind and outcome.",
	}, []string{"cycle", "outcome"})
	mEmails = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_emails_total",
		Help: "Delivery attempts by notification type and result.",
	}, []string{"type", "result"})
	mRecordErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifier_record_errors_total",
		Help: "Delivery attempts that could not be written to the notification log.",
	})
	mCycleDur = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notifier_cycle_duration_seconds",
		Help:    "Duration of a notification cycle.",
		Buckets: prometheus.DefBuckets,
	}, []string{"cycle"})
)

type Usecase struct {
	Loans     LoanScanner
	Log       NotificationLog
	Directory Directory
	Out       notification.EmailSender
	Render    *Renderer
	Clock     notification.Clock

	Loc                *time.Location
	Horizon            int
	Mode               DueSoonMode
	SuppressDuplicates bool

	Logger *zap.Logger
}

func NewUsecase(
	loans LoanScanner,
	log NotificationLog,
	dir Directory,
	out notification.EmailSender,
	render *Renderer,
	clock notification.Clock,
	cfg Config,
	l *zap.Logger,
) (*Usecase, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	mode := cfg.DueSoonMode
	if mode == "" {
		mode = ModeExact
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &Usecase{
		Loans:              loans,
		Log:                log,
		Directory:          dir,
		Out:                out,
		Render:             render,
		Clock:              clock,
		Loc:                loc,
		Horizon:            cfg.DueSoonHorizonDays,
		Mode:               mode,
		SuppressDuplicates: cfg.SuppressDuplicates,
		Logger:             l.With(zap.String("component", "notifier.usecase")),
	}, nil
}

// today is the current calendar date in the configured zone, as a UTC-midnight value.
func (u *Usecase) today() (day time.Time, dayStart time.Time) {
	now := u.Clock.Now().In(u.Loc)
	y, m, d := now.Date()
	return loan.Day(now), time.Date(y, m, d, 0, 0, 0, 0, u.Loc)
}

// RunDueSoon reminds borrowers whose loans fall due at the horizon (or within it in window mode).
func (u *Usecase) RunDueSoon(ctx context.Context) (Report, error) {
	today, dayStart := u.today()
	to := today.AddDate(0, 0, u.Horizon)

	return u.cycle(ctx, JobDueSoon, notification.TypeDueReminder, dayStart, func(ctx context.Context) ([]*loan.Notice, error) {
		if u.Mode == ModeWindow {
			return u.Loans.FindDueBetween(ctx, today.AddDate(0, 0, 1), to)
		}
		return u.Loans.FindDueOn(ctx, to)
	})
}

// RunOverdue notifies borrowers of every active loan due before today.
func (u *Usecase) RunOverdue(ctx context.Context) (Report, error) {
	today, dayStart := u.today()
	return u.cycle(ctx, JobOverdue, notification.TypeOverdue, dayStart, func(ctx context.Context) ([]*loan.Notice, error) {
		return u.Loans.FindOverdue(ctx, today)
	})
}

func (u *Usecase) cycle(
	ctx context.Context,
	name string,
	typ notification.Type,
	dayStart time.Time,
	scan func(context.Context) ([]*loan.Notice, error),
) (Report, error) {
	start := time.Now()
	defer func() { mCycleDur.WithLabelValues(name).Observe(time.Since(start).Seconds()) }()

	tr := otel.Tracer("notifier.uc")
	ctx, span := tr.Start(ctx, "notifier.cycle", trace.WithAttributes(
		attribute.String("cycle", name),
		attribute.String("day", dayStart.Format(loan.DateLayout)),
	))
	defer span.End()
	log := obs.WithTrace(ctx, u.Logger).With(zap.String("cycle", name))

	var rep Report
	notices, err := scan(ctx)
	if err != nil {
		span.RecordError(err)
		mCycles.WithLabelValues(name, "store_error").Inc()
		log.Error("scan failed, cycle aborted", zap.Error(err))
		return rep, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	rep.Found = len(notices)
	log.Info("loans found", zap.Int("found", rep.Found))

	for _, n := range notices {
		if u.SuppressDuplicates {
			dup, err := u.Log.SentOn(ctx, n.UserID, n.BookID, typ, dayStart)
			if err != nil {
				log.Warn("duplicate check failed, sending anyway", zap.Int64("loan_id", n.LoanID), zap.Error(err))
			} else if dup {
				rep.Skipped++
				continue
			}
		}

		res, _ := u.deliver(ctx, typ, n.UserID, n.BookID,
			Recipient{Name: n.UserName, Email: n.UserEmail},
			BookRef{Title: n.BookTitle, Author: n.BookAuthor},
			n.DueDate, n.DaysOverdue,
		)
		if res.Success {
			rep.Sent++
		} else {
			rep.Failed++
		}
	}

	span.SetAttributes(
		attribute.Int("found", rep.Found),
		attribute.Int("sent", rep.Sent),
		attribute.Int("failed", rep.Failed),
		attribute.Int("skipped", rep.Skipped),
	)
	mCycles.WithLabelValues(name, "ok").Inc()
	log.Info("cycle finished",
		zap.Int("found", rep.Found),
		zap.Int("sent", rep.Sent),
		zap.Int("failed", rep.Failed),
		zap.Int("skipped", rep.Skipped),
	)
	return rep, nil
}

// deliver renders, sends and records one notice. The returned error is only the record error;
// delivery failures live in the Result.
func (u *Usecase) deliver(
	ctx context.Context,
	typ notification.Type,
	userID, bookID int64,
	to Recipient,
	b BookRef,
	dueDate time.Time,
	daysOverdue int,
) (notification.Result, error) {
	tr := otel.Tracer("notifier.uc")
	ctx, span := tr.Start(ctx, "notifier.send", trace.WithAttributes(
		attribute.String("notification.type", string(typ)),
		attribute.Int64("user.id", userID),
		attribute.Int64("book.id", bookID),
	))
	defer span.End()

	var msg notification.Message
	if typ == notification.TypeOverdue {
		msg = u.Render.RenderOverdueNotice(to, b, dueDate, daysOverdue)
	} else {
		msg = u.Render.RenderDueReminder(to, b, dueDate)
	}

	res := u.Out.Send(ctx, msg)
	rec := &notification.Record{
		UserID: userID,
		BookID: bookID,
		Type:   typ,
		Status: notification.StatusSent,
	}
	if res.Success {
		mEmails.WithLabelValues(string(typ), "sent").Inc()
		if res.MessageID != "" {
			id := res.MessageID
			rec.MessageID = &id
		}
	} else {
		mEmails.WithLabelValues(string(typ), "failed").Inc()
		span.SetAttributes(attribute.String("send.error", res.Error))
		rec.Status = notification.StatusFailed
		e := res.Error
		rec.ErrorMessage = &e
	}

	if err := u.Log.Record(ctx, rec); err != nil {
		mRecordErrors.Inc()
		span.RecordError(err)
		obs.WithTrace(ctx, u.Logger).Error("record notification failed",
			zap.Int64("user_id", userID),
			zap.Int64("book_id", bookID),
			zap.String("type", string(typ)),
			zap.Error(err),
		)
		return res, err
	}
	return res, nil
}
