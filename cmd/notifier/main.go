package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	config "github.com/NordCoder/Libra/internal/config/notifier"
	"github.com/NordCoder/Libra/internal/domain/notification"
	"github.com/NordCoder/Libra/internal/obs"
	"github.com/NordCoder/Libra/internal/obs/retry"
	"github.com/NordCoder/Libra/internal/outbox"
	kafkaRepo "github.com/NordCoder/Libra/internal/repository/kafka"
	pg "github.com/NordCoder/Libra/internal/repository/postgres"
	"github.com/NordCoder/Libra/internal/services/notifier"
	"github.com/NordCoder/Libra/internal/services/notifier/repo"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal(err)
	}

	l, err := obs.NewLogger(obs.LogConfig{Level: cfg.LogLevel, App: "libra/notifier", Env: cfg.Env})
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()
	l.Info("starting notifier",
		zap.Strings("jobs", jobNames(cfg.Notifier.Jobs)),
		zap.String("timezone", cfg.Notifier.Timezone),
		zap.String("metrics_addr", cfg.Server.MetricsAddr),
	)

	otelCloser, err := obs.SetupOTel(ctx, cfg.AsOTELConfig())
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	db, err := pg.New(ctx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return db.Ping(hctx)
	}, l)

	loans := pg.NewLoanRepo(db)
	nlog := &repo.NotificationLog{Store: pg.NewNotificationRepo(db)}

	var relay *outbox.Runner
	if cfg.Kafka.Enable {
		outboxRepo := pg.NewOutboxRepo(db)
		nlog.Outbox = outboxRepo
		nlog.Tx = pg.NewTransactor(db, l)

		prod := kafkaRepo.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic).WithLogger(l)
		defer func() { _ = prod.Close() }()
		relay = outbox.NewOutboxRunner(l, outboxRepo,
			outbox.MakeGlobalOutboxHandler(kafkaRepo.NewNotificationEventsKafka(prod), retry.DefaultKafkaPolicy(l)),
			cfg.Outbox.Workers, cfg.Outbox.Batch, cfg.Outbox.Wait, cfg.Outbox.InProgressTTL,
		)
	}

	mailer := notifier.NewMailer(cfg.Notifier.SMTP).WithLogger(l)
	if err := mailer.Verify(ctx); err != nil {
		l.Warn("smtp not reachable", zap.String("addr", cfg.Notifier.SMTP.Addr), zap.Error(err))
	}

	uc, err := notifier.NewUsecase(
		repo.LoanScanner{R: loans},
		nlog,
		repo.Directory{Users: pg.NewUserRepo(db), Books: pg.NewBookRepo(db), Loans: loans},
		mailer,
		notifier.NewRenderer(cfg.Notifier.SMTP.From),
		notification.ClockFunc(time.Now),
		cfg.Notifier,
		l,
	)
	if err != nil {
		l.Fatal("notifier init", zap.Error(err))
	}
	loc, err := cfg.Notifier.Location()
	if err != nil {
		l.Fatal("timezone", zap.Error(err))
	}
	sched, err := notifier.NewScheduler(uc, cfg.Notifier.Jobs, loc, cfg.Notifier.DrainTimeout, l)
	if err != nil {
		l.Fatal("scheduler init", zap.Error(err))
	}

	if relay != nil {
		relay.Start(ctx)
	}
	errCh := make(chan error, 1)
	go func() { errCh <- sched.Run(ctx) }()

	select {
	case <-ctx.Done():
		err = <-errCh
	case err = <-errCh:
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		l.Error("scheduler error", zap.Error(err))
	}
	stop()
	if relay != nil {
		relay.Wait()
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}

func jobNames(js []notifier.JobConfig) []string {
	out := make([]string, 0, len(js))
	for _, j := range js {
		out = append(out, j.Name+"="+j.Spec)
	}
	return out
}
