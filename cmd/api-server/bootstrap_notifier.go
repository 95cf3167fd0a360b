package main

import (
	"context"

	config "github.com/NordCoder/Libra/internal/config/api-server"
	"github.com/NordCoder/Libra/internal/domain/notification"
	"github.com/NordCoder/Libra/internal/obs/retry"
	"github.com/NordCoder/Libra/internal/outbox"
	kafkarepo "github.com/NordCoder/Libra/internal/repository/kafka"
	pg "github.com/NordCoder/Libra/internal/repository/postgres"
	"github.com/NordCoder/Libra/internal/services/notifier"
	notifierrepo "github.com/NordCoder/Libra/internal/services/notifier/repo"
	"go.uber.org/zap"
)

type notifierDeps struct {
	usecase   *notifier.Usecase
	scheduler *notifier.Scheduler
	relay     *outbox.Runner
	producer  *kafkarepo.Producer
}

// initNotifier builds the notification pipeline. The scheduler and the outbox relay are
// constructed here and started by main.
func initNotifier(ctx context.Context, cfg *config.Config, db *pg.DB, logger *zap.Logger) (*notifierDeps, error) {
	users := pg.NewUserRepo(db)
	books := pg.NewBookRepo(db)
	loans := pg.NewLoanRepo(db)

	nlog := &notifierrepo.NotificationLog{Store: pg.NewNotificationRepo(db)}
	deps := &notifierDeps{}

	if cfg.Kafka.Enable {
		err := kafkarepo.EnsureTopic(ctx, cfg.Kafka.Brokers, kafkarepo.TopicSpec{
			Name:              cfg.Kafka.Topic,
			NumPartitions:     cfg.Kafka.Partitions,
			ReplicationFactor: cfg.Kafka.ReplicationFactor,
		}, logger)
		if err != nil {
			logger.Warn("kafka topic not ensured, relay will retry publishing", zap.String("topic", cfg.Kafka.Topic), zap.Error(err))
		}

		outboxRepo := pg.NewOutboxRepo(db)
		nlog.Outbox = outboxRepo
		nlog.Tx = pg.NewTransactor(db, logger)

		deps.producer = kafkarepo.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic).WithLogger(logger)
		events := kafkarepo.NewNotificationEventsKafka(deps.producer)
		deps.relay = outbox.NewOutboxRunner(
			logger, outboxRepo,
			outbox.MakeGlobalOutboxHandler(events, retry.DefaultKafkaPolicy(logger)),
			cfg.Outbox.Workers, cfg.Outbox.Batch, cfg.Outbox.Wait, cfg.Outbox.InProgressTTL,
		)
	}

	mailer := notifier.NewMailer(cfg.Notifier.SMTP).WithLogger(logger)
	if err := mailer.Verify(ctx); err != nil {
		logger.Warn("smtp not reachable, emails will fail until it is", zap.String("addr", cfg.Notifier.SMTP.Addr), zap.Error(err))
	} else {
		logger.Info("smtp ready", zap.String("addr", cfg.Notifier.SMTP.Addr))
	}

	uc, err := notifier.NewUsecase(
		notifierrepo.LoanScanner{R: loans},
		nlog,
		notifierrepo.Directory{Users: users, Books: books, Loans: loans},
		mailer,
		notifier.NewRenderer(cfg.Notifier.SMTP.From),
		notification.ClockFunc(nowFunc),
		cfg.Notifier,
		logger,
	)
	if err != nil {
		return nil, err
	}
	deps.usecase = uc

	if cfg.Notifier.Enable {
		loc, err := cfg.Notifier.Location()
		if err != nil {
			return nil, err
		}
		deps.scheduler, err = notifier.NewScheduler(uc, cfg.Notifier.Jobs, loc, cfg.Notifier.DrainTimeout, logger)
		if err != nil {
			return nil, err
		}
	}
	return deps, nil
}
