package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	config "github.com/NordCoder/Libra/internal/config/api-server"
	"go.uber.org/zap"
)

var nowFunc = time.Now

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic(err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting api-server", zap.String("env", cfg.App.Env), zap.String("ver", cfg.App.Version))

	otelShutdown, err := initOTel(rootCtx, cfg)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	db, err := initDB(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	nd, err := initNotifier(rootCtx, cfg, db, logger)
	if err != nil {
		logger.Fatal("notifier init", zap.Error(err))
	}

	httpSrv, err := buildHTTPServer(cfg, logger, db, nd)
	if err != nil {
		logger.Fatal("build http", zap.Error(err))
	}

	schedDone := make(chan error, 1)
	if nd.scheduler != nil {
		go func() { schedDone <- nd.scheduler.Run(rootCtx) }()
	} else {
		logger.Info("notification scheduler disabled")
		close(schedDone)
	}

	if nd.relay != nil {
		nd.relay.Start(rootCtx)
	}

	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- serveHTTP(httpSrv, logger) }()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal", zap.String("reason", "context canceled"))
	case runErr := <-httpErrCh:
		if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(runErr))
		}
		stop()
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	_ = httpSrv.Shutdown(shCtx)

	if err := <-schedDone; err != nil {
		logger.Error("scheduler stop", zap.Error(err))
	}
	if nd.relay != nil {
		nd.relay.Wait()
	}
	if nd.producer != nil {
		_ = nd.producer.Close()
	}
	logger.Info("bye")
}
