package main

import (
	"context"

	config "github.com/NordCoder/Libra/internal/config/api-server"
	pg "github.com/NordCoder/Libra/internal/repository/postgres"
	"go.uber.org/zap"
)

func initDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pg.DB, error) {
	db, err := pg.New(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	logger.Info("postgres connected", zap.Int32("max_conns", cfg.DB.MaxConns))
	return db, nil
}
