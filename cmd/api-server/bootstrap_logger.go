package main

import (
	config "github.com/NordCoder/Libra/internal/config/api-server"
	"github.com/NordCoder/Libra/internal/obs"
	"go.uber.org/zap"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return obs.NewLogger(cfg.AsLoggerConfig())
}
