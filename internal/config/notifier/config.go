package notifier_config

import (
	"time"

	"github.com/NordCoder/Libra/internal/obs"
	pginfra "github.com/NordCoder/Libra/internal/repository/postgres"
	"github.com/NordCoder/Libra/internal/services/notifier"
)

type KafkaCfg struct {
	Enable  bool     `mapstructure:"enable"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type OutboxCfg struct {
	Workers       int           `mapstructure:"workers"`
	Batch         int           `mapstructure:"batch"`
	Wait          time.Duration `mapstructure:"wait"`
	InProgressTTL time.Duration `mapstructure:"in_progress_ttl"`
}

type Server struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

type Config struct {
	DB       pginfra.Config  `mapstructure:"db"`
	Kafka    KafkaCfg        `mapstructure:"kafka"`
	Outbox   OutboxCfg       `mapstructure:"outbox"`
	Server   Server          `mapstructure:"server"`
	OTEL     OTEL            `mapstructure:"otel"`
	Notifier notifier.Config `mapstructure:"notifier"`
	LogLevel string          `mapstructure:"log_level"`
	Env      string          `mapstructure:"env"`
}

func (c *Config) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      c.OTEL.Enable,
		Endpoint:    c.OTEL.OTLPEndpoint,
		ServiceName: c.OTEL.ServiceName,
		SampleRatio: c.OTEL.SampleRatio,
	}
}
