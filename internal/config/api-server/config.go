package api_server_config

import (
	"time"

	"github.com/NordCoder/Libra/internal/obs"
	pg "github.com/NordCoder/Libra/internal/repository/postgres"
	"github.com/NordCoder/Libra/internal/services/api-server/uploads"
	"github.com/NordCoder/Libra/internal/services/notifier"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (c *Config) AsLoggerConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:  c.Log.Level,
		Pretty: c.Log.Pretty,
		App:    "libra/api-server",
		Env:    c.App.Env,
		Ver:    c.App.Version,
	}
}

type Auth struct {
	Enable    bool          `mapstructure:"enable"`
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type Barcodes struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type Kafka struct {
	Enable            bool     `mapstructure:"enable"`
	Brokers           []string `mapstructure:"brokers"`
	Topic             string   `mapstructure:"topic"`
	Partitions        int      `mapstructure:"partitions"`
	ReplicationFactor int      `mapstructure:"replication_factor"`
}

type Outbox struct {
	Workers       int           `mapstructure:"workers"`
	Batch         int           `mapstructure:"batch"`
	Wait          time.Duration `mapstructure:"wait"`
	InProgressTTL time.Duration `mapstructure:"in_progress_ttl"`
}

type Config struct {
	App      App             `mapstructure:"app"`
	Server   Server          `mapstructure:"server"`
	DB       pg.Config       `mapstructure:"db"`
	OTEL     OTEL            `mapstructure:"otel"`
	Log      Log             `mapstructure:"log"`
	Auth     Auth            `mapstructure:"auth"`
	Uploads  uploads.Config  `mapstructure:"uploads"`
	Barcodes Barcodes        `mapstructure:"barcodes"`
	Kafka    Kafka           `mapstructure:"kafka"`
	Outbox   Outbox          `mapstructure:"outbox"`
	Notifier notifier.Config `mapstructure:"notifier"`
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
