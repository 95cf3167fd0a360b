package notifier

import (
	"fmt"
	"time"
)

// DueSoonMode selects which due dates the due-soon cycle matches.
type DueSoonMode string

const (
	// ModeExact matches loans due exactly today+horizon.
	ModeExact DueSoonMode = "exact"
	// ModeWindow matches loans due anywhere in [today+1, today+horizon].
	ModeWindow DueSoonMode = "window"
)

const (
	JobDueSoon = "due_soon"
	JobOverdue = "overdue"
)

type SMTPConfig struct {
	Addr               string        `mapstructure:"addr"`
	From               string        `mapstructure:"from"`
	User               string        `mapstructure:"user"`
	Password           string        `mapstructure:"password"`
	UseTLS             bool          `mapstructure:"use_tls"`
	StartTLS           bool          `mapstructure:"starttls"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

type JobConfig struct {
	Name string `mapstructure:"name"`
	Spec string `mapstructure:"spec"`
}

type Config struct {
	Enable             bool          `mapstructure:"enable"`
	Timezone           string        `mapstructure:"timezone"`
	DueSoonHorizonDays int           `mapstructure:"due_soon_horizon_days"`
	DueSoonMode        DueSoonMode   `mapstructure:"due_soon_mode"`
	SuppressDuplicates bool          `mapstructure:"suppress_duplicates"`
	DrainTimeout       time.Duration `mapstructure:"drain_timeout"`
	Jobs               []JobConfig   `mapstructure:"jobs"`
	SMTP               SMTPConfig    `mapstructure:"smtp"`
}

func DefaultJobs() []JobConfig {
	return []JobConfig{
		{Name: JobDueSoon, Spec: "0 9 * * *"},
		{Name: JobOverdue, Spec: "0 10 * * *"},
	}
}

// Location resolves the configured time zone; empty means the process local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c Config) Validate() error {
	switch c.DueSoonMode {
	case "", ModeExact, ModeWindow:
	default:
		return fmt.Errorf("notifier: unknown due_soon_mode %q", c.DueSoonMode)
	}
	if c.DueSoonHorizonDays < 0 {
		return fmt.Errorf("notifier: due_soon_horizon_days must be >= 0, got %d", c.DueSoonHorizonDays)
	}
	if c.DueSoonMode == ModeWindow && c.DueSoonHorizonDays < 1 {
		return fmt.Errorf("notifier: window mode needs due_soon_horizon_days >= 1")
	}
	for _, j := range c.Jobs {
		if j.Name != JobDueSoon && j.Name != JobOverdue {
			return fmt.Errorf("notifier: unknown job %q", j.Name)
		}
	}
	return nil
}
