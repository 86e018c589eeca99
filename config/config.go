package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HttpPort uint16 `envconfig:"CARETRACK_HTTP_SERVER_PORT" default:"8080" required:"true"`

	// TimeZone is used to derive yyyy-MM-dd summary keys and to run the schedules
	TimeZone string `envconfig:"CARETRACK_TIME_ZONE" default:"UTC"`

	SafeZoneCooldown         time.Duration `envconfig:"CARETRACK_SAFE_ZONE_COOLDOWN" default:"5m"`
	WatchDisconnectThreshold time.Duration `envconfig:"CARETRACK_WATCH_DISCONNECT_THRESHOLD" default:"10m"`
	BatteryThresholds        []int         `envconfig:"CARETRACK_BATTERY_THRESHOLDS" default:"20,10,5"`
	ReconciliationSchedule   string        `envconfig:"CARETRACK_RECONCILIATION_SCHEDULE" default:"@every 15m"`
	DailyReportSchedule      string        `envconfig:"CARETRACK_DAILY_REPORT_SCHEDULE" default:"0 20 * * *"`
	JobTimeout               time.Duration `envconfig:"CARETRACK_JOB_TIMEOUT" default:"120s"`
	IdempotencyClaimLease    time.Duration `envconfig:"CARETRACK_IDEMPOTENCY_CLAIM_LEASE" default:"2m"`
	TriggerRetryAttempts     uint          `envconfig:"CARETRACK_TRIGGER_RETRY_ATTEMPTS" default:"3"`
	TriggerRetryDelay        time.Duration `envconfig:"CARETRACK_TRIGGER_RETRY_DELAY" default:"1s"`
	TriggersEnabled          bool          `envconfig:"CARETRACK_TRIGGERS_ENABLED" default:"true"`
	SchedulerEnabled         bool          `envconfig:"CARETRACK_SCHEDULER_ENABLED" default:"true"`
}

func New() *Config {
	return &Config{}
}

func (c *Config) LoadFromEnv() error {
	return envconfig.Process("", c)
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// NewConfig loads the service configuration from the environment
func NewConfig() (*Config, error) {
	cfg := New()
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewLocation exposes the configured time zone to the dependency graph
func NewLocation(cfg *Config) (*time.Location, error) {
	return cfg.Location()
}
