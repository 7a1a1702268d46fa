package config

import (
	"time"

	"github.com/tx-code/subwatch/internal/obs"
)

// Monitor seeds the persisted schedule document on first run. Once the
// document exists it is the source of truth; these values only fill
// gaps left by schema evolution.
type Monitor struct {
	URL             string        `mapstructure:"url"`
	IntervalMinutes int           `mapstructure:"interval_minutes"`
	DataDirectory   string        `mapstructure:"data_directory"`
	ContinuousMode  bool          `mapstructure:"continuous_mode"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
}

type Fetch struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

type Server struct {
	DashboardAddr string `mapstructure:"dashboard_addr"`
	MetricsAddr   string `mapstructure:"metrics_addr"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
}

type Config struct {
	StateFile string  `mapstructure:"state_file"`
	Monitor   Monitor `mapstructure:"monitor"`
	Fetch     Fetch   `mapstructure:"fetch"`
	Server    Server  `mapstructure:"server"`
	Log       Log     `mapstructure:"log"`
	OTEL      OTEL    `mapstructure:"otel"`
}

func (l Log) AsLoggerConfig() obs.LogConfig {
	return obs.LogConfig{Level: l.Level, Pretty: l.Pretty, App: "subwatchd", Ver: "dev"}
}

func (o OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      o.Enable,
		Endpoint:    o.OTLPEndpoint,
		ServiceName: o.ServiceName,
		SampleRatio: o.SampleRatio,
	}
}
