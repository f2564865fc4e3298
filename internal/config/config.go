package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	GeoIP     GeoIPConfig     `yaml:"geoip"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	HTTPPort        int    `yaml:"http_port"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type GeoIPConfig struct {
	DatabasePath string `yaml:"database_path"`
}

type RateLimitConfig struct {
	IngestLimit      int      `yaml:"ingest_limit"`
	IngestWindow     string   `yaml:"ingest_window"`
	MonitoringLimit  int      `yaml:"monitoring_limit"`
	MonitoringWindow string   `yaml:"monitoring_window"`
	TrustedIPs       []string `yaml:"trusted_ips"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := defaults()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ShutdownTimeout: "10s",
		},
		Postgres: PostgresConfig{
			MaxConns: 10,
		},
		RateLimit: RateLimitConfig{
			IngestLimit:      100,
			IngestWindow:     "5m",
			MonitoringLimit:  30,
			MonitoringWindow: "1m",
		},
	}
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func (c ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return parseDuration(c.ShutdownTimeout, 10*time.Second)
}

func (c RateLimitConfig) IngestWindowDuration() time.Duration {
	return parseDuration(c.IngestWindow, 5*time.Minute)
}

func (c RateLimitConfig) MonitoringWindowDuration() time.Duration {
	return parseDuration(c.MonitoringWindow, time.Minute)
}
