// Package config loads listener settings from flags, environment and .env files.
//
// Precedence, highest first: command-line flags, PUMP_* environment
// variables, .env files, an optional config file, defaults.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"pump-listener/internal/domain"
	"pump-listener/internal/listener"
	"pump-listener/internal/observability"
	"pump-listener/internal/pumpportal"
)

// EnvPrefix is prepended to every environment variable, e.g. PUMP_ENDPOINT.
const EnvPrefix = "PUMP"

// Config keys.
const (
	KeyConfigFile       = "config"
	KeyEndpoint         = "endpoint"
	KeyReconnectDelay   = "reconnect_delay"
	KeyHandshakeTimeout = "handshake_timeout"
	KeyWriteTimeout     = "write_timeout"
	KeyLinkBaseURL      = "link_base_url"
	KeySinks            = "sinks"
	KeyPostgresDSN      = "postgres_dsn"
	KeyClickhouseDSN    = "clickhouse_dsn"
	KeyPulsarURL        = "pulsar_url"
	KeyPulsarTopic      = "pulsar_topic"
	KeyRecentCapacity   = "recent_capacity"
	KeyMetricsAddr      = "metrics_addr"
	KeyLogLevel         = "log_level"
	KeyLogFormat        = "log_format"
)

var allKeys = []string{
	KeyConfigFile, KeyEndpoint, KeyReconnectDelay, KeyHandshakeTimeout, KeyWriteTimeout,
	KeyLinkBaseURL, KeySinks, KeyPostgresDSN, KeyClickhouseDSN, KeyPulsarURL, KeyPulsarTopic,
	KeyRecentCapacity, KeyMetricsAddr, KeyLogLevel, KeyLogFormat,
}

// flagName maps a config key to its command-line flag, e.g. --reconnect-delay.
func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// Sink names accepted in the sinks list.
const (
	SinkConsole    = "console"
	SinkLog        = "log"
	SinkMemory     = "memory"
	SinkPostgres   = "postgres"
	SinkClickhouse = "clickhouse"
	SinkPulsar     = "pulsar"
)

// KnownSinks lists every sink name in the order sinks are invoked.
var KnownSinks = []string{SinkConsole, SinkLog, SinkMemory, SinkPostgres, SinkClickhouse, SinkPulsar}

// ErrInvalidConfig is returned when a loaded value fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the process settings.
type Config struct {
	ConfigFile string

	// Feed
	Endpoint         string
	ReconnectDelay   time.Duration
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	LinkBaseURL      string

	// Sinks
	Sinks          []string
	PostgresDSN    string
	ClickhouseDSN  string
	PulsarURL      string
	PulsarTopic    string
	RecentCapacity int

	// Monitoring
	MetricsAddr string
	LogLevel    string
	LogFormat   string
}

// HasSink reports whether name is enabled.
func (c *Config) HasSink(name string) bool {
	return slices.Contains(c.Sinks, name)
}

// RegisterFlags defines the listener flags with their defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(flagName(KeyConfigFile), "", "Optional config file (yaml, toml or json)")
	fs.String(flagName(KeyEndpoint), pumpportal.DefaultEndpoint, "Feed WebSocket endpoint")
	fs.Duration(flagName(KeyReconnectDelay), listener.DefaultRetryDelay, "Fixed delay between sessions")
	fs.Duration(flagName(KeyHandshakeTimeout), 10*time.Second, "WebSocket handshake timeout")
	fs.Duration(flagName(KeyWriteTimeout), 10*time.Second, "WebSocket write timeout")
	fs.String(flagName(KeyLinkBaseURL), domain.DefaultLinkBase, "Base URL for token links")
	fs.String(flagName(KeySinks), SinkConsole, "Comma-separated sinks: "+strings.Join(KnownSinks, ","))
	fs.String(flagName(KeyPostgresDSN), "", "PostgreSQL DSN for the postgres sink")
	fs.String(flagName(KeyClickhouseDSN), "", "ClickHouse DSN for the clickhouse sink")
	fs.String(flagName(KeyPulsarURL), "", "Pulsar service URL for the pulsar sink")
	fs.String(flagName(KeyPulsarTopic), "pump-token-creations", "Pulsar topic for the pulsar sink")
	fs.Int(flagName(KeyRecentCapacity), 500, "Events kept by the memory sink")
	fs.String(flagName(KeyMetricsAddr), ":9090", "Monitoring HTTP address (empty disables)")
	fs.String(flagName(KeyLogLevel), "info", "Log level: debug, info, warn, error")
	fs.String(flagName(KeyLogFormat), observability.FormatConsole, "Log format: console or json")
}

// Load reads .env files, binds fs into v and returns the validated config.
// Missing .env files are ignored; variables already set in the environment win.
func Load(v *viper.Viper, fs *pflag.FlagSet, envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for _, key := range allKeys {
			if f := fs.Lookup(flagName(key)); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	if file := v.GetString(KeyConfigFile); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		ConfigFile:       v.ConfigFileUsed(),
		Endpoint:         v.GetString(KeyEndpoint),
		ReconnectDelay:   v.GetDuration(KeyReconnectDelay),
		HandshakeTimeout: v.GetDuration(KeyHandshakeTimeout),
		WriteTimeout:     v.GetDuration(KeyWriteTimeout),
		LinkBaseURL:      v.GetString(KeyLinkBaseURL),
		Sinks:            splitList(v.GetString(KeySinks)),
		PostgresDSN:      v.GetString(KeyPostgresDSN),
		ClickhouseDSN:    v.GetString(KeyClickhouseDSN),
		PulsarURL:        v.GetString(KeyPulsarURL),
		PulsarTopic:      v.GetString(KeyPulsarTopic),
		RecentCapacity:   v.GetInt(KeyRecentCapacity),
		MetricsAddr:      v.GetString(KeyMetricsAddr),
		LogLevel:         strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat:        strings.ToLower(v.GetString(KeyLogFormat)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config for values the listener cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return fmt.Errorf("%w: endpoint %q must be a ws:// or wss:// URL", ErrInvalidConfig, c.Endpoint)
	}
	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("%w: reconnect_delay must be positive", ErrInvalidConfig)
	}
	if c.HandshakeTimeout <= 0 || c.WriteTimeout <= 0 {
		return fmt.Errorf("%w: handshake_timeout and write_timeout must be positive", ErrInvalidConfig)
	}
	if len(c.Sinks) == 0 {
		return fmt.Errorf("%w: at least one sink is required", ErrInvalidConfig)
	}
	for _, s := range c.Sinks {
		if !slices.Contains(KnownSinks, s) {
			return fmt.Errorf("%w: unknown sink %q", ErrInvalidConfig, s)
		}
	}
	if c.HasSink(SinkPostgres) && c.PostgresDSN == "" {
		return fmt.Errorf("%w: postgres sink requires postgres_dsn", ErrInvalidConfig)
	}
	if c.HasSink(SinkClickhouse) && c.ClickhouseDSN == "" {
		return fmt.Errorf("%w: clickhouse sink requires clickhouse_dsn", ErrInvalidConfig)
	}
	if c.HasSink(SinkPulsar) && (c.PulsarURL == "" || c.PulsarTopic == "") {
		return fmt.Errorf("%w: pulsar sink requires pulsar_url and pulsar_topic", ErrInvalidConfig)
	}
	if c.HasSink(SinkMemory) && c.RecentCapacity <= 0 {
		return fmt.Errorf("%w: recent_capacity must be positive", ErrInvalidConfig)
	}
	if c.LogFormat != observability.FormatConsole && c.LogFormat != observability.FormatJSON {
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// splitList splits a comma-separated list, dropping blanks and duplicates.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" && !slices.Contains(out, part) {
			out = append(out, part)
		}
	}
	return out
}
