package config

import "time"

// Config holds settings for both the chat client and the relay server.
type Config struct {
	LogLevel string       `mapstructure:"log_level" yaml:"log_level"`
	Server   ServerConfig `mapstructure:"server" yaml:"server"`
	Client   ClientConfig `mapstructure:"client" yaml:"client"`
}

// ServerConfig configures the relay.
type ServerConfig struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxMessageBytes   int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	// RateLimitPerMinute caps payloads per connection; zero disables the limit.
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
}

// ClientConfig configures the chat client.
type ClientConfig struct {
	URL             string          `mapstructure:"url" yaml:"url"`
	Username        string          `mapstructure:"username" yaml:"username"`
	DialTimeout     time.Duration   `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	SendBuffer      int             `mapstructure:"send_buffer" yaml:"send_buffer"`
	MaxMessageBytes int64           `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	HistoryLimit    int             `mapstructure:"history_limit" yaml:"history_limit"`
	Simulate        bool            `mapstructure:"simulate" yaml:"simulate"`
	Reconnect       ReconnectConfig `mapstructure:"reconnect" yaml:"reconnect"`
}

// ReconnectConfig enables automatic reconnects with exponential backoff.
type ReconnectConfig struct {
	Enabled         bool          `mapstructure:"enabled" yaml:"enabled"`
	InitialInterval time.Duration `mapstructure:"initial_interval" yaml:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval" yaml:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier" yaml:"multiplier"`
	MaxAttempts     int           `mapstructure:"max_attempts" yaml:"max_attempts"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		LogLevel: "info",
		Server: ServerConfig{
			Addr:               ":8080",
			ReadHeaderTimeout:  5 * time.Second,
			ShutdownTimeout:    5 * time.Second,
			MaxMessageBytes:    1 << 16,
			RateLimitPerMinute: 120,
		},
		Client: ClientConfig{
			URL:             "ws://localhost:8080/ws",
			DialTimeout:     10 * time.Second,
			SendBuffer:      32,
			MaxMessageBytes: 1 << 16,
			HistoryLimit:    1000,
			Reconnect: ReconnectConfig{
				Enabled:         false,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     30 * time.Second,
				Multiplier:      2,
				MaxAttempts:     0,
			},
		},
	}
}
