package config

import (
	"time"
)

type Config struct {
	Server    ServerConfig
	Broker    BrokerConfig
	Redis     RedisConfig
	Channels  ChannelsConfig
	Services  ServicesConfig
	Logging   LoggingConfig
	Streaming StreamingConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port                int `mapstructure:"port"`
	ReadTimeoutSeconds  int `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int `mapstructure:"write_timeout_seconds"`
}

type BrokerConfig struct {
	URL            string        `mapstructure:"url"`
	ConnectRetries int           `mapstructure:"connect_retries"`
	ConnectBackoff time.Duration `mapstructure:"connect_backoff"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ChannelsConfig carries the per-channel enable flags. Console and streaming
// default to on, the paid channels default to off.
type ChannelsConfig struct {
	Console   bool `mapstructure:"console"`
	Email     bool `mapstructure:"email"`
	SMS       bool `mapstructure:"sms"`
	Push      bool `mapstructure:"push"`
	Streaming bool `mapstructure:"streaming"`
}

type ServicesConfig struct {
	UsersURL       string        `mapstructure:"users_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StreamingConfig struct {
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
