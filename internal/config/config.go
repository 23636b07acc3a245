package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage, presence and bus drivers accepted by Load.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	PresenceDriverRedis  = "redis"
	PresenceDriverMemory = "memory"

	BusDriverLocal = "local"
	BusDriverRedis = "redis"
	BusDriverNats  = "nats"
)

// Config holds every runtime setting of the api and worker binaries.
type Config struct {
	HTTPAddr    string
	Environment string
	LogLevel    string

	DBURL       string
	StoreDriver string

	RedisURL                 string
	PresenceDriver           string
	PresenceOnlineKey        string
	PresenceTrackConnections bool

	BusDriver string
	NatsURL   string

	JWTSecret string

	AsynqConcurrency int
	AsynqQueues      string

	OTLPEndpoint string

	SocketInflightTimeout time.Duration
}

// Load reads optional .env files and resolves settings from the environment.
// A missing .env file is ignored.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("PRESENCE_DRIVER", PresenceDriverRedis)
	v.SetDefault("PRESENCE_ONLINE_KEY", "online_users")
	v.SetDefault("PRESENCE_TRACK_CONNECTIONS", false)
	v.SetDefault("BUS_DRIVER", BusDriverLocal)
	v.SetDefault("NATS_URL", "nats://localhost:4222")
	v.SetDefault("ASYNQ_CONCURRENCY", 10)
	v.SetDefault("ASYNQ_QUEUES", "default=1,chat=1")
	v.SetDefault("SOCKET_INFLIGHT_TIMEOUT", 5*time.Second)

	cfg := &Config{
		HTTPAddr:                 v.GetString("HTTP_ADDR"),
		Environment:              strings.ToLower(v.GetString("ENVIRONMENT")),
		LogLevel:                 strings.ToLower(v.GetString("LOG_LEVEL")),
		DBURL:                    strings.TrimSpace(v.GetString("DB_URL")),
		StoreDriver:              strings.ToLower(v.GetString("STORE_DRIVER")),
		RedisURL:                 strings.TrimSpace(v.GetString("REDIS_URL")),
		PresenceDriver:           strings.ToLower(v.GetString("PRESENCE_DRIVER")),
		PresenceOnlineKey:        v.GetString("PRESENCE_ONLINE_KEY"),
		PresenceTrackConnections: v.GetBool("PRESENCE_TRACK_CONNECTIONS"),
		BusDriver:                strings.ToLower(v.GetString("BUS_DRIVER")),
		NatsURL:                  v.GetString("NATS_URL"),
		JWTSecret:                v.GetString("JWT_SECRET"),
		AsynqConcurrency:         v.GetInt("ASYNQ_CONCURRENCY"),
		AsynqQueues:              v.GetString("ASYNQ_QUEUES"),
		OTLPEndpoint:             strings.TrimSpace(v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT")),
		SocketInflightTimeout:    v.GetDuration("SOCKET_INFLIGHT_TIMEOUT"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DBURL == "" {
			return fmt.Errorf("config: DB_URL is required when STORE_DRIVER=%s", StoreDriverPostgres)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.PresenceDriver {
	case PresenceDriverRedis, PresenceDriverMemory:
	default:
		return fmt.Errorf("config: unknown PRESENCE_DRIVER %q", c.PresenceDriver)
	}

	switch c.BusDriver {
	case BusDriverLocal, BusDriverRedis, BusDriverNats:
	default:
		return fmt.Errorf("config: unknown BUS_DRIVER %q", c.BusDriver)
	}

	if c.PresenceOnlineKey == "" {
		return fmt.Errorf("config: PRESENCE_ONLINE_KEY must not be empty")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	if c.AsynqConcurrency <= 0 {
		c.AsynqConcurrency = 10
	}
	if c.SocketInflightTimeout <= 0 {
		c.SocketInflightTimeout = 5 * time.Second
	}
	return nil
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
