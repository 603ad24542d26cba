package config

import (
	"GuardianAI/pkg/cache"
	"GuardianAI/pkg/logger"
	"GuardianAI/pkg/util"
	"log"
	"os"
	"time"
)

// Config is read once at startup and handed to constructors by value.
type Config struct {
	Addr      string `env:"ADDR"`
	Mode      string `env:"MODE"`
	APIPrefix string `env:"API_PREFIX"`
	DBDriver  string `env:"DB_DRIVER"`
	DSN       string `env:"DSN"`
	Log       logger.LogConfig
	LLM       LLMConfig
	Cache     cache.Config
	// RouteCacheTTL of 0 disables caching of route analyses.
	RouteCacheTTL   time.Duration `env:"ROUTE_CACHE_TTL"`
	RateLimit       string        `env:"RATE_LIMIT"`
	MQTT            MQTTConfig
	SMS             SMSConfig
	ReportRetention time.Duration `env:"REPORT_RETENTION"`
	ReportPruneCron string        `env:"REPORT_PRUNE_SCHEDULE"`
	SSEPingInterval time.Duration `env:"SSE_PING_INTERVAL"`
}

// LLMConfig selects the hosted model provider and the model per use case.
type LLMConfig struct {
	Provider     string        `env:"LLM_PROVIDER"`
	APIKey       string        `env:"LLM_API_KEY"`
	BaseURL      string        `env:"LLM_BASE_URL"`
	AdviceModel  string        `env:"LLM_ADVICE_MODEL"`
	RouteModel   string        `env:"LLM_ROUTE_MODEL"`
	SummaryModel string        `env:"LLM_SUMMARY_MODEL"`
	Timeout      time.Duration `env:"LLM_TIMEOUT"`
}

// MQTTConfig enables the broker location feed when Broker is set.
type MQTTConfig struct {
	Broker   string `env:"MQTT_BROKER"`
	Topic    string `env:"MQTT_TOPIC"`
	ClientID string `env:"MQTT_CLIENT_ID"`
}

type SMSConfig struct {
	SignName     string `env:"SMS_SIGN_NAME"`
	TemplateCode string `env:"SMS_TEMPLATE_CODE"`
}

const (
	DefaultAddr         = ":8080"
	DefaultAPIPrefix    = "/api"
	DefaultAdviceModel  = "gemini-3-flash-preview"
	DefaultRouteModel   = "gemini-2.5-flash"
	DefaultSummaryModel = "gemini-3-flash-preview"
	DefaultMQTTTopic    = "guardian/location"
	DefaultRateLimit    = "30-M"
)

func Load() (Config, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	if err := util.LoadEnv(env); err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from the process environment only.
func FromEnv() Config {
	return Config{
		Addr:      util.GetEnvDefault("ADDR", DefaultAddr),
		Mode:      util.GetEnvDefault("MODE", "debug"),
		APIPrefix: util.GetEnvDefault("API_PREFIX", DefaultAPIPrefix),
		DBDriver:  util.GetEnv("DB_DRIVER"),
		DSN:       util.GetEnv("DSN"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		LLM: LLMConfig{
			Provider:     util.GetEnvDefault("LLM_PROVIDER", "gemini"),
			APIKey:       util.GetEnv("LLM_API_KEY"),
			BaseURL:      util.GetEnv("LLM_BASE_URL"),
			AdviceModel:  util.GetEnvDefault("LLM_ADVICE_MODEL", DefaultAdviceModel),
			RouteModel:   util.GetEnvDefault("LLM_ROUTE_MODEL", DefaultRouteModel),
			SummaryModel: util.GetEnvDefault("LLM_SUMMARY_MODEL", DefaultSummaryModel),
			Timeout:      util.GetDurationEnvDefault("LLM_TIMEOUT", 30*time.Second),
		},
		Cache: cache.Config{
			Type: util.GetEnvDefault("CACHE_TYPE", "local"),
			Redis: cache.RedisConfig{
				Addr:         util.GetEnvDefault("REDIS_ADDR", "localhost:6379"),
				Password:     util.GetEnv("REDIS_PASSWORD"),
				DB:           int(util.GetIntEnv("REDIS_DB")),
				PoolSize:     int(util.GetIntEnvDefault("REDIS_POOL_SIZE", 10)),
				MinIdleConns: int(util.GetIntEnvDefault("REDIS_MIN_IDLE_CONNS", 2)),
				DialTimeout:  util.GetDurationEnvDefault("REDIS_DIAL_TIMEOUT", 5*time.Second),
				ReadTimeout:  util.GetDurationEnvDefault("REDIS_READ_TIMEOUT", 3*time.Second),
				WriteTimeout: util.GetDurationEnvDefault("REDIS_WRITE_TIMEOUT", 3*time.Second),
				IdleTimeout:  util.GetDurationEnvDefault("REDIS_IDLE_TIMEOUT", 5*time.Minute),
				KeyPrefix:    util.GetEnvDefault("REDIS_KEY_PREFIX", "guardian:"),
			},
			Local: cache.LocalConfig{
				MaxSize:           int(util.GetIntEnvDefault("LOCAL_CACHE_MAX_SIZE", 1000)),
				DefaultExpiration: util.GetDurationEnvDefault("LOCAL_CACHE_DEFAULT_EXPIRATION", 5*time.Minute),
				CleanupInterval:   util.GetDurationEnvDefault("LOCAL_CACHE_CLEANUP_INTERVAL", 10*time.Minute),
			},
		},
		RouteCacheTTL: util.GetDurationEnvDefault("ROUTE_CACHE_TTL", 10*time.Minute),
		RateLimit:     util.GetEnvDefault("RATE_LIMIT", DefaultRateLimit),
		MQTT: MQTTConfig{
			Broker:   util.GetEnv("MQTT_BROKER"),
			Topic:    util.GetEnvDefault("MQTT_TOPIC", DefaultMQTTTopic),
			ClientID: util.GetEnvDefault("MQTT_CLIENT_ID", "guardian-server"),
		},
		SMS: SMSConfig{
			SignName:     util.GetEnvDefault("SMS_SIGN_NAME", "GuardianAI"),
			TemplateCode: util.GetEnv("SMS_TEMPLATE_CODE"),
		},
		ReportRetention: util.GetDurationEnvDefault("REPORT_RETENTION", 0),
		ReportPruneCron: util.GetEnvDefault("REPORT_PRUNE_SCHEDULE", "@every 10m"),
		SSEPingInterval: util.GetDurationEnvDefault("SSE_PING_INTERVAL", 30*time.Second),
	}
}
