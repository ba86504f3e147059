package config

import (
	"RuralCare/pkg/cache"
	"RuralCare/pkg/logger"
	"RuralCare/pkg/util"
	"log"
	"os"
	"time"
)

// config/config.go
type Config struct {
	DBDriver          string `env:"DB_DRIVER"`
	DSN               string `env:"DSN"`
	Log               logger.LogConfig
	Cache             cache.Config
	Addr              string        `env:"ADDR"`
	Mode              string        `env:"MODE"`
	APIPrefix         string        `env:"API_PREFIX"`
	MonitorPrefix     string        `env:"MONITOR_PREFIX"`
	SessionSecret     string        `env:"SESSION_SECRET"`
	SessionExpireDays int           `env:"SESSION_EXPIRE_DAYS"`
	LLMApiKey         string        `env:"LLM_API_KEY"`
	LLMBaseURL        string        `env:"LLM_BASE_URL"`
	LLMModel          string        `env:"LLM_MODEL"`
	LLMTimeout        time.Duration `env:"LLM_TIMEOUT"`
	RateLimit         string        `env:"RATE_LIMIT"`
	IdempotencyTTL    time.Duration `env:"IDEMPOTENCY_TTL"`
	GeoIPDB           string        `env:"GEOIP_DB"`
	BackupEnabled     bool          `env:"BACKUP_ENABLED"`
	BackupPath        string        `env:"BACKUP_PATH"`
	BackupSchedule    string        `env:"BACKUP_SCHEDULE"`
	ReconcileSchedule string        `env:"RECONCILE_SCHEDULE"`
	SeedDemo          bool          `env:"SEED_DEMO"`
}

var GlobalConfig *Config

func Load() error {
	// 1. 根据环境加载 .env 文件
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development" // 默认使用开发环境
	}
	err := util.LoadEnv(env)
	if err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	// 2. 加载全局配置
	GlobalConfig = &Config{
		DBDriver:          util.GetEnvOr("DB_DRIVER", "sqlite"),
		DSN:               util.GetEnvOr("DSN", "ruralcare.db"),
		Addr:              util.GetEnvOr("ADDR", ":8080"),
		Mode:              util.GetEnvOr("MODE", env),
		APIPrefix:         util.GetEnvOr("API_PREFIX", "/api"),
		MonitorPrefix:     util.GetEnvOr("MONITOR_PREFIX", "/monitor"),
		SessionSecret:     util.GetEnvOr("SESSION_SECRET", "ruralcare-dev-secret"),
		SessionExpireDays: int(util.GetIntEnv("SESSION_EXPIRE_DAYS")),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		Cache: cache.Config{
			Type: util.GetEnvOr("CACHE_TYPE", "local"),
			Redis: cache.RedisConfig{
				Addr:     util.GetEnvOr("REDIS_ADDR", "localhost:6379"),
				Password: util.GetEnv("REDIS_PASSWORD"),
				DB:       int(util.GetIntEnv("REDIS_DB")),
				PoolSize: int(util.GetIntEnv("REDIS_POOL_SIZE")),
			},
			Local: cache.LocalConfig{
				MaxSize:           int(util.GetIntEnv("LOCAL_CACHE_MAX_SIZE")),
				DefaultExpiration: util.GetDurationEnv("LOCAL_CACHE_DEFAULT_EXPIRATION", 10*time.Minute),
				CleanupInterval:   util.GetDurationEnv("LOCAL_CACHE_CLEANUP_INTERVAL", 10*time.Minute),
			},
		},
		LLMApiKey:         util.GetEnv("LLM_API_KEY"),
		LLMBaseURL:        util.GetEnvOr("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
		LLMModel:          util.GetEnvOr("LLM_MODEL", "llama-3.3-70b-versatile"),
		LLMTimeout:        util.GetDurationEnv("LLM_TIMEOUT", 30*time.Second),
		RateLimit:         util.GetEnvOr("RATE_LIMIT", "30-M"),
		IdempotencyTTL:    util.GetDurationEnv("IDEMPOTENCY_TTL", 10*time.Minute),
		GeoIPDB:           util.GetEnv("GEOIP_DB"),
		BackupEnabled:     util.GetBoolEnv("BACKUP_ENABLED"),
		BackupPath:        util.GetEnvOr("BACKUP_PATH", "backups"),
		BackupSchedule:    util.GetEnvOr("BACKUP_SCHEDULE", "0 3 * * *"),
		ReconcileSchedule: util.GetEnvOr("RECONCILE_SCHEDULE", "*/15 * * * *"),
		SeedDemo:          util.GetBoolEnv("SEED_DEMO"),
	}
	if GlobalConfig.SessionExpireDays <= 0 {
		GlobalConfig.SessionExpireDays = 7
	}
	return nil
}
