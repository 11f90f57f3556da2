package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	ServiceName string
	LoggerLevel string

	AppPort        int
	Storage        string
	TrustedProxies []string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	MigrationsPath   string

	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RateLimitPerMinute int

	JWTSecret     string
	PublicBaseURL string
	InviteTTL     time.Duration

	MailAPIURL       string
	MailAPIKey       string
	MailFrom         string
	AdminNotifyEmail string

	DriverBotToken string

	KafkaBrokers  []string
	KafkaJobTopic string
}

func Load() Config {
	_ = godotenv.Load(".env")

	cfg := Config{}

	cfg.ServiceName = cast.ToString(getOrReturnDefault("SERVICE_NAME", "fahrerexpress"))
	cfg.LoggerLevel = cast.ToString(getOrReturnDefault("LOGGER_LEVEL", "debug"))
	cfg.AppPort = cast.ToInt(getOrReturnDefault("APP_PORT", 8080))
	cfg.Storage = cast.ToString(getOrReturnDefault("STORAGE", "postgres"))
	cfg.TrustedProxies = splitList(cast.ToString(getOrReturnDefault("TRUSTED_PROXIES", "")))

	cfg.PostgresHost = cast.ToString(getOrReturnDefault("POSTGRES_HOST", "localhost"))
	cfg.PostgresPort = cast.ToString(getOrReturnDefault("POSTGRES_PORT", "5432"))
	cfg.PostgresUser = cast.ToString(getOrReturnDefault("POSTGRES_USER", "postgres"))
	cfg.PostgresPassword = cast.ToString(getOrReturnDefault("POSTGRES_PASSWORD", "1234"))
	cfg.PostgresDB = cast.ToString(getOrReturnDefault("POSTGRES_DB", "fahrerexpress"))
	cfg.MigrationsPath = cast.ToString(getOrReturnDefault("MIGRATIONS_PATH", ""))

	cfg.RedisHost = cast.ToString(getOrReturnDefault("REDIS_HOST", ""))
	cfg.RedisPort = cast.ToString(getOrReturnDefault("REDIS_PORT", "6379"))
	cfg.RedisPassword = cast.ToString(getOrReturnDefault("REDIS_PASSWORD", ""))
	cfg.RateLimitPerMinute = cast.ToInt(getOrReturnDefault("RATE_LIMIT_PER_MINUTE", 30))

	cfg.JWTSecret = cast.ToString(getOrReturnDefault("JWT_SECRET", ""))
	cfg.PublicBaseURL = strings.TrimRight(cast.ToString(getOrReturnDefault("PUBLIC_BASE_URL", "http://localhost:8080")), "/")
	cfg.InviteTTL = cast.ToDuration(getOrReturnDefault("INVITE_TTL", "48h"))

	cfg.MailAPIURL = strings.TrimRight(cast.ToString(getOrReturnDefault("MAIL_API_URL", "https://api.resend.com")), "/")
	cfg.MailAPIKey = cast.ToString(getOrReturnDefault("MAIL_API_KEY", ""))
	cfg.MailFrom = cast.ToString(getOrReturnDefault("MAIL_FROM", "Fahrerexpress <noreply@fahrerexpress.de>"))
	cfg.AdminNotifyEmail = cast.ToString(getOrReturnDefault("ADMIN_NOTIFY_EMAIL", ""))

	cfg.DriverBotToken = cast.ToString(getOrReturnDefault("DRIVER_BOT_TOKEN", ""))

	cfg.KafkaBrokers = splitList(cast.ToString(getOrReturnDefault("KAFKA_BROKERS", "")))
	cfg.KafkaJobTopic = cast.ToString(getOrReturnDefault("KAFKA_JOB_TOPIC", "job-requests"))

	return cfg
}

// PostgresURL is shared by the pool and the migrator.
func (c Config) PostgresURL() string {
	return "postgres://" + c.PostgresUser + ":" + c.PostgresPassword + "@" + c.PostgresHost + ":" + c.PostgresPort + "/" + c.PostgresDB + "?sslmode=disable"
}

func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
