package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment    string
	HTTPAddr       string
	DBDSN          string
	DBMaxConns     int32
	MigrationsPath string
	RequestTimeout time.Duration
	LabTimezone    *time.Location

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	AMQPURL     string
	AuditQueue  string
	AuditBuffer int
	AuditLogDir string
	ServiceName string

	TelegramToken       string
	TelegramOperatorIDs []int64
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	cfg := &Config{
		Environment:    getEnv("ENV", "development"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		DBDSN:          os.Getenv("DB_DSN"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		AMQPURL:        os.Getenv("AMQP_URL"),
		AuditQueue:     getEnv("AUDIT_QUEUE", "uniquip.audit"),
		AuditLogDir:    getEnv("AUDIT_LOG_DIR", "logs"),
		ServiceName:    getEnv("SERVICE_NAME", "uniquip"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	maxConns, err := getInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}
	cfg.DBMaxConns = int32(maxConns)

	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.AuditBuffer, err = getInt("AUDIT_BUFFER", 256); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}

	if cfg.TelegramOperatorIDs, err = getInt64List("TELEGRAM_OPERATOR_IDS"); err != nil {
		return nil, err
	}
	// Бот без списка операторов не запускается
	if cfg.TelegramToken != "" && len(cfg.TelegramOperatorIDs) == 0 {
		return nil, fmt.Errorf("TELEGRAM_OPERATOR_IDS is required when TELEGRAM_TOKEN is set")
	}

	tz := getEnv("LAB_TIMEZONE", "UTC")
	if cfg.LabTimezone, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("LAB_TIMEZONE %q: %w", tz, err)
	}

	log.Printf("Config loaded (env=%s, addr=%s)\n", cfg.Environment, cfg.HTTPAddr)

	return cfg, nil
}

// LoadConsumer читает только то, что нужно потребителю аудита
func LoadConsumer() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	}

	cfg := &Config{
		Environment: getEnv("ENV", "development"),
		AMQPURL:     os.Getenv("AMQP_URL"),
		AuditQueue:  getEnv("AUDIT_QUEUE", "uniquip.audit"),
		AuditLogDir: getEnv("AUDIT_LOG_DIR", "logs"),
		ServiceName: getEnv("SERVICE_NAME", "uniquip"),
	}
	if cfg.AMQPURL == "" {
		return nil, fmt.Errorf("AMQP_URL is required but not set")
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

// getInt64List разбирает список id через запятую
func getInt64List(key string) ([]int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a comma-separated list of ids: %w", key, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
