package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment        string
	RemoteBaseURL      string
	RemoteTimeout      time.Duration
	DBDSN              string
	TelegramToken      string
	MeetingProvider    string
	MeetingURLTemplate string
	PollInterval       time.Duration
	MigrationsPath     string
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	cfg := &Config{
		Environment:        os.Getenv("ENV"),
		RemoteBaseURL:      os.Getenv("REMOTE_BASE_URL"),
		RemoteTimeout:      durationEnv("REMOTE_TIMEOUT", 10*time.Second),
		DBDSN:              os.Getenv("DB_DSN"),
		TelegramToken:      os.Getenv("TELEGRAM_TOKEN"),
		MeetingProvider:    os.Getenv("MEETING_PROVIDER"),
		MeetingURLTemplate: os.Getenv("MEETING_URL_TEMPLATE"),
		PollInterval:       durationEnv("POLL_INTERVAL", 30*time.Second),
		MigrationsPath:     os.Getenv("MIGRATIONS_PATH"),
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}

	// Проверяем обязательные поля.
	// TELEGRAM_TOKEN не обязателен: без него уведомления симулируются через лог.
	if cfg.RemoteBaseURL == "" {
		return nil, fmt.Errorf("REMOTE_BASE_URL is required but not set")
	}
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	return cfg, nil
}

// durationEnv читает длительность из окружения с дефолтом
func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default %s", key, raw, fallback)
		return fallback
	}
	return d
}
