package config

import "os"

type Config struct {
	Port          string
	DBDriver      string
	DSN           string
	TariffPDFPath string
	AlertWebhook  string
	LogLevel      string
	LogFormat     string
}

// FromEnv builds a Config from environment variables, with sane defaults.
func FromEnv() Config {
	return Config{
		Port:          envOr("PORT", "8000"),
		DBDriver:      envOr("BIOSETTLE_DB_DRIVER", "memory"),
		DSN:           os.Getenv("BIOSETTLE_DB_DSN"),
		TariffPDFPath: envOr("BIOSETTLE_TARIFF_PDF_PATH", "/data/tariff_schedule.pdf"),
		AlertWebhook:  os.Getenv("BIOSETTLE_ALERT_WEBHOOK"),
		LogLevel:      envOr("BIOSETTLE_LOG_LEVEL", "info"),
		LogFormat:     envOr("BIOSETTLE_LOG_FORMAT", "console"),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
