package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// HTTP server
	Port string

	// Backend selection: "memory" or "sqlite"
	DataBackend string

	// SQLite
	SQLiteDBPath string

	// AMQP (optional; empty URL disables report sync)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets report export (optional)
	GoogleSpreadsheetID string

	// Logging
	LogLevel  string
	LogFormat string // "text" or "pretty"
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8080"),
		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/tracker.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "tracker"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "report_sync"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate checks the configuration and collects every problem found.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "memory", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("invalid data backend %q: must be memory or sqlite", c.DataBackend))
	}

	if c.DataBackend == "sqlite" && strings.TrimSpace(c.SQLiteDBPath) == "" {
		problems = append(problems, "SQLITE_DB_PATH is required for the sqlite backend")
	}

	if c.AMQPURL != "" {
		if _, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL: %v", err))
		}
		if strings.TrimSpace(c.AMQPExchange) == "" {
			problems = append(problems, "AMQP_EXCHANGE is required when AMQP_URL is set")
		}
		if strings.TrimSpace(c.AMQPQueue) == "" {
			problems = append(problems, "AMQP_QUEUE is required when AMQP_URL is set")
		}
	}

	switch c.LogFormat {
	case "text", "pretty":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format %q: must be text or pretty", c.LogFormat))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ReportSyncEnabled reports whether mutations should publish report-sync
// messages.
func (c *Config) ReportSyncEnabled() bool {
	return c.AMQPURL != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
