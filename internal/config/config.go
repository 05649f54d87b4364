// Package config loads runtime configuration from the environment.
package config

import (
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	GeminiAPIKey string
	GeminiModel  string

	DatabaseURL string

	BatchSize         int
	CandidatesPerRole int
	Concurrency       int
	Retries           int
	Timeout           time.Duration
}

func Load() *Config {
	return &Config{
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		DatabaseURL: resolveDSN(),

		BatchSize:         getEnvInt("ROLEMAP_BATCH_SIZE", 12),
		CandidatesPerRole: getEnvInt("ROLEMAP_CANDIDATES", 20),
		Concurrency:       getEnvInt("ROLEMAP_CONCURRENCY", 4),
		Retries:           getEnvInt("ROLEMAP_RETRIES", 2),
		Timeout:           getEnvDuration("ROLEMAP_TIMEOUT", 60*time.Second),
	}
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// resolveDSN prefers DATABASE_URL, then builds a DSN from POSTGRES_* /
// PG* env vars. Empty means no database configured.
func resolveDSN() string {
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		return v
	}
	user := getEnv("POSTGRES_USER", "")
	if user == "" {
		return ""
	}
	pass := os.Getenv("POSTGRES_PASSWORD")
	host := getEnv("PGHOST", "localhost")
	port := getEnv("PGPORT", "5432")
	db := getEnv("POSTGRES_DB", user)

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + db,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
