package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type Config struct {
	Env         string
	LogLevel    string
	HTTPAddress string

	DBType     string
	DBDSN      string
	SQLitePath string
	DataDir    string

	AuthMode       string
	AuthServiceURL string
	JWTSecret      string
	JWTIssuer      string
	SessionTTL     time.Duration

	Timezone string

	KafkaBrokers []string
	EventsTopic  string
}

var (
	cfg  *Config
	once sync.Once
)

// Load reads configuration once per process. An invalid configuration is
// fatal.
func Load() *Config {
	once.Do(func() {
		c, err := ParseEnvFile(".env")
		if err != nil {
			panic("Invalid config: " + err.Error())
		}
		cfg = c
	})
	return cfg
}

// ParseEnvFile loads KEY=VALUE pairs from path, if it exists, and then
// parses the environment like Parse.
func ParseEnvFile(path string) (*Config, error) {
	if err := loadDotEnv(path); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse()
}

// Parse builds a Config from the current environment and validates it.
func Parse() (*Config, error) {
	dataDir := getEnv("DATA_DIR", "data")
	c := &Config{
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		HTTPAddress:    getEnv("HTTP_ADDRESS", ":8088"),
		DBType:         getEnv("STORAGE_BACKEND", "file"),
		DBDSN:          getEnv("POSTGRES_DSN", ""),
		SQLitePath:     getEnv("SQLITE_PATH", filepath.Join(dataDir, "sleep.db")),
		DataDir:        dataDir,
		AuthMode:       getEnv("AUTH_MODE", "local"),
		AuthServiceURL: getEnv("AUTH_SERVICE_URL", ""),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTIssuer:      getEnv("JWT_ISSUER", "sleep-app"),
		Timezone:       getEnv("APP_TIMEZONE", ""),
		KafkaBrokers:   splitAndTrim(getEnv("KAFKA_BROKERS", "")),
		EventsTopic:    getEnv("SLEEP_EVENTS_TOPIC", "sleep.records"),
	}
	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", "168h"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_TTL: %w", err)
	}
	c.SessionTTL = ttl
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch c.DBType {
	case "file":
		if c.DataDir == "" {
			return errors.New("File storage requires DATA_DIR to be set")
		}
	case "postgres":
		if c.DBDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when STORAGE_BACKEND=sqlite")
		}
	default:
		return errors.New("STORAGE_BACKEND must be one of: file, postgres, sqlite")
	}
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	switch c.AuthMode {
	case "local":
		if c.Env == "production" && c.JWTSecret == "dev-secret-change-me" {
			return errors.New("JWT_SECRET must be changed in production")
		}
	case "remote":
		if c.AuthServiceURL == "" {
			return errors.New("AUTH_SERVICE_URL is required when AUTH_MODE=remote")
		}
	default:
		return errors.New("AUTH_MODE must be one of: local, remote")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("APP_TIMEZONE: %w", err)
	}
	return nil
}

// Location resolves Timezone; empty means the host zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// FilePaths returns the JSON files used by the file backend.
func (c *Config) FilePaths() (records, users, sessions, goals string) {
	return filepath.Join(c.DataDir, "sleep_records.json"),
		filepath.Join(c.DataDir, "users.json"),
		filepath.Join(c.DataDir, "sessions.json"),
		filepath.Join(c.DataDir, "goals.json")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitAndTrim(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// loadDotEnv sets KEY=VALUE pairs from path. Variables already present in
// the environment win.
func loadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.Trim(strings.TrimSpace(v), `"'`)
		if _, set := os.LookupEnv(k); set {
			continue
		}
		os.Setenv(k, v)
	}
	return sc.Err()
}
