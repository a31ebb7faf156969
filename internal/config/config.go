// Package config handles converter configuration from environment variables
// and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults applied when neither the environment nor a flag sets a value.
const (
	DefaultURL         = "http://157.230.127.203/logistics/"
	DefaultOutput      = "logistics_distance_table_transformed.csv"
	DefaultLogLevel    = "info"
	DefaultUserAgent   = "logistics-converter/0.1.0"
	DefaultTimeoutSecs = 30
)

// Config holds all converter configuration.
type Config struct {
	URL            string
	Token          string
	Output         string
	LogLevel       string
	LogPretty      bool
	HTTPTimeout    time.Duration
	UserAgent      string
	RedisURL       string
	PushgatewayURL string
	MaxPages       int
}

// Load reads the given .env files (".env" when none are named) into the
// process environment and builds the configuration from it. Variables that
// are already set take precedence over .env values. Missing .env files are
// not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg := &Config{
		URL:            getEnv("LOGISTICS_URL", DefaultURL),
		Token:          getEnv("LOGISTICS_TOKEN", ""),
		Output:         getEnv("OUTPUT_FILE", DefaultOutput),
		LogLevel:       getEnv("LOG_LEVEL", DefaultLogLevel),
		UserAgent:      getEnv("USER_AGENT", DefaultUserAgent),
		RedisURL:       getEnv("REDIS_URL", ""),
		PushgatewayURL: getEnv("PUSHGATEWAY_URL", ""),
	}

	var err error
	if cfg.LogPretty, err = getBoolEnv("LOG_PRETTY", false); err != nil {
		return nil, err
	}
	secs, err := getIntEnv("HTTP_TIMEOUT_SECONDS", DefaultTimeoutSecs)
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout = time.Duration(secs) * time.Second
	if cfg.MaxPages, err = getIntEnv("MAX_PAGES", 0); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	var problems []string

	if c.URL == "" {
		problems = append(problems, "url is required")
	} else if u, err := url.Parse(c.URL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("url %q is not an absolute http(s) url", c.URL))
	}
	if c.Token == "" {
		problems = append(problems, "token is required (LOGISTICS_TOKEN or --token)")
	}
	if c.Output == "" {
		problems = append(problems, "output path is required")
	}
	if c.HTTPTimeout < 0 {
		problems = append(problems, "timeout must be >= 0")
	}
	if c.MaxPages < 0 {
		problems = append(problems, "max pages must be >= 0")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, value)
	}
	return n, nil
}

func getBoolEnv(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("%s: %q is not a boolean", key, value)
	}
	return b, nil
}
