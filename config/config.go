// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/zoobzio/relay"
	"github.com/zoobzio/relay/openrouter"
)

// ErrMissingAPIKey is returned when OPENROUTER_API_KEY is unset.
var ErrMissingAPIKey = errors.New("OPENROUTER_API_KEY environment variable not set")

// Config is everything the binary needs to start.
type Config struct {
	Port           string
	AllowedOrigins []string
	RequestTimeout time.Duration
	Provider       openrouter.Config
	Tasks          relay.Config
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, starting from relay.DefaultConfig.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:           "8080",
		AllowedOrigins: []string{"http://localhost:3000"},
		RequestTimeout: 60 * time.Second,
		Tasks:          relay.DefaultConfig(),
	}

	if port := getenv("PORT"); port != "" {
		cfg.Port = port
	}

	if frontendURL := getenv("FRONTEND_URL"); frontendURL != "" {
		for _, origin := range strings.Split(frontendURL, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}

	if raw := getenv("REQUEST_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return cfg, fmt.Errorf("invalid REQUEST_TIMEOUT %q: %w", raw, err)
		}
		cfg.RequestTimeout = timeout
	}

	cfg.Provider = openrouter.Config{
		APIKey:  getenv("OPENROUTER_API_KEY"),
		BaseURL: getenv("OPENROUTER_BASE_URL"),
		Referer: firstNonEmpty(getenv("SITE_URL"), getenv("NEXT_PUBLIC_SITE_URL")),
		Timeout: cfg.RequestTimeout,
	}
	if cfg.Provider.APIKey == "" {
		return cfg, ErrMissingAPIKey
	}

	if model := getenv("SEGMENTS_MODEL"); model != "" {
		cfg.Tasks.Segments.Model = model
		cfg.Tasks.Enhance.Model = model
	}
	if model := getenv("STRATEGY_MODEL"); model != "" {
		cfg.Tasks.Strategy.Model = model
	}
	if raw := getenv("STRATEGY_STREAM"); raw != "" {
		stream, err := strconv.ParseBool(raw)
		if err != nil {
			return cfg, fmt.Errorf("invalid STRATEGY_STREAM %q: %w", raw, err)
		}
		cfg.Tasks.Strategy.Stream = stream
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
