// Package config reads process-wide configuration from the environment.
// Every policy value is externally supplied; nothing here is a constant
// the operator cannot change.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is everything the process needs to run.
type Config struct {
	// ListingURL is the webb-tv search page that lists new sessions.
	ListingURL string
	// FeedURL, when set, adds an RSS discovery source for the same listings.
	FeedURL string
	// BaseURL is the site origin relative links resolve against.
	BaseURL string

	// DatabaseDSN is the Postgres connection string for the record store.
	DatabaseDSN string

	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string

	MinDurationSeconds int
	ClipLengthSeconds  int
	PollInterval       time.Duration
	ProcessWorkers     int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	AlertFrom    string
	AlertTo      string
}

// Load reads configuration from the environment, applying defaults for the
// policy values and failing on missing credentials.
func Load() (*Config, error) {
	cfg := &Config{
		ListingURL:         envOr("WEBTV_LISTING_URL", "https://www.riksdagen.se/sv/sok/?avd=webbtv&doktyp=bet%2Cip"),
		FeedURL:            os.Getenv("WEBTV_FEED_URL"),
		BaseURL:            envOr("WEBTV_BASE_URL", "https://www.riksdagen.se"),
		DatabaseDSN:        os.Getenv("DATABASE_URL"),
		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseKey:        os.Getenv("SUPABASE_SERVICE_KEY"),
		SupabaseBucket:     envOr("SUPABASE_BUCKET", "webtv-clips"),
		MinDurationSeconds: 600,
		ClipLengthSeconds:  30,
		PollInterval:       time.Hour,
		ProcessWorkers:     2,
		SMTPHost:           os.Getenv("SMTP_HOST"),
		SMTPPort:           587,
		SMTPUsername:       os.Getenv("SMTP_USERNAME"),
		SMTPPassword:       os.Getenv("SMTP_PASSWORD"),
		AlertFrom:          os.Getenv("ALERT_EMAIL_FROM"),
		AlertTo:            os.Getenv("ALERT_EMAIL_TO"),
	}

	var err error
	if cfg.MinDurationSeconds, err = envIntOr("WEBTV_MIN_DURATION_SECONDS", cfg.MinDurationSeconds); err != nil {
		return nil, err
	}
	if cfg.ClipLengthSeconds, err = envIntOr("WEBTV_CLIP_LENGTH_SECONDS", cfg.ClipLengthSeconds); err != nil {
		return nil, err
	}
	if cfg.ProcessWorkers, err = envIntOr("WEBTV_PROCESS_WORKERS", cfg.ProcessWorkers); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = envIntOr("SMTP_PORT", cfg.SMTPPort); err != nil {
		return nil, err
	}

	pollSeconds, err := envIntOr("WEBTV_POLL_INTERVAL_SECONDS", int(cfg.PollInterval.Seconds()))
	if err != nil {
		return nil, err
	}
	cfg.PollInterval = time.Duration(pollSeconds) * time.Second

	if cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY are required")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}
