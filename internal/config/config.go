// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Stage names. Use these instead of raw strings.
const (
	StageDevelopment = "development"
	StageTesting     = "testing"
	StageStaging     = "staging"
	StageProduction  = "production"
)

// AuthHeaderName is the request header carrying the identity token.
const AuthHeaderName = "x-firebase-auth-token"

// Config is read once at startup and treated as read-only thereafter.
type Config struct {
	Stage             string
	TableName         string
	LocalDynamoDBURL  string // non-empty only for development/testing
	FirebaseProjectID string
	TestUserUID        string // uid handed out by the passthrough verifier
	MaxPageSize        int
	MaxSyncWindow      int
	MaxSyncRequestSize int // most client entries accepted by one sync call
	PingLazy           bool // skip the startup connectivity check
}

// FromEnv builds a Config from environment variables, applying defaults for
// everything but the stage-specific required values.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Stage:             envOr("APP_STAGE", StageDevelopment),
		TableName:         envOr("EXPENSES_TABLE_NAME", "expenses"),
		LocalDynamoDBURL:  os.Getenv("LOCAL_DYNAMODB_URL"),
		FirebaseProjectID: os.Getenv("FIREBASE_PROJECT_ID"),
		TestUserUID:       envOr("TEST_USER_UID", "fake firebase uid"),
		PingLazy:          os.Getenv("DB_PING_LAZY") == "true",
	}

	var err error
	if cfg.MaxPageSize, err = envInt("MAX_PAGE_SIZE", 25); err != nil {
		return nil, err
	}
	if cfg.MaxSyncWindow, err = envInt("MAX_SYNC_WINDOW", 100); err != nil {
		return nil, err
	}
	if cfg.MaxSyncRequestSize, err = envInt("MAX_SYNC_REQUEST_SIZE", 100); err != nil {
		return nil, err
	}

	switch cfg.Stage {
	case StageDevelopment, StageTesting, StageStaging, StageProduction:
	default:
		return nil, fmt.Errorf("unknown APP_STAGE %q", cfg.Stage)
	}

	if cfg.Live() && cfg.FirebaseProjectID == "" {
		return nil, fmt.Errorf("FIREBASE_PROJECT_ID is required for stage %s", cfg.Stage)
	}

	return cfg, nil
}

// Live reports whether this stage serves real users and must verify identity
// tokens for real.
func (c *Config) Live() bool {
	return c.Stage == StageStaging || c.Stage == StageProduction
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, v)
	}
	return n, nil
}
