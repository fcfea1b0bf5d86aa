package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Env is the process environment configuration, read from PLANFORGE_*
// variables.
type Env struct {
	BaseEnv
	StorageEnv
}

type BaseEnv struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// PlanPath is the plan document location within the storage backend.
	PlanPath string `envconfig:"PLAN_PATH" default:"plan.yaml"`
	// WatchDebounce is how long the watcher waits after a file event
	// before reloading, coalescing editor write bursts.
	WatchDebounce time.Duration `envconfig:"WATCH_DEBOUNCE" default:"250ms"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".planforge"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"planforge/"`
	S3Region string `envconfig:"S3_REGION" default:"us-east-1"`
}

const namespace = "PLANFORGE"

// LoadEnv reads the environment into an Env.
func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

// SlogLevel parses the configured log level, defaulting to info.
func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelInfo
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
