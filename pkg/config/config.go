// Package config loads and validates Kerf configuration from environment
// variables and optional .env files.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Geometry settings.
	Kernel           string // "sdfx" or "manifold"
	MeshCells        int    // marching cubes resolution for sdfx
	CylinderSegments int    // facets per circle for manifold

	// Script evaluation.
	ScriptTimeout time.Duration

	// Transcript history; empty disables it.
	HistoryPath string

	// Logging.
	LogLevel  string // debug, info, warn, error
	LogFormat string // text or json
}

// Load reads configuration from the environment. Variables already set in
// the environment win over those in envFiles; missing files are ignored.
// With no envFiles, ./.env is tried.
func Load(envFiles ...string) (Config, error) {
	_ = godotenv.Load(envFiles...)

	var errs []error
	cfg := Config{
		Kernel:           envStr("KERF_KERNEL", "sdfx"),
		MeshCells:        envInt("KERF_MESH_CELLS", 200, &errs),
		CylinderSegments: envInt("KERF_CYLINDER_SEGMENTS", 64, &errs),
		ScriptTimeout:    envDuration("KERF_SCRIPT_TIMEOUT", 5*time.Second, &errs),
		HistoryPath:      envStr("KERF_HISTORY_PATH", ""),
		LogLevel:         envStr("KERF_LOG_LEVEL", "info"),
		LogFormat:        envStr("KERF_LOG_FORMAT", "text"),
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every setting is usable.
func (c Config) Validate() error {
	switch c.Kernel {
	case "sdfx", "manifold":
	default:
		return fmt.Errorf("config: KERF_KERNEL must be sdfx or manifold, got %q", c.Kernel)
	}
	if c.MeshCells <= 0 {
		return fmt.Errorf("config: KERF_MESH_CELLS must be positive")
	}
	if c.CylinderSegments < 3 {
		return fmt.Errorf("config: KERF_CYLINDER_SEGMENTS must be at least 3")
	}
	if c.ScriptTimeout <= 0 {
		return fmt.Errorf("config: KERF_SCRIPT_TIMEOUT must be positive")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: KERF_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Logger builds the process logger writing to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("config: KERF_LOG_LEVEL %q is not a log level", s)
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s=%q is not a valid integer", key, v))
		return defaultVal
	}
	return n
}

func envDuration(key string, defaultVal time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s=%q is not a valid duration", key, v))
		return defaultVal
	}
	return d
}
