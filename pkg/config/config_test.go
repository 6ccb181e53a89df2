package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadIsolated loads from a nonexistent env file so a stray ./.env cannot
// leak into the test.
func loadIsolated(t *testing.T) (Config, error) {
	t.Helper()
	return Load(filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadIsolated(t)
	require.NoError(t, err)

	assert.Equal(t, "sdfx", cfg.Kernel)
	assert.Equal(t, 200, cfg.MeshCells)
	assert.Equal(t, 64, cfg.CylinderSegments)
	assert.Equal(t, 5*time.Second, cfg.ScriptTimeout)
	assert.Empty(t, cfg.HistoryPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("KERF_KERNEL", "manifold")
	t.Setenv("KERF_MESH_CELLS", "96")
	t.Setenv("KERF_CYLINDER_SEGMENTS", "32")
	t.Setenv("KERF_SCRIPT_TIMEOUT", "250ms")
	t.Setenv("KERF_HISTORY_PATH", "/tmp/kerf.db")
	t.Setenv("KERF_LOG_LEVEL", "debug")
	t.Setenv("KERF_LOG_FORMAT", "json")

	cfg, err := loadIsolated(t)
	require.NoError(t, err)
	assert.Equal(t, Config{
		Kernel:           "manifold",
		MeshCells:        96,
		CylinderSegments: 32,
		ScriptTimeout:    250 * time.Millisecond,
		HistoryPath:      "/tmp/kerf.db",
		LogLevel:         "debug",
		LogFormat:        "json",
	}, cfg)
}

func TestLoadInvalidNumbers(t *testing.T) {
	t.Setenv("KERF_MESH_CELLS", "lots")
	t.Setenv("KERF_SCRIPT_TIMEOUT", "five-seconds")

	_, err := loadIsolated(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `KERF_MESH_CELLS="lots" is not a valid integer`)
	assert.Contains(t, err.Error(), `KERF_SCRIPT_TIMEOUT="five-seconds" is not a valid duration`)
}

func TestLoadEnvFile(t *testing.T) {
	const key = "KERF_CYLINDER_SEGMENTS"
	prev, had := os.LookupEnv(key)
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, prev)
		} else {
			_ = os.Unsetenv(key)
		}
	})

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=12\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.CylinderSegments)
}

func TestValidate(t *testing.T) {
	base := Config{
		Kernel: "sdfx", MeshCells: 10, CylinderSegments: 8,
		ScriptTimeout: time.Second, LogLevel: "info", LogFormat: "text",
	}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"kernel", func(c *Config) { c.Kernel = "occt" }, "KERF_KERNEL"},
		{"mesh cells", func(c *Config) { c.MeshCells = 0 }, "KERF_MESH_CELLS"},
		{"segments", func(c *Config) { c.CylinderSegments = 2 }, "KERF_CYLINDER_SEGMENTS"},
		{"timeout", func(c *Config) { c.ScriptTimeout = 0 }, "KERF_SCRIPT_TIMEOUT"},
		{"level", func(c *Config) { c.LogLevel = "loud" }, "KERF_LOG_LEVEL"},
		{"format", func(c *Config) { c.LogFormat = "xml" }, "KERF_LOG_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{LogLevel: "warn", LogFormat: "json"}
	logger := cfg.Logger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "op", "box")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"op":"box"`)
}
