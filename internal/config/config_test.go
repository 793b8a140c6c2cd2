package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plancal/internal/planner"
)

func TestLoad_CreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoad_NormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
listen: ":9090"
timezone: UTC
work_start: "08:30"
horizon_days: 0
log_level: LOUD
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "08:30", cfg.WorkStart)
	assert.Equal(t, "17:00", cfg.WorkEnd)
	assert.Equal(t, 30, cfg.SlotMinutes)
	assert.Equal(t, 0, cfg.HorizonDays)
	assert.Equal(t, "5 0 * * *", cfg.RefreshCron)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_RejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unterminated"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load("")
	assert.Error(t, err)
}

func TestSave_RoundTripsThroughLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Timezone = "Europe/Berlin"
	cfg.TasksFile = "/var/lib/plancal/tasks.yaml"
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file is renamed away")
}

func TestPlanner(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.SlotMinutes = 15

	o, err := cfg.Planner()
	require.NoError(t, err)
	assert.Equal(t, planner.ClockTime{Hour: 9}, o.WorkStart)
	assert.Equal(t, planner.ClockTime{Hour: 17}, o.WorkEnd)
	assert.Equal(t, 15*time.Minute, o.Slot)
	assert.Equal(t, 60, o.HorizonDays)
	assert.Equal(t, time.UTC, o.Location)

	local := DefaultConfig()
	o, err = local.Planner()
	require.NoError(t, err)
	assert.Equal(t, time.Local, o.Location)
}

func TestPlanner_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "bad start", mutate: func(c *Config) { c.WorkStart = "9am" }},
		{name: "bad end", mutate: func(c *Config) { c.WorkEnd = "25:00" }},
		{name: "inverted window", mutate: func(c *Config) { c.WorkStart, c.WorkEnd = "18:00", "08:00" }},
		{name: "slot too long", mutate: func(c *Config) { c.WorkEnd = "09:20" }},
		{name: "unknown zone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			_, err := cfg.Planner()
			assert.Error(t, err)
		})
	}
}
