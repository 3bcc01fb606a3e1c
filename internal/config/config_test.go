package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/studyloop/revise/internal/domain/revision"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "revise.db", cfg.DB.Path)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, 5, cfg.Engine.CatchupMaxPerDay)
	require.Equal(t, 3, cfg.Engine.SpawnedExtraCap)
	require.Equal(t, 3, cfg.Engine.CatchupHourUTC)
	require.Nil(t, cfg.Engine.Policy)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("REVISE_SERVER_HOST", "127.0.0.1")
	t.Setenv("REVISE_SERVER_PORT", "9090")
	t.Setenv("REVISE_DB_PATH", "/tmp/test.db")
	t.Setenv("REVISE_LOG_LEVEL", "debug")
	t.Setenv("REVISE_CATCHUP_MAX_PER_DAY", "8")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "/tmp/test.db", cfg.DB.Path)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, 8, cfg.Engine.CatchupMaxPerDay)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("REVISE_SERVER_PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 3000
engine:
  catchup_max_per_day: 10
`), 0o644))
	t.Setenv("REVISE_CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 3000, cfg.Server.Port)
	require.Equal(t, 10, cfg.Engine.CatchupMaxPerDay)
	// Untouched fields keep their defaults.
	require.Equal(t, "revise.db", cfg.DB.Path)
}

func TestLoad_EnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 3000\n"), 0o644))
	t.Setenv("REVISE_CONFIG_PATH", path)
	t.Setenv("REVISE_SERVER_PORT", "4000")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 4000, cfg.Server.Port)
}

func TestLoad_PolicyOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  policy:
    rows:
      confused:
        interval_days: [1, 2, 4]
        activities: [notes, quiz, recall]
        priority: critical
      partial:
        interval_days: [2, 5]
        activities: [quiz, recall]
        priority: high
      clear:
        interval_days: [4, 9]
        activities: [recall, quiz]
        priority: medium
      crystal:
        interval_days: [9]
        activities: [recall]
        priority: low
    effort_minutes:
      notes: 5
      quiz: 10
      recall: 8
      coding: 15
      explain: 12
`), 0o644))
	t.Setenv("REVISE_CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg.Engine.Policy)

	policy := cfg.IntervalPolicy()
	row, ok := policy.Row(revision.UnderstandingConfused)
	require.True(t, ok)
	require.Equal(t, []int{1, 2, 4}, row.IntervalDays)
}

func TestLoad_RejectsInvalidPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  policy:
    rows:
      confused:
        interval_days: [5, 2]
        activities: [quiz, quiz]
        priority: critical
    effort_minutes:
      quiz: 10
`), 0o644))
	t.Setenv("REVISE_CONFIG_PATH", path)

	_, err := Load()
	require.Error(t, err)
}

func TestIntervalPolicy_FallsBackToDefault(t *testing.T) {
	var cfg Config
	policy := cfg.IntervalPolicy()

	row, ok := policy.Row(revision.UnderstandingConfused)
	require.True(t, ok)
	require.Equal(t, []int{1, 3, 7, 14, 21, 30}, row.IntervalDays)
}
