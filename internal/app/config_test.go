package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, "json", cfg.Server.LogEncoding)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 6432, cfg.Database.Postgres.Port)
	require.Equal(t, "require", cfg.Database.Options["sslmode"])

	require.Equal(t, "conflict", cfg.SoftDelete.MissingRowPolicy)
	require.False(t, cfg.SoftDelete.CaseInsensitiveTagNames)
	require.Equal(t, []string{"color"}, cfg.SoftDelete.ExtraInsensitiveFields)

	require.False(t, cfg.Maintenance.Enabled)
	require.Equal(t, "0 3 * * *", cfg.Maintenance.PurgeSchedule)
	require.Equal(t, 168*time.Hour, cfg.Maintenance.Retention)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.yml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7070\nmaintenance:\n  retention: 48h\n"), 0o600))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, 48*time.Hour, cfg.Maintenance.Retention)
	require.Equal(t, "@daily", cfg.Maintenance.PurgeSchedule)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "./data/softstore.sqlite", cfg.Database.Path)
	require.Equal(t, "lookup_error", cfg.SoftDelete.MissingRowPolicy)
	require.True(t, cfg.SoftDelete.CaseInsensitiveTagNames)
	require.True(t, cfg.Maintenance.Enabled)
	require.Equal(t, "@daily", cfg.Maintenance.PurgeSchedule)
	require.Equal(t, 720*time.Hour, cfg.Maintenance.Retention)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("SOFTSTORE_SERVER_PORT", "7070")
	t.Setenv("SOFTSTORE_DATABASE_DRIVER", "mysql")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "mysql", cfg.Database.Driver)
}

func TestLoadConfigRejectsUnknownPolicy(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("softdelete:\n  missing_row_policy: retry\n"), 0o600))

	_, err := LoadConfig(dir)
	require.Error(t, err)
}

func TestDatabaseSettings(t *testing.T) {
	cfg := Config{Database: DatabaseConfig{
		Driver: " PostgreSQL ",
		Postgres: DBAuthConfig{
			Host:     "pg",
			Port:     5432,
			Database: "catalogue",
			Username: "app",
			Password: "pw",
		},
	}}

	dbCfg := cfg.DatabaseSettings()
	require.Equal(t, "postgres", dbCfg.Driver)
	require.Equal(t, "pg", dbCfg.Host)
	require.Equal(t, "catalogue", dbCfg.Name)
	require.Equal(t, "app", dbCfg.User)

	cfg.Database.Driver = ""
	require.Equal(t, "sqlite", cfg.DatabaseSettings().Driver)

	cfg.Database.Driver = "oracle"
	require.Equal(t, "oracle", cfg.DatabaseSettings().Driver)
}

func TestTagRepositoryOptions(t *testing.T) {
	cfg := Config{SoftDelete: SoftDeleteConfig{CaseInsensitiveTagNames: true}}
	opts, err := cfg.TagRepositoryOptions()
	require.NoError(t, err)
	require.Len(t, opts, 2)

	cfg.SoftDelete.CaseInsensitiveTagNames = false
	opts, err = cfg.TagRepositoryOptions()
	require.NoError(t, err)
	require.Len(t, opts, 1)

	cfg.SoftDelete.MissingRowPolicy = "nope"
	_, err = cfg.TagRepositoryOptions()
	require.Error(t, err)
}
