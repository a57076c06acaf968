package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/charlesng35/softstore/internal/database"
	"github.com/charlesng35/softstore/internal/softdelete"
)

// Config represents the runtime configuration for the softstore server.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	SoftDelete  SoftDeleteConfig  `mapstructure:"softdelete"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	LogLevel    string `mapstructure:"log_level"`
	LogEncoding string `mapstructure:"log_encoding"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string            `mapstructure:"driver"`
	Path     string            `mapstructure:"path"`
	DSN      string            `mapstructure:"dsn"`
	LogLevel string            `mapstructure:"log_level"`
	Options  map[string]string `mapstructure:"options"`
	Postgres DBAuthConfig      `mapstructure:"postgres"`
	MySQL    DBAuthConfig      `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// SoftDeleteConfig tunes repository behaviour.
type SoftDeleteConfig struct {
	MissingRowPolicy        string   `mapstructure:"missing_row_policy"`
	CaseInsensitiveTagNames bool     `mapstructure:"case_insensitive_tag_names"`
	ExtraInsensitiveFields  []string `mapstructure:"extra_insensitive_fields"`
}

// MaintenanceConfig controls the purge of old soft-deleted rows.
type MaintenanceConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	PurgeSchedule string        `mapstructure:"purge_schedule"`
	Retention     time.Duration `mapstructure:"retention"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
// config.yaml is searched in ./config and the supplied directories.
func LoadConfig(paths ...string) (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}
	return load(v, true)
}

// LoadConfigFile reads configuration from the named YAML file, which must exist.
func LoadConfigFile(file string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(file)
	return load(v, false)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v)

	v.SetEnvPrefix("SOFTSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func load(v *viper.Viper, optional bool) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !optional || !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if _, err := softdelete.ParseMissingRowPolicy(config.SoftDelete.MissingRowPolicy); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_encoding", "json")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/softstore.sqlite")
	v.SetDefault("database.log_level", "silent")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.mysql.port", 3306)

	v.SetDefault("softdelete.missing_row_policy", "lookup_error")
	v.SetDefault("softdelete.case_insensitive_tag_names", true)

	v.SetDefault("maintenance.enabled", true)
	v.SetDefault("maintenance.purge_schedule", "@daily")
	v.SetDefault("maintenance.retention", "720h") // 30 days
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// DatabaseSettings converts the database section into connection settings for the
// configured driver.
func (c *Config) DatabaseSettings() database.Config {
	dbCfg := database.Config{
		Driver:   strings.ToLower(strings.TrimSpace(c.Database.Driver)),
		Path:     strings.TrimSpace(c.Database.Path),
		DSN:      strings.TrimSpace(c.Database.DSN),
		Options:  c.Database.Options,
		LogLevel: strings.TrimSpace(c.Database.LogLevel),
	}

	var auth DBAuthConfig
	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
		return dbCfg
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		auth = c.Database.Postgres
	case "mysql":
		auth = c.Database.MySQL
	default:
		// Leave driver as-is to surface unsupported driver error during open.
		return dbCfg
	}

	dbCfg.Host = strings.TrimSpace(auth.Host)
	dbCfg.Port = auth.Port
	dbCfg.Name = strings.TrimSpace(auth.Database)
	dbCfg.User = strings.TrimSpace(auth.Username)
	dbCfg.Password = auth.Password
	return dbCfg
}

// TagRepositoryOptions returns the repository options implied by the softdelete section.
func (c *Config) TagRepositoryOptions() ([]softdelete.Option, error) {
	policy, err := softdelete.ParseMissingRowPolicy(c.SoftDelete.MissingRowPolicy)
	if err != nil {
		return nil, err
	}

	opts := []softdelete.Option{softdelete.WithMissingRowPolicy(policy)}
	fields := append([]string(nil), c.SoftDelete.ExtraInsensitiveFields...)
	if c.SoftDelete.CaseInsensitiveTagNames {
		fields = append(fields, "name")
	}
	if len(fields) > 0 {
		opts = append(opts, softdelete.WithCaseInsensitiveFields(fields...))
	}
	return opts, nil
}
