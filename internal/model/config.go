package model

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// StoreConfig holds persistence settings.
type StoreConfig struct {
	// Path is the SQLite database file, or ":memory:" for tests.
	Path string `mapstructure:"path" yaml:"path"`
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	JWTSecret   string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	TokenTTLHrs int    `mapstructure:"token_ttl_hours" yaml:"token_ttl_hours"`
}

// SweepConfig holds deadline-sweep settings.
type SweepConfig struct {
	IntervalSec int `mapstructure:"interval_sec" yaml:"interval_sec"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Store  StoreConfig  `mapstructure:"store" yaml:"store"`
	Auth   AuthConfig   `mapstructure:"auth" yaml:"auth"`
	Sweep  SweepConfig  `mapstructure:"sweep" yaml:"sweep"`
}

// TokenTTL returns the configured token lifetime as a duration.
func (c AppConfig) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHrs) * time.Hour
}

// SweepInterval returns the configured sweep tick as a duration.
func (c AppConfig) SweepInterval() time.Duration {
	return time.Duration(c.Sweep.IntervalSec) * time.Second
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{Addr: ":8000"},
		Store:  StoreConfig{Path: "taskflow.db"},
		Auth:   AuthConfig{JWTSecret: "", TokenTTLHrs: 24},
		Sweep:  SweepConfig{IntervalSec: 60},
	}
}

// LoadConfig reads configuration from the given YAML file path using
// Viper, layering TASKFLOW_* environment variables on top. A missing
// file yields the defaults.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("store.path", "taskflow.db")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl_hours", 24)
	v.SetDefault("sweep.interval_sec", 60)

	v.SetEnvPrefix("TASKFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			cfg := defaultAppConfig()
			cfg.Auth.JWTSecret = v.GetString("auth.jwt_secret")
			return cfg, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			cfg := defaultAppConfig()
			cfg.Auth.JWTSecret = v.GetString("auth.jwt_secret")
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
