package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/vars/internal/flagx"
	"github.com/dmitrijs2005/vars/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file. Only
// fields present in the file override the current values.
type JsonConfig struct {
	EndpointAddrHTTP   *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC   *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN        *string         `json:"database_dsn"`
	SecretKey          *string         `json:"secret_key"`
	LogLevel           *string         `json:"log_level"`
	Debug              *bool           `json:"debug"`
	CORSAllowedOrigins *string         `json:"cors_allowed_origins"`
	RedisURL           *string         `json:"redis_url"`
	MaxLoginAttempts   *int            `json:"max_login_attempts"`
	LoginAttemptWindow *timex.Duration `json:"login_attempt_window"`
	RunMigrations      *bool           `json:"run_migrations"`
}

func sourceFiles(args []string) (string, string) {
	return flagx.SourceFiles(args)
}

// parseJson overlays config with the JSON file at path. An empty path is a
// no-op.
func parseJson(config *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.CORSAllowedOrigins, c.CORSAllowedOrigins)
	setString(&config.RedisURL, c.RedisURL)
	if c.Debug != nil {
		config.Debug = *c.Debug
	}
	if c.MaxLoginAttempts != nil {
		config.MaxLoginAttempts = *c.MaxLoginAttempts
	}
	if c.LoginAttemptWindow != nil {
		config.LoginAttemptWindow = c.LoginAttemptWindow.Duration
	}
	if c.RunMigrations != nil {
		config.RunMigrations = *c.RunMigrations
	}

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
