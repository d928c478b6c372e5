package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "VARS_"

// parseEnv loads envFile (or ./.env when envFile is empty and the file
// exists) into the process environment without overriding variables that
// are already set, then overlays config with VARS_* variables. DATABASE_URL
// wins over VARS_DATABASE_DSN.
func parseEnv(config *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	config.EndpointAddrHTTP = getEnv("HTTP_ADDR", config.EndpointAddrHTTP)
	config.EndpointAddrGRPC = getEnv("GRPC_ADDR", config.EndpointAddrGRPC)
	config.DatabaseDSN = getEnv("DATABASE_DSN", config.DatabaseDSN)
	config.SecretKey = getEnv("SECRET_KEY", config.SecretKey)
	config.LogLevel = getEnv("LOG_LEVEL", config.LogLevel)
	config.CORSAllowedOrigins = getEnv("CORS_ALLOWED_ORIGINS", config.CORSAllowedOrigins)
	config.RedisURL = getEnv("REDIS_URL", config.RedisURL)

	var err error
	if config.Debug, err = getEnvAsBool("DEBUG", config.Debug); err != nil {
		return err
	}
	if config.RunMigrations, err = getEnvAsBool("RUN_MIGRATIONS", config.RunMigrations); err != nil {
		return err
	}
	if config.MaxLoginAttempts, err = getEnvAsInt("MAX_LOGIN_ATTEMPTS", config.MaxLoginAttempts); err != nil {
		return err
	}
	if config.LoginAttemptWindow, err = getEnvAsDuration("LOGIN_ATTEMPT_WINDOW", config.LoginAttemptWindow); err != nil {
		return err
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		config.DatabaseDSN = url
	}

	return nil
}

// getEnv returns the VARS_-prefixed variable or defaultValue when unset.
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(envPrefix + key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(envPrefix + key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	return v, nil
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(envPrefix + key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	return v, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(envPrefix + key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	return v, nil
}
