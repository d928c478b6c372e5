package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/vars/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     HTTP bind address (e.g. ":3000")
//	-g string     gRPC bind address (e.g. ":50051")
//	-d string     PostgreSQL DSN
//	-s string     token signing secret
//	-l string     log level
//	-r string     Redis URL for login throttling
//	-m int        failed logins allowed per window (0 disables throttling)
//	-w duration   login throttling window (e.g. "15m")
//	-debug        development mode
//
// args is filtered with flagx.FilterArgs first so flags owned by other
// components (-c, -env) do not cause parse errors.
func parseFlags(config *Config, args []string) error {
	filtered := flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-l", "-r", "-m", "-w", "-debug"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis URL")
	fs.IntVar(&config.MaxLoginAttempts, "m", config.MaxLoginAttempts, "failed logins allowed per window")
	fs.DurationVar(&config.LoginAttemptWindow, "w", config.LoginAttemptWindow, "login throttling window")
	fs.BoolVar(&config.Debug, "debug", config.Debug, "development mode")

	return fs.Parse(filtered)
}
