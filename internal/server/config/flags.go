package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/yamdb/internal/flagx"
)

// parseFlags overlays selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-g string   gRPC health bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   secret key
//	-t int      access token validity, minutes
//	-m string   mail backend: log, smtp or s3
//	-l string   log level
//
// Durations are accepted as integers in minutes. Unrecognized arguments,
// including -c/-config, are filtered out with flagx.FilterArgs first.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-t", "-m", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run the HTTP API")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to run gRPC health")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	fs.StringVar(&config.MailBackend, "m", config.MailBackend, "mail backend")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	return nil
}
