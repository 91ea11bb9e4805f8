// Package config provides functionality for managing configuration options
// for the application using command-line flags and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"
)

// Options holds the configuration values for the application.
type Options struct {
	// Address defines the server's listening address (ip:port).
	Address string

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string

	// PriceSecret is the shared secret authenticating internal
	// price-mutation calls. It is not a session token.
	PriceSecret string

	// DiscoveryInterval is how often the scheduler scans the registry
	// for newly minted assets.
	DiscoveryInterval time.Duration

	// UpdateInterval is how often each per-asset loop mutates the price.
	UpdateInterval time.Duration

	// TokenRetention is how long a session token stays valid.
	TokenRetention time.Duration

	// SweepInterval is how often expired tokens are removed.
	SweepInterval time.Duration

	// Config is the path to the config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Address, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.PriceSecret, "s", "", "price mutation shared secret")
	flag.DurationVar(&options.DiscoveryInterval, "discovery-interval", 10*time.Second, "asset discovery interval")
	flag.DurationVar(&options.UpdateInterval, "update-interval", time.Second, "per-asset price update interval")
	flag.DurationVar(&options.TokenRetention, "token-retention", 24*time.Hour, "session token retention window")
	flag.DurationVar(&options.SweepInterval, "sweep-interval", time.Hour, "expired token sweep interval")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Address = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if secret := os.Getenv("PRICE_SECRET"); secret != "" {
		options.PriceSecret = secret
	}

	return options
}
