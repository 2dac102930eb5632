package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"
	"sync"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// HTTP API configuration
	ListenAddr string

	// Ledger configuration
	InitialRate *big.Int // global accrual rate offered at genesis, fixed-point 1e18 per second

	// Privileged callers
	MinterAddresses    []string // addresses allowed to mint and burn
	RateAdminAddresses []string // addresses allowed to lower the global rate

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ListenAddr:  os.Getenv("LISTEN_ADDR"),
		InitialRate: new(big.Int),
		Environment: os.Getenv("ENVIRONMENT"),
	}

	if config.ListenAddr == "" {
		config.ListenAddr = ":8080"
	}

	if rate := os.Getenv("INITIAL_RATE"); rate != "" {
		parsed, ok := new(big.Int).SetString(rate, 10)
		if !ok || parsed.Sign() < 0 {
			return nil, fmt.Errorf("INITIAL_RATE must be a non-negative integer, got %q", rate)
		}
		config.InitialRate = parsed
	}

	config.MinterAddresses = splitAddresses(os.Getenv("MINTER_ADDRESSES"))
	config.RateAdminAddresses = splitAddresses(os.Getenv("RATE_ADMIN_ADDRESSES"))

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}

func splitAddresses(raw string) []string {
	var addresses []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			addresses = append(addresses, part)
		}
	}
	return addresses
}
