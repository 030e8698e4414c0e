package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"github.com/gasgate-labs/gasgate-backend/pkg/env"
)

type Config struct {
	devMode bool

	// API server port
	apiPort string

	// Ledger network and admin principal
	network      string
	adminAddress string

	// Platform fee applied on execute
	feeBps       int
	feeCollector string

	// Relayer identity the watcher submits as
	relayerAddress string

	// Watcher polling cadence and capacity
	pollInterval time.Duration
	maxWorkers   int
	resyncSpec   string

	// Path to the network registry YAML
	networksFile string
}

var cfg Config

// Init initializes the configuration
func Init() error {
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("error loading .env file: %w", err)
	}
	cfg = Config{
		devMode:        env.GetEnvBool("DEV_MODE", false),
		apiPort:        env.GetEnvString("RELAYER_API_PORT", "9010"),
		network:        env.GetEnvString("LEDGER_NETWORK", "ethereum"),
		adminAddress:   env.GetEnvString("LEDGER_ADMIN_ADDRESS", ""),
		feeBps:         env.GetEnvInt("PLATFORM_FEE_BPS", 0),
		feeCollector:   env.GetEnvString("FEE_COLLECTOR_ADDRESS", ""),
		relayerAddress: env.GetEnvString("RELAYER_ADDRESS", ""),
		pollInterval:   env.GetEnvDuration("POLL_INTERVAL", 12*time.Second),
		maxWorkers:     env.GetEnvInt("MAX_WORKERS", 1000),
		resyncSpec:     env.GetEnvString("RESYNC_SCHEDULE", "@every 5m"),
		networksFile:   env.GetEnvString("NETWORKS_FILE", "config/networks.yaml"),
	}
	if err := validateConfig(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func validateConfig() error {
	if !env.IsValidPort(cfg.apiPort) {
		return fmt.Errorf("invalid API port: %s", cfg.apiPort)
	}
	if env.IsEmpty(cfg.network) {
		return fmt.Errorf("ledger network must not be empty")
	}
	if !env.IsValidEthAddress(cfg.adminAddress) {
		return fmt.Errorf("invalid admin address: %s", cfg.adminAddress)
	}
	if !env.IsValidEthAddress(cfg.relayerAddress) {
		return fmt.Errorf("invalid relayer address: %s", cfg.relayerAddress)
	}
	if cfg.feeBps < 0 || cfg.feeBps > 1000 {
		return fmt.Errorf("platform fee out of range: %d bps", cfg.feeBps)
	}
	if cfg.feeBps > 0 && !env.IsValidEthAddress(cfg.feeCollector) {
		return fmt.Errorf("invalid fee collector address: %s", cfg.feeCollector)
	}
	if cfg.pollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	return nil
}

// IsDevMode returns whether the service is running in development mode
func IsDevMode() bool {
	return cfg.devMode
}

// GetAPIPort returns the API server port
func GetAPIPort() string {
	return cfg.apiPort
}

// GetNetwork returns the network the ledger settles on
func GetNetwork() string {
	return cfg.network
}

// GetAdminAddress returns the ledger admin address
func GetAdminAddress() string {
	return cfg.adminAddress
}

// GetFeeBps returns the platform fee in basis points
func GetFeeBps() uint32 {
	return uint32(cfg.feeBps)
}

// GetFeeCollector returns the platform fee collector address
func GetFeeCollector() string {
	return cfg.feeCollector
}

// GetRelayerAddress returns the address the watcher executes as
func GetRelayerAddress() string {
	return cfg.relayerAddress
}

// GetPollInterval returns the watcher evaluation cadence
func GetPollInterval() time.Duration {
	return cfg.pollInterval
}

// GetMaxWorkers returns the maximum number of concurrent watch workers
func GetMaxWorkers() int {
	return cfg.maxWorkers
}

// GetResyncSpec returns the cron schedule for watch set resync
func GetResyncSpec() string {
	return cfg.resyncSpec
}

// GetNetworksFile returns the path to the network registry YAML
func GetNetworksFile() string {
	return cfg.networksFile
}
