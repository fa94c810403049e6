package config

import (
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server configuration
	Port           string
	Environment    string
	AllowedOrigins []string

	// Storage
	DatabaseURL string
	RedisURL    string

	// Messaging
	NATSURL string

	// Chain configuration
	RPCURL            string
	ChainID           *big.Int
	NetworkName       string
	NetworkPassphrase string
	FactoryAddress    string
	TokenDecimals     int32

	// Wallet configuration
	KeystoreDir          string
	WalletAddress        string
	WalletPassphrase     string
	WalletPollInterval   time.Duration
	WalletConnectTimeout time.Duration

	// Check-in
	CheckInHistoryLimit  int
	CheckInSubmitTimeout time.Duration

	// Event details
	IPFSGateway   string
	EventCacheTTL time.Duration

	// Monitoring
	EnableMetrics bool
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001"),

		// Storage
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		// Messaging
		NATSURL: getEnv("NATS_URL", ""),

		// Chain
		RPCURL:            getEnv("RPC_URL", "https://base-sepolia-rpc.publicnode.com"),
		ChainID:           getEnvAsBigInt("CHAIN_ID", 84532),
		NetworkName:       getEnv("NETWORK_NAME", "TESTNET"),
		NetworkPassphrase: getEnv("NETWORK_PASSPHRASE", "Test SDF Network ; September 2015"),
		FactoryAddress:    getEnv("FACTORY_ADDRESS", ""),
		TokenDecimals:     int32(getEnvAsInt("TOKEN_DECIMALS", 7)),

		// Wallet
		KeystoreDir:          getEnv("KEYSTORE_DIR", "./keystore"),
		WalletAddress:        getEnv("WALLET_ADDRESS", ""),
		WalletPassphrase:     getEnv("WALLET_PASSPHRASE", ""),
		WalletPollInterval:   getEnvAsDuration("WALLET_POLL_INTERVAL", "2s"),
		WalletConnectTimeout: getEnvAsDuration("WALLET_CONNECT_TIMEOUT", "5s"),

		// Check-in
		CheckInHistoryLimit:  getEnvAsInt("CHECKIN_HISTORY_LIMIT", 50),
		CheckInSubmitTimeout: getEnvAsDuration("CHECKIN_SUBMIT_TIMEOUT", "2m"),

		// Event details
		IPFSGateway:   getEnv("IPFS_GATEWAY", "https://gateway.pinata.cloud/ipfs"),
		EventCacheTTL: getEnvAsDuration("EVENT_CACHE_TTL", "30s"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getEnvAsBigInt(key string, defaultValue int64) *big.Int {
	valueStr := getEnv(key, "")
	if value, ok := new(big.Int).SetString(valueStr, 10); ok {
		return value
	}
	return big.NewInt(defaultValue)
}

func getEnvAsList(key, defaultValue string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, defaultValue), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
