package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"wyckoff-trading-bot/internal/wyckoff"
)

// defaultScanSymbols keeps a config-less deployment scanning something
// sensible instead of idling on an empty symbol list.
var defaultScanSymbols = []string{"BTCUSDT", "ETHUSDT", "BNBUSDT", "SOLUSDT", "XRPUSDT"}

type Config struct {
	BinanceConfig   BinanceConfig   `json:"binance"`
	DetectionConfig DetectionConfig `json:"detection"`
	ScannerConfig   ScannerConfig   `json:"scanner"`
	ServerConfig    ServerConfig    `json:"server"`
	DatabaseConfig  DatabaseConfig  `json:"database"`
	RedisConfig     RedisConfig     `json:"redis"`
	VaultConfig     VaultConfig     `json:"vault"`
	LoggingConfig   LoggingConfig   `json:"logging"`
}

type BinanceConfig struct {
	BaseURL  string `json:"base_url"`
	TestNet  bool   `json:"testnet"`
	MockMode bool   `json:"mock_mode"` // Use simulated data when Binance API is unavailable
}

// DetectionConfig holds the Wyckoff detection thresholds as they appear in
// config.json. Threshold values are parsed into exact decimals by
// ToDetectionConfig; never compare them as floats.
type DetectionConfig struct {
	MinPhaseDuration    int     `json:"min_phase_duration"`
	SpringVolumeMax     float64 `json:"spring_volume_max"`
	VolumeThresholdSOS  float64 `json:"volume_threshold_sos"`
	VolumeThresholdSC   float64 `json:"volume_threshold_sc"`
	ConfidenceThreshold int     `json:"confidence_threshold"`
	LookbackBars        int     `json:"lookback_bars"`
	VolumeWindow        int     `json:"volume_window"`
}

// ToDetectionConfig converts the JSON thresholds to the exact-decimal form
// the detectors require. Zero values fall back to the standard defaults.
func (d DetectionConfig) ToDetectionConfig() wyckoff.DetectionConfig {
	cfg := wyckoff.DefaultDetectionConfig()
	if d.MinPhaseDuration > 0 {
		cfg.MinPhaseDuration = d.MinPhaseDuration
	}
	if d.SpringVolumeMax > 0 {
		cfg.SpringVolumeMax = decimal.NewFromFloat(d.SpringVolumeMax)
	}
	if d.VolumeThresholdSOS > 0 {
		cfg.VolumeThresholdSOS = decimal.NewFromFloat(d.VolumeThresholdSOS)
	}
	if d.VolumeThresholdSC > 0 {
		cfg.VolumeThresholdSC = decimal.NewFromFloat(d.VolumeThresholdSC)
	}
	if d.ConfidenceThreshold > 0 {
		cfg.ConfidenceThreshold = d.ConfidenceThreshold
	}
	if d.LookbackBars > 0 {
		cfg.LookbackBars = d.LookbackBars
	}
	if d.VolumeWindow > 0 {
		cfg.VolumeWindow = d.VolumeWindow
	}
	return cfg
}

type ScannerConfig struct {
	Enabled      bool     `json:"enabled"`       // Enable/disable scanner
	Symbols      []string `json:"symbols"`       // Symbols to scan
	Timeframe    string   `json:"timeframe"`     // e.g. "15m", "1h"
	AssetClass   string   `json:"asset_class"`   // Threshold table to use
	ScanInterval int      `json:"scan_interval"` // Seconds between scans
	CacheTTL     int      `json:"cache_ttl"`     // Cache TTL in seconds
	WorkerCount  int      `json:"worker_count"`  // Concurrent worker count
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int    `json:"port"`
	Host            string `json:"host"`
	AllowedOrigins  string `json:"allowed_origins"` // CORS allowed origins
	ReadTimeout     int    `json:"read_timeout"`    // Seconds
	WriteTimeout    int    `json:"write_timeout"`   // Seconds
	ShutdownTimeout int    `json:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
	SSLMode  string `json:"ssl_mode"`
	MaxConns int    `json:"max_conns"`
}

// RedisConfig holds Redis configuration for analysis caching
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// VaultConfig holds HashiCorp Vault configuration
type VaultConfig struct {
	Enabled    bool   `json:"enabled"`
	Address    string `json:"address"`
	Token      string `json:"token"`
	MountPath  string `json:"mount_path"`  // KV secrets engine mount path
	SecretPath string `json:"secret_path"` // Path prefix for secrets
	TLSEnabled bool   `json:"tls_enabled"`
	CACert     string `json:"ca_cert"`
}

type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Output string `json:"output"` // stdout, stderr, or file path
	Pretty bool   `json:"pretty"` // human-readable console output
}

func Load() (*Config, error) {
	// First try to load base config from file
	cfg, err := loadFromFile("config.json")
	if err != nil {
		// If no config file, start with empty config
		cfg = &Config{}
	}

	// Apply environment variable overrides (these take precedence)
	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	// Binance config
	cfg.BinanceConfig.BaseURL = getEnvOrDefault("BINANCE_BASE_URL", cfg.BinanceConfig.BaseURL)
	if cfg.BinanceConfig.BaseURL == "" {
		cfg.BinanceConfig.BaseURL = "https://api.binance.com"
	}
	cfg.BinanceConfig.TestNet = getEnvOrDefault("BINANCE_TESTNET", "false") == "true"
	cfg.BinanceConfig.MockMode = getEnvOrDefault("MOCK_MODE", "false") == "true"

	// Detection config
	cfg.DetectionConfig.MinPhaseDuration = getEnvIntOrDefault("DETECTION_MIN_PHASE_DURATION", cfg.DetectionConfig.MinPhaseDuration)
	cfg.DetectionConfig.ConfidenceThreshold = getEnvIntOrDefault("DETECTION_CONFIDENCE_THRESHOLD", cfg.DetectionConfig.ConfidenceThreshold)
	cfg.DetectionConfig.LookbackBars = getEnvIntOrDefault("DETECTION_LOOKBACK_BARS", cfg.DetectionConfig.LookbackBars)
	cfg.DetectionConfig.VolumeWindow = getEnvIntOrDefault("DETECTION_VOLUME_WINDOW", cfg.DetectionConfig.VolumeWindow)

	// Scanner config
	cfg.ScannerConfig.Enabled = getEnvOrDefault("SCANNER_ENABLED", "true") == "true"
	if symbols := os.Getenv("SCANNER_SYMBOLS"); symbols != "" {
		cfg.ScannerConfig.Symbols = splitSymbols(symbols)
	}
	if len(cfg.ScannerConfig.Symbols) == 0 {
		cfg.ScannerConfig.Symbols = defaultScanSymbols
	}
	cfg.ScannerConfig.Timeframe = getEnvOrDefault("SCANNER_TIMEFRAME", defaultString(cfg.ScannerConfig.Timeframe, "1h"))
	cfg.ScannerConfig.AssetClass = getEnvOrDefault("SCANNER_ASSET_CLASS", defaultString(cfg.ScannerConfig.AssetClass, "stock"))
	cfg.ScannerConfig.ScanInterval = getEnvIntOrDefault("SCANNER_SCAN_INTERVAL", defaultInt(cfg.ScannerConfig.ScanInterval, 60))
	cfg.ScannerConfig.CacheTTL = getEnvIntOrDefault("SCANNER_CACHE_TTL", defaultInt(cfg.ScannerConfig.CacheTTL, 300))
	cfg.ScannerConfig.WorkerCount = getEnvIntOrDefault("SCANNER_WORKER_COUNT", defaultInt(cfg.ScannerConfig.WorkerCount, 4))

	// Server config
	cfg.ServerConfig.Port = getEnvIntOrDefault("WEB_PORT", defaultInt(cfg.ServerConfig.Port, 8080))
	cfg.ServerConfig.Host = getEnvOrDefault("WEB_HOST", defaultString(cfg.ServerConfig.Host, "0.0.0.0"))
	cfg.ServerConfig.AllowedOrigins = getEnvOrDefault("SERVER_ALLOWED_ORIGINS", defaultString(cfg.ServerConfig.AllowedOrigins, "*"))
	cfg.ServerConfig.ReadTimeout = getEnvIntOrDefault("SERVER_READ_TIMEOUT", defaultInt(cfg.ServerConfig.ReadTimeout, 30))
	cfg.ServerConfig.WriteTimeout = getEnvIntOrDefault("SERVER_WRITE_TIMEOUT", defaultInt(cfg.ServerConfig.WriteTimeout, 30))
	cfg.ServerConfig.ShutdownTimeout = getEnvIntOrDefault("SERVER_SHUTDOWN_TIMEOUT", defaultInt(cfg.ServerConfig.ShutdownTimeout, 10))

	// Database config
	cfg.DatabaseConfig.Enabled = getEnvOrDefault("DB_ENABLED", boolString(cfg.DatabaseConfig.Enabled)) == "true"
	cfg.DatabaseConfig.Host = getEnvOrDefault("DB_HOST", defaultString(cfg.DatabaseConfig.Host, "localhost"))
	cfg.DatabaseConfig.Port = getEnvIntOrDefault("DB_PORT", defaultInt(cfg.DatabaseConfig.Port, 5432))
	cfg.DatabaseConfig.User = getEnvOrDefault("DB_USER", defaultString(cfg.DatabaseConfig.User, "postgres"))
	cfg.DatabaseConfig.Password = getEnvOrDefault("DB_PASSWORD", cfg.DatabaseConfig.Password)
	cfg.DatabaseConfig.Name = getEnvOrDefault("DB_NAME", defaultString(cfg.DatabaseConfig.Name, "wyckoff"))
	cfg.DatabaseConfig.SSLMode = getEnvOrDefault("DB_SSL_MODE", defaultString(cfg.DatabaseConfig.SSLMode, "disable"))
	cfg.DatabaseConfig.MaxConns = getEnvIntOrDefault("DB_MAX_CONNS", defaultInt(cfg.DatabaseConfig.MaxConns, 10))

	// Redis config
	cfg.RedisConfig.Enabled = getEnvOrDefault("REDIS_ENABLED", boolString(cfg.RedisConfig.Enabled)) == "true"
	cfg.RedisConfig.Address = getEnvOrDefault("REDIS_ADDRESS", defaultString(cfg.RedisConfig.Address, "localhost:6379"))
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisConfig.Password)
	cfg.RedisConfig.DB = getEnvIntOrDefault("REDIS_DB", cfg.RedisConfig.DB)
	cfg.RedisConfig.PoolSize = getEnvIntOrDefault("REDIS_POOL_SIZE", defaultInt(cfg.RedisConfig.PoolSize, 10))

	// Vault config
	cfg.VaultConfig.Enabled = getEnvOrDefault("VAULT_ENABLED", boolString(cfg.VaultConfig.Enabled)) == "true"
	cfg.VaultConfig.Address = getEnvOrDefault("VAULT_ADDR", defaultString(cfg.VaultConfig.Address, "http://localhost:8200"))
	cfg.VaultConfig.Token = getEnvOrDefault("VAULT_TOKEN", cfg.VaultConfig.Token)
	cfg.VaultConfig.MountPath = getEnvOrDefault("VAULT_MOUNT_PATH", defaultString(cfg.VaultConfig.MountPath, "secret"))
	cfg.VaultConfig.SecretPath = getEnvOrDefault("VAULT_SECRET_PATH", defaultString(cfg.VaultConfig.SecretPath, "wyckoff-bot"))
	cfg.VaultConfig.TLSEnabled = getEnvOrDefault("VAULT_TLS_ENABLED", "false") == "true"

	// Logging config
	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", defaultString(cfg.LoggingConfig.Level, "info"))
	cfg.LoggingConfig.Output = getEnvOrDefault("LOG_OUTPUT", defaultString(cfg.LoggingConfig.Output, "stdout"))
	cfg.LoggingConfig.Pretty = getEnvOrDefault("LOG_PRETTY", "false") == "true"
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &config, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func defaultInt(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

// splitSymbols parses a comma-separated symbol list, trimming whitespace and
// upper-casing each entry.
func splitSymbols(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
