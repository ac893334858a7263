package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds everything the service reads from the environment.
type Config struct {
	Port        string
	Environment string
	LogLevel    string

	// DataDir is the root for the catalog document and the blob directory.
	DataDir string
	// StoreConfig is the JSON store-factory configuration. Empty selects
	// the jsonfile store under DataDir.
	StoreConfig string

	AdminUsername     string
	AdminPassword     string
	AdminPasswordHash string
	JWTSecret         string

	RPSLimit    float64
	RPSBurst    int
	MaxUploadMB int64
}

// Load reads .env (when present) and the environment, logging the values
// that drive behavior. Secrets are never logged.
func Load(logger *zap.Logger) *Config {
	if err := godotenv.Load(); err == nil {
		logger.Info("loaded configuration from .env file")
	}

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DataDir:           getEnv("DATA_DIR", "data"),
		StoreConfig:       getEnv("CATALOG_STORE_CONFIG", ""),
		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:     getEnv("ADMIN_PASSWORD", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		RPSLimit:          getEnvFloat(logger, "RPS_LIMIT", 50),
		RPSBurst:          getEnvInt(logger, "RPS_BURST", 100),
		MaxUploadMB:       int64(getEnvInt(logger, "MAX_UPLOAD_MB", 64)),
	}

	logger.Info("configuration loaded",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
		zap.String("data_dir", cfg.DataDir),
		zap.Float64("rps_limit", cfg.RPSLimit),
		zap.Int("rps_burst", cfg.RPSBurst),
		zap.Int64("max_upload_mb", cfg.MaxUploadMB),
	)
	return cfg
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(logger *zap.Logger, key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn("invalid integer in environment, using default",
			zap.String("key", key), zap.String("value", v), zap.Int("default", fallback))
		return fallback
	}
	return n
}

func getEnvFloat(logger *zap.Logger, key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger.Warn("invalid number in environment, using default",
			zap.String("key", key), zap.String("value", v), zap.Float64("default", fallback))
		return fallback
	}
	return f
}
