package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Store backends for persisted tokens.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration

	TokenStore    string
	TokenFilePath string

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	RefreshMaxAttempts int
	RefreshCooldown    time.Duration

	GatewayAddress   string
	AllowedOrigins   []string
	AllowCredentials bool

	LogLevel string
}

// Load reads foundrly.json (cwd, then ~/.foundrly) and the environment.
// Environment variables win; API_BASE_URL is the only required setting.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("foundrly")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".foundrly"))
	}

	v.AutomaticEnv()
	for _, key := range []string{
		"API_BASE_URL", "REQUEST_TIMEOUT",
		"TOKEN_STORE", "TOKEN_FILE_PATH",
		"REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB",
		"REFRESH_MAX_ATTEMPTS", "REFRESH_COOLDOWN",
		"GATEWAY_ADDRESS", "ALLOWED_ORIGINS", "ALLOW_CREDENTIALS",
		"LOG_LEVEL",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("TOKEN_STORE", StoreFile)
	v.SetDefault("REFRESH_MAX_ATTEMPTS", 5)
	v.SetDefault("REFRESH_COOLDOWN", "5s")
	v.SetDefault("GATEWAY_ADDRESS", ":3000")
	v.SetDefault("ALLOW_CREDENTIALS", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		APIBaseURL:         v.GetString("API_BASE_URL"),
		RequestTimeout:     v.GetDuration("REQUEST_TIMEOUT"),
		TokenStore:         v.GetString("TOKEN_STORE"),
		TokenFilePath:      v.GetString("TOKEN_FILE_PATH"),
		RedisAddress:       v.GetString("REDIS_ADDRESS"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisDB:            v.GetInt("REDIS_DB"),
		RefreshMaxAttempts: v.GetInt("REFRESH_MAX_ATTEMPTS"),
		RefreshCooldown:    v.GetDuration("REFRESH_COOLDOWN"),
		GatewayAddress:     v.GetString("GATEWAY_ADDRESS"),
		AllowedOrigins:     v.GetStringSlice("ALLOWED_ORIGINS"),
		AllowCredentials:   v.GetBool("ALLOW_CREDENTIALS"),
		LogLevel:           v.GetString("LOG_LEVEL"),
	}

	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL is required")
	}
	if cfg.TokenFilePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir for token file: %w", err)
		}
		cfg.TokenFilePath = filepath.Join(home, ".foundrly", "tokens.json")
	}

	switch cfg.TokenStore {
	case StoreFile, StoreMemory:
	case StoreRedis:
		if cfg.RedisAddress == "" {
			return nil, fmt.Errorf("REDIS_ADDRESS is required for the redis token store")
		}
	default:
		return nil, fmt.Errorf("unknown TOKEN_STORE %q", cfg.TokenStore)
	}

	return cfg, nil
}
