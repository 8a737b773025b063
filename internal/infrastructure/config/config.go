package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Helius      HeliusConfig    `mapstructure:"helius"`
	Moralis     MoralisConfig   `mapstructure:"moralis"`
	DexScreener DexConfig       `mapstructure:"dexscreener"`
	Anthropic   AnthropicConfig `mapstructure:"anthropic"`
	Watchlist   WatchlistConfig `mapstructure:"watchlist"`
}

type ServerConfig struct {
	Port            int      `mapstructure:"port"`
	Host            string   `mapstructure:"host"`
	ReadTimeout     int      `mapstructure:"read_timeout"`
	WriteTimeout    int      `mapstructure:"write_timeout"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	RateLimitPerMin int      `mapstructure:"rate_limit_per_min"`
}

type DatabaseConfig struct {
	URL             string `mapstructure:"url"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string `mapstructure:"migrations_path"`
}

type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	LookupTTL int    `mapstructure:"lookup_ttl"`
}

type HeliusConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"`
}

type MoralisConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Network string `mapstructure:"network"`
	Timeout int    `mapstructure:"timeout"`
}

type DexConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"`
}

type AnthropicConfig struct {
	APIKey       string  `mapstructure:"api_key"`
	Model        string  `mapstructure:"model"`
	MaxTokens    int     `mapstructure:"max_tokens"`
	Temperature  float64 `mapstructure:"temperature"`
	Timeout      int     `mapstructure:"timeout"`
	RateLimitRPM int     `mapstructure:"rate_limit_rpm"`
}

type WatchlistConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Schedule     string `mapstructure:"schedule"`
	LookbackDays int    `mapstructure:"lookback_days"`
	MaxTokens    int    `mapstructure:"max_tokens"`
}

// Load reads configuration from config files and environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	// Read from config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Override with environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	overrideFromEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Build database URL if not provided
	if config.Database.URL == "" {
		config.Database.URL = fmt.Sprintf(
			"postgres://%s:%s@%s:%d/%s?sslmode=%s",
			config.Database.User,
			config.Database.Password,
			config.Database.Host,
			config.Database.Port,
			config.Database.Name,
			config.Database.SSLMode,
		)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("server.rate_limit_per_min", 100)

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "solrisk_service")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.conn_max_lifetime", 300)
	viper.SetDefault("database.migrations_path", "file://migrations")

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.lookup_ttl", 300)

	// Provider defaults
	viper.SetDefault("helius.timeout", 30)
	viper.SetDefault("moralis.network", "mainnet")
	viper.SetDefault("moralis.timeout", 30)
	viper.SetDefault("dexscreener.timeout", 30)

	// Anthropic defaults
	viper.SetDefault("anthropic.model", "claude-3-5-sonnet-20241022")
	viper.SetDefault("anthropic.max_tokens", 1024)
	viper.SetDefault("anthropic.temperature", 0.7)
	viper.SetDefault("anthropic.timeout", 60)
	viper.SetDefault("anthropic.rate_limit_rpm", 50)

	// Watchlist defaults
	viper.SetDefault("watchlist.enabled", true)
	viper.SetDefault("watchlist.schedule", "0 */6 * * *")
	viper.SetDefault("watchlist.lookback_days", 7)
	viper.SetDefault("watchlist.max_tokens", 25)
}

func overrideFromEnv() {
	// Server
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			viper.Set("server.port", p)
		}
	}

	// Database
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		viper.Set("database.url", dbURL)
	}

	// Upstream providers
	if heliusKey := os.Getenv("HELIUS_API_KEY"); heliusKey != "" {
		viper.Set("helius.api_key", heliusKey)
	}
	if moralisKey := os.Getenv("MORALIS_API_KEY"); moralisKey != "" {
		viper.Set("moralis.api_key", moralisKey)
	}

	// Anthropic
	if anthropicKey := os.Getenv("ANTHROPIC_API_KEY"); anthropicKey != "" {
		viper.Set("anthropic.api_key", anthropicKey)
	}
	if model := os.Getenv("ANTHROPIC_MODEL"); model != "" {
		viper.Set("anthropic.model", model)
	}

	// Redis
	if redisURL := os.Getenv("REDIS_PASSWORD"); redisURL != "" {
		viper.Set("redis.password", redisURL)
	}
}

func validate(config *Config) error {
	if config.Database.URL == "" && (config.Database.Host == "" || config.Database.Name == "") {
		return fmt.Errorf("database configuration is incomplete")
	}

	if strings.TrimSpace(config.Helius.APIKey) == "" {
		return fmt.Errorf("helius api key is required")
	}

	if strings.TrimSpace(config.Moralis.APIKey) == "" {
		return fmt.Errorf("moralis api key is required")
	}

	// The Anthropic key is optional: without it analyses still run and
	// reports fall back to deterministic narratives.

	if config.Watchlist.Enabled && config.Watchlist.Schedule == "" {
		return fmt.Errorf("watchlist schedule is required when the worker is enabled")
	}

	return nil
}

// RedisAddr returns the host:port address for the Redis client.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TimeoutDuration returns the configured Helius request timeout.
func (c HeliusConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// TimeoutDuration returns the configured Moralis request timeout.
func (c MoralisConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// TimeoutDuration returns the configured DexScreener request timeout.
func (c DexConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}
