package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the download service
type Config struct {
	// HTTP server settings
	Server ServerConfig `yaml:"server" json:"server"`

	// Upstream scraping API settings
	RapidAPI RapidAPIConfig `yaml:"rapidapi" json:"rapidapi"`

	// Redis connection for the story extraction lock
	Redis RedisConfig `yaml:"redis" json:"redis"`

	// Advisory lock settings
	Lock LockConfig `yaml:"lock" json:"lock"`

	// Upstream call pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Extraction feature gates
	Extract ExtractConfig `yaml:"extract" json:"extract"`

	// Contact form mail delivery
	SMTP SMTPConfig `yaml:"smtp" json:"smtp"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr            string        `yaml:"addr" json:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// RapidAPIConfig holds upstream scraping API settings
type RapidAPIConfig struct {
	APIKey          string        `yaml:"api_key" json:"api_key"`
	Host            string        `yaml:"host" json:"host"`
	Account         string        `yaml:"account" json:"account"`
	MetadataTimeout time.Duration `yaml:"metadata_timeout" json:"metadata_timeout"`
	MediaTimeout    time.Duration `yaml:"media_timeout" json:"media_timeout"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
}

// LockConfig holds advisory lock settings for story extraction
type LockConfig struct {
	Key          string        `yaml:"key" json:"key"`
	TTL          time.Duration `yaml:"ttl" json:"ttl"`
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
	MaxWait      time.Duration `yaml:"max_wait" json:"max_wait"`
}

// RateLimitConfig holds pacing settings for upstream calls
type RateLimitConfig struct {
	// Story calls share a token bucket: Burst calls per RefillInterval
	Burst          int           `yaml:"burst" json:"burst"`
	RefillInterval time.Duration `yaml:"refill_interval" json:"refill_interval"`
	// Delay between consecutive highlight content fetches
	HighlightDelay time.Duration `yaml:"highlight_delay" json:"highlight_delay"`
}

// ExtractConfig holds extraction feature gates
type ExtractConfig struct {
	// Profile highlight extraction is gated until the feature ships
	EnableProfile bool `yaml:"enable_profile" json:"enable_profile"`
}

// SMTPConfig holds contact form mail settings
type SMTPConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
	User string `yaml:"user" json:"user"`
	Pass string `yaml:"pass" json:"pass"`
	To   string `yaml:"to" json:"to"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	File   string `yaml:"file" json:"file"`
	Pretty bool   `yaml:"pretty" json:"pretty"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		RapidAPI: RapidAPIConfig{
			Host:            "instagram-scrapper-posts-reels-stories-downloader.p.rapidapi.com",
			MetadataTimeout: 15 * time.Second,
			MediaTimeout:    30 * time.Second,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Lock: LockConfig{
			Key:          "rapidapi:story:lock",
			TTL:          3 * time.Second,
			PollInterval: 500 * time.Millisecond,
			MaxWait:      15 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Burst:          1,
			RefillInterval: 2 * time.Second,
			HighlightDelay: 1100 * time.Millisecond,
		},
		Extract: ExtractConfig{
			EnableProfile: false,
		},
		SMTP: SMTPConfig{
			Port: 465,
		},
		Logging: LoggingConfig{
			Level:  "info",
			File:   "",
			Pretty: false,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// Upstream API credentials (historical variable names kept)
	if key := os.Getenv("RAPIDAPI_KEY"); key != "" {
		c.RapidAPI.APIKey = key
	}
	if host := os.Getenv("RAPIDAPI_HOST"); host != "" {
		c.RapidAPI.Host = host
	}

	// Redis
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		c.Redis.Password = pass
	}

	// Server
	if addr := os.Getenv("IGDL_LISTEN_ADDR"); addr != "" {
		c.Server.Addr = addr
	}

	// Feature gates
	if enable := os.Getenv("IGDL_ENABLE_PROFILE"); enable != "" {
		c.Extract.EnableProfile = strings.ToLower(enable) == "true"
	}

	// SMTP (historical variable names kept)
	if host := os.Getenv("SMTP_HOST"); host != "" {
		c.SMTP.Host = host
	}
	if port := os.Getenv("SMTP_PORT"); port != "" {
		var val int
		fmt.Sscanf(port, "%d", &val)
		if val > 0 {
			c.SMTP.Port = val
		}
	}
	if user := os.Getenv("SMTP_USER"); user != "" {
		c.SMTP.User = user
	}
	if pass := os.Getenv("SMTP_PASS"); pass != "" {
		c.SMTP.Pass = pass
	}
	if to := os.Getenv("SMTP_TO"); to != "" {
		c.SMTP.To = to
	}

	// Logging
	if logLevel := os.Getenv("IGDL_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".igdownloader.yaml",
		".igdownloader.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "igdownloader", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "igdownloader", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server listen address is required"))
	}
	if c.RapidAPI.Host == "" {
		errs = append(errs, errors.New("RapidAPI host is required"))
	}
	if c.RapidAPI.MetadataTimeout <= 0 {
		errs = append(errs, errors.New("metadata timeout must be positive"))
	}
	if c.RapidAPI.MediaTimeout <= 0 {
		errs = append(errs, errors.New("media timeout must be positive"))
	}
	if c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis address is required"))
	}
	if c.Lock.Key == "" {
		errs = append(errs, errors.New("lock key is required"))
	}
	if c.Lock.TTL <= 0 {
		errs = append(errs, errors.New("lock TTL must be positive"))
	}
	if c.Lock.PollInterval <= 0 {
		errs = append(errs, errors.New("lock poll interval must be positive"))
	}
	if c.Lock.MaxWait <= 0 {
		errs = append(errs, errors.New("lock max wait must be positive"))
	}
	if c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("rate limit burst must be positive"))
	}
	if c.RateLimit.RefillInterval <= 0 {
		errs = append(errs, errors.New("rate limit refill interval must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Environment variables > .env file > Config file > Defaults
func Load(configPath string) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igdownloader.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
