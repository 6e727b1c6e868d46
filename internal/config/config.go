package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Version is the application version, overridden at build time.
var Version = "0.1.0-dev"

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Cache       CacheConfig       `mapstructure:"cache"`
	TMDB        TMDBConfig        `mapstructure:"tmdb"`
	YouTube     YouTubeConfig     `mapstructure:"youtube"`
	StreamAvail StreamAvailConfig `mapstructure:"streamavail"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Resolver    ResolverConfig    `mapstructure:"resolver"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// CacheConfig holds resolution cache configuration.
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// TMDBConfig holds catalog provider configuration.
type TMDBConfig struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	ImageBaseURL string `mapstructure:"image_base_url"`
	Region       string `mapstructure:"region"`
	Timeout      int    `mapstructure:"timeout"`
}

// YouTubeConfig holds video-platform metadata provider configuration.
type YouTubeConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"`
}

// StreamAvailConfig holds deep-link availability provider configuration.
type StreamAvailConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Country string `mapstructure:"country"`
	Timeout int    `mapstructure:"timeout"`
}

// LLMConfig holds AI identifier backend configuration. Both backends speak
// the OpenAI-compatible chat completions protocol; the vision backend must
// accept image content parts.
type LLMConfig struct {
	APIKey      string `mapstructure:"api_key"`
	APIURL      string `mapstructure:"api_url"`
	VisionModel string `mapstructure:"vision_model"`
	TextModel   string `mapstructure:"text_model"`
	MaxTokens   int    `mapstructure:"max_tokens"`
	Timeout     int    `mapstructure:"timeout"`
	PreferText  bool   `mapstructure:"prefer_text"`
}

// ResolverConfig holds pipeline tuning knobs. The fuzzy confidence bands
// and the accept threshold were calibrated empirically; treat them as
// configuration, not business logic.
type ResolverConfig struct {
	FuzzyAcceptThreshold float64 `mapstructure:"fuzzy_accept_threshold"`
	SourceMatchThreshold float64 `mapstructure:"source_match_threshold"`
}

// Default returns a Config with default values.
func Default() *Config {
	cfg := &Config{}
	v := viper.New()
	setDefaults(v)
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.screenlens")
	}

	// Environment variable settings
	v.SetEnvPrefix("SCREENLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults + env vars
	}

	// Unmarshal into struct
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8585)

	// Database defaults
	v.SetDefault("database.path", "./data/screenlens.db")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", true)

	// Cache defaults
	v.SetDefault("cache.enabled", true)

	// Catalog provider defaults
	v.SetDefault("tmdb.api_key", "")
	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.image_base_url", "https://image.tmdb.org/t/p")
	v.SetDefault("tmdb.region", "US")
	v.SetDefault("tmdb.timeout", 10)

	// Video platform defaults
	v.SetDefault("youtube.api_key", "")
	v.SetDefault("youtube.base_url", "https://www.googleapis.com/youtube/v3")
	v.SetDefault("youtube.timeout", 10)

	// Streaming availability defaults
	v.SetDefault("streamavail.api_key", "")
	v.SetDefault("streamavail.base_url", "https://streaming-availability.p.rapidapi.com")
	v.SetDefault("streamavail.country", "us")
	v.SetDefault("streamavail.timeout", 10)

	// LLM defaults
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.api_url", "https://api.openai.com/v1")
	v.SetDefault("llm.vision_model", "gpt-4o-mini")
	v.SetDefault("llm.text_model", "gpt-4o-mini")
	v.SetDefault("llm.max_tokens", 500)
	v.SetDefault("llm.timeout", 60)
	v.SetDefault("llm.prefer_text", false)

	// Resolver defaults
	v.SetDefault("resolver.fuzzy_accept_threshold", 0.75)
	v.SetDefault("resolver.source_match_threshold", 0.6)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
