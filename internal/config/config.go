package config

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// CacheType represents the type of cache backend.
type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

// minSessionKeyLength is the minimum length of the cookie signing key.
const minSessionKeyLength = 32

// Config holds the configuration for newsdesk.
type Config struct {
	// Listen is the address the HTTP server listens on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// LogLevel is the default log level. It is overridden by the --log-level flag.
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
	// SessionKey is the key used to sign the session cookie.
	SessionKey string `yaml:"session_key" mapstructure:"session_key"`
	// SessionMaxAge is the lifetime of the session cookie in seconds when "remember me" is not set.
	// Zero keeps the cookie for the browser session only.
	SessionMaxAge int `yaml:"session_max_age" mapstructure:"session_max_age"`
	// Session holds additional session settings.
	Session *SessionConfig `yaml:"session" mapstructure:"session"`
	// Database is the database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Cache is the cache configuration.
	Cache *CacheConfig `yaml:"cache" mapstructure:"cache"`
	// Site holds the values rendered into the HTML pages.
	Site *SiteConfig `yaml:"site" mapstructure:"site"`
	// Gravatar is the configuration for author avatars.
	Gravatar *GravatarConfig `yaml:"gravatar" mapstructure:"gravatar"`
}

// SessionConfig holds cookie session settings.
type SessionConfig struct {
	// RememberMaxAge is the lifetime of the session cookie in seconds when "remember me" is set.
	RememberMaxAge int `yaml:"remember_max_age" mapstructure:"remember_max_age"`
	// Secure marks the session cookie as HTTPS only.
	Secure bool `yaml:"secure" mapstructure:"secure"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// Path is the path to the sqlite database file.
	Path string `yaml:"path" mapstructure:"path"`
}

// CacheConfig holds the configuration for the user lookup cache.
type CacheConfig struct {
	// Type is the type of cache engine to use (e.g., "memory", "redis").
	Type CacheType `yaml:"type" mapstructure:"type"`
	// RedisURL is the address of the Redis server if using Redis.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	// TTL is the lifetime of cached entries in seconds. Zero disables expiration.
	TTL int `yaml:"ttl" mapstructure:"ttl"`
	// FlushSchedule is a cron expression for the job that clears the cache.
	FlushSchedule string `yaml:"flush_schedule" mapstructure:"flush_schedule"`
}

// SiteConfig holds static site information.
type SiteConfig struct {
	// Title is shown in the page header.
	Title string `yaml:"title" mapstructure:"title"`
	// ContactEmail is shown on the contacts page.
	ContactEmail string `yaml:"contact_email" mapstructure:"contact_email"`
}

// GravatarConfig holds the configuration for Gravatar profile pictures.
type GravatarConfig struct {
	// Enabled indicates whether Gravatar support is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// DefaultImage is the default image to use when no Gravatar is found.
	// Valid values: "404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"
	DefaultImage string `yaml:"default_image" mapstructure:"default_image"`
	// Rating is the maximum rating for Gravatar images.
	// Valid values: "g", "pg", "r", "x"
	Rating string `yaml:"rating" mapstructure:"rating"`
	// Size is the size of the Gravatar image in pixels (1-2048).
	Size int `yaml:"size" mapstructure:"size"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("NEWSDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.newsdesk")
		v.AddConfigPath("/etc/newsdesk")
	}

	if err := v.ReadInConfig(); err != nil {
		// If no config file is found, use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Debug("No config file found, using defaults and environment")
	} else {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "127.0.0.1:5000")
	v.SetDefault("log_level", "info")
	v.SetDefault("session_key", "")
	v.SetDefault("session_max_age", 0)

	v.SetDefault("session.remember_max_age", 2592000) // 30 days
	v.SetDefault("session.secure", false)

	v.SetDefault("database.path", "./db/news.sqlite")

	v.SetDefault("cache.type", CacheTypeMemory)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", 300)
	v.SetDefault("cache.flush_schedule", "*/30 * * * *")

	v.SetDefault("site.title", "newsdesk")
	v.SetDefault("site.contact_email", "")

	v.SetDefault("gravatar.enabled", false)
	v.SetDefault("gravatar.default_image", "identicon")
	v.SetDefault("gravatar.rating", "g")
	v.SetDefault("gravatar.size", 40)
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing newsdesk config")
	}

	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}

	if c.SessionKey == "" {
		return fmt.Errorf("session key is required")
	}
	if len(c.SessionKey) < minSessionKeyLength {
		return fmt.Errorf("session key must be at least %d characters long", minSessionKeyLength)
	}
	if c.SessionMaxAge < 0 {
		return fmt.Errorf("session max age must not be negative")
	}

	if c.Session == nil {
		c.Session = &SessionConfig{}
	}
	if c.Session.RememberMaxAge <= 0 {
		return fmt.Errorf("session remember max age must be greater than 0")
	}

	if c.Database == nil || strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Cache != nil {
		if c.Cache.Type == "" {
			return fmt.Errorf("cache type is required when cache is configured")
		}
		if c.Cache.Type != CacheTypeMemory && c.Cache.Type != CacheTypeRedis {
			return fmt.Errorf("unknown cache type %q", c.Cache.Type)
		}
		if c.Cache.Type == CacheTypeRedis && c.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when Redis cache is enabled") //nolint:staticcheck
		}
		if c.Cache.TTL < 0 {
			return fmt.Errorf("cache ttl must not be negative")
		}
		if c.Cache.FlushSchedule != "" && len(strings.Fields(c.Cache.FlushSchedule)) != 5 {
			return fmt.Errorf("cache flush schedule must be a valid cron expression with 5 fields (minute hour day month weekday)")
		}
	} else {
		c.Cache = &CacheConfig{
			Type: CacheTypeMemory, // Default to in-memory cache if not configured
		}
	}

	if c.Site == nil {
		c.Site = &SiteConfig{Title: "newsdesk"}
	}

	if c.Gravatar != nil && c.Gravatar.Enabled {
		if c.Gravatar.DefaultImage != "" && !IsValidGravatarDefault(c.Gravatar.DefaultImage) {
			return fmt.Errorf("invalid gravatar default image %q", c.Gravatar.DefaultImage)
		}
		if c.Gravatar.Rating != "" && !IsValidGravatarRating(c.Gravatar.Rating) {
			return fmt.Errorf("invalid gravatar rating %q", c.Gravatar.Rating)
		}
		if c.Gravatar.Size < 1 || c.Gravatar.Size > 2048 {
			return fmt.Errorf("gravatar size must be between 1 and 2048")
		}
	}

	return nil
}

// IsValidGravatarDefault checks if the provided default image value is valid for Gravatar.
func IsValidGravatarDefault(defaultImage string) bool {
	switch defaultImage {
	case "404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank":
		return true
	}
	return false
}

// IsValidGravatarRating checks if the provided rating value is valid for Gravatar.
func IsValidGravatarRating(rating string) bool {
	switch rating {
	case "g", "pg", "r", "x":
		return true
	}
	return false
}
