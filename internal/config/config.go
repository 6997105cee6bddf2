// Package config provides configuration management for gitguide using
// Viper for loading from files, environment variables and command-line
// flags.
//
// Values come from .gitguide.yml (or the file named by
// GITGUIDE_CONFIG_FILE), GITGUIDE_ prefixed environment variables and
// flags bound by the commands. Load applies defaults and validates the
// result.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/gitguide/internal/logging"
	"github.com/conneroisu/gitguide/internal/settings"
)

// EnvPrefix is the prefix of environment overrides, e.g. GITGUIDE_SERVER_PORT.
const EnvPrefix = "GITGUIDE"

type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Content ContentConfig `mapstructure:"content" yaml:"content"`
	Site    SiteConfig    `mapstructure:"site" yaml:"site"`
	TOC     TOCConfig     `mapstructure:"toc" yaml:"toc"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	Environment     string        `mapstructure:"environment" yaml:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// ContentConfig selects the catalog. An empty Dir serves the embedded
// catalog.
type ContentConfig struct {
	Dir      string        `mapstructure:"dir" yaml:"dir"`
	Watch    bool          `mapstructure:"watch" yaml:"watch"`
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

type SiteConfig struct {
	Title string `mapstructure:"title" yaml:"title"`
	// DefaultTheme overrides the saved settings file when set.
	DefaultTheme string `mapstructure:"default_theme" yaml:"default_theme"`
	SettingsFile string `mapstructure:"settings_file" yaml:"settings_file"`
}

type TOCConfig struct {
	SettleDelay  time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	MaxSettle    time.Duration `mapstructure:"max_settle" yaml:"max_settle"`
	Breakpoint   int           `mapstructure:"breakpoint" yaml:"breakpoint"`
	ScrollOffset float64       `mapstructure:"scroll_offset" yaml:"scroll_offset"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("content.dir", "")
	v.SetDefault("content.watch", false)
	v.SetDefault("content.debounce", 300*time.Millisecond)

	v.SetDefault("site.title", "Git Guide")
	v.SetDefault("site.default_theme", "")
	v.SetDefault("site.settings_file", "")

	v.SetDefault("toc.settle_delay", 100*time.Millisecond)
	v.SetDefault("toc.max_settle", time.Second)
	v.SetDefault("toc.breakpoint", 1280)
	v.SetDefault("toc.scroll_offset", 24.0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v, applying defaults first.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	// Environment overrides arrive as one comma separated string.
	var origins []string
	for _, entry := range config.Server.AllowedOrigins {
		origins = append(origins, splitList(entry)...)
	}
	config.Server.AllowedOrigins = origins

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// LoggerConfig maps the log section onto the logger.
func (c *Config) LoggerConfig() *logging.LoggerConfig {
	lc := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.Log.Level); err == nil {
		lc.Level = level
	}
	lc.Format = strings.ToLower(c.Log.Format)
	return lc
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := validateContentConfig(&config.Content); err != nil {
		return fmt.Errorf("content config: %w", err)
	}
	if err := validateSiteConfig(&config.Site); err != nil {
		return fmt.Errorf("site config: %w", err)
	}
	if err := validateTOCConfig(&config.TOC); err != nil {
		return fmt.Errorf("toc config: %w", err)
	}
	if err := validateLogConfig(&config.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Allow 0 for system-assigned ports in testing
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if err := rejectDangerous(config.Host, "host"); err != nil {
		return err
	}

	switch config.Environment {
	case "development", "production":
	default:
		return fmt.Errorf("environment %q must be development or production", config.Environment)
	}

	for _, origin := range config.AllowedOrigins {
		if err := rejectDangerous(origin, "allowed origin"); err != nil {
			return err
		}
	}

	if config.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	return nil
}

func validateContentConfig(config *ContentConfig) error {
	if config.Dir != "" {
		if err := validatePath(config.Dir); err != nil {
			return fmt.Errorf("invalid dir '%s': %w", config.Dir, err)
		}
	}
	if config.Watch && config.Dir == "" {
		return fmt.Errorf("watch requires a content dir")
	}
	if config.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive")
	}
	return nil
}

func validateSiteConfig(config *SiteConfig) error {
	if strings.TrimSpace(config.Title) == "" {
		return fmt.Errorf("title must not be empty")
	}
	if config.DefaultTheme != "" {
		if _, err := settings.Parse(config.DefaultTheme); err != nil {
			return fmt.Errorf("default_theme: %w", err)
		}
	}
	if config.SettingsFile != "" {
		if err := validatePath(config.SettingsFile); err != nil {
			return fmt.Errorf("invalid settings_file '%s': %w", config.SettingsFile, err)
		}
	}
	return nil
}

func validateTOCConfig(config *TOCConfig) error {
	if config.SettleDelay <= 0 {
		return fmt.Errorf("settle_delay must be positive")
	}
	if config.MaxSettle < config.SettleDelay {
		return fmt.Errorf("max_settle %s is shorter than settle_delay %s", config.MaxSettle, config.SettleDelay)
	}
	if config.Breakpoint <= 0 {
		return fmt.Errorf("breakpoint must be positive")
	}
	if config.ScrollOffset < 0 {
		return fmt.Errorf("scroll_offset must not be negative")
	}
	return nil
}

func validateLogConfig(config *LogConfig) error {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		return err
	}
	switch strings.ToLower(config.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("format %q must be text or json", config.Format)
	}
	return nil
}

// validatePath validates a file path for security
func validatePath(path string) error {
	cleanPath := filepath.Clean(path)

	for _, part := range strings.Split(filepath.ToSlash(cleanPath), "/") {
		if part == ".." {
			return fmt.Errorf("path contains traversal: %s", path)
		}
	}

	return rejectDangerous(cleanPath, "path")
}

func rejectDangerous(value, what string) error {
	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
	for _, char := range dangerousChars {
		if strings.Contains(value, char) {
			return fmt.Errorf("%s contains dangerous character: %s", what, char)
		}
	}
	return nil
}
