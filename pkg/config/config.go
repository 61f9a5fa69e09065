package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is the settings file expected in the working directory
	DefaultConfigFile = "config.yaml"

	// DefaultUserAgent identifies the tool to the Reddit API
	DefaultUserAgent = "go:riddle:3.0 (by u/Trivernis)"
	// DefaultMinSize is the minimum image size in kilobytes; 0 disables the check
	DefaultMinSize = 5
)

var (
	// ErrConfigNotFound is returned when the settings file does not exist
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrMissingCredentials is returned when no credentials key was supplied
	ErrMissingCredentials = errors.New("credentials are missing from the configuration")

	// ErrMissingSecret is returned when a client id has no matching secret
	ErrMissingSecret = errors.New("client secret is missing")
)

// ParseError reports malformed syntax in the settings file
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse config file %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Config holds all configuration options for a run
type Config struct {
	// API credentials for the Reddit application
	Credentials *CredentialsConfig `yaml:"credentials" json:"credentials"`

	// Accepted URL suffixes, compared case-insensitively
	ImageExtensions []string `yaml:"image-extensions" json:"image_extensions"`

	// Minimum file size in kilobytes; smaller downloads are discarded
	MinSize int `yaml:"min-size" json:"min_size"`

	UserAgent string `yaml:"user-agent" json:"user_agent"`

	Reddit   RedditConfig   `yaml:"reddit" json:"reddit"`
	Download DownloadConfig `yaml:"download" json:"download"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
	UI       UIConfig       `yaml:"ui" json:"ui"`
}

// CredentialsConfig holds the Reddit application credentials
type CredentialsConfig struct {
	ClientID     string `yaml:"client_id" json:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"client_secret"`
}

// RedditConfig holds API endpoint configuration
type RedditConfig struct {
	AuthURL  string `yaml:"auth_url" json:"auth_url"`
	APIURL   string `yaml:"api_url" json:"api_url"`
	PageSize int    `yaml:"page_size" json:"page_size"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
	CacheDir string        `yaml:"cache_dir" json:"cache_dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	File   string `yaml:"file" json:"file"`
	Format string `yaml:"format" json:"format"`
}

// UIConfig holds terminal output preferences
type UIConfig struct {
	Color    bool `yaml:"color" json:"color"`
	Progress bool `yaml:"progress" json:"progress"`
}

// DefaultConfig returns a Config instance with the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		ImageExtensions: []string{"jpg", "jpeg", "png"},
		MinSize:         DefaultMinSize,
		UserAgent:       DefaultUserAgent,
		Reddit: RedditConfig{
			AuthURL:  "https://www.reddit.com/api/v1/access_token",
			APIURL:   "https://oauth.reddit.com",
			PageSize: 100,
		},
		Download: DownloadConfig{
			Timeout:  30 * time.Second,
			CacheDir: ".cache",
		},
		Logging: LoggingConfig{
			Level:  "error",
			Format: "text",
		},
		UI: UIConfig{
			Color:    true,
			Progress: true,
		},
	}
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Decode into a scratch copy so a half-parsed file never leaks credentials
	parsed := *c
	parsed.ImageExtensions = append([]string(nil), c.ImageExtensions...)
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return &ParseError{Path: path, Err: err}
	}
	*c = parsed

	return nil
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	clientID := os.Getenv("RIDDLE_CLIENT_ID")
	clientSecret := os.Getenv("RIDDLE_CLIENT_SECRET")
	if clientID != "" || clientSecret != "" {
		if c.Credentials == nil {
			c.Credentials = &CredentialsConfig{}
		}
		if clientID != "" {
			c.Credentials.ClientID = clientID
		}
		if clientSecret != "" {
			c.Credentials.ClientSecret = clientSecret
		}
	}

	if userAgent := os.Getenv("RIDDLE_USER_AGENT"); userAgent != "" {
		c.UserAgent = userAgent
	}

	if minSize := os.Getenv("RIDDLE_MIN_SIZE"); minSize != "" {
		val, err := strconv.Atoi(minSize)
		if err != nil {
			return fmt.Errorf("invalid RIDDLE_MIN_SIZE %q: %w", minSize, err)
		}
		c.MinSize = val
	}

	if logLevel := os.Getenv("RIDDLE_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if color, ok := flags["color"].(bool); ok {
		c.UI.Color = color
	}
	if progress, ok := flags["progress"].(bool); ok {
		c.UI.Progress = progress
	}
}

// Validate checks if the configuration values are usable.
// Credentials are checked separately by CheckCredentials.
func (c *Config) Validate() error {
	var errs []error

	if len(c.ImageExtensions) == 0 {
		errs = append(errs, errors.New("at least one image extension is required"))
	}
	for _, ext := range c.ImageExtensions {
		if strings.TrimSpace(ext) == "" {
			errs = append(errs, errors.New("image extensions must not be empty"))
			break
		}
	}
	if c.MinSize < 0 {
		errs = append(errs, errors.New("min-size cannot be negative"))
	}
	if c.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required"))
	}

	if c.Reddit.AuthURL == "" || c.Reddit.APIURL == "" {
		errs = append(errs, errors.New("reddit endpoints are required"))
	}
	if c.Reddit.PageSize < 1 || c.Reddit.PageSize > 100 {
		errs = append(errs, errors.New("reddit page size must be between 1 and 100"))
	}

	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.CacheDir == "" {
		errs = append(errs, errors.New("cache directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level: %s", c.Logging.Level))
	}
	if f := strings.ToLower(c.Logging.Format); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("invalid log format: %s", c.Logging.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// CheckCredentials verifies that both halves of the API credentials are present
func (c *Config) CheckCredentials() error {
	if c.Credentials == nil || c.Credentials.ClientID == "" {
		return ErrMissingCredentials
	}
	if c.Credentials.ClientSecret == "" {
		return fmt.Errorf("%w for client %s", ErrMissingSecret, c.Credentials.ClientID)
	}
	return nil
}

// MinSizeBytes returns the minimum file size threshold in bytes
func (c *Config) MinSizeBytes() int64 {
	return int64(c.MinSize) * 1024
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
//
// A malformed file yields a usable Config (defaults plus environment) together
// with a *ParseError so the caller can report it and carry on.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")

	config := DefaultConfig()

	var parseErr *ParseError
	if err := config.LoadFromFile(configPath); err != nil {
		if !errors.As(err, &parseErr) {
			return nil, err
		}
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	if parseErr != nil {
		return config, parseErr
	}
	return config, nil
}
