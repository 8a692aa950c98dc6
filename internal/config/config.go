package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// VideoHost contains configuration for the remote video hosting service.
type VideoHost struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	VideoBaseURL   string  `toml:"video_base_url"`
	RequestTimeout int     `toml:"request_timeout"`
	PageSize       int     `toml:"page_size"`
	RequestsPerSec float64 `toml:"requests_per_sec"`
}

// Sheets contains configuration for the spreadsheet embed destination.
type Sheets struct {
	BaseURL        string `toml:"base_url"`
	SpreadsheetID  string `toml:"spreadsheet_id"`
	SheetName      string `toml:"sheet_name"`
	NameColumn     string `toml:"name_column"`
	EmbedColumn    string `toml:"embed_column"`
	APIToken       string `toml:"api_token"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Uploader contains configuration for upload scheduling and retries.
type Uploader struct {
	Year               string `toml:"year"`
	MaxConcurrent      int    `toml:"max_concurrent"`
	RetryAttempts      int    `toml:"retry_attempts"`
	RetryDelaySeconds  int    `toml:"retry_delay_seconds"`
	IdleTimeoutSeconds int    `toml:"idle_timeout_seconds"`
}

// Classify contains configuration for automatic library assignment.
type Classify struct {
	ConfidenceThreshold int `toml:"confidence_threshold"`
}

// Webhook contains configuration for the embed-forwarding HTTP endpoint.
type Webhook struct {
	Bind         string   `toml:"bind"`
	AllowOrigins []string `toml:"allow_origins"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for lectern.
type Config struct {
	Paths         Paths         `toml:"paths"`
	VideoHost     VideoHost     `toml:"videohost"`
	Sheets        Sheets        `toml:"sheets"`
	Uploader      Uploader      `toml:"uploader"`
	Classify      Classify      `toml:"classify"`
	Webhook       Webhook       `toml:"webhook"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/lectern/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lectern.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories lectern needs at runtime.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RetryDelay returns the configured pause between retry attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Uploader.RetryDelaySeconds) * time.Second
}

// IdleTimeout returns the stalled-transfer watchdog duration.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Uploader.IdleTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
