package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Request RequestConfig `yaml:"request"`
	Poll    PollConfig    `yaml:"poll"`
	Style   StyleConfig   `yaml:"style"`
	Log     LogConfig     `yaml:"log"`
	DB      DBConfig      `yaml:"db"`
	Server  ServerConfig  `yaml:"server"`
}

// BackendConfig holds settings for the render backend connection.
type BackendConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

// RequestConfig holds HTTP request settings.
type RequestConfig struct {
	Retries int           `yaml:"retries"`
	Backoff BackoffConfig `yaml:"backoff"`
}

// BackoffConfig holds exponential backoff settings.
type BackoffConfig struct {
	BaseDelay Duration `yaml:"base_delay"`
	MaxDelay  Duration `yaml:"max_delay"`
}

// PollConfig holds job polling settings. The attempt budget is the timeout
// mechanism: MaxAttempts * Interval bounds the total wait.
type PollConfig struct {
	Interval    Duration `yaml:"interval"`
	MaxAttempts int      `yaml:"max_attempts"`
}

// StyleConfig holds the initial style customization.
type StyleConfig struct {
	Theme            string   `yaml:"theme"`
	ColorPalette     []string `yaml:"color_palette"`
	VisualStyle      string   `yaml:"visual_style"`
	EffectsIntensity float64  `yaml:"effects_intensity"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL: "http://localhost:5000",
			Timeout: Duration(300 * time.Second),
		},
		Request: RequestConfig{
			Retries: 3,
			Backoff: BackoffConfig{
				BaseDelay: Duration(500 * time.Millisecond),
				MaxDelay:  Duration(60 * time.Second),
			},
		},
		Poll: PollConfig{
			Interval:    Duration(2 * time.Second),
			MaxAttempts: 9000,
		},
		Style: StyleConfig{
			Theme:            "cinematic",
			ColorPalette:     []string{"#FF6B6B", "#4ECDC4", "#FFE66D", "#A8E6CF"},
			VisualStyle:      "realistic",
			EffectsIntensity: 0.7,
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path: "./data/tunereel.db",
		},
		Server: ServerConfig{
			Address: "localhost:1848",
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT
// save back to disk (to preserve user formatting and comments).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else {
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to save config file: %w", err)
		}
	}

	// Env fallback, never saved back to disk
	if url := os.Getenv("TUNEREEL_BACKEND_URL"); url != "" {
		cfg.Backend.BaseURL = url
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url must not be empty")
	}
	if c.Poll.MaxAttempts <= 0 {
		return fmt.Errorf("poll.max_attempts must be positive, got %d", c.Poll.MaxAttempts)
	}
	if time.Duration(c.Poll.Interval) <= 0 {
		return fmt.Errorf("poll.interval must be positive, got %s", time.Duration(c.Poll.Interval))
	}
	return nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Tunereel Configuration
# ---------------------
# Duration units: ns, us (or µs), ms, s, m, h, d (day), w (week)

`)
	data = append(header, data...)

	// Inject comments for enum-like fields so the generated file is
	// self-documenting.
	reTheme := regexp.MustCompile(`(?m)^(\s+)theme:`)
	data = reTheme.ReplaceAll(data, []byte("${1}# Options: cinematic, abstract, nature, cosmic, urban\n${1}theme:"))

	reVisual := regexp.MustCompile(`(?m)^(\s+)visual_style:`)
	data = reVisual.ReplaceAll(data, []byte("${1}# Options: realistic, anime, oil-painting, watercolor, digital-art\n${1}visual_style:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
