package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "tunereel.yaml")

	tests := []struct {
		name      string
		setup     func()
		validate  func(*testing.T, *Config)
		checkFile func(*testing.T)
	}{
		{
			name:  "NewFile_Defaults",
			setup: func() {}, // No file
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Backend.BaseURL != "http://localhost:5000" {
					t.Errorf("expected default backend URL, got '%s'", cfg.Backend.BaseURL)
				}
				if cfg.Poll.MaxAttempts != 9000 {
					t.Errorf("expected poll max_attempts default 9000, got %d", cfg.Poll.MaxAttempts)
				}
				if time.Duration(cfg.Poll.Interval) != 2*time.Second {
					t.Errorf("expected poll interval 2s, got %s", time.Duration(cfg.Poll.Interval))
				}
				if cfg.Style.Theme != "cinematic" || cfg.Style.VisualStyle != "realistic" {
					t.Errorf("unexpected style defaults: %+v", cfg.Style)
				}
				if len(cfg.Style.ColorPalette) != 4 {
					t.Errorf("expected 4 palette colors, got %d", len(cfg.Style.ColorPalette))
				}
			},
			checkFile: func(t *testing.T) {
				content, err := os.ReadFile(configPath)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				if !strings.Contains(string(content), "max_attempts: 9000") {
					t.Error("config file missing poll defaults")
				}
				if !strings.Contains(string(content), "# Options: cinematic, abstract") {
					t.Error("config file missing theme options comment")
				}
			},
		},
		{
			name: "ExistingFile_Override",
			setup: func() {
				err := os.WriteFile(configPath, []byte("backend:\n  base_url: http://render-farm:9000\npoll:\n  interval: 250ms\n  max_attempts: 40\n"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Backend.BaseURL != "http://render-farm:9000" {
					t.Errorf("expected overridden backend URL, got '%s'", cfg.Backend.BaseURL)
				}
				if time.Duration(cfg.Poll.Interval) != 250*time.Millisecond {
					t.Errorf("expected 250ms interval, got %s", time.Duration(cfg.Poll.Interval))
				}
				if cfg.Poll.MaxAttempts != 40 {
					t.Errorf("expected 40 attempts, got %d", cfg.Poll.MaxAttempts)
				}
				// Untouched sections keep defaults
				if cfg.Style.Theme != "cinematic" {
					t.Errorf("expected style defaults preserved, got '%s'", cfg.Style.Theme)
				}
			},
			checkFile: func(t *testing.T) {
				content, err := os.ReadFile(configPath)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				// Load must not rewrite the user's file
				if strings.Contains(string(content), "cinematic") {
					t.Error("Load rewrote user config file with defaults")
				}
			},
		},
		{
			name: "InvalidPollBudget",
			setup: func() {
				err := os.WriteFile(configPath, []byte("poll:\n  max_attempts: -1\n"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Remove(configPath)
			tt.setup()

			cfg, err := Load(configPath)
			if tt.validate == nil {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			tt.validate(t, cfg)
			if tt.checkFile != nil {
				tt.checkFile(t)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"2s", 2 * time.Second},
		{"2000ms", 2 * time.Second},
		{"1d", Day},
		{"1w", Week},
		{"1d12h", 36 * time.Hour},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if err != nil {
				t.Fatalf("ParseDuration(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}

	if _, err := ParseDuration("5x"); err == nil {
		t.Error("expected error for unknown unit")
	}
}
