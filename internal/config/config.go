// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parkerdavis/leadscout/internal/browser"
	"github.com/parkerdavis/leadscout/internal/credentials"
	"github.com/parkerdavis/leadscout/internal/extract"
	"github.com/parkerdavis/leadscout/internal/pipeline"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Session
	CookieFile     string `json:"cookie_file,omitempty"`      // Path to the stored cookie bundle
	StaleAfterDays int    `json:"stale_after_days,omitempty"` // Bundle age (days) before a freshness warning

	// Browser
	Engine            string `json:"engine,omitempty"` // Browser engine: "chromedp" or "rod"
	Headful           bool   `json:"headful,omitempty"`
	Sandbox           bool   `json:"sandbox,omitempty"` // Re-enable the Chrome sandbox (off by default, like headless)
	UserAgent         string `json:"user_agent,omitempty"`
	UserDataDir       string `json:"user_data_dir,omitempty"`
	NavTimeoutSeconds int    `json:"nav_timeout_seconds,omitempty"`

	// Pacing
	PageDelaySeconds int `json:"page_delay_seconds,omitempty"` // Pause between page fetches
	RungDelaySeconds int `json:"rung_delay_seconds,omitempty"` // Pause between relaxation rungs
	Concurrency      int `json:"concurrency,omitempty"`        // Parallel browser pages for batch runs

	// Extraction
	Selectors extract.SelectorConfig `json:"selectors,omitempty"` // Selector overrides; empty fields use defaults

	// Output
	OutputDir   string `json:"output_dir,omitempty"`
	DebugDir    string `json:"debug_dir,omitempty"` // Snapshot directory; empty disables capture
	DatabaseURL string `json:"database_url,omitempty"`
	Verbose     bool   `json:"verbose,omitempty"`
}

// Defaults used when a field is absent from both the file and the flags.
const (
	DefaultCookieFile = "linkedin_cookies.json"
	DefaultOutputDir  = "output"
	DefaultDebugDir   = "output/debug"
)

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	switch c.Engine {
	case "", browser.EngineChromedp, browser.EngineRod:
	default:
		return fmt.Errorf("config error: unknown engine %q (want %q or %q)",
			c.Engine, browser.EngineChromedp, browser.EngineRod)
	}

	if c.StaleAfterDays < 0 {
		return fmt.Errorf("config error: 'stale_after_days' must be non-negative")
	}
	if c.NavTimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'nav_timeout_seconds' must be non-negative")
	}
	if c.PageDelaySeconds < 0 || c.RungDelaySeconds < 0 {
		return fmt.Errorf("config error: pacing delays must be non-negative")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("config error: 'concurrency' must be non-negative")
	}

	return nil
}

// CookiePath returns the cookie file path, defaulted.
func (c *Config) CookiePath() string {
	if c.CookieFile != "" {
		return c.CookieFile
	}
	return DefaultCookieFile
}

// StaleThreshold converts the configured day count to a duration; zero means
// the store's default.
func (c *Config) StaleThreshold() time.Duration {
	if c.StaleAfterDays > 0 {
		return time.Duration(c.StaleAfterDays) * 24 * time.Hour
	}
	return credentials.DefaultStaleThreshold
}

// BrowserOptions maps the config onto browser options.
func (c *Config) BrowserOptions() *browser.Options {
	opts := browser.DefaultOptions()
	if c.Engine != "" {
		opts.Engine = c.Engine
	}
	// Inverted bools, so the zero value of a config matches the browser
	// defaults (headless on, sandbox off).
	opts.Headless = !c.Headful
	opts.NoSandbox = !c.Sandbox
	if c.UserAgent != "" {
		opts.UserAgent = c.UserAgent
	}
	opts.UserDataDir = c.UserDataDir
	if c.NavTimeoutSeconds > 0 {
		opts.NavTimeout = time.Duration(c.NavTimeoutSeconds) * time.Second
	}
	opts.Verbose = c.Verbose
	return opts
}

// PipelineOptions maps the config onto pipeline options. Notifier and debug
// sink are wired by the caller.
func (c *Config) PipelineOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	if c.PageDelaySeconds > 0 {
		opts.PageDelay = time.Duration(c.PageDelaySeconds) * time.Second
	}
	if c.RungDelaySeconds > 0 {
		opts.RungDelay = time.Duration(c.RungDelaySeconds) * time.Second
	}
	opts.Verbose = c.Verbose
	return opts
}

// OutputPath returns a path inside the configured output directory.
func (c *Config) OutputPath(name string) string {
	dir := c.OutputDir
	if dir == "" {
		dir = DefaultOutputDir
	}
	return filepath.Join(dir, name)
}
