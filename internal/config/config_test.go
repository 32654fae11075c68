package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkerdavis/leadscout/internal/browser"
	"github.com/parkerdavis/leadscout/internal/credentials"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := writeConfig(t, `{
			"cookie_file": "creds/cookies.json",
			"engine": "rod",
			"stale_after_days": 14,
			"page_delay_seconds": 2,
			"selectors": {"containers": [".custom-result"]},
			"verbose": true
		}`)

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "creds/cookies.json", cfg.CookieFile)
		assert.Equal(t, "rod", cfg.Engine)
		assert.Equal(t, 14, cfg.StaleAfterDays)
		assert.Equal(t, []string{".custom-result"}, cfg.Selectors.Containers)
		assert.True(t, cfg.Verbose)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := LoadConfig("")
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		path := writeConfig(t, `{not json`)
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	t.Run("zero config is valid", func(t *testing.T) {
		assert.NoError(t, (&Config{}).Validate())
	})

	t.Run("unknown engine", func(t *testing.T) {
		err := (&Config{Engine: "firefox"}).Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown engine")
	})

	t.Run("negative pacing", func(t *testing.T) {
		assert.Error(t, (&Config{PageDelaySeconds: -1}).Validate())
	})

	t.Run("negative staleness", func(t *testing.T) {
		assert.Error(t, (&Config{StaleAfterDays: -1}).Validate())
	})
}

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}

	assert.Equal(t, DefaultCookieFile, cfg.CookiePath())
	assert.Equal(t, credentials.DefaultStaleThreshold, cfg.StaleThreshold())
	assert.Equal(t, filepath.Join("output", "leads.csv"), cfg.OutputPath("leads.csv"))

	opts := cfg.BrowserOptions()
	assert.Equal(t, browser.EngineChromedp, opts.Engine)
	assert.True(t, opts.Headless)
	assert.True(t, opts.NoSandbox, "a zero config keeps the browser's sandbox-off default")
}

func TestConfigOverrides(t *testing.T) {
	cfg := &Config{
		Engine:            "rod",
		Headful:           true,
		Sandbox:           true,
		NavTimeoutSeconds: 45,
		StaleAfterDays:    10,
		PageDelaySeconds:  1,
		RungDelaySeconds:  2,
	}

	opts := cfg.BrowserOptions()
	assert.Equal(t, browser.EngineRod, opts.Engine)
	assert.False(t, opts.Headless)
	assert.False(t, opts.NoSandbox)
	assert.Equal(t, 45*time.Second, opts.NavTimeout)

	assert.Equal(t, 10*24*time.Hour, cfg.StaleThreshold())

	popts := cfg.PipelineOptions()
	assert.Equal(t, 1*time.Second, popts.PageDelay)
	assert.Equal(t, 2*time.Second, popts.RungDelay)
}
