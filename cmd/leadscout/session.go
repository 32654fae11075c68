package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/parkerdavis/leadscout/internal/browser"
	"github.com/parkerdavis/leadscout/internal/config"
	"github.com/parkerdavis/leadscout/internal/credentials"
	"github.com/parkerdavis/leadscout/internal/session"
)

var sessionCommand = &cobra.Command{
	Use:   "session",
	Short: "Manage the stored login session",
}

var sessionImportCommand = &cobra.Command{
	Use:   "import <cookies.json>",
	Short: "Import cookies exported from a logged-in browser",
	Long: `Reads a cookie export (either a bare JSON array of cookies, as produced by
browser cookie-export extensions, or a previously saved bundle) and stores it
as the session bundle for future runs.`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionImportCmd,
}

var sessionStatusCommand = &cobra.Command{
	Use:   "status",
	Short: "Show the stored session's age and, optionally, probe its validity",
	RunE:  runSessionStatusCmd,
}

var sessionClearCommand = &cobra.Command{
	Use:   "clear",
	Short: "Delete the stored session bundle",
	RunE:  runSessionClearCmd,
}

var (
	sessionConfigPath string
	sessionCookieFile string
	sessionProbeLive  bool
	sessionVerbose    bool
)

func init() {
	sessionCommand.PersistentFlags().StringVar(&sessionConfigPath, "config", "", "Path to config.json file")
	sessionCommand.PersistentFlags().StringVar(&sessionCookieFile, "cookies", "", "Path to the stored cookie bundle")
	sessionCommand.PersistentFlags().BoolVarP(&sessionVerbose, "verbose", "v", false, "Print detailed debug information")

	sessionStatusCommand.Flags().BoolVar(&sessionProbeLive, "probe", false, "Launch a browser and probe the session against the live site")

	sessionCommand.AddCommand(sessionImportCommand)
	sessionCommand.AddCommand(sessionStatusCommand)
	sessionCommand.AddCommand(sessionClearCommand)
	rootCmd.AddCommand(sessionCommand)
}

func sessionConfig() (*config.Config, error) {
	var cfg config.Config
	if sessionConfigPath != "" {
		loaded, err := config.LoadConfig(sessionConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}
	if sessionCookieFile != "" {
		cfg.CookieFile = sessionCookieFile
	}
	if sessionVerbose {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func runSessionImportCmd(_ *cobra.Command, args []string) error {
	cfg, err := sessionConfig()
	if err != nil {
		return err
	}

	sourcePath := args[0]
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to read cookie export: %w", err)
	}

	cookies, err := parseCookieExport(data)
	if err != nil {
		return err
	}

	bundle := &credentials.Bundle{
		Cookies: cookies,
		SavedAt: time.Now().UTC(),
		Metadata: map[string]any{
			"source":        "import",
			"imported_from": filepath.Base(sourcePath),
		},
	}

	store := credentials.NewStore(cfg.CookiePath(), cfg.Verbose)
	if err := store.Save(bundle); err != nil {
		return fmt.Errorf("failed to store session bundle: %w", err)
	}
	fmt.Printf("Imported %d cookies to %s\n", len(cookies), store.Path())
	return nil
}

// parseCookieExport accepts both supported shapes: a bare cookie array, or a
// full bundle with metadata.
func parseCookieExport(data []byte) ([]credentials.Cookie, error) {
	var cookies []credentials.Cookie
	if err := json.Unmarshal(data, &cookies); err == nil && len(cookies) > 0 {
		return cookies, nil
	}

	var bundle credentials.Bundle
	if err := json.Unmarshal(data, &bundle); err == nil && len(bundle.Cookies) > 0 {
		return bundle.Cookies, nil
	}

	return nil, fmt.Errorf("cookie export is not a JSON cookie array or bundle, or contains no cookies")
}

func runSessionStatusCmd(_ *cobra.Command, _ []string) error {
	cfg, err := sessionConfig()
	if err != nil {
		return err
	}

	store := credentials.NewStore(cfg.CookiePath(), cfg.Verbose)
	bundle, err := store.Load()
	if err != nil {
		return err
	}
	if bundle == nil {
		fmt.Printf("No session bundle stored at %s\n", store.Path())
		fmt.Println("Export cookies from a logged-in browser and run: leadscout session import <file>")
		return nil
	}

	age := credentials.AgeOf(bundle).Round(time.Minute)
	fmt.Printf("Session bundle: %s\n", store.Path())
	fmt.Printf("  Cookies:  %d\n", len(bundle.Cookies))
	fmt.Printf("  Saved at: %s (%s ago)\n", bundle.SavedAt.Format(time.RFC3339), age)
	if credentials.IsStale(bundle, cfg.StaleThreshold()) {
		fmt.Printf("  Age exceeds the %s freshness threshold; validity will be decided by the probe\n", cfg.StaleThreshold())
	}

	if !sessionProbeLive {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	page, err := browser.New(ctx, cfg.BrowserOptions())
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer page.Close()

	if err := page.ApplyCookies(ctx, bundle.Cookies); err != nil {
		return fmt.Errorf("failed to apply session cookies: %w", err)
	}
	result := session.NewProbe(session.DefaultProbeConfig(), cfg.Verbose).Run(ctx, page)
	fmt.Printf("  Probe:    %s", result.State)
	if result.Provisional {
		fmt.Print(" (provisional)")
	}
	fmt.Printf(": %s\n", result.Reason)
	return nil
}

func runSessionClearCmd(_ *cobra.Command, _ []string) error {
	cfg, err := sessionConfig()
	if err != nil {
		return err
	}

	store := credentials.NewStore(cfg.CookiePath(), cfg.Verbose)
	if err := store.Delete(); err != nil {
		return fmt.Errorf("failed to delete session bundle: %w", err)
	}
	fmt.Printf("Removed session bundle at %s\n", store.Path())
	return nil
}
