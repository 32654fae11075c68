package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/parkerdavis/leadscout/internal/browser"
	"github.com/parkerdavis/leadscout/internal/config"
	"github.com/parkerdavis/leadscout/internal/credentials"
	"github.com/parkerdavis/leadscout/internal/extract"
	"github.com/parkerdavis/leadscout/internal/pipeline"
	"github.com/parkerdavis/leadscout/internal/query"
	"github.com/parkerdavis/leadscout/internal/runner"
	"github.com/parkerdavis/leadscout/internal/session"
	"github.com/parkerdavis/leadscout/internal/sink"
)

var searchCommand = &cobra.Command{
	Use:   "search",
	Short: "Run a people search with facet relaxation and export the results",
	Long: `Validates the stored session, runs the query against the people-search
surface, and exports deduplicated candidate records as CSV and JSON (and to
PostgreSQL when a database URL is configured).

If the query returns nothing, optional facets are dropped one at a time
(geo codes, then industries, then locations) until results appear or only
the role titles remain.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values.`,
	RunE: runSearchCmd,
}

var (
	searchConfigPath  string
	searchTitles      []string
	searchLocations   []string
	searchIndustries  []string
	searchGeoCodes    []string
	searchMaxResults  int
	searchMaxPages    int
	searchEngine      string
	searchHeadful     bool
	searchCookieFile  string
	searchOutDir      string
	searchBaseName    string
	searchBatch       string
	searchConcurrency int
	searchDatabaseURL string
	searchVerbose     bool
)

func init() {
	searchCommand.Flags().StringVar(&searchConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	searchCommand.Flags().StringSliceVarP(&searchTitles, "titles", "t", nil, "Role titles to search for (joined with OR)")
	searchCommand.Flags().StringSliceVarP(&searchLocations, "locations", "l", nil, "Free-text locations")
	searchCommand.Flags().StringSliceVar(&searchIndustries, "industries", nil, "Industry facet values")
	searchCommand.Flags().StringSliceVar(&searchGeoCodes, "geo", nil, "Structured geo codes (preferred over --locations)")
	searchCommand.Flags().IntVar(&searchMaxResults, "max-results", 50, "Stop once this many unique records are collected")
	searchCommand.Flags().IntVar(&searchMaxPages, "max-pages", 5, "Page cap per relaxation rung")

	searchCommand.Flags().StringVar(&searchEngine, "engine", "", `Browser engine: "chromedp" or "rod"`)
	searchCommand.Flags().BoolVar(&searchHeadful, "headful", false, "Run the browser with a visible window")
	searchCommand.Flags().StringVar(&searchCookieFile, "cookies", "", "Path to the stored cookie bundle")

	searchCommand.Flags().StringVarP(&searchOutDir, "out-dir", "o", "", "Output directory for CSV/JSON exports")
	searchCommand.Flags().StringVarP(&searchBaseName, "name", "n", "leads", "Base name for output files")
	searchCommand.Flags().StringVar(&searchDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	searchCommand.Flags().StringVar(&searchBatch, "batch", "", "Path to a JSON file of named queries to run concurrently")
	searchCommand.Flags().IntVar(&searchConcurrency, "concurrency", 2, "Parallel browser pages for --batch runs")

	searchCommand.Flags().BoolVarP(&searchVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(searchCommand)
}

func runSearchCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadSearchConfig(cmd)
	if err != nil {
		return err
	}

	store := credentials.NewStore(cfg.CookiePath(), cfg.Verbose)
	bundle, err := validateSession(ctx, cfg, store)
	if err != nil {
		return err
	}

	sinks, closeSinks, err := buildSinks(ctx, cfg, searchBaseName)
	if err != nil {
		return err
	}
	defer closeSinks()

	if searchBatch != "" {
		return runBatch(ctx, cfg, bundle, sinks)
	}

	q := query.Query{
		RoleTitles: searchTitles,
		Locations:  searchLocations,
		Industries: searchIndustries,
		GeoCodes:   searchGeoCodes,
		MaxResults: searchMaxResults,
		MaxPages:   searchMaxPages,
	}
	if err := q.Validate(); err != nil {
		return err
	}

	exec, err := newSearchExecutor(ctx, cfg, bundle)
	if err != nil {
		return err
	}
	defer exec.Close()

	outcome, err := exec.Run(ctx, q)
	if err != nil {
		consoleNotifier{}.Notify(pipeline.Event{Kind: pipeline.EventRunFailed, Message: err.Error()})
		return err
	}

	if err := sinks.Write(ctx, outcome); err != nil {
		return fmt.Errorf("failed to export results: %w", err)
	}
	printOutcome(outcome)
	return nil
}

// loadSearchConfig merges the config file (if any) with explicitly set flags.
func loadSearchConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg config.Config
	if searchConfigPath != "" {
		loaded, err := config.LoadConfig(searchConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
		if searchVerbose {
			fmt.Printf("Loaded config from: %s\n", searchConfigPath)
		}
	}

	if cmd.Flags().Changed("engine") {
		cfg.Engine = searchEngine
	}
	if cmd.Flags().Changed("headful") {
		cfg.Headful = searchHeadful
	}
	if cmd.Flags().Changed("cookies") {
		cfg.CookieFile = searchCookieFile
	}
	if cmd.Flags().Changed("out-dir") {
		cfg.OutputDir = searchOutDir
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = searchDatabaseURL
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = searchConcurrency
	}
	if searchVerbose {
		cfg.Verbose = true
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validateSession proves the stored bundle still works before any search
// traffic is generated, using a throwaway page.
func validateSession(ctx context.Context, cfg *config.Config, store *credentials.Store) (*credentials.Bundle, error) {
	page, err := browser.New(ctx, cfg.BrowserOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	defer page.Close()

	probe := session.NewProbe(session.DefaultProbeConfig(), cfg.Verbose)
	manager := session.NewManager(store, probe, cfg.StaleThreshold(), cfg.Verbose)

	bundle, err := manager.EnsureSession(ctx, page)
	if err != nil {
		if errors.Is(err, session.ErrAuthRequired) {
			consoleNotifier{}.Notify(pipeline.Event{Kind: pipeline.EventAuthRequired, Message: err.Error()})
			return nil, fmt.Errorf("%w\nExport fresh cookies from a logged-in browser and run: leadscout session import <file>", err)
		}
		return nil, err
	}
	return bundle, nil
}

// searchExecutor owns one browser page and the pipeline bound to it.
type searchExecutor struct {
	page browser.Page
	pipe *pipeline.Pipeline
}

func newSearchExecutor(ctx context.Context, cfg *config.Config, bundle *credentials.Bundle) (*searchExecutor, error) {
	page, err := browser.New(ctx, cfg.BrowserOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	if err := page.ApplyCookies(ctx, bundle.Cookies); err != nil {
		page.Close()
		return nil, fmt.Errorf("failed to apply session cookies: %w", err)
	}

	opts := cfg.PipelineOptions()
	opts.Notifier = consoleNotifier{}
	debugDir := cfg.DebugDir
	if debugDir == "" {
		debugDir = config.DefaultDebugDir
	}
	opts.Debug = sink.NewFileDebug(debugDir, cfg.Verbose)

	engine := extract.NewEngine(cfg.Selectors, cfg.Verbose)
	return &searchExecutor{
		page: page,
		pipe: pipeline.New(page, engine, query.NewBuilder(), opts),
	}, nil
}

func (e *searchExecutor) Run(ctx context.Context, q query.Query) (*pipeline.Outcome, error) {
	return e.pipe.Run(ctx, q)
}

func (e *searchExecutor) Close() error {
	return e.page.Close()
}

// runBatch executes a file of named queries concurrently, one browser page
// each, and exports every unit under its own name.
func runBatch(ctx context.Context, cfg *config.Config, bundle *credentials.Bundle, shared sink.Sink) error {
	data, err := os.ReadFile(searchBatch)
	if err != nil {
		return fmt.Errorf("failed to read batch file: %w", err)
	}
	var units []runner.Unit
	if err := json.Unmarshal(data, &units); err != nil {
		return fmt.Errorf("failed to parse batch file: %w", err)
	}
	if len(units) == 0 {
		return fmt.Errorf("batch file %s contains no queries", searchBatch)
	}

	factory := func(ctx context.Context) (runner.Executor, error) {
		return newSearchExecutor(ctx, cfg, bundle)
	}
	concurrency := cfg.Concurrency
	if concurrency == 0 {
		concurrency = searchConcurrency
	}

	results, err := runner.New(factory, concurrency, cfg.Verbose).RunAll(ctx, units)
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "Unit %q failed: %v\n", res.Unit.Name, res.Err)
			continue
		}
		unitSink := sink.NewMulti(
			shared,
			sink.NewCSV(cfg.OutputPath(res.Unit.Name+".csv")),
			sink.NewJSON(cfg.OutputPath(res.Unit.Name+".json")),
		)
		if werr := unitSink.Write(ctx, res.Outcome); werr != nil {
			failed++
			fmt.Fprintf(os.Stderr, "Unit %q export failed: %v\n", res.Unit.Name, werr)
			continue
		}
		fmt.Printf("Unit %q: ", res.Unit.Name)
		printOutcome(res.Outcome)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d batch units failed", failed, len(results))
	}
	return nil
}

// buildSinks assembles the export fan-out. The returned closer releases the
// database pool when one was opened.
func buildSinks(ctx context.Context, cfg *config.Config, baseName string) (sink.Sink, func(), error) {
	sinks := []sink.Sink{}
	if searchBatch == "" {
		sinks = append(sinks,
			sink.NewCSV(cfg.OutputPath(baseName+".csv")),
			sink.NewJSON(cfg.OutputPath(baseName+".json")),
		)
	}

	closer := func() {}
	if cfg.DatabaseURL != "" {
		pg, err := sink.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		sinks = append(sinks, pg)
		closer = pg.Close
	}
	return sink.NewMulti(sinks...), closer, nil
}

func printOutcome(outcome *pipeline.Outcome) {
	fmt.Printf("Collected %d unique records in %d pages (%s)\n",
		len(outcome.Records), outcome.PagesFetched, outcome.Reason)
	if len(outcome.DroppedFacets) > 0 {
		fmt.Printf("Relaxed %d rung(s), dropped facets: %v\n",
			outcome.RungReached, outcome.DroppedFacets)
	}
}

// consoleNotifier prints operator events to stderr so they stand out from
// the regular export summary on stdout.
type consoleNotifier struct{}

func (consoleNotifier) Notify(event pipeline.Event) {
	switch event.Kind {
	case pipeline.EventAuthRequired:
		fmt.Fprintf(os.Stderr, "ACTION REQUIRED: session is no longer valid: %s\n", event.Message)
	case pipeline.EventExtractionExhausted:
		fmt.Fprintf(os.Stderr, "WARNING: %s (a page snapshot was saved for selector review)\n", event.Message)
	case pipeline.EventRunFailed:
		fmt.Fprintf(os.Stderr, "Run failed: %s\n", event.Message)
	case pipeline.EventFacetDropped:
		fmt.Fprintf(os.Stderr, "No results at current constraints, dropping facet %q\n", event.Message)
	}
}
