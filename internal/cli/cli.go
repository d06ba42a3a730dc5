package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/nba-mvp/internal/cache"
	"github.com/pfrederiksen/nba-mvp/internal/config"
	"github.com/pfrederiksen/nba-mvp/internal/eligibility"
	"github.com/pfrederiksen/nba-mvp/internal/export"
	"github.com/pfrederiksen/nba-mvp/internal/logger"
	"github.com/pfrederiksen/nba-mvp/internal/pipeline"
	"github.com/pfrederiksen/nba-mvp/internal/scraper"
	"github.com/pfrederiksen/nba-mvp/internal/storage"
)

const (
	ExitSuccess  = 0
	ExitError    = 1
	ExitWarnings = 2
)

// errWarnings marks a successful run that produced unresolved fan-out warnings under --strict
var errWarnings = errors.New("join fan-out warnings")

// app holds state shared by all commands
type app struct {
	configPath string
	dataDir    string
	formatFlag string
	verbose    bool
	strict     bool

	cfg    *config.Config
	store  *storage.Storage
	log    *logger.Logger
	out    io.Writer
	format OutputFormat
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "nba-mvp",
		Short: "Build the NBA MVP vote-share dataset",
		Long: `A CLI tool that scrapes season pages from basketball-reference.com, merges
votes, player stats and team records, filters players by MVP eligibility floors,
and evaluates a regression model of vote share.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	// Define flags
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (or env: "+config.EnvConfigFile+")")
	cmd.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "Data directory (overrides config)")
	cmd.PersistentFlags().StringVar(&a.formatFlag, "format", "text", "Output format: text or json")
	cmd.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(
		a.scrapeCmd(),
		a.mergeCmd(),
		a.cleanCmd(),
		a.runCmd(),
		a.trainCmd(),
		a.exportCmd(),
	)
	return cmd
}

// setup loads configuration and prepares storage before any command runs
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	// Validate format
	format := OutputFormat(strings.ToLower(a.formatFlag))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", a.formatFlag)
	}
	a.format = format
	a.out = cmd.OutOrStdout()

	cfg, err := config.Load(cmd.Context(), a.configPath)
	if err != nil {
		return err
	}
	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level := logger.ParseLevel(cfg.LogLevel)
	if a.verbose {
		level = logger.LevelDebug
	}
	a.log = logger.New(level, os.Stderr)
	logger.SetDefault(a.log)

	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	a.store = store

	a.log.Debug("Configuration loaded", logger.Fields{
		"config":   a.configPath,
		"data_dir": store.Dir(),
		"seasons":  fmt.Sprintf("%d-%d", cfg.Seasons.From, cfg.Seasons.To),
	})
	return nil
}

func (a *app) pipeline(opts ...pipeline.Option) *pipeline.Pipeline {
	return pipeline.New(a.cfg, a.store, append([]pipeline.Option{pipeline.WithLogger(a.log)}, opts...)...)
}

func (a *app) scrapeCmd() *cobra.Command {
	var (
		kinds   []string
		from    int
		to      int
		refetch bool
		browser bool
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Download season pages and write the processed source tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if from > 0 {
				a.cfg.Seasons.From = from
			}
			if to > 0 {
				a.cfg.Seasons.To = to
			}
			if refetch {
				a.cfg.Scrape.Refetch = true
			}
			if browser {
				a.cfg.Scrape.UseBrowser = true
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			selected, err := selectKinds(kinds, a.cfg.Schema.Extended)
			if err != nil {
				return err
			}

			opts, closeAll, err := a.scraperOptions(cmd.Context())
			if err != nil {
				return err
			}
			defer closeAll()

			report, err := a.pipeline().Scrape(cmd.Context(), selected, opts...)
			if err != nil {
				return err
			}
			return a.write(report)
		},
	}

	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "Page kinds to scrape: mvp_votings, player_stats, advanced_stats, team_records (default all)")
	cmd.Flags().IntVar(&from, "from", 0, "First season (overrides config)")
	cmd.Flags().IntVar(&to, "to", 0, "Last season (overrides config)")
	cmd.Flags().BoolVar(&refetch, "refetch", false, "Ignore pages already on disk (the redis page cache still applies)")
	cmd.Flags().BoolVar(&browser, "browser", false, "Render per-game pages in headless Chrome")
	return cmd
}

// selectKinds resolves --kind values. Advanced stats are skipped by default when the
// extended schema is off.
func selectKinds(names []string, extended bool) ([]scraper.Kind, error) {
	if len(names) == 0 {
		var out []scraper.Kind
		for _, k := range scraper.Kinds() {
			if k.Name == scraper.AdvancedStats.Name && !extended {
				continue
			}
			out = append(out, k)
		}
		return out, nil
	}

	out := make([]scraper.Kind, 0, len(names))
	for _, n := range names {
		k, err := scraper.KindByName(strings.TrimSpace(n))
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

// scraperOptions wires the redis page cache and browser from config. The returned func
// releases them.
func (a *app) scraperOptions(ctx context.Context) ([]scraper.Option, func(), error) {
	var opts []scraper.Option
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if a.cfg.Cache.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, a.cfg.Cache.RedisURL, a.cfg.Cache.TTL)
		if err != nil {
			return nil, closeAll, fmt.Errorf("initializing page cache: %w", err)
		}
		closers = append(closers, func() { rc.Close() })
		opts = append(opts, scraper.WithCache(rc))
	}

	if a.cfg.Scrape.UseBrowser {
		bf := scraper.NewBrowserFetcher(a.cfg.Scrape.UserAgent, a.cfg.Scrape.Timeout)
		closers = append(closers, bf.Close)
		opts = append(opts, scraper.WithBrowser(bf))
	}
	return opts, closeAll, nil
}

func (a *app) mergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Join votes, per-game stats, advanced stats and standings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := a.pipeline().Merge(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.write(report); err != nil {
				return err
			}
			return a.checkWarnings(report)
		},
	}
	cmd.Flags().BoolVar(&a.strict, "strict", false, "Exit with status 2 when a join fans out and no row matches the team")
	return cmd
}

func (a *app) cleanCmd() *cobra.Command {
	var floors []string

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Filter merged rows by eligibility and fill inapplicable nulls",
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := eligibility.ParseFloors(floors)
			if err != nil {
				return err
			}
			report, err := a.pipeline(pipeline.WithFloors(parsed...)).Clean(cmd.Context())
			if err != nil {
				return err
			}
			return a.write(report)
		},
	}
	cmd.Flags().StringArrayVar(&floors, "floor", nil, "Override an eligibility floor, e.g. --floor 'PTS>=20' (repeatable)")
	return cmd
}

func (a *app) runCmd() *cobra.Command {
	var floors []string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run merge then clean",
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := eligibility.ParseFloors(floors)
			if err != nil {
				return err
			}
			reports, err := a.pipeline(pipeline.WithFloors(parsed...)).Run(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.write(reports...); err != nil {
				return err
			}
			return a.checkWarnings(reports...)
		},
	}
	cmd.Flags().StringArrayVar(&floors, "floor", nil, "Override an eligibility floor, e.g. --floor 'PTS>=20' (repeatable)")
	cmd.Flags().BoolVar(&a.strict, "strict", false, "Exit with status 2 when a join fans out and no row matches the team")
	return cmd
}

func (a *app) trainCmd() *cobra.Command {
	var (
		seasons []int
		lambda  float64
		order   string
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Evaluate a ridge regression of vote share, leaving one season out at a time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sortOrder := SortOrder(strings.ToLower(order))
			if !sortOrder.Valid() {
				return fmt.Errorf("invalid sort: %s (must be 'season', 'rmse' or 'r2')", order)
			}
			if len(seasons) > 0 {
				a.cfg.Model.TestSeasons = seasons
			}
			if cmd.Flags().Changed("lambda") {
				a.cfg.Model.RidgeLambda = lambda
			}

			report, err := a.pipeline().Train(cmd.Context())
			if err != nil {
				return err
			}
			sortFolds(report.Folds, sortOrder)
			return a.write(report)
		},
	}
	cmd.Flags().IntSliceVar(&seasons, "test-season", nil, "Seasons to hold out (default every season)")
	cmd.Flags().Float64Var(&lambda, "lambda", 1.0, "Ridge penalty (overrides config)")
	cmd.Flags().StringVar(&order, "sort", string(SortBySeason), "Sort seasons by: season, rmse or r2")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Publish player_data to Postgres",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var exp export.Exporter
			if dryRun || a.cfg.Export.PostgresDSN == "" {
				if !dryRun {
					a.log.Warn("No postgres_dsn configured, doing a dry run", nil)
				}
				// Keep stdout clean for the JSON report
				w := a.out
				if a.format == FormatJSON {
					w = os.Stderr
				}
				exp = export.NewDryRun(w, a.cfg.Export.Table)
			} else {
				pg, err := export.NewPostgres(cmd.Context(), a.cfg.Export.PostgresDSN, a.cfg.Export.Table)
				if err != nil {
					return err
				}
				defer pg.Close()
				exp = pg
			}

			report, err := a.pipeline().Export(cmd.Context(), exp)
			if err != nil {
				return err
			}
			return a.write(report)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be exported without writing")
	return cmd
}

func (a *app) write(reports ...*pipeline.Report) error {
	if err := WriteOutput(a.out, reports, a.format, a.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func (a *app) checkWarnings(reports ...*pipeline.Report) error {
	if !a.strict {
		return nil
	}
	for _, r := range reports {
		unresolved := 0
		for _, w := range r.Warnings {
			if !w.Resolved {
				unresolved++
			}
		}
		if unresolved > 0 {
			return fmt.Errorf("%w: %d unresolved in %s stage", errWarnings, unresolved, r.Stage)
		}
	}
	return nil
}

// exitCode maps a command error to the process exit status
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errWarnings):
		return ExitWarnings
	default:
		return ExitError
	}
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}
