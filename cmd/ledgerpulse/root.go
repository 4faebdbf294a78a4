package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"ledgerpulse/internal/config"
	"ledgerpulse/internal/dataprocessing"
	"ledgerpulse/internal/feeds"
	"ledgerpulse/internal/infrastructure"
	"ledgerpulse/internal/services"
	"ledgerpulse/internal/store"
	"ledgerpulse/internal/validation"
)

// rootOptions holds the flags shared by every subcommand
type rootOptions struct {
	configFile   string
	logLevel     string
	worksFile    string
	expensesFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ledgerpulse",
		Short: "Works and expenses dashboard backed by published spreadsheets",
		Long: `LedgerPulse polls two published CSV feeds (works and expenses), keeps the
latest good copy of each in memory and serves totals, client rankings and
spreadsheet exports over HTTP and WebSocket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level for one-shot commands")
	cmd.PersistentFlags().StringVar(&opts.worksFile, "works-file", "", "Read the works feed from a local CSV file")
	cmd.PersistentFlags().StringVar(&opts.expensesFile, "expenses-file", "", "Read the expenses feed from a local CSV file")

	cmd.AddCommand(
		newServeCmd(opts),
		newSnapshotCmd(opts),
		newExportCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig reads --config, or searches the default locations when the
// flag is empty
func (o *rootOptions) loadConfig() (*config.Config, error) {
	load := config.Load
	if o.configFile != "" {
		load = func() (*config.Config, error) { return config.LoadFrom(o.configFile) }
	}
	cfg, err := load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// source returns a file source when both local files are given and the
// configured remote source otherwise
func (o *rootOptions) source(ctx context.Context, cfg *config.Config, logger *slog.Logger) (feeds.Source, error) {
	switch {
	case o.worksFile != "" && o.expensesFile != "":
		v := validation.NewFileValidator(logger)
		if err := v.ValidateFeedFile(o.worksFile, dataprocessing.WorksMinFields); err != nil {
			return nil, err
		}
		if err := v.ValidateFeedFile(o.expensesFile, dataprocessing.ExpensesMinFields); err != nil {
			return nil, err
		}
		return feeds.NewFileSource(o.worksFile, o.expensesFile)
	case o.worksFile != "" || o.expensesFile != "":
		return nil, fmt.Errorf("--works-file and --expenses-file must be given together")
	default:
		return feeds.New(ctx, cfg.Feeds, logger)
	}
}

// refreshOnce runs a single refresh cycle outside the server, for the
// one-shot commands
func (o *rootOptions) refreshOnce(ctx context.Context, stderr io.Writer) (*config.Config, *services.DashboardService, services.CycleReport, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, services.CycleReport{}, err
	}

	logger := infrastructure.NewLogger(stderr, o.logLevel)
	source, err := o.source(ctx, cfg, logger)
	if err != nil {
		return nil, nil, services.CycleReport{}, err
	}

	svc := services.NewDashboardService(services.DashboardDeps{
		Source:         source,
		Store:          store.NewMemoryStore(),
		Metrics:        infrastructure.NoopDashboardMetrics(),
		Logger:         logger,
		TopClients:     config.TopClientLimit,
		RefreshTimeout: cfg.Server.RefreshTimeout,
	})

	report := svc.RefreshOnce(ctx)
	if report.Outcome == services.OutcomeFailure {
		return cfg, svc, report, fmt.Errorf("refresh failed: %s", failedFeeds(report))
	}
	return cfg, svc, report, nil
}

func failedFeeds(report services.CycleReport) string {
	var failed []string
	for _, fr := range report.Feeds {
		if !fr.OK {
			failed = append(failed, fmt.Sprintf("%s: %s", fr.Kind, fr.Error))
		}
	}
	return strings.Join(failed, "; ")
}
