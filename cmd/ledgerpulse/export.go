package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ledgerpulse/internal/exporter"
	"ledgerpulse/internal/infrastructure"
	"ledgerpulse/internal/validation"
	"ledgerpulse/pkg/contracts/domain"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		out   string
		feed  string
		query string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Fetch both feeds once and write the workbook or a feed CSV",
		Long: `Fetch both feeds once and write the dashboard workbook (Works, Expenses
and Summary sheets). With --feed, write that feed as CSV instead,
optionally filtered by --query.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, svc, _, err := opts.refreshOnce(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			logger := infrastructure.NewLogger(cmd.ErrOrStderr(), opts.logLevel)
			exp := exporter.New(cfg.Export, infrastructure.NoopDashboardMetrics(), logger)
			v := validation.NewFileValidator(logger)

			if feed == "" {
				if out != "" {
					if err := v.ValidateExportPath(out, exporter.FormatXLSX); err != nil {
						return err
					}
				}
				path, err := exp.SaveWorkbook(ctx, out, svc.Snapshot())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			}

			kind, ok := domain.ParseFeedKind(feed)
			if !ok {
				return fmt.Errorf("unknown feed %q (want works or expenses)", feed)
			}

			w := cmd.OutOrStdout()
			if out != "" {
				if err := v.ValidateExportPath(out, exporter.FormatCSV); err != nil {
					return err
				}
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			if kind == domain.FeedWorks {
				return exp.WriteWorksCSV(ctx, w, svc.Works(query))
			}
			return exp.WriteExpensesCSV(ctx, w, svc.Expenses(query))
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path (workbook defaults to the export directory, CSV to stdout)")
	cmd.Flags().StringVar(&feed, "feed", "", "Export one feed as CSV: works or expenses")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Search filter applied to the CSV rows")
	return cmd
}
