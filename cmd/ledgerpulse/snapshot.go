package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ledgerpulse/internal/services"
	"ledgerpulse/pkg/contracts/domain"
)

func newSnapshotCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch both feeds once and print the dashboard summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, report, err := opts.refreshOnce(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"report":  report,
					"summary": svc.Summary(),
				})
			}
			return printSummary(cmd.OutOrStdout(), report, svc.Summary())
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the cycle report and summary as JSON")
	return cmd
}

func printSummary(w io.Writer, report services.CycleReport, view domain.SummaryView) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Total revenue\t%s\n", view.TotalRevenueDisplay)
	fmt.Fprintf(tw, "Total credit\t%s\n", view.TotalCreditDisplay)
	fmt.Fprintf(tw, "Current balance\t%s\n", view.CurrentBalanceDisplay)
	fmt.Fprintf(tw, "Clients\t%d\n", view.ClientCount)

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "Top clients\tRevenue\tShare")
	for _, c := range view.TopClients {
		fmt.Fprintf(tw, "%s\t%s\t%.1f%%\n", c.Client, humanize.CommafWithDigits(c.Revenue, 2), c.Percent)
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "Feed\tRecords\tDropped\tSize\tStatus")
	for _, fr := range report.Feeds {
		status := "ok"
		if !fr.OK {
			status = fr.Error
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", fr.Kind, fr.Stats.Records, fr.Stats.Dropped, humanize.Bytes(uint64(fr.Bytes)), status)
	}

	return tw.Flush()
}
