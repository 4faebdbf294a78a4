package main

import (
	"github.com/spf13/cobra"

	"ledgerpulse/internal/app"
	"ledgerpulse/internal/infrastructure"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server with periodic refresh",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			var appOpts []app.Option
			if opts.worksFile != "" || opts.expensesFile != "" {
				source, err := opts.source(cmd.Context(), cfg, infrastructure.GetLogger())
				if err != nil {
					return err
				}
				appOpts = append(appOpts, app.WithSource(source))
			}

			application, err := app.New(cfg, appOpts...)
			if err != nil {
				return err
			}
			return application.Run()
		},
	}
}
