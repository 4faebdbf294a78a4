package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"ledgerpulse/internal/app"
	"ledgerpulse/internal/config"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s %s/%s)\n", config.AppName, config.AppVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			if app.BuildTime != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "built %s\n", app.BuildTime)
			}
		},
	}
}
