package main

import (
	"fmt"

	"go-fleetdata/pkg/version"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			if format != formatText {
				return encode(cmd.OutOrStdout(), format, info)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fleetctl %s\n", info.String())
			fmt.Fprintf(cmd.OutOrStdout(), "  Build date: %s\n", info.BuildDate)
			fmt.Fprintf(cmd.OutOrStdout(), "  Go: %s (%s)\n", info.GoVersion, info.Platform)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, json or yaml")
	return cmd
}
