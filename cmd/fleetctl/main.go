// Command fleetctl converts, inspects and documents fleet data files
// without a running server.
package main

import (
	"log/slog"
	"os"

	"go-fleetdata/pkg/config"
	"go-fleetdata/pkg/logging"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "fleetctl",
		Short:        "Operator tools for fleet data collections",
		Long:         "fleetctl converts collection files of any supported schema version to the latest one, inspects them and prints the OpenAPI document of the fleet data API.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := logging.ParseLogLevel(config.GetEnv("LOG_LEVEL", "warn"))
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	root.AddCommand(
		newConvertCmd(),
		newInspectCmd(),
		newOpenAPICmd(),
		newVersionCmd(),
	)
	return root
}
