package main

import (
	"encoding/json"
	"fmt"

	"go-fleetdata/internal/server"
	"go-fleetdata/internal/storage"
	"go-fleetdata/pkg/config"

	"github.com/spf13/cobra"
)

func newOpenAPICmd() *cobra.Command {
	var format, prefix, serverURL string
	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI document of the fleet data API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := openAPIDocument(format, prefix, serverURL)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "Output format: json or yaml")
	cmd.Flags().StringVar(&prefix, "api-prefix", config.GetAPIPrefix(), "API prefix the document is served under")
	cmd.Flags().StringVar(&serverURL, "server-url", config.GetServerURL(), "Server URL listed in the document")
	return cmd
}

// openAPIDocument builds the API on an in-memory gateway and renders its
// OpenAPI document.
func openAPIDocument(format, prefix, serverURL string) ([]byte, error) {
	srv := server.New(server.Options{
		Gateway:    storage.NewMemoryGateway(),
		APIPrefix:  prefix,
		ServerURL:  serverURL,
		ServerDesc: config.GetServerDescription(),
	})

	data, err := json.MarshalIndent(srv.API.OpenAPI(), "", "  ")
	if err != nil {
		return nil, err
	}

	switch format {
	case formatJSON:
		return append(data, '\n'), nil
	case formatYAML:
		return jsonToYAML(data)
	default:
		return nil, fmt.Errorf("unknown format %q, expected %s or %s", format, formatJSON, formatYAML)
	}
}
