package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go-fleetdata/internal/pss"
	"go-fleetdata/internal/schema"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type convertOptions struct {
	outDir  string
	format  string
	version int
	workers int
}

// conversion is the outcome of converting one file.
type conversion struct {
	Source  string
	Target  string
	Version int
	Fleets  int
	Users   int
}

func newConvertCmd() *cobra.Command {
	opts := &convertOptions{}
	cmd := &cobra.Command{
		Use:   "convert [file...]",
		Short: "Convert collection files to the latest schema version",
		Long: "convert decodes every file in the schema version it declares (or the one given with --schema-version), " +
			"validates it and writes it in the latest schema version next to the source or into --out-dir.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := convertFiles(args, opts)
			for _, r := range results {
				if r.Target == "" {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (v%d, %d fleets, %d users) -> %s\n", r.Source, r.Version, r.Fleets, r.Users, r.Target)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.outDir, "out-dir", "o", "", "Directory to write converted files to (default: next to each source)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatJSON, "Output format: json or yaml")
	cmd.Flags().IntVar(&opts.version, "schema-version", 0, "Decode as this schema version instead of detecting it")
	cmd.Flags().IntVar(&opts.workers, "workers", runtime.NumCPU(), "Number of files converted concurrently")
	return cmd
}

// convertFiles converts every path concurrently. Results are in input order;
// the first failure is returned after all files were attempted.
func convertFiles(paths []string, opts *convertOptions) ([]conversion, error) {
	if opts.format != formatJSON && opts.format != formatYAML {
		return nil, fmt.Errorf("unknown format %q, expected %s or %s", opts.format, formatJSON, formatYAML)
	}
	if opts.outDir != "" {
		if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
			return nil, err
		}
	}

	results := make([]conversion, len(paths))
	errs := make([]error, len(paths))

	var group errgroup.Group
	if opts.workers > 0 {
		group.SetLimit(opts.workers)
	}
	for i, path := range paths {
		group.Go(func() error {
			results[i], errs[i] = convertFile(path, opts)
			return nil
		})
	}
	_ = group.Wait()

	for i, err := range errs {
		if err != nil {
			return results, fmt.Errorf("%s: %w", paths[i], err)
		}
	}
	return results, nil
}

func convertFile(path string, opts *convertOptions) (conversion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return conversion{}, err
	}

	c, version, err := decodeFile(data, opts.version)
	if err != nil {
		return conversion{}, err
	}
	payload, err := schema.EncodeCollection(c)
	if err != nil {
		return conversion{}, err
	}

	var buf bytes.Buffer
	if err := encode(&buf, opts.format, payload); err != nil {
		return conversion{}, err
	}

	target := targetPath(path, opts.outDir, opts.format)
	if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
		return conversion{}, err
	}
	return conversion{
		Source:  path,
		Target:  target,
		Version: version,
		Fleets:  len(payload.Fleets),
		Users:   len(payload.Users),
	}, nil
}

// targetPath names the converted file: <base>.v<latest><ext>.
func targetPath(source, outDir, format string) string {
	dir := filepath.Dir(source)
	if outDir != "" {
		dir = outDir
	}
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return filepath.Join(dir, fmt.Sprintf("%s.v%d%s", base, pss.LatestSchemaVersion, extension(format)))
}
