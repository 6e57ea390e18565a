package main

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/elsbrock/smartproxy/internal/connection"
	"github.com/elsbrock/smartproxy/internal/download"
	"github.com/elsbrock/smartproxy/internal/log"
)

type fetchOptions struct {
	outDir      string
	parallel    int
	metricsFile string
}

func newFetchCmd(root *rootOptions) *cobra.Command {
	opts := &fetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch URL...",
		Short: "Fetch pages and print their bodies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, root, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.outDir, "out-dir", "o", "", "Write each body to a file in this directory instead of stdout")
	cmd.Flags().IntVarP(&opts.parallel, "parallel", "p", 1, "Number of URLs fetched concurrently")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")
	return cmd
}

func runFetch(cmd *cobra.Command, root *rootOptions, opts *fetchOptions, urls []string) error {
	cfg, err := root.loadConfig(cmd)
	if err != nil {
		return err
	}
	if opts.parallel < 1 {
		return fmt.Errorf("--parallel must be at least 1, got %d", opts.parallel)
	}
	if opts.outDir != "" {
		if err := os.MkdirAll(opts.outDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	reg := prometheus.NewRegistry()
	fetcher := download.NewFetcher(connection.NewRegistry(), root.name, cfg,
		download.WithMetrics(download.NewMetrics(reg)))
	if opts.metricsFile != "" {
		defer writeMetrics(opts.metricsFile, reg)
	}

	bodies := make([][]byte, len(urls))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(opts.parallel)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			body, err := fetcher.Fetch(ctx, u)
			if err != nil {
				return err
			}
			if opts.outDir == "" {
				bodies[i] = body
				return nil
			}
			dst := filepath.Join(opts.outDir, outputName(i, u))
			if err := os.WriteFile(dst, body, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", dst, err)
			}
			log.Info("fetch").
				Str("url", u).
				Str("file", dst).
				Str("size", humanize.Bytes(uint64(len(body)))).
				Msg("Saved")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, body := range bodies {
		if body == nil {
			continue
		}
		if _, err := out.Write(body); err != nil {
			return err
		}
	}
	return nil
}

// outputName derives a file name from the URL path, prefixed by its position
func outputName(i int, rawURL string) string {
	name := "index.html"
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "/" && base != "." && base != "" {
			name = base
		}
	}
	return fmt.Sprintf("%03d-%s", i, name)
}

func writeMetrics(file string, reg *prometheus.Registry) {
	if err := prometheus.WriteToTextfile(file, reg); err != nil {
		log.Error("fetch").
			Str("file", file).
			Err(err).
			Msg("Failed to write metrics")
	}
}
