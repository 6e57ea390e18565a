package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/elsbrock/smartproxy/internal/connection"
	"github.com/elsbrock/smartproxy/internal/download"
)

func newGetCmd(root *rootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "get URL",
		Short: "Download a URL to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create target directory: %w", err)
			}

			fetcher := download.NewFetcher(connection.NewRegistry(), root.name, cfg)
			path, err := fetcher.FetchFile(cmd.Context(), args[0], dir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Target directory")
	return cmd
}
