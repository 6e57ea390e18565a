package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/elsbrock/smartproxy/internal/config"
)

func newConfigCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config [OPTION...]",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}

			names := args
			if len(names) == 0 {
				names = config.Names()
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range names {
				v, err := cfg.Get(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%v\n", name, v)
			}
			return w.Flush()
		},
	}
}
