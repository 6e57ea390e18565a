package main

import (
	"github.com/spf13/cobra"

	"github.com/elsbrock/smartproxy/internal/config"
	"github.com/elsbrock/smartproxy/internal/log"
)

// rootOptions holds flags shared by every command
type rootOptions struct {
	configFile string
	logLevel   string
	name       string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "smartproxy",
		Short: "Fetch pages disguised as a proxy-forwarded client",
		Long: `smartproxy downloads pages while rotating among local interfaces,
adding forwarding-proxy headers and backing off when the remote side
serves an anti-automation challenge page.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cmd.Flags().Changed("log-level") {
				log.SetLevel(log.ParseLevel(opts.logLevel))
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "Config file (yaml, toml or json)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error, none)")
	flags.StringVar(&opts.name, "name", "default", "Connection name; fetches with the same name share interfaces")
	config.RegisterFlags(flags)

	cmd.AddCommand(
		newFetchCmd(opts),
		newGetCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

// loadConfig resolves the effective configuration for cmd
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(o.configFile, cmd.Flags())
}
