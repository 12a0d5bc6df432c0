package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for site-crawler.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "site-crawler",
		Short: "Concurrent single-site web crawler",
		Long: `site-crawler walks one website from a seed URL. It follows links that stay on the
seed's host, stops at a maximum link depth, skips paths the site's robots rules deny
and never fetches more than a fixed number of pages at once.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().String("config", "", "Path to YAML config file (defaults apply when empty)")
	cmd.PersistentFlags().String("loglevel", "info", "Log level (trace, debug, info, warn, error)")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewRobotsCmd())
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewMcpServerCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}
