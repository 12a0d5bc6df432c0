package main

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Sriram-PR/site-crawler/pkg/crawler"
)

// NewRobotsCmd creates the robots command.
func NewRobotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "robots",
		Short: "Show the robots rules a crawl would obey",
		Long: `Robots fetches {scheme}://{host}/robots.txt for the given URL and prints the
parsed rules. With --path it also prints whether the configured user agent may
fetch that path. A missing or unreachable document permits everything.

Examples:
  site-crawler robots --url https://example.com/
  site-crawler robots --url https://example.com/ --path /admin/users`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, logLevel := globalFlags(cmd)
			siteURL, _ := cmd.Flags().GetString("url")
			path, _ := cmd.Flags().GetString("path")
			return asExitError(doRobots(cmd.Context(), configPath, logLevel, siteURL, path, cmd.OutOrStdout(), cmd.ErrOrStderr()))
		},
	}

	cmd.Flags().StringP("url", "u", "", "Any absolute http(s) URL on the site")
	cmd.Flags().StringP("path", "p", "", "Path to check (e.g. /admin/users)")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

// doRobots is the testable implementation of the robots command
func doRobots(ctx context.Context, configPath, logLevel, siteURL, path string, stdout, stderr io.Writer) int {
	if ctx == nil {
		ctx = context.Background()
	}
	log := setupLogger(stderr, logLevel)

	appCfg, err := loadAndValidateConfig(configPath, nil, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}

	report, err := crawler.InspectRobots(ctx, appCfg, siteURL, path, nil, logrus.NewEntry(log))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}

	fmt.Fprintf(stdout, "Robots document: %s\n", report.RobotsURL)
	fmt.Fprintf(stdout, "User agent:      %s (%s)\n", report.UserAgent, report.Precedence)
	if report.Rules == "" {
		fmt.Fprintln(stdout, "Rules:           none, all paths permitted")
	} else {
		fmt.Fprintf(stdout, "Rules:\n%s", report.Rules)
	}

	if report.Allowed != nil {
		verdict := "allowed"
		if !*report.Allowed {
			verdict = "disallowed"
		}
		fmt.Fprintf(stdout, "Path %s: %s\n", report.Path, verdict)
	}
	return exitOK
}
