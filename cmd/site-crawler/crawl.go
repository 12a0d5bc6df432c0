package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Sriram-PR/site-crawler/pkg/config"
	"github.com/Sriram-PR/site-crawler/pkg/crawler"
)

// crawlOptions holds the crawl command's inputs. Nil overrides leave the config value alone.
type crawlOptions struct {
	configPath string
	logLevel   string
	seed       string

	maxDepth       *int
	maxConcurrency *int
	userAgent      *string
	visitedBackend *string
}

// apply copies the flag overrides onto cfg
func (o crawlOptions) apply(cfg *config.AppConfig) {
	if o.maxDepth != nil {
		cfg.SetMaxDepth(*o.maxDepth)
	}
	if o.maxConcurrency != nil {
		cfg.MaxConcurrency = *o.maxConcurrency
	}
	if o.userAgent != nil {
		cfg.UserAgent = *o.userAgent
	}
	if o.visitedBackend != nil {
		cfg.VisitedBackend = *o.visitedBackend
	}
}

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl one site from a seed URL",
		Long: `Crawl fetches the seed URL and follows every link on the same host, limited to
--max-depth links from the seed (the seed is depth 0). Paths denied by the site's robots rules
for the configured user agent are skipped. Per-page outcomes are logged; the crawl
always runs to completion unless interrupted.

Examples:
  # Crawl with defaults (depth 3, 10 concurrent fetches)
  site-crawler crawl --url https://example.com/

  # Shallow crawl with a config file and a disk-backed visited set
  site-crawler crawl --config crawler.yaml --url https://example.com/docs --max-depth 1 --visited-backend badger`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringP("url", "u", "", "Seed URL (absolute http or https)")
	cmd.Flags().IntP("max-depth", "d", config.DefaultMaxDepth, "Maximum link depth to crawl")
	cmd.Flags().IntP("max-concurrency", "c", config.DefaultMaxConcurrency, "Maximum concurrent fetches")
	cmd.Flags().String("user-agent", config.DefaultUserAgent, "User-Agent header and robots agent token")
	cmd.Flags().String("visited-backend", config.BackendMemory, "Visited set backend (memory, badger)")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	opts, err := buildCrawlOptions(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context(), cmd.ErrOrStderr())
	defer stop()

	return asExitError(doCrawl(ctx, opts, cmd.OutOrStdout(), cmd.ErrOrStderr()))
}

// buildCrawlOptions reads flags; only flags set on the command line override the config file.
func buildCrawlOptions(cmd *cobra.Command) (crawlOptions, error) {
	var opts crawlOptions
	opts.configPath, opts.logLevel = globalFlags(cmd)

	var err error
	if opts.seed, err = cmd.Flags().GetString("url"); err != nil {
		return opts, err
	}

	flags := cmd.Flags()
	if flags.Changed("max-depth") {
		v, err := flags.GetInt("max-depth")
		if err != nil {
			return opts, err
		}
		opts.maxDepth = &v
	}
	if flags.Changed("max-concurrency") {
		v, err := flags.GetInt("max-concurrency")
		if err != nil {
			return opts, err
		}
		opts.maxConcurrency = &v
	}
	if flags.Changed("user-agent") {
		v, err := flags.GetString("user-agent")
		if err != nil {
			return opts, err
		}
		opts.userAgent = &v
	}
	if flags.Changed("visited-backend") {
		v, err := flags.GetString("visited-backend")
		if err != nil {
			return opts, err
		}
		opts.visitedBackend = &v
	}
	return opts, nil
}

// doCrawl is the testable implementation of the crawl command. It returns the exit code.
func doCrawl(ctx context.Context, opts crawlOptions, stdout, stderr io.Writer) int {
	log := setupLogger(stderr, opts.logLevel)

	appCfg, err := loadAndValidateConfig(opts.configPath, opts.apply, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	logAppConfig(appCfg, log)

	scheduler, err := crawler.Setup(ctx, appCfg, opts.seed, nil, nil, logrus.NewEntry(log))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	defer func() {
		if closeErr := scheduler.Close(); closeErr != nil {
			log.Warnf("Closing visited set: %v", closeErr)
		}
	}()

	fmt.Fprintf(stdout, "crawl started: %s (run %s)\n", opts.seed, scheduler.RunID())

	runErr := scheduler.Run(ctx, opts.seed)

	p := scheduler.Progress()
	fmt.Fprintf(stdout, "crawl finished: visited=%d fetched=%d failed=%d skipped_policy=%d skipped_depth=%d\n",
		p.Visited, p.Fetched, p.Failed, p.SkippedPolicy, p.SkippedDepth)

	switch {
	case runErr == nil:
		return exitOK
	case errors.Is(runErr, context.Canceled):
		log.Warn("Crawl cancelled; in-flight fetches drained.")
		return exitInterrupted
	case errors.Is(runErr, context.DeadlineExceeded):
		log.Warn("Crawl stopped at the global crawl timeout.")
		return exitOK
	default:
		log.Errorf("Crawl finished with error: %v", runErr)
		return exitFailure
	}
}
