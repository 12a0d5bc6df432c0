package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sriram-PR/site-crawler/pkg/mcp"
)

// NewMcpServerCmd creates the mcp-server command.
func NewMcpServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Start an MCP server exposing crawl tools",
		Long: `Start an MCP (Model Context Protocol) server for AI tool integration.

Examples:
  # Start with stdio transport
  site-crawler mcp-server --config crawler.yaml

  # Start with SSE transport on port 8080
  site-crawler mcp-server --transport sse --port 8080

Available MCP Tools:
  crawl_url       Start a background crawl from a seed URL
  get_job_status  Status and progress counters of a crawl job
  list_jobs       All crawl jobs of this server
  cancel_job      Cancel a running crawl job
  check_robots    Show a site's robots rules or check one path`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, logLevel := globalFlags(cmd)
			transport, _ := cmd.Flags().GetString("transport")
			port, _ := cmd.Flags().GetInt("port")
			return asExitError(doMcpServer(configPath, transport, port, logLevel, cmd.ErrOrStderr()))
		},
	}

	cmd.Flags().String("transport", "stdio", "Transport type (stdio, sse)")
	cmd.Flags().Int("port", 8080, "HTTP port (for sse transport)")

	return cmd
}

// doMcpServer is the testable implementation of the MCP server
func doMcpServer(configPath, transport string, port int, logLevel string, stderr io.Writer) int {
	// MCP protocol uses stdout, logs go to stderr
	log := setupLogger(stderr, logLevel)

	appCfg, err := loadAndValidateConfig(configPath, nil, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return exitFailure
	}

	server, err := mcp.NewServer(&mcp.ServerConfig{
		AppConfig: appCfg,
		Transport: transport,
		Port:      port,
		Logger:    log,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error creating MCP server: %v\n", err)
		return exitFailure
	}

	log.Infof("Starting MCP server (transport: %s)", transport)

	if err := server.Run(); err != nil {
		fmt.Fprintf(stderr, "MCP server error: %v\n", err)
		return exitFailure
	}
	return exitOK
}
