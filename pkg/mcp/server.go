package mcp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/site-crawler/pkg/config"
)

const (
	serverName    = "site-crawler"
	serverVersion = "1.0.0"
)

// ServerConfig holds configuration for the MCP server
type ServerConfig struct {
	AppConfig  *config.AppConfig
	Transport  string // "stdio" or "sse"
	Port       int
	Logger     *logrus.Logger
	HTTPClient *http.Client // Optional; built from AppConfig when nil
}

// Server exposes crawl jobs and robots inspection as MCP tools
type Server struct {
	mcpServer  *server.MCPServer
	cfg        *ServerConfig
	log        *logrus.Entry
	jobManager *JobManager
}

// NewServer creates a new MCP server instance
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("AppConfig is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithLogging(),
	)

	s := &Server{
		mcpServer:  mcpServer,
		cfg:        cfg,
		log:        cfg.Logger.WithField("component", "mcp"),
		jobManager: NewJobManager(),
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	crawlURLTool := mcp.NewTool("crawl_url",
		mcp.WithDescription("Start a background crawl of one site from a seed URL. Returns immediately with a job ID."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Absolute http(s) seed URL; only links on the same host are followed"),
		),
		mcp.WithNumber("max_depth",
			mcp.Description("Deepest link depth to crawl (seed is depth 0). Defaults to the configured max_depth."),
		),
	)
	s.mcpServer.AddTool(crawlURLTool, s.handleCrawlURL)

	getJobStatusTool := mcp.NewTool("get_job_status",
		mcp.WithDescription("Get the status and progress counters of a crawl job"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("The job ID returned by crawl_url"),
		),
	)
	s.mcpServer.AddTool(getJobStatusTool, s.handleGetJobStatus)

	listJobsTool := mcp.NewTool("list_jobs",
		mcp.WithDescription("List all crawl jobs started by this server"),
	)
	s.mcpServer.AddTool(listJobsTool, s.handleListJobs)

	cancelJobTool := mcp.NewTool("cancel_job",
		mcp.WithDescription("Cancel a pending or running crawl job"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("The job ID returned by crawl_url"),
		),
	)
	s.mcpServer.AddTool(cancelJobTool, s.handleCancelJob)

	checkRobotsTool := mcp.NewTool("check_robots",
		mcp.WithDescription("Fetch and parse a site's robots document; optionally check whether a path may be crawled"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Any absolute http(s) URL on the site"),
		),
		mcp.WithString("path",
			mcp.Description("Path to check against the rules for the configured user agent (e.g. '/admin/x')"),
		),
	)
	s.mcpServer.AddTool(checkRobotsTool, s.handleCheckRobots)

	s.log.Infof("Registered %d MCP tools", 5)
}

// Run starts the MCP server with the configured transport
func (s *Server) Run() error {
	switch s.cfg.Transport {
	case "stdio":
		s.log.Info("Starting MCP server with stdio transport")
		return server.ServeStdio(s.mcpServer)
	case "sse":
		addr := fmt.Sprintf(":%d", s.cfg.Port)
		s.log.Infof("Starting MCP server with SSE transport on %s", addr)
		sseServer := server.NewSSEServer(s.mcpServer)
		return sseServer.Start(addr)
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", s.cfg.Transport)
	}
}

// Shutdown cancels running crawl jobs
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down MCP server...")
	s.jobManager.CancelAll()
	return nil
}
