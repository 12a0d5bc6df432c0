package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/site-crawler/pkg/config"
	"github.com/Sriram-PR/site-crawler/pkg/crawler"
	"github.com/Sriram-PR/site-crawler/pkg/models"
	"github.com/Sriram-PR/site-crawler/pkg/parse"
)

// handleCrawlURL handles the crawl_url tool
func (s *Server) handleCrawlURL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL := request.GetString("url", "")
	if rawURL == "" {
		return mcp.NewToolResultError("url parameter is required"), nil
	}
	if _, err := parse.ParseSeed(rawURL); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Overrides apply to a per-job copy, never to the server config
	appCfgCopy := *s.cfg.AppConfig
	if _, given := request.GetArguments()["max_depth"]; given {
		depth := request.GetInt("max_depth", appCfgCopy.MaxDepth)
		if depth < 0 {
			return mcp.NewToolResultError(fmt.Sprintf("max_depth must be >= 0, got %d", depth)), nil
		}
		appCfgCopy.SetMaxDepth(depth)
	}

	job := s.jobManager.CreateJob(rawURL, appCfgCopy.MaxDepth)

	go s.runCrawlJob(job.ID, rawURL, &appCfgCopy)

	result := map[string]interface{}{
		"status":    "started",
		"message":   "Crawl started",
		"job_id":    job.ID,
		"url":       rawURL,
		"max_depth": appCfgCopy.MaxDepth,
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleGetJobStatus handles the get_job_status tool
func (s *Server) handleGetJobStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id parameter is required"), nil
	}

	job := s.jobManager.GetJob(jobID)
	if job == nil {
		return mcp.NewToolResultError(fmt.Sprintf("job '%s' not found", jobID)), nil
	}

	return mcp.NewToolResultText(formatJSON(jobSummary(job))), nil
}

// handleListJobs handles the list_jobs tool
func (s *Server) handleListJobs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobs := s.jobManager.ListJobs()
	summaries := make([]map[string]interface{}, 0, len(jobs))
	for _, job := range jobs {
		summaries = append(summaries, jobSummary(job))
	}

	result := map[string]interface{}{
		"jobs":  summaries,
		"count": len(summaries),
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleCancelJob handles the cancel_job tool
func (s *Server) handleCancelJob(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id parameter is required"), nil
	}

	job := s.jobManager.GetJob(jobID)
	if job == nil {
		return mcp.NewToolResultError(fmt.Sprintf("job '%s' not found", jobID)), nil
	}

	if !s.jobManager.CancelJob(jobID) {
		result := map[string]interface{}{
			"job_id":  jobID,
			"status":  job.Status,
			"message": "Job already finished",
		}
		return mcp.NewToolResultText(formatJSON(result)), nil
	}

	s.log.WithField("job_id", jobID).Info("Crawl job cancelled")
	result := map[string]interface{}{
		"job_id":  jobID,
		"status":  JobStatusCancelled,
		"message": "Cancellation requested; in-flight fetches drain before the crawl stops",
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleCheckRobots handles the check_robots tool
func (s *Server) handleCheckRobots(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL := request.GetString("url", "")
	if rawURL == "" {
		return mcp.NewToolResultError("url parameter is required"), nil
	}
	path := request.GetString("path", "")

	report, err := crawler.InspectRobots(ctx, s.cfg.AppConfig, rawURL, path, s.cfg.HTTPClient, s.log)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := map[string]interface{}{
		"robots_url": report.RobotsURL,
		"user_agent": report.UserAgent,
		"precedence": report.Precedence,
		"agents":     report.Agents,
		"rules":      report.Rules,
	}
	if report.Allowed != nil {
		result["path"] = report.Path
		result["allowed"] = *report.Allowed
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// runCrawlJob runs a crawl job in the background
func (s *Server) runCrawlJob(jobID, seed string, appCfg *config.AppConfig) {
	jobLog := s.log.WithFields(logrus.Fields{"job_id": jobID, "url": seed})
	jobCtx := s.jobManager.GetContext(jobID)
	s.jobManager.UpdateStatus(jobID, JobStatusRunning, "")

	var scheduler *crawler.Scheduler
	onPage := func(models.PageResult) {
		s.jobManager.UpdateProgress(jobID, scheduler.Progress())
	}

	scheduler, err := crawler.Setup(jobCtx, appCfg, seed, s.cfg.HTTPClient, onPage, jobLog)
	if err != nil {
		jobLog.Errorf("Crawl setup failed: %v", err)
		s.jobManager.UpdateStatus(jobID, JobStatusFailed, fmt.Sprintf("failed to set up crawl: %v", err))
		return
	}
	defer func() {
		if closeErr := scheduler.Close(); closeErr != nil {
			jobLog.Warnf("Closing visited set: %v", closeErr)
		}
	}()
	s.jobManager.SetRunID(jobID, scheduler.RunID())

	runErr := scheduler.Run(jobCtx, seed)
	s.jobManager.UpdateProgress(jobID, scheduler.Progress())

	switch {
	case runErr == nil:
		s.jobManager.UpdateStatus(jobID, JobStatusCompleted, "")
	case errors.Is(runErr, context.DeadlineExceeded):
		jobLog.Warn("Global crawl timeout reached; job ends with partial results")
		s.jobManager.UpdateStatus(jobID, JobStatusCompleted, "")
	case errors.Is(runErr, context.Canceled):
		s.jobManager.UpdateStatus(jobID, JobStatusCancelled, "")
	default:
		s.jobManager.UpdateStatus(jobID, JobStatusFailed, runErr.Error())
	}
}

// jobSummary renders a job for tool results
func jobSummary(job *Job) map[string]interface{} {
	summary := map[string]interface{}{
		"job_id":     job.ID,
		"url":        job.URL,
		"max_depth":  job.MaxDepth,
		"status":     job.Status,
		"started_at": job.StartedAt.Format(time.RFC3339),
		"progress":   job.Progress,
	}
	if job.RunID != "" {
		summary["run_id"] = job.RunID
	}
	if !job.CompletedAt.IsZero() {
		summary["completed_at"] = job.CompletedAt.Format(time.RFC3339)
		summary["duration_seconds"] = job.CompletedAt.Sub(job.StartedAt).Seconds()
	}
	if job.ErrorMessage != "" {
		summary["error_message"] = job.ErrorMessage
	}
	return summary
}

// formatJSON formats data as an indented JSON string
func formatJSON(data map[string]interface{}) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"error\": %q}", err.Error())
	}
	return string(b)
}
