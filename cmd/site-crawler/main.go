// Package main provides the site-crawler CLI.
//
// site-crawler walks one website from a seed URL, following same-host links up to a
// depth limit while honouring the site's robots rules and a global concurrency cap.
//
// Usage:
//
//	site-crawler crawl --url https://example.com/
//	site-crawler robots --url https://example.com/ --path /admin
//	site-crawler mcp-server --transport stdio
//
// See --help for all available options.
package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes
const (
	exitOK          = 0
	exitFailure     = 1
	exitInterrupted = 130
)

// exitCodeError carries a process exit code out of a command's RunE
type exitCodeError struct {
	code int
}

// Error implements error
func (e *exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// asExitError converts a do* result into a cobra error
func asExitError(code int) error {
	if code == exitOK {
		return nil
	}
	return &exitCodeError{code: code}
}

func main() {
	os.Exit(Execute())
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := NewRootCmd().Execute()
	if err == nil {
		return exitOK
	}
	var exitErr *exitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintln(os.Stderr, err)
	return exitFailure
}
