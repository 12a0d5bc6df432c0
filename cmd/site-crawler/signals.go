package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// shutdownGrace bounds how long in-flight work may drain after the first signal
const shutdownGrace = 30 * time.Second

// signalContext returns a context cancelled on SIGINT or SIGTERM. A second signal, or
// a drain longer than shutdownGrace, forces the process to exit.
func signalContext(parent context.Context, stderr io.Writer) (context.Context, func()) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			fmt.Fprintf(stderr, "Received signal: %v. Stopping crawl, waiting for in-flight fetches...\n", sig)
			cancel()
		case <-done:
			return
		}

		select {
		case sig := <-sigChan:
			fmt.Fprintf(stderr, "Received second signal: %v. Forcing exit.\n", sig)
			os.Exit(exitInterrupted)
		case <-time.After(shutdownGrace):
			fmt.Fprintln(stderr, "Graceful shutdown period exceeded after signal. Forcing exit.")
			os.Exit(exitInterrupted)
		case <-done:
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		close(done)
		cancel()
	}
}
