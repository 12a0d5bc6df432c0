package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDoMcpServer_UnknownTransport(t *testing.T) {
	var stderr bytes.Buffer
	code := doMcpServer("", "carrier-pigeon", 0, "info", &stderr)

	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr.String(), "unknown transport")
}

func TestDoMcpServer_ConfigError(t *testing.T) {
	var stderr bytes.Buffer
	code := doMcpServer("/nonexistent/crawler.yaml", "stdio", 0, "info", &stderr)

	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr.String(), "Error loading config")
}

func TestMcpServerCmd_Flags(t *testing.T) {
	cmd := NewMcpServerCmd()
	transport := cmd.Flags().Lookup("transport")
	port := cmd.Flags().Lookup("port")

	assert.Equal(t, "stdio", transport.DefValue)
	assert.Equal(t, "8080", port.DefValue)
}
