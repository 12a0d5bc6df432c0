package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDoValidate(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantCode   int
		wantStdout []string
		wantStderr string
	}{
		{
			name:       "defaults applied",
			content:    "user_agent: mybot/1.0\n",
			wantCode:   exitOK,
			wantStdout: []string{"user_agent: mybot/1.0", "max_depth: 3", "max_concurrency: 10", "Configuration valid (0 warning(s))"},
		},
		{
			name:       "explicit zero depth kept",
			content:    "max_depth: 0\nper_page_timeout: 5s\n",
			wantCode:   exitOK,
			wantStdout: []string{"max_depth: 0", "per_page_timeout: 5s"},
		},
		{
			name:       "negative values warn",
			content:    "max_concurrency: -2\n",
			wantCode:   exitOK,
			wantStdout: []string{"WARN:", "max_concurrency: 10", "Configuration valid (1 warning(s))"},
		},
		{
			name:       "invalid precedence",
			content:    "robots_precedence: strictest\n",
			wantCode:   exitFailure,
			wantStderr: "robots_precedence",
		},
		{
			name:       "invalid yaml",
			content:    "{{not yaml",
			wantCode:   exitFailure,
			wantStderr: "load config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			var stdout, stderr bytes.Buffer

			code := doValidate(path, &stdout, &stderr)

			assert.Equal(t, tt.wantCode, code)
			for _, want := range tt.wantStdout {
				assert.Contains(t, stdout.String(), want)
			}
			if tt.wantStderr != "" {
				assert.Contains(t, stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestDoValidate_NoConfigFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := doValidate("", &stdout, &stderr)

	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout.String(), "user_agent: site-crawler/1.0")
}

func TestValidateCmd(t *testing.T) {
	stdout, _, err := runRoot(t, "validate", "--config", writeConfig(t, "max_depth: 2\n"))
	assert.NoError(t, err)
	assert.Contains(t, stdout, "max_depth: 2")
}
