package crawler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/site-crawler/pkg/config"
	"github.com/Sriram-PR/site-crawler/pkg/utils"
)

func TestInspectRobots(t *testing.T) {
	server, _ := newTestSite(t, "User-agent: *\nAllow: /\nDisallow: /admin\n")
	cfg := testAppConfig(t, config.BackendMemory)

	t.Run("rules only", func(t *testing.T) {
		report, err := InspectRobots(context.Background(), cfg, server.URL+"/docs", "", nil, testLogger())
		require.NoError(t, err)
		assert.Equal(t, server.URL+"/robots.txt", report.RobotsURL)
		assert.Equal(t, []string{"*"}, report.Agents)
		assert.Equal(t, "User-agent: *\nAllow: /\nDisallow: /admin\n", report.Rules)
		assert.Nil(t, report.Allowed)
		assert.Empty(t, report.Path)
	})

	t.Run("allow first verdict", func(t *testing.T) {
		report, err := InspectRobots(context.Background(), cfg, server.URL, "/admin/x", nil, testLogger())
		require.NoError(t, err)
		require.NotNil(t, report.Allowed)
		assert.True(t, *report.Allowed)
		assert.Equal(t, "/admin/x", report.Path)
	})

	t.Run("longest match verdict", func(t *testing.T) {
		lm := *cfg
		lm.RobotsPrecedence = config.PrecedenceLongestMatch
		report, err := InspectRobots(context.Background(), &lm, server.URL, "/admin/x", nil, testLogger())
		require.NoError(t, err)
		require.NotNil(t, report.Allowed)
		assert.False(t, *report.Allowed)
	})
}

func TestInspectRobots_MissingDocument(t *testing.T) {
	server, _ := newTestSite(t, "")
	cfg := testAppConfig(t, config.BackendMemory)

	report, err := InspectRobots(context.Background(), cfg, server.URL, "/anything", nil, testLogger())
	require.NoError(t, err)
	assert.Empty(t, report.Agents)
	assert.Empty(t, report.Rules)
	require.NotNil(t, report.Allowed)
	assert.True(t, *report.Allowed)
}

func TestInspectRobots_MalformedURL(t *testing.T) {
	cfg := testAppConfig(t, config.BackendMemory)
	_, err := InspectRobots(context.Background(), cfg, "not a url", "", nil, testLogger())
	assert.ErrorIs(t, err, utils.ErrMalformedURL)
}
