package logging

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		" INFO ":  slog.LevelInfo,
	}
	for name, want := range cases {
		level, err := ParseLevel(name)
		require.NoError(t, err)
		assert.Equal(t, want, level)
	}

	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestCLIHandlerFormat(t *testing.T) {
	var buf strings.Builder
	logger := NewCLI(&buf, slog.LevelInfo)

	logger.Info("build finished", "package", "pkg", "images", 2)

	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "INFO "))
	assert.Contains(t, line, "| build finished")
	assert.Contains(t, line, "package=pkg")
	assert.Contains(t, line, "images=2")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestCLIHandlerLevelFilter(t *testing.T) {
	var buf strings.Builder
	logger := NewCLI(&buf, slog.LevelWarn)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestCLIHandlerAttrsAndGroups(t *testing.T) {
	var buf strings.Builder
	logger := NewCLI(&buf, slog.LevelInfo).With("component", "builder").WithGroup("docker")

	logger.Info("pulled", "image", "fedora:42")

	line := buf.String()
	assert.Contains(t, line, "component=builder")
	assert.Contains(t, line, "docker.image=fedora:42")
}

func TestCLIHandlerErrorValue(t *testing.T) {
	var buf strings.Builder
	logger := NewCLI(&buf, slog.LevelInfo)

	logger.Error("failed", "error", errors.New("exit status 1"))

	assert.Contains(t, buf.String(), "error=exit status 1")
}

func TestEnsure(t *testing.T) {
	logger := NewCLI(&strings.Builder{}, nil)
	assert.Same(t, logger, Ensure(logger))
	assert.Same(t, slog.Default(), Ensure(nil))
}
