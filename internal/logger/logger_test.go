package logger_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NamanBalaji/streamdl/internal/logger"
)

func TestGroupIndentsNestedLines(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(logger.Close)

	logger.Group("Download Video Track (%s)...", "720p")
	logger.Infof("%d/%d", 1, 2)
	logger.GroupEnd()
	logger.Infof("done")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "[INFO] Download Video Track (720p)...")
	assert.Contains(t, lines[1], "[INFO]   1/2")
	assert.Contains(t, lines[2], "[INFO] done")
}

func TestGroupEndWithoutGroupIsHarmless(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(logger.Close)

	logger.GroupEnd()
	logger.Warnf("x")

	assert.Contains(t, buf.String(), "[WARNING] x")
}

func TestSilencedLoggerWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetOutput(nil)
	t.Cleanup(logger.Close)

	logger.Errorf("should not appear")
	assert.Empty(t, buf.String())
}

func TestInitLoggingCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "streamdl.log")
	require.NoError(t, logger.InitLogging(true, path))
	t.Cleanup(logger.Close)

	logger.Debugf("hello")
	assert.FileExists(t, path)
}

func TestScopedLoggersIndentIndependently(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(logger.Close)

	first := logger.FromContext(logger.Scoped(context.Background()))
	second := logger.FromContext(logger.Scoped(context.Background()))
	require.NotSame(t, first, second)

	first.Group("Download Video Track (%s)...", "1080p")
	second.Infof("second top")
	first.Infof("first nested")
	logger.Infof("shared top")
	first.GroupEnd()
	first.Infof("first top")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[1], "[INFO] second top")
	assert.Contains(t, lines[2], "[INFO]   first nested")
	assert.Contains(t, lines[3], "[INFO] shared top")
	assert.Contains(t, lines[4], "[INFO] first top")
}

func TestScopedKeepsExistingLogger(t *testing.T) {
	ctx := logger.Scoped(context.Background())

	assert.Same(t, logger.FromContext(ctx), logger.FromContext(logger.Scoped(ctx)))
	assert.NotSame(t, logger.FromContext(ctx), logger.FromContext(context.Background()))
}
