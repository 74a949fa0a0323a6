package xslog

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDropDebugPaths(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewFilterHandler(handler, DropDebugPaths("path", "/static/", "/live")))

	logger.Debug("Served request", slog.String("path", "/static/style.css"))
	logger.Debug("Served request", slog.String("path", "/live"))
	assert.Empty(t, buf.String())

	logger.Debug("Served request", slog.String("path", "/events"))
	assert.Contains(t, buf.String(), "path=/events")

	buf.Reset()
	logger.Info("Served request", slog.String("path", "/static/live.js"))
	assert.Contains(t, buf.String(), "path=/static/live.js")
}
