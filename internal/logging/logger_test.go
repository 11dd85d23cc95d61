package logging_test

import (
	"log/slog"
	"testing"

	"github.com/aretw0/sluice/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestSuccessLevelOrdering(t *testing.T) {
	assert.Greater(t, logging.LevelSuccess, slog.LevelInfo)
	assert.Less(t, logging.LevelSuccess, slog.LevelWarn)
}

func TestNopLoggerIsSafe(t *testing.T) {
	l := logging.NewNop()

	l.Info("ignored")
	logging.Success(l, "ignored too", "key", "value")
}
