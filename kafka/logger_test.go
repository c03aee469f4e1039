package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_Levels(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Debug("fetched %d records", 3)
	logger.Info("loop %s", "started")
	logger.Warn("transient error: %v", "timeout")
	logger.Error("loop terminating: %v", "boom")

	entries := observed.TakeAll()
	assert.Len(t, entries, 4)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "fetched 3 records", entries[0].Message)

	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, "loop started", entries[1].Message)

	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "transient error: timeout", entries[2].Message)

	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Equal(t, "loop terminating: boom", entries[3].Message)
}

func TestDefaultLogger_RespectsLevel(t *testing.T) {
	// A level-None logger must swallow everything without panicking
	logger := NewDefaultLogger(LogLevelNone)
	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")
}
