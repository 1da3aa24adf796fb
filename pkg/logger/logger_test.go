package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsLogger(t *testing.T) {
	log := Get()
	require.NotNil(t, log)

	// Subsequent calls return the same instance
	assert.Same(t, log, Get())
}

func TestWithContext(t *testing.T) {
	ctx := context.Background()
	ctx = context.WithValue(ctx, RunIDKey, "run-123")
	ctx = context.WithValue(ctx, DatasetKey, "full")
	ctx = context.WithValue(ctx, FormatKey, "parquet")

	log := WithContext(ctx)
	require.NotNil(t, log)

	// A bare context also yields a usable logger
	assert.NotNil(t, WithContext(context.Background()))
}

func TestNewLoggerValidation(t *testing.T) {
	_, err := newLogger(Config{Level: "nope", Encoding: "json"})
	assert.Error(t, err)

	log, err := newLogger(Config{Level: "debug", Encoding: "console", Development: true})
	require.NoError(t, err)
	assert.NotNil(t, log)
}
