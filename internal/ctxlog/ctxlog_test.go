package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithLoggerRoundTrip(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
}

func TestFromContextPanicsWithoutLogger(t *testing.T) {
	assert.Panics(t, func() { FromContext(context.Background()) })
}

func TestWithRunTagsRecords(t *testing.T) {
	var out bytes.Buffer
	ctx := WithLogger(context.Background(), slog.New(slog.NewTextHandler(&out, nil)))

	ctx = WithRun(ctx, 7)
	FromContext(ctx).Info("node dispatched")

	require.Contains(t, out.String(), "runID=7")
	assert.Contains(t, out.String(), "node dispatched")
}
