package attach

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/checkgrid/internal/ctxlog"
)

func loggedContext(t *testing.T) (context.Context, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	return ctxlog.WithLogger(context.Background(), logger), &buf
}

func TestAttemptAttachSuccess(t *testing.T) {
	ctx, buf := loggedContext(t)

	outcome := AttemptAttach(ctx, "dependency-check", func() error { return nil })
	assert.True(t, outcome.Attached)
	assert.NoError(t, outcome.Err)
	assert.NotContains(t, buf.String(), "level=ERROR")
}

func TestAttemptAttachContainsErrors(t *testing.T) {
	ctx, buf := loggedContext(t)
	cause := errors.New("scanning capability missing on host")

	outcome := AttemptAttach(ctx, "dependency-check", func() error { return cause })
	assert.False(t, outcome.Attached)
	assert.ErrorIs(t, outcome.Err, cause)

	t.Run("logs exactly one error naming the integration", func(t *testing.T) {
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		var errorLines []string
		for _, l := range lines {
			if strings.Contains(l, "level=ERROR") {
				errorLines = append(errorLines, l)
			}
		}
		require.Len(t, errorLines, 1)
		assert.Contains(t, errorLines[0], "dependency-check")
		assert.Contains(t, errorLines[0], "scanning capability missing")
	})
}

func TestAttemptAttachContainsPanics(t *testing.T) {
	ctx, _ := loggedContext(t)

	outcome := AttemptAttach(ctx, "quality-report", func() error {
		panic("unresolvable collaborator")
	})
	assert.False(t, outcome.Attached)
	assert.ErrorContains(t, outcome.Err, "unresolvable collaborator")
}
