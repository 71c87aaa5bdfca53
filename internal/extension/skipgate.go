package extension

import (
	"context"

	"github.com/vk/checkgrid/internal/ctxlog"
	"github.com/vk/checkgrid/internal/lazy"
)

// SkipGate resolves the effective skip decision for one integration by
// combining the explicit skip flag with an integration-specific automatic
// rule. Resolve runs exactly once, at finalization.
type SkipGate struct {
	Integration ID
	Skip        *lazy.Value[bool]

	// Auto is the automatic override rule. When it fires it returns a
	// human-readable reason; a nil Auto never fires.
	Auto func() (reason string, fired bool)
}

// Resolve returns the effective skip decision. An explicit skip wins
// outright with no extra logging. Otherwise, a firing automatic rule logs a
// warning and latches the skip flag itself to true, so every later read of
// the flag sees the decision. The latch is one-way for the whole run.
func (g *SkipGate) Resolve(ctx context.Context) bool {
	if g.Skip.GetOr(false) {
		return true
	}
	if g.Auto == nil {
		return false
	}
	reason, fired := g.Auto()
	if !fired {
		return false
	}
	ctxlog.FromContext(ctx).Warn("Integration skipped automatically.",
		"integration", string(g.Integration), "reason", reason)
	g.Skip.Set(true)
	return true
}
