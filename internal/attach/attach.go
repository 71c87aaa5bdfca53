// Package attach isolates integration attachment from the host configuration
// phase. A failure while attaching one integration disables that integration
// for the run and is reported through an explicit outcome; it never aborts
// the host's configuration.
package attach

import (
	"context"
	"fmt"

	"github.com/vk/checkgrid/internal/ctxlog"
)

// Outcome reports the result of one attachment attempt.
type Outcome struct {
	Integration string
	Attached    bool
	Err         error
}

// AttemptAttach runs fn, the whole attachment procedure of one integration,
// inside the containment boundary. Errors and panics raised by fn are
// captured, logged once with the integration name and cause, and returned as
// a non-attached outcome. The caller carries on either way.
func AttemptAttach(ctx context.Context, integration string, fn func() error) (outcome Outcome) {
	logger := ctxlog.FromContext(ctx)
	outcome = Outcome{Integration: integration}

	defer func() {
		if r := recover(); r != nil {
			outcome.Err = fmt.Errorf("attachment panicked: %v", r)
		}
		if outcome.Err != nil {
			logger.Error("Integration could not be attached, continuing without it.",
				"integration", integration, "cause", outcome.Err)
			return
		}
		outcome.Attached = true
		logger.Debug("Integration attached.", "integration", integration)
	}()

	outcome.Err = fn()
	return outcome
}
