package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
	"github.com/runoshun/maestro/internal/usecase/shared"
)

// HandleHookInput contains one lifecycle signal from a process launcher.
type HandleHookInput struct {
	SessionID string
	Signal    domain.HookSignal
	ExitCode  int // process-ended only; non-zero ends the session as failed
}

// HandleHookOutput contains the result of handling a signal.
type HandleHookOutput struct {
	Session *domain.Session
	Ignored bool // True if the signal changed nothing (replay or late delivery)
}

// HandleHook is the use case for applying a process-lifecycle signal to a
// session. Every signal is idempotent: delivering it to a session that is
// already in the target state is a no-op, not an error.
type HandleHook struct {
	change *sessionStatusChange
	bus    *event.Bus
}

// NewHandleHook creates a new HandleHook use case.
func NewHandleHook(
	sessions domain.SessionRepository,
	queueSync *shared.QueueSync,
	bus *event.Bus,
	ids domain.IDGenerator,
	clock domain.Clock,
	logger domain.Logger,
) *HandleHook {
	return &HandleHook{
		change: &sessionStatusChange{
			sessions:  sessions,
			queueSync: queueSync,
			ids:       ids,
			clock:     clock,
			logger:    logger,
		},
		bus: bus,
	}
}

// Execute applies the signal.
func (uc *HandleHook) Execute(ctx context.Context, in HandleHookInput) (*HandleHookOutput, error) {
	if !in.Signal.IsValid() {
		return nil, domain.NewValidationError("signal", fmt.Sprintf("unknown lifecycle signal %q", in.Signal))
	}

	edit := statusEdit{
		entry: in.Signal.TimelineType(),
		target: func(s *domain.Session) (domain.SessionStatus, bool) {
			if in.Signal.IsNoop(s) {
				return "", true
			}
			to := in.Signal.Target(s)
			if in.Signal == domain.HookProcessEnded && in.ExitCode != 0 {
				to = domain.SessionStatusFailed
			}
			return to, false
		},
	}
	if in.Signal == domain.HookProcessEnded && in.ExitCode != 0 {
		edit.message = fmt.Sprintf("exit code %d", in.ExitCode)
	}

	session, changed, err := uc.change.apply(ctx, in.SessionID, edit)
	if err != nil {
		return nil, err
	}
	if !changed {
		return &HandleHookOutput{Session: session, Ignored: true}, nil
	}

	event.Publish(ctx, uc.bus, event.SessionUpdated, *session)
	return &HandleHookOutput{Session: session}, nil
}
