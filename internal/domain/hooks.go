package domain

// HookSignal is a process-lifecycle signal delivered by the external
// process launcher. Each signal is a discrete input to the session state
// machine rather than a free-form status write.
type HookSignal string

const (
	HookProcessStarted HookSignal = "process-started"
	HookInputSubmitted HookSignal = "input-submitted"
	HookAwaitingInput  HookSignal = "awaiting-input"
	HookProcessEnded   HookSignal = "process-ended"
)

// AllHookSignals returns every known lifecycle signal.
func AllHookSignals() []HookSignal {
	return []HookSignal{HookProcessStarted, HookInputSubmitted, HookAwaitingInput, HookProcessEnded}
}

// IsValid returns true if the signal is known.
func (h HookSignal) IsValid() bool {
	switch h {
	case HookProcessStarted, HookInputSubmitted, HookAwaitingInput, HookProcessEnded:
		return true
	default:
		return false
	}
}

// Target returns the status the signal drives the session to.
// A started process with no tasks is idle, otherwise it is working.
func (h HookSignal) Target(s *Session) SessionStatus {
	switch h {
	case HookProcessStarted:
		if len(s.TaskIDs) == 0 {
			return SessionStatusIdle
		}
		return SessionStatusWorking
	case HookInputSubmitted:
		return SessionStatusWorking
	case HookAwaitingInput:
		return SessionStatusNeedsUserInput
	case HookProcessEnded:
		return SessionStatusCompleted
	default:
		return ""
	}
}

// IsNoop reports whether delivering the signal to s changes nothing.
// Replays of an already applied signal are no-ops, a late process-started
// for a session that is already running is a no-op, and process-ended for
// a session that already reached any terminal state is a no-op.
func (h HookSignal) IsNoop(s *Session) bool {
	switch h {
	case HookProcessStarted:
		return s.Status != SessionStatusSpawning && !s.Status.IsTerminal()
	case HookProcessEnded:
		return s.Status.IsTerminal()
	default:
		return s.Status == h.Target(s)
	}
}

// TimelineType returns the timeline entry recorded for the signal.
func (h HookSignal) TimelineType() TimelineEventType {
	switch h {
	case HookProcessStarted:
		return TimelineSessionStarted
	case HookInputSubmitted:
		return TimelineSessionResumed
	case HookAwaitingInput:
		return TimelineSessionPaused
	default:
		return TimelineSessionEnded
	}
}
