package shared

import (
	"context"
	"fmt"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
)

// Reporter writes a session's reported status onto a task and announces the
// task. It never touches the authoritative TaskStatus.
type Reporter struct {
	tasks domain.TaskRepository
	clock domain.Clock
	bus   *event.Bus
}

// NewReporter creates a Reporter.
func NewReporter(tasks domain.TaskRepository, bus *event.Bus, clock domain.Clock) *Reporter {
	return &Reporter{tasks: tasks, bus: bus, clock: clock}
}

// Sync records "to" as sessionID's report on taskID on behalf of the queue.
// Paused reports may pass through working, and a queued report replaces a
// finished one so a task can be handed to the same session again.
func (r *Reporter) Sync(ctx context.Context, taskID, sessionID string, to domain.TaskSessionStatus) (*domain.Task, error) {
	now := r.clock.Now()
	task, err := r.tasks.Update(taskID, func(t *domain.Task) error {
		if to == domain.TaskSessionStatusQueued && t.ReportedStatus(sessionID).IsTerminal() {
			t.ClearReport(sessionID)
		}
		return t.Report(sessionID, to, true, now)
	})
	if err != nil {
		return nil, fmt.Errorf("sync task report: %w", err)
	}
	event.Publish(ctx, r.bus, event.TaskUpdated, *task)
	return task, nil
}
