package event

import "github.com/runoshun/maestro/internal/domain"

// The closed catalog of events published by the core. Topic values can only
// be declared here, so publishing or subscribing to an unknown name does not
// compile.
var (
	ProjectCreated = Topic[domain.Project]{name: "project:created"}
	ProjectUpdated = Topic[domain.Project]{name: "project:updated"}
	ProjectDeleted = Topic[domain.DeletedPayload]{name: "project:deleted"}

	TaskCreated        = Topic[domain.Task]{name: "task:created"}
	TaskUpdated        = Topic[domain.Task]{name: "task:updated"}
	TaskDeleted        = Topic[domain.DeletedPayload]{name: "task:deleted"}
	TaskSessionAdded   = Topic[domain.TaskSessionPayload]{name: "task:session_added"}
	TaskSessionRemoved = Topic[domain.TaskSessionPayload]{name: "task:session_removed"}

	SessionCreated     = Topic[domain.Session]{name: "session:created"}
	SessionSpawn       = Topic[domain.SpawnPayload]{name: "session:spawn"}
	SessionUpdated     = Topic[domain.Session]{name: "session:updated"}
	SessionDeleted     = Topic[domain.DeletedPayload]{name: "session:deleted"}
	SessionTaskAdded   = Topic[domain.SessionTaskPayload]{name: "session:task_added"}
	SessionTaskRemoved = Topic[domain.SessionTaskPayload]{name: "session:task_removed"}
)

// Names returns every event name in the catalog.
func Names() []Name {
	return []Name{
		ProjectCreated.name, ProjectUpdated.name, ProjectDeleted.name,
		TaskCreated.name, TaskUpdated.name, TaskDeleted.name,
		TaskSessionAdded.name, TaskSessionRemoved.name,
		SessionCreated.name, SessionSpawn.name, SessionUpdated.name, SessionDeleted.name,
		SessionTaskAdded.name, SessionTaskRemoved.name,
	}
}
