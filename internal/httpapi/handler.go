package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/runoshun/maestro/internal/app"
	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/usecase"
)

type handler struct {
	c      *app.Container
	logger *slog.Logger
}

// NewHandler returns the API routes backed by the container's use cases.
//
// Routes:
//   - /api/projects[/{id}], /api/projects/{id}/import
//   - /api/tasks[/{id}], /api/tasks/{id}/reopen, /api/tasks/{id}/sessions/{sessionId}
//   - /api/sessions[/{id}], /api/sessions/spawn, /api/sessions/{id}/timeline,
//     /api/sessions/{id}/hooks/{signal}, /api/sessions/{id}/tasks/{taskId}
//   - /api/sessions/{id}/queue[/peek|/claim|/complete|/fail|/skip|/push]
func NewHandler(c *app.Container) http.Handler {
	h := &handler{c: c, logger: c.Slog}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /api/projects", h.createProject)
	mux.HandleFunc("GET /api/projects", h.listProjects)
	mux.HandleFunc("GET /api/projects/{id}", h.getProject)
	mux.HandleFunc("PATCH /api/projects/{id}", h.updateProject)
	mux.HandleFunc("DELETE /api/projects/{id}", h.deleteProject)
	mux.HandleFunc("POST /api/projects/{id}/import", h.importTasks)

	mux.HandleFunc("POST /api/tasks", h.createTask)
	mux.HandleFunc("GET /api/tasks", h.listTasks)
	mux.HandleFunc("GET /api/tasks/{id}", h.getTask)
	mux.HandleFunc("PATCH /api/tasks/{id}", h.updateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", h.deleteTask)
	mux.HandleFunc("POST /api/tasks/{id}/reopen", h.reopenTask)
	mux.HandleFunc("POST /api/tasks/{id}/sessions/{sessionId}", h.link("id", "sessionId", true))
	mux.HandleFunc("DELETE /api/tasks/{id}/sessions/{sessionId}", h.link("id", "sessionId", false))

	mux.HandleFunc("POST /api/sessions", h.createSession)
	mux.HandleFunc("POST /api/sessions/spawn", h.spawnSession)
	mux.HandleFunc("GET /api/sessions", h.listSessions)
	mux.HandleFunc("GET /api/sessions/{id}", h.getSession)
	mux.HandleFunc("PATCH /api/sessions/{id}", h.updateSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.deleteSession)
	mux.HandleFunc("POST /api/sessions/{id}/timeline", h.appendTimeline)
	mux.HandleFunc("POST /api/sessions/{id}/hooks/{signal}", h.hook)
	mux.HandleFunc("POST /api/sessions/{id}/tasks/{taskId}", h.link("taskId", "id", true))
	mux.HandleFunc("DELETE /api/sessions/{id}/tasks/{taskId}", h.link("taskId", "id", false))

	mux.HandleFunc("GET /api/sessions/{id}/queue", h.getQueue)
	mux.HandleFunc("GET /api/sessions/{id}/queue/peek", h.peekQueue)
	mux.HandleFunc("POST /api/sessions/{id}/queue/claim", h.claim)
	mux.HandleFunc("POST /api/sessions/{id}/queue/complete", h.finish(domain.QueueItemCompleted))
	mux.HandleFunc("POST /api/sessions/{id}/queue/fail", h.finish(domain.QueueItemFailed))
	mux.HandleFunc("POST /api/sessions/{id}/queue/skip", h.finish(domain.QueueItemSkipped))
	mux.HandleFunc("POST /api/sessions/{id}/queue/push", h.push)

	return mux
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return domain.NewValidationError("body", err.Error())
	}
	return nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, domain.NewValidationError(name, fmt.Sprintf("not a boolean: %q", v))
	}
	return b, nil
}

// Projects

func (h *handler) createProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.c.CreateProjectUseCase().Execute(r.Context(), usecase.CreateProjectInput{
		Name:        req.Name,
		WorkingDir:  req.WorkingDir,
		Description: req.Description,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out.Project)
}

func (h *handler) listProjects(w http.ResponseWriter, r *http.Request) {
	out, err := h.c.ListProjectsUseCase().Execute(r.Context(), usecase.ListProjectsInput{})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProjectListResponse{Projects: nonNil(out.Projects)})
}

func (h *handler) getProject(w http.ResponseWriter, r *http.Request) {
	out, err := h.c.GetProjectUseCase().Execute(r.Context(), usecase.GetProjectInput{ProjectID: r.PathValue("id")})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out.Project)
}

func (h *handler) updateProject(w http.ResponseWriter, r *http.Request) {
	var req UpdateProjectRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.c.UpdateProjectUseCase().Execute(r.Context(), usecase.UpdateProjectInput{
		ProjectID:   r.PathValue("id"),
		Name:        req.Name,
		WorkingDir:  req.WorkingDir,
		Description: req.Description,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out.Project)
}

func (h *handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	if _, err := h.c.DeleteProjectUseCase().Execute(r.Context(), usecase.DeleteProjectInput{ProjectID: r.PathValue("id")}); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Tasks

func (h *handler) createTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.c.CreateTaskUseCase().Execute(r.Context(), usecase.CreateTaskInput{
		ParentID:     req.ParentID,
		ProjectID:    req.ProjectID,
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		Dependencies: req.Dependencies,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out.Task)
}

func (h *handler) importTasks(w http.ResponseWriter, r *http.Request) {
	var req ImportTasksRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.c.ImportTasksUseCase().Execute(r.Context(), usecase.ImportTasksInput{
		ProjectID: r.PathValue("id"),
		Content:   req.Content,
		DryRun:    req.DryRun,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	if req.DryRun {
		status = http.StatusOK
	}
	writeJSON(w, status, ImportTasksResponse{Drafts: out.Drafts, Tasks: out.Tasks})
}

func (h *handler) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := usecase.ListTasksInput{
		ProjectID: q.Get("projectId"),
		Status:    domain.TaskStatus(q.Get("status")),
		SessionID: q.Get("sessionId"),
	}
	if q.Has("parentId") {
		parent := q.Get("parentId")
		in.ParentID = &parent
	}
	var err error
	if in.RootOnly, err = queryBool(r, "rootOnly"); err != nil {
		h.writeError(w, r, err)
		return
	}
	if in.ExcludeTerminal, err = queryBool(r, "activeOnly"); err != nil {
		h.writeError(w, r, err)
		return
	}
	if in.IncludeSessions, err = queryBool(r, "includeSessions"); err != nil {
		h.writeError(w, r, err)
		return
	}

	out, err := h.c.ListTasksUseCase().Execute(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := TaskListResponse{Tasks: nonNil(out.Tasks)}
	if in.IncludeSessions {
		resp.Tasks = make([]*domain.Task, 0, len(out.TasksWithInfo))
		for _, info := range out.TasksWithInfo {
			resp.Tasks = append(resp.Tasks, info.Task)
			resp.TasksWithSessions = append(resp.TasksWithSessions, TaskWithSessions{Task: info.Task, Sessions: nonNil(info.Sessions)})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) getTask(w http.ResponseWriter, r *http.Request) {
	out, err := h.c.GetTaskUseCase().Execute(r.Context(), usecase.GetTaskInput{TaskID: r.PathValue("id")})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out.Task)
}

func (h *handler) updateTask(w http.ResponseWriter, r *http.Request) {
	var req UpdateTaskRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.c.UpdateTaskUseCase().Execute(r.Context(), usecase.UpdateTaskInput{
		TaskID:        r.PathValue("id"),
		Title:         req.Title,
		Description:   req.Description,
		Status:        req.Status,
		Priority:      req.Priority,
		ParentID:      req.ParentID,
		ClearParent:   req.ClearParent,
		SessionStatus: req.SessionStatus,
		Dependencies:  req.Dependencies,
		SessionID:     req.SessionID,
		Origin:        req.Origin,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UpdateTaskResponse{Task: out.Task, Dropped: out.Dropped})
}

func (h *handler) reopenTask(w http.ResponseWriter, r *http.Request) {
	var req ReopenTaskRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.c.ReopenTaskUseCase().Execute(r.Context(), usecase.ReopenTaskInput{TaskID: r.PathValue("id"), Status: req.Status})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out.Task)
}

func (h *handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	out, err := h.c.DeleteTaskUseCase().Execute(r.Context(), usecase.DeleteTaskInput{
		TaskID: r.PathValue("id"),
		Policy: domain.ChildPolicy(r.URL.Query().Get("children")),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteTaskResponse{Deleted: out.Deleted, Detached: out.Detached})
}

// link handles both directions of the task/session association. taskKey and
// sessionKey name the path wildcards holding the two ids.
func (h *handler) link(taskKey, sessionKey string, add bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := usecase.TaskSessionInput{TaskID: r.PathValue(taskKey), SessionID: r.PathValue(sessionKey)}
		var out *usecase.TaskSessionOutput
		var err error
		if add {
			out, err = h.c.AddTaskSessionUseCase().Execute(r.Context(), in)
		} else {
			out, err = h.c.RemoveTaskSessionUseCase().Execute(r.Context(), in)
		}
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, LinkResponse{Task: out.Task, Session: out.Session, Changed: out.Changed})
	}
}

// Sessions

func (h *handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.c.CreateSessionUseCase().Execute(r.Context(), usecase.CreateSessionInput{
		Metadata:  req.Metadata,
		ProjectID: req.ProjectID,
		Name:      req.Name,
		Role:      req.Role,
		Strategy:  req.Strategy,
		Status:    req.Status,
		TaskIDs:   req.TaskIDs,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, SessionResponse{Session: out.Session, Queue: out.Queue})
}

func (h *handler) spawnSession(w http.ResponseWriter, r *http.Request) {
	var req SpawnSessionRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.c.SpawnSessionUseCase().Execute(r.Context(), usecase.SpawnSessionInput{
		Metadata:  req.Metadata,
		ProjectID: req.ProjectID,
		Name:      req.Name,
		Role:      req.Role,
		Strategy:  req.Strategy,
		Source:    req.SpawnSource,
		TaskIDs:   req.TaskIDs,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, SpawnSessionResponse{
		Session: out.Session,
		Queue:   out.Queue,
		Command: out.Launch.Command,
		Args:    out.Launch.Args,
		Cwd:     out.Launch.Cwd,
		EnvVars: out.Launch.EnvVars,
	})
}

func (h *handler) listSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	active, err := queryBool(r, "active")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.c.ListSessionsUseCase().Execute(r.Context(), usecase.ListSessionsInput{
		ProjectID: q.Get("projectId"),
		TaskID:    q.Get("taskId"),
		Status:    domain.SessionStatus(q.Get("status")),
		Role:      domain.Role(q.Get("role")),
		Active:    active,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionListResponse{Sessions: nonNil(out.Sessions)})
}

func (h *handler) getSession(w http.ResponseWriter, r *http.Request) {
	out, err := h.c.GetSessionUseCase().Execute(r.Context(), usecase.GetSessionInput{SessionID: r.PathValue("id")})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out.Session)
}

func (h *handler) updateSession(w http.ResponseWriter, r *http.Request) {
	var req UpdateSessionRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.c.UpdateSessionUseCase().Execute(r.Context(), usecase.UpdateSessionInput{
		SessionID: r.PathValue("id"),
		Status:    req.Status,
		Name:      req.Name,
		Metadata:  req.Metadata,
		Reason:    req.Reason,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UpdateSessionResponse{Session: out.Session, StatusChanged: out.StatusChanged})
}

func (h *handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	out, err := h.c.DeleteSessionUseCase().Execute(r.Context(), usecase.DeleteSessionInput{SessionID: r.PathValue("id")})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteSessionResponse{DetachedTaskIDs: nonNil(out.DetachedTaskIDs), Reason: out.Reason})
}

func (h *handler) appendTimeline(w http.ResponseWriter, r *http.Request) {
	var req TimelineRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.c.AppendTimelineEventUseCase().Execute(r.Context(), usecase.AppendTimelineEventInput{
		SessionID: r.PathValue("id"),
		Type:      req.Type,
		Message:   req.Message,
		TaskID:    req.TaskID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, TimelineResponse{Event: out.Event})
}

func (h *handler) hook(w http.ResponseWriter, r *http.Request) {
	var req HookRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.c.HandleHookUseCase().Execute(r.Context(), usecase.HandleHookInput{
		SessionID: r.PathValue("id"),
		Signal:    domain.HookSignal(r.PathValue("signal")),
		ExitCode:  req.ExitCode,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HookResponse{Session: out.Session, Ignored: out.Ignored})
}

// Queue

func (h *handler) getQueue(w http.ResponseWriter, r *http.Request) {
	out, err := h.c.GetQueueUseCase().Execute(r.Context(), usecase.GetQueueInput{SessionID: r.PathValue("id")})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, QueueResponse{Queue: out.Queue, Counts: out.Counts})
}

func (h *handler) peekQueue(w http.ResponseWriter, r *http.Request) {
	out, err := h.c.PeekQueueUseCase().Execute(r.Context(), usecase.PeekQueueInput{SessionID: r.PathValue("id")})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PeekResponse{Item: out.Item, Task: out.Task, Processing: out.Processing})
}

func (h *handler) claim(w http.ResponseWriter, r *http.Request) {
	out, err := h.c.ClaimQueueItemUseCase().Execute(r.Context(), usecase.ClaimQueueItemInput{SessionID: r.PathValue("id")})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ClaimResponse{Item: out.Item, Task: out.Task, Session: out.Session, Empty: out.Empty})
}

func (h *handler) finish(to domain.QueueItemStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FinishRequest
		if err := decode(r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
		in := usecase.FinishQueueItemInput{SessionID: r.PathValue("id"), Reason: req.Reason}
		var out *usecase.FinishQueueItemOutput
		var err error
		switch to {
		case domain.QueueItemCompleted:
			out, err = h.c.CompleteQueueItemUseCase().Execute(r.Context(), in)
		case domain.QueueItemFailed:
			out, err = h.c.FailQueueItemUseCase().Execute(r.Context(), in)
		default:
			out, err = h.c.SkipQueueItemUseCase().Execute(r.Context(), in)
		}
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, FinishResponse{Item: out.Item, Session: out.Session, Unsynced: out.Unsynced})
	}
}

func (h *handler) push(w http.ResponseWriter, r *http.Request) {
	var req PushRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.c.PushQueueItemUseCase().Execute(r.Context(), usecase.PushQueueItemInput{
		SessionID: r.PathValue("id"),
		TaskID:    req.TaskID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, PushResponse{Item: out.Item, Queue: out.Queue})
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
