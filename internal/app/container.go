// Package app provides the dependency injection container for the application.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
	"github.com/runoshun/maestro/internal/infra/idgen"
	"github.com/runoshun/maestro/internal/infra/jsonstore"
	"github.com/runoshun/maestro/internal/infra/launcher"
	"github.com/runoshun/maestro/internal/infra/logging"
	"github.com/runoshun/maestro/internal/infra/memstore"
	"github.com/runoshun/maestro/internal/infra/redisbridge"
	"github.com/runoshun/maestro/internal/usecase"
	"github.com/runoshun/maestro/internal/usecase/shared"
)

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for use cases.
type Container struct {
	// Ports (interfaces bound to implementations)
	Projects         domain.ProjectRepository
	Tasks            domain.TaskRepository
	Sessions         domain.SessionRepository
	Queues           domain.QueueRepository
	StoreInitializer domain.StoreInitializer
	Clock            domain.Clock
	IDs              domain.IDGenerator
	Logger           domain.Logger

	// Pointer fields
	Bus       *event.Bus
	Slog      *slog.Logger
	Linker    *shared.Linker
	QueueSync *shared.QueueSync
	Config    *domain.Config

	closers []io.Closer
}

// New creates a Container from the effective configuration. Log lines go to
// the configured log directory, or to stderr when none is set.
func New(cfg *domain.Config, stderr io.Writer) (*Container, error) {
	if cfg == nil {
		cfg = domain.NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	level := logging.ParseLevel(cfg.Log.Level)
	fileLogger := logging.New(cfg.Log.Dir, level, stderr)
	slogger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: level,
	}))

	c := &Container{
		Clock:   domain.RealClock{},
		IDs:     idgen.UUID{},
		Logger:  fileLogger,
		Slog:    slogger,
		Config:  cfg,
		closers: []io.Closer{fileLogger},
	}

	// Default is the in-memory store; "json" persists to a single file.
	if cfg.Store.Kind == domain.StoreKindJSON {
		store := jsonstore.New(cfg.Store.Path)
		c.Projects, c.Tasks, c.Sessions, c.Queues = store.Projects, store.Tasks, store.Sessions, store.Queues
		c.StoreInitializer = store
	} else {
		store := memstore.New()
		c.Projects, c.Tasks, c.Sessions, c.Queues = store.Projects, store.Tasks, store.Sessions, store.Queues
		c.StoreInitializer = store
	}
	if err := c.StoreInitializer.Initialize(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initialize store: %w", err)
	}

	c.wire()
	return c, nil
}

// NewWithDeps creates a new Container with custom dependencies for testing.
// The repositories come from an in-memory store.
func NewWithDeps(cfg *domain.Config, clock domain.Clock, ids domain.IDGenerator, logger domain.Logger) *Container {
	if cfg == nil {
		cfg = domain.NewDefaultConfig()
	}
	store := memstore.New()
	c := &Container{
		Projects:         store.Projects,
		Tasks:            store.Tasks,
		Sessions:         store.Sessions,
		Queues:           store.Queues,
		StoreInitializer: store,
		Clock:            clock,
		IDs:              ids,
		Logger:           logger,
		Slog:             slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:           cfg,
	}
	c.wire()
	return c
}

func (c *Container) wire() {
	c.Bus = event.NewBus(c.Logger)
	c.Linker = shared.NewLinker(c.Tasks, c.Sessions, c.Bus, c.Clock, c.IDs, c.Logger)
	reporter := shared.NewReporter(c.Tasks, c.Bus, c.Clock)
	c.QueueSync = shared.NewQueueSync(c.Queues, c.Sessions, reporter, c.Clock, c.IDs, c.Logger)
}

// Attach wires the optional event consumers enabled by the configuration:
// the Redis bridge and the built-in launcher. The returned func detaches
// them; Close releases their resources.
func (c *Container) Attach(ctx context.Context) (func(), error) {
	var detach []func()
	undo := func() {
		for i := len(detach) - 1; i >= 0; i-- {
			detach[i]()
		}
	}

	if c.Config.Redis.Enabled {
		bridge, err := c.RedisBridge()
		if err != nil {
			return nil, err
		}
		if err := bridge.Ping(ctx); err != nil {
			_ = bridge.Close()
			return nil, err
		}
		c.closers = append(c.closers, bridge)
		detach = append(detach, bridge.Attach(c.Bus))
		c.Slog.Info("redis bridge attached", "addr", c.Config.Redis.Addr, "channel", c.Config.Redis.Channel)
	}

	if c.Config.Launcher.Enabled {
		l := c.Launcher()
		c.closers = append(c.closers, l)
		detach = append(detach, l.Attach(c.Bus))
		c.Slog.Info("launcher attached", "command", c.Config.Spawn.Command)
	}

	return undo, nil
}

// RedisBridge returns a bridge configured from the [redis] section.
func (c *Container) RedisBridge() (*redisbridge.Bridge, error) {
	return redisbridge.New(redisbridge.Options(c.Config.Redis), c.Config.Redis.Channel, c.Clock, c.Logger)
}

// Launcher returns a process launcher that reports lifecycle signals through HandleHook.
func (c *Container) Launcher() *launcher.Launcher {
	hook := c.HandleHookUseCase()
	return launcher.New(func(ctx context.Context, sessionID string, signal domain.HookSignal, exitCode int) error {
		_, err := hook.Execute(ctx, usecase.HandleHookInput{SessionID: sessionID, Signal: signal, ExitCode: exitCode})
		return err
	}, c.Config.Log.Dir, c.Logger)
}

// Close releases the log files and attached consumers.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// UseCase factory methods

// CreateProjectUseCase returns a new CreateProject use case.
func (c *Container) CreateProjectUseCase() *usecase.CreateProject {
	return usecase.NewCreateProject(c.Projects, c.Bus, c.IDs, c.Clock)
}

// GetProjectUseCase returns a new GetProject use case.
func (c *Container) GetProjectUseCase() *usecase.GetProject {
	return usecase.NewGetProject(c.Projects)
}

// ListProjectsUseCase returns a new ListProjects use case.
func (c *Container) ListProjectsUseCase() *usecase.ListProjects {
	return usecase.NewListProjects(c.Projects)
}

// UpdateProjectUseCase returns a new UpdateProject use case.
func (c *Container) UpdateProjectUseCase() *usecase.UpdateProject {
	return usecase.NewUpdateProject(c.Projects, c.Bus, c.Clock)
}

// DeleteProjectUseCase returns a new DeleteProject use case.
func (c *Container) DeleteProjectUseCase() *usecase.DeleteProject {
	return usecase.NewDeleteProject(c.Projects, c.Tasks, c.Sessions, c.Bus)
}

// CreateTaskUseCase returns a new CreateTask use case.
func (c *Container) CreateTaskUseCase() *usecase.CreateTask {
	return usecase.NewCreateTask(c.Projects, c.Tasks, c.Bus, c.IDs, c.Clock, c.Logger)
}

// ImportTasksUseCase returns a new ImportTasks use case.
func (c *Container) ImportTasksUseCase() *usecase.ImportTasks {
	return usecase.NewImportTasks(c.Projects, c.Tasks, c.CreateTaskUseCase(), c.Logger)
}

// GetTaskUseCase returns a new GetTask use case.
func (c *Container) GetTaskUseCase() *usecase.GetTask {
	return usecase.NewGetTask(c.Tasks)
}

// ListTasksUseCase returns a new ListTasks use case.
func (c *Container) ListTasksUseCase() *usecase.ListTasks {
	return usecase.NewListTasks(c.Tasks, c.Sessions)
}

// UpdateTaskUseCase returns a new UpdateTask use case.
func (c *Container) UpdateTaskUseCase() *usecase.UpdateTask {
	return usecase.NewUpdateTask(c.Tasks, c.Sessions, c.Bus, c.Clock, c.Logger)
}

// ReopenTaskUseCase returns a new ReopenTask use case.
func (c *Container) ReopenTaskUseCase() *usecase.ReopenTask {
	return usecase.NewReopenTask(c.Tasks, c.Bus, c.Clock, c.Logger)
}

// DeleteTaskUseCase returns a new DeleteTask use case.
func (c *Container) DeleteTaskUseCase() *usecase.DeleteTask {
	return usecase.NewDeleteTask(c.Tasks, c.Linker, c.QueueSync, c.Bus, c.Clock, c.Logger)
}

// AddTaskSessionUseCase returns a new AddTaskSession use case.
func (c *Container) AddTaskSessionUseCase() *usecase.AddTaskSession {
	return usecase.NewAddTaskSession(c.Linker)
}

// RemoveTaskSessionUseCase returns a new RemoveTaskSession use case.
func (c *Container) RemoveTaskSessionUseCase() *usecase.RemoveTaskSession {
	return usecase.NewRemoveTaskSession(c.Linker, c.QueueSync)
}

// CreateSessionUseCase returns a new CreateSession use case.
func (c *Container) CreateSessionUseCase() *usecase.CreateSession {
	return usecase.NewCreateSession(c.Projects, c.Tasks, c.Queues, c.Linker, c.Bus, c.IDs, c.Clock, c.Logger)
}

// GetSessionUseCase returns a new GetSession use case.
func (c *Container) GetSessionUseCase() *usecase.GetSession {
	return usecase.NewGetSession(c.Sessions)
}

// ListSessionsUseCase returns a new ListSessions use case.
func (c *Container) ListSessionsUseCase() *usecase.ListSessions {
	return usecase.NewListSessions(c.Sessions)
}

// UpdateSessionUseCase returns a new UpdateSession use case.
func (c *Container) UpdateSessionUseCase() *usecase.UpdateSession {
	return usecase.NewUpdateSession(c.Sessions, c.QueueSync, c.Bus, c.IDs, c.Clock, c.Logger)
}

// DeleteSessionUseCase returns a new DeleteSession use case.
func (c *Container) DeleteSessionUseCase() *usecase.DeleteSession {
	return usecase.NewDeleteSession(c.Sessions, c.Linker, c.QueueSync, c.Bus, c.Logger)
}

// AppendTimelineEventUseCase returns a new AppendTimelineEvent use case.
func (c *Container) AppendTimelineEventUseCase() *usecase.AppendTimelineEvent {
	return usecase.NewAppendTimelineEvent(c.Sessions, c.Bus, c.IDs, c.Clock)
}

// HandleHookUseCase returns a new HandleHook use case.
func (c *Container) HandleHookUseCase() *usecase.HandleHook {
	return usecase.NewHandleHook(c.Sessions, c.QueueSync, c.Bus, c.IDs, c.Clock, c.Logger)
}

// SpawnSessionUseCase returns a new SpawnSession use case.
func (c *Container) SpawnSessionUseCase() *usecase.SpawnSession {
	return usecase.NewSpawnSession(c.Projects, c.CreateSessionUseCase(), c.Bus, c.Config.Spawn, c.Config.Server.PublicURL, c.Logger)
}

// GetQueueUseCase returns a new GetQueue use case.
func (c *Container) GetQueueUseCase() *usecase.GetQueue {
	return usecase.NewGetQueue(c.Queues)
}

// PeekQueueUseCase returns a new PeekQueue use case.
func (c *Container) PeekQueueUseCase() *usecase.PeekQueue {
	return usecase.NewPeekQueue(c.Queues, c.Tasks)
}

// ClaimQueueItemUseCase returns a new ClaimQueueItem use case.
func (c *Container) ClaimQueueItemUseCase() *usecase.ClaimQueueItem {
	return usecase.NewClaimQueueItem(c.Queues, c.Sessions, c.Tasks, c.QueueSync, c.Bus, c.Clock, c.Logger)
}

// CompleteQueueItemUseCase returns a new CompleteQueueItem use case.
func (c *Container) CompleteQueueItemUseCase() *usecase.CompleteQueueItem {
	return usecase.NewCompleteQueueItem(c.Queues, c.Sessions, c.QueueSync, c.Bus, c.Clock, c.Logger)
}

// FailQueueItemUseCase returns a new FailQueueItem use case.
func (c *Container) FailQueueItemUseCase() *usecase.FailQueueItem {
	return usecase.NewFailQueueItem(c.Queues, c.Sessions, c.QueueSync, c.Bus, c.Clock, c.Logger)
}

// SkipQueueItemUseCase returns a new SkipQueueItem use case.
func (c *Container) SkipQueueItemUseCase() *usecase.SkipQueueItem {
	return usecase.NewSkipQueueItem(c.Queues, c.Sessions, c.QueueSync, c.Bus, c.Clock, c.Logger)
}

// PushQueueItemUseCase returns a new PushQueueItem use case.
func (c *Container) PushQueueItemUseCase() *usecase.PushQueueItem {
	return usecase.NewPushQueueItem(c.Queues, c.Sessions, c.Linker, c.QueueSync, c.Bus, c.Clock, c.Logger)
}
