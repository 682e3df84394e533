package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/event"
	"github.com/runoshun/maestro/internal/usecase/shared"
)

// SpawnSessionInput contains the parameters for spawning a session.
// Fields are ordered to minimize memory padding.
type SpawnSessionInput struct {
	Metadata  map[string]string
	ProjectID string
	Name      string
	Role      domain.Role        // Defaults to worker
	Strategy  domain.Strategy    // Defaults to simple
	Source    domain.SpawnSource // Defaults to ui
	TaskIDs   []string           // Required for workers
}

// SpawnSessionOutput contains the created session and its launch contract.
type SpawnSessionOutput struct {
	Session *domain.Session
	Queue   *domain.QueueState
	Launch  domain.LaunchSpec
}

// SpawnSession is the use case for creating a session together with the
// command, working directory and environment a launcher needs to start its
// process. Exactly one session:spawn event is published and no
// session:created.
// Fields are ordered to minimize memory padding.
type SpawnSession struct {
	projects domain.ProjectRepository
	logger   domain.Logger
	create   *CreateSession
	bus      *event.Bus
	apiURL   string
	spawn    domain.SpawnConfig
}

// NewSpawnSession creates a new SpawnSession use case.
func NewSpawnSession(
	projects domain.ProjectRepository,
	create *CreateSession,
	bus *event.Bus,
	spawn domain.SpawnConfig,
	apiURL string,
	logger domain.Logger,
) *SpawnSession {
	return &SpawnSession{
		projects: projects,
		create:   create,
		bus:      bus,
		spawn:    spawn,
		apiURL:   apiURL,
		logger:   logger,
	}
}

// Execute creates the session and publishes session:spawn.
func (uc *SpawnSession) Execute(ctx context.Context, in SpawnSessionInput) (*SpawnSessionOutput, error) {
	source := in.Source
	if source == "" {
		source = domain.SpawnSourceUser
	}
	if !source.IsValid() {
		return nil, domain.NewValidationError("spawnSource", fmt.Sprintf("unknown spawn source %q", source))
	}
	if in.Role != domain.RoleOrchestrator && len(dedupe(in.TaskIDs)) == 0 {
		return nil, domain.NewValidationError("taskIds", "a worker needs at least one task")
	}

	project, err := shared.GetProject(uc.projects, in.ProjectID)
	if err != nil {
		return nil, err
	}

	created, err := uc.create.create(CreateSessionInput{
		ProjectID: in.ProjectID,
		Name:      in.Name,
		Role:      in.Role,
		Strategy:  in.Strategy,
		Status:    domain.SessionStatusSpawning,
		TaskIDs:   in.TaskIDs,
		Metadata:  in.Metadata,
	})
	if err != nil {
		return nil, err
	}

	launch := domain.NewLaunchSpec(created.Session, project, uc.spawn, uc.apiURL, source)
	if uc.logger != nil {
		uc.logger.Info(created.Session.ID, "session", fmt.Sprintf("spawn requested by %s: %s in %s", source, launch.Command, launch.Cwd))
	}

	event.Publish(ctx, uc.bus, event.SessionSpawn, domain.SpawnPayload{
		Session:     *created.Session,
		Command:     launch.Command,
		Args:        launch.Args,
		Cwd:         launch.Cwd,
		EnvVars:     launch.EnvVars,
		SpawnSource: source,
	})
	publishLinkedTasks(ctx, uc.bus, created.tasks)
	return &SpawnSessionOutput{Session: created.Session, Queue: created.Queue, Launch: launch}, nil
}
