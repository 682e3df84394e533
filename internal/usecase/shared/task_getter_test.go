package shared

import (
	"testing"

	"github.com/runoshun/maestro/internal/domain"
	"github.com/runoshun/maestro/internal/infra/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingTaskRepo is a test double for domain.TaskRepository whose Get fails.
type failingTaskRepo struct {
	domain.TaskRepository
	getErr error
}

func (m *failingTaskRepo) Get(_ string) (*domain.Task, error) {
	return nil, m.getErr
}

func TestGetTask_Success(t *testing.T) {
	store := memstore.New()
	require.NoError(t, store.Tasks.Create(&domain.Task{ID: "task_1", Title: "Test task", Status: domain.TaskStatusTodo}))

	task, err := GetTask(store.Tasks, "task_1")

	require.NoError(t, err)
	assert.Equal(t, "task_1", task.ID)
	assert.Equal(t, "Test task", task.Title)
}

func TestGetTask_NotFound(t *testing.T) {
	store := memstore.New()

	task, err := GetTask(store.Tasks, "task_999")

	assert.Nil(t, task)
	require.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetTask_RepositoryError(t *testing.T) {
	repo := &failingTaskRepo{getErr: assert.AnError}

	task, err := GetTask(repo, "task_1")

	assert.Nil(t, task)
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "get task")
}

func TestGetters_NotFound(t *testing.T) {
	store := memstore.New()

	_, err := GetProject(store.Projects, "proj_1")
	require.ErrorIs(t, err, domain.ErrProjectNotFound)

	_, err = GetSession(store.Sessions, "sess_1")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = GetQueue(store.Queues, "sess_1")
	require.ErrorIs(t, err, domain.ErrQueueNotFound)
}
