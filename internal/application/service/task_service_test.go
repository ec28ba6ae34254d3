package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/media-collect/internal/application/query"
	"github.com/garyjia/media-collect/internal/domain/entity"
	"github.com/garyjia/media-collect/internal/domain/event"
	"github.com/garyjia/media-collect/internal/infrastructure/cache"
)

func existingTask() *entity.Task {
	return &entity.Task{ID: "task-1", Title: "Street Sign Collection", Description: "Photos", MediaType: entity.MediaTypeImage, IsActive: true}
}

func TestTaskService_CreateTask(t *testing.T) {
	t.Run("trims and stores", func(t *testing.T) {
		var created *entity.Task
		tasks := &mockTaskRepo{createFunc: func(ctx context.Context, task *entity.Task) error {
			created = task
			return nil
		}}
		events := &mockPublisher{}
		svc := NewTaskService(tasks, &mockCollectorRepo{}, &mockSubmissionRepo{}, &mockTxManager{}, nil, events, &mockLogger{})

		got, err := svc.CreateTask(context.Background(), "user-1", CreateTaskInput{
			Title: "  Traffic Flow Video ", Description: " Record intersections ", MediaType: entity.MediaTypeVideo,
		})
		require.NoError(t, err)
		assert.Same(t, created, got)
		assert.Equal(t, "Traffic Flow Video", got.Title)
		assert.Equal(t, "Record intersections", got.Description)
		assert.Equal(t, "user-1", got.CreatedByID)
		assert.True(t, got.IsActive)
		assert.Equal(t, []event.Type{event.TypeTaskCreated}, events.Types())
	})

	t.Run("rejects blank fields and unknown media type", func(t *testing.T) {
		svc := NewTaskService(&mockTaskRepo{}, &mockCollectorRepo{}, &mockSubmissionRepo{}, &mockTxManager{}, nil, &mockPublisher{}, &mockLogger{})

		_, err := svc.CreateTask(context.Background(), "user-1", CreateTaskInput{Title: " ", Description: "", MediaType: "PDF"})
		require.ErrorIs(t, err, ErrValidation)
		assert.Len(t, FieldsOf(err), 3)
	})
}

func TestTaskService_UpdateTask(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		update    entity.TaskUpdate
		wantErr   error
		wantTitle string
		wantEvent bool
	}{
		{
			name:      "rename",
			id:        "task-1",
			update:    entity.TaskUpdate{Title: strPtr(" Renamed ")},
			wantTitle: "Renamed",
			wantEvent: true,
		},
		{
			name:    "blank title",
			id:      "task-1",
			update:  entity.TaskUpdate{Title: strPtr("  ")},
			wantErr: ErrValidation,
		},
		{
			name:    "missing task",
			id:      "task-404",
			update:  entity.TaskUpdate{Title: strPtr("x")},
			wantErr: ErrNotFound,
		},
		{
			name:      "empty update is a no-op",
			id:        "task-1",
			wantTitle: "Street Sign Collection",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated := false
			tasks := &mockTaskRepo{
				getByIDFunc: func(ctx context.Context, id string) (*entity.Task, error) {
					if id == "task-1" {
						return existingTask(), nil
					}
					return nil, nil
				},
				updateFunc: func(ctx context.Context, task *entity.Task) error {
					updated = true
					return nil
				},
			}
			events := &mockPublisher{}
			svc := NewTaskService(tasks, &mockCollectorRepo{}, &mockSubmissionRepo{}, &mockTxManager{}, nil, events, &mockLogger{})

			got, err := svc.UpdateTask(context.Background(), "user-1", tt.id, tt.update)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, updated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, got.Title)
			assert.Equal(t, tt.wantEvent, updated)
			assert.Equal(t, tt.wantEvent, len(events.Types()) == 1)
		})
	}
}

func TestTaskService_Deactivate(t *testing.T) {
	var saved *entity.Task
	tasks := &mockTaskRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.Task, error) { return existingTask(), nil },
		updateFunc: func(ctx context.Context, task *entity.Task) error {
			saved = task
			return nil
		},
	}
	svc := NewTaskService(tasks, &mockCollectorRepo{}, &mockSubmissionRepo{}, &mockTxManager{}, nil, &mockPublisher{}, &mockLogger{})

	inactive := false
	_, err := svc.UpdateTask(context.Background(), "user-1", "task-1", entity.TaskUpdate{IsActive: &inactive})
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.False(t, saved.IsActive)
}

func TestTaskService_GetTask(t *testing.T) {
	tasks := &mockTaskRepo{getByIDFunc: func(ctx context.Context, id string) (*entity.Task, error) {
		if id == "task-1" {
			return existingTask(), nil
		}
		return nil, nil
	}}
	collectors := &mockCollectorRepo{listByTaskFunc: func(ctx context.Context, taskID string) ([]*entity.Collector, error) {
		return []*entity.Collector{{ID: "cl-001"}}, nil
	}}
	subs := &mockSubmissionRepo{listFunc: func(ctx context.Context, filter entity.SubmissionFilter) ([]*entity.Submission, error) {
		assert.Equal(t, "task-1", filter.TaskID)
		return []*entity.Submission{{ID: "sub-1"}}, nil
	}}
	svc := NewTaskService(tasks, collectors, subs, &mockTxManager{}, nil, &mockPublisher{}, &mockLogger{})

	found, err := svc.GetTask(context.Background(), "task-1")
	require.NoError(t, err)
	require.True(t, found.Found)
	assert.Len(t, found.Value.Collectors, 1)
	assert.Len(t, found.Value.Submissions, 1)

	missing, err := svc.GetTask(context.Background(), "task-404")
	require.NoError(t, err)
	assert.False(t, missing.Found)
	placeholder := missing.OrElse(entity.PlaceholderTask("task-404"))
	assert.Equal(t, entity.UnknownTaskTitle, placeholder.Title)
}

func TestTaskService_Assign(t *testing.T) {
	knownCollectors := func(ctx context.Context, ids []string) (map[string]*entity.Collector, error) {
		out := map[string]*entity.Collector{}
		for _, id := range ids {
			if id == "cl-001" || id == "cl-002" {
				out[id] = &entity.Collector{ID: id}
			}
		}
		return out, nil
	}
	taskLookup := func(ctx context.Context, id string) (*entity.Task, error) {
		if id == "task-1" {
			return existingTask(), nil
		}
		return nil, nil
	}

	tests := []struct {
		name      string
		taskID    string
		ids       []string
		existing  int
		wantErr   error
		wantField string
		wantIDs   []string
		wantAdded int
	}{
		{
			name:      "assigns normalized ids",
			taskID:    "task-1",
			ids:       []string{" cl-001", "cl-002", "cl-001", ""},
			wantIDs:   []string{"cl-001", "cl-002"},
			wantAdded: 2,
		},
		{
			name:      "union keeps existing links",
			taskID:    "task-1",
			ids:       []string{"cl-001", "cl-002"},
			existing:  1,
			wantIDs:   []string{"cl-001", "cl-002"},
			wantAdded: 1,
		},
		{
			name:      "empty selection",
			taskID:    "task-1",
			ids:       []string{" ", ""},
			wantErr:   ErrValidation,
			wantField: "collectorIds",
		},
		{
			name:    "missing task",
			taskID:  "task-404",
			ids:     []string{"cl-001"},
			wantErr: ErrNotFound,
		},
		{
			name:      "unknown collectors",
			taskID:    "task-1",
			ids:       []string{"cl-009", "cl-001", "cl-005"},
			wantErr:   ErrValidation,
			wantField: "collectorIds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assigned := false
			tasks := &mockTaskRepo{
				getByIDFunc: taskLookup,
				assignFunc: func(ctx context.Context, taskID string, ids []string) (int, error) {
					assigned = true
					return len(ids) - tt.existing, nil
				},
			}
			events := &mockPublisher{}
			svc := NewTaskService(tasks, &mockCollectorRepo{getByIDsFunc: knownCollectors}, &mockSubmissionRepo{}, &mockTxManager{}, nil, events, &mockLogger{})

			got, err := svc.Assign(context.Background(), "user-1", tt.taskID, tt.ids)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.wantField != "" {
					assert.Contains(t, FieldsOf(err), tt.wantField)
				}
				assert.False(t, assigned, "nothing written")
				assert.Empty(t, events.Types(), "nothing dispatched")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "task-1", got.TaskID)
			assert.Equal(t, tt.wantIDs, got.Assigned)
			assert.Equal(t, tt.wantAdded, got.Added)

			require.Equal(t, []event.Type{event.TypeTaskAssigned}, events.Types())
			assert.Equal(t, int64(tt.wantAdded), events.events[0].GetPayloadInt(event.KeyAdded))
		})
	}
}

func TestTaskService_AssignUnknownCollectorMessage(t *testing.T) {
	tasks := &mockTaskRepo{getByIDFunc: func(ctx context.Context, id string) (*entity.Task, error) { return existingTask(), nil }}
	svc := NewTaskService(tasks, &mockCollectorRepo{}, &mockSubmissionRepo{}, &mockTxManager{}, nil, &mockPublisher{}, &mockLogger{})

	_, err := svc.Assign(context.Background(), "user-1", "task-1", []string{"cl-9", "cl-1"})
	require.Error(t, err)
	assert.Equal(t, "unknown collectors: cl-1, cl-9", FieldsOf(err)["collectorIds"])
}

func TestTaskService_AssignTransactionFailure(t *testing.T) {
	tasks := &mockTaskRepo{getByIDFunc: func(ctx context.Context, id string) (*entity.Task, error) { return existingTask(), nil }}
	collectors := &mockCollectorRepo{getByIDsFunc: func(ctx context.Context, ids []string) (map[string]*entity.Collector, error) {
		return map[string]*entity.Collector{"cl-001": {ID: "cl-001"}}, nil
	}}
	tx := &mockTxManager{withTransactionFunc: func(ctx context.Context, fn func(ctx context.Context) error) error {
		return errors.New("database is locked")
	}}
	events := &mockPublisher{}
	svc := NewTaskService(tasks, collectors, &mockSubmissionRepo{}, tx, nil, events, &mockLogger{})

	_, err := svc.Assign(context.Background(), "user-1", "task-1", []string{"cl-001"})
	require.Error(t, err)
	assert.Empty(t, events.Types())
}

func TestTaskService_ListTasksUsesCache(t *testing.T) {
	calls := 0
	tasks := &mockTaskRepo{listFunc: func(ctx context.Context) ([]*entity.Task, error) {
		calls++
		return []*entity.Task{existingTask()}, nil
	}}
	loader := query.NewLoader(cache.NewMemoryCache(), time.Minute, &mockLogger{})
	svc := NewTaskService(tasks, &mockCollectorRepo{}, &mockSubmissionRepo{}, &mockTxManager{}, loader, &mockPublisher{}, &mockLogger{})

	for i := 0; i < 3; i++ {
		got, err := svc.ListTasks(context.Background())
		require.NoError(t, err)
		require.Len(t, got, 1)
	}
	assert.Equal(t, 1, calls)

	loader.Invalidate(context.Background(), query.KeyTasks)
	_, err := svc.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
