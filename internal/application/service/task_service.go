package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/media-collect/internal/application/port"
	"github.com/garyjia/media-collect/internal/application/query"
	"github.com/garyjia/media-collect/internal/domain/entity"
	"github.com/garyjia/media-collect/internal/domain/event"
	"github.com/garyjia/media-collect/pkg/utils"
)

// CreateTaskInput is a new task definition
type CreateTaskInput struct {
	Title       string
	Description string
	MediaType   entity.MediaType
}

// TaskService manages tasks and their collector assignments
type TaskService interface {
	CreateTask(ctx context.Context, actorID string, in CreateTaskInput) (*entity.Task, error)
	UpdateTask(ctx context.Context, actorID, id string, update entity.TaskUpdate) (*entity.Task, error)
	ListTasks(ctx context.Context) ([]*entity.Task, error)

	// GetTask resolves a task with its collectors and submissions.
	// A missing id is reported through Lookup.Found, not as an error.
	GetTask(ctx context.Context, id string) (entity.Lookup[*entity.TaskDetail], error)

	// Assign links collectors to a task. Existing links are kept.
	Assign(ctx context.Context, actorID, taskID string, collectorIDs []string) (*entity.Assignment, error)
}

type taskServiceImpl struct {
	tasks       port.TaskRepository
	collectors  port.CollectorRepository
	submissions port.SubmissionRepository
	txManager   port.TransactionManager
	loader      *query.Loader
	events      EventPublisher
	logger      Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(
	tasks port.TaskRepository,
	collectors port.CollectorRepository,
	submissions port.SubmissionRepository,
	txManager port.TransactionManager,
	loader *query.Loader,
	events EventPublisher,
	logger Logger,
) TaskService {
	return &taskServiceImpl{
		tasks:       tasks,
		collectors:  collectors,
		submissions: submissions,
		txManager:   txManager,
		loader:      loader,
		events:      events,
		logger:      logger,
	}
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, actorID string, in CreateTaskInput) (*entity.Task, error) {
	now := time.Now().UTC()
	task := &entity.Task{
		ID:          uuid.NewString(),
		Title:       utils.SanitizeString(in.Title),
		Description: strings.TrimSpace(in.Description),
		MediaType:   in.MediaType,
		CreatedByID: actorID,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var errs ValidationErrors
	validateTaskFields(&errs, &task.Title, &task.Description, &task.MediaType)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		s.logger.Error("Failed to create task", "title", task.Title, "error", err)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Info("Task created", "task_id", task.ID, "media_type", task.MediaType, "actor_id", actorID)
	publish(ctx, s.events, s.logger, event.NewEvent(event.TypeTaskCreated, task.ID, actorID, map[string]interface{}{
		event.KeyTitle: task.Title,
	}))
	return task, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, actorID, id string, update entity.TaskUpdate) (*entity.Task, error) {
	if update.Title != nil {
		v := utils.SanitizeString(*update.Title)
		update.Title = &v
	}
	if update.Description != nil {
		v := strings.TrimSpace(*update.Description)
		update.Description = &v
	}

	var errs ValidationErrors
	validateTaskFields(&errs, update.Title, update.Description, update.MediaType)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if update.IsEmpty() {
		return task, nil
	}

	update.Apply(task)
	task.UpdatedAt = time.Now().UTC()

	if err := s.tasks.Update(ctx, task); err != nil {
		s.logger.Error("Failed to update task", "task_id", id, "error", err)
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.Info("Task updated", "task_id", id, "actor_id", actorID, "is_active", task.IsActive)
	publish(ctx, s.events, s.logger, event.NewEvent(event.TypeTaskUpdated, id, actorID, map[string]interface{}{
		event.KeyTitle: task.Title,
	}))
	return task, nil
}

// validateTaskFields checks whichever fields are non-nil
func validateTaskFields(errs *ValidationErrors, title, description *string, mediaType *entity.MediaType) {
	if title != nil && *title == "" {
		errs.Add("title", "title is required")
	}
	if description != nil && *description == "" {
		errs.Add("description", "description is required")
	}
	if mediaType != nil && !mediaType.IsValid() {
		errs.Add("mediaType", "media type must be one of IMAGE, VIDEO, AUDIO, TEXT, DOC")
	}
}

func (s *taskServiceImpl) ListTasks(ctx context.Context) ([]*entity.Task, error) {
	return query.Load(ctx, s.loader, query.KeyTasks, func(ctx context.Context) ([]*entity.Task, error) {
		tasks, err := s.tasks.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list tasks: %w", err)
		}
		return tasks, nil
	})
}

func (s *taskServiceImpl) GetTask(ctx context.Context, id string) (entity.Lookup[*entity.TaskDetail], error) {
	return query.Load(ctx, s.loader, query.TaskKey(id), func(ctx context.Context) (entity.Lookup[*entity.TaskDetail], error) {
		none := entity.NotFound[*entity.TaskDetail]()

		task, err := s.tasks.GetByID(ctx, id)
		if err != nil {
			return none, fmt.Errorf("failed to get task: %w", err)
		}
		if task == nil {
			return none, nil
		}

		collectors, err := s.collectors.ListByTask(ctx, id)
		if err != nil {
			return none, fmt.Errorf("failed to list task collectors: %w", err)
		}
		submissions, err := s.submissions.List(ctx, entity.SubmissionFilter{TaskID: id})
		if err != nil {
			return none, fmt.Errorf("failed to list task submissions: %w", err)
		}

		return entity.Found(&entity.TaskDetail{
			Task:        *task,
			Collectors:  collectors,
			Submissions: submissions,
		}), nil
	})
}

func (s *taskServiceImpl) Assign(ctx context.Context, actorID, taskID string, collectorIDs []string) (*entity.Assignment, error) {
	ids := utils.NormalizeIDs(collectorIDs)
	if len(ids) == 0 {
		return nil, invalid("collectorIds", "select at least one collector")
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}

	known, err := s.collectors.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get collectors: %w", err)
	}
	var unknown []string
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return nil, invalid("collectorIds", "unknown collectors: "+strings.Join(sortedCopy(unknown), ", "))
	}

	var added int
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		n, err := s.tasks.Assign(ctx, taskID, ids)
		added = n
		return err
	})
	if err != nil {
		s.logger.Error("Failed to assign collectors", "task_id", taskID, "error", err)
		return nil, fmt.Errorf("failed to assign collectors: %w", err)
	}

	s.logger.Info("Collectors assigned", "task_id", taskID, "requested", len(ids), "added", added, "actor_id", actorID)
	publish(ctx, s.events, s.logger, event.NewEvent(event.TypeTaskAssigned, taskID, actorID, map[string]interface{}{
		event.KeyTitle:        task.Title,
		event.KeyAdded:        added,
		event.KeyCollectorIDs: ids,
	}))

	return &entity.Assignment{TaskID: taskID, Assigned: ids, Added: added}, nil
}

