package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/media-collect/internal/application/port"
	"github.com/garyjia/media-collect/internal/domain/entity"
)

// TaskRepository implements port.TaskRepository
type TaskRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sql.DB, logger *zap.Logger) port.TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

const taskSelect = `
	SELECT t.id, t.title, t.description, t.media_type, t.created_by_id, t.is_active,
		t.created_at, t.updated_at,
		(SELECT COUNT(*) FROM task_collectors tc WHERE tc.task_id = t.id),
		(SELECT COUNT(*) FROM submissions s WHERE s.task_id = t.id)
	FROM tasks t`

func scanTask(s rowScanner) (*entity.Task, error) {
	var t entity.Task
	err := s.Scan(
		&t.ID, &t.Title, &t.Description, &t.MediaType, &t.CreatedByID, &t.IsActive,
		&t.CreatedAt, &t.UpdatedAt,
		&t.Counts.Collectors, &t.Counts.Submissions,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) queryTasks(ctx context.Context, query string, args ...interface{}) ([]*entity.Task, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []*entity.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) Create(ctx context.Context, task *entity.Task) error {
	query := `
		INSERT INTO tasks (id, title, description, media_type, created_by_id, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		task.ID, task.Title, task.Description, task.MediaType, task.CreatedByID, task.IsActive,
		task.CreatedAt, task.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("task %s: %w", task.ID, port.ErrDuplicate)
	}
	if err != nil {
		r.logger.Error("Failed to create task", zap.Error(err))
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Update(ctx context.Context, task *entity.Task) error {
	query := `
		UPDATE tasks SET title = ?, description = ?, media_type = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		task.Title, task.Description, task.MediaType, task.IsActive, task.UpdatedAt, task.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update task", zap.String("id", task.ID), zap.Error(err))
		return fmt.Errorf("failed to update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task %s: %w", task.ID, sql.ErrNoRows)
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*entity.Task, error) {
	t, err := scanTask(getExecutor(ctx, r.db).QueryRowContext(ctx, taskSelect+` WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get task by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// GetByIDs returns the tasks that exist, keyed by id
func (r *TaskRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Task, error) {
	out := make(map[string]*entity.Task, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	for _, chunk := range idChunks(ids) {
		in, args := inClause(chunk)
		tasks, err := r.queryTasks(ctx, taskSelect+` WHERE t.id IN (`+in+`)`, args...)
		if err != nil {
			r.logger.Error("Failed to get tasks by IDs", zap.Int("count", len(ids)), zap.Error(err))
			return nil, fmt.Errorf("failed to get tasks: %w", err)
		}
		for _, t := range tasks {
			out[t.ID] = t
		}
	}
	return out, nil
}

func (r *TaskRepository) List(ctx context.Context) ([]*entity.Task, error) {
	tasks, err := r.queryTasks(ctx, taskSelect+` ORDER BY t.created_at DESC, t.id`)
	if err != nil {
		r.logger.Error("Failed to list tasks", zap.Error(err))
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) ListByCollector(ctx context.Context, collectorID string) ([]*entity.Task, error) {
	query := taskSelect + `
		JOIN task_collectors a ON a.task_id = t.id
		WHERE a.collector_id = ?
		ORDER BY a.assigned_at DESC, t.id`
	tasks, err := r.queryTasks(ctx, query, collectorID)
	if err != nil {
		r.logger.Error("Failed to list tasks by collector", zap.String("collector_id", collectorID), zap.Error(err))
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Assign(ctx context.Context, taskID string, collectorIDs []string) (int, error) {
	exec := getExecutor(ctx, r.db)
	now := time.Now().UTC()

	added := 0
	for _, collectorID := range collectorIDs {
		res, err := exec.ExecContext(ctx,
			`INSERT OR IGNORE INTO task_collectors (task_id, collector_id, assigned_at) VALUES (?, ?, ?)`,
			taskID, collectorID, now,
		)
		if err != nil {
			r.logger.Error("Failed to assign collector",
				zap.String("task_id", taskID), zap.String("collector_id", collectorID), zap.Error(err))
			return added, fmt.Errorf("failed to assign collector %s: %w", collectorID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return added, fmt.Errorf("failed to read rows affected: %w", err)
		}
		added += int(n)
	}
	return added, nil
}

var _ port.TaskRepository = (*TaskRepository)(nil)
