package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/media-collect/internal/application/port"
	"github.com/garyjia/media-collect/internal/domain/entity"
)

// CollectorRepository implements port.CollectorRepository
type CollectorRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCollectorRepository creates a new collector repository
func NewCollectorRepository(db *sql.DB, logger *zap.Logger) port.CollectorRepository {
	return &CollectorRepository{db: db, logger: logger}
}

const collectorSelect = `
	SELECT c.id, c.name, c.phone, c.telegram_username, c.telegram_chat_id, c.created_at,
		(SELECT COUNT(*) FROM task_collectors tc WHERE tc.collector_id = c.id),
		(SELECT COUNT(*) FROM submissions s WHERE s.collector_id = c.id AND s.status = 'APPROVED'),
		(SELECT COUNT(*) FROM submissions s WHERE s.collector_id = c.id AND s.status = 'PENDING'),
		(SELECT COUNT(*) FROM submissions s WHERE s.collector_id = c.id AND s.status = 'REJECTED')
	FROM collectors c`

func scanCollector(s rowScanner) (*entity.Collector, error) {
	var c entity.Collector
	var username, chatID sql.NullString
	err := s.Scan(
		&c.ID, &c.Name, &c.Phone, &username, &chatID, &c.CreatedAt,
		&c.Counts.Tasks, &c.Stats.Approved, &c.Stats.Pending, &c.Stats.Rejected,
	)
	if err != nil {
		return nil, err
	}
	c.TelegramUsername = stringPtr(username)
	c.TelegramChatID = stringPtr(chatID)
	c.Counts.Submissions = c.Stats.Total()
	return &c, nil
}

func (r *CollectorRepository) queryCollectors(ctx context.Context, query string, args ...interface{}) ([]*entity.Collector, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	collectors := []*entity.Collector{}
	for rows.Next() {
		c, err := scanCollector(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collector: %w", err)
		}
		collectors = append(collectors, c)
	}
	return collectors, rows.Err()
}

func (r *CollectorRepository) Create(ctx context.Context, collector *entity.Collector) error {
	query := `
		INSERT INTO collectors (id, name, phone, telegram_username, telegram_chat_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		collector.ID, collector.Name, collector.Phone,
		nullString(collector.TelegramUsername), nullString(collector.TelegramChatID),
		collector.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("collector %s: %w", collector.ID, port.ErrDuplicate)
	}
	if err != nil {
		r.logger.Error("Failed to create collector", zap.Error(err))
		return fmt.Errorf("failed to create collector: %w", err)
	}
	return nil
}

func (r *CollectorRepository) GetByID(ctx context.Context, id string) (*entity.Collector, error) {
	c, err := scanCollector(getExecutor(ctx, r.db).QueryRowContext(ctx, collectorSelect+` WHERE c.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get collector by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get collector: %w", err)
	}
	return c, nil
}

// GetByIDs returns the collectors that exist, keyed by id
func (r *CollectorRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Collector, error) {
	out := make(map[string]*entity.Collector, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	for _, chunk := range idChunks(ids) {
		in, args := inClause(chunk)
		collectors, err := r.queryCollectors(ctx, collectorSelect+` WHERE c.id IN (`+in+`)`, args...)
		if err != nil {
			r.logger.Error("Failed to get collectors by IDs", zap.Int("count", len(ids)), zap.Error(err))
			return nil, fmt.Errorf("failed to get collectors: %w", err)
		}
		for _, c := range collectors {
			out[c.ID] = c
		}
	}
	return out, nil
}

func (r *CollectorRepository) List(ctx context.Context) ([]*entity.Collector, error) {
	collectors, err := r.queryCollectors(ctx, collectorSelect+` ORDER BY c.created_at DESC, c.id`)
	if err != nil {
		r.logger.Error("Failed to list collectors", zap.Error(err))
		return nil, fmt.Errorf("failed to list collectors: %w", err)
	}
	return collectors, nil
}

func (r *CollectorRepository) ListByTask(ctx context.Context, taskID string) ([]*entity.Collector, error) {
	query := collectorSelect + `
		JOIN task_collectors a ON a.collector_id = c.id
		WHERE a.task_id = ?
		ORDER BY c.name, c.id`
	collectors, err := r.queryCollectors(ctx, query, taskID)
	if err != nil {
		r.logger.Error("Failed to list collectors by task", zap.String("task_id", taskID), zap.Error(err))
		return nil, fmt.Errorf("failed to list collectors: %w", err)
	}
	return collectors, nil
}

var _ port.CollectorRepository = (*CollectorRepository)(nil)
