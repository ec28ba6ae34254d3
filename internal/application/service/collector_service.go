package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/media-collect/internal/application/port"
	"github.com/garyjia/media-collect/internal/application/query"
	"github.com/garyjia/media-collect/internal/domain/entity"
	"github.com/garyjia/media-collect/internal/domain/event"
	"github.com/garyjia/media-collect/pkg/utils"
)

// RegisterCollectorInput is a new collector profile
type RegisterCollectorInput struct {
	Name             string
	Phone            string
	TelegramUsername *string
}

// CollectorService manages collector profiles
type CollectorService interface {
	RegisterCollector(ctx context.Context, actorID string, in RegisterCollectorInput) (*entity.Collector, error)
	ListCollectors(ctx context.Context) ([]*entity.Collector, error)
	GetCollector(ctx context.Context, id string) (entity.Lookup[*entity.CollectorDetail], error)
}

type collectorServiceImpl struct {
	collectors  port.CollectorRepository
	tasks       port.TaskRepository
	submissions port.SubmissionRepository
	loader      *query.Loader
	events      EventPublisher
	logger      Logger
}

// NewCollectorService creates a new CollectorService
func NewCollectorService(
	collectors port.CollectorRepository,
	tasks port.TaskRepository,
	submissions port.SubmissionRepository,
	loader *query.Loader,
	events EventPublisher,
	logger Logger,
) CollectorService {
	return &collectorServiceImpl{
		collectors:  collectors,
		tasks:       tasks,
		submissions: submissions,
		loader:      loader,
		events:      events,
		logger:      logger,
	}
}

func (s *collectorServiceImpl) RegisterCollector(ctx context.Context, actorID string, in RegisterCollectorInput) (*entity.Collector, error) {
	collector := &entity.Collector{
		ID:               uuid.NewString(),
		Name:             utils.SanitizeString(in.Name),
		Phone:            utils.SanitizeString(in.Phone),
		TelegramUsername: utils.TrimmedPtr(in.TelegramUsername),
		CreatedAt:        time.Now().UTC(),
	}

	var errs ValidationErrors
	if collector.Name == "" {
		errs.Add("name", "name is required")
	}
	if err := utils.ValidatePhone(collector.Phone); err != nil {
		errs.Add("phone", "enter a valid phone number")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if err := s.collectors.Create(ctx, collector); err != nil {
		s.logger.Error("Failed to register collector", "name", collector.Name, "error", err)
		return nil, fmt.Errorf("failed to register collector: %w", err)
	}

	s.logger.Info("Collector registered", "collector_id", collector.ID, "actor_id", actorID)
	publish(ctx, s.events, s.logger, event.NewEvent(event.TypeCollectorRegistered, collector.ID, actorID, nil))
	return collector, nil
}

// ListCollectors returns every collector with derived stats. An empty
// store yields an empty list.
func (s *collectorServiceImpl) ListCollectors(ctx context.Context) ([]*entity.Collector, error) {
	return query.Load(ctx, s.loader, query.KeyCollectors, func(ctx context.Context) ([]*entity.Collector, error) {
		collectors, err := s.collectors.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list collectors: %w", err)
		}
		if collectors == nil {
			collectors = []*entity.Collector{}
		}
		return collectors, nil
	})
}

func (s *collectorServiceImpl) GetCollector(ctx context.Context, id string) (entity.Lookup[*entity.CollectorDetail], error) {
	return query.Load(ctx, s.loader, query.CollectorKey(id), func(ctx context.Context) (entity.Lookup[*entity.CollectorDetail], error) {
		none := entity.NotFound[*entity.CollectorDetail]()

		collector, err := s.collectors.GetByID(ctx, id)
		if err != nil {
			return none, fmt.Errorf("failed to get collector: %w", err)
		}
		if collector == nil {
			return none, nil
		}

		tasks, err := s.tasks.ListByCollector(ctx, id)
		if err != nil {
			return none, fmt.Errorf("failed to list collector tasks: %w", err)
		}
		submissions, err := s.submissions.List(ctx, entity.SubmissionFilter{CollectorID: id})
		if err != nil {
			return none, fmt.Errorf("failed to list collector submissions: %w", err)
		}

		return entity.Found(&entity.CollectorDetail{
			Collector:   *collector,
			Tasks:       tasks,
			Submissions: submissions,
		}), nil
	})
}
