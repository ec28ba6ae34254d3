package service

import (
	"context"
	"fmt"

	"github.com/garyjia/media-collect/internal/application/dispatcher"
	"github.com/garyjia/media-collect/internal/application/port"
	"github.com/garyjia/media-collect/internal/domain/entity"
	"github.com/garyjia/media-collect/internal/domain/event"
)

// Subscriber is the slice of the dispatcher used to register handlers
type Subscriber interface {
	SubscribeAsync(eventType event.Type, name string, handler dispatcher.Handler)
}

// NotificationService turns workflow events into reviewer notifications
type NotificationService interface {
	HandleSubmissionReviewed(ctx context.Context, evt *event.Event) error
	HandleTaskAssigned(ctx context.Context, evt *event.Event) error

	// Subscribe registers both handlers as async handlers
	Subscribe(sub Subscriber)
}

type notificationServiceImpl struct {
	notifier   port.Notifier
	tasks      port.TaskRepository
	collectors port.CollectorRepository
	logger     Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notifier port.Notifier,
	tasks port.TaskRepository,
	collectors port.CollectorRepository,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		notifier:   notifier,
		tasks:      tasks,
		collectors: collectors,
		logger:     logger,
	}
}

// HandleSubmissionReviewed notifies reviewers of a decision
func (s *notificationServiceImpl) HandleSubmissionReviewed(ctx context.Context, evt *event.Event) error {
	taskID := evt.GetPayloadString(event.KeyTaskID)
	collectorID := evt.GetPayloadString(event.KeyCollectorID)

	notice := port.ReviewNotice{
		SubmissionID:   evt.AggregateID,
		TaskTitle:      entity.UnknownSubmissionTask,
		CollectorName:  entity.UnknownCollectorName,
		PreviousStatus: entity.SubmissionStatus(evt.GetPayloadString(event.KeyPreviousStatus)),
		Status:         entity.SubmissionStatus(evt.GetPayloadString(event.KeyStatus)),
		ReviewerID:     evt.ActorID,
		ReReview:       evt.GetPayloadBool(event.KeyReReview),
	}
	if note := evt.GetPayloadString(event.KeyNote); note != "" {
		notice.Note = &note
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to get task: %w", err)
	}
	if task != nil {
		notice.TaskTitle = task.Title
	}
	collector, err := s.collectors.GetByID(ctx, collectorID)
	if err != nil {
		return fmt.Errorf("failed to get collector: %w", err)
	}
	if collector != nil {
		notice.CollectorName = collector.Name
	}

	if err := s.notifier.NotifyReview(ctx, notice); err != nil {
		s.logger.Error("Failed to send review notification", "submission_id", notice.SubmissionID, "error", err)
		return fmt.Errorf("notify review: %w", err)
	}

	s.logger.Info("Review notification sent", "submission_id", notice.SubmissionID, "status", notice.Status)
	return nil
}

// HandleTaskAssigned notifies reviewers of new assignments. Assignments
// that added nothing are skipped.
func (s *notificationServiceImpl) HandleTaskAssigned(ctx context.Context, evt *event.Event) error {
	added := evt.GetPayloadInt(event.KeyAdded)
	if added == 0 {
		return nil
	}

	notice := port.AssignmentNotice{
		TaskID:    evt.AggregateID,
		TaskTitle: evt.GetPayloadString(event.KeyTitle),
		Added:     int(added),
		Assigned:  evt.GetPayloadStrings(event.KeyCollectorIDs),
	}

	if err := s.notifier.NotifyAssignment(ctx, notice); err != nil {
		s.logger.Error("Failed to send assignment notification", "task_id", notice.TaskID, "error", err)
		return fmt.Errorf("notify assignment: %w", err)
	}

	s.logger.Info("Assignment notification sent", "task_id", notice.TaskID, "added", added)
	return nil
}

func (s *notificationServiceImpl) Subscribe(sub Subscriber) {
	sub.SubscribeAsync(event.TypeSubmissionReviewed, "notify-review", s.HandleSubmissionReviewed)
	sub.SubscribeAsync(event.TypeTaskAssigned, "notify-assignment", s.HandleTaskAssigned)
}
