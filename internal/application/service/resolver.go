package service

import (
	"context"
	"fmt"

	"github.com/garyjia/media-collect/internal/application/port"
	"github.com/garyjia/media-collect/internal/domain/entity"
)

// relationResolver joins submissions with the task and collector they
// reference. Dangling references degrade to labeled placeholders.
type relationResolver struct {
	tasks      port.TaskRepository
	collectors port.CollectorRepository
}

func (r relationResolver) resolve(ctx context.Context, subs []*entity.Submission) ([]*entity.ResolvedSubmission, error) {
	out := make([]*entity.ResolvedSubmission, 0, len(subs))
	if len(subs) == 0 {
		return out, nil
	}

	taskIDs := make([]string, 0, len(subs))
	collectorIDs := make([]string, 0, len(subs))
	seenTask := make(map[string]bool, len(subs))
	seenCollector := make(map[string]bool, len(subs))
	for _, s := range subs {
		if !seenTask[s.TaskID] {
			seenTask[s.TaskID] = true
			taskIDs = append(taskIDs, s.TaskID)
		}
		if !seenCollector[s.CollectorID] {
			seenCollector[s.CollectorID] = true
			collectorIDs = append(collectorIDs, s.CollectorID)
		}
	}

	tasks, err := r.tasks.GetByIDs(ctx, taskIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tasks: %w", err)
	}
	collectors, err := r.collectors.GetByIDs(ctx, collectorIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve collectors: %w", err)
	}

	for _, s := range subs {
		out = append(out, &entity.ResolvedSubmission{
			Submission: *s,
			Task:       entity.SubmissionTaskRefOf(lookup(tasks, s.TaskID)),
			Collector:  entity.SubmissionCollectorRefOf(lookup(collectors, s.CollectorID)),
		})
	}
	return out, nil
}

func (r relationResolver) resolveOne(ctx context.Context, sub *entity.Submission) (*entity.ResolvedSubmission, error) {
	resolved, err := r.resolve(ctx, []*entity.Submission{sub})
	if err != nil {
		return nil, err
	}
	return resolved[0], nil
}

func lookup[T any](m map[string]*T, id string) entity.Lookup[*T] {
	if v, ok := m[id]; ok && v != nil {
		return entity.Found(v)
	}
	return entity.NotFound[*T]()
}
