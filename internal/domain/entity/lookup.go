package entity

import "time"

// Lookup is the result of resolving an id that may dangle.
// Callers match on Found instead of checking for sentinel objects.
type Lookup[T any] struct {
	Value T
	Found bool
}

// Found wraps a resolved value
func Found[T any](v T) Lookup[T] {
	return Lookup[T]{Value: v, Found: true}
}

// NotFound is the empty lookup
func NotFound[T any]() Lookup[T] {
	return Lookup[T]{}
}

// OrElse returns the resolved value, or fallback when the id dangled
func (l Lookup[T]) OrElse(fallback T) T {
	if l.Found {
		return l.Value
	}
	return fallback
}

// PlaceholderTask is rendered for a task id that does not resolve
func PlaceholderTask(id string) *TaskDetail {
	return &TaskDetail{
		Task: Task{
			ID:          id,
			Title:       UnknownTaskTitle,
			Description: UnknownTaskDescription,
			MediaType:   MediaTypeText,
			CreatedByID: SystemUserID,
			CreatedAt:   time.Now().UTC(),
		},
		Collectors:  []*Collector{},
		Submissions: []*Submission{},
	}
}

// PlaceholderCollector is rendered for a collector id that does not resolve
func PlaceholderCollector(id string) *CollectorDetail {
	return &CollectorDetail{
		Collector: Collector{
			ID:        id,
			Name:      UnknownCollectorName,
			CreatedAt: time.Now().UTC(),
		},
		Tasks:       []*Task{},
		Submissions: []*Submission{},
	}
}

// SubmissionTaskRefOf builds the embedded task reference, degrading to a
// labeled placeholder when the task is missing
func SubmissionTaskRefOf(l Lookup[*Task]) SubmissionTaskRef {
	if !l.Found || l.Value == nil {
		return SubmissionTaskRef{Title: UnknownSubmissionTask, MediaType: MediaTypeUnknown}
	}
	return SubmissionTaskRef{Title: l.Value.Title, MediaType: l.Value.MediaType}
}

// SubmissionCollectorRefOf builds the embedded collector reference,
// degrading to a labeled placeholder when the collector is missing
func SubmissionCollectorRefOf(l Lookup[*Collector]) SubmissionCollectorRef {
	if !l.Found || l.Value == nil {
		return SubmissionCollectorRef{Name: UnknownCollectorName}
	}
	return SubmissionCollectorRef{Name: l.Value.Name}
}
