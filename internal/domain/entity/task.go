package entity

import "time"

// Task is a media collection job definition
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	MediaType   MediaType `json:"mediaType"`
	CreatedByID string    `json:"createdById"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Derived on read
	Counts TaskCounts `json:"_count"`
}

// TaskCounts holds the derived relation counts of a task
type TaskCounts struct {
	Collectors  int `json:"collectors"`
	Submissions int `json:"submissions"`
}

// TaskDetail is a task with its assigned collectors and received submissions
type TaskDetail struct {
	Task
	Collectors  []*Collector  `json:"collectors"`
	Submissions []*Submission `json:"submissions"`
}

// TaskUpdate carries a partial task edit; nil fields are left untouched
type TaskUpdate struct {
	Title       *string
	Description *string
	MediaType   *MediaType
	IsActive    *bool
}

// IsEmpty returns true when the update changes nothing
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.MediaType == nil && u.IsActive == nil
}

// Apply copies the set fields onto the task
func (u TaskUpdate) Apply(t *Task) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.MediaType != nil {
		t.MediaType = *u.MediaType
	}
	if u.IsActive != nil {
		t.IsActive = *u.IsActive
	}
}

// Assignment is the result of associating collectors with a task
type Assignment struct {
	TaskID   string   `json:"taskId"`
	Assigned []string `json:"assigned"`
	Added    int      `json:"added"`
}
