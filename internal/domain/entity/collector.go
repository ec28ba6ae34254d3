package entity

import "time"

// Collector is a field worker who submits media against tasks
type Collector struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone"`
	TelegramUsername *string   `json:"telegramUsername"`
	TelegramChatID   *string   `json:"telegramChatId"`
	CreatedAt        time.Time `json:"createdAt"`

	// Derived on read
	Stats  CollectorStats  `json:"stats"`
	Counts CollectorCounts `json:"_count"`
}

// CollectorStats counts a collector's submissions per review status
type CollectorStats struct {
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
	Rejected int `json:"rejected"`
}

// Total returns the number of submissions across all statuses
func (s CollectorStats) Total() int {
	return s.Approved + s.Pending + s.Rejected
}

// CollectorCounts holds the derived relation counts of a collector
type CollectorCounts struct {
	Tasks       int `json:"tasks"`
	Submissions int `json:"submissions"`
}

// CollectorDetail is a collector with assigned tasks and their submissions
type CollectorDetail struct {
	Collector
	Tasks       []*Task       `json:"tasks"`
	Submissions []*Submission `json:"submissions"`
}
