package query

import (
	"net/url"
	"strings"

	"github.com/garyjia/media-collect/internal/domain/entity"
)

// Root keys. Detail keys hang off their list key so that invalidating the
// list prefix also drops every detail entry.
const (
	KeySubmissions = "submissions"
	KeyTasks       = "tasks"
	KeyCollectors  = "collectors"
	KeyUsers       = "users"
)

// TaskKey is the detail key of one task
func TaskKey(id string) string {
	return KeyTasks + ":" + id
}

// CollectorKey is the detail key of one collector
func CollectorKey(id string) string {
	return KeyCollectors + ":" + id
}

// UserKey is the detail key of one user
func UserKey(id string) string {
	return KeyUsers + ":" + id
}

// SubmissionKey is the detail key of one submission
func SubmissionKey(id string) string {
	return KeySubmissions + ":" + id
}

// SubmissionsKey is the list key for a filter. The unfiltered list uses the
// bare root key.
func SubmissionsKey(filter entity.SubmissionFilter) string {
	v := url.Values{}
	if filter.Status != "" {
		v.Set("status", string(filter.Status))
	}
	if filter.TaskID != "" {
		v.Set("taskId", filter.TaskID)
	}
	if filter.CollectorID != "" {
		v.Set("collectorId", filter.CollectorID)
	}
	if len(v) == 0 {
		return KeySubmissions
	}
	return KeySubmissions + "?" + v.Encode()
}

// namespace returns the root key a cache key belongs to
func namespace(key string) string {
	if i := strings.IndexAny(key, ":?"); i >= 0 {
		return key[:i]
	}
	return key
}
