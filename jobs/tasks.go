package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportsWarmup prefetches report pages into the shared cache.
	TaskReportsWarmup = "reports:warmup"
	// TaskReportsInvalidate drops every shared cached report payload.
	TaskReportsInvalidate = "reports:invalidate"
)

// WarmupPayload selects the pages to warm. An empty slug list warms every page.
type WarmupPayload struct {
	Slugs []string `json:"slugs,omitempty"`
}

// InvalidatePayload records why the shared cache was dropped.
type InvalidatePayload struct {
	Reason string `json:"reason,omitempty"`
}

// NewWarmupTask constructs a reports:warmup task.
func NewWarmupTask(slugs ...string) (*asynq.Task, error) {
	data, err := json.Marshal(WarmupPayload{Slugs: slugs})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportsWarmup, data), nil
}

// NewInvalidateTask constructs a reports:invalidate task.
func NewInvalidateTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(InvalidatePayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportsInvalidate, data), nil
}
