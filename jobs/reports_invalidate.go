package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/garment-dashboard/internal/jobs"
)

// VersionBumper invalidates a versioned cache in one step.
type VersionBumper interface {
	Bump(ctx context.Context) (int64, error)
}

// InvalidateJob bumps the shared report cache version. Every dashboard process
// listening for bumps starts reading and writing under the new version.
type InvalidateJob struct {
	Store   VersionBumper
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewInvalidateJob wires the invalidation handler.
func NewInvalidateJob(store VersionBumper, logger *slog.Logger, metrics *jobmetrics.Metrics) *InvalidateJob {
	return &InvalidateJob{Store: store, Logger: logger, Metrics: metrics}
}

// Handle processes reports:invalidate tasks.
func (j *InvalidateJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("reports invalidate: store not configured")
	}
	var payload InvalidatePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.metrics().Track(TaskReportsInvalidate)
	version, err := j.Store.Bump(ctx)
	if err = tracker.End(err); err != nil {
		j.logger().Error("bump report cache version", slog.Any("error", err))
		return err
	}
	j.logger().Info("report cache invalidated", slog.Int64("version", version), slog.String("reason", payload.Reason))
	return nil
}

func (j *InvalidateJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportsInvalidate))
	}
	return slog.Default().With(slog.String("job", TaskReportsInvalidate))
}

func (j *InvalidateJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
