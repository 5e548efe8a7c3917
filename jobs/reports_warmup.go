package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	jobmetrics "github.com/odyssey-erp/garment-dashboard/internal/jobs"
	"github.com/odyssey-erp/garment-dashboard/internal/query"
	"github.com/odyssey-erp/garment-dashboard/internal/reports"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

const (
	warmupConcurrency = 4
	warmupPageTimeout = 20 * time.Second
)

// WarmupJob fetches the default view of report pages through the shared
// fetcher so the Redis tier is filled before users arrive.
type WarmupJob struct {
	Registry *reports.Registry
	Fetcher  query.Fetcher
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// WarmupResult summarises one warmup run.
type WarmupResult struct {
	Warmed  []string
	Skipped []string
	Failed  []string
}

// NewWarmupJob wires dependencies for the warmup handler.
func NewWarmupJob(registry *reports.Registry, fetcher query.Fetcher, logger *slog.Logger, metrics *jobmetrics.Metrics) *WarmupJob {
	return &WarmupJob{
		Registry: registry,
		Fetcher:  fetcher,
		Logger:   logger,
		Metrics:  metrics,
		clock:    time.Now,
	}
}

// Handle processes reports:warmup tasks.
func (j *WarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("reports warmup: handler not configured")
	}
	var payload WarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	_, err := j.Run(ctx, payload.Slugs...)
	return err
}

// Run warms the named pages, or every page when slugs is empty. Pages whose
// default filters leave the query disabled are skipped. A failing page does not
// stop the others; the returned error lists every failure.
func (j *WarmupJob) Run(ctx context.Context, slugs ...string) (WarmupResult, error) {
	tracker := j.metrics().Track(TaskReportsWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	if j.Registry == nil || j.Fetcher == nil {
		resultErr = errors.New("reports warmup: registry and fetcher are required")
		return WarmupResult{}, resultErr
	}

	logger := j.logger()
	pages, unknown := j.selectPages(slugs)
	for _, slug := range unknown {
		logger.Warn("unknown report page", slog.String("page", slug))
	}

	start := j.now()
	var (
		mu     sync.Mutex
		result WarmupResult
		errs   []error
	)
	result.Skipped = append(result.Skipped, unknown...)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(warmupConcurrency)
	for _, page := range pages {
		filters := page.Defaults(start)
		if !page.Enabled(filters) {
			result.Skipped = append(result.Skipped, page.Slug())
			continue
		}
		key := query.NewKey(page.Endpoint(), filters)
		g.Go(func() error {
			pageCtx, cancel := context.WithTimeout(gctx, warmupPageTimeout)
			defer cancel()
			_, err := j.Fetcher.Fetch(pageCtx, key)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Error("warm page", slog.String("page", page.Slug()), slog.String("key", key.String()), slog.Any("error", err))
				result.Failed = append(result.Failed, page.Slug())
				errs = append(errs, fmt.Errorf("%s: %w", page.Slug(), err))
				return nil
			}
			result.Warmed = append(result.Warmed, page.Slug())
			return nil
		})
	}
	_ = g.Wait()

	j.metrics().AddPages(TaskReportsWarmup, "warmed", len(result.Warmed))
	j.metrics().AddPages(TaskReportsWarmup, "failed", len(result.Failed))
	logger.Info("completed reports warmup",
		slog.Int("warmed", len(result.Warmed)),
		slog.Int("skipped", len(result.Skipped)),
		slog.Int("failed", len(result.Failed)),
		slog.Duration("duration", j.now().Sub(start)),
	)
	if len(errs) > 0 {
		resultErr = fmt.Errorf("reports warmup: %w", errors.Join(errs...))
	}
	return result, resultErr
}

func (j *WarmupJob) selectPages(slugs []string) ([]reports.Page, []string) {
	if len(slugs) == 0 {
		pages := []reports.Page{j.Registry.Overview()}
		return append(pages, j.Registry.Pages()...), nil
	}
	var pages []reports.Page
	var unknown []string
	for _, slug := range slugs {
		if slug == reports.OverviewSlug {
			pages = append(pages, j.Registry.Overview())
			continue
		}
		page, ok := j.Registry.Lookup(slug)
		if !ok {
			unknown = append(unknown, slug)
			continue
		}
		pages = append(pages, page)
	}
	return pages, unknown
}

func (j *WarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskReportsWarmup))
}

func (j *WarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *WarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now()
}
