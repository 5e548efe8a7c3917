package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/garment-dashboard/internal/app"
	"github.com/odyssey-erp/garment-dashboard/internal/platform/cache"
	"github.com/odyssey-erp/garment-dashboard/internal/reports"
	"github.com/odyssey-erp/garment-dashboard/jobs"
)

// JobsCLI wraps manual management helpers for report jobs.
type JobsCLI struct {
	client    *jobs.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the helpers against the given Redis database.
func NewJobsCLI(redis cache.Config) (*JobsCLI, error) {
	if redis.Addr == "" {
		return nil, app.ErrRedisRequired
	}
	opts := redis.AsynqOpt()
	return &JobsCLI{client: jobs.NewClient(opts), inspector: asynq.NewInspector(opts)}, nil
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// ListScheduled returns the upcoming scheduled tasks of the default queue.
func (c *JobsCLI) ListScheduled(size int) ([]*asynq.TaskInfo, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	if size <= 0 {
		size = 10
	}
	return c.inspector.ListScheduledTasks(jobs.QueueDefault, asynq.PageSize(size), asynq.Page(1))
}

func (o *options) jobsCLI() (*JobsCLI, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	return NewJobsCLI(cfg.Redis())
}

func newWarmupCmd(opts *options) *cobra.Command {
	var inline bool
	cmd := &cobra.Command{
		Use:   "warmup [slug...]",
		Short: "Prefetch report pages into the shared cache",
		Long: `Enqueue a reports:warmup task for the worker. With --inline the pages are
fetched by this process instead. Without slugs every page is warmed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, slug := range args {
				if _, err := lookupPage(reports.DefaultRegistry(), slug); err != nil {
					return err
				}
			}
			if inline {
				return runInlineWarmup(cmd, opts, args)
			}
			c, err := opts.jobsCLI()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			info, err := c.client.EnqueueWarmup(cmd.Context(), args...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s (%s)\n", info.Type, info.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&inline, "inline", false, "Fetch pages in this process instead of enqueueing")
	return cmd
}

func runInlineWarmup(cmd *cobra.Command, opts *options, slugs []string) error {
	cfg, err := opts.config()
	if err != nil {
		return err
	}
	logger := app.NewCLILogger(cmd.ErrOrStderr(), cfg)
	pipeline, err := app.NewPipeline(cmd.Context(), cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() { _ = pipeline.Close() }()

	job := jobs.NewWarmupJob(pipeline.Registry, pipeline.Shared, logger, nil)
	result, runErr := job.Run(cmd.Context(), slugs...)
	fmt.Fprintf(cmd.OutOrStdout(), "warmed %d, skipped %d, failed %d\n", len(result.Warmed), len(result.Skipped), len(result.Failed))
	if pipeline.Store == nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "note: REDIS_ADDR is not set, nothing was stored")
	}
	return runErr
}

func newInvalidateCmd(opts *options) *cobra.Command {
	var (
		now    bool
		reason string
	)
	cmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Drop every shared cached report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if now {
				return runInlineInvalidate(cmd.Context(), cmd, opts)
			}
			c, err := opts.jobsCLI()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			info, err := c.client.EnqueueInvalidate(cmd.Context(), reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s (%s)\n", info.Type, info.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&now, "now", false, "Bump the cache version directly instead of enqueueing")
	cmd.Flags().StringVar(&reason, "reason", "manual", "Reason recorded in the worker log")
	return cmd
}

func runInlineInvalidate(ctx context.Context, cmd *cobra.Command, opts *options) error {
	cfg, err := opts.config()
	if err != nil {
		return err
	}
	if err := cfg.RequireRedis(); err != nil {
		return err
	}
	pipeline, err := app.NewPipeline(ctx, cfg, app.NewCLILogger(cmd.ErrOrStderr(), cfg), nil)
	if err != nil {
		return err
	}
	defer func() { _ = pipeline.Close() }()
	version, err := pipeline.Store.Bump(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "report cache version is now %d\n", version)
	return nil
}

func newQueueCmd(opts *options) *cobra.Command {
	var scheduled int
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show the job queue state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.jobsCLI()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			stats, err := jobs.InspectQueue(c.inspector)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "queue %s: pending=%d active=%d scheduled=%d retry=%d\n",
				stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
			if scheduled <= 0 {
				return nil
			}
			tasks, err := c.ListScheduled(scheduled)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tType\tNext")
			for _, task := range tasks {
				fmt.Fprintf(w, "%s\t%s\t%s\n", task.ID, task.Type, task.NextProcessAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&scheduled, "scheduled", 0, "Also list up to N scheduled tasks")
	return cmd
}
