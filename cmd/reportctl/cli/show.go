package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/garment-dashboard/internal/app"
	"github.com/odyssey-erp/garment-dashboard/internal/filter"
	"github.com/odyssey-erp/garment-dashboard/internal/query"
	"github.com/odyssey-erp/garment-dashboard/internal/reports"
	"github.com/odyssey-erp/garment-dashboard/internal/termview"
)

const (
	outputTable = "table"
	outputCSV   = "csv"
	outputJSON  = "json"
)

type showOptions struct {
	filters []string
	output  string
	refresh bool
	timeout time.Duration
}

func newShowCmd(opts *options) *cobra.Command {
	show := &showOptions{}
	cmd := &cobra.Command{
		Use:   "show <slug>",
		Short: "Fetch and render one report page",
		Long: `Fetch a report page and render it. Without --filter the page's default
filters are used; with --filter only the given values are applied.`,
		Example: `  reportctl show summary
  reportctl show inventory/slow-moving --filter days_period=180
  reportctl show fabric/stock-by-type --filter fabric_type=TERRY --output csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, opts, show, args[0])
		},
	}
	cmd.Flags().StringArrayVar(&show.filters, "filter", nil, "Filter value as name=value (repeatable)")
	cmd.Flags().StringVarP(&show.output, "output", "o", outputTable, "Output format: table, csv or json")
	cmd.Flags().BoolVar(&show.refresh, "refresh", false, "Bypass the shared cache")
	cmd.Flags().DurationVar(&show.timeout, "timeout", 30*time.Second, "Request timeout")
	return cmd
}

func runShow(cmd *cobra.Command, opts *options, show *showOptions, slug string) error {
	switch show.output {
	case outputTable, outputCSV, outputJSON:
	default:
		return fmt.Errorf("unsupported output %q", show.output)
	}

	reg := reports.DefaultRegistry()
	page, err := lookupPage(reg, slug)
	if err != nil {
		return err
	}
	filters, err := resolveFilters(page, show.filters, time.Now())
	if err != nil {
		return err
	}

	cfg, err := opts.config()
	if err != nil {
		return err
	}
	logger := app.NewCLILogger(cmd.ErrOrStderr(), cfg)

	ctx, cancel := context.WithTimeout(cmd.Context(), show.timeout)
	defer cancel()

	pipeline, err := app.NewPipeline(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() { _ = pipeline.Close() }()

	res := fetch(ctx, logger, pipeline.Shared, page, filters, show.refresh)
	view := page.Render(res)
	out := cmd.OutOrStdout()

	switch show.output {
	case outputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		data := res.Data
		if len(data) == 0 {
			data = json.RawMessage("null")
		}
		if err := enc.Encode(envelope{Data: data, IsLoading: res.IsLoading(), IsError: res.IsError(), Disabled: res.Disabled, Filters: filters}); err != nil {
			return err
		}
	case outputCSV:
		if !view.Table.HasRows() {
			return fmt.Errorf("%s has no table rows to export", page.Slug())
		}
		if err := reports.WriteCSV(out, view.Table); err != nil {
			return err
		}
	default:
		if err := termview.Render(out, view, termview.IsTerminal(out)); err != nil {
			return err
		}
	}
	if res.IsError() {
		return fmt.Errorf("%s: %w", page.Slug(), res.Err)
	}
	return nil
}

type envelope struct {
	Data      json.RawMessage `json:"data"`
	IsLoading bool            `json:"isLoading"`
	IsError   bool            `json:"isError"`
	Disabled  bool            `json:"disabled,omitempty"`
	Filters   filter.Set      `json:"filters"`
}

func lookupPage(reg *reports.Registry, slug string) (reports.Page, error) {
	if slug == reports.OverviewSlug {
		return reg.Overview(), nil
	}
	page, ok := reg.Lookup(slug)
	if !ok {
		return nil, fmt.Errorf("unknown report %q (see reportctl list)", slug)
	}
	return page, nil
}

// resolveFilters returns the page defaults when no filter flags are given,
// otherwise the parsed flag values.
func resolveFilters(page reports.Page, flags []string, now time.Time) (filter.Set, error) {
	if len(flags) == 0 {
		return page.Defaults(now), nil
	}
	values := url.Values{}
	for _, raw := range flags {
		name, value, ok := strings.Cut(raw, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("filter %q must be name=value", raw)
		}
		if _, known := page.Form().Field(name); !known {
			return nil, fmt.Errorf("unknown filter %q for %s (available: %s)", name, page.Slug(), fieldNames(page))
		}
		values.Set(name, value)
	}
	filters := page.Form().Parse(values)
	var rejected []string
	for name := range values {
		if values.Get(name) != "" && !filters.Has(name) {
			rejected = append(rejected, name)
		}
	}
	if len(rejected) > 0 {
		sort.Strings(rejected)
		return nil, fmt.Errorf("invalid value for filter(s) %s", strings.Join(rejected, ", "))
	}
	return filters, nil
}

func fetch(ctx context.Context, logger *slog.Logger, shared *query.Shared, page reports.Page, filters filter.Set, refresh bool) query.Result {
	key := query.NewKey(page.Endpoint(), filters)
	if !page.Enabled(filters) {
		return query.Result{Key: key, Status: query.StatusIdle, Disabled: true}
	}
	if refresh {
		if err := shared.Forget(ctx, key); err != nil {
			logger.Warn("report cache forget failed", slog.String("key", key.String()), slog.Any("error", err))
		}
	}
	raw, err := shared.Fetch(ctx, key)
	if err != nil {
		return query.Result{Key: key, Status: query.StatusError, Err: err, UpdatedAt: time.Now()}
	}
	return query.Result{Key: key, Status: query.StatusSuccess, Data: raw, UpdatedAt: time.Now()}
}
