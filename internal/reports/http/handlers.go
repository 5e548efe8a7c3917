// Package reportshttp serves the report pages over HTTP.
package reportshttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/garment-dashboard/internal/filter"
	"github.com/odyssey-erp/garment-dashboard/internal/platform/httpx"
	"github.com/odyssey-erp/garment-dashboard/internal/query"
	"github.com/odyssey-erp/garment-dashboard/internal/reports"
	"github.com/odyssey-erp/garment-dashboard/internal/view"
	"github.com/odyssey-erp/garment-dashboard/internal/workspace"
)

const (
	refreshSeconds     = 2
	defaultExportLimit = 10
)

// Config wires a Handler.
type Config struct {
	Logger     *slog.Logger
	Registry   *reports.Registry
	Workspaces *workspace.Manager
	Templates  *view.Engine
	// LoadWait bounds how long a request waits for a report before the
	// loading state is rendered.
	LoadWait time.Duration
	// ExportLimit is the number of CSV exports allowed per client per minute.
	ExportLimit int
}

// Handler renders report pages.
type Handler struct {
	logger      *slog.Logger
	registry    *reports.Registry
	workspaces  *workspace.Manager
	templates   *view.Engine
	loadWait    time.Duration
	exportLimit int
	now         func() time.Time
}

// NewHandler builds a Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := cfg.ExportLimit
	if limit <= 0 {
		limit = defaultExportLimit
	}
	return &Handler{
		logger:      logger,
		registry:    cfg.Registry,
		workspaces:  cfg.Workspaces,
		templates:   cfg.Templates,
		loadWait:    cfg.LoadWait,
		exportLimit: limit,
		now:         time.Now,
	}
}

// Envelope is the JSON form of a report query.
type Envelope struct {
	Data      json.RawMessage `json:"data"`
	IsLoading bool            `json:"isLoading"`
	IsError   bool            `json:"isError"`
	Disabled  bool            `json:"disabled,omitempty"`
	Filters   filter.Set      `json:"filters"`
}

type formData struct {
	Action   string
	Controls []filter.Control
}

type pageData struct {
	View        reports.PageView
	Form        formData
	RefreshHref string
	ExportHref  string
}

type overviewData struct {
	View     reports.PageView
	Sections []reports.SectionInfo
}

type pageState struct {
	page    reports.Page
	filters filter.Set
	result  query.Result
	view    reports.PageView
}

func (h *Handler) lookup(r *http.Request) (reports.Page, bool) {
	slug := chi.URLParam(r, "section") + "/" + chi.URLParam(r, "name")
	return h.registry.Lookup(slug)
}

// load resolves the request's filters against the workspace's mounted page,
// applies them and waits up to loadWait for the result.
func (h *Handler) load(w http.ResponseWriter, r *http.Request, page reports.Page) pageState {
	ws := h.workspaces.Resolve(w, r)
	binding := ws.Mount(page.Slug())
	values := r.URL.Query()

	filters, action := page.Form().Resolve(values, page.Defaults(h.now()))
	if action == filter.ActionDefaults {
		if key, ok := binding.Key(); ok {
			filters = key.Filters.Clone()
		}
	}

	key := query.NewKey(page.Endpoint(), filters)
	res := binding.Apply(key, page.Enabled(filters))
	if values.Get(filter.RefreshParam) != "" {
		res = binding.Refetch(r.Context())
	}
	if res.IsLoading() && h.loadWait > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), h.loadWait)
		res = binding.Wait(ctx)
		cancel()
	}
	if res.Key.Endpoint != "" && !res.Key.Equal(key) {
		// A later request in the same workspace took over the page.
		filters = res.Key.Filters.Clone()
	}
	if res.IsError() {
		h.logger.Warn("report failed", slog.String("page", page.Slug()), slog.String("workspace", ws.ID()), slog.Any("error", res.Err))
	}

	view := page.Render(res)
	view.Filters = page.Form().Controls(filters)
	return pageState{page: page, filters: filters, result: res, view: view}
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	state := h.load(w, r, h.registry.Overview())
	data := view.TemplateData{
		Title:       state.view.Title,
		CurrentPath: r.URL.Path,
		Nav:         h.nav(""),
		Data:        overviewData{View: state.view, Sections: h.registry.Sections()},
	}
	if state.view.Loading {
		data.RefreshURL = r.URL.Path
		data.RefreshSeconds = refreshSeconds
	}
	h.render(w, http.StatusOK, "pages/overview.html", data)
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	page, ok := h.lookup(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	state := h.load(w, r, page)
	path := r.URL.Path
	data := view.TemplateData{
		Title:       state.view.Title,
		CurrentPath: path,
		Nav:         h.nav(page.Slug()),
		Data: pageData{
			View:        state.view,
			Form:        formData{Action: path, Controls: state.view.Filters},
			RefreshHref: withFilters(path, state.filters, filter.RefreshParam),
			ExportHref:  withFilters(path+"/export.csv", state.filters, ""),
		},
	}
	if state.view.Loading {
		data.RefreshURL = withFilters(path, state.filters, "")
		data.RefreshSeconds = refreshSeconds
	}
	h.render(w, http.StatusOK, "pages/report.html", data)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	page, ok := h.lookup(r)
	if !ok {
		httpx.RespondError(w, fmt.Errorf("report %w", httpx.ErrNotFound))
		return
	}
	state := h.load(w, r, page)
	switch {
	case state.view.Disabled:
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, reports.DisabledMessage))
		return
	case state.view.Failed:
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrUpstream, reports.FailedMessage))
		return
	case state.view.Loading:
		w.Header().Set("Retry-After", fmt.Sprint(refreshSeconds))
		httpx.RespondError(w, fmt.Errorf("report %w: %s", httpx.ErrNotReady, state.view.LoadingMessage))
		return
	}

	var buf bytes.Buffer
	if err := reports.WriteCSV(&buf, state.view.Table); err != nil {
		h.logger.Error("write report csv", slog.String("page", page.Slug()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	filename := strings.ReplaceAll(page.Slug(), "/", "-") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) handleAPI(w http.ResponseWriter, r *http.Request) {
	page, ok := h.lookup(r)
	if !ok {
		httpx.RespondError(w, fmt.Errorf("report %w", httpx.ErrNotFound))
		return
	}
	h.respondEnvelope(w, h.load(w, r, page))
}

func (h *Handler) handleOverviewAPI(w http.ResponseWriter, r *http.Request) {
	h.respondEnvelope(w, h.load(w, r, h.registry.Overview()))
}

func (h *Handler) respondEnvelope(w http.ResponseWriter, state pageState) {
	env := Envelope{
		IsLoading: !state.result.Disabled && !state.result.IsSuccess() && !state.result.IsError(),
		IsError:   state.result.IsError(),
		Disabled:  state.result.Disabled,
		Filters:   state.filters,
	}
	if state.result.IsSuccess() {
		env.Data = state.result.Data
	}
	httpx.JSON(w, http.StatusOK, env)
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusNotFound, "pages/not_found.html", view.TemplateData{
		Title:       "Not found",
		CurrentPath: r.URL.Path,
		Nav:         h.nav(""),
	})
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data view.TemplateData) {
	if err := h.templates.RenderStatus(w, status, name, data); err != nil {
		h.logger.Error("render template", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) nav(active string) []view.NavSection {
	sections := h.registry.Sections()
	out := make([]view.NavSection, len(sections))
	for i, s := range sections {
		out[i] = view.NavSection{Title: s.Title, Links: make([]view.NavLink, len(s.Pages))}
		for j, p := range s.Pages {
			out[i].Links[j] = view.NavLink{Title: p.Title(), Href: "/reports/" + p.Slug(), Active: p.Slug() == active}
		}
	}
	return out
}

// withFilters links to path with filters applied. The apply flag makes the
// link reproduce exactly this filter set instead of the page defaults.
func withFilters(path string, filters filter.Set, flag string) string {
	values := filters.Values()
	values.Set(filter.ApplyParam, "1")
	if flag != "" {
		values.Set(flag, "1")
	}
	return path + "?" + values.Encode()
}
