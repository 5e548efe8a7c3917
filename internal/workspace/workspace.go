// Package workspace scopes report caches to a browsing session. Each session
// owns one mounted page at a time; navigating to another page releases the
// previous page's cache.
package workspace

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/garment-dashboard/internal/query"
)

// CookieName carries the workspace identifier.
const CookieName = "gd_ws"

// Config wires a Manager.
type Config struct {
	Fetcher query.Fetcher
	Metrics *query.Metrics
	Logger  *slog.Logger
	IdleTTL time.Duration
	// Secure marks the cookie Secure.
	Secure bool
}

// Manager tracks live workspaces.
type Manager struct {
	fetcher query.Fetcher
	metrics *query.Metrics
	logger  *slog.Logger
	idleTTL time.Duration
	secure  bool
	now     func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewManager builds a Manager.
func NewManager(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Manager{
		fetcher:    cfg.Fetcher,
		metrics:    cfg.Metrics,
		logger:     logger,
		idleTTL:    ttl,
		secure:     cfg.Secure,
		now:        time.Now,
		workspaces: make(map[string]*Workspace),
	}
}

// Resolve returns the workspace named by the request cookie, creating one and
// setting the cookie when it is absent, malformed or expired.
func (m *Manager) Resolve(w http.ResponseWriter, r *http.Request) *Workspace {
	if c, err := r.Cookie(CookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			if ws := m.Get(id.String()); ws != nil {
				return ws
			}
		}
	}
	ws := m.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    ws.id,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return ws
}

// Create registers a new workspace.
func (m *Manager) Create() *Workspace {
	ws := &Workspace{id: uuid.NewString(), manager: m, lastSeen: m.now()}
	m.mu.Lock()
	m.workspaces[ws.id] = ws
	m.mu.Unlock()
	m.logger.Debug("workspace created", slog.String("workspace", ws.id))
	return ws
}

// Get returns a live workspace and marks it as used.
func (m *Manager) Get(id string) *Workspace {
	m.mu.Lock()
	ws, ok := m.workspaces[id]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	ws.touch(m.now())
	return ws
}

// Len returns the number of live workspaces.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workspaces)
}

// Sweep releases workspaces idle for longer than the configured TTL and
// returns how many were removed.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.idleTTL)
	var expired []*Workspace
	m.mu.Lock()
	for id, ws := range m.workspaces {
		if ws.idleSince(cutoff) {
			expired = append(expired, ws)
			delete(m.workspaces, id)
		}
	}
	m.mu.Unlock()
	for _, ws := range expired {
		ws.release()
	}
	if len(expired) > 0 {
		m.logger.Debug("workspaces swept", slog.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps idle workspaces until ctx ends.
func (m *Manager) Run(ctx context.Context) {
	interval := m.idleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Reset drops the cached results of every mounted page so the next render
// fetches again. It returns how many pages were reset.
func (m *Manager) Reset() int {
	m.mu.Lock()
	all := make([]*Workspace, 0, len(m.workspaces))
	for _, ws := range m.workspaces {
		all = append(all, ws)
	}
	m.mu.Unlock()
	n := 0
	for _, ws := range all {
		ws.mu.Lock()
		if ws.binding != nil {
			ws.binding.Reset()
			n++
		}
		ws.mu.Unlock()
	}
	return n
}

// Close releases every workspace.
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.workspaces
	m.workspaces = make(map[string]*Workspace)
	m.mu.Unlock()
	for _, ws := range all {
		ws.release()
	}
}

// Workspace is one browsing session.
type Workspace struct {
	id      string
	manager *Manager

	mu       sync.Mutex
	slug     string
	binding  *query.Binding
	lastSeen time.Time
}

// ID returns the workspace identifier.
func (w *Workspace) ID() string { return w.id }

// Mount returns the binding for slug. Mounting a different page than the one
// currently mounted releases the previous page's cache.
func (w *Workspace) Mount(slug string) *query.Binding {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastSeen = w.manager.now()
	if w.binding != nil && w.slug == slug {
		return w.binding
	}
	if w.binding != nil {
		w.binding.Close()
		w.manager.logger.Debug("page unmounted", slog.String("workspace", w.id), slog.String("page", w.slug))
	}
	cache := query.NewCache(w.manager.fetcher, query.WithLogger(w.manager.logger.With(slog.String("page", slug))))
	w.slug = slug
	w.binding = query.NewBinding(cache, w.manager.metrics)
	return w.binding
}

// Mounted returns the slug of the mounted page.
func (w *Workspace) Mounted() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.slug
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince(cutoff time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen.Before(cutoff)
}

func (w *Workspace) release() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.binding != nil {
		w.binding.Close()
		w.binding = nil
	}
	w.slug = ""
}
