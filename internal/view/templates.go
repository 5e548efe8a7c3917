package view

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/odyssey-erp/garment-dashboard/internal/format"
	"github.com/odyssey-erp/garment-dashboard/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// NavLink is one entry of the report navigation.
type NavLink struct {
	Title  string
	Href   string
	Active bool
}

// NavSection groups navigation links under a heading.
type NavSection struct {
	Title string
	Links []NavLink
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CurrentPath string
	// RefreshURL, when set, makes the page reload itself after RefreshSeconds.
	RefreshURL     string
	RefreshSeconds int
	Nav            []NavSection
	Data           any
}

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"toneClass": func(tone format.Tone) string {
			if tone == format.ToneNone {
				return "tone-none"
			}
			return "tone-" + string(tone)
		},
		"barStyle": func(percent float64) template.CSS {
			return template.CSS("width: " + strconv.FormatFloat(percent, 'f', 1, 64) + "%")
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	return e.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus is Render with an explicit status code.
func (e *Engine) RenderStatus(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	return e.templates.ExecuteTemplate(w, name, data)
}

// Has reports whether a template named name was parsed.
func (e *Engine) Has(name string) bool {
	return e != nil && e.templates.Lookup(name) != nil
}
