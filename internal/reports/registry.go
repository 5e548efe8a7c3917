package reports

import (
	"fmt"
	"sort"
)

// SectionInfo names a group of pages.
type SectionInfo struct {
	Key   string
	Title string
	Pages []Page
}

var sectionTitles = []struct{ key, title string }{
	{"sales", "Sales & Discounts"},
	{"panels", "Panel Management"},
	{"raw-materials", "Raw Materials & Processing"},
	{"inventory", "Inventory Analysis"},
	{"production", "Production & Quality"},
	{"fabric", "Fabric Reports"},
}

// Registry indexes report pages by slug.
type Registry struct {
	overview *Overview
	pages    []Page
	bySlug   map[string]Page
}

// NewRegistry indexes pages. Duplicate slugs are rejected.
func NewRegistry(overview *Overview, pages ...Page) (*Registry, error) {
	r := &Registry{overview: overview, bySlug: make(map[string]Page, len(pages))}
	for _, p := range pages {
		if _, dup := r.bySlug[p.Slug()]; dup {
			return nil, fmt.Errorf("reports: duplicate page %q", p.Slug())
		}
		r.bySlug[p.Slug()] = p
		r.pages = append(r.pages, p)
	}
	return r, nil
}

// DefaultRegistry returns every dashboard report.
func DefaultRegistry() *Registry {
	var pages []Page
	pages = append(pages, salesPages()...)
	pages = append(pages, panelPages()...)
	pages = append(pages, rawMaterialPages()...)
	pages = append(pages, inventoryPages()...)
	pages = append(pages, productionPages()...)
	pages = append(pages, fabricPages()...)
	r, err := NewRegistry(NewOverview(), pages...)
	if err != nil {
		panic(err)
	}
	return r
}

// Overview returns the landing page.
func (r *Registry) Overview() *Overview { return r.overview }

// Lookup finds a page by slug.
func (r *Registry) Lookup(slug string) (Page, bool) {
	p, ok := r.bySlug[slug]
	return p, ok
}

// Pages lists pages in registration order.
func (r *Registry) Pages() []Page {
	return append([]Page(nil), r.pages...)
}

// Slugs lists page slugs sorted.
func (r *Registry) Slugs() []string {
	slugs := make([]string, 0, len(r.pages))
	for _, p := range r.pages {
		slugs = append(slugs, p.Slug())
	}
	sort.Strings(slugs)
	return slugs
}

// Sections groups pages for navigation. Unknown sections are appended last.
func (r *Registry) Sections() []SectionInfo {
	index := make(map[string]int)
	var out []SectionInfo
	for _, s := range sectionTitles {
		index[s.key] = len(out)
		out = append(out, SectionInfo{Key: s.key, Title: s.title})
	}
	for _, p := range r.pages {
		i, ok := index[p.Section()]
		if !ok {
			index[p.Section()] = len(out)
			out = append(out, SectionInfo{Key: p.Section(), Title: p.Section()})
			i = len(out) - 1
		}
		out[i].Pages = append(out[i].Pages, p)
	}
	filtered := out[:0]
	for _, s := range out {
		if len(s.Pages) > 0 {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
