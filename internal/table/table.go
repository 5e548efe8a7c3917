// Package table renders typed report rows into a column-driven view.
//
// Columns name the row field they display. Keys are checked against the row
// type when the table is built, so a typo fails at startup instead of
// silently rendering blank cells.
package table

import (
	"errors"
	"fmt"

	"github.com/odyssey-erp/garment-dashboard/internal/format"
)

// ErrUnknownKey indicates a column references a field the row type lacks.
var ErrUnknownKey = errors.New("table: unknown column key")

// Chip is a small labelled token inside a cell.
type Chip struct {
	Label string
	Tone  format.Tone
}

// Bar is a horizontal progress indicator.
type Bar struct {
	Percent float64
	Tone    format.Tone
}

// Cell is the rendered content of a single table cell.
type Cell struct {
	Text   string
	Tone   format.Tone
	Badge  bool
	Strong bool
	Chips  []Chip
	Bar    *Bar
}

// Text builds a plain text cell.
func Text(s string) Cell { return Cell{Text: s} }

// Toned builds a coloured text cell.
func Toned(s string, tone format.Tone) Cell { return Cell{Text: s, Tone: tone} }

// Badge builds a badge cell.
func Badge(s string, tone format.Tone) Cell { return Cell{Text: s, Tone: tone, Badge: true} }

// Strong builds an emphasised text cell.
func Strong(s string) Cell { return Cell{Text: s, Strong: true} }

// String flattens the cell for plain-text output.
func (c Cell) String() string {
	if len(c.Chips) > 0 {
		out := ""
		for i, chip := range c.Chips {
			if i > 0 {
				out += "; "
			}
			out += chip.Label
		}
		return out
	}
	return c.Text
}

// RenderFunc renders a cell from the raw field value and the full row.
type RenderFunc[R any] func(value any, row R) Cell

// Column describes one table column.
type Column[R any] struct {
	Key    string
	Header string
	Width  string
	Render RenderFunc[R]
}

// Option configures a Table.
type Option[R any] func(*Table[R])

// WithRowID overrides row identity, which defaults to the row's "id" field.
func WithRowID[R any](fn func(R) string) Option[R] {
	return func(t *Table[R]) { t.rowID = fn }
}

// WithRowClick registers the row activation callback.
func WithRowClick[R any](fn func(R)) Option[R] {
	return func(t *Table[R]) { t.onRowClick = fn }
}

// Table renders rows of R.
type Table[R any] struct {
	columns    []Column[R]
	shape      Shape
	rowID      func(R) string
	onRowClick func(R)
}

// New validates columns against R and builds a table.
func New[R any](columns []Column[R], opts ...Option[R]) (*Table[R], error) {
	shape, err := ShapeOf[R]()
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table: %s has no columns", shape.Name())
	}
	for i, col := range columns {
		if col.Key == "" {
			return nil, fmt.Errorf("table: column %d of %s has an empty key", i, shape.Name())
		}
		if col.Render == nil && !shape.Has(col.Key) {
			return nil, fmt.Errorf("%w: %q on %s", ErrUnknownKey, col.Key, shape.Name())
		}
	}
	t := &Table[R]{columns: columns, shape: shape}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Must is New that panics on invalid column definitions.
func Must[R any](columns []Column[R], opts ...Option[R]) *Table[R] {
	t, err := New(columns, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Columns returns the configured columns.
func (t *Table[R]) Columns() []Column[R] { return t.columns }

// Header is a rendered column header.
type Header struct {
	Key   string
	Label string
	Width string
}

// Row is a rendered row.
type Row struct {
	ID    string
	Cells []Cell
}

// View is the render-ready state of a table.
type View struct {
	Loading      bool
	Empty        bool
	EmptyMessage string
	Clickable    bool
	Headers      []Header
	Rows         []Row
}

// HasRows reports whether the view carries data rows.
func (v View) HasRows() bool { return !v.Loading && !v.Empty && len(v.Rows) > 0 }

// View renders rows. Loading takes precedence over data; an empty slice renders
// only emptyMessage.
func (t *Table[R]) View(rows []R, loading bool, emptyMessage string) View {
	if loading {
		return View{Loading: true}
	}
	if len(rows) == 0 {
		return View{Empty: true, EmptyMessage: emptyMessage}
	}
	view := View{
		Clickable: t.onRowClick != nil,
		Headers:   make([]Header, len(t.columns)),
		Rows:      make([]Row, len(rows)),
	}
	for i, col := range t.columns {
		view.Headers[i] = Header{Key: col.Key, Label: col.Header, Width: col.Width}
	}
	for i, row := range rows {
		cells := make([]Cell, len(t.columns))
		for j, col := range t.columns {
			value := t.shape.Value(row, col.Key)
			if col.Render != nil {
				cells[j] = col.Render(value, row)
				continue
			}
			cells[j] = Text(Stringify(value))
		}
		view.Rows[i] = Row{ID: t.RowID(row, i), Cells: cells}
	}
	return view
}

// RowID returns the identity of row at position index.
func (t *Table[R]) RowID(row R, index int) string {
	if t.rowID != nil {
		return t.rowID(row)
	}
	if t.shape.Has("id") {
		if v := t.shape.Value(row, "id"); v != nil {
			if id := Stringify(v); id != "" {
				return id
			}
		}
	}
	return fmt.Sprintf("row-%d", index)
}

// Click invokes the row callback for the row whose identity is id. It reports
// whether a row was activated.
func (t *Table[R]) Click(rows []R, id string) bool {
	if t.onRowClick == nil {
		return false
	}
	for i, row := range rows {
		if t.RowID(row, i) == id {
			t.onRowClick(row)
			return true
		}
	}
	return false
}
