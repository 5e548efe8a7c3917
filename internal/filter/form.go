package filter

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind is the input type of a filter field.
type Kind string

// Supported field kinds.
const (
	KindText   Kind = "text"
	KindDate   Kind = "date"
	KindNumber Kind = "number"
	KindSelect Kind = "select"
)

// Request parameters that drive the filter form protocol.
const (
	ApplyParam   = "_apply"
	ClearParam   = "_clear"
	RefreshParam = "_refresh"
)

// Option is one choice of a select field.
type Option struct {
	Label string
	Value string
}

// Field describes one filter input.
type Field struct {
	Name        string
	Label       string
	Kind        Kind
	Placeholder string
	Options     []Option
	Min         string
	Max         string
}

// Control is the render-ready state of a field.
type Control struct {
	Field
	Value string
}

// Selected reports whether option is the current value of a select control.
func (c Control) Selected(option Option) bool { return c.Value == option.Value }

// Action is what a filter submission asks for.
type Action int

// Filter actions.
const (
	ActionDefaults Action = iota
	ActionApply
	ActionClear
)

// Form is an ordered list of fields.
type Form struct {
	fields   []Field
	validate *validator.Validate
}

// NewForm builds a form.
func NewForm(fields ...Field) *Form {
	return &Form{fields: fields, validate: validator.New()}
}

// Fields returns the form fields.
func (f *Form) Fields() []Field {
	if f == nil {
		return nil
	}
	return f.fields
}

// Field looks up a field by name.
func (f *Form) Field(name string) (Field, bool) {
	for _, field := range f.Fields() {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Parse converts submitted values into a Set. Empty values are dropped, numbers
// that do not parse are dropped and select values outside the option list are
// dropped. Dates pass through as entered.
func (f *Form) Parse(values url.Values) Set {
	out := Set{}
	for _, field := range f.Fields() {
		raw := strings.TrimSpace(values.Get(field.Name))
		if raw == "" {
			continue
		}
		switch field.Kind {
		case KindNumber:
			n, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
				continue
			}
		case KindSelect:
			if !f.allowed(field, raw) {
				continue
			}
		}
		out[field.Name] = raw
	}
	return out
}

func (f *Form) allowed(field Field, value string) bool {
	choices := make([]string, 0, len(field.Options))
	for _, opt := range field.Options {
		if opt.Value == "" {
			continue
		}
		if strings.ContainsAny(opt.Value, " ,'") {
			return containsOption(field.Options, value)
		}
		choices = append(choices, opt.Value)
	}
	if len(choices) == 0 {
		return false
	}
	return f.validate.Var(value, "oneof="+strings.Join(choices, " ")) == nil
}

func containsOption(options []Option, value string) bool {
	for _, opt := range options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// Clear returns the empty filter set.
func (f *Form) Clear() Set { return Set{} }

// Resolve decides which filter set a request applies. Clear wins over apply;
// a request with neither uses defaults.
func (f *Form) Resolve(values url.Values, defaults Set) (Set, Action) {
	switch {
	case values.Get(ClearParam) != "":
		return f.Clear(), ActionClear
	case values.Get(ApplyParam) != "":
		return f.Parse(values), ActionApply
	default:
		return defaults.Clone(), ActionDefaults
	}
}

// Controls builds the input state for current.
func (f *Form) Controls(current Set) []Control {
	fields := f.Fields()
	controls := make([]Control, len(fields))
	for i, field := range fields {
		controls[i] = Control{Field: field, Value: current.Get(field.Name)}
	}
	return controls
}
