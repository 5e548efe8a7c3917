// Package filter defines report filter fields, the applied filter set and the
// parsing of submitted filter forms.
package filter

import (
	"net/url"
	"sort"
	"strings"
)

// Set holds applied filter values keyed by field name. Empty values are
// treated as absent.
type Set map[string]string

// Get returns the value for name.
func (s Set) Get(name string) string { return s[name] }

// Has reports whether name carries a non-empty value.
func (s Set) Has(name string) bool { return s[name] != "" }

// HasAll reports whether every name carries a non-empty value.
func (s Set) HasAll(names ...string) bool {
	for _, name := range names {
		if !s.Has(name) {
			return false
		}
	}
	return true
}

// With returns a copy of s with name set to value.
func (s Set) With(name, value string) Set {
	out := s.Clone()
	if value == "" {
		delete(out, name)
		return out
	}
	out[name] = value
	return out
}

// Clone copies s, dropping empty values.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Values converts s to query parameters.
func (s Set) Values() url.Values {
	values := url.Values{}
	for k, v := range s {
		if v != "" {
			values.Set(k, v)
		}
	}
	return values
}

// Canonical renders s in a stable form: sorted keys, escaped values, empties removed.
func (s Set) Canonical() string {
	keys := make([]string, 0, len(s))
	for k, v := range s {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(s[k]))
	}
	return b.String()
}

// Equal reports whether both sets hold the same non-empty values.
func (s Set) Equal(other Set) bool {
	return s.Canonical() == other.Canonical()
}
