package reports

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Entry is one key of a JSON object.
type Entry[V any] struct {
	Key   string
	Value V
}

// Ordered decodes a JSON object keeping a stable, browser-compatible key
// order: integer keys ascending first, then the remaining keys as written.
type Ordered[V any] []Entry[V]

// UnmarshalJSON implements json.Unmarshaler.
func (o *Ordered[V]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("reports: expected object, got %v", tok)
	}
	var numeric, named []Entry[V]
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("reports: unexpected object key %v", tok)
		}
		var value V
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("reports: decode %q: %w", key, err)
		}
		entry := Entry[V]{Key: key, Value: value}
		if isIndexKey(key) {
			numeric = append(numeric, entry)
			continue
		}
		named = append(named, entry)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	sort.SliceStable(numeric, func(i, j int) bool {
		a, _ := strconv.ParseUint(numeric[i].Key, 10, 32)
		b, _ := strconv.ParseUint(numeric[j].Key, 10, 32)
		return a < b
	})
	*o = append(numeric, named...)
	return nil
}

func isIndexKey(key string) bool {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return false
	}
	_, err := strconv.ParseUint(key, 10, 32)
	return err == nil
}

// Values returns the entry values in order.
func (o Ordered[V]) Values() []V {
	out := make([]V, len(o))
	for i, e := range o {
		out[i] = e.Value
	}
	return out
}
