// Package registry maps logical log names to filesystem paths.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNotFound is returned by Resolve for names missing from the registry.
var ErrNotFound = errors.New("log file not found")

// Entry is a single configured log.
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Registry is an ordered, read-only name → path mapping.
// A Registry is never mutated after construction; reload by building a new one.
type Registry struct {
	entries []Entry
	index   map[string]int
}

// New builds a registry from entries in the given order.
// A repeated name keeps its first position and takes the later path.
func New(entries ...Entry) *Registry {
	r := &Registry{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		if i, ok := r.index[e.Name]; ok {
			r.entries[i].Path = e.Path
			continue
		}
		r.index[e.Name] = len(r.entries)
		r.entries = append(r.entries, e)
	}
	return r
}

// Load parses a JSON object of {"name": "path"} pairs.
//
// Load never fails: an empty, malformed or non-object value yields an empty
// registry. Object order is preserved. Scalar values are taken by their
// literal text; null, array and object values are skipped.
func Load(raw string) *Registry {
	r, err := Parse(raw)
	if err != nil {
		return New()
	}
	return r
}

// Parse is Load with the decode error reported.
func Parse(raw string) (*Registry, error) {
	entries, err := decodeObject(json.NewDecoder(strings.NewReader(raw)))
	if err != nil {
		return nil, fmt.Errorf("parse log paths: %w", err)
	}
	return New(entries...), nil
}

func decodeObject(dec *json.Decoder) ([]Entry, error) {
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("log paths must be a JSON object")
	}

	var entries []Entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key %v", tok)
		}
		val, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch v := val.(type) {
		case string:
			entries = append(entries, Entry{Name: name, Path: v})
		case json.Number:
			entries = append(entries, Entry{Name: name, Path: v.String()})
		case bool:
			entries = append(entries, Entry{Name: name, Path: strconv.FormatBool(v)})
		case json.Delim:
			if err := skipValue(dec); err != nil {
				return nil, err
			}
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after log paths object")
	}
	return entries, nil
}

// skipValue consumes tokens up to the delimiter closing the array or object
// whose opening delimiter was just read.
func skipValue(dec *json.Decoder) error {
	for depth := 1; depth > 0; {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			default:
				depth--
			}
		}
	}
	return nil
}

// Resolve returns the path configured for name.
func (r *Registry) Resolve(name string) (string, error) {
	if r != nil {
		if i, ok := r.index[name]; ok {
			return r.entries[i].Path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

// All returns every entry in configuration order.
func (r *Registry) All() []Entry {
	if r == nil {
		return nil
	}
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Names returns the configured names in order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Name
	}
	return names
}

// Len returns the number of configured logs.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// MarshalJSON renders the registry back into its configuration form,
// preserving order.
func (r *Registry) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, e := range r.All() {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Path)
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}
