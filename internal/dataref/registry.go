// Package dataref provides a flat, path-keyed namespace of typed scalar
// signals.
//
// Paths are dot-separated (for example "input.controls.roll"). A path is
// registered exactly once; every later lookup returns a handle to the same
// cell so that producers and consumers can bind by name without knowing
// about each other.
package dataref

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is the payload type of a cell.
type Kind int

const (
	Invalid Kind = iota
	Double
	Bool
)

func (k Kind) String() string {
	switch k {
	case Double:
		return "double"
	case Bool:
		return "bool"
	default:
		return "invalid"
	}
}

// InitError reports a registration that cannot be honoured. It is a
// configuration error and is not expected to be recovered from.
type InitError struct {
	Path   string
	Reason string
}

func (e *InitError) Error() string {
	return fmt.Sprintf("dataref: cannot register %q: %s", e.Path, e.Reason)
}

// cell holds exactly one payload, selected by kind.
type cell struct {
	kind Kind
	f    float64
	b    bool
}

// Ref is a read/write handle to a registered cell. The zero Ref is invalid.
type Ref struct {
	c *cell
}

func (r Ref) Valid() bool { return r.c != nil && r.c.kind != Invalid }

func (r Ref) Kind() Kind {
	if r.c == nil {
		return Invalid
	}
	return r.c.kind
}

// Float64 returns the value of a Double cell. Bool cells read as 0 or 1.
func (r Ref) Float64() float64 {
	if r.c == nil {
		return 0
	}
	if r.c.kind == Bool {
		if r.c.b {
			return 1
		}
		return 0
	}
	return r.c.f
}

func (r Ref) SetFloat64(v float64) {
	if r.c == nil {
		return
	}
	if r.c.kind == Bool {
		r.c.b = v != 0
		return
	}
	r.c.f = v
}

// Bool returns the value of a Bool cell. Double cells read as v != 0.
func (r Ref) Bool() bool {
	if r.c == nil {
		return false
	}
	if r.c.kind == Double {
		return r.c.f != 0
	}
	return r.c.b
}

func (r Ref) SetBool(v bool) {
	if r.c == nil {
		return
	}
	if r.c.kind == Double {
		if v {
			r.c.f = 1
		} else {
			r.c.f = 0
		}
		return
	}
	r.c.b = v
}

// Float64Ptr exposes the storage of a Double cell, or nil for other kinds.
func (r Ref) Float64Ptr() *float64 {
	if r.c == nil || r.c.kind != Double {
		return nil
	}
	return &r.c.f
}

// BoolPtr exposes the storage of a Bool cell, or nil for other kinds.
func (r Ref) BoolPtr() *bool {
	if r.c == nil || r.c.kind != Bool {
		return nil
	}
	return &r.c.b
}

type Registry struct {
	cells map[string]*cell
}

func NewRegistry() *Registry {
	return &Registry{cells: make(map[string]*cell)}
}

// Add creates a new cell at path.
func (r *Registry) Add(path string, kind Kind) (Ref, error) {
	if kind != Double && kind != Bool {
		return Ref{}, &InitError{Path: path, Reason: "invalid kind " + kind.String()}
	}
	if err := validatePath(path); err != nil {
		return Ref{}, &InitError{Path: path, Reason: err.Error()}
	}
	if _, ok := r.cells[path]; ok {
		return Ref{}, &InitError{Path: path, Reason: "already registered"}
	}
	c := &cell{kind: kind}
	r.cells[path] = c
	return Ref{c: c}, nil
}

// Get returns the handle registered at path, or an invalid Ref.
func (r *Registry) Get(path string) Ref {
	c, ok := r.cells[path]
	if !ok {
		return Ref{}
	}
	return Ref{c: c}
}

func (r *Registry) Len() int { return len(r.cells) }

// Paths lists every registered path in lexical order.
func (r *Registry) Paths() []string {
	paths := make([]string, 0, len(r.cells))
	for p := range r.cells {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			return fmt.Errorf("empty segment")
		}
		for _, ch := range seg {
			ok := (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') || ch == '_'
			if !ok {
				return fmt.Errorf("invalid character %q", ch)
			}
		}
	}
	return nil
}
