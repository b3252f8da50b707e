// Package registry selects a backend for a store URI. Each backend
// registers a probe that claims or declines a target; probes are tried in
// registration order and the first claim wins.
package registry

import (
	"context"
	"fmt"
	"strings"
)

// Target identifies the store to open.
type Target struct {
	URI    string
	User   string
	Secret string
}

// Scheme returns the URI scheme ("sqlite" for "sqlite://notes.db"), or ""
// when the URI has none.
func (t Target) Scheme() string {
	scheme, _, ok := strings.Cut(t.URI, ":")
	if !ok {
		return ""
	}
	return strings.ToLower(scheme)
}

// Probe opens the stores it recognizes. A probe that declines returns
// ok=false and no error. A probe that claims the target but cannot open it
// returns ok=true with the error.
type Probe[S any] interface {
	TryOpen(ctx context.Context, t Target) (store S, ok bool, err error)
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc[S any] func(ctx context.Context, t Target) (S, bool, error)

func (f ProbeFunc[S]) TryOpen(ctx context.Context, t Target) (S, bool, error) {
	return f(ctx, t)
}

// Registry is an ordered list of probes.
type Registry[S any] struct {
	probes []Probe[S]
}

func New[S any](probes ...Probe[S]) *Registry[S] {
	return &Registry[S]{probes: probes}
}

// Register appends p; it is tried after every probe registered before it.
func (r *Registry[S]) Register(p Probe[S]) {
	r.probes = append(r.probes, p)
}

// Open returns the store of the first probe that claims t. ok is false
// when no probe claims it.
func (r *Registry[S]) Open(ctx context.Context, t Target) (S, bool, error) {
	var zero S
	for _, p := range r.probes {
		s, ok, err := p.TryOpen(ctx, t)
		if !ok {
			continue
		}
		if err != nil {
			return zero, true, fmt.Errorf("open %s: %w", t.URI, err)
		}
		return s, true, nil
	}
	return zero, false, nil
}
