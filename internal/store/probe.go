package store

import (
	"context"
	"strings"

	"github.com/achapweske/silvernote/internal/logging"
	"github.com/achapweske/silvernote/internal/registry"
)

// MemoryURI names a private in-memory store.
const MemoryURI = "sqlite::memory:"

// Probe claims "sqlite://<path>" and MemoryURI targets.
type Probe struct {
	Clock  Clock
	Logger logging.Logger
}

func (p Probe) TryOpen(ctx context.Context, t registry.Target) (*Store, bool, error) {
	var path string
	switch {
	case strings.EqualFold(t.URI, MemoryURI):
		path = ":memory:"
	case t.Scheme() == "sqlite" && strings.HasPrefix(t.URI[len("sqlite"):], "://"):
		path = t.URI[len("sqlite://"):]
		if path == "" {
			return nil, false, nil
		}
	default:
		return nil, false, nil
	}

	s, err := Open(ctx, path, Options{
		User:   t.User,
		Secret: t.Secret,
		Clock:  p.Clock,
		Logger: p.Logger,
	})
	if err != nil {
		return nil, true, err
	}
	return s, true, nil
}
