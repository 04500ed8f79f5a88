package recorder

import (
	"context"

	"github.com/couchcryptid/farm-yield-sim/internal/domain"
)

// NoopRecorder is used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) Name() string                              { return "noop" }
func (n *NoopRecorder) Publish(context.Context, domain.Run) error { return nil }
func (n *NoopRecorder) Close() error                              { return nil }
