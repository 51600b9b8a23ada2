package store

import (
	"context"

	"github.com/roach88/freight/internal/cargo"
)

// Emission is one flush of a store.
type Emission struct {
	Store string
	Seq   int64
	Cargo cargo.Cargo
}

// Recorder observes flushes. Record runs on the dispatching goroutine
// before listeners are notified; a failure is logged and does not stop
// the broadcast.
type Recorder interface {
	Record(ctx context.Context, e Emission) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, e Emission) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, e Emission) error {
	return f(ctx, e)
}
