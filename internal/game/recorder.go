package game

import (
	"context"

	"github.com/jason-s-yu/undercover/internal/models"
)

// Recorder receives one record per committed command. Sessions call Record
// while holding their lock, in commit order, so implementations must not
// block; cache.ActionQueue only enqueues.
type Recorder interface {
	Record(ctx context.Context, rec models.ActionRecord) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, rec models.ActionRecord) error

// Record calls f.
func (f RecorderFunc) Record(ctx context.Context, rec models.ActionRecord) error {
	return f(ctx, rec)
}
