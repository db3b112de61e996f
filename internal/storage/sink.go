package storage

import (
	"context"

	"github.com/starford/scribe/internal/transcode"
)

// Sink writes transcoded documents as files under a Provider root.
type Sink struct {
	store Provider
}

var _ transcode.Sink = (*Sink)(nil)

// NewSink returns a Sink writing into store.
func NewSink(store Provider) *Sink {
	return &Sink{store: store}
}

// Write stores out.Text at out.Filename.
func (s *Sink) Write(ctx context.Context, out transcode.Output) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.Write(out.Filename, []byte(out.Text))
}
