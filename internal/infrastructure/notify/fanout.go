package notify

import (
	"context"
	"errors"

	"github.com/vid-verifier/internal/domain"
)

// Sink delivers one notification to one destination.
type Sink interface {
	Notify(ctx context.Context, note domain.Notification) error
}

// Fanout delivers every notification to all sinks. A failing sink does not
// stop the others; their errors are joined.
type Fanout struct {
	sinks []Sink
}

func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

func (f *Fanout) Notify(ctx context.Context, note domain.Notification) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Notify(ctx, note); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
