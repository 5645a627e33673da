package events

import (
	"context"

	"go.uber.org/multierr"
)

// Fanout sends every event to all of its sinks, even when some of them fail.
type Fanout struct {
	sinks []Publisher
}

// NewFanout builds a Fanout over the given sinks. Nil sinks are ignored.
func NewFanout(sinks ...Publisher) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Add registers another sink.
func (f *Fanout) Add(p Publisher) {
	if p != nil {
		f.sinks = append(f.sinks, p)
	}
}

// Len returns the number of sinks.
func (f *Fanout) Len() int { return len(f.sinks) }

// Publish implements Publisher. The returned error combines the failures of
// every sink.
func (f *Fanout) Publish(ctx context.Context, e Event) error {
	var err error
	for _, s := range f.sinks {
		err = multierr.Append(err, s.Publish(ctx, e))
	}
	return err
}
