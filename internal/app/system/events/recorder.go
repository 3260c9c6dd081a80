package events

import (
	"context"
	"sync"
)

// Published is one event captured by a Recorder.
type Published struct {
	Key   string
	Event any
}

// Recorder keeps published events in memory. Handler tests use it to
// assert on side effects.
type Recorder struct {
	mu     sync.Mutex
	events []Published
}

func (r *Recorder) Publish(_ context.Context, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Published{Key: key, Event: event})
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of what has been published so far.
func (r *Recorder) Events() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Published(nil), r.events...)
}
