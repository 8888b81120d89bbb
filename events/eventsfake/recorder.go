package eventsfake

import (
	"context"
	"sync"

	"github.com/jrsteele09/bookstore-auth/events"
)

var _ events.Publisher = (*Recorder)(nil)

// Recorder keeps every published event in memory. Err, when set, is
// returned from Publish after the event is recorded.
type Recorder struct {
	Err error

	lock   sync.Mutex
	events []events.Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, event events.Event) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.events = append(r.events, event)
	return r.Err
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []events.Event {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := make([]events.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types lists recorded event types in publish order
func (r *Recorder) Types() []events.Type {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
