package trace

import (
	"strings"
	"sync"
)

// Recorder keeps events in memory. The concurrent driver gives each sentence
// its own Recorder and replays them in corpus order.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Write appends e.
func (r *Recorder) Write(e Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

// Close is a no-op.
func (r *Recorder) Close() error { return nil }

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Replay writes the recorded events to s without closing it.
func (r *Recorder) Replay(s Sink) error {
	for _, e := range r.Events() {
		if err := s.Write(e); err != nil {
			return err
		}
	}
	return nil
}

// Text renders the recorded events as the text trace does.
func (r *Recorder) Text() string {
	var b strings.Builder
	for _, e := range r.Events() {
		b.WriteString(Line(e))
		b.WriteByte('\n')
	}
	return b.String()
}
