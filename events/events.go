// Package events carries the structured records the ledger emits for
// off-ledger indexing. Events are notifications only; the core never reads
// them back.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Event is one emitted record.
type Event struct {
	ID     string // unique event id
	Type   string // e.g. "AssetRegistered", "LeaseMinted"
	Time   time.Time
	Fields map[string]any
}

// Emitter receives emitted events.
type Emitter interface {
	Emit(evt Event)
}

// New builds an event with a fresh id and timestamp.
func New(evtType string, fields map[string]any) Event {
	return Event{
		ID:     uuid.NewString(),
		Type:   evtType,
		Time:   time.Now().UTC(),
		Fields: fields,
	}
}

// Discard drops every event. Components treat it as the nil emitter.
type Discard struct{}

// Emit implements Emitter.
func (Discard) Emit(Event) {}

// LogEmitter writes events as structured log lines.
type LogEmitter struct {
	Logger *logrus.Logger
}

// Emit implements Emitter.
func (e *LogEmitter) Emit(evt Event) {
	if e.Logger == nil {
		return
	}
	e.Logger.WithFields(logrus.Fields(evt.Fields)).
		WithField("event_id", evt.ID).
		Info(evt.Type)
}

// Recorder captures events in memory for tests and backfills.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements Emitter.
func (r *Recorder) Emit(evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// ByType returns recorded events of one type, oldest first.
func (r *Recorder) ByType(evtType string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, evt := range r.events {
		if evt.Type == evtType {
			out = append(out, evt)
		}
	}
	return out
}

// Multi fans one event out to several emitters.
type Multi []Emitter

// Emit implements Emitter.
func (m Multi) Emit(evt Event) {
	for _, e := range m {
		e.Emit(evt)
	}
}
