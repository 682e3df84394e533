// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/runoshun/maestro/internal/event"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
	mu      sync.Mutex
}

// NewMockClock creates a clock frozen at 2024-01-01 00:00 UTC.
func NewMockClock() *MockClock {
	return &MockClock{NowTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.NowTime
}

// Advance moves the clock forward by d.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NowTime = m.NowTime.Add(d)
}

// SequentialIDs is a test double for domain.IDGenerator producing
// "<prefix>_1", "<prefix>_2", ... per prefix.
type SequentialIDs struct {
	next map[string]int
	mu   sync.Mutex
}

// NewSequentialIDs creates a SequentialIDs generator.
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{next: make(map[string]int)}
}

// NewID returns the next id for prefix.
func (g *SequentialIDs) NewID(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next[prefix]++
	return fmt.Sprintf("%s_%d", prefix, g.next[prefix])
}

// EventRecorder captures every event published on a bus.
type EventRecorder struct {
	events []event.Envelope
	mu     sync.Mutex
}

// NewEventRecorder subscribes a recorder to all topics of bus.
func NewEventRecorder(bus *event.Bus) *EventRecorder {
	r := &EventRecorder{}
	event.SubscribeAll(bus, "recorder", func(_ context.Context, env event.Envelope) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, env)
		return nil
	})
	return r
}

// Events returns a copy of the recorded events.
func (r *EventRecorder) Events() []event.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Envelope(nil), r.events...)
}

// Names returns the recorded event names in publish order.
func (r *EventRecorder) Names() []event.Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]event.Name, 0, len(r.events))
	for _, e := range r.events {
		names = append(names, e.Name)
	}
	return names
}

// Count returns how many events named name were recorded.
func (r *EventRecorder) Count(name event.Name) int {
	n := 0
	for _, e := range r.Events() {
		if e.Name == name {
			n++
		}
	}
	return n
}

// Reset forgets recorded events.
func (r *EventRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// LogEntry is one line captured by MockLogger.
type LogEntry struct {
	Level    string
	Scope    string
	Category string
	Msg      string
}

// MockLogger is a test double for domain.Logger.
type MockLogger struct {
	Entries []LogEntry
	mu      sync.Mutex
}

func (l *MockLogger) add(level, scope, category, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, LogEntry{Level: level, Scope: scope, Category: category, Msg: msg})
}

// Debug records a debug entry.
func (l *MockLogger) Debug(scope, category, msg string) { l.add("debug", scope, category, msg) }

// Info records an info entry.
func (l *MockLogger) Info(scope, category, msg string) { l.add("info", scope, category, msg) }

// Warn records a warn entry.
func (l *MockLogger) Warn(scope, category, msg string) { l.add("warn", scope, category, msg) }

// Error records an error entry.
func (l *MockLogger) Error(scope, category, msg string) { l.add("error", scope, category, msg) }

// Find returns entries at level (any level when empty) in category.
func (l *MockLogger) Find(level, category string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []LogEntry
	for _, e := range l.Entries {
		if (level == "" || e.Level == level) && e.Category == category {
			out = append(out, e)
		}
	}
	return out
}
