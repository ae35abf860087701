// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package xbridge

import "sync"

// Event is an externally observable record of a committed transition.
type Event interface {
	EventName() string
}

// Sink receives events after the transition that produced them commits.
type Sink interface {
	Publish(events ...Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(events ...Event)

func (f SinkFunc) Publish(events ...Event) { f(events...) }

// NopSink drops all events.
var NopSink Sink = SinkFunc(func(...Event) {})

// EventLog is an in-memory Sink that keeps every published event in order.
type EventLog struct {
	mu     sync.RWMutex
	events []Event
}

// NewEventLog creates an empty event log
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Publish implements Sink
func (l *EventLog) Publish(events ...Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, events...)
}

// Events returns a copy of all published events.
func (l *EventLog) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Named returns the published events with the given name.
func (l *EventLog) Named(name string) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Event
	for _, e := range l.events {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

// Last returns the most recently published event, or nil.
func (l *EventLog) Last() Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.events) == 0 {
		return nil
	}
	return l.events[len(l.events)-1]
}

// Reset drops all recorded events.
func (l *EventLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}
