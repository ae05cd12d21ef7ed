// Package events publishes ledger notifications to a message broker.
// Publishing is best effort: the month close has already committed when a
// message is sent, so a failed publish is logged and never rolled back.
package events

import (
	"context"
	"sync"
)

// Publisher sends ledger events.
type Publisher interface {
	PublishMonthClosed(ctx context.Context, msg *MonthClosed) error
	Close() error
}

// NoopPublisher discards every event. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishMonthClosed(context.Context, *MonthClosed) error { return nil }
func (NoopPublisher) Close() error                                           { return nil }

// Recorder keeps published events in memory. Tests use it to observe what a
// service emitted.
type Recorder struct {
	mu     sync.Mutex
	events []MonthClosed
	Err    error
}

// PublishMonthClosed records msg, or returns Err when it is set.
func (r *Recorder) PublishMonthClosed(_ context.Context, msg *MonthClosed) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, *msg)
	return nil
}

// Close implements Publisher.
func (r *Recorder) Close() error { return nil }

// Events returns a copy of the recorded messages.
func (r *Recorder) Events() []MonthClosed {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]MonthClosed(nil), r.events...)
}
