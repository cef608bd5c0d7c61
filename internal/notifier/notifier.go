// Package notifier fans re-validation events out to subscribers, such as the
// HTTP event stream.
package notifier

import (
	"sync"
	"time"

	"github.com/leapstack-labs/cptcheck/internal/engine"
)

// Event reports one round of re-validation.
type Event struct {
	Time    time.Time        `json:"time" yaml:"time"`
	Results []*engine.Result `json:"results" yaml:"results"`
	Summary engine.Summary   `json:"summary" yaml:"summary"`
}

// NewEvent builds an event for results, stamped now.
func NewEvent(results []*engine.Result) Event {
	return Event{
		Time:    time.Now().UTC(),
		Results: results,
		Summary: engine.Summarize(results),
	}
}

// Notifier broadcasts events to all subscribed listeners.
// A slow listener keeps only the most recent event.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan Event]struct{}
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan Event]struct{}),
	}
}

// Subscribe returns a channel that receives events.
// The caller must call Unsubscribe when done.
func (n *Notifier) Subscribe() chan Event {
	ch := make(chan Event, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it. Unsubscribing twice
// is a no-op.
func (n *Notifier) Unsubscribe(ch chan Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.listeners[ch]; !ok {
		return
	}
	delete(n.listeners, ch)
	close(ch)
}

// Count returns the number of listeners.
func (n *Notifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}

// Broadcast sends ev to all listeners without blocking. A listener whose
// buffer is full has its pending event replaced.
func (n *Notifier) Broadcast(ev Event) {
	// Write lock: replacing a pending event drains the channel, which must
	// not race with another Broadcast.
	n.mu.Lock()
	defer n.mu.Unlock()

	for ch := range n.listeners {
		select {
		case ch <- ev:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}
