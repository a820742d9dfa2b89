package notify

import (
	"sync"
)

// SubscriberID identifies one connected observer.
type SubscriberID uint64

// Subscriber buffers events for one observer. Send never blocks: when the
// buffer is full the oldest event is dropped.
type Subscriber struct {
	id       SubscriberID
	events   chan Event
	done     chan struct{}
	doneOnce sync.Once
}

// NewSubscriber creates a subscriber holding up to bufferSize events.
func NewSubscriber(id SubscriberID, bufferSize int) *Subscriber {
	if bufferSize < 1 {
		bufferSize = 64
	}
	return &Subscriber{
		id:     id,
		events: make(chan Event, bufferSize),
		done:   make(chan struct{}),
	}
}

// ID returns the subscriber identifier.
func (s *Subscriber) ID() SubscriberID {
	return s.id
}

// Send queues evt, dropping the oldest queued event if the buffer is full.
func (s *Subscriber) Send(evt Event) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.events <- evt:
	default:
		select {
		case <-s.events:
		default:
		}
		select {
		case s.events <- evt:
		default:
		}
	}
}

// Events returns the channel to receive events from.
func (s *Subscriber) Events() <-chan Event {
	return s.events
}

// Done returns a channel closed when the subscriber ends.
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

// Close ends the subscriber. Safe to call multiple times.
func (s *Subscriber) Close() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}

// Registry tracks live subscribers.
type Registry struct {
	mu   sync.RWMutex
	subs map[SubscriberID]*Subscriber
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{subs: make(map[SubscriberID]*Subscriber)}
}

// Register adds a subscriber.
func (r *Registry) Register(s *Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[s.ID()] = s
}

// Unregister removes a subscriber.
func (r *Registry) Unregister(id SubscriberID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, id)
}

// Count returns the number of registered subscribers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Publish sends evt to every subscriber.
func (r *Registry) Publish(evt Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.subs {
		s.Send(evt)
	}
}
