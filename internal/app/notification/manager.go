// Package notification provides the notification manager for broadcasting
// playback events.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/fanmade/nowplaying/internal/app/playback"
)

// sendTimeout bounds a single stream send during Broadcast.
const sendTimeout = 500 * time.Millisecond

// Notification is a playback event stamped for delivery.
type Notification struct {
	SequenceNo uint64
	Time       time.Time
	Event      playback.Event
}

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(*Notification) error
}

// StreamFunc adapts a function to a Stream.
type StreamFunc func(*Notification) error

// Send calls f(n).
func (f StreamFunc) Send(n *Notification) error {
	return f(n)
}

// subscription represents a subscriber's subscription.
type subscription struct {
	id     string
	stream Stream
}

// Manager manages notification subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sequenceNo    uint64
	sequenceNoMu  sync.Mutex
	now           func() time.Time
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
		now:           time.Now,
	}
}

// Subscribe adds a new subscription and returns the subscription ID.
func (m *Manager) Subscribe(stream Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{
		id:     id,
		stream: stream,
	}
	zlog.Debug().Msgf("notification: subscribed: id=%s", id)
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// Broadcast stamps e with the next sequence number and sends it to all
// subscribers. Sends run in parallel; a subscriber that does not accept the
// notification within sendTimeout is skipped.
func (m *Manager) Broadcast(e playback.Event) *Notification {
	n := m.stamp(e)

	var wg sync.WaitGroup
	for _, sub := range m.snapshot() {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			s.deliver(n)
		}(sub)
	}
	wg.Wait()

	return n
}

func (m *Manager) stamp(e playback.Event) *Notification {
	m.sequenceNoMu.Lock()
	defer m.sequenceNoMu.Unlock()
	m.sequenceNo++
	return &Notification{SequenceNo: m.sequenceNo, Time: m.now(), Event: e}
}

// snapshot copies the subscriptions so no lock is held during sends.
func (m *Manager) snapshot() []*subscription {
	m.mu.RLock()
	defer m.mu.RUnlock()
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	return subs
}

// deliver sends n, giving up after sendTimeout. A send that times out keeps
// running in the background until the stream returns.
func (s *subscription) deliver(n *Notification) {
	done := make(chan error, 1)
	go func() {
		done <- s.stream.Send(n)
	}()

	timer := time.NewTimer(sendTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			zlog.Warn().Err(err).Msgf("notification: send failed: id=%s seq=%d", s.id, n.SequenceNo)
		}
	case <-timer.C:
		zlog.Warn().Msgf("notification: send timed out: id=%s seq=%d", s.id, n.SequenceNo)
	}
}

// Pump broadcasts every event read from events until the channel is closed
// or ctx ends.
func (m *Manager) Pump(ctx context.Context, events <-chan playback.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				zlog.Debug().Msg("notification: event channel closed")
				return
			}
			m.Broadcast(e)
		}
	}
}

// Send sends an event to a specific subscriber without consuming a
// sequence number. Unknown subscribers are ignored.
func (m *Manager) Send(subscriptionID string, e playback.Event) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, ok := m.subscriptions[subscriptionID]
	if !ok {
		return nil
	}

	return sub.stream.Send(&Notification{Time: m.now(), Event: e})
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close closes the manager and removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
}
