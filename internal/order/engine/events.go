package engine

import (
	"sync"
	"time"

	"github.com/zestora/zestora-orders/internal/order/domain"
)

// Event announces a status change. The engine knows nothing about toasts or
// sockets; consumers subscribe and render notifications at their own layer.
type Event struct {
	OrderID string        `json:"order_id"`
	Status  domain.Status `json:"status"`
	At      time.Time     `json:"at"`
}

const eventBuffer = 16

type subscribers struct {
	mu     sync.Mutex
	next   int
	chans  map[int]chan Event
	closed bool
}

func newSubscribers() *subscribers {
	return &subscribers{chans: make(map[int]chan Event)}
}

func (s *subscribers) subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	ch := make(chan Event, eventBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	s.chans[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.chans[id]; ok {
			delete(s.chans, id)
			close(sub)
		}
	}
	return ch, cancel
}

// publish delivers the event to every subscriber without blocking; a
// subscriber that has fallen eventBuffer events behind misses this one.
func (s *subscribers) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.chans {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *subscribers) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.chans {
		delete(s.chans, id)
		close(ch)
	}
}
