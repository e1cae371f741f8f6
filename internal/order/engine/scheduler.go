package engine

import (
	"container/heap"
	"sync"
	"time"

	"github.com/zestora/zestora-orders/internal/pkg/clock"
)

// fireKind identifies what a scheduled entry does when it comes due.
type fireKind int

const (
	fireHandoff     fireKind = iota // preparing -> out_for_delivery
	fireDeliver                     // out_for_delivery -> delivered
	firePartnerTick                 // advance the simulated partner position
)

// entry is one pending timer: at fireAt, apply kind to orderID.
type entry struct {
	fireAt  time.Time
	orderID string
	kind    fireKind
	seq     uint64
}

// scheduler owns a min-heap of timer entries for all orders and drives them
// from a single goroutine, instead of one ad-hoc timer per order. Entries
// are fire-and-forget: a fired entry for an order that has since reached a
// terminal state is a no-op at the engine layer.
type scheduler struct {
	clk  clock.Clock
	fire func(entry)

	mu      sync.Mutex
	entries entryHeap
	seq     uint64

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

func newScheduler(clk clock.Clock, fire func(entry)) *scheduler {
	return &scheduler{
		clk:  clk,
		fire: fire,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// schedule enqueues an entry and wakes the run loop. fireAt may be in the
// past; the entry then fires on the next loop iteration.
func (s *scheduler) schedule(fireAt time.Time, orderID string, kind fireKind) {
	s.mu.Lock()
	s.seq++
	heap.Push(&s.entries, entry{fireAt: fireAt, orderID: orderID, kind: kind, seq: s.seq})
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *scheduler) start() {
	s.wg.Add(1)
	go s.run()
}

func (s *scheduler) stop() {
	close(s.done)
	s.wg.Wait()
}

func (s *scheduler) run() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		var timer <-chan time.Time
		if len(s.entries) > 0 {
			wait := s.entries[0].fireAt.Sub(s.clk.Now())
			if wait < 0 {
				wait = 0
			}
			timer = s.clk.After(wait)
		}
		s.mu.Unlock()

		if timer == nil {
			select {
			case <-s.done:
				return
			case <-s.wake:
			}
			continue
		}

		select {
		case <-s.done:
			return
		case <-s.wake:
			// Re-evaluate: a nearer entry may have been scheduled.
		case <-timer:
			s.fireDue()
		}
	}
}

// fireDue pops and fires every entry whose deadline has passed. Callbacks
// run without the scheduler lock held so they may schedule new entries.
func (s *scheduler) fireDue() {
	for {
		s.mu.Lock()
		if len(s.entries) == 0 || s.entries[0].fireAt.After(s.clk.Now()) {
			s.mu.Unlock()
			return
		}
		due := heap.Pop(&s.entries).(entry)
		s.mu.Unlock()
		s.fire(due)
	}
}

// entryHeap orders entries by deadline, then insertion order.
type entryHeap []entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].fireAt.Equal(h[j].fireAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].fireAt.Before(h[j].fireAt)
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(entry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
