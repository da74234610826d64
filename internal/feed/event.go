package feed

import "sync"

// EventKind tells a consumer how much of its view is stale.
type EventKind int

// Event kinds. The zero value asks for a full reload.
const (
	FullReload EventKind = iota
	Appended
	UpdatedAt
)

func (k EventKind) String() string {
	switch k {
	case Appended:
		return "appended"
	case UpdatedAt:
		return "updated_at"
	default:
		return "full_reload"
	}
}

// Event describes the minimal change applied to the collection.
// Appended covers indices [Start, End); UpdatedAt refers to Index.
type Event struct {
	Kind  EventKind
	Start int
	End   int
	Index int
}

// Rows returns the indices touched by an Appended or UpdatedAt event.
func (ev Event) Rows() []int {
	switch ev.Kind {
	case Appended:
		rows := make([]int, 0, ev.End-ev.Start)
		for i := ev.Start; i < ev.End; i++ {
			rows = append(rows, i)
		}
		return rows
	case UpdatedAt:
		return []int{ev.Index}
	default:
		return nil
	}
}

// Subscription delivers published values in order. Its queue is unbounded
// so a slow reader never stalls the publisher.
type Subscription[T any] struct {
	hub   *Hub[T]
	out   chan T
	wake  chan struct{}
	done  chan struct{}
	once  sync.Once
	mu    sync.Mutex
	queue []T
}

// C returns the delivery channel. It is closed after Close.
func (s *Subscription[T]) C() <-chan T {
	return s.out
}

// Close unsubscribes and drops undelivered values.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.done)
	})
}

func (s *Subscription[T]) push(v T) {
	s.mu.Lock()
	s.queue = append(s.queue, v)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription[T]) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.queue = nil
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}
		v := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- v:
		case <-s.done:
			return
		}
	}
}

// Hub fans values out to subscribers. The zero value is ready to use.
type Hub[T any] struct {
	mu   sync.Mutex
	subs map[*Subscription[T]]struct{}
}

func (h *Hub[T]) Subscribe() *Subscription[T] {
	s := &Subscription[T]{
		hub:  h,
		out:  make(chan T),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.subs == nil {
		h.subs = make(map[*Subscription[T]]struct{})
	}
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	go s.pump()
	return s
}

func (h *Hub[T]) remove(s *Subscription[T]) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		s.push(v)
	}
}
