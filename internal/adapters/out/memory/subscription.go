package memory

import (
	"context"
	"sync"

	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/ports"
)

// subscription decouples publishers from a slow consumer with an unbounded
// queue, so a write never blocks on a subscriber and no event is dropped.
type subscription struct {
	status task.Status

	mu    sync.Mutex
	queue []ports.TaskEvent
	wake  chan struct{}
	out   chan ports.TaskEvent
}

func newSubscription(status task.Status) *subscription {
	return &subscription{
		status: status,
		wake:   make(chan struct{}, 1),
		out:    make(chan ports.TaskEvent),
	}
}

func (s *subscription) push(ev ports.TaskEvent) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscription) run(ctx context.Context) {
	defer close(s.out)

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
				continue
			}
		}
		ev := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- ev:
		case <-ctx.Done():
			return
		}
	}
}
