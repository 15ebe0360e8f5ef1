package queue

import (
	"context"
	"errors"
	"sync"
)

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Handler consumes one message.
type Handler func(ctx context.Context, msg Message)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("queue closed")

// MemoryQueue is an unbounded in-process queue for local runs.
type MemoryQueue struct {
	mu      sync.Mutex
	pending []Message
	closed  bool
	ready   chan struct{}
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{ready: make(chan struct{}, 1)}
}

// Send appends msg; it never blocks.
func (q *MemoryQueue) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.pending = append(q.pending, msg)
	select {
	case q.ready <- struct{}{}:
	default:
	}
	return nil
}

// Len reports the number of queued messages.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close stops accepting messages. Workers drain what is queued, then Run returns.
func (q *MemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ready)
}

// Run consumes messages with up to workers goroutines until ctx ends or the
// queue is closed and drained.
func (q *MemoryQueue) Run(ctx context.Context, workers int, h Handler) {
	if workers < 1 {
		workers = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				msg, ok := q.next(ctx)
				if !ok {
					return
				}
				h(ctx, msg)
			}
		}()
	}
	wg.Wait()
}

func (q *MemoryQueue) next(ctx context.Context) (Message, bool) {
	for {
		q.mu.Lock()
		if len(q.pending) > 0 {
			msg := q.pending[0]
			q.pending = q.pending[1:]
			if len(q.pending) > 0 && !q.closed {
				select {
				case q.ready <- struct{}{}:
				default:
				}
			}
			q.mu.Unlock()
			return msg, true
		}
		if q.closed {
			q.mu.Unlock()
			return Message{}, false
		}
		q.mu.Unlock()

		select {
		case <-q.ready:
		case <-ctx.Done():
			return Message{}, false
		}
	}
}

var _ Client = (*MemoryQueue)(nil)
