package bouyomi

import (
	"context"
	"sync"
)

// talkQueue is an unbounded FIFO shared by any number of producers and one consumer.
type talkQueue struct {
	mu    sync.Mutex
	items []TalkRequest
	// ready holds a token whenever items may be non-empty.
	ready chan struct{}
}

func newTalkQueue() *talkQueue {
	return &talkQueue{ready: make(chan struct{}, 1)}
}

// push appends req and wakes the consumer. It never blocks.
func (q *talkQueue) push(req TalkRequest) {
	q.mu.Lock()
	q.items = append(q.items, req)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// pop blocks until an item is available or ctx is done.
func (q *talkQueue) pop(ctx context.Context) (TalkRequest, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			req := q.items[0]
			q.items[0] = TalkRequest{}
			q.items = q.items[1:]
			more := len(q.items) > 0
			q.mu.Unlock()
			if more {
				select {
				case q.ready <- struct{}{}:
				default:
				}
			}
			return req, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return TalkRequest{}, ctx.Err()
		case <-q.ready:
		}
	}
}

// drain removes every queued item without waiting and returns how many were dropped.
func (q *talkQueue) drain() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	q.items = nil
	return n
}

func (q *talkQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
