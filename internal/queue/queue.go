// Package queue provides the thread-safe FIFO buffer between the mailbox
// poller and the fulfillment workers. Polling cadence must never stall on
// processing latency, so producers enqueue without blocking while consumers
// block until work arrives.
package queue

import (
	"context"
	"sync"

	"claim-intake-go/internal/mail"
)

// IngestionQueue is an unbounded FIFO of claim submissions. Enqueue and
// Dequeue are safe for concurrent use from any number of goroutines; arrival
// order is preserved.
type IngestionQueue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []mail.ClaimSubmission
}

// New creates an empty ingestion queue.
func New() *IngestionQueue {
	q := &IngestionQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends a submission to the tail of the queue and wakes one
// waiting consumer. It never blocks.
func (q *IngestionQueue) Enqueue(sub mail.ClaimSubmission) {
	q.mu.Lock()
	q.items = append(q.items, sub)
	q.mu.Unlock()
	q.cond.Signal()
}

// Dequeue removes and returns the submission at the head of the queue,
// blocking until one is available or ctx is done.
func (q *IngestionQueue) Dequeue(ctx context.Context) (mail.ClaimSubmission, error) {
	// Wake any Wait below when the caller gives up.
	stop := context.AfterFunc(ctx, func() {
		q.cond.Broadcast()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		if err := ctx.Err(); err != nil {
			return mail.ClaimSubmission{}, err
		}
		q.cond.Wait()
	}

	sub := q.items[0]
	q.items = q.items[1:]
	return sub, nil
}

// TryDequeue removes and returns the head submission without blocking. The
// second return value reports whether an item was available.
func (q *IngestionQueue) TryDequeue() (mail.ClaimSubmission, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return mail.ClaimSubmission{}, false
	}
	sub := q.items[0]
	q.items = q.items[1:]
	return sub, true
}

// Size returns the current number of queued submissions. It never blocks
// producers or consumers beyond the internal mutex.
func (q *IngestionQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
