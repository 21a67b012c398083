package queue

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claim-intake-go/internal/mail"
)

func TestQueueFIFOOrder(t *testing.T) {
	q := New()

	for i := 0; i < 5; i++ {
		q.Enqueue(mail.ClaimSubmission{ClaimID: fmt.Sprintf("CLAIM_%d", i)})
	}
	assert.Equal(t, 5, q.Size())

	for i := 0; i < 5; i++ {
		sub, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("CLAIM_%d", i), sub.ClaimID)
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Size())
}

func TestQueueConcurrentExactlyOnce(t *testing.T) {
	const producers = 4
	const perProducer = 50
	const consumers = 3

	q := New()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(mail.ClaimSubmission{ClaimID: fmt.Sprintf("P%d_%d", p, i)})
			}
		}(p)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var mu sync.Mutex
	seen := make(map[string]int)
	var cg sync.WaitGroup
	for c := 0; c < consumers; c++ {
		cg.Add(1)
		go func() {
			defer cg.Done()
			for {
				sub, err := q.Dequeue(ctx)
				if err != nil {
					return
				}
				mu.Lock()
				seen[sub.ClaimID]++
				done := len(seen) == producers*perProducer
				mu.Unlock()
				if done {
					cancel()
				}
			}
		}()
	}

	wg.Wait()
	cg.Wait()

	require.Len(t, seen, producers*perProducer)
	for id, count := range seen {
		assert.Equal(t, 1, count, "item %s dequeued %d times", id, count)
	}
}

func TestQueuePerProducerOrderPreserved(t *testing.T) {
	q := New()

	// One producer, one consumer: arrival order must survive.
	for i := 0; i < 20; i++ {
		q.Enqueue(mail.ClaimSubmission{ClaimID: fmt.Sprintf("%03d", i)})
	}

	var got []string
	for {
		sub, ok := q.TryDequeue()
		if !ok {
			break
		}
		got = append(got, sub.ClaimID)
	}

	require.Len(t, got, 20)
	assert.True(t, sort.StringsAreSorted(got))
}

func TestDequeueBlocksUntilEnqueue(t *testing.T) {
	q := New()

	done := make(chan mail.ClaimSubmission, 1)
	go func() {
		sub, err := q.Dequeue(context.Background())
		if err == nil {
			done <- sub
		}
	}()

	time.Sleep(50 * time.Millisecond)
	q.Enqueue(mail.ClaimSubmission{ClaimID: "CLAIM_LATE"})

	select {
	case sub := <-done:
		assert.Equal(t, "CLAIM_LATE", sub.ClaimID)
	case <-time.After(2 * time.Second):
		t.Fatal("dequeue did not wake up after enqueue")
	}
}

func TestDequeueReturnsOnContextCancel(t *testing.T) {
	q := New()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := q.Dequeue(ctx)
		errCh <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("dequeue did not return after context cancellation")
	}
}
