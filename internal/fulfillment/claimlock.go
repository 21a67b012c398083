package fulfillment

import "sync"

// claimLocks serializes processing per claim identifier. Distinct claims run
// in parallel; two submissions for the same claim never interleave.
type claimLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newClaimLocks() *claimLocks {
	return &claimLocks{locks: make(map[string]*sync.Mutex)}
}

func (c *claimLocks) acquire(claimID string) *sync.Mutex {
	c.mu.Lock()
	l, ok := c.locks[claimID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[claimID] = l
	}
	c.mu.Unlock()

	l.Lock()
	return l
}
