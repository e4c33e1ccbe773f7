package cache

import (
	"context"
	"sync"
	"time"
)

// LocalRevocations keeps revoked token ids in process memory. It serves
// single-instance deployments and tests when Redis is not configured.
type LocalRevocations struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
	stopCh  chan struct{}
	once    sync.Once
}

// NewLocalRevocations starts a store that purges expired ids every interval.
// A zero interval disables the background purge.
func NewLocalRevocations(interval time.Duration) *LocalRevocations {
	lr := &LocalRevocations{
		entries: make(map[string]time.Time),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	if interval > 0 {
		go lr.cleanupLoop(interval)
	}
	return lr
}

func (lr *LocalRevocations) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	if !until.After(lr.now()) {
		return nil
	}
	lr.entries[tokenID] = until
	revocationsTotal.WithLabelValues("local").Inc()
	return nil
}

func (lr *LocalRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	lr.mu.RLock()
	defer lr.mu.RUnlock()

	until, ok := lr.entries[tokenID]
	if !ok || lr.now().After(until) {
		revocationChecks.WithLabelValues("local", "active").Inc()
		return false, nil
	}
	revocationChecks.WithLabelValues("local", "revoked").Inc()
	return true, nil
}

// Len returns the number of tracked ids, expired ones included until purged.
func (lr *LocalRevocations) Len() int {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	return len(lr.entries)
}

func (lr *LocalRevocations) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lr.cleanup()
		case <-lr.stopCh:
			return
		}
	}
}

// cleanup removes expired ids
func (lr *LocalRevocations) cleanup() {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	now := lr.now()
	for id, until := range lr.entries {
		if now.After(until) {
			delete(lr.entries, id)
		}
	}
}

// Stop stops the cleanup goroutine
func (lr *LocalRevocations) Stop() {
	lr.once.Do(func() { close(lr.stopCh) })
}
