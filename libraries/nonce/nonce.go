package nonce

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/logger"
)

// Source reports the next sequence number the ledger expects from identity.
type Source interface {
	AccountNonce(ctx context.Context, identity string) (uint64, error)
}

type tracker struct {
	next   atomic.Uint64
	synced atomic.Bool
}

// Coordinator hands out per-identity nonces that never collide with each
// other. Trackers are created on first use and live for the process.
type Coordinator struct {
	trackers sync.Map // identity -> *tracker
}

func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

func (c *Coordinator) tracker(identity string) *tracker {
	if t, ok := c.trackers.Load(identity); ok {
		return t.(*tracker)
	}
	t, _ := c.trackers.LoadOrStore(identity, &tracker{})
	return t.(*tracker)
}

// Acquire returns a nonce no other Acquire for identity has returned. The
// first call per identity consults the ledger; concurrent first calls may all
// query it, and the tracked value only ever moves up to what the ledger said.
func (c *Coordinator) Acquire(ctx context.Context, src Source, identity string) (uint64, error) {
	t := c.tracker(identity)
	if !t.synced.Load() {
		current, err := src.AccountNonce(ctx, identity)
		if err != nil {
			return 0, err
		}
		raise(&t.next, current)
		t.synced.Store(true)
		logger.Printf("nonce", "identity %s synced at %d", identity, current)
	}
	n := t.next.Add(1) - 1
	logger.Printf("debug-nonce", "identity %s acquired %d", identity, n)
	return n, nil
}

// Resync replaces the tracked value with what the ledger reports now. It may
// move the value down, in which case nonces still in flight can be handed out
// again and the ledger rejects the later one.
func (c *Coordinator) Resync(ctx context.Context, src Source, identity string) error {
	current, err := src.AccountNonce(ctx, identity)
	if err != nil {
		return err
	}
	t := c.tracker(identity)
	t.next.Store(current)
	t.synced.Store(true)
	logger.Printf("nonce", "identity %s resynced to %d", identity, current)
	return nil
}

// Peek returns the next nonce Acquire would hand out and whether identity
// has been synced.
func (c *Coordinator) Peek(identity string) (uint64, bool) {
	v, ok := c.trackers.Load(identity)
	if !ok {
		return 0, false
	}
	t := v.(*tracker)
	return t.next.Load(), t.synced.Load()
}

func raise(v *atomic.Uint64, floor uint64) {
	for {
		cur := v.Load()
		if cur >= floor || v.CompareAndSwap(cur, floor) {
			return
		}
	}
}
