package rest

import (
	"context"
	"time"

	"github.com/starkmirror/starkmirror/internal/adapter"
	"github.com/starkmirror/starkmirror/internal/store"
)

// StoreWaiter implements Waiter by polling the store for the block. It lets
// the API server wait on ingestion performed by a separate crawler process.
type StoreWaiter struct {
	store    store.Store
	clock    adapter.Clock
	interval time.Duration
}

// NewStoreWaiter creates a waiter polling at the given interval
func NewStoreWaiter(s store.Store, clock adapter.Clock, interval time.Duration) *StoreWaiter {
	return &StoreWaiter{store: s, clock: clock, interval: interval}
}

func (w *StoreWaiter) Wait(ctx context.Context, blockNumber uint64) error {
	for {
		block, err := w.store.GetBlock(ctx, blockNumber)
		if err != nil {
			return err
		}
		if block != nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.clock.After(w.interval):
		}
	}
}
