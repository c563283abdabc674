package crawler

import (
	"context"

	"github.com/starkmirror/starkmirror/internal/store"
)

// cachePageSize is the width of one existence-cache page
const cachePageSize = 1000

// blockCache answers "is block n already persisted" without hitting the
// store on every tick. It loads the page of block numbers around n once and
// serves lookups from memory until a different page is requested.
type blockCache struct {
	store store.Store

	page   int64
	blocks map[uint64]bool
}

func newBlockCache(s store.Store) *blockCache {
	return &blockCache{
		store: s,
		page:  -1,
	}
}

// Hit reports whether blockNumber is already persisted
func (c *blockCache) Hit(ctx context.Context, blockNumber uint64) (bool, error) {
	page := int64(blockNumber / cachePageSize) //nolint:gosec,G115
	if c.page != page {
		lo := blockNumber / cachePageSize * cachePageSize
		numbers, err := c.store.BlockNumbersInRange(ctx, lo, lo+cachePageSize)
		if err != nil {
			return false, err
		}

		c.page = page
		c.blocks = make(map[uint64]bool, len(numbers))
		for _, n := range numbers {
			c.blocks[n] = true
		}
	}

	return c.blocks[blockNumber], nil
}
