// Package crawler ingests layer-2 blocks from the feeder gateway into the
// projection store in causal order and repairs blocks invalidated by
// execution-layer reorganizations.
package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/starkmirror/starkmirror/internal/adapter"
	"github.com/starkmirror/starkmirror/internal/domain"
	"github.com/starkmirror/starkmirror/internal/gateway"
	"github.com/starkmirror/starkmirror/internal/logger"
	"github.com/starkmirror/starkmirror/internal/store"
	"github.com/starkmirror/starkmirror/internal/store/schema"
)

// purgeBatchSize is the number of non-final blocks re-checked per purge pass
const purgeBatchSize = 20

// Crawler fills the store backward to genesis while following the chain tip
// forward. A single Run loop performs all ingestion; Wait callers suspend on
// channels the loop resolves.
type Crawler struct {
	gateway  gateway.FeederGateway
	store    store.Store
	clock    adapter.Clock
	cooldown time.Duration
	cache    *blockCache

	mu       sync.Mutex
	ingested map[uint64]bool
	waits    map[uint64][]chan struct{}
}

// NewCrawler creates a crawler with the given cooldown interval
func NewCrawler(gw gateway.FeederGateway, s store.Store, clock adapter.Clock, cooldown time.Duration) *Crawler {
	return &Crawler{
		gateway:  gw,
		store:    s,
		clock:    clock,
		cooldown: cooldown,
		cache:    newBlockCache(s),
		ingested: make(map[uint64]bool),
		waits:    make(map[uint64][]chan struct{}),
	}
}

// Wait suspends the caller until the given block has been ingested. It
// returns immediately if the block is already known ingested.
func (c *Crawler) Wait(ctx context.Context, blockNumber uint64) error {
	c.mu.Lock()
	if c.ingested[blockNumber] {
		c.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	c.waits[blockNumber] = append(c.waits[blockNumber], ch)
	c.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// resolve marks a block ingested and wakes every waiter registered for it
func (c *Crawler) resolve(blockNumber uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ingested[blockNumber] = true
	for _, ch := range c.waits[blockNumber] {
		close(ch)
	}
	delete(c.waits, blockNumber)
}

// Run ingests blocks until the context is cancelled. Starting from the chain
// head (or the block named by thru), the backward cursor fills history down
// to genesis while the forward cursor follows the tip. History catch-up takes
// priority; the forward cursor only advances between cooldowns. When thru is
// set the crawler backfills only and never follows the tip.
func (c *Crawler) Run(ctx context.Context, thru string) error {
	var head *gateway.BlockDocument
	var err error
	if thru != "" {
		head, _, err = c.gateway.GetBlockByHash(ctx, thru)
	} else {
		head, _, err = c.gateway.GetLatestBlock(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch starting block: %w", err)
	}

	i := head.BlockNumber + 1
	j := head.BlockNumber + 1
	followTip := thru == ""
	cooldownUntil := c.clock.Now()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if followTip && !c.clock.Now().Before(cooldownUntil) {
			err := c.ingest(ctx, j)
			switch {
			case err == nil:
				j++
				continue
			case errors.Is(err, domain.ErrBlockNotFound), errors.Is(err, domain.ErrRateLimited):
				cooldownUntil = c.clock.Now().Add(c.cooldown)
			default:
				return err
			}
		}

		if i > 0 {
			if err := c.ingest(ctx, i-1); err != nil {
				return err
			}
			i--
			continue
		}

		c.clock.Sleep(c.cooldown)
	}
}

// ingest fetches and persists one block unless it is already stored, then
// resolves any waiters for it
func (c *Crawler) ingest(ctx context.Context, blockNumber uint64) error {
	c.mu.Lock()
	done := c.ingested[blockNumber]
	c.mu.Unlock()
	if done {
		return nil
	}

	hit, err := c.cache.Hit(ctx, blockNumber)
	if err != nil {
		return err
	}
	if !hit {
		doc, raw, err := c.gateway.GetBlockByNumber(ctx, blockNumber)
		if err != nil {
			return err
		}
		if err := c.persist(ctx, doc, raw); err != nil {
			return err
		}
		logger.Info("ingested block",
			zap.Uint64("block_number", blockNumber),
			zap.String("block_hash", doc.BlockHash))
	}

	c.resolve(blockNumber)
	return nil
}

// persist stores a block document with its transactions. Receipts line up
// with transactions by position; a hash mismatch between the two lists marks
// a malformed document and aborts the whole block.
func (c *Crawler) persist(ctx context.Context, doc *gateway.BlockDocument, raw []byte) error {
	if len(doc.TransactionReceipts) != len(doc.Transactions) {
		return fmt.Errorf("%w: block %d has %d transactions but %d receipts",
			domain.ErrProjectionIntegrity, doc.BlockNumber, len(doc.Transactions), len(doc.TransactionReceipts))
	}

	return c.store.WithinTransaction(ctx, func(tx store.Store) error {
		block := &schema.Block{
			ID:        doc.BlockNumber,
			Hash:      doc.BlockHash,
			Timestamp: c.clock.Unix(doc.Timestamp, 0).UTC(),
			Document:  datatypes.JSON(raw),
		}

		txs := make([]*schema.Transaction, 0, len(doc.Transactions))
		for idx, entry := range doc.Transactions {
			receipt := doc.TransactionReceipts[idx]
			if receipt.TransactionHash != entry.TransactionHash {
				return fmt.Errorf("%w: receipt %s does not match transaction %s in block %d",
					domain.ErrProjectionIntegrity, receipt.TransactionHash, entry.TransactionHash, doc.BlockNumber)
			}

			contract, err := tx.GetOrCreateStarkContract(ctx, entry.ContractAddress)
			if err != nil {
				return err
			}

			calldata, err := json.Marshal(entry.Args())
			if err != nil {
				return fmt.Errorf("failed to encode calldata of %s: %w", entry.TransactionHash, err)
			}

			txs = append(txs, &schema.Transaction{
				Hash:               entry.TransactionHash,
				BlockID:            doc.BlockNumber,
				TransactionIndex:   receipt.TransactionIndex,
				Type:               entry.Type,
				ContractID:         contract.ID,
				EntryPointSelector: entry.EntryPointSelector,
				EntryPointType:     entry.EntryPointType,
				Calldata:           calldata,
			})
		}

		return tx.CreateBlock(ctx, block, txs)
	})
}

// Purge re-checks every stored block whose status is not yet final against
// the gateway, in ascending batches. A block whose upstream hash or status
// disagrees with the stored record is deleted together with its transactions.
// A failed fetch is skipped and the next pass resumes just past the earliest
// failed block, so the walk always advances and ends once the query runs dry.
// In dry mode nothing is written.
func (c *Crawler) Purge(ctx context.Context, dry bool) error {
	var from uint64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		blocks, err := c.store.NonFinalBlocks(ctx, from, purgeBatchSize)
		if err != nil {
			return err
		}
		if len(blocks) == 0 {
			return nil
		}

		var failed *uint64
		for _, block := range blocks {
			from = block.ID + 1
			logger.Warn("purge check",
				zap.Uint64("block_number", block.ID),
				zap.String("block_hash", block.Hash))

			doc, raw, err := c.gateway.GetBlockByNumber(ctx, block.ID)
			if err != nil {
				logger.Warn("purge fetch failed", zap.Uint64("block_number", block.ID), zap.Error(err))
				if failed == nil {
					n := block.ID
					failed = &n
				}
				if errors.Is(err, domain.ErrRateLimited) {
					c.clock.Sleep(c.cooldown)
				}
				continue
			}

			invalidated := doc.BlockHash != block.Hash || doc.Status == domain.StatusAborted
			if invalidated {
				logger.Warn("block invalidated",
					zap.Uint64("block_number", block.ID),
					zap.String("stored_hash", block.Hash),
					zap.String("upstream_hash", doc.BlockHash),
					zap.String("upstream_status", string(doc.Status)))
			}
			if dry {
				continue
			}

			if err := c.store.SaveBlockDocument(ctx, block.ID, datatypes.JSON(raw)); err != nil {
				return err
			}
			if invalidated {
				if err := c.store.DeleteBlock(ctx, block.ID); err != nil {
					return err
				}
			}
		}

		if failed != nil {
			from = *failed + 1
		}
	}
}
