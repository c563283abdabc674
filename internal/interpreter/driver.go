package interpreter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/starkmirror/starkmirror/internal/adapter"
	"github.com/starkmirror/starkmirror/internal/domain"
	"github.com/starkmirror/starkmirror/internal/gateway"
	"github.com/starkmirror/starkmirror/internal/logger"
	"github.com/starkmirror/starkmirror/internal/reconciler"
	"github.com/starkmirror/starkmirror/internal/store"
	"github.com/starkmirror/starkmirror/internal/store/schema"
)

// Driver advances the interpreter over persisted blocks. Each step replays
// the lowest block not yet interpreted for every tracked contract, then
// flushes pending transfers, in one store transaction.
type Driver struct {
	store       store.Store
	interpreter *Interpreter
	flusher     *reconciler.Flusher
	clock       adapter.Clock
	cooldown    time.Duration
}

func NewDriver(s store.Store, in *Interpreter, flusher *reconciler.Flusher, clock adapter.Clock, cooldown time.Duration) *Driver {
	return &Driver{
		store:       s,
		interpreter: in,
		flusher:     flusher,
		clock:       clock,
		cooldown:    cooldown,
	}
}

// EnsureNativeContract seeds the zero-address native asset so balance
// accounting works before any register_contract is seen.
func (d *Driver) EnsureNativeContract(ctx context.Context) error {
	existing, err := d.store.GetTokenContractByAddress(ctx, domain.ZeroAddress)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	name, symbol, decimals := "Ether", "ETH", 18
	return d.store.CreateTokenContract(ctx, &schema.TokenContract{
		Address:  domain.ZeroAddress,
		Fungible: true,
		Name:     &name,
		Symbol:   &symbol,
		Decimals: &decimals,
	})
}

// Run loops Step until the context is cancelled, sleeping for the cooldown
// interval whenever no block was ready to replay.
func (d *Driver) Run(ctx context.Context) error {
	if err := d.EnsureNativeContract(ctx); err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		advanced, err := d.Step(ctx)
		if err != nil {
			return err
		}
		if !advanced {
			d.clock.Sleep(d.cooldown)
		}
	}
}

// Step replays at most one block. It reports false when no block is ready:
// a tracked contract has no DEPLOY transaction yet, or the target block has
// not been ingested.
func (d *Driver) Step(ctx context.Context) (bool, error) {
	tracked := d.interpreter.Tracked()

	deploys, err := d.store.DeployBlockNumbers(ctx, tracked)
	if err != nil {
		return false, err
	}
	if len(deploys) < len(tracked) {
		logger.Warn("tracked contract not deployed yet",
			zap.Int("deployed", len(deploys)),
			zap.Int("tracked", len(tracked)))
		return false, nil
	}

	contracts, err := d.store.GetStarkContracts(ctx, tracked)
	if err != nil {
		return false, err
	}
	counters := make(map[string]uint64, len(tracked))
	for _, contract := range contracts {
		if contract.BlockCounter != nil {
			counters[contract.Address] = *contract.BlockCounter
		}
	}

	var target uint64
	first := true
	cursors := make(map[string]uint64, len(tracked))
	for _, address := range tracked {
		cursor, ok := counters[address]
		if !ok {
			cursor = deploys[address]
		}
		cursors[address] = cursor
		if first || cursor < target {
			target = cursor
			first = false
		}
	}

	block, err := d.store.GetBlock(ctx, target)
	if err != nil {
		return false, err
	}
	if block == nil {
		logger.Warn("target block not ingested yet", zap.Uint64("number", target))
		return false, nil
	}
	var doc gateway.BlockDocument
	if err := json.Unmarshal(block.Document, &doc); err != nil {
		return false, fmt.Errorf("block %d document: %w", target, err)
	}

	active := make([]string, 0, len(tracked))
	for _, address := range tracked {
		if cursors[address] == target {
			active = append(active, address)
		}
	}

	err = d.store.WithinTransaction(ctx, func(s store.Store) error {
		r := newReplay(s, &doc)
		txs, err := s.TransactionsForBlock(ctx, target, active)
		if err != nil {
			return err
		}
		for i := range txs {
			if err := d.interpreter.exec(ctx, r, &txs[i]); err != nil {
				return err
			}
		}
		if err := s.AdvanceBlockCounters(ctx, active, target+1); err != nil {
			return err
		}
		return d.flusher.Flush(ctx, s)
	})
	if err != nil {
		return false, err
	}

	logger.Info("interpreted block",
		zap.Uint64("number", target),
		zap.Int("contracts", len(active)))
	return true, nil
}
