// Package monitor watches the settlement layer for consumed withdrawal
// messages and joins them back onto the pending withdrawal records the
// interpreter produced.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/starkmirror/starkmirror/internal/adapter"
	"github.com/starkmirror/starkmirror/internal/domain"
	"github.com/starkmirror/starkmirror/internal/logger"
	"github.com/starkmirror/starkmirror/internal/store"
	"github.com/starkmirror/starkmirror/internal/store/schema"
)

// consumedMessageToL1 is the topic hash of the core contract's
// ConsumedMessageToL1(uint256,address,uint256[]) event
var consumedMessageToL1 = common.HexToHash("0x7a06c571aa77f34d9706c51e5d8122b5595aebeaa34233bfe866f22befb973b1")


// Monitor polls the settlement layer's core contract for consumed messages
// between one ledger contract pair and attaches each confirmation to its
// pending Withdrawal or TokenFlow row.
type Monitor struct {
	eth      adapter.EthClient
	store    store.Store
	clock    adapter.Clock
	interval time.Duration

	query   ethereum.FilterQuery
	payload abi.Arguments
}

// NewMonitor builds a monitor filtering logs emitted by coreAddress for
// messages from the layer-2 ledger contract to its settlement-layer bridge.
// Both contract addresses may arrive in any field element rendering.
func NewMonitor(
	eth adapter.EthClient,
	s store.Store,
	clock adapter.Clock,
	interval time.Duration,
	coreAddress string,
	fromAddress string,
	toAddress string,
) (*Monitor, error) {
	from, err := domain.ParseFelt(fromAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	to, err := domain.ParseFelt(toAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}

	uint256Array, err := abi.NewType("uint256[]", "", nil)
	if err != nil {
		return nil, err
	}

	return &Monitor{
		eth:      eth,
		store:    s,
		clock:    clock,
		interval: interval,
		query: ethereum.FilterQuery{
			Addresses: []common.Address{common.HexToAddress(coreAddress)},
			Topics: [][]common.Hash{
				{consumedMessageToL1},
				{common.BigToHash(from)},
				{common.BigToHash(to)},
			},
		},
		payload: abi.Arguments{{Type: uint256Array}},
	}, nil
}

// Run polls for consumed messages until the context is cancelled. Each pass
// filters from the last persisted settlement-layer block; the event's unique
// key makes re-seen entries harmless.
func (m *Monitor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := m.Poll(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.clock.After(m.interval):
		}
	}
}

// Poll runs a single filter pass and persists every matching log entry
func (m *Monitor) Poll(ctx context.Context) error {
	latest, err := m.store.GetLatestEthBlock(ctx)
	if err != nil {
		return err
	}

	query := m.query
	query.FromBlock = big.NewInt(0)
	if latest != nil {
		query.FromBlock = new(big.Int).SetUint64(latest.ID)
	}

	entries, err := m.eth.FilterLogs(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to filter settlement logs: %w", err)
	}

	for _, entry := range entries {
		if err := m.persist(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

// persist records one log entry and joins it to its pending withdrawal.
// Entries already recorded are skipped.
func (m *Monitor) persist(ctx context.Context, entry types.Log) error {
	if err := m.liftBlock(ctx, entry); err != nil {
		return err
	}

	return m.store.WithinTransaction(ctx, func(s store.Store) error {
		existing, err := s.GetEthEvent(ctx, entry.TxHash.Hex(), entry.Index)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}

		body, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to encode log entry: %w", err)
		}
		event := &schema.EthEvent{
			TxHash:           entry.TxHash.Hex(),
			LogIndex:         entry.Index,
			BlockNumber:      entry.BlockNumber,
			TransactionIndex: entry.TxIndex,
			Body:             body,
		}
		if err := s.CreateEthEvent(ctx, event); err != nil {
			return err
		}

		logger.Info("consumed message",
			zap.String("txHash", event.TxHash),
			zap.Uint("logIndex", event.LogIndex))
		return m.join(ctx, s, event, entry.Data)
	})
}

// liftBlock lazily persists the log entry's enclosing settlement-layer block
func (m *Monitor) liftBlock(ctx context.Context, entry types.Log) error {
	block, err := m.store.GetEthBlockByHash(ctx, entry.BlockHash.Hex())
	if err != nil {
		return err
	}
	if block != nil {
		if block.ID != entry.BlockNumber {
			return fmt.Errorf("block %s number mismatch: %w", entry.BlockHash.Hex(), domain.ErrProjectionIntegrity)
		}
		return nil
	}

	header, err := m.eth.HeaderByHash(ctx, entry.BlockHash)
	if err != nil {
		return fmt.Errorf("failed to fetch settlement block %s: %w", entry.BlockHash.Hex(), err)
	}
	return m.store.CreateEthBlock(ctx, &schema.EthBlock{
		ID:        header.Number.Uint64(),
		Hash:      entry.BlockHash.Hex(),
		Timestamp: m.clock.Unix(int64(header.Time), 0),
	})
}

// join decodes the message payload and attaches the event to the pending
// Withdrawal or WITHDRAWAL TokenFlow it confirms. Messages of other kinds
// are recorded but not joined.
func (m *Monitor) join(ctx context.Context, s store.Store, event *schema.EthEvent, data []byte) error {
	values, err := m.payload.Unpack(data)
	if err != nil {
		return fmt.Errorf("failed to decode message payload: %w", err)
	}
	payload, ok := values[0].([]*big.Int)
	if !ok || len(payload) != 6 {
		return fmt.Errorf("malformed message payload on %s: %w", event.TxHash, domain.ErrProjectionIntegrity)
	}
	if payload[0].Sign() != 0 {
		// Not a withdrawal message, recorded only
		return nil
	}

	address, amountOrTokenID, contract, mint, nonce := payload[1], payload[2], payload[3], payload[4], payload[5]
	contractAddress, err := domain.ToChecksumAddress(domain.FeltString(contract))
	if err != nil {
		return err
	}
	destination, err := domain.ToChecksumAddress(domain.FeltString(address))
	if err != nil {
		return err
	}

	tokenContract, err := s.GetTokenContractByAddress(ctx, contractAddress)
	if err != nil {
		return err
	}
	if tokenContract == nil {
		return fmt.Errorf("message for unregistered contract %s: %w", contractAddress, domain.ErrProjectionIntegrity)
	}

	if tokenContract.Fungible {
		withdrawal, err := s.PendingWithdrawal(ctx,
			domain.FeltString(amountOrTokenID), destination, domain.FeltString(nonce))
		if err != nil {
			return err
		}
		if withdrawal == nil {
			return fmt.Errorf("no pending withdrawal for %s: %w", event.TxHash, domain.ErrProjectionIntegrity)
		}
		withdrawal.EthEventID = &event.ID
		return s.SaveWithdrawal(ctx, withdrawal)
	}

	flow, err := s.PendingWithdrawalFlow(ctx, destination, mint.Sign() != 0, domain.FeltString(nonce))
	if err != nil {
		return err
	}
	if flow == nil {
		return fmt.Errorf("no pending withdrawal flow for %s: %w", event.TxHash, domain.ErrProjectionIntegrity)
	}
	flow.EthEventID = &event.ID
	return s.SaveTokenFlow(ctx, flow)
}
