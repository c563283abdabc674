package reconciler

import (
	"context"
	"fmt"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/starkmirror/starkmirror/internal/domain"
	"github.com/starkmirror/starkmirror/internal/gateway"
	"github.com/starkmirror/starkmirror/internal/logger"
	"github.com/starkmirror/starkmirror/internal/store"
	"github.com/starkmirror/starkmirror/internal/store/schema"
)

const (
	// flushBatchSize bounds how many unsettled transfers one flush pass polls
	flushBatchSize = 20
	// flushPollWorkers bounds concurrent status polls against the gateway
	flushPollWorkers = 5
)

// Flusher drives unsettled transfers to finality: it polls the gateway for
// each transfer still in NOT_RECEIVED or RECEIVED, resubmits transfers the
// gateway never saw, rejects rejected ones and advances the rest.
type Flusher struct {
	gateway gateway.FeederGateway
	pool    pond.ResultPool[statusResult]

	// ledgerFacadeAddress is the contract transfers are resubmitted to
	ledgerFacadeAddress string
	transferSelector    string
}

type statusResult struct {
	transfer schema.Transfer
	status   domain.TxStatus
	err      error
}

func NewFlusher(gw gateway.FeederGateway, ledgerFacadeAddress string) *Flusher {
	return &Flusher{
		gateway:             gw,
		pool:                pond.NewResultPool[statusResult](flushPollWorkers),
		ledgerFacadeAddress: ledgerFacadeAddress,
		transferSelector:    domain.SelectorHex(domain.Selector("transfer")),
	}
}

// Flush runs one reconciliation pass over a bounded batch of unsettled
// transfers. Pass a transaction-scoped store so the status transitions and
// balance reversals commit atomically with the caller's block replay.
func (f *Flusher) Flush(ctx context.Context, s store.Store) error {
	transfers, err := s.UnsettledTransfers(ctx, flushBatchSize)
	if err != nil {
		return err
	}
	if len(transfers) == 0 {
		return nil
	}

	tasks := make([]interface{ Wait() (statusResult, error) }, 0, len(transfers))
	for _, transfer := range transfers {
		transfer := transfer
		tasks = append(tasks, f.pool.Submit(func() statusResult {
			status, err := f.gateway.GetTransactionStatus(ctx, transfer.Hash)
			return statusResult{transfer: transfer, status: status.TxStatus, err: err}
		}))
	}

	service := NewTransferService(s)
	for _, task := range tasks {
		result, err := task.Wait()
		if err != nil {
			return err
		}
		if result.err != nil {
			return result.err
		}

		transfer := result.transfer
		switch result.status {
		case domain.StatusNotReceived:
			logger.Info("resubmitting transfer",
				zap.String("hash", transfer.Hash))
			if err := f.resubmit(ctx, &transfer); err != nil {
				return err
			}
		case domain.StatusRejected:
			logger.Warn("rejecting transfer",
				zap.String("hash", transfer.Hash))
			if err := service.Reject(ctx, &transfer); err != nil {
				return err
			}
		default:
			if result.status == transfer.Status {
				continue
			}
			logger.Info("advancing transfer",
				zap.String("hash", transfer.Hash),
				zap.String("status", string(result.status)))
			transfer.Status = result.status
			if err := s.SaveTransfer(ctx, &transfer); err != nil {
				return err
			}
		}
	}
	return nil
}

// resubmit re-sends a transfer the gateway has no record of, using the
// signature captured at submission time. Transfers that originated purely
// on-chain carry no signature and cannot be resubmitted.
func (f *Flusher) resubmit(ctx context.Context, transfer *schema.Transfer) error {
	if transfer.SignatureR == nil || transfer.SignatureS == nil {
		return fmt.Errorf("transfer %s has no stored signature: %w", transfer.Hash, domain.ErrProjectionIntegrity)
	}

	calldata := make([]string, 0, 5)
	for _, felt := range []string{
		transfer.FromAccount.StarkKey,
		transfer.ToAccount.StarkKey,
		transfer.Amount,
		transfer.Contract.Address,
		transfer.Nonce,
	} {
		n, err := domain.ParseFelt(felt)
		if err != nil {
			return fmt.Errorf("corrupt transfer %s: %w", transfer.Hash, err)
		}
		calldata = append(calldata, domain.SelectorHex(n))
	}
	signature := make([]string, 0, 2)
	for _, felt := range []string{*transfer.SignatureR, *transfer.SignatureS} {
		n, err := domain.ParseFelt(felt)
		if err != nil {
			return fmt.Errorf("corrupt signature on transfer %s: %w", transfer.Hash, err)
		}
		signature = append(signature, domain.SelectorHex(n))
	}

	_, err := f.gateway.AddTransaction(ctx, gateway.InvokeFunction{
		Type:               "INVOKE_FUNCTION",
		ContractAddress:    f.ledgerFacadeAddress,
		EntryPointSelector: f.transferSelector,
		Calldata:           calldata,
		Signature:          signature,
	})
	return err
}
