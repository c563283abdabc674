// Package interpreter replays ingested layer-2 transactions into the
// account, token, balance and order projection, exactly once, in block order.
package interpreter

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/starkmirror/starkmirror/internal/domain"
	"github.com/starkmirror/starkmirror/internal/gateway"
	"github.com/starkmirror/starkmirror/internal/logger"
	"github.com/starkmirror/starkmirror/internal/reconciler"
	"github.com/starkmirror/starkmirror/internal/store"
	"github.com/starkmirror/starkmirror/internal/store/schema"
)

// Addresses binds the instruction set to the deployed contract addresses.
type Addresses struct {
	Ledger           string
	LedgerFacade     string
	ExchangeFacade   string
	ComposerFacade   string
	LoginFacadeAdmin string
}

type handler func(ctx context.Context, r *replay, tx *schema.Transaction, args []string) error

// instruction is one dispatch table entry: a function bound to the contract
// address it may be invoked on, with the arity its calldata must carry.
type instruction struct {
	address string
	name    string
	arity   int
	apply   handler
}

// Interpreter is the dispatch core. The table is built once from the bound
// addresses; transactions whose selector is not in the table are skipped.
type Interpreter struct {
	instructions map[string]instruction
	tracked      []string

	ledgerAddress string
	transferEvent string
	mintEvent     string
}

// NewInterpreter builds the dispatch table for the given contract addresses.
// Addresses are normalized so they compare equal to the form the gateway
// reports in block documents.
func NewInterpreter(addresses Addresses) (*Interpreter, error) {
	ledger, err := normalizeFelt(addresses.Ledger)
	if err != nil {
		return nil, fmt.Errorf("ledger address: %w", err)
	}
	ledgerFacade, err := normalizeFelt(addresses.LedgerFacade)
	if err != nil {
		return nil, fmt.Errorf("ledger facade address: %w", err)
	}
	exchangeFacade, err := normalizeFelt(addresses.ExchangeFacade)
	if err != nil {
		return nil, fmt.Errorf("exchange facade address: %w", err)
	}
	composerFacade, err := normalizeFelt(addresses.ComposerFacade)
	if err != nil {
		return nil, fmt.Errorf("composer facade address: %w", err)
	}
	loginFacadeAdmin, err := normalizeFelt(addresses.LoginFacadeAdmin)
	if err != nil {
		return nil, fmt.Errorf("login facade admin address: %w", err)
	}

	in := &Interpreter{
		instructions:  make(map[string]instruction),
		ledgerAddress: ledger,
		transferEvent: domain.SelectorHex(domain.Selector("transfer_event")),
		mintEvent:     domain.SelectorHex(domain.Selector("mint_event")),
	}
	for _, entry := range []instruction{
		{ledger, "register_contract", 4, in.registerContract},
		{ledger, "deposit", 5, in.deposit},
		{loginFacadeAdmin, "register_account", 4, in.registerAccount},
		{ledgerFacade, "mint", 4, in.mint},
		{ledgerFacade, "withdraw", 5, in.withdraw},
		{ledgerFacade, "transfer", 5, in.transfer},
		{exchangeFacade, "create_order", 7, in.createOrder},
		{exchangeFacade, "fulfill_order", 3, in.fulfillOrder},
		{exchangeFacade, "cancel_order", 2, in.cancelOrder},
		{composerFacade, "install_token", 5, in.installToken},
		{composerFacade, "uninstall_token", 4, in.uninstallToken},
		{composerFacade, "execute_stereotype", 2, in.executeStereotype},
		{composerFacade, "solve_stereotype", 2, in.solveStereotype},
	} {
		in.instructions[domain.SelectorHex(domain.Selector(entry.name))] = entry
	}

	seen := make(map[string]bool)
	for _, address := range []string{ledger, ledgerFacade, exchangeFacade, composerFacade, loginFacadeAdmin} {
		if !seen[address] {
			seen[address] = true
			in.tracked = append(in.tracked, address)
		}
	}
	return in, nil
}

// Tracked returns the normalized addresses of every contract the dispatch
// table binds an instruction to.
func (in *Interpreter) Tracked() []string {
	return in.tracked
}

// replay is the per-block execution context: a transaction-scoped store, the
// block's status and its receipts indexed by transaction hash.
type replay struct {
	store    store.Store
	service  *reconciler.TransferService
	status   domain.TxStatus
	receipts map[string]*gateway.TransactionReceipt
}

func newReplay(s store.Store, doc *gateway.BlockDocument) *replay {
	receipts := make(map[string]*gateway.TransactionReceipt, len(doc.TransactionReceipts))
	for i := range doc.TransactionReceipts {
		receipt := &doc.TransactionReceipts[i]
		receipts[receipt.TransactionHash] = receipt
	}
	return &replay{
		store:    s,
		service:  reconciler.NewTransferService(s),
		status:   doc.Status,
		receipts: receipts,
	}
}

// exec dispatches one transaction. Unknown selectors are skipped; a known
// selector arriving from the wrong contract address is a projection
// integrity failure.
func (in *Interpreter) exec(ctx context.Context, r *replay, tx *schema.Transaction) error {
	if tx.EntryPointSelector == nil {
		return nil
	}
	selector, err := normalizeFelt(*tx.EntryPointSelector)
	if err != nil {
		return fmt.Errorf("transaction %s selector: %w", tx.Hash, err)
	}
	inst, ok := in.instructions[selector]
	if !ok {
		return nil
	}
	address, err := normalizeFelt(tx.Contract.Address)
	if err != nil {
		return fmt.Errorf("transaction %s contract: %w", tx.Hash, err)
	}
	if address != inst.address {
		return fmt.Errorf("%s invoked on %s, bound to %s: %w",
			inst.name, address, inst.address, domain.ErrProjectionIntegrity)
	}

	var args []string
	if err := json.Unmarshal(tx.Calldata, &args); err != nil {
		return fmt.Errorf("transaction %s calldata: %w", tx.Hash, err)
	}
	if len(args) != inst.arity {
		return fmt.Errorf("%s got %d calldata words, want %d: %w",
			inst.name, len(args), inst.arity, domain.ErrProjectionIntegrity)
	}

	logger.Info("interpreting transaction",
		zap.String("hash", tx.Hash),
		zap.String("function", inst.name))
	return inst.apply(ctx, r, tx, args)
}
