// Package reconciler tracks off-chain-submitted transfers through inclusion,
// confirmation or rejection, keeping the balance projection consistent with
// every status transition.
package reconciler

import (
	"context"
	"fmt"
	"math/big"

	"github.com/starkmirror/starkmirror/internal/domain"
	"github.com/starkmirror/starkmirror/internal/store"
	"github.com/starkmirror/starkmirror/internal/store/schema"
)

// Signature carries the stark signature stored with a transfer for
// resubmission.
type Signature struct {
	R *big.Int
	S *big.Int
}

// TransferService applies transfer lifecycle mutations against one store
// handle. Construct it over a transaction-scoped store so the balance
// adjustment commits atomically with the caller's own writes.
type TransferService struct {
	store store.Store
}

func NewTransferService(s store.Store) *TransferService {
	return &TransferService{store: s}
}

// LiftAccount returns the account for a stark key, creating it on first
// reference.
func (t *TransferService) LiftAccount(ctx context.Context, starkKey *big.Int) (*schema.Account, error) {
	key := domain.FeltString(starkKey)
	account, err := t.store.GetAccountByStarkKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if account == nil {
		account = &schema.Account{StarkKey: key}
		if err := t.store.CreateAccount(ctx, account); err != nil {
			return nil, err
		}
	}
	return account, nil
}

// LiftBalance returns the account's balance row for a fungible contract,
// creating a zero balance on first reference.
func (t *TransferService) LiftBalance(ctx context.Context, account *schema.Account, contract *schema.TokenContract) (*schema.Balance, error) {
	balance, err := t.store.GetBalance(ctx, account.ID, contract.ID)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		balance = &schema.Balance{AccountID: account.ID, ContractID: contract.ID, Amount: "0"}
		if err := t.store.CreateBalance(ctx, balance); err != nil {
			return nil, err
		}
	}
	return balance, nil
}

// Credit adds amount to a balance and persists it.
func (t *TransferService) Credit(ctx context.Context, balance *schema.Balance, amount *big.Int) error {
	n, err := domain.ParseFelt(balance.Amount)
	if err != nil {
		return fmt.Errorf("corrupt balance %d: %w", balance.ID, err)
	}
	balance.Amount = domain.FeltString(n.Add(n, amount))
	return t.store.SaveBalance(ctx, balance)
}

// Debit subtracts amount from a balance and persists it. A balance is never
// allowed to go negative; a debit that would is a projection integrity
// failure and aborts the enclosing transaction.
func (t *TransferService) Debit(ctx context.Context, balance *schema.Balance, amount *big.Int) error {
	n, err := domain.ParseFelt(balance.Amount)
	if err != nil {
		return fmt.Errorf("corrupt balance %d: %w", balance.ID, err)
	}
	n.Sub(n, amount)
	if n.Sign() < 0 {
		return fmt.Errorf("balance %d would go negative: %w", balance.ID, domain.ErrProjectionIntegrity)
	}
	balance.Amount = domain.FeltString(n)
	return t.store.SaveBalance(ctx, balance)
}

// Transfer records an off-chain fungible transfer and immediately moves the
// amount between the two balances. Both accounts are created lazily. A
// transfer whose hash is already known is a no-op.
func (t *TransferService) Transfer(
	ctx context.Context,
	hash string,
	from, to, amount *big.Int,
	contract *schema.TokenContract,
	nonce *big.Int,
	signature *Signature,
	status domain.TxStatus,
) error {
	existing, err := t.store.GetTransferByHash(ctx, hash)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	fromAccount, err := t.LiftAccount(ctx, from)
	if err != nil {
		return err
	}
	toAccount, err := t.LiftAccount(ctx, to)
	if err != nil {
		return err
	}

	transfer := &schema.Transfer{
		Hash:          hash,
		FromAccountID: fromAccount.ID,
		ToAccountID:   toAccount.ID,
		Amount:        domain.FeltString(amount),
		ContractID:    contract.ID,
		Nonce:         domain.FeltString(nonce),
		Status:        status,
	}
	if signature != nil {
		r := domain.FeltString(signature.R)
		s := domain.FeltString(signature.S)
		transfer.SignatureR = &r
		transfer.SignatureS = &s
	}
	if err := t.store.CreateTransfer(ctx, transfer); err != nil {
		return err
	}

	fromBalance, err := t.LiftBalance(ctx, fromAccount, contract)
	if err != nil {
		return err
	}
	if err := t.Debit(ctx, fromBalance, amount); err != nil {
		return err
	}
	toBalance, err := t.LiftBalance(ctx, toAccount, contract)
	if err != nil {
		return err
	}
	return t.Credit(ctx, toBalance, amount)
}

// Reject marks a transfer REJECTED and reverses its balance adjustment. The
// status transition guards the reversal; rejecting twice is a no-op.
func (t *TransferService) Reject(ctx context.Context, transfer *schema.Transfer) error {
	if transfer.Status == domain.StatusRejected {
		return nil
	}
	transfer.Status = domain.StatusRejected
	if err := t.store.SaveTransfer(ctx, transfer); err != nil {
		return err
	}

	amount, err := domain.ParseFelt(transfer.Amount)
	if err != nil {
		return fmt.Errorf("corrupt transfer %s: %w", transfer.Hash, err)
	}
	fromBalance, err := t.store.GetBalance(ctx, transfer.FromAccountID, transfer.ContractID)
	if err != nil {
		return err
	}
	toBalance, err := t.store.GetBalance(ctx, transfer.ToAccountID, transfer.ContractID)
	if err != nil {
		return err
	}
	if fromBalance == nil || toBalance == nil {
		return fmt.Errorf("transfer %s has no balance rows: %w", transfer.Hash, domain.ErrProjectionIntegrity)
	}
	if err := t.Credit(ctx, fromBalance, amount); err != nil {
		return err
	}
	return t.Debit(ctx, toBalance, amount)
}
