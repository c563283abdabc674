package interpreter

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/starkmirror/starkmirror/internal/domain"
	"github.com/starkmirror/starkmirror/internal/logger"
	"github.com/starkmirror/starkmirror/internal/store/schema"
)

// normalizeFelt renders a field element in the canonical hex form the gateway
// uses for addresses and selectors.
func normalizeFelt(s string) (string, error) {
	n, err := domain.ParseFelt(s)
	if err != nil {
		return "", err
	}
	return domain.SelectorHex(n), nil
}

// registerContract upserts a TokenContract. Repeat registrations must agree
// with the stored fungibility and minter; disagreement means the projection
// has drifted from the chain.
func (in *Interpreter) registerContract(ctx context.Context, r *replay, _ *schema.Transaction, args []string) error {
	_, contract, kind, mint := args[0], args[1], args[2], args[3]

	address, err := domain.ToChecksumAddress(contract)
	if err != nil {
		return err
	}
	kindN, err := domain.ParseFelt(kind)
	if err != nil {
		return err
	}
	fungible := !kindN.IsUint64() || kindN.Uint64() != domain.ContractKindERC721

	existing, err := r.store.GetTokenContractByAddress(ctx, address)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.Fungible != fungible {
			return fmt.Errorf("contract %s re-registered with different fungibility: %w",
				address, domain.ErrProjectionIntegrity)
		}
		if !fungible {
			blueprint, err := r.store.GetBlueprint(ctx, existing.ID)
			if err != nil {
				return err
			}
			minter, err := domain.ParseFelt(mint)
			if err != nil {
				return err
			}
			if blueprint == nil || blueprint.Minter.StarkKey != domain.FeltString(minter) {
				return fmt.Errorf("contract %s re-registered with different minter: %w",
					address, domain.ErrProjectionIntegrity)
			}
		}
		return nil
	}

	row := &schema.TokenContract{Address: address, Fungible: fungible}
	if address == domain.ZeroAddress {
		name, symbol, decimals := "Ether", "ETH", 18
		row.Name, row.Symbol, row.Decimals = &name, &symbol, &decimals
	}
	if err := r.store.CreateTokenContract(ctx, row); err != nil {
		return err
	}
	if !fungible {
		minter, err := r.liftAccount(ctx, mint)
		if err != nil {
			return err
		}
		if err := r.store.CreateBlueprint(ctx, &schema.Blueprint{
			TokenContractID: row.ID,
			MinterID:        minter.ID,
		}); err != nil {
			return err
		}
	}
	return nil
}

// registerAccount binds a settlement-layer address to an account, creating
// the account on first sight.
func (in *Interpreter) registerAccount(ctx context.Context, r *replay, _ *schema.Transaction, args []string) error {
	_, user, address := args[0], args[1], args[2]

	account, err := r.liftAccount(ctx, user)
	if err != nil {
		return err
	}
	checksummed, err := domain.ToChecksumAddress(address)
	if err != nil {
		return err
	}
	account.Address = &checksummed
	return r.store.SaveAccount(ctx, account)
}

func (in *Interpreter) mint(ctx context.Context, r *replay, tx *schema.Transaction, args []string) error {
	user, tokenID, contract := args[0], args[1], args[2]
	return r.mint(ctx, tx, user, tokenID, contract, nil)
}

// deposit credits a bridged asset: fungible deposits increment the balance,
// non-fungible ones assign ownership and record a DEPOSIT flow.
func (in *Interpreter) deposit(ctx context.Context, r *replay, tx *schema.Transaction, args []string) error {
	_, user, amountOrTokenID, contract := args[0], args[1], args[2], args[3]

	account, err := r.liftAccount(ctx, user)
	if err != nil {
		return err
	}
	token, tokenContract, err := r.liftToken(ctx, amountOrTokenID, contract)
	if err != nil {
		return err
	}
	if token != nil {
		token.OwnerID = &account.ID
		token.LatestTxHash = &tx.Hash
		if err := r.store.SaveToken(ctx, token); err != nil {
			return err
		}
		return r.store.CreateTokenFlow(ctx, &schema.TokenFlow{
			TxHash:      tx.Hash,
			Type:        domain.FlowDeposit,
			TokenID:     token.ID,
			ToAccountID: &account.ID,
		})
	}

	amount, err := domain.ParseFelt(amountOrTokenID)
	if err != nil {
		return err
	}
	balance, err := r.service.LiftBalance(ctx, account, tokenContract)
	if err != nil {
		return err
	}
	if err := r.store.CreateDeposit(ctx, &schema.Deposit{
		TxHash:    tx.Hash,
		BalanceID: balance.ID,
		Amount:    domain.FeltString(amount),
	}); err != nil {
		return err
	}
	return r.service.Credit(ctx, balance, amount)
}

// withdraw releases an asset to the settlement layer: fungible withdrawals
// debit the balance and record a Withdrawal awaiting its confirmation event;
// non-fungible ones clear ownership and record a WITHDRAWAL flow tagged with
// the mint-back flag from the outgoing settlement message.
func (in *Interpreter) withdraw(ctx context.Context, r *replay, tx *schema.Transaction, args []string) error {
	user, amountOrTokenID, contract, address, nonce := args[0], args[1], args[2], args[3], args[4]

	account, err := r.liftAccount(ctx, user)
	if err != nil {
		return err
	}
	checksummed, err := domain.ToChecksumAddress(address)
	if err != nil {
		return err
	}
	nonceN, err := domain.ParseFelt(nonce)
	if err != nil {
		return err
	}
	token, tokenContract, err := r.liftToken(ctx, amountOrTokenID, contract)
	if err != nil {
		return err
	}
	if token != nil {
		if token.OwnerID == nil || *token.OwnerID != account.ID {
			return fmt.Errorf("token %d withdrawn by non-owner: %w", token.ID, domain.ErrProjectionIntegrity)
		}
		message, err := DecodeWithdrawMessage(r.receipts[tx.Hash])
		if err != nil {
			return fmt.Errorf("withdraw %s: %w", tx.Hash, err)
		}

		nonceStr := domain.FeltString(nonceN)
		if err := r.store.CreateTokenFlow(ctx, &schema.TokenFlow{
			TxHash:        tx.Hash,
			Type:          domain.FlowWithdrawal,
			TokenID:       token.ID,
			FromAccountID: &account.ID,
			Address:       &checksummed,
			Nonce:         &nonceStr,
			Mint:          &message.MintBack,
		}); err != nil {
			return err
		}
		token.OwnerID = nil
		token.LatestTxHash = &tx.Hash
		return r.store.SaveToken(ctx, token)
	}

	amount, err := domain.ParseFelt(amountOrTokenID)
	if err != nil {
		return err
	}
	balance, err := r.service.LiftBalance(ctx, account, tokenContract)
	if err != nil {
		return err
	}
	if err := r.store.CreateWithdrawal(ctx, &schema.Withdrawal{
		TxHash:    tx.Hash,
		BalanceID: balance.ID,
		Amount:    domain.FeltString(amount),
		Address:   checksummed,
		Nonce:     domain.FeltString(nonceN),
	}); err != nil {
		return err
	}
	return r.service.Debit(ctx, balance, amount)
}

// transfer moves an asset between two accounts. Non-fungible transfers
// re-point ownership; fungible ones either advance a pending off-chain
// Transfer to the block's status or, for transfers that originated purely
// on-chain, create a settled Transfer with both balances adjusted.
func (in *Interpreter) transfer(ctx context.Context, r *replay, tx *schema.Transaction, args []string) error {
	from, to, amountOrTokenID, contract, nonce := args[0], args[1], args[2], args[3], args[4]

	token, tokenContract, err := r.flow(ctx, tx, from, to, amountOrTokenID, contract, nil)
	if err != nil {
		return err
	}
	if token != nil {
		return nil
	}

	existing, err := r.store.GetTransferByHash(ctx, tx.Hash)
	if err != nil {
		return err
	}
	if existing != nil {
		existing.Status = r.status
		return r.store.SaveTransfer(ctx, existing)
	}

	fromN, err := domain.ParseFelt(from)
	if err != nil {
		return err
	}
	toN, err := domain.ParseFelt(to)
	if err != nil {
		return err
	}
	amount, err := domain.ParseFelt(amountOrTokenID)
	if err != nil {
		return err
	}
	nonceN, err := domain.ParseFelt(nonce)
	if err != nil {
		return err
	}
	return r.service.Transfer(ctx, tx.Hash, fromN, toN, amount, tokenContract, nonceN, nil, r.status)
}

// createOrder opens a limit order: asks escrow the token by pointing its ask
// reference at the order, bids escrow the quote amount from the user's
// balance.
func (in *Interpreter) createOrder(ctx context.Context, r *replay, tx *schema.Transaction, args []string) error {
	orderID, user, bid := args[0], args[1], args[2]
	baseContract, baseTokenID := args[3], args[4]
	quoteContract, quoteAmount := args[5], args[6]

	account, err := r.liftAccount(ctx, user)
	if err != nil {
		return err
	}
	token, _, err := r.liftToken(ctx, baseTokenID, baseContract)
	if err != nil {
		return err
	}
	if token == nil {
		return fmt.Errorf("order over fungible contract %s: %w", baseContract, domain.ErrProjectionIntegrity)
	}
	quote, err := r.tokenContract(ctx, quoteContract)
	if err != nil {
		return err
	}

	orderIDN, err := domain.ParseFelt(orderID)
	if err != nil {
		return err
	}
	bidN, err := domain.ParseFelt(bid)
	if err != nil {
		return err
	}
	amount, err := domain.ParseFelt(quoteAmount)
	if err != nil {
		return err
	}

	order := &schema.LimitOrder{
		OrderID:         domain.FeltString(orderIDN),
		UserID:          account.ID,
		Bid:             bidN.IsUint64() && domain.OrderSide(bidN.Uint64()) == domain.SideBid,
		TokenID:         token.ID,
		QuoteContractID: quote.ID,
		QuoteAmount:     domain.FeltString(amount),
		TxHash:          tx.Hash,
	}
	if err := r.store.CreateLimitOrder(ctx, order); err != nil {
		return err
	}

	if !order.Bid {
		if token.OwnerID == nil || *token.OwnerID != account.ID {
			return fmt.Errorf("ask on token %d by non-owner: %w", token.ID, domain.ErrProjectionIntegrity)
		}
		token.AskOrderID = &order.ID
		return r.store.SaveToken(ctx, token)
	}
	balance, err := r.service.LiftBalance(ctx, account, quote)
	if err != nil {
		return err
	}
	return r.service.Debit(ctx, balance, amount)
}

// fulfillOrder closes an order as FULFILLED and settles both legs: the token
// moves to the counterparty and the quote amount moves between the two quote
// balances.
func (in *Interpreter) fulfillOrder(ctx context.Context, r *replay, tx *schema.Transaction, args []string) error {
	orderID, user := args[0], args[1]

	order, err := r.openOrder(ctx, orderID)
	if err != nil {
		return err
	}
	order.ClosedTxHash = &tx.Hash
	fulfilled := true
	order.Fulfilled = &fulfilled
	if err := r.store.SaveLimitOrder(ctx, order); err != nil {
		return err
	}

	token := order.Token
	token.LatestTxHash = &tx.Hash
	token.AskOrderID = nil

	account, err := r.liftAccount(ctx, user)
	if err != nil {
		return err
	}
	amount, err := domain.ParseFelt(order.QuoteAmount)
	if err != nil {
		return err
	}

	if order.Bid {
		token.OwnerID = &order.UserID
		balance, err := r.service.LiftBalance(ctx, account, &order.QuoteContract)
		if err != nil {
			return err
		}
		if err := r.service.Credit(ctx, balance, amount); err != nil {
			return err
		}
	} else {
		token.OwnerID = &account.ID
		buyerBalance, err := r.service.LiftBalance(ctx, account, &order.QuoteContract)
		if err != nil {
			return err
		}
		if err := r.service.Debit(ctx, buyerBalance, amount); err != nil {
			return err
		}
		sellerBalance, err := r.service.LiftBalance(ctx, &order.User, &order.QuoteContract)
		if err != nil {
			return err
		}
		if err := r.service.Credit(ctx, sellerBalance, amount); err != nil {
			return err
		}
	}
	return r.store.SaveToken(ctx, &token)
}

// cancelOrder closes an order as CANCELLED: bids refund the escrowed quote
// amount, asks release the token's ask reference.
func (in *Interpreter) cancelOrder(ctx context.Context, r *replay, tx *schema.Transaction, args []string) error {
	orderID := args[0]

	order, err := r.openOrder(ctx, orderID)
	if err != nil {
		return err
	}
	order.ClosedTxHash = &tx.Hash
	fulfilled := false
	order.Fulfilled = &fulfilled
	if err := r.store.SaveLimitOrder(ctx, order); err != nil {
		return err
	}

	if order.Bid {
		amount, err := domain.ParseFelt(order.QuoteAmount)
		if err != nil {
			return err
		}
		balance, err := r.service.LiftBalance(ctx, &order.User, &order.QuoteContract)
		if err != nil {
			return err
		}
		return r.service.Credit(ctx, balance, amount)
	}
	token := order.Token
	token.AskOrderID = nil
	return r.store.SaveToken(ctx, &token)
}

// The composite instructions do not carry enough calldata to describe their
// resulting flows; the ledger's emitted event log is authoritative. Each one
// replays the canonical transfer and mint sub-events raised during the call,
// tagged with provenance. Zero matching sub-events make the instruction a
// no-op.

func (in *Interpreter) installToken(ctx context.Context, r *replay, tx *schema.Transaction, args []string) error {
	return in.replayEvents(ctx, r, tx, "install_token", args[3])
}

func (in *Interpreter) uninstallToken(ctx context.Context, r *replay, tx *schema.Transaction, args []string) error {
	return in.replayEvents(ctx, r, tx, "uninstall_token", args[2])
}

func (in *Interpreter) executeStereotype(ctx context.Context, r *replay, tx *schema.Transaction, args []string) error {
	return in.replayEvents(ctx, r, tx, "execute_stereotype", args[0])
}

func (in *Interpreter) solveStereotype(ctx context.Context, r *replay, tx *schema.Transaction, args []string) error {
	return in.replayEvents(ctx, r, tx, "solve_stereotype", args[0])
}

// replayEvents scans the transaction's receipt for transfer and mint events
// emitted by the ledger contract and applies each as an ordinary flow.
func (in *Interpreter) replayEvents(ctx context.Context, r *replay, tx *schema.Transaction, function, stereotypeID string) error {
	receipt := r.receipts[tx.Hash]
	if receipt == nil {
		return nil
	}

	stereotype, err := domain.ParseFelt(stereotypeID)
	if err != nil {
		return err
	}
	for _, event := range receipt.Events {
		from, err := normalizeFelt(event.FromAddress)
		if err != nil {
			return err
		}
		if from != in.ledgerAddress || len(event.Keys) == 0 {
			continue
		}
		selector, err := normalizeFelt(event.Keys[0])
		if err != nil {
			return err
		}

		switch selector {
		case in.transferEvent:
			if len(event.Data) != 4 {
				return fmt.Errorf("transfer event with %d words in %s: %w",
					len(event.Data), tx.Hash, domain.ErrProjectionIntegrity)
			}
			logger.Info("replaying transfer event",
				zap.String("hash", tx.Hash),
				zap.String("function", function))
			extra, err := provenance(stereotype, function, event.Data[0])
			if err != nil {
				return err
			}
			if _, _, err := r.flow(ctx, tx, event.Data[0], event.Data[1], event.Data[2], event.Data[3], extra); err != nil {
				return err
			}
		case in.mintEvent:
			if len(event.Data) != 3 {
				return fmt.Errorf("mint event with %d words in %s: %w",
					len(event.Data), tx.Hash, domain.ErrProjectionIntegrity)
			}
			logger.Info("replaying mint event",
				zap.String("hash", tx.Hash),
				zap.String("function", function))
			extra, err := provenance(stereotype, function, "")
			if err != nil {
				return err
			}
			if err := r.mint(ctx, tx, event.Data[0], event.Data[1], event.Data[2], extra); err != nil {
				return err
			}
		}
	}
	return nil
}

// provenance builds the extra document attached to flows derived from
// composite operations.
func provenance(stereotype *big.Int, function, owner string) (datatypes.JSON, error) {
	doc := map[string]string{
		"stereotype_id": domain.FeltString(stereotype),
		"function":      function,
	}
	if owner != "" {
		normalized, err := normalizeFelt(owner)
		if err != nil {
			return nil, err
		}
		doc["owner"] = normalized
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// liftAccount returns the account for a stark key calldata word, creating it
// on first reference.
func (r *replay) liftAccount(ctx context.Context, user string) (*schema.Account, error) {
	n, err := domain.ParseFelt(user)
	if err != nil {
		return nil, err
	}
	return r.service.LiftAccount(ctx, n)
}

// tokenContract resolves a calldata contract word to its registered row; a
// contract the projection has never registered is an integrity failure.
func (r *replay) tokenContract(ctx context.Context, contract string) (*schema.TokenContract, error) {
	address, err := domain.ToChecksumAddress(contract)
	if err != nil {
		return nil, err
	}
	row, err := r.store.GetTokenContractByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("unregistered token contract %s: %w", address, domain.ErrProjectionIntegrity)
	}
	return row, nil
}

// liftToken returns the token row for a non-fungible contract, creating it on
// first reference, plus the contract row itself. For fungible contracts the
// token is nil and callers fall back to balance accounting.
func (r *replay) liftToken(ctx context.Context, tokenID, contract string) (*schema.Token, *schema.TokenContract, error) {
	row, err := r.tokenContract(ctx, contract)
	if err != nil {
		return nil, nil, err
	}
	if row.Fungible {
		return nil, row, nil
	}

	id, err := domain.ParseFelt(tokenID)
	if err != nil {
		return nil, nil, err
	}
	idStr := domain.FeltString(id)
	token, err := r.store.GetToken(ctx, row.ID, idStr)
	if err != nil {
		return nil, nil, err
	}
	if token == nil {
		token = &schema.Token{ContractID: row.ID, TokenID: idStr}
		if row.BaseURI != nil {
			uri := strings.TrimSuffix(*row.BaseURI, "/") + "/" + idStr
			token.TokenURI = &uri
		}
		if err := r.store.CreateToken(ctx, token); err != nil {
			return nil, nil, err
		}
	}
	return token, row, nil
}

// mint assigns a token to an account and records a MINT flow.
func (r *replay) mint(ctx context.Context, tx *schema.Transaction, user, tokenID, contract string, extra datatypes.JSON) error {
	token, _, err := r.liftToken(ctx, tokenID, contract)
	if err != nil {
		return err
	}
	if token == nil {
		return fmt.Errorf("mint against fungible contract %s: %w", contract, domain.ErrProjectionIntegrity)
	}
	account, err := r.liftAccount(ctx, user)
	if err != nil {
		return err
	}
	token.OwnerID = &account.ID
	token.LatestTxHash = &tx.Hash
	if err := r.store.SaveToken(ctx, token); err != nil {
		return err
	}
	return r.store.CreateTokenFlow(ctx, &schema.TokenFlow{
		TxHash:      tx.Hash,
		Type:        domain.FlowMint,
		TokenID:     token.ID,
		ToAccountID: &account.ID,
		Extra:       extra,
	})
}

// flow re-points ownership of a non-fungible token and records a TRANSFER
// flow. For fungible contracts it returns a nil token and leaves the
// projection untouched; the caller decides how to account the movement.
func (r *replay) flow(ctx context.Context, tx *schema.Transaction, from, to, tokenID, contract string, extra datatypes.JSON) (*schema.Token, *schema.TokenContract, error) {
	token, row, err := r.liftToken(ctx, tokenID, contract)
	if err != nil {
		return nil, nil, err
	}
	if token == nil {
		return nil, row, nil
	}

	fromAccount, err := r.liftAccount(ctx, from)
	if err != nil {
		return nil, nil, err
	}
	toAccount, err := r.liftAccount(ctx, to)
	if err != nil {
		return nil, nil, err
	}
	if token.OwnerID == nil || *token.OwnerID != fromAccount.ID {
		return nil, nil, fmt.Errorf("token %d transferred by non-owner: %w", token.ID, domain.ErrProjectionIntegrity)
	}

	token.OwnerID = &toAccount.ID
	token.LatestTxHash = &tx.Hash
	if err := r.store.SaveToken(ctx, token); err != nil {
		return nil, nil, err
	}
	if err := r.store.CreateTokenFlow(ctx, &schema.TokenFlow{
		TxHash:        tx.Hash,
		Type:          domain.FlowTransfer,
		TokenID:       token.ID,
		FromAccountID: &fromAccount.ID,
		ToAccountID:   &toAccount.ID,
		Extra:         extra,
	}); err != nil {
		return nil, nil, err
	}
	return token, row, nil
}

// openOrder fetches an order that must exist and must still be open.
func (r *replay) openOrder(ctx context.Context, orderID string) (*schema.LimitOrder, error) {
	id, err := domain.ParseFelt(orderID)
	if err != nil {
		return nil, err
	}
	order, err := r.store.GetLimitOrderByOrderID(ctx, domain.FeltString(id))
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("unknown limit order %s: %w", orderID, domain.ErrProjectionIntegrity)
	}
	if order.ClosedTxHash != nil {
		return nil, fmt.Errorf("limit order %s: %w", order.OrderID, domain.ErrOrderClosed)
	}
	return order, nil
}
