package rest

import (
	"time"

	"gorm.io/datatypes"

	"github.com/starkmirror/starkmirror/internal/store/schema"
)

// ContractDTO is the public shape of a token contract
type ContractDTO struct {
	Address  string  `json:"address"`
	Fungible bool    `json:"fungible"`
	Name     *string `json:"name,omitempty"`
	Symbol   *string `json:"symbol,omitempty"`
	Decimals *int    `json:"decimals,omitempty"`
	BaseURI  *string `json:"base_uri,omitempty"`
}

// BalanceDTO is one fungible holding of an account
type BalanceDTO struct {
	Contract ContractDTO `json:"contract"`
	Amount   string      `json:"amount"`
}

// AccountDTO is the public shape of an account with its holdings
type AccountDTO struct {
	StarkKey string       `json:"stark_key"`
	Address  *string      `json:"address,omitempty"`
	Balances []BalanceDTO `json:"balances"`
}

// TokenDTO is the public shape of a non-fungible token
type TokenDTO struct {
	TokenID      string  `json:"token_id"`
	OwnerID      *uint64 `json:"owner_id,omitempty"`
	Nonce        uint64  `json:"nonce"`
	LatestTxHash *string `json:"latest_tx_hash,omitempty"`
	AskOrderID   *uint64 `json:"ask_order_id,omitempty"`
	TokenURI     *string `json:"token_uri,omitempty"`
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	Image        *string `json:"image,omitempty"`
}

// FlowDTO is one recorded ownership change of a token
type FlowDTO struct {
	ID            uint64         `json:"id"`
	TxHash        string         `json:"tx_hash"`
	Type          string         `json:"type"`
	FromAccountID *uint64        `json:"from_account_id,omitempty"`
	ToAccountID   *uint64        `json:"to_account_id,omitempty"`
	Address       *string        `json:"address,omitempty"`
	Mint          *bool          `json:"mint,omitempty"`
	Nonce         *string        `json:"nonce,omitempty"`
	Confirmed     bool           `json:"confirmed"`
	Extra         datatypes.JSON `json:"extra,omitempty"`
}

// OrderDTO is the public shape of a limit order
type OrderDTO struct {
	OrderID       string  `json:"order_id"`
	User          string  `json:"user,omitempty"`
	Bid           bool    `json:"bid"`
	TokenID       string  `json:"token_id,omitempty"`
	QuoteContract string  `json:"quote_contract,omitempty"`
	QuoteAmount   string  `json:"quote_amount"`
	State         string  `json:"state"`
	TxHash        string  `json:"tx_hash"`
	ClosedTxHash  *string `json:"closed_tx_hash,omitempty"`
}

// TransferDTO is the public shape of an off-chain transfer
type TransferDTO struct {
	Hash     string    `json:"hash"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Amount   string    `json:"amount"`
	Contract string    `json:"contract"`
	Nonce    string    `json:"nonce"`
	Status   string    `json:"status"`
	Created  time.Time `json:"created_at"`
}

// BlockDTO is the public shape of an ingested block
type BlockDTO struct {
	Number    uint64    `json:"number"`
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
}

// TransactionDTO is the public shape of a recorded invocation
type TransactionDTO struct {
	Hash               string         `json:"hash"`
	BlockNumber        uint64         `json:"block_number"`
	TransactionIndex   int            `json:"transaction_index"`
	Type               string         `json:"type"`
	ContractAddress    string         `json:"contract_address"`
	EntryPointSelector *string        `json:"entry_point_selector,omitempty"`
	Calldata           datatypes.JSON `json:"calldata"`
}

func contractDTO(contract *schema.TokenContract) ContractDTO {
	return ContractDTO{
		Address:  contract.Address,
		Fungible: contract.Fungible,
		Name:     contract.Name,
		Symbol:   contract.Symbol,
		Decimals: contract.Decimals,
		BaseURI:  contract.BaseURI,
	}
}

func tokenDTO(token *schema.Token) TokenDTO {
	return TokenDTO{
		TokenID:      token.TokenID,
		OwnerID:      token.OwnerID,
		Nonce:        token.Nonce,
		LatestTxHash: token.LatestTxHash,
		AskOrderID:   token.AskOrderID,
		TokenURI:     token.TokenURI,
		Name:         token.Name,
		Description:  token.Description,
		Image:        token.Image,
	}
}

func flowDTO(flow *schema.TokenFlow) FlowDTO {
	return FlowDTO{
		ID:            flow.ID,
		TxHash:        flow.TxHash,
		Type:          string(flow.Type),
		FromAccountID: flow.FromAccountID,
		ToAccountID:   flow.ToAccountID,
		Address:       flow.Address,
		Mint:          flow.Mint,
		Nonce:         flow.Nonce,
		Confirmed:     flow.EthEventID != nil,
		Extra:         flow.Extra,
	}
}

// orderState derives the order's lifecycle state
func orderState(order *schema.LimitOrder) string {
	switch {
	case order.Fulfilled == nil:
		return "NEW"
	case *order.Fulfilled:
		return "FULFILLED"
	default:
		return "CANCELLED"
	}
}

func orderDTO(order *schema.LimitOrder) OrderDTO {
	dto := OrderDTO{
		OrderID:      order.OrderID,
		Bid:          order.Bid,
		QuoteAmount:  order.QuoteAmount,
		State:        orderState(order),
		TxHash:       order.TxHash,
		ClosedTxHash: order.ClosedTxHash,
	}
	// associations are only populated on single-order lookups
	if order.User.ID != 0 {
		dto.User = order.User.StarkKey
	}
	if order.Token.ID != 0 {
		dto.TokenID = order.Token.TokenID
	}
	if order.QuoteContract.ID != 0 {
		dto.QuoteContract = order.QuoteContract.Address
	}
	return dto
}

func transferDTO(transfer *schema.Transfer) TransferDTO {
	return TransferDTO{
		Hash:     transfer.Hash,
		From:     transfer.FromAccount.StarkKey,
		To:       transfer.ToAccount.StarkKey,
		Amount:   transfer.Amount,
		Contract: transfer.Contract.Address,
		Nonce:    transfer.Nonce,
		Status:   string(transfer.Status),
		Created:  transfer.CreatedAt,
	}
}

func transactionDTO(tx *schema.Transaction) TransactionDTO {
	return TransactionDTO{
		Hash:               tx.Hash,
		BlockNumber:        tx.BlockID,
		TransactionIndex:   tx.TransactionIndex,
		Type:               tx.Type,
		ContractAddress:    tx.Contract.Address,
		EntryPointSelector: tx.EntryPointSelector,
		Calldata:           tx.Calldata,
	}
}
