package store

import (
	"context"

	"gorm.io/datatypes"

	"github.com/starkmirror/starkmirror/internal/store/schema"
)

// Store defines the interface for database operations.
// Getters return (nil, nil) when no row matches.
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// WithinTransaction runs fn against a transaction-scoped store; fn
	// returning an error rolls the whole transaction back
	WithinTransaction(ctx context.Context, fn func(Store) error) error

	// Migrate creates or updates the projection schema
	Migrate(ctx context.Context) error

	// Blocks
	GetBlock(ctx context.Context, number uint64) (*schema.Block, error)
	// BlockNumbersInRange lists persisted block numbers in [lo, hi)
	BlockNumbersInRange(ctx context.Context, lo, hi uint64) ([]uint64, error)
	// CreateBlock persists a block together with its transactions
	CreateBlock(ctx context.Context, block *schema.Block, txs []*schema.Transaction) error
	// NonFinalBlocks lists blocks numbered fromNumber or higher whose
	// document status is not yet settlement-finalized, ascending, at most
	// limit rows
	NonFinalBlocks(ctx context.Context, fromNumber uint64, limit int) ([]schema.Block, error)
	// SaveBlockDocument overwrites a stored block's raw document
	SaveBlockDocument(ctx context.Context, number uint64, document datatypes.JSON) error
	// DeleteBlock removes a block's transactions and then the block itself
	DeleteBlock(ctx context.Context, number uint64) error

	// Stark contracts
	GetOrCreateStarkContract(ctx context.Context, address string) (*schema.StarkContract, error)
	GetStarkContracts(ctx context.Context, addresses []string) ([]schema.StarkContract, error)
	// DeployBlockNumbers maps each address to the block number of its first
	// DEPLOY transaction; addresses without one are absent from the result
	DeployBlockNumbers(ctx context.Context, addresses []string) (map[string]uint64, error)
	// AdvanceBlockCounters sets the replay cursor of the given contracts
	AdvanceBlockCounters(ctx context.Context, addresses []string, next uint64) error
	// TransactionsForBlock lists a block's transactions against the given
	// contract addresses in transaction-index order, contracts preloaded
	TransactionsForBlock(ctx context.Context, blockNumber uint64, addresses []string) ([]schema.Transaction, error)
	// NextTransaction returns the earliest transaction at or past fromBlock
	// invoking the given selector on the given contract
	NextTransaction(ctx context.Context, contractAddress, selector string, fromBlock uint64) (*schema.Transaction, error)

	// Accounts
	GetAccountByStarkKey(ctx context.Context, starkKey string) (*schema.Account, error)
	GetAccountByAddress(ctx context.Context, address string) (*schema.Account, error)
	CreateAccount(ctx context.Context, account *schema.Account) error
	SaveAccount(ctx context.Context, account *schema.Account) error

	// Token contracts
	GetTokenContractByAddress(ctx context.Context, address string) (*schema.TokenContract, error)
	CreateTokenContract(ctx context.Context, contract *schema.TokenContract) error
	// GetBlueprint returns the pending registration for a contract, minter preloaded
	GetBlueprint(ctx context.Context, tokenContractID uint64) (*schema.Blueprint, error)
	CreateBlueprint(ctx context.Context, blueprint *schema.Blueprint) error

	// Tokens
	GetToken(ctx context.Context, contractID uint64, tokenID string) (*schema.Token, error)
	CreateToken(ctx context.Context, token *schema.Token) error
	SaveToken(ctx context.Context, token *schema.Token) error

	// Balances
	GetBalance(ctx context.Context, accountID, contractID uint64) (*schema.Balance, error)
	CreateBalance(ctx context.Context, balance *schema.Balance) error
	SaveBalance(ctx context.Context, balance *schema.Balance) error
	ListBalances(ctx context.Context, accountID uint64) ([]schema.Balance, error)

	// Limit orders
	GetLimitOrderByOrderID(ctx context.Context, orderID string) (*schema.LimitOrder, error)
	CreateLimitOrder(ctx context.Context, order *schema.LimitOrder) error
	SaveLimitOrder(ctx context.Context, order *schema.LimitOrder) error
	ListOpenLimitOrders(ctx context.Context, limit int, offset uint64) ([]schema.LimitOrder, error)

	// Flows, deposits, withdrawals
	CreateTokenFlow(ctx context.Context, flow *schema.TokenFlow) error
	SaveTokenFlow(ctx context.Context, flow *schema.TokenFlow) error
	ListTokenFlows(ctx context.Context, tokenID uint64, limit int, offset uint64) ([]schema.TokenFlow, error)
	CreateDeposit(ctx context.Context, deposit *schema.Deposit) error
	CreateWithdrawal(ctx context.Context, withdrawal *schema.Withdrawal) error
	SaveWithdrawal(ctx context.Context, withdrawal *schema.Withdrawal) error
	// PendingWithdrawal finds an unconfirmed fungible withdrawal by its
	// settlement parameters
	PendingWithdrawal(ctx context.Context, amount, address, nonce string) (*schema.Withdrawal, error)
	// PendingWithdrawalFlow finds an unconfirmed non-fungible withdrawal flow
	// by its settlement parameters
	PendingWithdrawalFlow(ctx context.Context, address string, mint bool, nonce string) (*schema.TokenFlow, error)

	// Transfers
	GetTransferByHash(ctx context.Context, hash string) (*schema.Transfer, error)
	CreateTransfer(ctx context.Context, transfer *schema.Transfer) error
	SaveTransfer(ctx context.Context, transfer *schema.Transfer) error
	// UnsettledTransfers lists transfers still in NOT_RECEIVED or RECEIVED,
	// associations preloaded, at most limit rows
	UnsettledTransfers(ctx context.Context, limit int) ([]schema.Transfer, error)

	// Settlement-layer facts
	GetLatestEthBlock(ctx context.Context) (*schema.EthBlock, error)
	GetEthBlockByHash(ctx context.Context, hash string) (*schema.EthBlock, error)
	CreateEthBlock(ctx context.Context, block *schema.EthBlock) error
	GetEthEvent(ctx context.Context, txHash string, logIndex uint) (*schema.EthEvent, error)
	CreateEthEvent(ctx context.Context, event *schema.EthEvent) error
}
