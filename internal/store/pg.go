package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/starkmirror/starkmirror/internal/domain"
	"github.com/starkmirror/starkmirror/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to reasonable defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// WithinTransaction runs fn against a transaction-scoped store
func (s *pgStore) WithinTransaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&pgStore{db: tx})
	})
}

// Migrate creates or updates the projection schema
func (s *pgStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&schema.Block{},
		&schema.StarkContract{},
		&schema.Transaction{},
		&schema.Account{},
		&schema.TokenContract{},
		&schema.Blueprint{},
		&schema.Token{},
		&schema.Balance{},
		&schema.LimitOrder{},
		&schema.TokenFlow{},
		&schema.Deposit{},
		&schema.Withdrawal{},
		&schema.Transfer{},
		&schema.EthBlock{},
		&schema.EthEvent{},
	)
}

// GetBlock retrieves a block by its sequence number
func (s *pgStore) GetBlock(ctx context.Context, number uint64) (*schema.Block, error) {
	var block schema.Block
	err := s.db.WithContext(ctx).Where("id = ?", number).First(&block).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get block: %w", err)
	}
	return &block, nil
}

// BlockNumbersInRange lists persisted block numbers in [lo, hi)
func (s *pgStore) BlockNumbersInRange(ctx context.Context, lo, hi uint64) ([]uint64, error) {
	var numbers []uint64
	err := s.db.WithContext(ctx).
		Model(&schema.Block{}).
		Where("id >= ? AND id < ?", lo, hi).
		Order("id ASC").
		Pluck("id", &numbers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list block numbers: %w", err)
	}
	return numbers, nil
}

// CreateBlock persists a block together with its transactions
func (s *pgStore) CreateBlock(ctx context.Context, block *schema.Block, txs []*schema.Transaction) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(block).Error; err != nil {
			return fmt.Errorf("failed to create block: %w", err)
		}
		for _, t := range txs {
			if err := tx.Create(t).Error; err != nil {
				return fmt.Errorf("failed to create transaction %s: %w", t.Hash, err)
			}
		}
		return nil
	})
}

// NonFinalBlocks lists blocks numbered fromNumber or higher whose document
// status is not yet settlement-finalized
func (s *pgStore) NonFinalBlocks(ctx context.Context, fromNumber uint64, limit int) ([]schema.Block, error) {
	var blocks []schema.Block
	err := s.db.WithContext(ctx).
		Where("id >= ?", fromNumber).
		Where("document->>'status' NOT IN ?", []string{
			string(domain.StatusAcceptedOnL1),
			string(domain.StatusAcceptedOnChain),
		}).
		Order("id ASC").
		Limit(limit).
		Find(&blocks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list non-final blocks: %w", err)
	}
	return blocks, nil
}

// SaveBlockDocument overwrites a stored block's raw document
func (s *pgStore) SaveBlockDocument(ctx context.Context, number uint64, document datatypes.JSON) error {
	err := s.db.WithContext(ctx).
		Model(&schema.Block{}).
		Where("id = ?", number).
		Update("document", document).Error
	if err != nil {
		return fmt.Errorf("failed to save block document: %w", err)
	}
	return nil
}

// DeleteBlock removes a block's transactions and then the block itself
func (s *pgStore) DeleteBlock(ctx context.Context, number uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("block_id = ?", number).Delete(&schema.Transaction{}).Error; err != nil {
			return fmt.Errorf("failed to delete transactions of block %d: %w", number, err)
		}
		if err := tx.Where("id = ?", number).Delete(&schema.Block{}).Error; err != nil {
			return fmt.Errorf("failed to delete block %d: %w", number, err)
		}
		return nil
	})
}

// GetOrCreateStarkContract looks up a contract by address, creating it on
// first sight
func (s *pgStore) GetOrCreateStarkContract(ctx context.Context, address string) (*schema.StarkContract, error) {
	var contract schema.StarkContract
	err := s.db.WithContext(ctx).Where("address = ?", address).First(&contract).Error
	if err == nil {
		return &contract, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get stark contract: %w", err)
	}

	contract = schema.StarkContract{Address: address}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoNothing: true,
	}).Create(&contract).Error; err != nil {
		return nil, fmt.Errorf("failed to create stark contract: %w", err)
	}
	if contract.ID == 0 {
		if err := s.db.WithContext(ctx).Where("address = ?", address).First(&contract).Error; err != nil {
			return nil, fmt.Errorf("failed to get stark contract after conflict: %w", err)
		}
	}
	return &contract, nil
}

// GetStarkContracts retrieves contracts by address
func (s *pgStore) GetStarkContracts(ctx context.Context, addresses []string) ([]schema.StarkContract, error) {
	var contracts []schema.StarkContract
	err := s.db.WithContext(ctx).Where("address IN ?", addresses).Find(&contracts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get stark contracts: %w", err)
	}
	return contracts, nil
}

// DeployBlockNumbers maps each address to the block number of its first
// DEPLOY transaction
func (s *pgStore) DeployBlockNumbers(ctx context.Context, addresses []string) (map[string]uint64, error) {
	var rows []struct {
		Address string
		BlockID uint64
	}
	err := s.db.WithContext(ctx).
		Model(&schema.Transaction{}).
		Select("stark_contracts.address AS address, MIN(transactions.block_id) AS block_id").
		Joins("JOIN stark_contracts ON stark_contracts.id = transactions.contract_id").
		Where("transactions.type = ?", domain.TxTypeDeploy).
		Where("stark_contracts.address IN ?", addresses).
		Group("stark_contracts.address").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get deploy block numbers: %w", err)
	}

	result := make(map[string]uint64, len(rows))
	for _, row := range rows {
		result[row.Address] = row.BlockID
	}
	return result, nil
}

// AdvanceBlockCounters sets the replay cursor of the given contracts
func (s *pgStore) AdvanceBlockCounters(ctx context.Context, addresses []string, next uint64) error {
	err := s.db.WithContext(ctx).
		Model(&schema.StarkContract{}).
		Where("address IN ?", addresses).
		Update("block_counter", next).Error
	if err != nil {
		return fmt.Errorf("failed to advance block counters: %w", err)
	}
	return nil
}

// TransactionsForBlock lists a block's transactions against the given
// contract addresses in transaction-index order
func (s *pgStore) TransactionsForBlock(ctx context.Context, blockNumber uint64, addresses []string) ([]schema.Transaction, error) {
	var txs []schema.Transaction
	err := s.db.WithContext(ctx).
		Joins("JOIN stark_contracts ON stark_contracts.id = transactions.contract_id").
		Where("transactions.block_id = ?", blockNumber).
		Where("stark_contracts.address IN ?", addresses).
		Order("transactions.transaction_index ASC").
		Preload("Contract").
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list block transactions: %w", err)
	}
	return txs, nil
}

// NextTransaction returns the earliest transaction at or past fromBlock
// invoking the given selector on the given contract
func (s *pgStore) NextTransaction(ctx context.Context, contractAddress, selector string, fromBlock uint64) (*schema.Transaction, error) {
	var tx schema.Transaction
	err := s.db.WithContext(ctx).
		Joins("JOIN stark_contracts ON stark_contracts.id = transactions.contract_id").
		Where("stark_contracts.address = ?", contractAddress).
		Where("transactions.entry_point_selector = ?", selector).
		Where("transactions.block_id >= ?", fromBlock).
		Order("transactions.block_id ASC, transactions.transaction_index ASC").
		Preload("Contract").
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get next transaction: %w", err)
	}
	return &tx, nil
}

// GetAccountByStarkKey retrieves an account by its stark key
func (s *pgStore) GetAccountByStarkKey(ctx context.Context, starkKey string) (*schema.Account, error) {
	var account schema.Account
	err := s.db.WithContext(ctx).Where("stark_key = ?", starkKey).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// GetAccountByAddress retrieves an account by its settlement-layer address
func (s *pgStore) GetAccountByAddress(ctx context.Context, address string) (*schema.Account, error) {
	var account schema.Account
	err := s.db.WithContext(ctx).Where("address = ?", address).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

func (s *pgStore) CreateAccount(ctx context.Context, account *schema.Account) error {
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (s *pgStore) SaveAccount(ctx context.Context, account *schema.Account) error {
	if err := s.db.WithContext(ctx).Save(account).Error; err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

// GetTokenContractByAddress retrieves a token contract by its address
func (s *pgStore) GetTokenContractByAddress(ctx context.Context, address string) (*schema.TokenContract, error) {
	var contract schema.TokenContract
	err := s.db.WithContext(ctx).Where("address = ?", address).First(&contract).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token contract: %w", err)
	}
	return &contract, nil
}

func (s *pgStore) CreateTokenContract(ctx context.Context, contract *schema.TokenContract) error {
	if err := s.db.WithContext(ctx).Create(contract).Error; err != nil {
		return fmt.Errorf("failed to create token contract: %w", err)
	}
	return nil
}

// GetBlueprint returns the pending registration for a contract
func (s *pgStore) GetBlueprint(ctx context.Context, tokenContractID uint64) (*schema.Blueprint, error) {
	var blueprint schema.Blueprint
	err := s.db.WithContext(ctx).
		Where("token_contract_id = ?", tokenContractID).
		Preload("Minter").
		First(&blueprint).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get blueprint: %w", err)
	}
	return &blueprint, nil
}

func (s *pgStore) CreateBlueprint(ctx context.Context, blueprint *schema.Blueprint) error {
	if err := s.db.WithContext(ctx).Create(blueprint).Error; err != nil {
		return fmt.Errorf("failed to create blueprint: %w", err)
	}
	return nil
}

// GetToken retrieves a token by contract and token number
func (s *pgStore) GetToken(ctx context.Context, contractID uint64, tokenID string) (*schema.Token, error) {
	var token schema.Token
	err := s.db.WithContext(ctx).
		Where("contract_id = ? AND token_id = ?", contractID, tokenID).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &token, nil
}

func (s *pgStore) CreateToken(ctx context.Context, token *schema.Token) error {
	if err := s.db.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}
	return nil
}

func (s *pgStore) SaveToken(ctx context.Context, token *schema.Token) error {
	if err := s.db.WithContext(ctx).Save(token).Error; err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// GetBalance retrieves a balance row by account and contract
func (s *pgStore) GetBalance(ctx context.Context, accountID, contractID uint64) (*schema.Balance, error) {
	var balance schema.Balance
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND contract_id = ?", accountID, contractID).
		First(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return &balance, nil
}

func (s *pgStore) CreateBalance(ctx context.Context, balance *schema.Balance) error {
	if err := s.db.WithContext(ctx).Create(balance).Error; err != nil {
		return fmt.Errorf("failed to create balance: %w", err)
	}
	return nil
}

func (s *pgStore) SaveBalance(ctx context.Context, balance *schema.Balance) error {
	if err := s.db.WithContext(ctx).Save(balance).Error; err != nil {
		return fmt.Errorf("failed to save balance: %w", err)
	}
	return nil
}

func (s *pgStore) ListBalances(ctx context.Context, accountID uint64) ([]schema.Balance, error) {
	var balances []schema.Balance
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Preload("Contract").
		Find(&balances).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	return balances, nil
}

// GetLimitOrderByOrderID retrieves an order by its on-chain identifier
func (s *pgStore) GetLimitOrderByOrderID(ctx context.Context, orderID string) (*schema.LimitOrder, error) {
	var order schema.LimitOrder
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Preload("User").
		Preload("Token").
		Preload("QuoteContract").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get limit order: %w", err)
	}
	return &order, nil
}

func (s *pgStore) CreateLimitOrder(ctx context.Context, order *schema.LimitOrder) error {
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create limit order: %w", err)
	}
	return nil
}

func (s *pgStore) SaveLimitOrder(ctx context.Context, order *schema.LimitOrder) error {
	if err := s.db.WithContext(ctx).Save(order).Error; err != nil {
		return fmt.Errorf("failed to save limit order: %w", err)
	}
	return nil
}

func (s *pgStore) ListOpenLimitOrders(ctx context.Context, limit int, offset uint64) ([]schema.LimitOrder, error) {
	var orders []schema.LimitOrder
	err := s.db.WithContext(ctx).
		Where("closed_tx_hash IS NULL").
		Order("id ASC").
		Limit(limit).
		Offset(int(offset)). //nolint:gosec,G115
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list open limit orders: %w", err)
	}
	return orders, nil
}

func (s *pgStore) CreateTokenFlow(ctx context.Context, flow *schema.TokenFlow) error {
	if err := s.db.WithContext(ctx).Create(flow).Error; err != nil {
		return fmt.Errorf("failed to create token flow: %w", err)
	}
	return nil
}

func (s *pgStore) SaveTokenFlow(ctx context.Context, flow *schema.TokenFlow) error {
	if err := s.db.WithContext(ctx).Save(flow).Error; err != nil {
		return fmt.Errorf("failed to save token flow: %w", err)
	}
	return nil
}

func (s *pgStore) ListTokenFlows(ctx context.Context, tokenID uint64, limit int, offset uint64) ([]schema.TokenFlow, error) {
	var flows []schema.TokenFlow
	err := s.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		Order("id DESC").
		Limit(limit).
		Offset(int(offset)). //nolint:gosec,G115
		Find(&flows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list token flows: %w", err)
	}
	return flows, nil
}

func (s *pgStore) CreateDeposit(ctx context.Context, deposit *schema.Deposit) error {
	if err := s.db.WithContext(ctx).Create(deposit).Error; err != nil {
		return fmt.Errorf("failed to create deposit: %w", err)
	}
	return nil
}

func (s *pgStore) CreateWithdrawal(ctx context.Context, withdrawal *schema.Withdrawal) error {
	if err := s.db.WithContext(ctx).Create(withdrawal).Error; err != nil {
		return fmt.Errorf("failed to create withdrawal: %w", err)
	}
	return nil
}

func (s *pgStore) SaveWithdrawal(ctx context.Context, withdrawal *schema.Withdrawal) error {
	if err := s.db.WithContext(ctx).Save(withdrawal).Error; err != nil {
		return fmt.Errorf("failed to save withdrawal: %w", err)
	}
	return nil
}

// PendingWithdrawal finds an unconfirmed fungible withdrawal by its
// settlement parameters
func (s *pgStore) PendingWithdrawal(ctx context.Context, amount, address, nonce string) (*schema.Withdrawal, error) {
	var withdrawal schema.Withdrawal
	err := s.db.WithContext(ctx).
		Where("amount = ? AND address = ? AND nonce = ?", amount, address, nonce).
		Where("eth_event_id IS NULL").
		First(&withdrawal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pending withdrawal: %w", err)
	}
	return &withdrawal, nil
}

// PendingWithdrawalFlow finds an unconfirmed non-fungible withdrawal flow by
// its settlement parameters
func (s *pgStore) PendingWithdrawalFlow(ctx context.Context, address string, mint bool, nonce string) (*schema.TokenFlow, error) {
	var flow schema.TokenFlow
	err := s.db.WithContext(ctx).
		Where("type = ?", domain.FlowWithdrawal).
		Where("address = ? AND mint = ? AND nonce = ?", address, mint, nonce).
		Where("eth_event_id IS NULL").
		First(&flow).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pending withdrawal flow: %w", err)
	}
	return &flow, nil
}

// GetTransferByHash retrieves a transfer by its transaction hash
func (s *pgStore) GetTransferByHash(ctx context.Context, hash string) (*schema.Transfer, error) {
	var transfer schema.Transfer
	err := s.db.WithContext(ctx).
		Where("hash = ?", hash).
		Preload("FromAccount").
		Preload("ToAccount").
		Preload("Contract").
		First(&transfer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}
	return &transfer, nil
}

func (s *pgStore) CreateTransfer(ctx context.Context, transfer *schema.Transfer) error {
	if err := s.db.WithContext(ctx).Create(transfer).Error; err != nil {
		return fmt.Errorf("failed to create transfer: %w", err)
	}
	return nil
}

func (s *pgStore) SaveTransfer(ctx context.Context, transfer *schema.Transfer) error {
	if err := s.db.WithContext(ctx).Save(transfer).Error; err != nil {
		return fmt.Errorf("failed to save transfer: %w", err)
	}
	return nil
}

// UnsettledTransfers lists transfers still awaiting on-chain inclusion
func (s *pgStore) UnsettledTransfers(ctx context.Context, limit int) ([]schema.Transfer, error) {
	var transfers []schema.Transfer
	err := s.db.WithContext(ctx).
		Where("status IN ?", []string{
			string(domain.StatusNotReceived),
			string(domain.StatusReceived),
		}).
		Order("id ASC").
		Limit(limit).
		Preload("FromAccount").
		Preload("ToAccount").
		Preload("Contract").
		Find(&transfers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unsettled transfers: %w", err)
	}
	return transfers, nil
}

// GetLatestEthBlock retrieves the settlement-layer block with the highest number
func (s *pgStore) GetLatestEthBlock(ctx context.Context) (*schema.EthBlock, error) {
	var block schema.EthBlock
	err := s.db.WithContext(ctx).Order("id DESC").First(&block).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest eth block: %w", err)
	}
	return &block, nil
}

func (s *pgStore) GetEthBlockByHash(ctx context.Context, hash string) (*schema.EthBlock, error) {
	var block schema.EthBlock
	err := s.db.WithContext(ctx).Where("hash = ?", hash).First(&block).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get eth block: %w", err)
	}
	return &block, nil
}

func (s *pgStore) CreateEthBlock(ctx context.Context, block *schema.EthBlock) error {
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(block).Error; err != nil {
		return fmt.Errorf("failed to create eth block: %w", err)
	}
	return nil
}

func (s *pgStore) GetEthEvent(ctx context.Context, txHash string, logIndex uint) (*schema.EthEvent, error) {
	var event schema.EthEvent
	err := s.db.WithContext(ctx).
		Where("tx_hash = ? AND log_index = ?", txHash, logIndex).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get eth event: %w", err)
	}
	return &event, nil
}

func (s *pgStore) CreateEthEvent(ctx context.Context, event *schema.EthEvent) error {
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create eth event: %w", err)
	}
	return nil
}
