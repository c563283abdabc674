// Package storetest provides an in-memory store.Store for unit tests that
// exercise interpretation and reconciliation logic without PostgreSQL.
package storetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/starkmirror/starkmirror/internal/domain"
	"github.com/starkmirror/starkmirror/internal/store"
	"github.com/starkmirror/starkmirror/internal/store/schema"
)

// MemStore is a map-backed store.Store. It is safe for concurrent use.
// WithinTransaction runs the callback against the same state without
// rollback; tests that need rollback semantics use the PostgreSQL store.
type MemStore struct {
	mu sync.Mutex

	nextID uint64

	blocks         map[uint64]*schema.Block
	transactions   map[string]*schema.Transaction
	starkContracts map[string]*schema.StarkContract
	accounts       map[uint64]*schema.Account
	tokenContracts map[uint64]*schema.TokenContract
	blueprints     map[uint64]*schema.Blueprint
	tokens         map[uint64]*schema.Token
	balances       map[uint64]*schema.Balance
	orders         map[uint64]*schema.LimitOrder
	flows          map[uint64]*schema.TokenFlow
	deposits       map[uint64]*schema.Deposit
	withdrawals    map[uint64]*schema.Withdrawal
	transfers      map[uint64]*schema.Transfer
	ethBlocks      map[uint64]*schema.EthBlock
	ethEvents      map[uint64]*schema.EthEvent
}

// NewMemStore creates an empty in-memory store
func NewMemStore() *MemStore {
	return &MemStore{
		blocks:         make(map[uint64]*schema.Block),
		transactions:   make(map[string]*schema.Transaction),
		starkContracts: make(map[string]*schema.StarkContract),
		accounts:       make(map[uint64]*schema.Account),
		tokenContracts: make(map[uint64]*schema.TokenContract),
		blueprints:     make(map[uint64]*schema.Blueprint),
		tokens:         make(map[uint64]*schema.Token),
		balances:       make(map[uint64]*schema.Balance),
		orders:         make(map[uint64]*schema.LimitOrder),
		flows:          make(map[uint64]*schema.TokenFlow),
		deposits:       make(map[uint64]*schema.Deposit),
		withdrawals:    make(map[uint64]*schema.Withdrawal),
		transfers:      make(map[uint64]*schema.Transfer),
		ethBlocks:      make(map[uint64]*schema.EthBlock),
		ethEvents:      make(map[uint64]*schema.EthEvent),
	}
}

var _ store.Store = (*MemStore)(nil)

func (m *MemStore) allocID() uint64 {
	m.nextID++
	return m.nextID
}

// WithinTransaction runs fn against the same state. Mutations made before a
// returned error are NOT rolled back.
func (m *MemStore) WithinTransaction(_ context.Context, fn func(store.Store) error) error {
	return fn(m)
}

func (m *MemStore) Migrate(_ context.Context) error {
	return nil
}

// =============================================================================
// Blocks
// =============================================================================

func (m *MemStore) GetBlock(_ context.Context, number uint64) (*schema.Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	block, ok := m.blocks[number]
	if !ok {
		return nil, nil
	}
	cp := *block
	return &cp, nil
}

func (m *MemStore) BlockNumbersInRange(_ context.Context, lo, hi uint64) ([]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var numbers []uint64
	for n := range m.blocks {
		if n >= lo && n < hi {
			numbers = append(numbers, n)
		}
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	return numbers, nil
}

func (m *MemStore) CreateBlock(_ context.Context, block *schema.Block, txs []*schema.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.blocks[block.ID]; exists {
		return fmt.Errorf("block %d already exists", block.ID)
	}
	cp := *block
	m.blocks[block.ID] = &cp
	for _, tx := range txs {
		if _, exists := m.transactions[tx.Hash]; exists {
			return fmt.Errorf("transaction %s already exists", tx.Hash)
		}
		txCp := *tx
		m.transactions[tx.Hash] = &txCp
	}
	return nil
}

func (m *MemStore) NonFinalBlocks(_ context.Context, fromNumber uint64, limit int) ([]schema.Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var blocks []schema.Block
	for n, block := range m.blocks {
		if n < fromNumber {
			continue
		}
		var doc struct {
			Status domain.TxStatus `json:"status"`
		}
		if err := json.Unmarshal(block.Document, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode document of block %d: %w", n, err)
		}
		if doc.Status.Finalized() {
			continue
		}
		blocks = append(blocks, *block)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].ID < blocks[j].ID })
	if limit > 0 && len(blocks) > limit {
		blocks = blocks[:limit]
	}
	return blocks, nil
}

func (m *MemStore) SaveBlockDocument(_ context.Context, number uint64, document datatypes.JSON) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	block, ok := m.blocks[number]
	if !ok {
		return fmt.Errorf("block %d not found", number)
	}
	block.Document = document
	return nil
}

func (m *MemStore) DeleteBlock(_ context.Context, number uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blocks, number)
	for hash, tx := range m.transactions {
		if tx.BlockID == number {
			delete(m.transactions, hash)
		}
	}
	return nil
}

// =============================================================================
// Stark contracts
// =============================================================================

func (m *MemStore) GetOrCreateStarkContract(_ context.Context, address string) (*schema.StarkContract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if contract, ok := m.starkContracts[address]; ok {
		cp := *contract
		return &cp, nil
	}
	contract := &schema.StarkContract{ID: m.allocID(), Address: address}
	m.starkContracts[address] = contract
	cp := *contract
	return &cp, nil
}

func (m *MemStore) GetStarkContracts(_ context.Context, addresses []string) ([]schema.StarkContract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var contracts []schema.StarkContract
	for _, address := range addresses {
		if contract, ok := m.starkContracts[address]; ok {
			contracts = append(contracts, *contract)
		}
	}
	return contracts, nil
}

func (m *MemStore) DeployBlockNumbers(_ context.Context, addresses []string) (map[string]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := make(map[uint64]string, len(addresses))
	for _, address := range addresses {
		if contract, ok := m.starkContracts[address]; ok {
			wanted[contract.ID] = address
		}
	}

	result := make(map[string]uint64)
	for _, tx := range m.transactions {
		address, ok := wanted[tx.ContractID]
		if !ok || tx.Type != domain.TxTypeDeploy {
			continue
		}
		if existing, seen := result[address]; !seen || tx.BlockID < existing {
			result[address] = tx.BlockID
		}
	}
	return result, nil
}

func (m *MemStore) AdvanceBlockCounters(_ context.Context, addresses []string, next uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, address := range addresses {
		if contract, ok := m.starkContracts[address]; ok {
			n := next
			contract.BlockCounter = &n
		}
	}
	return nil
}

func (m *MemStore) TransactionsForBlock(_ context.Context, blockNumber uint64, addresses []string) ([]schema.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := make(map[uint64]bool, len(addresses))
	for _, address := range addresses {
		if contract, ok := m.starkContracts[address]; ok {
			wanted[contract.ID] = true
		}
	}

	var txs []schema.Transaction
	for _, tx := range m.transactions {
		if tx.BlockID != blockNumber || !wanted[tx.ContractID] {
			continue
		}
		cp := *tx
		m.attachContract(&cp)
		txs = append(txs, cp)
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].TransactionIndex < txs[j].TransactionIndex })
	return txs, nil
}

func (m *MemStore) NextTransaction(_ context.Context, contractAddress, selector string, fromBlock uint64) (*schema.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	contract, ok := m.starkContracts[contractAddress]
	if !ok {
		return nil, nil
	}

	var best *schema.Transaction
	for _, tx := range m.transactions {
		if tx.ContractID != contract.ID || tx.BlockID < fromBlock {
			continue
		}
		if tx.EntryPointSelector == nil || *tx.EntryPointSelector != selector {
			continue
		}
		if best == nil || tx.BlockID < best.BlockID ||
			(tx.BlockID == best.BlockID && tx.TransactionIndex < best.TransactionIndex) {
			best = tx
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	m.attachContract(&cp)
	return &cp, nil
}

func (m *MemStore) attachContract(tx *schema.Transaction) {
	for _, contract := range m.starkContracts {
		if contract.ID == tx.ContractID {
			tx.Contract = *contract
			return
		}
	}
}

// =============================================================================
// Accounts
// =============================================================================

func (m *MemStore) GetAccountByStarkKey(_ context.Context, starkKey string) (*schema.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, account := range m.accounts {
		if account.StarkKey == starkKey {
			cp := *account
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemStore) GetAccountByAddress(_ context.Context, address string) (*schema.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, account := range m.accounts {
		if account.Address != nil && *account.Address == address {
			cp := *account
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemStore) CreateAccount(_ context.Context, account *schema.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.accounts {
		if existing.StarkKey == account.StarkKey {
			return fmt.Errorf("account %s already exists", account.StarkKey)
		}
	}
	account.ID = m.allocID()
	account.CreatedAt = time.Now()
	cp := *account
	m.accounts[account.ID] = &cp
	return nil
}

func (m *MemStore) SaveAccount(_ context.Context, account *schema.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[account.ID]; !ok {
		return fmt.Errorf("account %d not found", account.ID)
	}
	cp := *account
	m.accounts[account.ID] = &cp
	return nil
}

// =============================================================================
// Token contracts
// =============================================================================

func (m *MemStore) GetTokenContractByAddress(_ context.Context, address string) (*schema.TokenContract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, contract := range m.tokenContracts {
		if contract.Address == address {
			cp := *contract
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemStore) CreateTokenContract(_ context.Context, contract *schema.TokenContract) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.tokenContracts {
		if existing.Address == contract.Address {
			return fmt.Errorf("token contract %s already exists", contract.Address)
		}
	}
	contract.ID = m.allocID()
	cp := *contract
	m.tokenContracts[contract.ID] = &cp
	return nil
}

func (m *MemStore) GetBlueprint(_ context.Context, tokenContractID uint64) (*schema.Blueprint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, blueprint := range m.blueprints {
		if blueprint.TokenContractID == tokenContractID {
			cp := *blueprint
			if minter, ok := m.accounts[blueprint.MinterID]; ok {
				cp.Minter = *minter
			}
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemStore) CreateBlueprint(_ context.Context, blueprint *schema.Blueprint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	blueprint.ID = m.allocID()
	cp := *blueprint
	m.blueprints[blueprint.ID] = &cp
	return nil
}

// =============================================================================
// Tokens
// =============================================================================

func (m *MemStore) GetToken(_ context.Context, contractID uint64, tokenID string) (*schema.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, token := range m.tokens {
		if token.ContractID == contractID && token.TokenID == tokenID {
			cp := *token
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemStore) CreateToken(_ context.Context, token *schema.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.tokens {
		if existing.ContractID == token.ContractID && existing.TokenID == token.TokenID {
			return fmt.Errorf("token %d/%s already exists", token.ContractID, token.TokenID)
		}
	}
	token.ID = m.allocID()
	token.CreatedAt = time.Now()
	cp := *token
	m.tokens[token.ID] = &cp
	return nil
}

func (m *MemStore) SaveToken(_ context.Context, token *schema.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tokens[token.ID]; !ok {
		return fmt.Errorf("token %d not found", token.ID)
	}
	cp := *token
	m.tokens[token.ID] = &cp
	return nil
}

// =============================================================================
// Balances
// =============================================================================

func (m *MemStore) GetBalance(_ context.Context, accountID, contractID uint64) (*schema.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, balance := range m.balances {
		if balance.AccountID == accountID && balance.ContractID == contractID {
			cp := *balance
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemStore) CreateBalance(_ context.Context, balance *schema.Balance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.balances {
		if existing.AccountID == balance.AccountID && existing.ContractID == balance.ContractID {
			return fmt.Errorf("balance %d/%d already exists", balance.AccountID, balance.ContractID)
		}
	}
	balance.ID = m.allocID()
	balance.UpdatedAt = time.Now()
	cp := *balance
	m.balances[balance.ID] = &cp
	return nil
}

func (m *MemStore) SaveBalance(_ context.Context, balance *schema.Balance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.balances[balance.ID]; !ok {
		return fmt.Errorf("balance %d not found", balance.ID)
	}
	balance.UpdatedAt = time.Now()
	cp := *balance
	m.balances[balance.ID] = &cp
	return nil
}

func (m *MemStore) ListBalances(_ context.Context, accountID uint64) ([]schema.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var balances []schema.Balance
	for _, balance := range m.balances {
		if balance.AccountID == accountID {
			cp := *balance
			if contract, ok := m.tokenContracts[balance.ContractID]; ok {
				cp.Contract = *contract
			}
			balances = append(balances, cp)
		}
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].ID < balances[j].ID })
	return balances, nil
}

// =============================================================================
// Limit orders
// =============================================================================

func (m *MemStore) GetLimitOrderByOrderID(_ context.Context, orderID string) (*schema.LimitOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, order := range m.orders {
		if order.OrderID == orderID {
			cp := *order
			if user, ok := m.accounts[order.UserID]; ok {
				cp.User = *user
			}
			if token, ok := m.tokens[order.TokenID]; ok {
				cp.Token = *token
			}
			if quote, ok := m.tokenContracts[order.QuoteContractID]; ok {
				cp.QuoteContract = *quote
			}
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemStore) CreateLimitOrder(_ context.Context, order *schema.LimitOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.orders {
		if existing.OrderID == order.OrderID {
			return fmt.Errorf("limit order %s already exists", order.OrderID)
		}
	}
	order.ID = m.allocID()
	order.CreatedAt = time.Now()
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *MemStore) SaveLimitOrder(_ context.Context, order *schema.LimitOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[order.ID]; !ok {
		return fmt.Errorf("limit order %d not found", order.ID)
	}
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *MemStore) ListOpenLimitOrders(_ context.Context, limit int, offset uint64) ([]schema.LimitOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var orders []schema.LimitOrder
	for _, order := range m.orders {
		if order.ClosedTxHash == nil {
			orders = append(orders, *order)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	if offset >= uint64(len(orders)) {
		return nil, nil
	}
	orders = orders[offset:]
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

// =============================================================================
// Token flows, deposits, withdrawals
// =============================================================================

func (m *MemStore) CreateTokenFlow(_ context.Context, flow *schema.TokenFlow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	flow.ID = m.allocID()
	cp := *flow
	m.flows[flow.ID] = &cp
	return nil
}

func (m *MemStore) SaveTokenFlow(_ context.Context, flow *schema.TokenFlow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.flows[flow.ID]; !ok {
		return fmt.Errorf("token flow %d not found", flow.ID)
	}
	cp := *flow
	m.flows[flow.ID] = &cp
	return nil
}

func (m *MemStore) ListTokenFlows(_ context.Context, tokenID uint64, limit int, offset uint64) ([]schema.TokenFlow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var flows []schema.TokenFlow
	for _, flow := range m.flows {
		if flow.TokenID == tokenID {
			flows = append(flows, *flow)
		}
	}
	sort.Slice(flows, func(i, j int) bool { return flows[i].ID > flows[j].ID })
	if offset >= uint64(len(flows)) {
		return nil, nil
	}
	flows = flows[offset:]
	if limit > 0 && len(flows) > limit {
		flows = flows[:limit]
	}
	return flows, nil
}

func (m *MemStore) CreateDeposit(_ context.Context, deposit *schema.Deposit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.deposits {
		if existing.TxHash == deposit.TxHash {
			return fmt.Errorf("deposit for %s already exists", deposit.TxHash)
		}
	}
	deposit.ID = m.allocID()
	cp := *deposit
	m.deposits[deposit.ID] = &cp
	return nil
}

func (m *MemStore) CreateWithdrawal(_ context.Context, withdrawal *schema.Withdrawal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.withdrawals {
		if existing.TxHash == withdrawal.TxHash {
			return fmt.Errorf("withdrawal for %s already exists", withdrawal.TxHash)
		}
	}
	withdrawal.ID = m.allocID()
	cp := *withdrawal
	m.withdrawals[withdrawal.ID] = &cp
	return nil
}

func (m *MemStore) SaveWithdrawal(_ context.Context, withdrawal *schema.Withdrawal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.withdrawals[withdrawal.ID]; !ok {
		return fmt.Errorf("withdrawal %d not found", withdrawal.ID)
	}
	cp := *withdrawal
	m.withdrawals[withdrawal.ID] = &cp
	return nil
}

func (m *MemStore) PendingWithdrawal(_ context.Context, amount, address, nonce string) (*schema.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, withdrawal := range m.withdrawals {
		if withdrawal.EthEventID != nil {
			continue
		}
		if withdrawal.Amount == amount && withdrawal.Address == address && withdrawal.Nonce == nonce {
			cp := *withdrawal
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemStore) PendingWithdrawalFlow(_ context.Context, address string, mint bool, nonce string) (*schema.TokenFlow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, flow := range m.flows {
		if flow.Type != domain.FlowWithdrawal || flow.EthEventID != nil {
			continue
		}
		if flow.Address == nil || *flow.Address != address {
			continue
		}
		if flow.Mint == nil || *flow.Mint != mint {
			continue
		}
		if flow.Nonce == nil || *flow.Nonce != nonce {
			continue
		}
		cp := *flow
		return &cp, nil
	}
	return nil, nil
}

// =============================================================================
// Transfers
// =============================================================================

func (m *MemStore) GetTransferByHash(_ context.Context, hash string) (*schema.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, transfer := range m.transfers {
		if transfer.Hash == hash {
			cp := *transfer
			m.attachTransferAssocs(&cp)
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemStore) CreateTransfer(_ context.Context, transfer *schema.Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.transfers {
		if existing.Hash == transfer.Hash {
			return fmt.Errorf("transfer %s already exists", transfer.Hash)
		}
	}
	transfer.ID = m.allocID()
	transfer.CreatedAt = time.Now()
	cp := *transfer
	m.transfers[transfer.ID] = &cp
	return nil
}

func (m *MemStore) SaveTransfer(_ context.Context, transfer *schema.Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transfers[transfer.ID]; !ok {
		return fmt.Errorf("transfer %d not found", transfer.ID)
	}
	cp := *transfer
	m.transfers[transfer.ID] = &cp
	return nil
}

func (m *MemStore) UnsettledTransfers(_ context.Context, limit int) ([]schema.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var transfers []schema.Transfer
	for _, transfer := range m.transfers {
		if transfer.Status != domain.StatusNotReceived && transfer.Status != domain.StatusReceived {
			continue
		}
		cp := *transfer
		m.attachTransferAssocs(&cp)
		transfers = append(transfers, cp)
	}
	sort.Slice(transfers, func(i, j int) bool { return transfers[i].ID < transfers[j].ID })
	if limit > 0 && len(transfers) > limit {
		transfers = transfers[:limit]
	}
	return transfers, nil
}

func (m *MemStore) attachTransferAssocs(transfer *schema.Transfer) {
	if from, ok := m.accounts[transfer.FromAccountID]; ok {
		transfer.FromAccount = *from
	}
	if to, ok := m.accounts[transfer.ToAccountID]; ok {
		transfer.ToAccount = *to
	}
	if contract, ok := m.tokenContracts[transfer.ContractID]; ok {
		transfer.Contract = *contract
	}
}

// =============================================================================
// Settlement-layer blocks and events
// =============================================================================

func (m *MemStore) GetLatestEthBlock(_ context.Context) (*schema.EthBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *schema.EthBlock
	for _, block := range m.ethBlocks {
		if latest == nil || block.ID > latest.ID {
			latest = block
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (m *MemStore) GetEthBlockByHash(_ context.Context, hash string) (*schema.EthBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, block := range m.ethBlocks {
		if block.Hash == hash {
			cp := *block
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemStore) CreateEthBlock(_ context.Context, block *schema.EthBlock) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.ethBlocks[block.ID]; exists {
		return nil
	}
	cp := *block
	m.ethBlocks[block.ID] = &cp
	return nil
}

func (m *MemStore) GetEthEvent(_ context.Context, txHash string, logIndex uint) (*schema.EthEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, event := range m.ethEvents {
		if event.TxHash == txHash && event.LogIndex == logIndex {
			cp := *event
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemStore) CreateEthEvent(_ context.Context, event *schema.EthEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.ethEvents {
		if existing.TxHash == event.TxHash && existing.LogIndex == event.LogIndex {
			return fmt.Errorf("eth event %s/%d already exists", event.TxHash, event.LogIndex)
		}
	}
	event.ID = m.allocID()
	cp := *event
	m.ethEvents[event.ID] = &cp
	return nil
}
