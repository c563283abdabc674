package rest

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/starkmirror/starkmirror/internal/domain"
	"github.com/starkmirror/starkmirror/internal/store"
	"github.com/starkmirror/starkmirror/internal/store/schema"
)

// maxPageSize caps list endpoint page sizes
const maxPageSize = 100

// Waiter suspends a caller until a block has been ingested
type Waiter interface {
	Wait(ctx context.Context, blockNumber uint64) error
}

// Handler defines the interface for REST API handlers
//
//go:generate mockgen -source=handler.go -destination=../../mocks/api_handler.go -package=mocks -mock_names=Handler=MockAPIHandler
type Handler interface {
	// GetAccount retrieves an account and its fungible balances
	// GET /api/v1/accounts/:stark_key
	GetAccount(c *gin.Context)

	// GetContract retrieves a token contract by its settlement-layer address
	// GET /api/v1/contracts/:address
	GetContract(c *gin.Context)

	// GetToken retrieves a single token
	// GET /api/v1/contracts/:address/tokens/:token_id
	GetToken(c *gin.Context)

	// ListTokenFlows retrieves a token's ownership changes, newest first
	// GET /api/v1/contracts/:address/tokens/:token_id/flows?limit=<limit>&offset=<offset>
	ListTokenFlows(c *gin.Context)

	// NextTransaction retrieves the earliest recorded invocation of a
	// selector on a layer-2 contract at or past a block cursor. Clients
	// poll this with an advancing from_block to tail the chain.
	// GET /api/v1/stark-contracts/:address/transactions/next?selector=<name|hex>&from_block=<n>
	NextTransaction(c *gin.Context)

	// ListOrders retrieves open limit orders
	// GET /api/v1/orders?limit=<limit>&offset=<offset>
	ListOrders(c *gin.Context)

	// GetOrder retrieves a limit order by its on-chain identifier
	// GET /api/v1/orders/:order_id
	GetOrder(c *gin.Context)

	// GetTransfer retrieves an off-chain transfer by hash
	// GET /api/v1/transfers/:hash
	GetTransfer(c *gin.Context)

	// GetBlock retrieves an ingested block
	// GET /api/v1/blocks/:number
	GetBlock(c *gin.Context)

	// WaitBlock suspends until the given block has been ingested
	// GET /api/v1/blocks/:number/wait
	WaitBlock(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	store  store.Store
	waiter Waiter
}

// NewHandler creates a new REST API handler
func NewHandler(s store.Store, waiter Waiter) Handler {
	return &handler{
		store:  s,
		waiter: waiter,
	}
}

// GetAccount retrieves an account and its fungible balances
func (h *handler) GetAccount(c *gin.Context) {
	starkKey, err := domain.ParseFelt(c.Param("stark_key"))
	if err != nil {
		respondBadRequest(c, "Invalid stark key", err.Error())
		return
	}

	ctx := c.Request.Context()
	account, err := h.store.GetAccountByStarkKey(ctx, domain.FeltString(starkKey))
	if err != nil {
		respondInternalError(c, err, "Failed to get account")
		return
	}
	if account == nil {
		respondNotFound(c, "Account not found")
		return
	}

	balances, err := h.store.ListBalances(ctx, account.ID)
	if err != nil {
		respondInternalError(c, err, "Failed to list balances")
		return
	}

	dto := AccountDTO{
		StarkKey: account.StarkKey,
		Address:  account.Address,
		Balances: make([]BalanceDTO, 0, len(balances)),
	}
	for i := range balances {
		dto.Balances = append(dto.Balances, BalanceDTO{
			Contract: contractDTO(&balances[i].Contract),
			Amount:   balances[i].Amount,
		})
	}

	c.JSON(http.StatusOK, dto)
}

// GetContract retrieves a token contract by its settlement-layer address
func (h *handler) GetContract(c *gin.Context) {
	contract, ok := h.tokenContract(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, contractDTO(contract))
}

// GetToken retrieves a single token
func (h *handler) GetToken(c *gin.Context) {
	contract, ok := h.tokenContract(c)
	if !ok {
		return
	}
	tokenID, err := domain.ParseFelt(c.Param("token_id"))
	if err != nil {
		respondBadRequest(c, "Invalid token id", err.Error())
		return
	}

	token, err := h.store.GetToken(c.Request.Context(), contract.ID, domain.FeltString(tokenID))
	if err != nil {
		respondInternalError(c, err, "Failed to get token")
		return
	}
	if token == nil {
		respondNotFound(c, "Token not found")
		return
	}

	c.JSON(http.StatusOK, tokenDTO(token))
}

// ListTokenFlows retrieves a token's ownership changes, newest first
func (h *handler) ListTokenFlows(c *gin.Context) {
	contract, ok := h.tokenContract(c)
	if !ok {
		return
	}
	tokenID, err := domain.ParseFelt(c.Param("token_id"))
	if err != nil {
		respondBadRequest(c, "Invalid token id", err.Error())
		return
	}

	ctx := c.Request.Context()
	token, err := h.store.GetToken(ctx, contract.ID, domain.FeltString(tokenID))
	if err != nil {
		respondInternalError(c, err, "Failed to get token")
		return
	}
	if token == nil {
		respondNotFound(c, "Token not found")
		return
	}

	limit, offset, err := pageParams(c)
	if err != nil {
		respondBadRequest(c, "Invalid pagination", err.Error())
		return
	}

	flows, err := h.store.ListTokenFlows(ctx, token.ID, limit, offset)
	if err != nil {
		respondInternalError(c, err, "Failed to list token flows")
		return
	}

	dtos := make([]FlowDTO, 0, len(flows))
	for i := range flows {
		dtos = append(dtos, flowDTO(&flows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"flows": dtos})
}

// NextTransaction retrieves the earliest matching invocation past a cursor
func (h *handler) NextTransaction(c *gin.Context) {
	address, err := domain.ParseFelt(c.Param("address"))
	if err != nil {
		respondBadRequest(c, "Invalid contract address", err.Error())
		return
	}

	selector := c.Query("selector")
	if selector == "" {
		respondBadRequest(c, "Selector is required")
		return
	}
	if !strings.HasPrefix(selector, "0x") {
		// treat as an entry point name
		selector = domain.SelectorHex(domain.Selector(selector))
	} else {
		n, err := domain.ParseFelt(selector)
		if err != nil {
			respondBadRequest(c, "Invalid selector", err.Error())
			return
		}
		selector = domain.SelectorHex(n)
	}

	fromBlock := uint64(0)
	if raw := c.Query("from_block"); raw != "" {
		fromBlock, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondBadRequest(c, "Invalid from_block", err.Error())
			return
		}
	}

	tx, err := h.store.NextTransaction(c.Request.Context(),
		domain.SelectorHex(address), selector, fromBlock)
	if err != nil {
		respondInternalError(c, err, "Failed to get next transaction")
		return
	}
	if tx == nil {
		respondNotFound(c, "No matching transaction")
		return
	}

	c.JSON(http.StatusOK, transactionDTO(tx))
}

// ListOrders retrieves open limit orders
func (h *handler) ListOrders(c *gin.Context) {
	limit, offset, err := pageParams(c)
	if err != nil {
		respondBadRequest(c, "Invalid pagination", err.Error())
		return
	}

	orders, err := h.store.ListOpenLimitOrders(c.Request.Context(), limit, offset)
	if err != nil {
		respondInternalError(c, err, "Failed to list orders")
		return
	}

	dtos := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		dtos = append(dtos, orderDTO(&orders[i]))
	}
	c.JSON(http.StatusOK, gin.H{"orders": dtos})
}

// GetOrder retrieves a limit order by its on-chain identifier
func (h *handler) GetOrder(c *gin.Context) {
	orderID, err := domain.ParseFelt(c.Param("order_id"))
	if err != nil {
		respondBadRequest(c, "Invalid order id", err.Error())
		return
	}

	order, err := h.store.GetLimitOrderByOrderID(c.Request.Context(), domain.FeltString(orderID))
	if err != nil {
		respondInternalError(c, err, "Failed to get order")
		return
	}
	if order == nil {
		respondNotFound(c, "Order not found")
		return
	}

	c.JSON(http.StatusOK, orderDTO(order))
}

// GetTransfer retrieves an off-chain transfer by hash
func (h *handler) GetTransfer(c *gin.Context) {
	transfer, err := h.store.GetTransferByHash(c.Request.Context(), c.Param("hash"))
	if err != nil {
		respondInternalError(c, err, "Failed to get transfer")
		return
	}
	if transfer == nil {
		respondNotFound(c, "Transfer not found")
		return
	}

	c.JSON(http.StatusOK, transferDTO(transfer))
}

// GetBlock retrieves an ingested block
func (h *handler) GetBlock(c *gin.Context) {
	number, err := strconv.ParseUint(c.Param("number"), 10, 64)
	if err != nil {
		respondBadRequest(c, "Invalid block number", err.Error())
		return
	}

	block, err := h.store.GetBlock(c.Request.Context(), number)
	if err != nil {
		respondInternalError(c, err, "Failed to get block")
		return
	}
	if block == nil {
		respondNotFound(c, "Block not found")
		return
	}

	c.JSON(http.StatusOK, BlockDTO{
		Number:    block.ID,
		Hash:      block.Hash,
		Timestamp: block.Timestamp,
	})
}

// WaitBlock suspends until the given block has been ingested
func (h *handler) WaitBlock(c *gin.Context) {
	number, err := strconv.ParseUint(c.Param("number"), 10, 64)
	if err != nil {
		respondBadRequest(c, "Invalid block number", err.Error())
		return
	}

	if err := h.waiter.Wait(c.Request.Context(), number); err != nil {
		respondInternalError(c, err, "Wait interrupted")
		return
	}

	c.JSON(http.StatusOK, gin.H{"number": number, "ingested": true})
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// tokenContract resolves the :address path parameter to a token contract,
// responding on failure
func (h *handler) tokenContract(c *gin.Context) (*schema.TokenContract, bool) {
	checksummed, err := domain.ToChecksumAddress(c.Param("address"))
	if err != nil {
		respondBadRequest(c, "Invalid contract address", err.Error())
		return nil, false
	}

	contract, err := h.store.GetTokenContractByAddress(c.Request.Context(), checksummed)
	if err != nil {
		respondInternalError(c, err, "Failed to get contract")
		return nil, false
	}
	if contract == nil {
		respondNotFound(c, "Contract not found")
		return nil, false
	}
	return contract, true
}

// pageParams parses the limit and offset query parameters
func pageParams(c *gin.Context) (int, uint64, error) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, err
		}
		limit = parsed
	}
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}

	offset := uint64(0)
	if raw := c.Query("offset"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return 0, 0, err
		}
		offset = parsed
	}
	return limit, offset, nil
}
