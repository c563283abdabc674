package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/starkmirror/starkmirror/internal/adapter"
	"github.com/starkmirror/starkmirror/internal/domain"
)

// blockNotFoundCode is the error code the gateway embeds in the body of its
// 500 response when a block number is past the chain head
const blockNotFoundCode = "BLOCK_NOT_FOUND"

// Client implements FeederGateway over HTTP
type Client struct {
	http    adapter.HTTPClient
	baseURL string
}

// NewClient creates a gateway client against the given origin, e.g.
// https://alpha-mainnet.starknet.io
func NewClient(baseURL string, httpClient adapter.HTTPClient) *Client {
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *Client) getBlock(ctx context.Context, query url.Values) (*BlockDocument, []byte, error) {
	u := c.baseURL + "/feeder_gateway/get_block"
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var raw json.RawMessage
	if err := c.http.Get(ctx, u, &raw); err != nil {
		if strings.Contains(err.Error(), blockNotFoundCode) {
			return nil, nil, domain.ErrBlockNotFound
		}
		return nil, nil, err
	}

	var doc BlockDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to decode block document: %w", err)
	}

	return &doc, raw, nil
}

// GetLatestBlock fetches the block at the chain head
func (c *Client) GetLatestBlock(ctx context.Context) (*BlockDocument, []byte, error) {
	return c.getBlock(ctx, nil)
}

// GetBlockByNumber fetches the block at the given sequence number
func (c *Client) GetBlockByNumber(ctx context.Context, number uint64) (*BlockDocument, []byte, error) {
	query := url.Values{"blockNumber": []string{strconv.FormatUint(number, 10)}}
	return c.getBlock(ctx, query)
}

// GetBlockByHash fetches the block with the given hash
func (c *Client) GetBlockByHash(ctx context.Context, hash string) (*BlockDocument, []byte, error) {
	query := url.Values{"blockHash": []string{hash}}
	return c.getBlock(ctx, query)
}

// GetTransactionStatus queries the lifecycle status of a transaction
func (c *Client) GetTransactionStatus(ctx context.Context, txHash string) (StatusResponse, error) {
	query := url.Values{"transactionHash": []string{txHash}}
	u := c.baseURL + "/feeder_gateway/get_transaction_status?" + query.Encode()

	var status StatusResponse
	if err := c.http.Get(ctx, u, &status); err != nil {
		return StatusResponse{}, err
	}
	return status, nil
}

// AddTransaction submits a signed invocation to the write gateway
func (c *Client) AddTransaction(ctx context.Context, tx InvokeFunction) (AddTransactionResponse, error) {
	body, err := json.Marshal(tx)
	if err != nil {
		return AddTransactionResponse{}, fmt.Errorf("failed to encode transaction: %w", err)
	}

	respBody, err := c.http.Post(ctx, c.baseURL+"/gateway/add_transaction", "application/json", bytes.NewReader(body))
	if err != nil {
		return AddTransactionResponse{}, err
	}

	var resp AddTransactionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return AddTransactionResponse{}, fmt.Errorf("failed to decode add_transaction response: %w", err)
	}
	return resp, nil
}
