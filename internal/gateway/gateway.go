// Package gateway talks to the execution layer's feeder gateway, the HTTP
// service that serves block documents and accepts signed transactions.
package gateway

import "context"

// FeederGateway defines the gateway operations the services depend on.
// Implementations return domain.ErrRateLimited when the gateway throttles the
// caller and domain.ErrBlockNotFound for blocks past the chain head.
//
//go:generate mockgen -source=gateway.go -destination=../mocks/gateway.go -package=mocks -mock_names=FeederGateway=MockFeederGateway
type FeederGateway interface {
	// GetLatestBlock fetches the block at the chain head
	GetLatestBlock(ctx context.Context) (*BlockDocument, []byte, error)

	// GetBlockByNumber fetches the block at the given sequence number
	GetBlockByNumber(ctx context.Context, number uint64) (*BlockDocument, []byte, error)

	// GetBlockByHash fetches the block with the given hash
	GetBlockByHash(ctx context.Context, hash string) (*BlockDocument, []byte, error)

	// GetTransactionStatus queries the lifecycle status of a transaction
	GetTransactionStatus(ctx context.Context, txHash string) (StatusResponse, error)

	// AddTransaction submits a signed invocation to the write gateway
	AddTransaction(ctx context.Context, tx InvokeFunction) (AddTransactionResponse, error)
}
