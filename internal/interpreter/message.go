package interpreter

import (
	"fmt"
	"math/big"

	"github.com/starkmirror/starkmirror/internal/domain"
	"github.com/starkmirror/starkmirror/internal/gateway"
)

// withdrawMessageKind is the discriminant carried in the first payload word
// of a bridge message announcing a withdrawal.
const withdrawMessageKind = 0

// WithdrawMessage is the decoded payload of the settlement-layer message a
// withdrawal emits. The same layout is consumed on the other side by the
// settlement monitor when the message is eventually proven.
type WithdrawMessage struct {
	// Address is the settlement-layer recipient
	Address *big.Int
	// AmountOrTokenID carries the fungible amount or the non-fungible token id
	AmountOrTokenID *big.Int
	// Contract is the asset contract the withdrawal targets
	Contract *big.Int
	// MintBack marks a non-fungible withdrawal that mints the token on the
	// settlement layer instead of releasing an escrowed one
	MintBack bool
	// Nonce is the withdrawal replay-protection counter
	Nonce *big.Int
}

// DecodeWithdrawMessage parses the first outgoing settlement message of a
// receipt into its named fields.
func DecodeWithdrawMessage(receipt *gateway.TransactionReceipt) (*WithdrawMessage, error) {
	if receipt == nil || len(receipt.L2ToL1Messages) == 0 {
		return nil, fmt.Errorf("receipt carries no settlement message")
	}

	payload := receipt.L2ToL1Messages[0].Payload
	if len(payload) != 6 {
		return nil, fmt.Errorf("settlement message has %d payload words, want 6", len(payload))
	}
	words := make([]*big.Int, len(payload))
	for i, w := range payload {
		n, err := domain.ParseFelt(w)
		if err != nil {
			return nil, fmt.Errorf("settlement message word %d: %w", i, err)
		}
		words[i] = n
	}
	if !words[0].IsUint64() || words[0].Uint64() != withdrawMessageKind {
		return nil, fmt.Errorf("settlement message kind %s is not a withdrawal", words[0])
	}

	return &WithdrawMessage{
		Address:         words[1],
		AmountOrTokenID: words[2],
		Contract:        words[3],
		MintBack:        words[4].Sign() != 0,
		Nonce:           words[5],
	}, nil
}
