package domain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// TxStatus is the lifecycle status of a layer-2 transaction or block as
// reported by the feeder gateway
type TxStatus string

const (
	// StatusNotReceived means the gateway has no record of the transaction yet
	StatusNotReceived TxStatus = "NOT_RECEIVED"
	// StatusReceived means the transaction was accepted into the gateway's queue
	StatusReceived TxStatus = "RECEIVED"
	// StatusPending means the transaction is part of a pending block
	StatusPending TxStatus = "PENDING"
	// StatusRejected means the transaction was rejected; terminal
	StatusRejected TxStatus = "REJECTED"
	// StatusAcceptedOnL2 means the transaction is in a block accepted on the execution layer
	StatusAcceptedOnL2 TxStatus = "ACCEPTED_ON_L2"
	// StatusAcceptedOnL1 means the enclosing block was proven on the settlement layer; terminal
	StatusAcceptedOnL1 TxStatus = "ACCEPTED_ON_L1"
	// StatusAborted marks a block discarded by a reorganization of the execution layer
	StatusAborted TxStatus = "ABORTED"
	// StatusAcceptedOnChain is the legacy spelling of ACCEPTED_ON_L1 still
	// emitted by older gateway deployments
	StatusAcceptedOnChain TxStatus = "ACCEPTED_ONCHAIN"
)

// Finalized reports whether the status can no longer change under a reorg
func (s TxStatus) Finalized() bool {
	return s == StatusAcceptedOnL1 || s == StatusAcceptedOnChain
}

// FlowType classifies a recorded non-fungible ownership change
type FlowType string

const (
	FlowDeposit    FlowType = "DEPOSIT"
	FlowWithdrawal FlowType = "WITHDRAWAL"
	FlowTransfer   FlowType = "TRANSFER"
	FlowMint       FlowType = "MINT"
)

// OrderSide distinguishes bid and ask limit orders; on the wire a bid is 1
type OrderSide int

const (
	SideAsk OrderSide = 0
	SideBid OrderSide = 1
)

// TxTypeDeploy is the layer-2 transaction type marking a contract deployment
const TxTypeDeploy = "DEPLOY"

// ContractKindERC721 is the registration kind for non-fungible contracts
const ContractKindERC721 = 2

// ZeroAddress is the checksummed settlement-layer zero address, used as the
// synthetic contract address of the native asset
var ZeroAddress = common.Address{}.Hex()

// ParseFelt parses a field element that may arrive as a decimal string, a
// 0x-prefixed hex string, or a bare hex hash from the gateway
func ParseFelt(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty field element")
	}

	var n *big.Int
	var ok bool
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, ok = new(big.Int).SetString(s[2:], 16)
	} else {
		n, ok = new(big.Int).SetString(s, 10)
	}
	if !ok {
		return nil, fmt.Errorf("invalid field element %q", s)
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("negative field element %q", s)
	}

	return n, nil
}

// MustParseFelt is ParseFelt for trusted literals; it panics on malformed input
func MustParseFelt(s string) *big.Int {
	n, err := ParseFelt(s)
	if err != nil {
		panic(err)
	}
	return n
}

// FeltString renders a field element in the canonical decimal form used for
// numeric(78,0) storage columns
func FeltString(n *big.Int) string {
	return n.Text(10)
}

// ToChecksumAddress converts a field element holding a settlement-layer
// address into its EIP-55 checksummed form
func ToChecksumAddress(felt string) (string, error) {
	n, err := ParseFelt(felt)
	if err != nil {
		return "", err
	}
	if n.BitLen() > 160 {
		return "", fmt.Errorf("field element %s exceeds address width", felt)
	}

	return common.BigToAddress(n).Hex(), nil
}

// SelectorHex renders an entry point selector the way the gateway reports it
func SelectorHex(n *big.Int) string {
	return "0x" + n.Text(16)
}
