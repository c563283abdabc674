package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
)

// selectorMask keeps the low 250 bits of the keccak digest, matching the
// layer-2 entry point selector derivation
var selectorMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 250), big.NewInt(1))

// Selector derives the entry point selector for a contract function name
func Selector(name string) *big.Int {
	n := new(big.Int).SetBytes(crypto.Keccak256([]byte(name)))
	return n.And(n, selectorMask)
}
