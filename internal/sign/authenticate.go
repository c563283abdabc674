package sign

import (
	"fmt"
	"math/big"

	"github.com/starkmirror/starkmirror/internal/domain"
)

// HashAlgorithm selects the fold direction used to digest a message before
// signature verification.
type HashAlgorithm int

const (
	// AlgoLeft is the left fold with length salt (HashMessage)
	AlgoLeft HashAlgorithm = iota
	// AlgoRight is the right fold without salt (HashMessageR)
	AlgoRight
)

func (a HashAlgorithm) digest(args []*big.Int) (*big.Int, error) {
	switch a {
	case AlgoLeft:
		return HashMessage(args...), nil
	case AlgoRight:
		return HashMessageR(args...), nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm %d", a)
	}
}

// Authenticate verifies a signature over the arguments digested with the
// requested algorithm. It returns domain.ErrUnauthorized on any verification
// failure so that callers performing privileged mutation can gate on a single
// error value.
func Authenticate(starkKey *big.Int, args []*big.Int, r, s *big.Int, algo HashAlgorithm) error {
	h, err := algo.digest(args)
	if err != nil {
		return err
	}
	if !Verify(starkKey, h, r, s) {
		return domain.ErrUnauthorized
	}
	return nil
}
