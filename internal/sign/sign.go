package sign

import (
	"fmt"
	"math/big"
)

// HashMessage folds the arguments left to right through the Pedersen hash,
// starting from zero and appending the argument count as a length salt:
//
//	h = pedersen(...pedersen(pedersen(0, a0), a1)..., n)
//
// The administrative entry points expect this digest.
func HashMessage(args ...*big.Int) *big.Int {
	acc := big.NewInt(0)
	for _, arg := range args {
		acc = Pedersen(acc, arg)
	}
	return Pedersen(acc, big.NewInt(int64(len(args))))
}

// HashMessageR folds the arguments right to left without a length salt,
// terminating with zero:
//
//	h = pedersen(a0, pedersen(a1, ...pedersen(an, 0)...))
//
// The ledger, exchange and order entry points expect this digest. The two
// fold directions are deliberately incompatible; a signature over one never
// verifies under the other.
func HashMessageR(args ...*big.Int) *big.Int {
	if len(args) == 0 {
		return Pedersen(big.NewInt(0), big.NewInt(0))
	}
	if len(args) == 1 {
		return Pedersen(args[0], big.NewInt(0))
	}
	return Pedersen(args[0], HashMessageR(args[1:]...))
}

// Sign produces an ECDSA signature over the stark curve. The message hash
// must be below 2^251.
func Sign(privateKey, msgHash *big.Int) (r, s *big.Int, err error) {
	if msgHash.Cmp(elementUpperBound) >= 0 {
		return nil, nil, fmt.Errorf("message hash out of range")
	}

	one := big.NewInt(1)
	for {
		k, err := GeneratePrivateKey()
		if err != nil {
			return nil, nil, err
		}

		r = generator().mul(k).x
		if r.Cmp(one) < 0 || r.Cmp(elementUpperBound) >= 0 {
			continue
		}

		// t = msgHash + r*priv must be invertible mod the curve order
		t := new(big.Int).Mul(r, privateKey)
		t.Add(t, msgHash)
		t.Mod(t, curveOrder)
		if t.Sign() == 0 {
			continue
		}

		w := new(big.Int).ModInverse(t, curveOrder)
		w.Mul(w, k)
		w.Mod(w, curveOrder)
		if w.Cmp(one) < 0 || w.Cmp(elementUpperBound) >= 0 {
			continue
		}

		s = new(big.Int).ModInverse(w, curveOrder)
		return r, s, nil
	}
}

// Verify checks an ECDSA signature against a stark key. The stark key is the
// x coordinate of the public point; both candidate points above it are tried.
func Verify(starkKey, msgHash, r, s *big.Int) bool {
	one := big.NewInt(1)
	if r.Cmp(one) < 0 || r.Cmp(elementUpperBound) >= 0 {
		return false
	}
	if s.Cmp(one) < 0 || s.Cmp(curveOrder) >= 0 {
		return false
	}
	if msgHash.Cmp(elementUpperBound) >= 0 {
		return false
	}

	y, err := recoverY(starkKey)
	if err != nil {
		return false
	}

	w := new(big.Int).ModInverse(s, curveOrder)
	u1 := new(big.Int).Mul(msgHash, w)
	u1.Mod(u1, curveOrder)
	u2 := new(big.Int).Mul(r, w)
	u2.Mod(u2, curveOrder)

	base := generator().mul(u1)
	for _, candidate := range []*big.Int{y, new(big.Int).Sub(fieldPrime, y)} {
		public := newPoint(starkKey, candidate)
		if !onCurve(public.x, public.y) {
			continue
		}
		sum := base.add(public.mul(u2))
		if !sum.inf && sum.x.Cmp(r) == 0 {
			return true
		}
	}
	return false
}
