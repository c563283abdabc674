// Package sign implements the stark-curve signature scheme used by the
// ledger contracts: a Pedersen hash over field elements and ECDSA over the
// stark curve y^2 = x^3 + alpha*x + beta.
package sign

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var (
	// fieldPrime is 2^251 + 17*2^192 + 1, the prime of the base field
	fieldPrime, _ = new(big.Int).SetString("3618502788666131213697322783095070105623107215331596699973092056135872020481", 10)
	// curveOrder is the order of the curve's generator point
	curveOrder, _ = new(big.Int).SetString("3618502788666131213697322783095070105526743751716087489154079457884512865583", 10)

	curveAlpha = big.NewInt(1)
	curveBeta, _ = new(big.Int).SetString("3141592653589793238462643383279502884197169399375105820974944592307816406665", 10)

	genX, _ = new(big.Int).SetString("874739451078007766457464989774322083649278607533249481151382481072868806602", 10)
	genY, _ = new(big.Int).SetString("152666792071518830868575557812948353041420400780739481342941381225525861407", 10)

	// elementUpperBound is 2^251; message hashes, r and the signing witness
	// must fall below it
	elementUpperBound = new(big.Int).Lsh(big.NewInt(1), 251)
)

// point is an affine curve point; the zero value is the point at infinity
type point struct {
	x, y *big.Int
	inf  bool
}

func infinity() point {
	return point{inf: true}
}

func newPoint(x, y *big.Int) point {
	return point{x: x, y: y}
}

func generator() point {
	return newPoint(genX, genY)
}

// add computes p + q in affine coordinates
func (p point) add(q point) point {
	if p.inf {
		return q
	}
	if q.inf {
		return p
	}
	if p.x.Cmp(q.x) == 0 {
		if p.y.Cmp(q.y) == 0 {
			return p.double()
		}
		return infinity()
	}

	// slope = (q.y - p.y) / (q.x - p.x)
	num := new(big.Int).Sub(q.y, p.y)
	den := new(big.Int).Sub(q.x, p.x)
	den.ModInverse(den, fieldPrime)
	slope := num.Mul(num, den)
	slope.Mod(slope, fieldPrime)

	x := new(big.Int).Mul(slope, slope)
	x.Sub(x, p.x)
	x.Sub(x, q.x)
	x.Mod(x, fieldPrime)

	y := new(big.Int).Sub(p.x, x)
	y.Mul(y, slope)
	y.Sub(y, p.y)
	y.Mod(y, fieldPrime)

	return newPoint(x, y)
}

// double computes 2p in affine coordinates
func (p point) double() point {
	if p.inf {
		return p
	}

	// slope = (3x^2 + alpha) / 2y
	num := new(big.Int).Mul(p.x, p.x)
	num.Mul(num, big.NewInt(3))
	num.Add(num, curveAlpha)
	den := new(big.Int).Lsh(p.y, 1)
	den.ModInverse(den, fieldPrime)
	slope := num.Mul(num, den)
	slope.Mod(slope, fieldPrime)

	x := new(big.Int).Mul(slope, slope)
	x.Sub(x, new(big.Int).Lsh(p.x, 1))
	x.Mod(x, fieldPrime)

	y := new(big.Int).Sub(p.x, x)
	y.Mul(y, slope)
	y.Sub(y, p.y)
	y.Mod(y, fieldPrime)

	return newPoint(x, y)
}

// mul computes k*p by double-and-add
func (p point) mul(k *big.Int) point {
	result := infinity()
	addend := p
	for i := 0; i < k.BitLen(); i++ {
		if k.Bit(i) == 1 {
			result = result.add(addend)
		}
		addend = addend.double()
	}
	return result
}

// onCurve reports whether (x, y) satisfies the curve equation
func onCurve(x, y *big.Int) bool {
	lhs := new(big.Int).Mul(y, y)
	lhs.Mod(lhs, fieldPrime)

	rhs := new(big.Int).Mul(x, x)
	rhs.Mul(rhs, x)
	rhs.Add(rhs, new(big.Int).Mul(curveAlpha, x))
	rhs.Add(rhs, curveBeta)
	rhs.Mod(rhs, fieldPrime)

	return lhs.Cmp(rhs) == 0
}

// recoverY computes a y coordinate for the given x, if one exists
func recoverY(x *big.Int) (*big.Int, error) {
	ySquared := new(big.Int).Mul(x, x)
	ySquared.Mul(ySquared, x)
	ySquared.Add(ySquared, new(big.Int).Mul(curveAlpha, x))
	ySquared.Add(ySquared, curveBeta)
	ySquared.Mod(ySquared, fieldPrime)

	y := new(big.Int).ModSqrt(ySquared, fieldPrime)
	if y == nil {
		return nil, fmt.Errorf("no curve point at x=%s", x.Text(16))
	}
	return y, nil
}

// PrivateToStarkKey derives the stark key (the x coordinate of the public
// point) from a private key
func PrivateToStarkKey(privateKey *big.Int) *big.Int {
	return generator().mul(privateKey).x
}

// GeneratePrivateKey draws a uniform private key in [1, curve order)
func GeneratePrivateKey() (*big.Int, error) {
	k, err := rand.Int(rand.Reader, new(big.Int).Sub(curveOrder, big.NewInt(1)))
	if err != nil {
		return nil, fmt.Errorf("failed to draw private key: %w", err)
	}
	return k.Add(k, big.NewInt(1)), nil
}
