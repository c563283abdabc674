package sign

import (
	"fmt"
	"math/big"
)

// lowPartBits is the bit width of the low limb in the Pedersen decomposition
const lowPartBits = 248

var (
	shiftPoint = newPoint(
		mustInt("2089986280348253421170679821480865132823066470938446095505822317253594081284"),
		mustInt("1713931329540660377023406109199410414810705867260802078187082345529207694986"),
	)

	// pedersenPoints are the four hash points: low and high limb of each of
	// the two inputs, in that order
	pedersenPoints = [4]point{
		newPoint(
			mustInt("996781205833008774514500082376783249102396023663454813447423147977397232763"),
			mustInt("1668503676786377725805489344771023921079126552019160156920634619255970485781"),
		),
		newPoint(
			mustInt("2251563274489750535117886426533222435294046428347329203627021249169616184184"),
			mustInt("1798716007562728905295480679789526322175868328062420237419143593021674992973"),
		),
		newPoint(
			mustInt("2138414695194151160943305727036575959195309218611738193261179310511854807447"),
			mustInt("113410276730064486255102093846540133784865286929052426931474106396135072156"),
		),
		newPoint(
			mustInt("2379962749567351885752724891227938183011949129833673362440656643086021394946"),
			mustInt("776496453633298175483985398648758586525933812536653089401905292063708816422"),
		),
	}

	lowPartMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), lowPartBits), big.NewInt(1))
)

func mustInt(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(fmt.Sprintf("invalid integer literal %q", s))
	}
	return n
}

// Pedersen computes the Pedersen hash of two field elements
func Pedersen(x, y *big.Int) *big.Int {
	result := shiftPoint
	for i, value := range []*big.Int{x, y} {
		low := new(big.Int).And(value, lowPartMask)
		high := new(big.Int).Rsh(value, lowPartBits)
		result = result.add(pedersenPoints[2*i].mul(low))
		result = result.add(pedersenPoints[2*i+1].mul(high))
	}
	return result.x
}
