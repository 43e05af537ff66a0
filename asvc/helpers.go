package asvc

import (
	"io"
	"math/big"

	"github.com/cloverzk/asvc-rollup/curve"
)

// randomScalar draws a uniformly distributed field element by reading
// 64 bytes (double the field width, to keep sampling bias negligible)
// from r and reducing modulo the scalar field order.
func randomScalar(r io.Reader) (curve.Scalar, error) {
	buf := make([]byte, 64)
	if _, err := io.ReadFull(r, buf); err != nil {
		return curve.Scalar{}, err
	}
	return curve.ScalarFromBigInt(new(big.Int).SetBytes(buf)), nil
}

func one() curve.Scalar { return curve.ScalarFromUint64(1) }

func powerScalar(s curve.Scalar, n uint64) curve.Scalar {
	var out curve.Scalar
	out.Exp(s, new(big.Int).SetUint64(n))
	return out
}

func mustInverse(x curve.Scalar) curve.Scalar {
	var out curve.Scalar
	out.Inverse(&x)
	return out
}

func invertUint64(n uint64) curve.Scalar {
	return mustInverse(curve.ScalarFromUint64(n))
}

func scalarMulG1(p curve.G1, s curve.Scalar) curve.G1 {
	return curve.ScalarMulG1(p, s)
}

func scalarMulG2(p curve.G2, s curve.Scalar) curve.G2 {
	return curve.ScalarMulG2(p, s)
}
