// Package curve wraps the BN254 pairing-friendly curve, its scalar
// field and its FFT evaluation domain for the ASVC layer built on top
// of it. Nothing here is consensus-specific; it is pure arithmetic.
package curve

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"
)

// Scalar is an element of the BN254 scalar field Fr, held in
// Montgomery form by the underlying library.
type Scalar = fr.Element

// G1 is an affine point on the BN254 G1 curve.
type G1 = bn254.G1Affine

// G2 is an affine point on the BN254 G2 curve.
type G2 = bn254.G2Affine

// G1Jac is a G1 point in Jacobian coordinates, used as an accumulator
// during multi-scalar multiplication.
type G1Jac = bn254.G1Jac

// G2Jac is a G2 point in Jacobian coordinates.
type G2Jac = bn254.G2Jac

// ScalarMulG1 computes s·p.
func ScalarMulG1(p G1, s Scalar) G1 {
	var jac G1Jac
	jac.FromAffine(&p)
	var out G1Jac
	out.ScalarMultiplication(&jac, ScalarToBigInt(s))
	var res G1
	res.FromJacobian(&out)
	return res
}

// ScalarMulG2 computes s·p.
func ScalarMulG2(p G2, s Scalar) G2 {
	var jac G2Jac
	jac.FromAffine(&p)
	var out G2Jac
	out.ScalarMultiplication(&jac, ScalarToBigInt(s))
	var res G2
	res.FromJacobian(&out)
	return res
}

// G1ByteLen and ScalarByteLen are the fixed wire widths of a
// compressed G1 point and a canonical scalar, derived once from the
// library rather than hardcoded so a curve swap can't silently
// desync the codec.
var (
	G1ByteLen     = len(G1Bytes(G1Generator()))
	G2ByteLen     = len(G2Bytes(G2Generator()))
	ScalarByteLen = len(ScalarBytes(ScalarFromUint64(0)))
)

// MaxDomainSize bounds the evaluation domain this module will build;
// gnark-crypto's fft.Domain needs power-of-two cardinality, and beyond
// 2^28 the proving key itself would not fit in memory on commodity
// hardware.
const MaxDomainSize = 1 << 28

// Domain wraps an FFT evaluation domain of size N, the number of
// rollup account slots.
type Domain struct {
	inner *fft.Domain
	size  uint64
}

// NewDomain builds the evaluation domain {ω^0, ..., ω^(n-1)}. n must
// be an exact power of two; gnark-crypto rounds up silently otherwise,
// which would desynchronize slot indices from domain points.
func NewDomain(n uint64) (*Domain, error) {
	if n == 0 {
		return nil, fmt.Errorf("curve: domain size must be > 0")
	}
	if n > MaxDomainSize {
		return nil, fmt.Errorf("curve: domain size %d exceeds maximum %d", n, MaxDomainSize)
	}
	if n&(n-1) != 0 {
		return nil, fmt.Errorf("curve: domain size %d is not a power of two", n)
	}
	d := fft.NewDomain(n)
	return &Domain{inner: d, size: n}, nil
}

// Size returns the domain's cardinality N.
func (d *Domain) Size() uint64 { return d.size }

// Nth returns ω^k, the k-th root of unity in the domain (k taken mod N).
func (d *Domain) Nth(k uint64) Scalar {
	var out Scalar
	exp := new(big.Int).SetUint64(k % d.size)
	out.Exp(d.inner.Generator, exp)
	return out
}

// Generator returns the domain's primitive N-th root of unity ω.
func (d *Domain) Generator() Scalar { return d.inner.Generator }

// GeneratorInv returns ω^-1.
func (d *Domain) GeneratorInv() Scalar { return d.inner.GeneratorInv }

// FFT evaluates the polynomial given by its coefficients at every
// point of the domain, in place, returning values in natural order.
func (d *Domain) FFT(coeffs []Scalar) {
	d.inner.FFT(coeffs, fft.DIF)
	fft.BitReverse(coeffs)
}

// FFTInverse interpolates the polynomial whose evaluations over the
// domain are given by values, in place, leaving coefficients in
// natural order.
func (d *Domain) FFTInverse(values []Scalar) {
	fft.BitReverse(values)
	d.inner.FFTInverse(values, fft.DIT)
}

// G1Generator returns the standard BN254 G1 generator.
func G1Generator() G1 {
	_, _, g1, _ := bn254.Generators()
	return g1
}

// G2Generator returns the standard BN254 G2 generator.
func G2Generator() G2 {
	_, _, _, g2 := bn254.Generators()
	return g2
}

// MSM computes Σ scalars[i]·points[i] using gnark-crypto's windowed
// multi-scalar multiplication.
func MSM(points []G1, scalars []Scalar) (G1, error) {
	if len(points) != len(scalars) {
		return G1{}, fmt.Errorf("curve: msm length mismatch: %d points vs %d scalars", len(points), len(scalars))
	}
	if len(points) == 0 {
		var zero G1
		return zero, nil
	}
	var acc G1Jac
	if _, err := acc.MultiExp(points, scalars, ecc.MultiExpConfig{}); err != nil {
		return G1{}, fmt.Errorf("curve: msm: %w", err)
	}
	var out G1
	out.FromJacobian(&acc)
	return out, nil
}

// MSMG2 computes Σ scalars[i]·points[i] over G2.
func MSMG2(points []G2, scalars []Scalar) (G2, error) {
	if len(points) != len(scalars) {
		return G2{}, fmt.Errorf("curve: msm length mismatch: %d points vs %d scalars", len(points), len(scalars))
	}
	if len(points) == 0 {
		var zero G2
		return zero, nil
	}
	var acc G2Jac
	if _, err := acc.MultiExp(points, scalars, ecc.MultiExpConfig{}); err != nil {
		return G2{}, fmt.Errorf("curve: msm: %w", err)
	}
	var out G2
	out.FromJacobian(&acc)
	return out, nil
}

// PairingEqual reports whether e(a1, a2) == e(b1, b2), computed as a
// single product check e(a1, a2)·e(-b1, b2) == 1 rather than two
// separate final exponentiations.
func PairingEqual(a1 G1, a2 G2, b1 G1, b2 G2) (bool, error) {
	var negB1 G1
	negB1.Neg(&b1)
	ok, err := bn254.PairingCheck([]G1{a1, negB1}, []G2{a2, b2})
	if err != nil {
		return false, fmt.Errorf("curve: pairing check: %w", err)
	}
	return ok, nil
}

// ScalarFromUint64 lifts a small integer into the scalar field.
func ScalarFromUint64(v uint64) Scalar {
	var s Scalar
	s.SetUint64(v)
	return s
}

// ScalarFromBigInt reduces an arbitrary-precision integer modulo the
// field order r.
func ScalarFromBigInt(v *big.Int) Scalar {
	var s Scalar
	s.SetBigInt(v)
	return s
}

// ScalarToBigInt returns the canonical (non-Montgomery) representative
// of s in [0, r).
func ScalarToBigInt(s Scalar) *big.Int {
	out := new(big.Int)
	s.BigInt(out)
	return out
}

// ScalarBytes returns the big-endian canonical encoding of s.
func ScalarBytes(s Scalar) []byte {
	b := s.Bytes()
	return b[:]
}

// ScalarFromBytes decodes a big-endian canonical encoding into a field
// element, reducing modulo r if the input is out of range.
func ScalarFromBytes(b []byte) (Scalar, error) {
	var s Scalar
	if len(b) != fr.Bytes {
		return s, fmt.Errorf("curve: scalar must be %d bytes, got %d", fr.Bytes, len(b))
	}
	s.SetBytes(b)
	return s, nil
}

// G1Bytes returns the compressed encoding of p.
func G1Bytes(p G1) []byte {
	b := p.Bytes()
	return b[:]
}

// G1FromBytes decodes a compressed G1 point.
func G1FromBytes(b []byte) (G1, error) {
	var p G1
	if _, err := p.SetBytes(b); err != nil {
		return G1{}, fmt.Errorf("curve: decode g1: %w", err)
	}
	return p, nil
}

// G2Bytes returns the compressed encoding of p.
func G2Bytes(p G2) []byte {
	b := p.Bytes()
	return b[:]
}

// G2FromBytes decodes a compressed G2 point.
func G2FromBytes(b []byte) (G2, error) {
	var p G2
	if _, err := p.SetBytes(b); err != nil {
		return G2{}, fmt.Errorf("curve: decode g2: %w", err)
	}
	return p, nil
}
