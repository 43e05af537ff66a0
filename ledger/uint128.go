package ledger

import (
	"fmt"

	"github.com/cloverzk/asvc-rollup/curve"
	"github.com/holiman/uint256"
)

// Uint128 carries a balance or transfer amount through arithmetic
// before it is folded into a scalar-field element, staying in
// unsigned 128-bit range the way the wire format requires. It is
// backed by uint256.Int rather than math/big, to keep balance
// arithmetic allocation-free on the hot admission path.
type Uint128 struct {
	v uint256.Int
}

var maxUint128 = func() uint256.Int {
	var m uint256.Int
	m.Lsh(uint256.NewInt(1), 128)
	m.SubUint64(&m, 1)
	return m
}()

// NewUint128 builds a Uint128 from a uint64, always in range.
func NewUint128(v uint64) *Uint128 {
	return &Uint128{v: *uint256.NewInt(v)}
}

// ParseUint128 validates that v fits in 128 bits.
func ParseUint128(v *uint256.Int) (*Uint128, error) {
	if v.Gt(&maxUint128) {
		return nil, fmt.Errorf("ledger: value exceeds u128 range")
	}
	return &Uint128{v: *v}, nil
}

// Add returns a+b, erroring on overflow past 2^128-1.
func (a *Uint128) Add(b *Uint128) (*Uint128, error) {
	var sum uint256.Int
	sum.Add(&a.v, &b.v)
	return ParseUint128(&sum)
}

// Sub returns a-b, erroring if b > a.
func (a *Uint128) Sub(b *Uint128) (*Uint128, error) {
	if a.v.Lt(&b.v) {
		return nil, fmt.Errorf("ledger: underflow")
	}
	var diff uint256.Int
	diff.Sub(&a.v, &b.v)
	return &Uint128{v: diff}, nil
}

// Cmp compares a to b the way uint256.Int.Cmp does.
func (a *Uint128) Cmp(b *Uint128) int { return a.v.Cmp(&b.v) }

// IsZero reports whether the value is zero.
func (a *Uint128) IsZero() bool { return a.v.IsZero() }

// String renders the decimal representation, for logs and JSON responses.
func (a *Uint128) String() string { return a.v.Dec() }

// Scalar reduces the 128-bit value into the scalar field (no actual
// reduction occurs since r far exceeds 2^128, but the conversion
// through big.Int keeps this package decoupled from curve internals).
func (a *Uint128) Scalar() curve.Scalar {
	return curve.ScalarFromBigInt(a.v.ToBig())
}

// Bytes16 returns the little-endian 16-byte wire encoding.
func (a *Uint128) Bytes16() [16]byte {
	be := a.v.Bytes() // minimal big-endian encoding, no leading zero padding
	var out [16]byte
	for i, b := range be {
		out[len(be)-1-i] = b
	}
	return out
}

// Uint128FromBytes16 decodes a little-endian 16-byte wire value.
func Uint128FromBytes16(b [16]byte) *Uint128 {
	be := make([]byte, 16)
	for i := range b {
		be[15-i] = b[i]
	}
	var v uint256.Int
	v.SetBytes(be)
	return &Uint128{v: v}
}
