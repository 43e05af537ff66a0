// Package verifier implements the on-chain re-execution of the block
// verification predicate (C5) and the wire format for the public
// parameters (vk and every slot's update key) the predicate needs,
// shared between the commit cell and the upk cell of one rollup
// instance (§6).
package verifier

import (
	"encoding/binary"
	"fmt"

	"github.com/cloverzk/asvc-rollup/asvc"
	"github.com/cloverzk/asvc-rollup/curve"
)

// OpCode selects which on-chain transaction kind a cell update
// represents.
type OpCode byte

const (
	OpInit      OpCode = 0
	OpDeposit   OpCode = 1
	OpWithdraw  OpCode = 2
	OpPostBlock OpCode = 3
)

// EncodeVK serializes the fixed-size fields of a VerificationKey plus
// the SRS powers VerifyPos needs to commit to the remainder and
// vanishing polynomials. A production layout would split the (large,
// append-only) SRS powers into their own cell; this module keeps them
// inline for a single self-contained CellUpks blob.
func EncodeVK(vk *asvc.VerificationKey) []byte {
	g1Len := curve.G1ByteLen
	g2Len := curve.G2ByteLen
	buf := make([]byte, 0, 8+g1Len+g2Len+g2Len+g1Len+8+8+len(vk.PowersOfG1)*g1Len+len(vk.PowersOfG2)*g2Len)

	var u64 [8]byte
	binary.LittleEndian.PutUint64(u64[:], vk.N)
	buf = append(buf, u64[:]...)
	buf = append(buf, curve.G1Bytes(vk.G1)...)
	buf = append(buf, curve.G2Bytes(vk.G2)...)
	buf = append(buf, curve.G2Bytes(vk.G2Tau)...)
	buf = append(buf, curve.G1Bytes(vk.A)...)

	binary.LittleEndian.PutUint64(u64[:], uint64(len(vk.PowersOfG1)))
	buf = append(buf, u64[:]...)
	for _, p := range vk.PowersOfG1 {
		buf = append(buf, curve.G1Bytes(p)...)
	}
	binary.LittleEndian.PutUint64(u64[:], uint64(len(vk.PowersOfG2)))
	buf = append(buf, u64[:]...)
	for _, p := range vk.PowersOfG2 {
		buf = append(buf, curve.G2Bytes(p)...)
	}
	return buf
}

// DecodeVK parses EncodeVK's output, returning the verification key
// and the number of bytes consumed.
func DecodeVK(b []byte) (*asvc.VerificationKey, int, error) {
	g1Len := curve.G1ByteLen
	g2Len := curve.G2ByteLen
	if len(b) < 8+g1Len+2*g2Len+g1Len+8 {
		return nil, 0, fmt.Errorf("verifier: decode vk: truncated header")
	}
	off := 0
	vk := &asvc.VerificationKey{}
	vk.N = binary.LittleEndian.Uint64(b[off : off+8])
	off += 8

	var err error
	vk.G1, err = curve.G1FromBytes(b[off : off+g1Len])
	if err != nil {
		return nil, 0, fmt.Errorf("verifier: decode vk: g1: %w", err)
	}
	off += g1Len
	vk.G2, err = curve.G2FromBytes(b[off : off+g2Len])
	if err != nil {
		return nil, 0, fmt.Errorf("verifier: decode vk: g2: %w", err)
	}
	off += g2Len
	vk.G2Tau, err = curve.G2FromBytes(b[off : off+g2Len])
	if err != nil {
		return nil, 0, fmt.Errorf("verifier: decode vk: g2_tau: %w", err)
	}
	off += g2Len
	vk.A, err = curve.G1FromBytes(b[off : off+g1Len])
	if err != nil {
		return nil, 0, fmt.Errorf("verifier: decode vk: a: %w", err)
	}
	off += g1Len

	if len(b) < off+8 {
		return nil, 0, fmt.Errorf("verifier: decode vk: truncated powers_g1 length")
	}
	nG1 := binary.LittleEndian.Uint64(b[off : off+8])
	off += 8
	if uint64(len(b)-off) < nG1*uint64(g1Len) {
		return nil, 0, fmt.Errorf("verifier: decode vk: truncated powers_g1")
	}
	vk.PowersOfG1 = make([]curve.G1, nG1)
	for i := range vk.PowersOfG1 {
		vk.PowersOfG1[i], err = curve.G1FromBytes(b[off : off+g1Len])
		if err != nil {
			return nil, 0, fmt.Errorf("verifier: decode vk: powers_g1[%d]: %w", i, err)
		}
		off += g1Len
	}

	if len(b) < off+8 {
		return nil, 0, fmt.Errorf("verifier: decode vk: truncated powers_g2 length")
	}
	nG2 := binary.LittleEndian.Uint64(b[off : off+8])
	off += 8
	if uint64(len(b)-off) < nG2*uint64(g2Len) {
		return nil, 0, fmt.Errorf("verifier: decode vk: truncated powers_g2")
	}
	vk.PowersOfG2 = make([]curve.G2, nG2)
	for i := range vk.PowersOfG2 {
		vk.PowersOfG2[i], err = curve.G2FromBytes(b[off : off+g2Len])
		if err != nil {
			return nil, 0, fmt.Errorf("verifier: decode vk: powers_g2[%d]: %w", i, err)
		}
		off += g2Len
	}
	return vk, off, nil
}

// EncodeCellUpks serializes vk ‖ ω(F) ‖ m(4 LE) ‖ upk_0 ‖ … ‖ upk_{m-1},
// the shared public parameters one rollup instance publishes in its
// upk cell.
func EncodeCellUpks(vk *asvc.VerificationKey, omega curve.Scalar, upks []asvc.UpdateKey) []byte {
	buf := EncodeVK(vk)
	buf = append(buf, curve.ScalarBytes(omega)...)

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(upks)))
	buf = append(buf, u32[:]...)
	for _, upk := range upks {
		buf = append(buf, curve.G1Bytes(upk.A)...)
		buf = append(buf, curve.G1Bytes(upk.U)...)
	}
	return buf
}

// DecodeCellUpks parses EncodeCellUpks's output.
func DecodeCellUpks(b []byte) (vk *asvc.VerificationKey, omega curve.Scalar, upks []asvc.UpdateKey, err error) {
	vk, off, err := DecodeVK(b)
	if err != nil {
		return nil, curve.Scalar{}, nil, err
	}
	scalarLen := curve.ScalarByteLen
	if len(b) < off+scalarLen+4 {
		return nil, curve.Scalar{}, nil, fmt.Errorf("verifier: decode cell upks: truncated header")
	}
	omega, err = curve.ScalarFromBytes(b[off : off+scalarLen])
	if err != nil {
		return nil, curve.Scalar{}, nil, fmt.Errorf("verifier: decode cell upks: omega: %w", err)
	}
	off += scalarLen
	m := binary.LittleEndian.Uint32(b[off : off+4])
	off += 4

	g1Len := curve.G1ByteLen
	if uint64(len(b)-off) < uint64(m)*uint64(2*g1Len) {
		return nil, curve.Scalar{}, nil, fmt.Errorf("verifier: decode cell upks: truncated upks")
	}
	upks = make([]asvc.UpdateKey, m)
	for i := range upks {
		a, err := curve.G1FromBytes(b[off : off+g1Len])
		if err != nil {
			return nil, curve.Scalar{}, nil, fmt.Errorf("verifier: decode cell upks: upk[%d].a: %w", i, err)
		}
		off += g1Len
		u, err := curve.G1FromBytes(b[off : off+g1Len])
		if err != nil {
			return nil, curve.Scalar{}, nil, fmt.Errorf("verifier: decode cell upks: upk[%d].u: %w", i, err)
		}
		off += g1Len
		upks[i] = asvc.UpdateKey{A: a, U: u}
	}
	if off != len(b) {
		return nil, curve.Scalar{}, nil, fmt.Errorf("verifier: decode cell upks: trailing bytes")
	}
	return vk, omega, upks, nil
}
