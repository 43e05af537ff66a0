package ledger

import (
	"encoding/binary"
	"fmt"

	"github.com/cloverzk/asvc-rollup/curve"
)

// Encode writes tx's canonical, length-prefixed little-endian
// representation: tag, per-type payload, proof, addr, nonce, balance,
// pubkey_len, pubkey_bytes. This is the byte sequence the admission
// path's signature check covers, and the exact sequence a block stores
// inline for each of its transactions; Sig is deliberately not
// included. Tx.ID hashes only (from, addr, nonce), not these bytes.
func (tx *Tx) Encode() ([]byte, error) {
	if tx.Amount == nil && (tx.Type == TxDeposit || tx.Type == TxWithdraw || tx.Type == TxTransfer) {
		return nil, fmt.Errorf("%w: nil amount for %s", ErrBadLength, tx.Type)
	}
	if tx.Balance == nil {
		return nil, fmt.Errorf("%w: nil balance", ErrBadLength)
	}

	buf := make([]byte, 0, 128)
	buf = append(buf, byte(tx.Type))

	var u32 [4]byte
	switch tx.Type {
	case TxDeposit:
		binary.LittleEndian.PutUint32(u32[:], tx.From)
		buf = append(buf, u32[:]...)
		amt := tx.Amount.Bytes16()
		buf = append(buf, amt[:]...)
	case TxWithdraw:
		binary.LittleEndian.PutUint32(u32[:], tx.From)
		buf = append(buf, u32[:]...)
		amt := tx.Amount.Bytes16()
		buf = append(buf, amt[:]...)
	case TxRegister:
		binary.LittleEndian.PutUint32(u32[:], tx.From)
		buf = append(buf, u32[:]...)
	case TxTransfer:
		binary.LittleEndian.PutUint32(u32[:], tx.From)
		buf = append(buf, u32[:]...)
		binary.LittleEndian.PutUint32(u32[:], tx.To)
		buf = append(buf, u32[:]...)
		amt := tx.Amount.Bytes16()
		buf = append(buf, amt[:]...)
	default:
		return nil, fmt.Errorf("%w: unknown tx type %d", ErrBadLength, tx.Type)
	}

	buf = append(buf, curve.G1Bytes(tx.Proof)...)
	buf = append(buf, curve.ScalarBytes(tx.Addr)...)

	binary.LittleEndian.PutUint32(u32[:], tx.Nonce)
	buf = append(buf, u32[:]...)

	bal := tx.Balance.Bytes16()
	buf = append(buf, bal[:]...)

	binary.LittleEndian.PutUint32(u32[:], uint32(len(tx.PubKey)))
	buf = append(buf, u32[:]...)
	buf = append(buf, tx.PubKey...)

	return buf, nil
}

// DecodeTx parses a canonical transaction and reports how many bytes
// were consumed, so callers decoding a sequence of transactions (a
// block body) can advance a cursor.
func DecodeTx(b []byte) (*Tx, int, error) {
	if len(b) < 1 {
		return nil, 0, fmt.Errorf("%w: empty tx", ErrParse)
	}
	tx := &Tx{Type: TxType(b[0])}
	off := 1

	readU32 := func() (uint32, error) {
		if off+4 > len(b) {
			return 0, fmt.Errorf("%w: truncated u32", ErrParse)
		}
		v := binary.LittleEndian.Uint32(b[off : off+4])
		off += 4
		return v, nil
	}
	readU128 := func() (*Uint128, error) {
		if off+16 > len(b) {
			return nil, fmt.Errorf("%w: truncated u128", ErrParse)
		}
		var raw [16]byte
		copy(raw[:], b[off:off+16])
		off += 16
		return Uint128FromBytes16(raw), nil
	}

	var err error
	switch tx.Type {
	case TxDeposit, TxWithdraw:
		if tx.From, err = readU32(); err != nil {
			return nil, 0, err
		}
		if tx.Amount, err = readU128(); err != nil {
			return nil, 0, err
		}
	case TxRegister:
		if tx.From, err = readU32(); err != nil {
			return nil, 0, err
		}
	case TxTransfer:
		if tx.From, err = readU32(); err != nil {
			return nil, 0, err
		}
		if tx.To, err = readU32(); err != nil {
			return nil, 0, err
		}
		if tx.Amount, err = readU128(); err != nil {
			return nil, 0, err
		}
	default:
		return nil, 0, fmt.Errorf("%w: unknown tx type %d", ErrParse, tx.Type)
	}

	g1Len := curve.G1ByteLen
	if off+g1Len > len(b) {
		return nil, 0, fmt.Errorf("%w: truncated proof", ErrParse)
	}
	tx.Proof, err = curve.G1FromBytes(b[off : off+g1Len])
	if err != nil {
		return nil, 0, fmt.Errorf("%w: proof: %v", ErrParse, err)
	}
	off += g1Len

	scalarLen := curve.ScalarByteLen
	if off+scalarLen > len(b) {
		return nil, 0, fmt.Errorf("%w: truncated addr", ErrParse)
	}
	tx.Addr, err = curve.ScalarFromBytes(b[off : off+scalarLen])
	if err != nil {
		return nil, 0, fmt.Errorf("%w: addr: %v", ErrParse, err)
	}
	off += scalarLen

	if tx.Nonce, err = readU32(); err != nil {
		return nil, 0, err
	}
	if tx.Balance, err = readU128(); err != nil {
		return nil, 0, err
	}

	pkLen, err := readU32()
	if err != nil {
		return nil, 0, err
	}
	if off+int(pkLen) > len(b) {
		return nil, 0, fmt.Errorf("%w: truncated pubkey", ErrParse)
	}
	tx.PubKey = append([]byte(nil), b[off:off+int(pkLen)]...)
	off += int(pkLen)

	return tx, off, nil
}
