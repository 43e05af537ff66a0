package store

import (
	"encoding/binary"
	"fmt"

	"github.com/cloverzk/asvc-rollup/curve"
	"github.com/cloverzk/asvc-rollup/ledger"
)

// AccountRecord mirrors engine.AccountRecord's shape without importing
// the engine package, so store has no dependency back on its own
// caller.
type AccountRecord struct {
	Balance *ledger.Uint128
	Nonce   uint32
	FPK     *ledger.FullPubKey
}

// encodeAccount lays out balance(16 LE) ‖ nonce(4 LE) ‖ has_fpk(1) ‖
// [slot(4 LE) ‖ upk_a(G1) ‖ upk_u(G1) ‖ wire_pk_len(4 LE) ‖ wire_pk].
func encodeAccount(rec AccountRecord) []byte {
	buf := make([]byte, 0, 16+4+1+4+2*curve.G1ByteLen+4)
	bal := rec.Balance.Bytes16()
	buf = append(buf, bal[:]...)

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], rec.Nonce)
	buf = append(buf, u32[:]...)

	if rec.FPK == nil {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	binary.LittleEndian.PutUint32(u32[:], rec.FPK.Slot)
	buf = append(buf, u32[:]...)
	buf = append(buf, curve.G1Bytes(rec.FPK.UpkA)...)
	buf = append(buf, curve.G1Bytes(rec.FPK.UpkU)...)
	binary.LittleEndian.PutUint32(u32[:], uint32(len(rec.FPK.WirePK)))
	buf = append(buf, u32[:]...)
	buf = append(buf, rec.FPK.WirePK...)
	return buf
}

func decodeAccount(b []byte) (AccountRecord, error) {
	if len(b) < 16+4+1 {
		return AccountRecord{}, fmt.Errorf("store: account record truncated")
	}
	var bal16 [16]byte
	copy(bal16[:], b[:16])
	rec := AccountRecord{
		Balance: ledger.Uint128FromBytes16(bal16),
		Nonce:   binary.LittleEndian.Uint32(b[16:20]),
	}
	if b[20] == 0 {
		return rec, nil
	}
	off := 21
	g1Len := curve.G1ByteLen
	if len(b) < off+4+2*g1Len+4 {
		return AccountRecord{}, fmt.Errorf("store: account record fpk truncated")
	}
	slot := binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	upkA, err := curve.G1FromBytes(b[off : off+g1Len])
	if err != nil {
		return AccountRecord{}, fmt.Errorf("store: account record upk_a: %w", err)
	}
	off += g1Len
	upkU, err := curve.G1FromBytes(b[off : off+g1Len])
	if err != nil {
		return AccountRecord{}, fmt.Errorf("store: account record upk_u: %w", err)
	}
	off += g1Len
	wireLen := int(binary.LittleEndian.Uint32(b[off : off+4]))
	off += 4
	if len(b) < off+wireLen {
		return AccountRecord{}, fmt.Errorf("store: account record wire_pk truncated")
	}
	wirePK := append([]byte(nil), b[off:off+wireLen]...)
	rec.FPK = &ledger.FullPubKey{Slot: slot, UpkA: upkA, UpkU: upkU, WirePK: wirePK}
	return rec, nil
}
