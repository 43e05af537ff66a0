package ledger

import (
	"encoding/binary"
	"fmt"

	"github.com/cloverzk/asvc-rollup/curve"
)

// Block is one rollup block: the pre/post state commitments, the
// single aggregated opening proof witnessing every touched account,
// and the transactions in admission order.
type Block struct {
	Height    uint32
	Commit    curve.G1 // pre-state commitment C
	NewCommit curve.G1 // post-state commitment C'
	Proof     curve.G1 // aggregated opening Π
	Txs       []*Tx
}

// Encode writes the canonical block bytes:
// height(4 LE) ‖ C ‖ C' ‖ Π ‖ n(4 LE) ‖ tx_1 ‖ … ‖ tx_n.
func (b *Block) Encode() ([]byte, error) {
	buf := make([]byte, 0, 128+64*len(b.Txs))
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], b.Height)
	buf = append(buf, u32[:]...)
	buf = append(buf, curve.G1Bytes(b.Commit)...)
	buf = append(buf, curve.G1Bytes(b.NewCommit)...)
	buf = append(buf, curve.G1Bytes(b.Proof)...)

	binary.LittleEndian.PutUint32(u32[:], uint32(len(b.Txs)))
	buf = append(buf, u32[:]...)

	for i, tx := range b.Txs {
		txBytes, err := tx.Encode()
		if err != nil {
			return nil, fmt.Errorf("ledger: encode block: tx %d: %w", i, err)
		}
		buf = append(buf, txBytes...)
	}
	return buf, nil
}

// DecodeBlock parses the canonical block encoding produced by Encode.
func DecodeBlock(b []byte) (*Block, error) {
	g1Len := curve.G1ByteLen
	headerLen := 4 + 3*g1Len + 4
	if len(b) < headerLen {
		return nil, fmt.Errorf("%w: truncated block header", ErrParse)
	}
	blk := &Block{}
	off := 0
	blk.Height = binary.LittleEndian.Uint32(b[off : off+4])
	off += 4

	var err error
	blk.Commit, err = curve.G1FromBytes(b[off : off+g1Len])
	if err != nil {
		return nil, fmt.Errorf("%w: commit: %v", ErrParse, err)
	}
	off += g1Len
	blk.NewCommit, err = curve.G1FromBytes(b[off : off+g1Len])
	if err != nil {
		return nil, fmt.Errorf("%w: new_commit: %v", ErrParse, err)
	}
	off += g1Len
	blk.Proof, err = curve.G1FromBytes(b[off : off+g1Len])
	if err != nil {
		return nil, fmt.Errorf("%w: proof: %v", ErrParse, err)
	}
	off += g1Len

	n := binary.LittleEndian.Uint32(b[off : off+4])
	off += 4

	blk.Txs = make([]*Tx, 0, n)
	for i := uint32(0); i < n; i++ {
		tx, consumed, err := DecodeTx(b[off:])
		if err != nil {
			return nil, fmt.Errorf("%w: tx %d: %v", ErrParse, i, err)
		}
		blk.Txs = append(blk.Txs, tx)
		off += consumed
	}
	if off != len(b) {
		return nil, fmt.Errorf("%w: trailing bytes after block", ErrParse)
	}
	return blk, nil
}
