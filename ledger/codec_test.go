package ledger

import (
	"testing"

	"github.com/cloverzk/asvc-rollup/curve"
)

func sampleTx(t *testing.T, typ TxType) *Tx {
	t.Helper()
	tx := &Tx{
		Type:    typ,
		From:    3,
		To:      7,
		Amount:  NewUint128(1000),
		Proof:   curve.G1Generator(),
		Addr:    curve.ScalarFromUint64(42),
		Nonce:   5,
		Balance: NewUint128(2500),
		PubKey:  []byte{0x01, 0x02, 0x03, 0x04},
	}
	if typ == TxRegister {
		tx.Amount = nil
	}
	return tx
}

func TestTxEncodeDecodeRoundTrip(t *testing.T) {
	for _, typ := range []TxType{TxDeposit, TxWithdraw, TxRegister, TxTransfer} {
		t.Run(typ.String(), func(t *testing.T) {
			tx := sampleTx(t, typ)
			b, err := tx.Encode()
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, consumed, err := DecodeTx(b)
			if err != nil {
				t.Fatalf("DecodeTx: %v", err)
			}
			if consumed != len(b) {
				t.Fatalf("consumed %d, want %d", consumed, len(b))
			}
			if got.Type != tx.Type || got.From != tx.From || got.Nonce != tx.Nonce {
				t.Fatalf("round trip mismatch: got %+v want %+v", got, tx)
			}
			if typ == TxTransfer && got.To != tx.To {
				t.Fatalf("To mismatch: got %d want %d", got.To, tx.To)
			}
			if got.Balance.Cmp(tx.Balance) != 0 {
				t.Fatalf("balance mismatch: got %v want %v", got.Balance, tx.Balance)
			}
		})
	}
}

func TestDecodeTxRejectsTruncated(t *testing.T) {
	tx := sampleTx(t, TxDeposit)
	b, err := tx.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, _, err := DecodeTx(b[:len(b)-1]); err == nil {
		t.Fatalf("expected error decoding truncated tx")
	}
}

func TestBlockEncodeDecodeRoundTrip(t *testing.T) {
	blk := &Block{
		Height:    7,
		Commit:    curve.G1Generator(),
		NewCommit: curve.G1Generator(),
		Proof:     curve.G1Generator(),
		Txs:       []*Tx{sampleTx(t, TxDeposit), sampleTx(t, TxTransfer)},
	}
	b, err := blk.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := DecodeBlock(b)
	if err != nil {
		t.Fatalf("DecodeBlock: %v", err)
	}
	if got.Height != blk.Height || len(got.Txs) != len(blk.Txs) {
		t.Fatalf("round trip mismatch: got %+v", got)
	}
}

func TestDeltaValueTransferConserves(t *testing.T) {
	tx := sampleTx(t, TxTransfer)
	deltaFrom, deltaTo := DeltaValue(tx)
	var sum curve.Scalar
	sum.Add(&deltaFrom, &deltaTo)
	if !sum.Equal(&pow128) {
		t.Fatalf("transfer delta does not sum to 2^128: got %v", sum)
	}
}

func TestPointValueTransferUsesPriorNonce(t *testing.T) {
	depositTx := sampleTx(t, TxDeposit)
	transferTx := sampleTx(t, TxTransfer)
	depositTx.Nonce = 5
	transferTx.Nonce = 6
	depositVal := PointValue(depositTx)
	transferVal := PointValue(transferTx)
	if !depositVal.Equal(&transferVal) {
		t.Fatalf("PointValue(nonce=5 deposit) should equal PointValue(nonce=6 transfer): %v vs %v", depositVal, transferVal)
	}
}

func TestTxIDStableAndDistinct(t *testing.T) {
	a := sampleTx(t, TxTransfer)
	b := sampleTx(t, TxTransfer)
	if a.ID() != b.ID() {
		t.Fatalf("identical transactions should share an ID")
	}
	c := sampleTx(t, TxTransfer)
	c.Nonce = 99
	if a.ID() == c.ID() {
		t.Fatalf("transactions with different nonces should not collide")
	}
}
