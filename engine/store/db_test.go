package store

import (
	"testing"

	"github.com/cloverzk/asvc-rollup/curve"
	"github.com/cloverzk/asvc-rollup/ledger"
)

func TestDBAccountRoundTrip(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	rec := AccountRecord{
		Balance: ledger.NewUint128(42),
		Nonce:   3,
		FPK:     &ledger.FullPubKey{Slot: 5, WirePK: []byte("wire-pk")},
	}
	if err := db.PutAccount(5, rec); err != nil {
		t.Fatalf("PutAccount: %v", err)
	}
	got, ok, err := db.GetAccount(5)
	if err != nil || !ok {
		t.Fatalf("GetAccount: ok=%v err=%v", ok, err)
	}
	if got.Balance.Cmp(rec.Balance) != 0 || got.Nonce != rec.Nonce {
		t.Fatalf("got mismatch: %+v want %+v", got, rec)
	}
	if got.FPK == nil || got.FPK.Slot != 5 || string(got.FPK.WirePK) != "wire-pk" {
		t.Fatalf("fpk mismatch: %+v", got.FPK)
	}

	all, err := db.LoadAllAccounts()
	if err != nil {
		t.Fatalf("LoadAllAccounts: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 account, got %d", len(all))
	}
}

func TestDBAccountRoundTripUnregistered(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	rec := AccountRecord{Balance: ledger.NewUint128(0), Nonce: 0}
	if err := db.PutAccount(1, rec); err != nil {
		t.Fatalf("PutAccount: %v", err)
	}
	got, ok, err := db.GetAccount(1)
	if err != nil || !ok {
		t.Fatalf("GetAccount: ok=%v err=%v", ok, err)
	}
	if got.FPK != nil {
		t.Fatalf("expected nil FPK, got %+v", got.FPK)
	}
}

func TestDBOpenProofsRoundTrip(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	proofs := make([]curve.G1, 4)
	proofs[2] = curve.G1Generator()
	if err := db.PutOpenProofs(proofs); err != nil {
		t.Fatalf("PutOpenProofs: %v", err)
	}
	loaded, err := db.LoadAllOpenProofs(4)
	if err != nil {
		t.Fatalf("LoadAllOpenProofs: %v", err)
	}
	if !loaded[2].Equal(&proofs[2]) {
		t.Fatalf("proof at slot 2 did not round-trip")
	}
}

func TestDBPendingPoolRoundTrip(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	tx1 := &ledger.Tx{Type: ledger.TxRegister, From: 0, Balance: ledger.NewUint128(0)}
	tx2 := &ledger.Tx{Type: ledger.TxRegister, From: 1, Balance: ledger.NewUint128(0)}
	if err := db.AppendPending(tx1); err != nil {
		t.Fatalf("AppendPending(tx1): %v", err)
	}
	if err := db.AppendPending(tx2); err != nil {
		t.Fatalf("AppendPending(tx2): %v", err)
	}

	loaded, err := db.LoadPending()
	if err != nil {
		t.Fatalf("LoadPending: %v", err)
	}
	if len(loaded) != 2 || loaded[0].From != 0 || loaded[1].From != 1 {
		t.Fatalf("unexpected pending order: %+v", loaded)
	}

	if err := db.RemovePending(tx1.ID()); err != nil {
		t.Fatalf("RemovePending: %v", err)
	}
	loaded, err = db.LoadPending()
	if err != nil {
		t.Fatalf("LoadPending after remove: %v", err)
	}
	if len(loaded) != 1 || loaded[0].From != 1 {
		t.Fatalf("unexpected pending after remove: %+v", loaded)
	}
}

func TestDBManifestRoundTrip(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if db.Manifest() != nil {
		t.Fatalf("expected nil manifest on fresh store")
	}
	if err := db.SetManifest(Manifest{SchemaVersion: SchemaVersionV1, Height: 3, CommitHex: "ab", NextSlot: 2}); err != nil {
		t.Fatalf("SetManifest: %v", err)
	}
	if db.Manifest().Height != 3 {
		t.Fatalf("manifest height = %d, want 3", db.Manifest().Height)
	}
}
