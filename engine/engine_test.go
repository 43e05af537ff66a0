package engine

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/cloverzk/asvc-rollup/asvc"
	"github.com/cloverzk/asvc-rollup/ledger"
)

// testRand is a fixed, non-cryptographic source of "randomness" for
// the trusted setup, kept deterministic across test runs the same way
// the asvc package's own test suite does.
type testRand struct{ r *rand.Rand }

func (t testRand) Read(p []byte) (int, error) { return t.r.Read(p) }

func newTestEngine(t *testing.T, n uint64) (*Engine, *asvc.ProvingKey, *asvc.VerificationKey) {
	t.Helper()
	pk, vk, err := asvc.KeyGen(n, testRand{rand.New(rand.NewSource(7))})
	if err != nil {
		t.Fatalf("KeyGen: %v", err)
	}
	e, err := NewEngine(pk, vk)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e, pk, vk
}

func registerSlot(t *testing.T, e *Engine, pk *asvc.ProvingKey, slot uint32, wirePK []byte) *ledger.Tx {
	t.Helper()
	upk := pk.UpdateKeys[slot]
	fpk := &ledger.FullPubKey{Slot: slot, UpkA: upk.A, UpkU: upk.U, WirePK: wirePK}
	proof, err := e.OpenProof(slot)
	if err != nil {
		t.Fatalf("OpenProof(%d): %v", slot, err)
	}
	tx := &ledger.Tx{
		Type:    ledger.TxRegister,
		From:    slot,
		Addr:    fpk.Addr(),
		PubKey:  wirePK,
		Proof:   proof,
		Balance: ledger.NewUint128(0),
	}
	if err := e.TryInsert(tx); err != nil {
		t.Fatalf("TryInsert(register %d): %v", slot, err)
	}
	blk, err := e.BuildMinerBlock()
	if err != nil {
		t.Fatalf("BuildMinerBlock(register %d): %v", slot, err)
	}
	if _, _, err := e.ApplyBlock(blk); err != nil {
		t.Fatalf("ApplyBlock(register %d): %v", slot, err)
	}
	return tx
}

func TestFullLifecycleRegisterDepositTransferWithdraw(t *testing.T) {
	e, pk, _ := newTestEngine(t, 4)

	// A Register opens its slot against the blank value, so both slots
	// are registered before the deposit funds slot 0.
	registerSlot(t, e, pk, 0, []byte("wire-pk-0"))
	registerSlot(t, e, pk, 1, []byte("wire-pk-1"))

	deposit, err := e.BuildDepositBlock(0, ledger.NewUint128(100))
	if err != nil {
		t.Fatalf("BuildDepositBlock: %v", err)
	}
	income, outcome, err := e.ApplyBlock(deposit)
	if err != nil {
		t.Fatalf("ApplyBlock(deposit): %v", err)
	}
	if income.Cmp(ledger.NewUint128(100)) != 0 || !outcome.IsZero() {
		t.Fatalf("deposit accounting: income=%v outcome=%v", income, outcome)
	}
	if e.Height() != 3 {
		t.Fatalf("height after deposit = %d, want 3", e.Height())
	}

	rec0, err := e.Account(0)
	if err != nil {
		t.Fatalf("Account(0): %v", err)
	}
	if rec0.Balance.Cmp(ledger.NewUint128(100)) != 0 {
		t.Fatalf("slot 0 balance = %v, want 100", rec0.Balance)
	}
	if rec0.Nonce != 1 {
		t.Fatalf("slot 0 nonce = %d, want 1", rec0.Nonce)
	}

	transferProof, err := e.OpenProof(0)
	if err != nil {
		t.Fatalf("OpenProof(0): %v", err)
	}
	transfer := &ledger.Tx{
		Type:    ledger.TxTransfer,
		From:    0,
		To:      1,
		Amount:  ledger.NewUint128(30),
		Proof:   transferProof,
		Addr:    rec0.FPK.Addr(),
		Nonce:   2, // post-increment: pre-state nonce was 1
		Balance: ledger.NewUint128(100),
	}
	if err := e.TryInsert(transfer); err != nil {
		t.Fatalf("TryInsert(transfer): %v", err)
	}
	if e.PendingCount() != 1 {
		t.Fatalf("pending count = %d, want 1", e.PendingCount())
	}

	blk, err := e.BuildMinerBlock()
	if err != nil {
		t.Fatalf("BuildMinerBlock(transfer): %v", err)
	}
	if _, _, err := e.ApplyBlock(blk); err != nil {
		t.Fatalf("ApplyBlock(transfer): %v", err)
	}

	rec0, _ = e.Account(0)
	rec1, _ := e.Account(1)
	if rec0.Balance.Cmp(ledger.NewUint128(70)) != 0 {
		t.Fatalf("slot 0 balance after transfer = %v, want 70", rec0.Balance)
	}
	if rec1.Balance.Cmp(ledger.NewUint128(30)) != 0 {
		t.Fatalf("slot 1 balance after transfer = %v, want 30", rec1.Balance)
	}
	if rec0.Nonce != 2 {
		t.Fatalf("slot 0 nonce after transfer = %d, want 2", rec0.Nonce)
	}

	withdraw, err := e.BuildWithdrawBlock(1, ledger.NewUint128(30))
	if err != nil {
		t.Fatalf("BuildWithdrawBlock: %v", err)
	}
	income, outcome, err = e.ApplyBlock(withdraw)
	if err != nil {
		t.Fatalf("ApplyBlock(withdraw): %v", err)
	}
	if !income.IsZero() || outcome.Cmp(ledger.NewUint128(30)) != 0 {
		t.Fatalf("withdraw accounting: income=%v outcome=%v", income, outcome)
	}

	rec1, _ = e.Account(1)
	if !rec1.Balance.IsZero() {
		t.Fatalf("slot 1 balance after withdraw = %v, want 0", rec1.Balance)
	}
}

func TestTryInsertRejectsDepositAndWithdraw(t *testing.T) {
	e, _, _ := newTestEngine(t, 4)
	tx := &ledger.Tx{Type: ledger.TxDeposit, From: 0, Amount: ledger.NewUint128(1)}
	if err := e.TryInsert(tx); err == nil {
		t.Fatalf("expected deposit to be rejected by TryInsert")
	}
}

func TestTryInsertRejectsUnknownSlotTransfer(t *testing.T) {
	e, _, _ := newTestEngine(t, 4)
	tx := &ledger.Tx{Type: ledger.TxTransfer, From: 0, To: 1, Amount: ledger.NewUint128(1)}
	if err := e.TryInsert(tx); err == nil {
		t.Fatalf("expected transfer from unregistered slot to be rejected")
	}
}

func TestTryInsertRejectsDuplicate(t *testing.T) {
	e, pk, _ := newTestEngine(t, 4)
	upk := pk.UpdateKeys[0]
	fpk := &ledger.FullPubKey{Slot: 0, UpkA: upk.A, UpkU: upk.U, WirePK: []byte("x")}
	proof, _ := e.OpenProof(0)
	tx := &ledger.Tx{Type: ledger.TxRegister, From: 0, Addr: fpk.Addr(), PubKey: []byte("x"), Proof: proof, Balance: ledger.NewUint128(0)}
	if err := e.TryInsert(tx); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := e.TryInsert(tx); err != ErrAlreadyPending {
		t.Fatalf("second insert: got %v, want ErrAlreadyPending", err)
	}
}

func TestTryInsertRejectsRegisterWrongSlot(t *testing.T) {
	e, pk, _ := newTestEngine(t, 4)
	upk := pk.UpdateKeys[1]
	fpk := &ledger.FullPubKey{Slot: 1, UpkA: upk.A, UpkU: upk.U, WirePK: []byte("x")}
	proof, _ := e.OpenProof(1)
	tx := &ledger.Tx{Type: ledger.TxRegister, From: 1, Addr: fpk.Addr(), PubKey: []byte("x"), Proof: proof, Balance: ledger.NewUint128(0)}
	if err := e.TryInsert(tx); err == nil {
		t.Fatalf("expected register at slot 1 to be rejected while next_slot is 0")
	}
}

func TestBuildMinerBlockRejectsEmptyPool(t *testing.T) {
	e, _, _ := newTestEngine(t, 4)
	if _, err := e.BuildMinerBlock(); err == nil {
		t.Fatalf("expected error building a block from an empty pool")
	}
}

func TestApplyBlockRejectsWrongHeight(t *testing.T) {
	e, _, _ := newTestEngine(t, 4)
	deposit, err := e.BuildDepositBlock(0, ledger.NewUint128(1))
	if err != nil {
		t.Fatalf("BuildDepositBlock: %v", err)
	}
	deposit.Height = 5
	if _, _, err := e.ApplyBlock(deposit); !errors.Is(err, ErrBadHeight) {
		t.Fatalf("got %v, want ErrBadHeight", err)
	}
}
