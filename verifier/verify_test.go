package verifier

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/cloverzk/asvc-rollup/asvc"
	"github.com/cloverzk/asvc-rollup/engine"
	"github.com/cloverzk/asvc-rollup/ledger"
)

type testRand struct{ r *rand.Rand }

func (t testRand) Read(p []byte) (int, error) { return t.r.Read(p) }

func newTestRig(t *testing.T, n uint64) (*engine.Engine, *asvc.ProvingKey, *asvc.VerificationKey) {
	t.Helper()
	pk, vk, err := asvc.KeyGen(n, testRand{rand.New(rand.NewSource(11))})
	if err != nil {
		t.Fatalf("KeyGen: %v", err)
	}
	e, err := engine.NewEngine(pk, vk)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e, pk, vk
}

func cellUpks(pk *asvc.ProvingKey, vk *asvc.VerificationKey) []byte {
	return EncodeCellUpks(vk, pk.Domain.Generator(), pk.UpdateKeys)
}

// genesisBlockBytes returns block0, the predecessor the first
// post-genesis commit-cell update chains from. It must be called while
// the engine is still at height 0.
func genesisBlockBytes(t *testing.T, e *engine.Engine) []byte {
	t.Helper()
	_, block0, err := e.InitialState()
	if err != nil {
		t.Fatalf("InitialState: %v", err)
	}
	return block0
}

func sameLockHashes() LockHashes {
	var h [32]byte
	h[0] = 0x42
	return LockHashes{Commit: h, Upk: h, UDTPool: h}
}

func TestVerifyOnChainAcceptsDepositBlock(t *testing.T) {
	e, pk, vk := newTestRig(t, 4)
	genesis := genesisBlockBytes(t, e)

	deposit, err := e.BuildDepositBlock(0, ledger.NewUint128(100))
	if err != nil {
		t.Fatalf("BuildDepositBlock: %v", err)
	}
	income, outcome, err := e.ApplyBlock(deposit)
	if err != nil {
		t.Fatalf("ApplyBlock: %v", err)
	}

	blockBytes, err := deposit.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	err = VerifyOnChain(OpDeposit, genesis, blockBytes, cellUpks(pk, vk), income, outcome, 100, sameLockHashes())
	if err != nil {
		t.Fatalf("VerifyOnChain(deposit): %v", err)
	}
}

func TestVerifyOnChainRejectsUDTDeltaMismatch(t *testing.T) {
	e, pk, vk := newTestRig(t, 4)
	genesis := genesisBlockBytes(t, e)

	deposit, err := e.BuildDepositBlock(0, ledger.NewUint128(100))
	if err != nil {
		t.Fatalf("BuildDepositBlock: %v", err)
	}
	income, outcome, err := e.ApplyBlock(deposit)
	if err != nil {
		t.Fatalf("ApplyBlock: %v", err)
	}
	blockBytes, err := deposit.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	err = VerifyOnChain(OpDeposit, genesis, blockBytes, cellUpks(pk, vk), income, outcome, 99, sameLockHashes())
	if err != ErrUDTDeltaMismatch {
		t.Fatalf("got %v, want ErrUDTDeltaMismatch", err)
	}
}

func TestVerifyOnChainRejectsDeclaredMismatch(t *testing.T) {
	e, pk, vk := newTestRig(t, 4)
	genesis := genesisBlockBytes(t, e)

	deposit, err := e.BuildDepositBlock(0, ledger.NewUint128(100))
	if err != nil {
		t.Fatalf("BuildDepositBlock: %v", err)
	}
	if _, _, err := e.ApplyBlock(deposit); err != nil {
		t.Fatalf("ApplyBlock: %v", err)
	}
	blockBytes, err := deposit.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	err = VerifyOnChain(OpDeposit, genesis, blockBytes, cellUpks(pk, vk), ledger.NewUint128(5), ledger.NewUint128(0), 100, sameLockHashes())
	if err != ErrDeltaMismatch {
		t.Fatalf("got %v, want ErrDeltaMismatch", err)
	}
}

func TestVerifyOnChainRejectsOpShapeMismatch(t *testing.T) {
	e, pk, vk := newTestRig(t, 4)

	deposit, err := e.BuildDepositBlock(0, ledger.NewUint128(100))
	if err != nil {
		t.Fatalf("BuildDepositBlock: %v", err)
	}
	income, outcome, err := e.ApplyBlock(deposit)
	if err != nil {
		t.Fatalf("ApplyBlock: %v", err)
	}
	blockBytes, err := deposit.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	err = VerifyOnChain(OpWithdraw, nil, blockBytes, cellUpks(pk, vk), income, outcome, 100, sameLockHashes())
	if !errors.Is(err, ErrOpMismatch) {
		t.Fatalf("got %v, want ErrOpMismatch", err)
	}
}

func TestVerifyOnChainRejectsLockHashMismatch(t *testing.T) {
	e, pk, vk := newTestRig(t, 4)

	deposit, err := e.BuildDepositBlock(0, ledger.NewUint128(100))
	if err != nil {
		t.Fatalf("BuildDepositBlock: %v", err)
	}
	income, outcome, err := e.ApplyBlock(deposit)
	if err != nil {
		t.Fatalf("ApplyBlock: %v", err)
	}
	blockBytes, err := deposit.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	hashes := sameLockHashes()
	hashes.UDTPool[0] = 0xFF

	err = VerifyOnChain(OpDeposit, nil, blockBytes, cellUpks(pk, vk), income, outcome, 100, hashes)
	if err != ErrLockHashMismatch {
		t.Fatalf("got %v, want ErrLockHashMismatch", err)
	}
}

func TestVerifyOnChainChecksContinuity(t *testing.T) {
	e, pk, vk := newTestRig(t, 4)

	first, err := e.BuildDepositBlock(0, ledger.NewUint128(100))
	if err != nil {
		t.Fatalf("BuildDepositBlock: %v", err)
	}
	if _, _, err := e.ApplyBlock(first); err != nil {
		t.Fatalf("ApplyBlock(first): %v", err)
	}
	firstBytes, err := first.Encode()
	if err != nil {
		t.Fatalf("Encode(first): %v", err)
	}

	second, err := e.BuildDepositBlock(0, ledger.NewUint128(50))
	if err != nil {
		t.Fatalf("BuildDepositBlock: %v", err)
	}
	income, outcome, err := e.ApplyBlock(second)
	if err != nil {
		t.Fatalf("ApplyBlock(second): %v", err)
	}
	secondBytes, err := second.Encode()
	if err != nil {
		t.Fatalf("Encode(second): %v", err)
	}

	if err := VerifyOnChain(OpDeposit, firstBytes, secondBytes, cellUpks(pk, vk), income, outcome, 50, sameLockHashes()); err != nil {
		t.Fatalf("VerifyOnChain(chained): %v", err)
	}

	// Tamper: claim the second block chains from itself instead of the
	// real predecessor.
	if err := VerifyOnChain(OpDeposit, secondBytes, secondBytes, cellUpks(pk, vk), income, outcome, 50, sameLockHashes()); !errors.Is(err, ErrDiscontinuity) {
		t.Fatalf("got %v, want ErrDiscontinuity", err)
	}
}
