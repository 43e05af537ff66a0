package engine

import (
	"fmt"
	"sync"

	"github.com/cloverzk/asvc-rollup/asvc"
	"github.com/cloverzk/asvc-rollup/curve"
	"github.com/cloverzk/asvc-rollup/engine/store"
	"github.com/cloverzk/asvc-rollup/ledger"
)

// Engine is the off-chain rollup state machine. A single RWMutex
// guards every field: readers (balance/nonce queries, proof serving)
// take RLock, writers (admission, block build, block apply) take Lock.
// There is no finer-grained locking, mirroring a single cooperative
// goroutine driving state transitions one at a time.
type Engine struct {
	mu sync.RWMutex

	pk *asvc.ProvingKey
	vk *asvc.VerificationKey

	height uint32
	commit curve.G1

	accounts   []AccountRecord
	openProofs []curve.G1
	nextSlot   uint32

	// Speculative mirrors admission reasons against. They track commit
	// but are never folded into it; the block builders fold the drained
	// pool's (or the L1 transaction's) deltas into real commitment
	// updates, and BuildWithdrawBlock reads tmpBalance for sufficiency.
	tmpBalance  []*ledger.Uint128
	tmpNonce    []uint32
	tmpNextSlot uint32

	pool *pendingPool

	// db is nil for a purely in-memory engine (e.g. tests); when set,
	// admission and block application mirror their effects into it.
	db *store.DB
}

// AttachStore binds db to the engine so admission and commit-application
// persist as they happen, rather than relying solely on periodic
// Checkpoint calls. Intended to be called once, right after LoadEngine.
func (e *Engine) AttachStore(db *store.DB) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.db = db
}

// NewEngine builds a fresh, all-zero genesis state over pk/vk's
// domain. Every slot starts unregistered with a zero balance, so the
// genesis commitment is the commitment to the all-zero vector and
// every opening proof is the identity element.
func NewEngine(pk *asvc.ProvingKey, vk *asvc.VerificationKey) (*Engine, error) {
	if pk == nil || vk == nil {
		return nil, fmt.Errorf("engine: new engine: proving/verification key required")
	}
	if pk.N != vk.N {
		return nil, fmt.Errorf("engine: new engine: proving key N=%d does not match verification key N=%d", pk.N, vk.N)
	}
	n := int(vk.N)

	values := make([]curve.Scalar, n)
	commit, err := asvc.Commit(pk, values)
	if err != nil {
		return nil, fmt.Errorf("engine: new engine: genesis commit: %w", err)
	}

	accounts := make([]AccountRecord, n)
	for i := range accounts {
		accounts[i] = zeroAccount()
	}
	balances := make([]*ledger.Uint128, n)
	nonces := make([]uint32, n)
	for i := range balances {
		balances[i] = ledger.NewUint128(0)
	}

	return &Engine{
		pk:          pk,
		vk:          vk,
		height:      0,
		commit:      commit,
		accounts:    accounts,
		openProofs:  make([]curve.G1, n),
		nextSlot:    0,
		tmpBalance:  balances,
		tmpNonce:    nonces,
		tmpNextSlot: 0,
		pool:        newPendingPool(),
	}, nil
}

// N reports the account-table capacity.
func (e *Engine) N() uint64 {
	return e.vk.N
}

// Height reports the committed block height.
func (e *Engine) Height() uint32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.height
}

// Commit returns the current on-chain commitment.
func (e *Engine) Commit() curve.G1 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.commit
}

// NextSlot reports the next slot Register will assign.
func (e *Engine) NextSlot() uint32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nextSlot
}

// PendingCount reports how many transactions are waiting to be mined.
func (e *Engine) PendingCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pool.len()
}

// Account returns a copy of the committed record at slot, or
// ErrNotRegistered if slot is out of range or unregistered.
func (e *Engine) Account(slot uint32) (AccountRecord, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.accountLocked(slot)
}

func (e *Engine) accountLocked(slot uint32) (AccountRecord, error) {
	if uint64(slot) >= e.vk.N {
		return AccountRecord{}, ErrNotRegistered
	}
	rec := e.accounts[slot]
	if rec.FPK == nil {
		return AccountRecord{}, ErrNotRegistered
	}
	return rec, nil
}

// OpenProof returns the current opening proof held for slot, which
// witnesses e.commit against that slot's committed value.
func (e *Engine) OpenProof(slot uint32) (curve.G1, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if uint64(slot) >= e.vk.N {
		return curve.G1{}, ErrNotRegistered
	}
	return e.openProofs[slot], nil
}
