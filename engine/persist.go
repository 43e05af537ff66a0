package engine

import (
	"fmt"

	"github.com/cloverzk/asvc-rollup/asvc"
	"github.com/cloverzk/asvc-rollup/curve"
	"github.com/cloverzk/asvc-rollup/engine/store"
)

// LoadEngine rebuilds an Engine from durable storage: committed
// accounts, opening proofs, (height, commit) and the surviving pending
// pool. If db has never been checkpointed (fresh store), it falls back
// to NewEngine's all-zero genesis.
func LoadEngine(pk *asvc.ProvingKey, vk *asvc.VerificationKey, db *store.DB) (*Engine, error) {
	e, err := NewEngine(pk, vk)
	if err != nil {
		return nil, err
	}

	accounts, err := db.LoadAllAccounts()
	if err != nil {
		return nil, fmt.Errorf("engine: load engine: accounts: %w", err)
	}
	for slot, rec := range accounts {
		if uint64(slot) >= e.vk.N {
			return nil, fmt.Errorf("engine: load engine: persisted slot %d exceeds domain %d", slot, e.vk.N)
		}
		e.accounts[slot] = AccountRecord{Balance: rec.Balance, Nonce: rec.Nonce, FPK: rec.FPK}
	}

	proofs, err := db.LoadAllOpenProofs(e.vk.N)
	if err != nil {
		return nil, fmt.Errorf("engine: load engine: proofs: %w", err)
	}
	e.openProofs = proofs

	if m := db.Manifest(); m != nil {
		e.height = m.Height
		e.nextSlot = m.NextSlot
		// The commitment is cheap to recompute and recomputing it
		// directly from account_table, rather than trusting the
		// manifest's cached bytes, means a truncated or stale manifest
		// can never desynchronize C from account_table.
		recomputed, err := recomputeCommit(pk, e.accounts)
		if err != nil {
			return nil, fmt.Errorf("engine: load engine: recompute commit: %w", err)
		}
		e.commit = recomputed
	}

	pending, err := db.LoadPending()
	if err != nil {
		return nil, fmt.Errorf("engine: load engine: pending pool: %w", err)
	}
	for _, tx := range pending {
		e.pool.insert(tx)
	}
	e.resyncLocked()

	return e, nil
}

func recomputeCommit(pk *asvc.ProvingKey, accounts []AccountRecord) (curve.G1, error) {
	values := make([]curve.Scalar, len(accounts))
	for i, rec := range accounts {
		values[i] = rec.value()
	}
	return asvc.Commit(pk, values)
}

// Checkpoint persists the engine's full committed state (account
// table, opening proofs, manifest) to db. Call after ApplyBlock so a
// restart resumes from the latest anchored height; ApplyBlock itself
// calls this against its attached store while already holding the
// write lock.
func (e *Engine) Checkpoint(db *store.DB) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.checkpointLocked(db)
}

func (e *Engine) checkpointLocked(db *store.DB) error {
	for slot, rec := range e.accounts {
		if err := db.PutAccount(uint32(slot), store.AccountRecord{Balance: rec.Balance, Nonce: rec.Nonce, FPK: rec.FPK}); err != nil {
			return fmt.Errorf("engine: checkpoint: account %d: %w", slot, err)
		}
	}
	if err := db.PutOpenProofs(e.openProofs); err != nil {
		return fmt.Errorf("engine: checkpoint: proofs: %w", err)
	}
	commitHex := fmt.Sprintf("%x", curve.G1Bytes(e.commit))
	if err := db.SetManifest(store.Manifest{
		SchemaVersion: store.SchemaVersionV1,
		Height:        e.height,
		CommitHex:     commitHex,
		NextSlot:      e.nextSlot,
	}); err != nil {
		return fmt.Errorf("engine: checkpoint: manifest: %w", err)
	}
	return nil
}
