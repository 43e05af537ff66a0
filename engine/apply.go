package engine

import (
	"fmt"

	"github.com/cloverzk/asvc-rollup/asvc"
	"github.com/cloverzk/asvc-rollup/curve"
	"github.com/cloverzk/asvc-rollup/ledger"
)

// ApplyBlock commits an anchored block: it re-runs the verification
// predicate, applies the authoritative mutations to account_table, and
// refreshes every stored opening proof against the resulting deltas.
// It enforces strict height linearization (§3 invariant 3): a block
// whose height is not current+1 is rejected outright, which also makes
// OnL1Observed's retry path idempotent.
func (e *Engine) ApplyBlock(block *ledger.Block) (income, outcome *ledger.Uint128, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if block.Height != e.height+1 {
		return nil, nil, fmt.Errorf("engine: apply block: %w: have %d, want %d", ErrBadHeight, block.Height, e.height+1)
	}
	if !block.Commit.Equal(&e.commit) {
		return nil, nil, fmt.Errorf("engine: apply block: %w: declared pre-state does not match committed state", ErrCommitMismatch)
	}

	income, outcome, err = VerifyBlock(e.vk, e.pk.UpdateKeys, block)
	if err != nil {
		return nil, nil, err
	}

	touched := make(map[uint32]struct{})
	for _, tx := range block.Txs {
		touched[tx.From] = struct{}{}
		if tx.Type == ledger.TxTransfer {
			touched[tx.To] = struct{}{}
		}
	}
	oldValues := make(map[uint32]curve.Scalar, len(touched))
	for slot := range touched {
		oldValues[slot] = e.accounts[slot].value()
	}

	for _, tx := range block.Txs {
		if err := e.applyTxLocked(tx); err != nil {
			return nil, nil, fmt.Errorf("engine: apply block: %w", err)
		}
	}

	deltas := make(map[uint32]curve.Scalar, len(touched))
	for slot := range touched {
		newVal := e.accounts[slot].value()
		var d curve.Scalar
		d.Sub(&newVal, &oldValues[slot])
		deltas[slot] = d
	}

	for j, delta := range deltas {
		for i := uint64(0); i < e.vk.N; i++ {
			refreshed, err := asvc.UpdateProof(e.vk, e.openProofs[i], delta, i, uint64(j), e.pk.UpdateKeys[i], e.pk.UpdateKeys[j])
			if err != nil {
				return nil, nil, fmt.Errorf("engine: apply block: refresh proof %d against slot %d: %w", i, j, err)
			}
			e.openProofs[i] = refreshed
		}
	}

	e.commit = block.NewCommit
	e.height = block.Height
	for _, tx := range block.Txs {
		e.pool.drainID(tx.ID())
		if e.db != nil {
			if err := e.db.RemovePending(tx.ID()); err != nil {
				return nil, nil, fmt.Errorf("engine: apply block: unpersist pending: %w", err)
			}
		}
	}
	// Keep the speculative mirrors tracking committed state plus the
	// surviving pool (§4.4.6's post-condition), not just after a
	// submission-failure rollback: a deposit's committed balance must
	// become visible to the next transfer's admission check.
	e.resyncLocked()

	if e.db != nil {
		if err := e.checkpointLocked(e.db); err != nil {
			return nil, nil, fmt.Errorf("engine: apply block: checkpoint: %w", err)
		}
	}

	return income, outcome, nil
}

// applyTxLocked mutates account_table for one transaction's
// authoritative effect. The caller must hold e.mu for writing.
func (e *Engine) applyTxLocked(tx *ledger.Tx) error {
	switch tx.Type {
	case ledger.TxDeposit:
		newBal, err := e.accounts[tx.From].Balance.Add(tx.Amount)
		if err != nil {
			return fmt.Errorf("deposit: %w", err)
		}
		e.accounts[tx.From].Balance = newBal

	case ledger.TxWithdraw:
		newBal, err := e.accounts[tx.From].Balance.Sub(tx.Amount)
		if err != nil {
			return fmt.Errorf("withdraw: %w", ErrInsufficientBalance)
		}
		e.accounts[tx.From].Balance = newBal

	case ledger.TxTransfer:
		newFrom, err := e.accounts[tx.From].Balance.Sub(tx.Amount)
		if err != nil {
			return fmt.Errorf("transfer: %w", ErrInsufficientBalance)
		}
		newTo, err := e.accounts[tx.To].Balance.Add(tx.Amount)
		if err != nil {
			return fmt.Errorf("transfer: recipient overflow: %w", err)
		}
		e.accounts[tx.From].Balance = newFrom
		e.accounts[tx.From].Nonce++
		e.accounts[tx.To].Balance = newTo

	case ledger.TxRegister:
		upk := e.pk.UpdateKeys[tx.From]
		e.accounts[tx.From].FPK = &ledger.FullPubKey{
			Slot:   tx.From,
			UpkA:   upk.A,
			UpkU:   upk.U,
			WirePK: tx.PubKey,
		}
		e.accounts[tx.From].Nonce = 1
		if tx.From == e.nextSlot {
			e.nextSlot++
		}

	default:
		return fmt.Errorf("unknown tx type %s", tx.Type)
	}
	return nil
}

// OnL1Observed decodes an anchored block's canonical bytes and applies
// it. Idempotent: a resubmission carrying the same already-applied
// height is rejected by ApplyBlock's height check rather than
// double-applying, which is what lets the listener retry freely on
// submission failure.
func (e *Engine) OnL1Observed(blockBytes []byte) (income, outcome *ledger.Uint128, err error) {
	block, err := ledger.DecodeBlock(blockBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("engine: on l1 observed: %w", err)
	}
	return e.ApplyBlock(block)
}
