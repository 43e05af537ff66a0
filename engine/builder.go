package engine

import (
	"fmt"

	"github.com/cloverzk/asvc-rollup/asvc"
	"github.com/cloverzk/asvc-rollup/curve"
	"github.com/cloverzk/asvc-rollup/ledger"
)

// BuildMinerBlock drains the pending pool in insertion order and folds
// every transaction's delta into a freshly computed post-state
// commitment, aggregating one opening proof per distinct sender. It
// never mutates e.commit/e.height; the caller submits the block to L1
// and ApplyBlock/OnL1Observed commits it once anchored.
func (e *Engine) BuildMinerBlock() (*ledger.Block, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pool.len() == 0 {
		return nil, fmt.Errorf("engine: build miner block: pool is empty")
	}
	txs := e.pool.drain()

	newCommit := e.commit
	var authorOrder []uint32
	authorProof := make(map[uint32]curve.G1)

	for _, tx := range txs {
		deltaFrom, deltaTo := ledger.DeltaValue(tx)

		var err error
		newCommit, err = asvc.UpdateCommit(e.vk, newCommit, deltaFrom, uint64(tx.From), e.pk.UpdateKeys[tx.From])
		if err != nil {
			e.pool.restore(txs)
			return nil, fmt.Errorf("engine: build miner block: update commit at %d: %w", tx.From, err)
		}
		if tx.Type == ledger.TxTransfer {
			newCommit, err = asvc.UpdateCommit(e.vk, newCommit, deltaTo, uint64(tx.To), e.pk.UpdateKeys[tx.To])
			if err != nil {
				e.pool.restore(txs)
				return nil, fmt.Errorf("engine: build miner block: update commit at %d: %w", tx.To, err)
			}
		}

		if _, ok := authorProof[tx.From]; !ok {
			authorProof[tx.From] = tx.Proof
			authorOrder = append(authorOrder, tx.From)
		}
	}

	proofs := make([]curve.G1, len(authorOrder))
	points := make([]uint64, len(authorOrder))
	for i, slot := range authorOrder {
		points[i] = uint64(slot)
		proofs[i] = authorProof[slot]
	}
	aggregated, err := asvc.AggregateProofs(e.vk, points, proofs)
	if err != nil {
		e.pool.restore(txs)
		return nil, fmt.Errorf("engine: build miner block: aggregate proofs: %w", err)
	}

	return &ledger.Block{
		Height:    e.height + 1,
		Commit:    e.commit,
		NewCommit: newCommit,
		Proof:     aggregated,
		Txs:       txs,
	}, nil
}

// BuildDepositBlock authors a single-transaction block crediting
// amount to slot from. The depositor need not be registered; an
// unregistered slot's pre-state has a zero address and nonce plus
// whatever balance earlier deposits left there, and the stored opening
// proof is the one ApplyBlock keeps refreshed (the identity element
// at genesis, as installed by NewEngine).
func (e *Engine) BuildDepositBlock(from uint32, amount *ledger.Uint128) (*ledger.Block, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if uint64(from) >= e.vk.N {
		return nil, fmt.Errorf("engine: build deposit block: %w: slot %d", ErrNotRegistered, from)
	}

	tx := e.l1TxLocked(ledger.TxDeposit, from, amount)
	deltaFrom, _ := ledger.DeltaValue(tx)
	newCommit, err := asvc.UpdateCommit(e.vk, e.commit, deltaFrom, uint64(from), e.pk.UpdateKeys[from])
	if err != nil {
		return nil, fmt.Errorf("engine: build deposit block: %w", err)
	}
	proof, err := asvc.AggregateProofs(e.vk, []uint64{uint64(from)}, []curve.G1{e.openProofs[from]})
	if err != nil {
		return nil, fmt.Errorf("engine: build deposit block: %w", err)
	}

	return &ledger.Block{
		Height:    e.height + 1,
		Commit:    e.commit,
		NewCommit: newCommit,
		Proof:     proof,
		Txs:       []*ledger.Tx{tx},
	}, nil
}

// BuildWithdrawBlock authors a single-transaction block debiting
// amount from slot from, after checking sufficiency and that the
// stored opening proof genuinely opens the current commitment at
// from's pre-state value.
func (e *Engine) BuildWithdrawBlock(from uint32, amount *ledger.Uint128) (*ledger.Block, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.accountLocked(from); err != nil {
		return nil, fmt.Errorf("engine: build withdraw block: %w", err)
	}
	if amount.Cmp(e.tmpBalance[from]) > 0 {
		return nil, fmt.Errorf("engine: build withdraw block: %w", ErrInsufficientBalance)
	}

	tx := e.l1TxLocked(ledger.TxWithdraw, from, amount)
	pointValue := ledger.PointValue(tx)
	ok, err := asvc.VerifyPos(e.vk, e.commit, []uint64{uint64(from)}, []curve.Scalar{pointValue}, e.openProofs[from])
	if err != nil || !ok {
		return nil, fmt.Errorf("engine: build withdraw block: %w", ErrVerifyFail)
	}

	deltaFrom, _ := ledger.DeltaValue(tx)
	newCommit, err := asvc.UpdateCommit(e.vk, e.commit, deltaFrom, uint64(from), e.pk.UpdateKeys[from])
	if err != nil {
		return nil, fmt.Errorf("engine: build withdraw block: %w", err)
	}

	return &ledger.Block{
		Height:    e.height + 1,
		Commit:    e.commit,
		NewCommit: newCommit,
		Proof:     e.openProofs[from],
		Txs:       []*ledger.Tx{tx},
	}, nil
}

// l1TxLocked constructs the single transaction an L1-initiated block
// carries, snapshotting the slot's current committed state so the
// verifier's point_value computation matches what was actually opened.
func (e *Engine) l1TxLocked(typ ledger.TxType, from uint32, amount *ledger.Uint128) *ledger.Tx {
	rec := e.accounts[from]
	tx := &ledger.Tx{
		Type:    typ,
		From:    from,
		Amount:  amount,
		Proof:   e.openProofs[from],
		Nonce:   rec.Nonce,
		Balance: rec.Balance,
	}
	if rec.FPK != nil {
		tx.Addr = rec.FPK.Addr()
		tx.PubKey = rec.FPK.WirePK
	}
	if tx.Balance == nil {
		tx.Balance = ledger.NewUint128(0)
	}
	return tx
}
