package engine

import "github.com/cloverzk/asvc-rollup/ledger"

// Resync recomputes the speculative mirrors from committed state plus
// the current pool, in pool insertion order. This is the "implementer's
// choice" rollback path for §4.4.6: after an L1 submission failure (or
// a restart that reloads committed state and a persisted pool), tmp_*
// is rebuilt from scratch rather than patched incrementally, which
// trivially satisfies the required post-condition tmp_* ≡ committed
// state + surviving pool.
func (e *Engine) Resync() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resyncLocked()
}

func (e *Engine) resyncLocked() {
	n := int(e.vk.N)
	balances := make([]*ledger.Uint128, n)
	nonces := make([]uint32, n)
	for i, rec := range e.accounts {
		balances[i] = rec.Balance
		nonces[i] = rec.Nonce
	}
	e.tmpBalance = balances
	e.tmpNonce = nonces
	e.tmpNextSlot = e.nextSlot

	pending := e.pool.drain()
	for _, tx := range pending {
		switch tx.Type {
		case ledger.TxTransfer:
			if newFrom, err := e.tmpBalance[tx.From].Sub(tx.Amount); err == nil {
				e.tmpBalance[tx.From] = newFrom
				if newTo, err := e.tmpBalance[tx.To].Add(tx.Amount); err == nil {
					e.tmpBalance[tx.To] = newTo
					e.tmpNonce[tx.From]++
					e.pool.insert(tx)
					continue
				}
			}
			// no longer admissible against replayed state; drop it.
		case ledger.TxRegister:
			if tx.From == e.tmpNextSlot {
				e.tmpNextSlot++
				e.tmpNonce[tx.From] = 1
				e.pool.insert(tx)
			}
		}
	}
}
