package engine

import "github.com/cloverzk/asvc-rollup/ledger"

// pendingPool is an insertion-ordered map of pending transactions,
// keyed by ledger.Tx.ID. Insertion order is authoritative: a miner
// block drains the pool into a list in exactly this order (§4.4.2).
type pendingPool struct {
	order []string
	byID  map[string]*ledger.Tx
}

func newPendingPool() *pendingPool {
	return &pendingPool{byID: make(map[string]*ledger.Tx)}
}

// has reports whether id is already pending, the basis for admission
// idempotency under resubmission (S4).
func (p *pendingPool) has(id string) bool {
	_, ok := p.byID[id]
	return ok
}

func (p *pendingPool) insert(tx *ledger.Tx) {
	id := tx.ID()
	if p.has(id) {
		return
	}
	p.byID[id] = tx
	p.order = append(p.order, id)
}

// drain removes and returns every pending transaction in insertion
// order, leaving the pool empty.
func (p *pendingPool) drain() []*ledger.Tx {
	out := make([]*ledger.Tx, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.byID[id])
	}
	p.order = nil
	p.byID = make(map[string]*ledger.Tx)
	return out
}

// len reports the number of pending transactions.
func (p *pendingPool) len() int { return len(p.order) }

// drainID removes a single pending transaction by id if present,
// a no-op otherwise. Used after applying an anchored block so that a
// transaction observed via L1 before it was locally drained (e.g. a
// register/transfer that also reached the pool through some other
// path) does not linger.
func (p *pendingPool) drainID(id string) {
	if !p.has(id) {
		return
	}
	delete(p.byID, id)
	for i, oid := range p.order {
		if oid == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// restore reinserts txs at the front of the pool, used when a block
// build fails and the drained batch must go back (§4.4.6).
func (p *pendingPool) restore(txs []*ledger.Tx) {
	prevOrder := p.order
	prevByID := p.byID
	p.order = nil
	p.byID = make(map[string]*ledger.Tx)
	for _, tx := range txs {
		p.insert(tx)
	}
	for _, id := range prevOrder {
		if tx, ok := prevByID[id]; ok {
			p.insert(tx)
		}
	}
}
