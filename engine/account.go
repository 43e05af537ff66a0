// Package engine implements the off-chain rollup state machine: the
// committed account table, the pending-transaction pool, the
// speculative mirrors admission reasons against, the block builder,
// and block application (including per-slot opening-proof refresh).
package engine

import (
	"github.com/cloverzk/asvc-rollup/curve"
	"github.com/cloverzk/asvc-rollup/ledger"
)

// AccountRecord is one committed slot. FPK is nil until the slot is
// registered; Nonce is zero for an unregistered slot, and Balance is
// zero unless a deposit reached the slot before its registration.
type AccountRecord struct {
	Balance *ledger.Uint128
	Nonce   uint32
	FPK     *ledger.FullPubKey
}

func zeroAccount() AccountRecord {
	return AccountRecord{Balance: ledger.NewUint128(0)}
}

// value returns the field element committed at this account's
// position: ledger.PackValue(addr, nonce, balance), using the
// all-zero address for an unregistered slot (Nonce is always 0 until
// registration). An unregistered slot can still hold a nonzero
// Balance (a deposit to a not-yet-registered slot, §4.4.3), and that
// balance is part of the committed value even before an FPK is bound
// — value() must track it so the slot's opening proof keeps opening
// the live commitment after such a deposit.
func (a AccountRecord) value() curve.Scalar {
	if a.FPK == nil {
		var zeroAddr curve.Scalar
		return ledger.PackValue(zeroAddr, a.Nonce, a.Balance)
	}
	return ledger.PackValue(a.FPK.Addr(), a.Nonce, a.Balance)
}
