package ledger

import (
	"math/big"

	"github.com/cloverzk/asvc-rollup/curve"
)

var (
	pow160 = curve.ScalarFromBigInt(new(big.Int).Lsh(big.NewInt(1), 160))
	pow128 = curve.ScalarFromBigInt(new(big.Int).Lsh(big.NewInt(1), 128))
)

// PackValue computes addr·2^160 + nonce·2^128 + balance in the scalar
// field: the value committed at a slot's position, for any (addr,
// nonce, balance) triple, not just the ones carried in a Tx.
func PackValue(addr curve.Scalar, nonce uint32, balance *Uint128) curve.Scalar {
	var out curve.Scalar
	out.Mul(&addr, &pow160)

	nonceTerm := curve.ScalarFromUint64(uint64(nonce))
	nonceTerm.Mul(&nonceTerm, &pow128)
	out.Add(&out, &nonceTerm)

	balTerm := balance.Scalar()
	out.Add(&out, &balTerm)
	return out
}

// PointValue computes the value the sender slot's opening proof must
// witness, per the table in §4.3: Deposit/Withdraw use the current
// nonce, Transfer uses nonce-1 because the nonce is bumped before
// signing, and Register always proves a blank slot.
func PointValue(tx *Tx) curve.Scalar {
	switch tx.Type {
	case TxDeposit, TxWithdraw:
		return PackValue(tx.Addr, tx.Nonce, tx.Balance)
	case TxTransfer:
		return PackValue(tx.Addr, tx.Nonce-1, tx.Balance)
	case TxRegister:
		var zero curve.Scalar
		return zero
	default:
		var zero curve.Scalar
		return zero
	}
}

// DeltaValue computes (Δ_from, Δ_to), the additive updates the
// commitment must apply at the sender's and (if applicable)
// recipient's positions. Register's delta includes both the addr term
// and the 2^128 nonce term, since registering moves the slot's
// committed nonce from 0 to 1 as well as setting its address.
func DeltaValue(tx *Tx) (deltaFrom, deltaTo curve.Scalar) {
	switch tx.Type {
	case TxDeposit:
		return tx.Amount.Scalar(), curve.Scalar{}
	case TxWithdraw:
		amt := tx.Amount.Scalar()
		var neg curve.Scalar
		neg.Neg(&amt)
		return neg, curve.Scalar{}
	case TxTransfer:
		amt := tx.Amount.Scalar()
		var from curve.Scalar
		from.Sub(&pow128, &amt)
		return from, amt
	case TxRegister:
		var from curve.Scalar
		from.Mul(&tx.Addr, &pow160)
		from.Add(&from, &pow128)
		return from, curve.Scalar{}
	default:
		return curve.Scalar{}, curve.Scalar{}
	}
}
