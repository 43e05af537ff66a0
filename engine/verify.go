package engine

import (
	"fmt"

	"github.com/cloverzk/asvc-rollup/asvc"
	"github.com/cloverzk/asvc-rollup/curve"
	"github.com/cloverzk/asvc-rollup/ledger"
)

// slotScratch is the per-touched-slot accumulator the verification
// walk builds up as it reads a block's transactions in order.
type slotScratch struct {
	delta          curve.Scalar
	pointValue     curve.Scalar
	isPointSlot    bool // true once this slot has been some tx's primary From
	curNonce       uint32
	balance        *ledger.Uint128
	income         *ledger.Uint128
	outcome        *ledger.Uint128
}

// VerifyBlock recomputes the block-verification predicate: it is a
// pure function of (vk, upks, block), independent of any engine's
// live state, so the same code path is used for off-chain sanity
// checks (before submitting to L1) and for on-chain re-execution (C5,
// given upks unmarshalled from the cell the chain stores them in).
//
// On success it returns the block's total deposited and withdrawn
// amounts. On failure it returns one of ErrNotRegistered (slot out of
// range), ErrBadNonce, ErrVerifyFail, ErrCommitMismatch or
// ErrInsufficientBalance.
func VerifyBlock(vk *asvc.VerificationKey, upks []asvc.UpdateKey, block *ledger.Block) (income, outcome *ledger.Uint128, err error) {
	if vk == nil {
		return nil, nil, fmt.Errorf("engine: verify block: nil verification key")
	}
	if uint64(len(upks)) != vk.N {
		return nil, nil, fmt.Errorf("engine: verify block: %w: have %d update keys, want %d", ErrVerifyFail, len(upks), vk.N)
	}

	scratch := make(map[uint32]*slotScratch)
	var pointOrder []uint32

	totalIncome := ledger.NewUint128(0)
	totalOutcome := ledger.NewUint128(0)

	for _, tx := range block.Txs {
		if uint64(tx.From) >= vk.N {
			return nil, nil, fmt.Errorf("engine: verify block: %w: slot %d out of range", ErrNotRegistered, tx.From)
		}
		s, seen := scratch[tx.From]
		if !seen {
			s = &slotScratch{
				balance:  tx.Balance,
				curNonce: tx.Nonce,
				income:   ledger.NewUint128(0),
				outcome:  ledger.NewUint128(0),
			}
			scratch[tx.From] = s
		}
		if !s.isPointSlot {
			s.isPointSlot = true
			s.pointValue = ledger.PointValue(tx)
			pointOrder = append(pointOrder, tx.From)
		}

		deltaFrom, deltaTo := ledger.DeltaValue(tx)
		s.delta.Add(&s.delta, &deltaFrom)

		switch tx.Type {
		case ledger.TxDeposit:
			totalIncome, err = totalIncome.Add(tx.Amount)
			if err != nil {
				return nil, nil, fmt.Errorf("engine: verify block: %w: total income overflow", ErrVerifyFail)
			}
			s.income, err = s.income.Add(tx.Amount)
			if err != nil {
				return nil, nil, fmt.Errorf("engine: verify block: %w", ErrVerifyFail)
			}

		case ledger.TxWithdraw:
			totalOutcome, err = totalOutcome.Add(tx.Amount)
			if err != nil {
				return nil, nil, fmt.Errorf("engine: verify block: %w: total outcome overflow", ErrVerifyFail)
			}
			s.outcome, err = s.outcome.Add(tx.Amount)
			if err != nil {
				return nil, nil, fmt.Errorf("engine: verify block: %w", ErrVerifyFail)
			}
			if err := checkSufficiency(s); err != nil {
				return nil, nil, err
			}

		case ledger.TxTransfer:
			if seen {
				if tx.Nonce != s.curNonce+1 {
					return nil, nil, fmt.Errorf("engine: verify block: %w: slot %d", ErrBadNonce, tx.From)
				}
				s.curNonce = tx.Nonce
			}
			s.outcome, err = s.outcome.Add(tx.Amount)
			if err != nil {
				return nil, nil, fmt.Errorf("engine: verify block: %w", ErrVerifyFail)
			}
			if err := checkSufficiency(s); err != nil {
				return nil, nil, err
			}
			if uint64(tx.To) >= vk.N {
				return nil, nil, fmt.Errorf("engine: verify block: %w: slot %d out of range", ErrNotRegistered, tx.To)
			}
			to, ok := scratch[tx.To]
			if !ok {
				to = &slotScratch{income: ledger.NewUint128(0), outcome: ledger.NewUint128(0)}
				scratch[tx.To] = to
			}
			to.delta.Add(&to.delta, &deltaTo)

		case ledger.TxRegister:
			// delta already folded above via DeltaValue; point_value is
			// the zero slot-blank sentinel PointValue already set.
		}
	}

	newCommit := block.Commit
	for slot, s := range scratch {
		var err error
		newCommit, err = asvc.UpdateCommit(vk, newCommit, s.delta, uint64(slot), upks[slot])
		if err != nil {
			return nil, nil, fmt.Errorf("engine: verify block: replay update at %d: %w", slot, err)
		}
	}
	if !newCommit.Equal(&block.NewCommit) {
		return nil, nil, ErrCommitMismatch
	}

	points := make([]uint64, len(pointOrder))
	values := make([]curve.Scalar, len(pointOrder))
	for i, slot := range pointOrder {
		points[i] = uint64(slot)
		values[i] = scratch[slot].pointValue
	}
	ok, err := asvc.VerifyPos(vk, block.Commit, points, values, block.Proof)
	if err != nil || !ok {
		return nil, nil, ErrVerifyFail
	}

	return totalIncome, totalOutcome, nil
}

func checkSufficiency(s *slotScratch) error {
	headroom, err := s.balance.Add(s.income)
	if err != nil {
		return fmt.Errorf("engine: verify block: %w: balance+income overflow", ErrVerifyFail)
	}
	if headroom.Cmp(s.outcome) < 0 {
		return ErrInsufficientBalance
	}
	return nil
}
