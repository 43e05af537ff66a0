package verifier

import (
	"errors"
	"fmt"

	"github.com/cloverzk/asvc-rollup/engine"
	"github.com/cloverzk/asvc-rollup/ledger"
)

// Errors raised by VerifyOnChain in addition to the ones it forwards
// from engine.VerifyBlock (ErrNotRegistered, ErrBadNonce,
// ErrInsufficientBalance, ErrVerifyFail, ErrCommitMismatch).
var (
	ErrOpMismatch       = errors.New("verifier: op code does not match the block's transaction shape")
	ErrDiscontinuity    = errors.New("verifier: post-block does not chain from the declared pre-block")
	ErrDeltaMismatch    = errors.New("verifier: declared income/outcome does not match the recomputed predicate")
	ErrUDTDeltaMismatch = errors.New("verifier: income - outcome does not match the UDT pool's on-chain delta")
	ErrLockHashMismatch = errors.New("verifier: commit/upk/udt-pool cell lock hashes are not equal")
)

// LockHashes are the three cells' lock-script hashes a single rollup
// instance shares (§6: "three cells per rollup instance; all share one
// lock hash"). Hash derivation is chain-specific and happens outside
// this package; VerifyOnChain only enforces the equality §4.5 requires.
type LockHashes struct {
	Commit  [32]byte
	Upk     [32]byte
	UDTPool [32]byte
}

// Equal reports whether all three hashes agree.
func (h LockHashes) Equal() bool {
	return h.Commit == h.Upk && h.Upk == h.UDTPool
}

// VerifyOnChain is the on-chain re-execution predicate (C5). It is
// given the commit cell's content before this update (empty only for
// the Init op, which has no predecessor) and after, the upk cell's
// content, the op code the L1 transaction claims, the (income,
// outcome) the submitter declares, the UDT pool cell's signed balance
// delta, and the three cells' lock-script hashes. It recomputes §4.4.5
// via engine.VerifyBlock and returns nil only if every check passes.
func VerifyOnChain(
	op OpCode,
	prevBlockBytes, blockBytes, cellUpksBytes []byte,
	declaredIncome, declaredOutcome *ledger.Uint128,
	udtDelta int64,
	hashes LockHashes,
) error {
	if !hashes.Equal() {
		return ErrLockHashMismatch
	}

	block, err := ledger.DecodeBlock(blockBytes)
	if err != nil {
		return fmt.Errorf("verifier: decode block: %w", err)
	}
	if err := checkOpShape(op, block); err != nil {
		return err
	}
	if err := checkContinuity(op, prevBlockBytes, block); err != nil {
		return err
	}

	vk, _, upks, err := DecodeCellUpks(cellUpksBytes)
	if err != nil {
		return fmt.Errorf("verifier: decode cell upks: %w", err)
	}

	income, outcome, err := engine.VerifyBlock(vk, upks, block)
	if err != nil {
		return err
	}
	if income.Cmp(declaredIncome) != 0 || outcome.Cmp(declaredOutcome) != 0 {
		return ErrDeltaMismatch
	}
	if err := checkUDTDelta(income, outcome, udtDelta); err != nil {
		return err
	}
	return nil
}

// checkContinuity verifies the chain of custody between the previous
// commit-cell content and the one under verification: heights are
// consecutive and the previous post-state commitment is this block's
// declared pre-state commitment. The Init op has no predecessor.
func checkContinuity(op OpCode, prevBlockBytes []byte, block *ledger.Block) error {
	if op == OpInit {
		if len(prevBlockBytes) != 0 {
			return fmt.Errorf("%w: init op must have no predecessor", ErrDiscontinuity)
		}
		return nil
	}
	prev, err := ledger.DecodeBlock(prevBlockBytes)
	if err != nil {
		return fmt.Errorf("verifier: decode prev block: %w", err)
	}
	if prev.Height+1 != block.Height {
		return fmt.Errorf("%w: height %d does not follow %d", ErrDiscontinuity, block.Height, prev.Height)
	}
	if !prev.NewCommit.Equal(&block.Commit) {
		return fmt.Errorf("%w: pre-state commitment does not match predecessor's post-state", ErrDiscontinuity)
	}
	return nil
}

// checkOpShape enforces that a block's transaction list matches what
// its op code claims it is: a Deposit/Withdraw cell update carries
// exactly the one L1-initiated transaction it was built for (§4.4.3),
// while a PostBlock update carries only pool-admitted Transfer/Register
// transactions (§4.4.2) and never an L1-initiated one.
func checkOpShape(op OpCode, block *ledger.Block) error {
	switch op {
	case OpInit:
		if len(block.Txs) != 0 {
			return fmt.Errorf("%w: init block must carry no transactions", ErrOpMismatch)
		}
	case OpDeposit:
		if len(block.Txs) != 1 || block.Txs[0].Type != ledger.TxDeposit {
			return fmt.Errorf("%w: deposit cell must carry exactly one deposit transaction", ErrOpMismatch)
		}
	case OpWithdraw:
		if len(block.Txs) != 1 || block.Txs[0].Type != ledger.TxWithdraw {
			return fmt.Errorf("%w: withdraw cell must carry exactly one withdraw transaction", ErrOpMismatch)
		}
	case OpPostBlock:
		for _, tx := range block.Txs {
			if tx.Type != ledger.TxTransfer && tx.Type != ledger.TxRegister {
				return fmt.Errorf("%w: miner block may only carry transfer/register transactions", ErrOpMismatch)
			}
		}
	default:
		return fmt.Errorf("%w: unknown op code %d", ErrOpMismatch, op)
	}
	return nil
}

// checkUDTDelta requires income-outcome, as a signed quantity, to
// equal udtDelta exactly (§4.5).
func checkUDTDelta(income, outcome *ledger.Uint128, udtDelta int64) error {
	if udtDelta >= 0 {
		net, err := income.Sub(outcome)
		if err != nil {
			return fmt.Errorf("%w: predicate's net movement is negative, on-chain delta is not", ErrUDTDeltaMismatch)
		}
		if net.Cmp(ledger.NewUint128(uint64(udtDelta))) != 0 {
			return ErrUDTDeltaMismatch
		}
		return nil
	}
	net, err := outcome.Sub(income)
	if err != nil {
		return fmt.Errorf("%w: predicate's net movement is positive, on-chain delta is not", ErrUDTDeltaMismatch)
	}
	if net.Cmp(ledger.NewUint128(uint64(-udtDelta))) != 0 {
		return ErrUDTDeltaMismatch
	}
	return nil
}
