package engine

import (
	"fmt"

	"github.com/cloverzk/asvc-rollup/ledger"
)

// TryInsert runs the admission policy for a Transfer or Register
// transaction (Deposit/Withdraw are never admitted through the pool;
// they are authored atomically with an L1 transaction, see
// BuildDepositBlock/BuildWithdrawBlock). On acceptance the speculative
// mirrors are mutated immediately so the next admission sees an
// up-to-date tmp_balance/tmp_nonce/tmp_next_slot.
func (e *Engine) TryInsert(tx *ledger.Tx) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if tx.Type != ledger.TxTransfer && tx.Type != ledger.TxRegister {
		return fmt.Errorf("engine: try insert: %w: type %s", ErrWrongAdmissionPath, tx.Type)
	}
	if e.pool.has(tx.ID()) {
		return ErrAlreadyPending
	}

	switch tx.Type {
	case ledger.TxTransfer:
		if err := e.admitTransferLocked(tx); err != nil {
			return err
		}
	case ledger.TxRegister:
		if err := e.admitRegisterLocked(tx); err != nil {
			return err
		}
	}

	e.pool.insert(tx)
	if e.db != nil {
		if err := e.db.AppendPending(tx); err != nil {
			return fmt.Errorf("engine: try insert: persist: %w", err)
		}
	}
	return nil
}

func (e *Engine) admitTransferLocked(tx *ledger.Tx) error {
	if uint64(tx.From) >= uint64(e.tmpNextSlot) || uint64(tx.To) >= uint64(e.tmpNextSlot) {
		return fmt.Errorf("engine: transfer: %w: from=%d to=%d next_slot=%d", ErrNotRegistered, tx.From, tx.To, e.tmpNextSlot)
	}
	if tx.Amount.Cmp(e.tmpBalance[tx.From]) > 0 {
		return fmt.Errorf("engine: transfer: %w: slot %d", ErrInsufficientBalance, tx.From)
	}

	newFrom, err := e.tmpBalance[tx.From].Sub(tx.Amount)
	if err != nil {
		return fmt.Errorf("engine: transfer: %w", ErrInsufficientBalance)
	}
	newTo, err := e.tmpBalance[tx.To].Add(tx.Amount)
	if err != nil {
		return fmt.Errorf("engine: transfer: recipient balance overflow: %w", err)
	}
	e.tmpBalance[tx.From] = newFrom
	e.tmpBalance[tx.To] = newTo
	e.tmpNonce[tx.From]++
	return nil
}

func (e *Engine) admitRegisterLocked(tx *ledger.Tx) error {
	if tx.From != e.tmpNextSlot {
		return fmt.Errorf("engine: register: %w: slot %d, expected %d", ErrNotRegistered, tx.From, e.tmpNextSlot)
	}
	e.tmpNextSlot++
	e.tmpNonce[tx.From] = 1
	return nil
}
