package engine

import "errors"

// Error taxonomy per §7. NotRegistered/InsufficientBalance are
// surfaced to the client and never mutate state; BadNonce,
// VerifyFail and CommitMismatch are fatal for the block they occur
// in; L1Submit is transient and retried by the listener's next cycle.
var (
	ErrNotRegistered       = errors.New("engine: slot not registered")
	ErrInsufficientBalance = errors.New("engine: insufficient balance")
	ErrBadNonce            = errors.New("engine: bad nonce progression")
	ErrVerifyFail          = errors.New("engine: opening verification failed")
	ErrCommitMismatch      = errors.New("engine: replayed commitment does not match declared new_commit")
	ErrL1Submit            = errors.New("engine: l1 submission failed")
	ErrBadHeight           = errors.New("engine: block height is not current height + 1")
	ErrAlreadyPending      = errors.New("engine: transaction already pending")
	ErrWrongAdmissionPath  = errors.New("engine: transaction type is not admitted via the pool")
)
