package asvc

import "errors"

// Error taxonomy for the ASVC primitive. Every public entry point
// returns one of these (optionally wrapped with fmt.Errorf's %w) so
// callers can branch with errors.Is.
var (
	// ErrDomainTooLarge is returned when a requested account-table size
	// is zero, not a power of two, or exceeds what the evaluation domain
	// can index.
	ErrDomainTooLarge = errors.New("asvc: domain too large")

	// ErrBadLength is returned when a values/points/proofs slice has a
	// length inconsistent with the domain size or with a parallel slice.
	ErrBadLength = errors.New("asvc: bad slice length")

	// ErrNotRegistered is returned when a position index falls outside
	// [0, N).
	ErrNotRegistered = errors.New("asvc: position not in domain")

	// ErrVerifyFail is returned by VerifyPos/VerifyUpk when the
	// pairing check fails.
	ErrVerifyFail = errors.New("asvc: verification failed")
)
