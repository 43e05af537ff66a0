package ledger

import "errors"

var (
	// ErrParse is returned by DecodeTx/DecodeBlock on truncated or
	// malformed wire bytes.
	ErrParse = errors.New("ledger: parse error")

	// ErrBadLength is returned by Encode when required fields are
	// missing or a length field overflows its wire width.
	ErrBadLength = errors.New("ledger: bad length")
)
