// Package signer provides the pluggable signature scheme the admission
// path checks before a transaction reaches the pool. Signature
// verification sits outside the canonical transaction bytes (§4.3):
// ledger.Tx.Sig is never part of Encode's output, so any scheme can be
// swapped in behind this interface without touching wire formats.
package signer

import (
	"errors"
	"io"
)

// ErrBadSig is returned by Verify on a signature mismatch.
var ErrBadSig = errors.New("signer: signature verification failed")

// Signer signs and verifies over caller-supplied message bytes — in
// this module, always ledger.Tx.Encode()'s canonical output.
type Signer interface {
	GenerateKey(rand io.Reader) (pub, priv []byte, err error)
	Sign(priv []byte, msg []byte) ([]byte, error)
	Verify(pub []byte, msg []byte, sig []byte) error
}
