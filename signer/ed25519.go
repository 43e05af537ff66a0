package signer

import (
	"crypto/ed25519"
	"fmt"
	"io"
)

// Ed25519Signer is the default Signer: a deterministic signature over
// canonical transaction bytes, failing ErrBadSig on mismatch. This
// wraps the standard library's crypto/ed25519 rather than a
// third-party package, since no ed25519 implementation distinct from
// the standard library appears in this module's dependency set (see
// DESIGN.md).
type Ed25519Signer struct{}

func (Ed25519Signer) GenerateKey(rand io.Reader) (pub, priv []byte, err error) {
	pubKey, privKey, err := ed25519.GenerateKey(rand)
	if err != nil {
		return nil, nil, fmt.Errorf("signer: generate key: %w", err)
	}
	return []byte(pubKey), []byte(privKey), nil
}

func (Ed25519Signer) Sign(priv []byte, msg []byte) ([]byte, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("signer: sign: bad private key length %d", len(priv))
	}
	return ed25519.Sign(ed25519.PrivateKey(priv), msg), nil
}

func (Ed25519Signer) Verify(pub []byte, msg []byte, sig []byte) error {
	if len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("signer: verify: bad public key length %d", len(pub))
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), msg, sig) {
		return ErrBadSig
	}
	return nil
}
