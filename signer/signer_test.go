package signer

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func TestEd25519SignVerifyRoundTrip(t *testing.T) {
	var s Ed25519Signer
	pub, priv, err := s.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	msg := []byte("canonical tx bytes")
	sig, err := s.Sign(priv, msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := s.Verify(pub, msg, sig); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestEd25519VerifyRejectsTamperedMessage(t *testing.T) {
	var s Ed25519Signer
	pub, priv, err := s.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	sig, err := s.Sign(priv, []byte("original"))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := s.Verify(pub, []byte("tampered"), sig); err != ErrBadSig {
		t.Fatalf("got %v, want ErrBadSig", err)
	}
}

func TestEd25519VerifyRejectsWrongKey(t *testing.T) {
	var s Ed25519Signer
	_, priv, err := s.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	otherPub, _, err := s.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey(other): %v", err)
	}
	msg := []byte("canonical tx bytes")
	sig, err := s.Sign(priv, msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := s.Verify(otherPub, msg, sig); err != ErrBadSig {
		t.Fatalf("got %v, want ErrBadSig", err)
	}
}

func TestEd25519RejectsBadKeyLengths(t *testing.T) {
	var s Ed25519Signer
	if _, err := s.Sign(bytes.Repeat([]byte{0}, 4), []byte("msg")); err == nil {
		t.Fatalf("expected error for short private key")
	}
	if err := s.Verify(bytes.Repeat([]byte{0}, 4), []byte("msg"), []byte("sig")); err == nil {
		t.Fatalf("expected error for short public key")
	}
}
