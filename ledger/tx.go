// Package ledger defines the rollup's transaction and block types, the
// canonical byte encoding shared by the state engine and the on-chain
// verifier, and the packed-value arithmetic that ties account state to
// ASVC commitment positions.
package ledger

import (
	"crypto/sha3"
	"encoding/binary"
	"encoding/hex"
	"math/big"

	"github.com/cloverzk/asvc-rollup/curve"
	"golang.org/x/crypto/blake2b"
)

// TxType is the one-byte wire discriminator for a transaction kind.
type TxType byte

const (
	TxDeposit  TxType = 0
	TxWithdraw TxType = 1
	TxRegister TxType = 2
	TxTransfer TxType = 3
)

func (t TxType) String() string {
	switch t {
	case TxDeposit:
		return "deposit"
	case TxWithdraw:
		return "withdraw"
	case TxRegister:
		return "register"
	case TxTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

// Tx is a single rollup transaction. Which of From/To/Amount are
// meaningful depends on Type, per the table in §4.3 of the design.
// Sig carries the signature the admission path checks but, like the
// original implementation this protocol is modeled on, it is never
// part of the canonical bytes committed inside a block.
type Tx struct {
	Type TxType

	// From is the transaction's primary slot: the deposit target for
	// Deposit, the sender for Withdraw and Transfer, the registering
	// slot for Register. point_value/delta_value always key off From.
	From   uint32
	To     uint32 // Transfer only: recipient slot
	Amount *Uint128 // Deposit/Withdraw/Transfer only

	Proof   curve.G1    // opening of the sender's pre-state at From
	Addr    curve.Scalar // sender's packed address
	Nonce   uint32
	Balance *Uint128
	PubKey  []byte

	Sig []byte // not part of Encode/Decode; checked at admission only
}

// ID is the pending-pool dedup key: sha3-256 over (from ‖ addr ‖
// nonce), hex-encoded. Two submissions of byte-identical intent
// collide here by construction, which is what makes pool admission
// idempotent under resubmission.
func (tx *Tx) ID() string {
	buf := make([]byte, 0, 4+32+4)
	var fromBuf [4]byte
	binary.LittleEndian.PutUint32(fromBuf[:], tx.From)
	buf = append(buf, fromBuf[:]...)
	buf = append(buf, curve.ScalarBytes(tx.Addr)...)
	var nonceBuf [4]byte
	binary.LittleEndian.PutUint32(nonceBuf[:], tx.Nonce)
	buf = append(buf, nonceBuf[:]...)
	sum := sha3.Sum256(buf)
	return hex.EncodeToString(sum[:])
}

// FullPubKey is the full public key bound to a slot at registration:
// the slot index, the ASVC update key the slot owner proves ownership
// through, and an opaque wire public key used by the pluggable
// signer.
type FullPubKey struct {
	Slot    uint32
	UpkA    curve.G1
	UpkU    curve.G1
	WirePK  []byte
}

// Addr derives the domain-separated address committed at this slot's
// position: blake2b-256 over (slot ‖ a_i ‖ u_i ‖ wire_pk), reduced
// modulo the scalar field order. A SNARK-friendly hash (mimc, poseidon)
// would let this run cheaply inside a circuit, but no such
// implementation is available in the dependency set this module draws
// from, so a plain cryptographic hash stands in (see DESIGN.md).
func (fpk *FullPubKey) Addr() curve.Scalar {
	h := blake2b.Sum256(fpk.preimage())
	return curve.ScalarFromBigInt(new(big.Int).SetBytes(h[:]))
}

func (fpk *FullPubKey) preimage() []byte {
	buf := make([]byte, 0, 4+32+32+len(fpk.WirePK))
	var slotBuf [4]byte
	binary.LittleEndian.PutUint32(slotBuf[:], fpk.Slot)
	buf = append(buf, slotBuf[:]...)
	buf = append(buf, curve.G1Bytes(fpk.UpkA)...)
	buf = append(buf, curve.G1Bytes(fpk.UpkU)...)
	buf = append(buf, fpk.WirePK...)
	return buf
}
