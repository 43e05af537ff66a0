package asvc

import (
	"fmt"
	"io"

	"github.com/cloverzk/asvc-rollup/curve"
)

// UpdateKey is the per-slot update key (a_i, u_i) that lets the owner
// of slot i update the commitment and every other opening proof in
// O(1) whenever slot i's value changes, without learning the trusted
// setup's toxic waste.
type UpdateKey struct {
	A curve.G1 // a_i = g1^{A(τ)/(τ-ω^i)}
	U curve.G1 // u_i = g1^{(l_i(τ)-1)/(τ-ω^i)}
}

// ProvingKey holds everything a slot owner or the block builder needs
// to compute commitments and opening proofs. PowersOfG1/PowersOfG2 run
// from τ^0 to τ^N inclusive; LiOfG1[i] is the KZG commitment to the
// i-th Lagrange basis polynomial over the domain, used directly by
// Commit's multi-scalar multiplication.
type ProvingKey struct {
	N          uint64
	Domain     *curve.Domain
	PowersOfG1 []curve.G1
	PowersOfG2 []curve.G2
	LiOfG1     []curve.G1
	UpdateKeys []UpdateKey
}

// VerificationKey holds the constant-size data needed to check
// openings and update keys.
type VerificationKey struct {
	N          uint64
	G1         curve.G1
	G2         curve.G2
	G2Tau      curve.G2   // g2^τ
	A          curve.G1   // g1^{τ^N - 1}, the commitment to the vanishing polynomial A(x) = x^N - 1
	PowersOfG1 []curve.G1 // public SRS powers, needed to commit to the r(x) remainder during VerifyPos
	PowersOfG2 []curve.G2 // public SRS powers, needed to commit to A_I(x) in G2 during VerifyPos
}

// KeyGen runs the ASVC trusted setup for a domain of size n (the
// account-table capacity) given a stream of randomness for the toxic
// waste τ. tauSeed is consumed once to derive τ and is never retained
// past this call. In production this is a multi-party ceremony; here
// it is a single-party simulation suitable for devnets and tests, not
// for anything securing real value.
func KeyGen(n uint64, tauSeed io.Reader) (*ProvingKey, *VerificationKey, error) {
	if n == 0 || n&(n-1) != 0 {
		return nil, nil, fmt.Errorf("%w: n=%d must be a positive power of two", ErrDomainTooLarge, n)
	}
	if n > curve.MaxDomainSize {
		return nil, nil, fmt.Errorf("%w: n=%d", ErrDomainTooLarge, n)
	}
	domain, err := curve.NewDomain(n)
	if err != nil {
		return nil, nil, fmt.Errorf("asvc: key gen: %w", err)
	}

	tau, err := randomScalar(tauSeed)
	if err != nil {
		return nil, nil, fmt.Errorf("asvc: key gen: sample tau: %w", err)
	}

	g1 := curve.G1Generator()
	g2 := curve.G2Generator()

	powersOfG1 := make([]curve.G1, n+1)
	powersOfG2 := make([]curve.G2, n+1)
	tauPow := curve.ScalarFromUint64(1)
	for k := uint64(0); k <= n; k++ {
		powersOfG1[k] = scalarMulG1(g1, tauPow)
		powersOfG2[k] = scalarMulG2(g2, tauPow)
		tauPow.Mul(&tauPow, &tau)
	}

	// a = g1^{τ^N - 1}
	tauN := powerScalar(tau, n)
	fieldOne := one()
	var tauNMinus1 curve.Scalar
	tauNMinus1.Sub(&tauN, &fieldOne)
	aCommit := scalarMulG1(g1, tauNMinus1)

	liOfG1 := make([]curve.G1, n)
	updateKeys := make([]UpdateKey, n)
	nInv := invertUint64(n)
	for i := uint64(0); i < n; i++ {
		omegaI := domain.Nth(i)
		var diff curve.Scalar
		diff.Sub(&tau, &omegaI)
		diffInv := mustInverse(diff)

		// a_i = g1^{(τ^N-1)/(τ-ω^i)}
		var aiScalar curve.Scalar
		aiScalar.Mul(&tauNMinus1, &diffInv)
		ai := scalarMulG1(g1, aiScalar)

		// l_i = g1^{(τ^N-1)·ω^i / (N·(τ-ω^i))}, the Lagrange basis
		// commitment: l_i(τ) = a_i(τ)·ω^i/N.
		var liScalar curve.Scalar
		liScalar.Mul(&aiScalar, &omegaI)
		liScalar.Mul(&liScalar, &nInv)
		li := scalarMulG1(g1, liScalar)

		// u_i = g1^{(l_i(τ)-1)/(τ-ω^i)}
		var liMinus1 curve.Scalar
		liMinus1.Sub(&liScalar, &fieldOne)
		var uiScalar curve.Scalar
		uiScalar.Mul(&liMinus1, &diffInv)
		ui := scalarMulG1(g1, uiScalar)

		liOfG1[i] = li
		updateKeys[i] = UpdateKey{A: ai, U: ui}
	}

	pk := &ProvingKey{
		N:          n,
		Domain:     domain,
		PowersOfG1: powersOfG1,
		PowersOfG2: powersOfG2,
		LiOfG1:     liOfG1,
		UpdateKeys: updateKeys,
	}
	vk := &VerificationKey{
		N:          n,
		G1:         g1,
		G2:         g2,
		G2Tau:      powersOfG2[1],
		A:          aCommit,
		PowersOfG1: powersOfG1,
		PowersOfG2: powersOfG2,
	}
	return pk, vk, nil
}
