package asvc

import (
	"fmt"

	"github.com/cloverzk/asvc-rollup/curve"
)

// UpdateCommit folds a delta applied to slot j into the commitment,
// in O(1), using only j's update key — no knowledge of the other N-1
// values is required.
func UpdateCommit(vk *VerificationKey, commit Commitment, delta curve.Scalar, j uint64, upkJ UpdateKey) (Commitment, error) {
	if vk == nil {
		return Commitment{}, fmt.Errorf("asvc: update_commit: %w: nil verification key", ErrBadLength)
	}
	if j >= vk.N {
		return Commitment{}, fmt.Errorf("asvc: update_commit: %w: point %d", ErrNotRegistered, j)
	}
	lj := lagrangeCommitAt(vk, j, upkJ.A)
	term := curve.ScalarMulG1(lj, delta)
	var out curve.G1
	out.Add(&commit, &term)
	return out, nil
}

// UpdateProof folds a delta applied to slot j into the opening proof
// held for slot i, in O(1). When i == j the proof owner is also the
// slot being updated and the update uses u_i directly; otherwise it
// combines the two slots' update keys.
func UpdateProof(vk *VerificationKey, proof Proof, delta curve.Scalar, i, j uint64, upkI, upkJ UpdateKey) (Proof, error) {
	if vk == nil {
		return Proof{}, fmt.Errorf("asvc: update_proof: %w: nil verification key", ErrBadLength)
	}
	if i >= vk.N || j >= vk.N {
		return Proof{}, fmt.Errorf("asvc: update_proof: %w: i=%d j=%d", ErrNotRegistered, i, j)
	}
	if i == j {
		term := curve.ScalarMulG1(upkI.U, delta)
		var out curve.G1
		out.Add(&proof, &term)
		return out, nil
	}
	domain, err := curve.NewDomain(vk.N)
	if err != nil {
		return Proof{}, fmt.Errorf("asvc: update_proof: %w", err)
	}
	omegaI := domain.Nth(i)
	omegaJ := domain.Nth(j)
	var diffJI curve.Scalar
	diffJI.Sub(&omegaJ, &omegaI)
	c1 := mustInverse(diffJI)
	var diffIJ curve.Scalar
	diffIJ.Neg(&diffJI)
	c2 := mustInverse(diffIJ)

	term1 := curve.ScalarMulG1(upkJ.A, c1)
	term2 := curve.ScalarMulG1(upkI.A, c2)
	var wij curve.G1
	wij.Add(&term1, &term2)

	nInv := invertUint64(vk.N)
	var uijScalar curve.Scalar
	uijScalar.Mul(&omegaJ, &nInv)
	uij := curve.ScalarMulG1(wij, uijScalar)

	term := curve.ScalarMulG1(uij, delta)
	var out curve.G1
	out.Add(&proof, &term)
	return out, nil
}

// AggregateProofs combines individually-valid opening proofs for a
// disjoint set of positions into a single constant-size proof that
// verifies all of them at once via VerifyPos.
func AggregateProofs(vk *VerificationKey, points []uint64, proofs []Proof) (Proof, error) {
	if vk == nil {
		return Proof{}, fmt.Errorf("asvc: aggregate_proofs: %w: nil verification key", ErrBadLength)
	}
	if len(points) == 0 || len(points) != len(proofs) {
		return Proof{}, fmt.Errorf("asvc: aggregate_proofs: %w: points/proofs length mismatch", ErrBadLength)
	}
	domain, err := curve.NewDomain(vk.N)
	if err != nil {
		return Proof{}, fmt.Errorf("asvc: aggregate_proofs: %w", err)
	}
	roots, err := rootsForPoints(domain, vk.N, points)
	if err != nil {
		return Proof{}, err
	}

	var acc curve.G1
	for k := range points {
		aAside := derivativeAtRoot(roots, k)
		weight := mustInverse(aAside)
		term := curve.ScalarMulG1(proofs[k], weight)
		acc.Add(&acc, &term)
	}
	return acc, nil
}

// lagrangeCommitAt recomputes l_j(τ)'s G1 commitment from a_j without
// needing the proving key's precomputed LiOfG1 table, so UpdateCommit
// only needs the slot's own update key.
func lagrangeCommitAt(vk *VerificationKey, j uint64, aj curve.G1) curve.G1 {
	domain, err := curve.NewDomain(vk.N)
	if err != nil {
		// vk.N was already validated by the caller via the bounds check
		// above; NewDomain can only fail here on an internal inconsistency.
		panic(fmt.Sprintf("asvc: inconsistent verification key: %v", err))
	}
	omegaJ := domain.Nth(j)
	nInv := invertUint64(vk.N)
	var scalar curve.Scalar
	scalar.Mul(&omegaJ, &nInv)
	return curve.ScalarMulG1(aj, scalar)
}
