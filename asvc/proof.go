package asvc

import (
	"fmt"

	"github.com/cloverzk/asvc-rollup/curve"
)

// Proof is a constant-size KZG opening proof, valid for any non-empty
// subset of positions it was built for.
type Proof = curve.G1

// ProvePos builds an opening proof for the positions in points against
// the full account vector `values`. points must be a set of distinct
// indices in [0, N).
func ProvePos(pk *ProvingKey, values []curve.Scalar, points []uint64) (Proof, error) {
	if pk == nil {
		return Proof{}, fmt.Errorf("asvc: prove_pos: %w: nil proving key", ErrBadLength)
	}
	if uint64(len(values)) != pk.N {
		return Proof{}, fmt.Errorf("asvc: prove_pos: %w: have %d values, want %d", ErrBadLength, len(values), pk.N)
	}
	if len(points) == 0 {
		return Proof{}, fmt.Errorf("asvc: prove_pos: %w: empty point set", ErrBadLength)
	}
	roots, err := rootsForPoints(pk.Domain, pk.N, points)
	if err != nil {
		return Proof{}, err
	}

	phi := make(poly, len(values))
	copy(phi, values)
	pk.Domain.FFTInverse(phi)

	aI := polyFromRoots(roots)
	q, _ := polyDivide(phi, aI)
	if uint64(len(q)) > pk.N {
		return Proof{}, fmt.Errorf("asvc: prove_pos: %w: quotient degree exceeds setup", ErrBadLength)
	}
	return curve.MSM(pk.PowersOfG1[:len(q)], q)
}

// VerifyPos checks that commit is a commitment to a vector whose
// values at the given points match pointValues, using proof as the
// opening witness. points and pointValues must have the same length
// and pointValues[k] corresponds to points[k].
func VerifyPos(vk *VerificationKey, commit Commitment, points []uint64, pointValues []curve.Scalar, proof Proof) (bool, error) {
	if vk == nil {
		return false, fmt.Errorf("asvc: verify_pos: %w: nil verification key", ErrBadLength)
	}
	if len(points) == 0 || len(points) != len(pointValues) {
		return false, fmt.Errorf("asvc: verify_pos: %w: points/values length mismatch", ErrBadLength)
	}
	domain, err := curve.NewDomain(vk.N)
	if err != nil {
		return false, fmt.Errorf("asvc: verify_pos: %w", err)
	}
	roots, err := rootsForPoints(domain, vk.N, points)
	if err != nil {
		return false, err
	}
	aI := polyFromRoots(roots)

	// r(x) = Σ_k (A_I(x)/(x-ω_k)) · v_k / A_I'(ω_k)
	r := make(poly, len(aI)-1)
	for k, root := range roots {
		quotient := polyDivExactLinear(aI, root)
		denom := derivativeAtRoot(roots, k)
		denomInv := mustInverse(denom)
		var coeff curve.Scalar
		coeff.Mul(&pointValues[k], &denomInv)
		for j, qc := range quotient {
			var term curve.Scalar
			term.Mul(&qc, &coeff)
			r[j].Add(&r[j], &term)
		}
	}
	var rCommit curve.G1
	if len(r) > 0 {
		rCommit, err = curve.MSM(vk.PowersOfG1[:len(r)], r)
		if err != nil {
			return false, fmt.Errorf("asvc: verify_pos: %w", err)
		}
	}
	var left curve.G1
	left.Sub(&commit, &rCommit)

	if uint64(len(aI)) > vk.N+1 {
		return false, fmt.Errorf("asvc: verify_pos: %w: point set too large", ErrBadLength)
	}
	aICommitG2, err := curve.MSMG2(vk.PowersOfG2[:len(aI)], aI)
	if err != nil {
		return false, fmt.Errorf("asvc: verify_pos: %w", err)
	}

	ok, err := curve.PairingEqual(left, vk.G2, proof, aICommitG2)
	if err != nil {
		return false, fmt.Errorf("asvc: verify_pos: %w", err)
	}
	if !ok {
		return false, ErrVerifyFail
	}
	return true, nil
}

// VerifyUpk checks that upk is the genuine update key for position i
// under vk, without requiring access to the proving key.
func VerifyUpk(vk *VerificationKey, point uint64, upk UpdateKey) (bool, error) {
	if vk == nil {
		return false, fmt.Errorf("asvc: verify_upk: %w: nil verification key", ErrBadLength)
	}
	if point >= vk.N {
		return false, fmt.Errorf("asvc: verify_upk: %w: point %d", ErrNotRegistered, point)
	}
	domain, err := curve.NewDomain(vk.N)
	if err != nil {
		return false, fmt.Errorf("asvc: verify_upk: %w", err)
	}
	omegaI := domain.Nth(point)
	g2OmegaI := curve.ScalarMulG2(vk.G2, omegaI)
	var g2Diff curve.G2
	g2Diff.Sub(&vk.G2Tau, &g2OmegaI)

	ok, err := curve.PairingEqual(upk.A, g2Diff, vk.A, vk.G2)
	if err != nil {
		return false, fmt.Errorf("asvc: verify_upk: %w", err)
	}
	if !ok {
		return false, ErrVerifyFail
	}

	nInv := invertUint64(vk.N)
	var liScalar curve.Scalar
	liScalar.Mul(&omegaI, &nInv)
	li := curve.ScalarMulG1(upk.A, liScalar)
	var liMinusG1 curve.G1
	liMinusG1.Sub(&li, &vk.G1)

	ok, err = curve.PairingEqual(liMinusG1, vk.G2, upk.U, g2Diff)
	if err != nil {
		return false, fmt.Errorf("asvc: verify_upk: %w", err)
	}
	if !ok {
		return false, ErrVerifyFail
	}
	return true, nil
}

func rootsForPoints(domain *curve.Domain, n uint64, points []uint64) ([]curve.Scalar, error) {
	seen := make(map[uint64]struct{}, len(points))
	roots := make([]curve.Scalar, len(points))
	for k, p := range points {
		if p >= n {
			return nil, fmt.Errorf("asvc: %w: point %d", ErrNotRegistered, p)
		}
		if _, dup := seen[p]; dup {
			return nil, fmt.Errorf("asvc: %w: duplicate point %d", ErrBadLength, p)
		}
		seen[p] = struct{}{}
		roots[k] = domain.Nth(p)
	}
	return roots, nil
}

// derivativeAtRoot computes A_I'(roots[k]) = ∏_{j≠k} (roots[k]-roots[j]),
// the derivative of ∏(x-roots[i]) evaluated at its own k-th root.
func derivativeAtRoot(roots []curve.Scalar, k int) curve.Scalar {
	acc := curve.ScalarFromUint64(1)
	for j, rj := range roots {
		if j == k {
			continue
		}
		var diff curve.Scalar
		diff.Sub(&roots[k], &rj)
		acc.Mul(&acc, &diff)
	}
	return acc
}
