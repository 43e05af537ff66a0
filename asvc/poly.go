package asvc

import "github.com/cloverzk/asvc-rollup/curve"

// poly represents a polynomial in coefficient form, poly[k] being the
// coefficient of x^k. All arithmetic here is plain schoolbook-style;
// the domain sizes this package deals with (tens of thousands of
// account slots at most) never justify pulling in an FFT-based
// multiplication path for these helpers.
type poly []curve.Scalar

// polyFromRoots builds ∏_{r in roots} (x - r).
func polyFromRoots(roots []curve.Scalar) poly {
	out := poly{curve.ScalarFromUint64(1)}
	for _, r := range roots {
		out = polyMulLinear(out, r)
	}
	return out
}

// polyMulLinear multiplies p by the monic linear factor (x - root).
func polyMulLinear(p poly, root curve.Scalar) poly {
	out := make(poly, len(p)+1)
	var negRoot curve.Scalar
	negRoot.Neg(&root)
	for i, c := range p {
		var term curve.Scalar
		term.Mul(&c, &negRoot)
		out[i].Add(&out[i], &term)
		out[i+1].Add(&out[i+1], &c)
	}
	return out
}

// polyEvaluate evaluates p at x via Horner's method.
func polyEvaluate(p poly, x curve.Scalar) curve.Scalar {
	var acc curve.Scalar
	for i := len(p) - 1; i >= 0; i-- {
		acc.Mul(&acc, &x)
		acc.Add(&acc, &p[i])
	}
	return acc
}

// polyDivExactLinear divides p by the monic linear factor (x - root),
// assuming the division is exact (root is known to be a root of p),
// and returns the quotient. Used to compute A_I(x)/(x - ω^i).
func polyDivExactLinear(p poly, root curve.Scalar) poly {
	if len(p) == 0 {
		return nil
	}
	n := len(p) - 1
	out := make(poly, n)
	carry := p[n]
	for i := n - 1; i >= 0; i-- {
		out[i] = carry
		var term curve.Scalar
		term.Mul(&carry, &root)
		carry.Add(&p[i], &term)
	}
	return out
}

// polyDivide performs polynomial long division of num by a monic
// divisor den (deg(den) = len(den)-1), returning quotient and
// remainder. den must be monic; callers only ever pass vanishing
// polynomials built by polyFromRoots, which are always monic. The
// remainder is not required to be zero: prove_pos relies on this to
// split Φ(x) into q(x)·A_I(x) + r(x) and discards r(x), which the
// verifier reconstructs independently from the opened values.
func polyDivide(num, den poly) (quotient, remainder poly) {
	degDen := len(den) - 1
	if degDen < 0 || len(num) < len(den) {
		return nil, append(poly(nil), num...)
	}
	work := make(poly, len(num))
	copy(work, num)
	qLen := len(work) - degDen
	quotient = make(poly, qLen)
	for i := qLen - 1; i >= 0; i-- {
		coeff := work[i+degDen]
		quotient[i] = coeff
		for k, dc := range den {
			var term curve.Scalar
			term.Mul(&dc, &coeff)
			work[i+k].Sub(&work[i+k], &term)
		}
	}
	if degDen == 0 {
		return quotient, nil
	}
	return quotient, work[:degDen]
}
