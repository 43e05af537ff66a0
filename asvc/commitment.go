package asvc

import (
	"fmt"

	"github.com/cloverzk/asvc-rollup/curve"
)

// Commitment is a constant-size KZG commitment to the whole account
// vector.
type Commitment = curve.G1

// Commit computes C = Σ values[i]·l_i, the commitment to the vector
// `values` under the Lagrange basis the proving key was built for.
func Commit(pk *ProvingKey, values []curve.Scalar) (Commitment, error) {
	if pk == nil {
		return Commitment{}, fmt.Errorf("asvc: commit: %w: nil proving key", ErrBadLength)
	}
	if uint64(len(values)) != pk.N {
		return Commitment{}, fmt.Errorf("asvc: commit: %w: have %d values, want %d", ErrBadLength, len(values), pk.N)
	}
	return curve.MSM(pk.LiOfG1, values)
}
