package modal

import (
	"fmt"
	"math"

	"github.com/james-bowman/sparse"
	"github.com/notargets/TetModes/assembly"
	"github.com/notargets/TetModes/utils"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ModeShapes is a normalized mode matrix with its generalized mass and
// stiffness diagonals
type ModeShapes struct {
	U  *mat.Dense // NumDOF × k
	Mi []float64  // U_jᵀ M U_j
	Ki []float64  // U_jᵀ K U_j
}

// Normalize scales each mode to unit length, then by Ki_j/(2·Mi_j), and
// recomputes the generalized diagonals of the result. U is not modified.
func Normalize(U *mat.Dense, K *sparse.CSR, mass []float64) (*ModeShapes, error) {
	V, err := NormalizeColumns(U)
	if err != nil {
		return nil, err
	}
	Mi, Ki := GeneralizedDiagonals(V, K, mass)

	n, k := V.Dims()
	col := make([]float64, n)
	for j := 0; j < k; j++ {
		if !(Mi[j] > 0) {
			return nil, &utils.IllConditionedSystemError{
				Reason: fmt.Sprintf("mode %d has generalized mass %g", j, Mi[j]),
			}
		}
		mat.Col(col, j, V)
		floats.Scale(Ki[j]/(2*Mi[j]), col)
		V.SetCol(j, col)
	}

	Mi, Ki = GeneralizedDiagonals(V, K, mass)
	return &ModeShapes{U: V, Mi: Mi, Ki: Ki}, nil
}

// NormalizeColumns returns a copy of U with every column scaled to unit
// Euclidean norm
func NormalizeColumns(U *mat.Dense) (*mat.Dense, error) {
	V := mat.DenseCopyOf(U)
	_, k := V.Dims()
	for j := 0; j < k; j++ {
		col := mat.Col(nil, j, V)
		norm := floats.Norm(col, 2)
		if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
			return nil, &utils.IllConditionedSystemError{
				Reason: fmt.Sprintf("mode %d has norm %g", j, norm),
			}
		}
		floats.Scale(1/norm, col)
		V.SetCol(j, col)
	}
	return V, nil
}

// GeneralizedDiagonals returns Mi_j = U_jᵀ M U_j and Ki_j = U_jᵀ K U_j for a
// lumped per-DOF mass
func GeneralizedDiagonals(U *mat.Dense, K *sparse.CSR, mass []float64) (Mi, Ki []float64) {
	n, k := U.Dims()
	if len(mass) != n {
		panic(fmt.Sprintf("generalized diagonals: mass length %d, %d rows", len(mass), n))
	}
	Mi = make([]float64, k)
	Ki = make([]float64, k)
	col := make([]float64, n)
	for j := 0; j < k; j++ {
		mat.Col(col, j, U)
		for i, u := range col {
			Mi[j] += mass[i] * u * u
		}
		Ki[j] = assembly.QuadForm(K, col)
	}
	return
}
