package assembly

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"github.com/notargets/TetModes/utils"
	"gonum.org/v1/gonum/mat"
)

// Symmetrize returns (K + Kᵀ)/2, removing the round-off asymmetry of
// summed element contributions
func Symmetrize(K *sparse.CSR) *sparse.CSR {
	r, c := K.Dims()
	if r != c {
		panic(fmt.Sprintf("symmetrize: matrix is %d×%d", r, c))
	}
	dok := sparse.NewDOK(r, c)
	K.DoNonZero(func(i, j int, v float64) {
		h := 0.5 * v
		dok.Set(i, j, dok.At(i, j)+h)
		dok.Set(j, i, dok.At(j, i)+h)
	})
	return dok.ToCSR()
}

// MulVec returns K·x
func MulVec(K *sparse.CSR, x []float64) []float64 {
	r, c := K.Dims()
	if len(x) != c {
		panic(fmt.Sprintf("mulvec: vector length %d, expected %d", len(x), c))
	}
	y := make([]float64, r)
	K.DoNonZero(func(i, j int, v float64) {
		y[i] += v * x[j]
	})
	return y
}

// QuadForm returns xᵀ K x
func QuadForm(K *sparse.CSR, x []float64) float64 {
	var s float64
	K.DoNonZero(func(i, j int, v float64) {
		s += x[i] * v * x[j]
	})
	return s
}

// Restrict extracts the dense principal submatrix of K on the free DOFs of dc
func Restrict(K *sparse.CSR, dc *utils.DOFConnector) *mat.SymDense {
	if r, _ := K.Dims(); r != dc.NumDOF {
		panic(fmt.Sprintf("restrict: matrix order %d, connector has %d DOFs", r, dc.NumDOF))
	}
	A := mat.NewSymDense(dc.NumFree, nil)
	K.DoNonZero(func(i, j int, v float64) {
		li, lj := dc.GlobalToLocal[i], dc.GlobalToLocal[j]
		if li < 0 || lj < 0 || lj < li {
			return
		}
		A.SetSym(li, lj, v)
	})
	return A
}

// NewCSR converts a dense matrix, dropping exact zeros
func NewCSR(a mat.Matrix) *sparse.CSR {
	r, c := a.Dims()
	dok := sparse.NewDOK(r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := a.At(i, j); v != 0 {
				dok.Set(i, j, v)
			}
		}
	}
	return dok.ToCSR()
}
