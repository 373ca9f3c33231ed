package modal

import (
	"errors"
	"math"
	"testing"

	"github.com/notargets/TetModes/constraints"
	"github.com/notargets/TetModes/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestNormalizeRescale(t *testing.T) {
	K := diagCSR(2, 8)
	mass := []float64{1, 2}
	U := mat.NewDense(2, 2, []float64{
		3, 0,
		0, 1,
	})

	ms, err := Normalize(U, K, mass)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0, 2}, ms.U.RawMatrix().Data)
	assert.InDeltaSlice(t, []float64{1, 8}, ms.Mi, 1.e-14)
	assert.InDeltaSlice(t, []float64{2, 32}, ms.Ki, 1.e-14)

	// Input untouched
	assert.Equal(t, 3., U.At(0, 0))
}

func TestNormalizeColumnsIdempotent(t *testing.T) {
	U := mat.NewDense(3, 2, []float64{
		1, -2,
		2, 0.5,
		2, 4,
	})
	once, err := NormalizeColumns(U)
	require.NoError(t, err)
	twice, err := NormalizeColumns(once)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(once, twice, 1.e-15))

	for j := 0; j < 2; j++ {
		assert.InDelta(t, 1., floats.Norm(mat.Col(nil, j, once), 2), 1.e-15)
	}
	assert.InDelta(t, 1./3., once.At(0, 0), 1.e-15)
}

func TestNormalizeZeroColumn(t *testing.T) {
	U := mat.NewDense(2, 2, []float64{1, 0, 1, 0})
	_, err := NormalizeColumns(U)
	var ill *utils.IllConditionedSystemError
	assert.True(t, errors.As(err, &ill))

	_, err = Normalize(mat.NewDense(2, 1, []float64{0, 1}), diagCSR(1, 1), []float64{1, 0})
	assert.True(t, errors.As(err, &ill))
}

func TestNormalizedModesAreMOrthogonal(t *testing.T) {
	tm, sys := cubeSystem(t, [3]int{2, 1, 1})
	sel := constraints.Selector{FixedVertices: []int{0, 1, 3}}
	dofs, err := sel.Resolve(tm.Vertices, tm.Surface)
	require.NoError(t, err)
	mass := sys.DOFMass()

	const k = 6
	pairs, err := Solve(sys.K, mass, dofs, k, DefaultOptions())
	require.NoError(t, err)
	ms, err := Normalize(pairs.Vectors, sys.K, mass)
	require.NoError(t, err)

	cols := make([][]float64, k)
	for j := range cols {
		cols[j] = mat.Col(nil, j, ms.U)
	}
	for i := 0; i < k; i++ {
		// Rayleigh quotient is unchanged by scaling
		assert.InDelta(t, pairs.Values[i], ms.Ki[i]/ms.Mi[i], 1.e-8*pairs.Values[i])
		for j := i + 1; j < k; j++ {
			var mij float64
			for d, m := range mass {
				mij += cols[i][d] * m * cols[j][d]
			}
			assert.Less(t, math.Abs(mij), 1.e-8*math.Sqrt(ms.Mi[i]*ms.Mi[j]), "modes %d,%d", i, j)
		}
	}
}
