package element

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

func unitTet() [4]r3.Vec {
	return [4]r3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1},
	}
}

func TestTetLinearGeometry(t *testing.T) {
	el, err := NewTetLinear([4]int{0, 1, 2, 3}, unitTet())
	require.NoError(t, err)

	assert.InDelta(t, 1./6., el.Volume(), 1.e-15)
	assert.InDelta(t, 1., el.Det, 1.e-15)

	expected := [4]r3.Vec{
		{X: -1, Y: -1, Z: -1},
		{X: 1},
		{Y: 1},
		{Z: 1},
	}
	for a := range expected {
		assert.InDelta(t, 0., r3.Norm(r3.Sub(expected[a], el.Grad[a])), 1.e-14, "node %d", a)
	}

	props := el.GetProperties()
	assert.Equal(t, "Tet4", props.ShortName)
	assert.Equal(t, 3, props.DOFPerNode)
}

func TestTetLinearInvertedOrientation(t *testing.T) {
	x := unitTet()
	x[1], x[2] = x[2], x[1]
	el, err := NewTetLinear([4]int{0, 2, 1, 3}, x)
	require.NoError(t, err)
	assert.Less(t, el.Det, 0.)
	assert.InDelta(t, 1./6., el.Volume(), 1.e-15)
}

func TestTetLinearDegenerate(t *testing.T) {
	x := unitTet()
	x[3] = r3.Vec{X: 0.5, Y: 0.5}
	_, err := NewTetLinear([4]int{0, 1, 2, 3}, x)
	assert.Error(t, err)
}

func TestTetLinearStiffnessRigidModes(t *testing.T) {
	x := [4]r3.Vec{
		{X: 0.1, Y: -0.2, Z: 0.05},
		{X: 1.3, Y: 0.1, Z: -0.1},
		{X: 0.2, Y: 0.9, Z: 0.2},
		{X: 0.3, Y: 0.2, Z: 1.1},
	}
	el, err := NewTetLinear([4]int{0, 1, 2, 3}, x)
	require.NoError(t, err)

	K := el.Stiffness(DefaultMaterial())
	r, c := K.Dims()
	require.Equal(t, 12, r)
	require.Equal(t, 12, c)

	var scale float64
	for i := 0; i < 12; i++ {
		scale = max(scale, K.At(i, i))
	}

	// Three translations and three infinitesimal rotations carry no strain
	omegas := []r3.Vec{{X: 1}, {Y: 1}, {Z: 1}}
	var modes [][]float64
	for _, d := range omegas {
		u := make([]float64, 12)
		for a := 0; a < 4; a++ {
			u[3*a], u[3*a+1], u[3*a+2] = d.X, d.Y, d.Z
		}
		modes = append(modes, u)
	}
	for _, w := range omegas {
		u := make([]float64, 12)
		for a := 0; a < 4; a++ {
			v := r3.Cross(w, x[a])
			u[3*a], u[3*a+1], u[3*a+2] = v.X, v.Y, v.Z
		}
		modes = append(modes, u)
	}

	for i, u := range modes {
		var f mat.VecDense
		f.MulVec(K, mat.NewVecDense(12, u))
		assert.InDelta(t, 0., mat.Norm(&f, 2), 1.e-10*scale, "mode %d", i)
	}
}

func TestLumpedMass(t *testing.T) {
	el, err := NewTetLinear([4]int{4, 5, 6, 7}, unitTet())
	require.NoError(t, err)

	m := Material{Young: 1, Poisson: 0.3, Density: 600}
	lumped := el.LumpedMass(m)
	require.Len(t, lumped, 4)
	for _, v := range lumped {
		assert.InDelta(t, 25., v, 1.e-12)
	}
	assert.Equal(t, []int{4, 5, 6, 7}, el.Nodes())
}

func TestMaterial(t *testing.T) {
	m := DefaultMaterial()
	require.NoError(t, m.Validate())

	lambda, mu := m.Lame()
	assert.InDelta(t, 1.e4/(2*1.48), mu, 1.e-9)
	assert.InDelta(t, 1.e4*0.48/(1.48*0.04), lambda, 1.e-6)

	D := m.Constitutive()
	assert.InDelta(t, lambda+2*mu, D.At(0, 0), 1.e-9)
	assert.InDelta(t, lambda, D.At(2, 1), 1.e-9)
	assert.InDelta(t, mu, D.At(5, 5), 1.e-9)
	assert.Equal(t, 0., D.At(3, 0))

	assert.Error(t, Material{Young: 1, Poisson: 0.5, Density: 1}.Validate())
	assert.Error(t, Material{Young: 0, Poisson: 0.3, Density: 1}.Validate())
	assert.Error(t, Material{Young: 1, Poisson: 0.3}.Validate())
}
