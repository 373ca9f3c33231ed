package modal

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// GravityField is a unit downward acceleration, -1 on every y DOF
func GravityField(nDOF int) []float64 {
	g := make([]float64, nDOF)
	for i := 1; i < nDOF; i += 3 {
		g[i] = -1
	}
	return g
}

// ProjectGravity returns the modal gravity load UᵀMg
func ProjectGravity(U *mat.Dense, mass []float64) []float64 {
	n, k := U.Dims()
	if len(mass) != n {
		panic(fmt.Sprintf("project gravity: mass length %d, %d rows", len(mass), n))
	}
	g := GravityField(n)
	Mg := make([]float64, n)
	for i := range Mg {
		Mg[i] = mass[i] * g[i]
	}
	out := mat.NewVecDense(k, nil)
	out.MulVec(U.T(), mat.NewVecDense(n, Mg))
	return out.RawVector().Data
}
