package element

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// TetLinear is the 4-node constant-strain tetrahedron
type TetLinear struct {
	*GeometricTransform

	nodes []int
	X     [4]r3.Vec // Physical vertex positions
	Grad  [4]r3.Vec // Physical gradients of the four shape functions
}

// referenceGrad holds ∇N in (ξ,η,ζ) for N0 = 1-ξ-η-ζ, N1 = ξ, N2 = η, N3 = ζ
var referenceGrad = [4][3]float64{
	{-1, -1, -1},
	{1, 0, 0},
	{0, 1, 0},
	{0, 0, 1},
}

// NewTetLinear creates an element for the global vertices nodes at positions x
func NewTetLinear(nodes [4]int, x [4]r3.Vec) (*TetLinear, error) {
	gt, err := NewGeometricTransform(x)
	if err != nil {
		return nil, err
	}
	el := &TetLinear{
		GeometricTransform: gt,
		nodes:              nodes[:],
		X:                  x,
	}
	// ∇N = J^{-T} ∇̂N
	for a := 0; a < 4; a++ {
		var g [3]float64
		for i := 0; i < 3; i++ {
			for k := 0; k < 3; k++ {
				g[i] += gt.Jinv.At(k, i) * referenceGrad[a][k]
			}
		}
		el.Grad[a] = r3.Vec{X: g[0], Y: g[1], Z: g[2]}
	}
	return el, nil
}

func (el *TetLinear) GetProperties() ElementProperties {
	return ElementProperties{
		Name:       "Linear Elastic Tetrahedron",
		ShortName:  "Tet4",
		Order:      1,
		Np:         4,
		NFaces:     4,
		NEdges:     6,
		DOFPerNode: 3,
	}
}

func (el *TetLinear) Nodes() []int { return el.nodes }

// Volume is the unsigned element volume
func (el *TetLinear) Volume() float64 {
	return math.Abs(el.Det) / 6
}

// B returns the 6×12 strain-displacement matrix
func (el *TetLinear) B() *mat.Dense {
	B := mat.NewDense(6, 12, nil)
	for a, g := range el.Grad {
		c := 3 * a
		B.Set(0, c, g.X)
		B.Set(1, c+1, g.Y)
		B.Set(2, c+2, g.Z)
		B.Set(3, c+1, g.Z)
		B.Set(3, c+2, g.Y)
		B.Set(4, c, g.Z)
		B.Set(4, c+2, g.X)
		B.Set(5, c, g.Y)
		B.Set(5, c+1, g.X)
	}
	return B
}

// Stiffness returns V·Bᵀ D B
func (el *TetLinear) Stiffness(m Material) *mat.SymDense {
	B := el.B()
	var DB, BtDB mat.Dense
	DB.Mul(m.Constitutive(), B)
	BtDB.Mul(B.T(), &DB)

	vol := el.Volume()
	K := mat.NewSymDense(12, nil)
	for i := 0; i < 12; i++ {
		for j := i; j < 12; j++ {
			K.SetSym(i, j, vol*0.5*(BtDB.At(i, j)+BtDB.At(j, i)))
		}
	}
	return K
}

// LumpedMass splits the element mass equally over its vertices
func (el *TetLinear) LumpedMass(m Material) []float64 {
	mv := m.Density * el.Volume() / 4
	return []float64{mv, mv, mv, mv}
}
