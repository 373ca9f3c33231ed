package modal

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"
)

// RigidBody holds the mass properties of the lumped point masses of a mesh
type RigidBody struct {
	Mass    float64
	COM     r3.Vec
	Inertia mgl64.Mat3 // About the center of mass
}

// VertexMasses recovers per-vertex masses from a per-DOF mass vector by
// taking the x entry of each triplet
func VertexMasses(perDOF []float64) []float64 {
	if len(perDOF)%3 != 0 {
		panic(fmt.Sprintf("vertex masses: DOF count %d is not a multiple of 3", len(perDOF)))
	}
	m := make([]float64, len(perDOF)/3)
	for i := range m {
		m[i] = perDOF[3*i]
	}
	return m
}

// ComputeRigidBody sums the point masses, their center and the inertia tensor
// J = Σ mᵢ((rᵢ·rᵢ)I − rᵢrᵢᵀ), rᵢ = Vᵢ − COM
func ComputeRigidBody(V []r3.Vec, vertexMass []float64) (RigidBody, error) {
	if len(V) != len(vertexMass) {
		return RigidBody{}, fmt.Errorf("%d vertices but %d masses", len(V), len(vertexMass))
	}
	var rb RigidBody
	var moment r3.Vec
	for i, m := range vertexMass {
		rb.Mass += m
		moment = r3.Add(moment, r3.Scale(m, V[i]))
	}
	if !(rb.Mass > 0) {
		return RigidBody{}, fmt.Errorf("total mass is %g", rb.Mass)
	}
	rb.COM = r3.Scale(1/rb.Mass, moment)

	for i, m := range vertexMass {
		d := r3.Sub(V[i], rb.COM)
		r := mgl64.Vec3{d.X, d.Y, d.Z}
		term := mgl64.Ident3().Mul(r.Dot(r)).Sub(r.OuterProd3(r))
		rb.Inertia = rb.Inertia.Add(term.Mul(m))
	}
	return rb, nil
}

// InertiaRowMajor flattens the inertia tensor row by row
func (rb RigidBody) InertiaRowMajor() [9]float64 {
	var out [9]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[3*r+c] = rb.Inertia.At(r, c)
		}
	}
	return out
}
