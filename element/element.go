package element

import "gonum.org/v1/gonum/mat"

// Element is a solid finite element contributing to the global stiffness
// and lumped mass
type Element interface {
	GetProperties() ElementProperties

	// Nodes returns the global vertex indices of the element nodes, in the
	// order used by Stiffness and LumpedMass
	Nodes() []int

	Volume() float64

	// Stiffness returns the [DOFPerNode*Np × DOFPerNode*Np] element matrix
	// with DOFs interleaved per node as (x, y, z)
	Stiffness(m Material) *mat.SymDense

	// LumpedMass returns one scalar mass per node
	LumpedMass(m Material) []float64
}
