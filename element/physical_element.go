package element

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// GeometricTransform maps the reference tetrahedron (unit right corner) to
// physical space. For linear elements the transform is affine, so a single
// Jacobian serves the whole element.
type GeometricTransform struct {
	// Jacobian ∂(x,y,z)/∂(ξ,η,ζ); column d holds the physical edge from
	// vertex 0 to vertex d+1
	J *mat.Dense

	// Inverse Jacobian ∂(ξ,η,ζ)/∂(x,y,z)
	Jinv *mat.Dense

	// Jacobian determinant, six times the signed volume
	Det float64
}

// degenerateTol bounds |det J| relative to the cube of the longest edge
const degenerateTol = 1.e-12

// NewGeometricTransform builds the affine map for the vertices x
func NewGeometricTransform(x [4]r3.Vec) (*GeometricTransform, error) {
	J := mat.NewDense(3, 3, nil)
	var hmax float64
	for d := 0; d < 3; d++ {
		e := r3.Sub(x[d+1], x[0])
		J.Set(0, d, e.X)
		J.Set(1, d, e.Y)
		J.Set(2, d, e.Z)
		hmax = math.Max(hmax, r3.Norm(e))
	}

	det := mat.Det(J)
	if math.IsNaN(det) || math.Abs(det) <= degenerateTol*hmax*hmax*hmax {
		return nil, fmt.Errorf("degenerate tetrahedron: det J = %g, longest edge %g", det, hmax)
	}

	var Jinv mat.Dense
	if err := Jinv.Inverse(J); err != nil {
		return nil, fmt.Errorf("singular tetrahedron Jacobian: %w", err)
	}

	return &GeometricTransform{J: J, Jinv: &Jinv, Det: det}, nil
}
