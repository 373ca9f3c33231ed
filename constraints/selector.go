package constraints

import (
	"fmt"
	"sort"

	"github.com/notargets/TetModes/utils"
	"gonum.org/v1/gonum/spatial/r3"
)

// Box is an axis-aligned region; vertices on its boundary are inside
type Box struct {
	Min [3]float64 `yaml:"min" toml:"min"`
	Max [3]float64 `yaml:"max" toml:"max"`
}

// NewBox builds a box from the flattened form minx,miny,minz,maxx,maxy,maxz
func NewBox(c []float64) (Box, error) {
	if len(c) != 6 {
		return Box{}, &utils.UnsupportedConstraintSpecError{
			Reason: fmt.Sprintf("box needs 6 coordinates, got %d", len(c)),
		}
	}
	b := Box{
		Min: [3]float64{c[0], c[1], c[2]},
		Max: [3]float64{c[3], c[4], c[5]},
	}
	return b, b.Validate()
}

// Validate rejects boxes that are inverted along any axis
func (b Box) Validate() error {
	for d := 0; d < 3; d++ {
		if b.Min[d] > b.Max[d] {
			return &utils.UnsupportedConstraintSpecError{
				Reason: fmt.Sprintf("box min %v exceeds max %v on axis %d", b.Min, b.Max, d),
			}
		}
	}
	return nil
}

// Contains reports whether p lies inside the box
func (b Box) Contains(p r3.Vec) bool {
	return p.X >= b.Min[0] && p.X <= b.Max[0] &&
		p.Y >= b.Min[1] && p.Y <= b.Max[1] &&
		p.Z >= b.Min[2] && p.Z <= b.Max[2]
}

// BoxROI returns the indices of vertices inside any of the boxes, box by box.
// A vertex inside two overlapping boxes is returned twice. Selection is by
// vertex position only; the face list is accepted for interface parity with
// surface-based region queries.
func BoxROI(V []r3.Vec, _ [][3]int, boxes []Box) []int {
	var idx []int
	for _, b := range boxes {
		for i, v := range V {
			if b.Contains(v) {
				idx = append(idx, i)
			}
		}
	}
	return idx
}

// Selector resolves fixed vertices from either explicit indices or boxes
type Selector struct {
	FixedVertices []int
	Boxes         []Box
}

// DOFSet is the fixed/free partition of a mesh's degrees of freedom
type DOFSet struct {
	NumDOF      int
	Fixed       []int // Ascending fixed DOF indices
	Free        []int // Ascending complement of Fixed over [0, NumDOF)
	Constrained bool  // False when no vertex is fixed
}

// Validate checks the selector against a mesh of numVertices vertices
func (s Selector) Validate(numVertices int) error {
	if len(s.FixedVertices) > 0 && len(s.Boxes) > 0 {
		return &utils.UnsupportedConstraintSpecError{
			Reason: "fixed vertex indices and fixed boxes are mutually exclusive",
		}
	}
	for _, i := range s.FixedVertices {
		if i < 0 || (numVertices >= 0 && i >= numVertices) {
			return &utils.UnsupportedConstraintSpecError{
				Reason: fmt.Sprintf("fixed vertex %d outside [0, %d)", i, numVertices),
			}
		}
	}
	for _, b := range s.Boxes {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Resolve computes the fixed and free DOF sets for the mesh (V, F)
func (s Selector) Resolve(V []r3.Vec, F [][3]int) (*DOFSet, error) {
	if err := s.Validate(len(V)); err != nil {
		return nil, err
	}

	var picked []int
	switch {
	case len(s.Boxes) > 0:
		picked = BoxROI(V, F, s.Boxes)
	default:
		picked = s.FixedVertices
	}

	fixedVerts := Unique(picked)
	nDOF := 3 * len(V)
	fixed := FixedDOFs(fixedVerts)
	return &DOFSet{
		NumDOF:      nDOF,
		Fixed:       fixed,
		Free:        FreeDOFs(nDOF, fixed),
		Constrained: len(fixed) > 0,
	}, nil
}

// Unique returns the sorted set of indices in idx
func Unique(idx []int) []int {
	seen := make(map[int]struct{}, len(idx))
	out := make([]int, 0, len(idx))
	for _, i := range idx {
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// VertexDOFs returns the x, y, z DOF indices of vertex i
func VertexDOFs(i int) [3]int {
	return [3]int{3 * i, 3*i + 1, 3*i + 2}
}

// FixedDOFs expands sorted, unique vertex indices into their DOF triplets
func FixedDOFs(vertices []int) []int {
	dofs := make([]int, 0, 3*len(vertices))
	for _, v := range vertices {
		d := VertexDOFs(v)
		dofs = append(dofs, d[:]...)
	}
	return dofs
}

// FreeDOFs returns the ascending complement of fixed over [0, nDOF)
func FreeDOFs(nDOF int, fixed []int) []int {
	isFixed := make([]bool, nDOF)
	for _, d := range fixed {
		isFixed[d] = true
	}
	free := make([]int, 0, nDOF-len(fixed))
	for d := 0; d < nDOF; d++ {
		if !isFixed[d] {
			free = append(free, d)
		}
	}
	return free
}
