package tetmesh

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/notargets/TetModes/element"
	"github.com/notargets/TetModes/utils"
	"gonum.org/v1/gonum/spatial/r3"
)

// TetMesh is a volumetric tetrahedral mesh whose surface vertices occupy the
// leading indices [0, NumSurfaceVertices) of Vertices
type TetMesh struct {
	Vertices []r3.Vec // Vertex positions in meters
	Tets     [][4]int // Element to vertex connectivity
	Surface  [][3]int // Outward oriented boundary triangles

	NumSurfaceVertices int

	// FromOriginal maps a vertex index of the input to its index here, -1 for
	// input vertices no tetrahedron references
	FromOriginal []int
}

// NewTetMesh builds a mesh from raw vertices and tets, extracting the
// boundary triangles as its surface
func NewTetMesh(V []r3.Vec, T [][4]int) (*TetMesh, error) {
	if err := validate(V, T); err != nil {
		return nil, err
	}
	F, err := BoundaryFaces(V, T)
	if err != nil {
		return nil, err
	}
	return build(V, T, F)
}

// NewTetMeshWithSurface builds a mesh whose surface triangles are given
// explicitly, as produced by a tetrahedralizer that preserves its input
// surface
func NewTetMeshWithSurface(V []r3.Vec, T [][4]int, F [][3]int) (*TetMesh, error) {
	if err := validate(V, T); err != nil {
		return nil, err
	}
	if len(F) == 0 {
		return nil, fmt.Errorf("surface has no triangles")
	}
	for f, tri := range F {
		for _, v := range tri {
			if v < 0 || v >= len(V) {
				return nil, fmt.Errorf("surface triangle %d references vertex %d outside [0, %d)", f, v, len(V))
			}
		}
	}
	return build(V, T, F)
}

func validate(V []r3.Vec, T [][4]int) error {
	if len(T) == 0 {
		return fmt.Errorf("mesh does not have any tets")
	}
	for k, tet := range T {
		for _, v := range tet {
			if v < 0 || v >= len(V) {
				return fmt.Errorf("tet %d references vertex %d outside [0, %d)", k, v, len(V))
			}
		}
	}
	return nil
}

// build drops unreferenced vertices and renumbers the rest so that surface
// vertices come first, keeping the input order within each group
func build(V []r3.Vec, T [][4]int, F [][3]int) (*TetMesh, error) {
	used := make([]bool, len(V))
	for _, tet := range T {
		for _, v := range tet {
			used[v] = true
		}
	}
	onSurface := make([]bool, len(V))
	for _, tri := range F {
		for _, v := range tri {
			if !used[v] {
				return nil, fmt.Errorf("surface vertex %d belongs to no tetrahedron", v)
			}
			onSurface[v] = true
		}
	}

	fromOriginal := make([]int, len(V))
	for i := range fromOriginal {
		fromOriginal[i] = -1
	}
	var next int
	for i := range V {
		if onSurface[i] {
			fromOriginal[i] = next
			next++
		}
	}
	nSurf := next
	for i := range V {
		if used[i] && !onSurface[i] {
			fromOriginal[i] = next
			next++
		}
	}

	tm := &TetMesh{
		Vertices:           make([]r3.Vec, next),
		Tets:               make([][4]int, len(T)),
		Surface:            make([][3]int, len(F)),
		NumSurfaceVertices: nSurf,
		FromOriginal:       fromOriginal,
	}
	for i, v := range V {
		if j := fromOriginal[i]; j >= 0 {
			tm.Vertices[j] = v
		}
	}
	for k, tet := range T {
		for a, v := range tet {
			tm.Tets[k][a] = fromOriginal[v]
		}
	}
	for f, tri := range F {
		for a, v := range tri {
			tm.Surface[f][a] = fromOriginal[v]
		}
	}
	return tm, nil
}

type faceKey [3]int

func newFaceKey(a, b, c int) faceKey {
	k := faceKey{a, b, c}
	sort.Ints(k[:])
	return k
}

// BoundaryFaces returns the faces owned by exactly one tetrahedron, oriented
// with their normal pointing out of that tetrahedron
func BoundaryFaces(V []r3.Vec, T [][4]int) ([][3]int, error) {
	type owner struct {
		elem, face, count int
	}
	faces := make(map[faceKey]*owner, 2*len(T))
	order := make([]faceKey, 0, 4*len(T))

	for k, tet := range T {
		for f, lv := range element.TetFaces {
			key := newFaceKey(tet[lv[0]], tet[lv[1]], tet[lv[2]])
			if o, found := faces[key]; found {
				o.count++
				continue
			}
			faces[key] = &owner{elem: k, face: f, count: 1}
			order = append(order, key)
		}
	}

	var F [][3]int
	for _, key := range order {
		o := faces[key]
		switch {
		case o.count == 1:
		case o.count == 2:
			continue
		default:
			return nil, fmt.Errorf("non-manifold face %v shared by %d tets", key, o.count)
		}
		tet := T[o.elem]
		lv := element.TetFaces[o.face]
		tri := [3]int{tet[lv[0]], tet[lv[1]], tet[lv[2]]}

		a, b, c := V[tri[0]], V[tri[1]], V[tri[2]]
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		opp := V[tet[element.TetOpposite[o.face]]]
		if r3.Dot(n, r3.Sub(opp, a)) > 0 {
			tri[1], tri[2] = tri[2], tri[1]
		}
		F = append(F, tri)
	}
	return F, nil
}

// NumDOF is the size of the displacement space, three per vertex
func (t *TetMesh) NumDOF() int {
	return 3 * len(t.Vertices)
}

// SurfaceVertices returns the leading surface block of Vertices
func (t *TetMesh) SurfaceVertices() []r3.Vec {
	return t.Vertices[:t.NumSurfaceVertices]
}

// MapOriginal converts input vertex indices to mesh indices
func (t *TetMesh) MapOriginal(idx []int) ([]int, error) {
	out := make([]int, len(idx))
	for i, v := range idx {
		if v < 0 || v >= len(t.FromOriginal) || t.FromOriginal[v] < 0 {
			return nil, &utils.UnsupportedConstraintSpecError{
				Reason: fmt.Sprintf("vertex %d is not part of the tetrahedral mesh", v),
			}
		}
		out[i] = t.FromOriginal[v]
	}
	return out, nil
}

// BoundingBox returns the componentwise min and max vertex positions
func (t *TetMesh) BoundingBox() (lo, hi r3.Vec) {
	lo = r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi = r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, v := range t.Vertices {
		lo = r3.Vec{X: math.Min(lo.X, v.X), Y: math.Min(lo.Y, v.Y), Z: math.Min(lo.Z, v.Z)}
		hi = r3.Vec{X: math.Max(hi.X, v.X), Y: math.Max(hi.Y, v.Y), Z: math.Max(hi.Z, v.Z)}
	}
	return
}

// Volume sums the unsigned tetrahedron volumes
func (t *TetMesh) Volume() float64 {
	var vol float64
	for _, v := range t.tetVolumes() {
		vol += v
	}
	return vol
}

func (t *TetMesh) tetVolumes() []float64 {
	vols := make([]float64, len(t.Tets))
	for k, tet := range t.Tets {
		a := t.Vertices[tet[0]]
		e1 := r3.Sub(t.Vertices[tet[1]], a)
		e2 := r3.Sub(t.Vertices[tet[2]], a)
		e3 := r3.Sub(t.Vertices[tet[3]], a)
		vols[k] = math.Abs(r3.Dot(e1, r3.Cross(e2, e3))) / 6
	}
	return vols
}

// String returns a summary of the TetMesh properties
func (t *TetMesh) String() string {
	var sb strings.Builder

	// Header
	sb.WriteString("=== TetMesh Summary ===\n")

	// Topology
	sb.WriteString("\n--- Topology ---\n")
	sb.WriteString(fmt.Sprintf("  Number of tets: %d\n", len(t.Tets)))
	sb.WriteString(fmt.Sprintf("  Number of vertices: %d\n", len(t.Vertices)))
	sb.WriteString(fmt.Sprintf("  Surface vertices (leading block): %d\n", t.NumSurfaceVertices))
	sb.WriteString(fmt.Sprintf("  Interior vertices: %d\n", len(t.Vertices)-t.NumSurfaceVertices))
	sb.WriteString(fmt.Sprintf("  Surface triangles: %d\n", len(t.Surface)))
	sb.WriteString(fmt.Sprintf("  Total degrees of freedom: %d\n", t.NumDOF()))

	// Geometry
	lo, hi := t.BoundingBox()
	vols := t.tetVolumes()
	sb.WriteString("\n--- Geometry ---\n")
	sb.WriteString(fmt.Sprintf("  X range: [%.4f, %.4f]\n", lo.X, hi.X))
	sb.WriteString(fmt.Sprintf("  Y range: [%.4f, %.4f]\n", lo.Y, hi.Y))
	sb.WriteString(fmt.Sprintf("  Z range: [%.4f, %.4f]\n", lo.Z, hi.Z))
	sb.WriteString(fmt.Sprintf("  Volume: %.6e\n", t.Volume()))
	sb.WriteString(fmt.Sprintf("  Tet volume range: [%.4e, %.4e]\n", minFloat64(vols), maxFloat64(vols)))

	sb.WriteString("\n========================\n")

	return sb.String()
}

// Helper functions for finding min/max of float64 slices
func minFloat64(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	min := s[0]
	for _, v := range s[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

func maxFloat64(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	max := s[0]
	for _, v := range s[1:] {
		if v > max {
			max = v
		}
	}
	return max
}
