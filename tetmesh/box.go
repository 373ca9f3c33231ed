package tetmesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// kuhnPaths are the six axis orderings of the Freudenthal split of a cube;
// each walks from corner (0,0,0) to (1,1,1) one axis at a time
var kuhnPaths = [6][3]int{
	{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
}

// NewBoxMesh tetrahedralizes an axis-aligned box anchored at the origin into
// cells[0]×cells[1]×cells[2] cubes of six tetrahedra each
func NewBoxMesh(cells [3]int, size r3.Vec) (*TetMesh, error) {
	for d, n := range cells {
		if n < 1 {
			return nil, fmt.Errorf("box needs at least one cell along axis %d, got %d", d, n)
		}
	}
	nx, ny, nz := cells[0]+1, cells[1]+1, cells[2]+1
	vid := func(i, j, k int) int { return i + nx*(j+ny*k) }

	h := r3.Vec{
		X: size.X / float64(cells[0]),
		Y: size.Y / float64(cells[1]),
		Z: size.Z / float64(cells[2]),
	}
	V := make([]r3.Vec, 0, nx*ny*nz)
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				V = append(V, r3.Vec{X: float64(i) * h.X, Y: float64(j) * h.Y, Z: float64(k) * h.Z})
			}
		}
	}

	T := make([][4]int, 0, 6*cells[0]*cells[1]*cells[2])
	for k := 0; k < cells[2]; k++ {
		for j := 0; j < cells[1]; j++ {
			for i := 0; i < cells[0]; i++ {
				for _, path := range kuhnPaths {
					c := [3]int{i, j, k}
					var tet [4]int
					tet[0] = vid(c[0], c[1], c[2])
					for s, axis := range path {
						c[axis]++
						tet[s+1] = vid(c[0], c[1], c[2])
					}
					T = append(T, tet)
				}
			}
		}
	}
	return NewTetMesh(V, T)
}
