package tetmesh

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/notargets/TetModes/utils"
	"github.com/notargets/gocfd/DG3D/mesh"
	"github.com/notargets/gocfd/DG3D/mesh/readers"
	gocfdutils "github.com/notargets/gocfd/utils"
	"gonum.org/v1/gonum/spatial/r3"
)

// VolumetricExtensions are the mesh formats read through the gocfd readers,
// in the order companions of a surface mesh are looked for
var VolumetricExtensions = []string{".msh", ".neu", ".su2"}

// matchTol is the STL-to-volume vertex matching tolerance relative to the
// bounding box diagonal; binary STL stores float32 coordinates
const matchTol = 1.e-6

// Load reads a mesh by extension. A volumetric mesh is used whole with its
// boundary as the surface. An STL surface is paired with the volumetric mesh
// of the same base name, which must exist.
func Load(path string) (*TetMesh, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".stl":
		return loadWithCompanion(path)
	case ".msh", ".neu", ".su2":
		V, T, err := ReadVolumetric(path)
		if err != nil {
			return nil, err
		}
		return NewTetMesh(V, T)
	default:
		return nil, fmt.Errorf("unsupported mesh format: %s", ext)
	}
}

// ReadVolumetric reads the vertices and tetrahedra of a volumetric mesh file.
// Lower dimensional entities are skipped and quadratic tets keep their
// corner nodes.
func ReadVolumetric(path string) ([]r3.Vec, [][4]int, error) {
	msh, err := readers.ReadMeshFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	V := make([]r3.Vec, len(msh.Vertices))
	for i, v := range msh.Vertices {
		if len(v) < 3 {
			return nil, nil, fmt.Errorf("%s: vertex %d has %d coordinates, need 3", path, i, len(v))
		}
		V[i] = r3.Vec{X: v[0], Y: v[1], Z: v[2]}
	}

	T, err := volumeTets(msh)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return V, T, nil
}

// volumeTets pulls the tetrahedra out of a mixed element list
func volumeTets(msh *mesh.Mesh) ([][4]int, error) {
	if len(msh.ElementTypes) != len(msh.EtoV) {
		return nil, fmt.Errorf("%d element types for %d elements", len(msh.ElementTypes), len(msh.EtoV))
	}
	var T [][4]int
	for k, ev := range msh.EtoV {
		et := msh.ElementTypes[k]
		switch dim := et.GetDimension(); {
		case et == gocfdutils.Tet || et == gocfdutils.Tet10:
		case dim >= 0 && dim < 3:
			continue
		default:
			return nil, fmt.Errorf("element %d is %v, only tetrahedra are supported", k, et)
		}
		// Corner nodes come first for higher order tets
		corners := et.GetCornerNodes()
		if len(ev) < et.GetNumNodes() {
			return nil, fmt.Errorf("tetrahedron %d has %d nodes", k, len(ev))
		}
		T = append(T, [4]int{ev[corners[0]], ev[corners[1]], ev[corners[2]], ev[corners[3]]})
	}
	if len(T) == 0 {
		return nil, fmt.Errorf("mesh does not have any tets")
	}
	return T, nil
}

// CompanionPaths lists the volumetric meshes that may accompany a surface mesh
func CompanionPaths(surfacePath string) []string {
	base := strings.TrimSuffix(surfacePath, filepath.Ext(surfacePath))
	paths := make([]string, len(VolumetricExtensions))
	for i, ext := range VolumetricExtensions {
		paths[i] = base + ext
	}
	return paths
}

func loadWithCompanion(path string) (*TetMesh, error) {
	tris, err := ParseSTL(path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	tried := CompanionPaths(path)
	var companion string
	for _, p := range tried {
		if _, err := os.Stat(p); err == nil {
			companion = p
			break
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("checking companion %s: %w", p, err)
		}
	}
	if companion == "" {
		return nil, &utils.MissingCompanionMeshError{Path: path, Tried: tried}
	}

	V, T, err := ReadVolumetric(companion)
	if err != nil {
		return nil, err
	}
	F, err := MatchSurface(V, tris)
	if err != nil {
		return nil, fmt.Errorf("matching %s to %s: %w", path, companion, err)
	}
	return NewTetMeshWithSurface(V, T, F)
}

type cellKey [3]int64

// MatchSurface maps each STL corner onto the nearest volumetric vertex within
// tolerance and returns the triangles as vertex index triples
func MatchSurface(V []r3.Vec, tris []Triangle) ([][3]int, error) {
	if len(V) == 0 {
		return nil, fmt.Errorf("no volumetric vertices to match against")
	}
	tm := &TetMesh{Vertices: V}
	lo, hi := tm.BoundingBox()
	tol := matchTol * r3.Norm(r3.Sub(hi, lo))
	if tol == 0 {
		tol = matchTol
	}

	cellOf := func(p r3.Vec) cellKey {
		return cellKey{
			int64(math.Floor(p.X / tol)),
			int64(math.Floor(p.Y / tol)),
			int64(math.Floor(p.Z / tol)),
		}
	}
	grid := make(map[cellKey][]int, len(V))
	for i, v := range V {
		c := cellOf(v)
		grid[c] = append(grid[c], i)
	}

	nearest := func(p r3.Vec) int {
		best, bestDist := -1, tol
		c := cellOf(p)
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dz := int64(-1); dz <= 1; dz++ {
					for _, i := range grid[cellKey{c[0] + dx, c[1] + dy, c[2] + dz}] {
						if d := r3.Norm(r3.Sub(V[i], p)); d <= bestDist {
							best, bestDist = i, d
						}
					}
				}
			}
		}
		return best
	}

	F := make([][3]int, len(tris))
	for f, tri := range tris {
		for a, p := range tri {
			i := nearest(p)
			if i < 0 {
				return nil, fmt.Errorf("surface triangle %d corner %v has no volumetric vertex within %g", f, p, tol)
			}
			F[f][a] = i
		}
	}
	return F, nil
}
