package tetmesh

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/notargets/TetModes/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestSingleCube(t *testing.T) {
	tm, err := NewBoxMesh([3]int{1, 1, 1}, r3.Vec{X: 1, Y: 1, Z: 1})
	require.NoError(t, err)

	assert.Len(t, tm.Vertices, 8)
	assert.Len(t, tm.Tets, 6)
	assert.Len(t, tm.Surface, 12)
	assert.Equal(t, 8, tm.NumSurfaceVertices)
	assert.Equal(t, 24, tm.NumDOF())
	assert.InDelta(t, 1., tm.Volume(), 1.e-14)
	assert.Contains(t, tm.String(), "Number of tets: 6")
}

func TestSurfaceOrientedOutward(t *testing.T) {
	tm, err := NewBoxMesh([3]int{2, 1, 2}, r3.Vec{X: 2, Y: 1, Z: 3})
	require.NoError(t, err)

	center := r3.Vec{X: 1, Y: 0.5, Z: 1.5}
	for f, tri := range tm.Surface {
		a, b, c := tm.Vertices[tri[0]], tm.Vertices[tri[1]], tm.Vertices[tri[2]]
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		mid := r3.Scale(1./3., r3.Add(a, r3.Add(b, c)))
		assert.Greater(t, r3.Dot(n, r3.Sub(mid, center)), 0., "face %d", f)
	}
}

func TestInteriorVerticesMoveLast(t *testing.T) {
	tm, err := NewBoxMesh([3]int{2, 2, 2}, r3.Vec{X: 1, Y: 1, Z: 1})
	require.NoError(t, err)

	require.Len(t, tm.Vertices, 27)
	assert.Equal(t, 26, tm.NumSurfaceVertices)
	assert.Len(t, tm.Surface, 48)
	assert.InDelta(t, 0., r3.Norm(r3.Sub(tm.Vertices[26], r3.Vec{X: 0.5, Y: 0.5, Z: 0.5})), 1.e-15)

	// Input vertex 13 is the cube center
	assert.Equal(t, 26, tm.FromOriginal[13])
	assert.Equal(t, 13, tm.FromOriginal[14])
	assert.Len(t, tm.SurfaceVertices(), 26)

	for _, tri := range tm.Surface {
		for _, v := range tri {
			assert.Less(t, v, tm.NumSurfaceVertices)
		}
	}
}

func TestFanMeshReordering(t *testing.T) {
	V := []r3.Vec{
		{X: 0.25, Y: 0.25, Z: 0.25}, // interior
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1},
		{X: 9, Y: 9, Z: 9}, // unreferenced
	}
	T := [][4]int{
		{1, 2, 3, 0},
		{1, 2, 0, 4},
		{1, 0, 3, 4},
		{0, 2, 3, 4},
	}
	tm, err := NewTetMesh(V, T)
	require.NoError(t, err)

	assert.Len(t, tm.Vertices, 5)
	assert.Equal(t, 4, tm.NumSurfaceVertices)
	assert.Len(t, tm.Surface, 4)
	assert.Equal(t, []int{4, 0, 1, 2, 3, -1}, tm.FromOriginal)
	assert.Equal(t, V[0], tm.Vertices[4])
	assert.InDelta(t, 1./6., tm.Volume(), 1.e-15)

	idx, err := tm.MapOriginal([]int{0, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 1}, idx)

	var unsupported *utils.UnsupportedConstraintSpecError
	_, err = tm.MapOriginal([]int{5})
	assert.True(t, errors.As(err, &unsupported))
	_, err = tm.MapOriginal([]int{-1})
	assert.True(t, errors.As(err, &unsupported))
}

func TestNonManifoldFace(t *testing.T) {
	V := []r3.Vec{
		{}, {X: 1}, {Y: 1}, {Z: 1}, {Z: -1}, {X: 1, Y: 1, Z: 1},
	}
	T := [][4]int{{0, 1, 2, 3}, {0, 1, 2, 4}, {0, 1, 2, 5}}
	_, err := NewTetMesh(V, T)
	assert.Error(t, err)
}

func TestInvalidInput(t *testing.T) {
	_, err := NewTetMesh([]r3.Vec{{}}, nil)
	assert.Error(t, err)

	_, err = NewTetMesh([]r3.Vec{{}, {X: 1}, {Y: 1}}, [][4]int{{0, 1, 2, 3}})
	assert.Error(t, err)

	_, err = NewBoxMesh([3]int{1, 0, 1}, r3.Vec{X: 1, Y: 1, Z: 1})
	assert.Error(t, err)
}

func TestNewTetMeshWithSurface(t *testing.T) {
	V := []r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}}
	T := [][4]int{{0, 1, 2, 3}}

	tm, err := NewTetMeshWithSurface(V, T, [][3]int{{3, 1, 2}})
	require.NoError(t, err)
	assert.Equal(t, 3, tm.NumSurfaceVertices)
	assert.Equal(t, [3]int{2, 0, 1}, tm.Surface[0])
	assert.Equal(t, 3, tm.FromOriginal[0])

	_, err = NewTetMeshWithSurface(V, T, [][3]int{{0, 1, 7}})
	assert.Error(t, err)
}

func TestMatchSurface(t *testing.T) {
	V := []r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}}
	tris := []Triangle{
		{{X: 1e-9}, {X: 1}, {Y: 1, Z: 1e-9}},
		{{X: 1}, {Y: 1}, {Z: 1}},
	}
	F, err := MatchSurface(V, tris)
	require.NoError(t, err)
	assert.Equal(t, [][3]int{{0, 1, 2}, {1, 2, 3}}, F)

	_, err = MatchSurface(V, []Triangle{{{X: 0.5}, {X: 1}, {Y: 1}}})
	assert.Error(t, err)
}

const asciiSTL = `solid tet
facet normal 0 0 -1
  outer loop
    vertex 0 0 0
    vertex 0 1 0
    vertex 1 0 0
  endloop
endfacet
facet normal 0 -1 0
  outer loop
    vertex 0 0 0
    vertex 1 0 0
    vertex 0 0 1
  endloop
endfacet
endsolid tet
`

func TestParseASCIISTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tet.stl")
	require.NoError(t, os.WriteFile(path, []byte(asciiSTL), 0o644))

	tris, err := ParseSTL(path)
	require.NoError(t, err)
	require.Len(t, tris, 2)
	assert.Equal(t, r3.Vec{Y: 1}, tris[0][1])
	assert.Equal(t, r3.Vec{Z: 1}, tris[1][2])
}

func TestParseBinarySTL(t *testing.T) {
	var buf strings.Builder
	header := make([]byte, 80)
	copy(header, "solid but actually binary")
	buf.Write(header)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(1)))
	facet := struct {
		Normal    [3]float32
		V         [3][3]float32
		Attribute uint16
	}{
		Normal: [3]float32{0, 0, 1},
		V:      [3][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 0.5, 0}},
	}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, facet))

	path := filepath.Join(t.TempDir(), "tri.stl")
	require.NoError(t, os.WriteFile(path, []byte(buf.String()), 0o644))

	tris, err := ParseSTL(path)
	require.NoError(t, err)
	require.Len(t, tris, 1)
	assert.Equal(t, r3.Vec{Y: 0.5}, tris[0][2])
}

func TestLoadMissingCompanion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part.stl")
	require.NoError(t, os.WriteFile(path, []byte(asciiSTL), 0o644))

	_, err := Load(path)
	var missing *utils.MissingCompanionMeshError
	require.True(t, errors.As(err, &missing), "got %v", err)
	assert.Equal(t, path, missing.Path)
	assert.Equal(t, CompanionPaths(path), missing.Tried)
	assert.True(t, strings.HasSuffix(missing.Tried[0], "part.msh"))
}

func TestLoadUnsupportedFormat(t *testing.T) {
	_, err := Load("mesh.obj")
	assert.Error(t, err)
}
