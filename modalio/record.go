package modalio

import (
	"fmt"
	"math"

	"github.com/notargets/TetModes/modal"
	"gonum.org/v1/gonum/mat"
)

// Record is the serialized modal basis. Field order is the on-disk order.
type Record struct {
	SV      [][3]float64 // Surface vertex positions, n_S
	SF      [][3]int32   // Surface triangles, 0-based, n_F
	Mi      []float64    // Generalized masses, k
	Mass    float64      // Total mass
	Inertia [9]float64   // Inertia tensor about the COM, row-major
	COM     [3]float64
	UTMg    []float64  // Modal gravity load, k
	Ki      []float64  // Generalized stiffnesses, k
	SU      *mat.Dense // Surface rows of U, 3·n_S × k
}

// Dims are the array extents a reader needs to decode a record
type Dims struct {
	NumSurfaceVertices int `yaml:"num_surface_vertices" toml:"num_surface_vertices"`
	NumFaces           int `yaml:"num_faces" toml:"num_faces"`
	Modes              int `yaml:"modes" toml:"modes"`
}

// ByteSize is the encoded length of a record with these extents
func (d Dims) ByteSize() int {
	const f64, i32 = 8, 4
	nS, nF, k := d.NumSurfaceVertices, d.NumFaces, d.Modes
	return f64*3*nS + i32*3*nF + f64*k + f64 + f64*9 + f64*3 + f64*k + f64*k + f64*3*nS*k
}

func (d Dims) validate() error {
	if d.NumSurfaceVertices < 1 || d.NumFaces < 1 || d.Modes < 1 {
		return fmt.Errorf("invalid record dimensions n_S=%d n_F=%d k=%d",
			d.NumSurfaceVertices, d.NumFaces, d.Modes)
	}
	return nil
}

// Dims reports the extents of the record
func (rec *Record) Dims() Dims {
	return Dims{NumSurfaceVertices: len(rec.SV), NumFaces: len(rec.SF), Modes: len(rec.Mi)}
}

// Validate checks every field agrees with the record's extents
func (rec *Record) Validate() error {
	d := rec.Dims()
	if err := d.validate(); err != nil {
		return err
	}
	if len(rec.UTMg) != d.Modes || len(rec.Ki) != d.Modes {
		return fmt.Errorf("modal vectors disagree: Mi %d, UTMg %d, Ki %d",
			d.Modes, len(rec.UTMg), len(rec.Ki))
	}
	if rec.SU == nil {
		return fmt.Errorf("missing surface mode matrix")
	}
	if r, c := rec.SU.Dims(); r != 3*d.NumSurfaceVertices || c != d.Modes {
		return fmt.Errorf("surface mode matrix is %d×%d, want %d×%d",
			r, c, 3*d.NumSurfaceVertices, d.Modes)
	}
	for f, tri := range rec.SF {
		for _, v := range tri {
			if v < 0 || int(v) >= d.NumSurfaceVertices {
				return fmt.Errorf("surface triangle %d references vertex %d outside [0, %d)",
					f, v, d.NumSurfaceVertices)
			}
		}
	}
	return nil
}

// NewRecord extracts the serialized fields from a computed basis
func NewRecord(b *modal.Basis) (*Record, error) {
	mesh := b.Mesh
	nS := mesh.NumSurfaceVertices
	if nS > math.MaxInt32 {
		return nil, fmt.Errorf("%d surface vertices exceed int32 face indices", nS)
	}

	rec := &Record{
		SV:      make([][3]float64, nS),
		SF:      make([][3]int32, len(mesh.Surface)),
		Mi:      append([]float64(nil), b.Mi...),
		Mass:    b.Rigid.Mass,
		Inertia: b.Rigid.InertiaRowMajor(),
		COM:     [3]float64{b.Rigid.COM.X, b.Rigid.COM.Y, b.Rigid.COM.Z},
		UTMg:    append([]float64(nil), b.UTMg...),
		Ki:      append([]float64(nil), b.Ki...),
		SU:      mat.DenseCopyOf(b.SurfaceModes()),
	}
	for i, v := range mesh.SurfaceVertices() {
		rec.SV[i] = [3]float64{v.X, v.Y, v.Z}
	}
	for f, tri := range mesh.Surface {
		rec.SF[f] = [3]int32{int32(tri[0]), int32(tri[1]), int32(tri[2])}
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}
