package modal

import (
	"fmt"
	"math"
	"time"

	"github.com/notargets/TetModes/assembly"
	"github.com/notargets/TetModes/constraints"
	"github.com/notargets/TetModes/element"
	"github.com/notargets/TetModes/tetmesh"
	"gonum.org/v1/gonum/mat"
)

// Input is one modal basis computation
type Input struct {
	Mesh     *tetmesh.TetMesh
	Material element.Material
	Selector constraints.Selector // FixedVertices index the mesh input, before reordering
	Modes    int
	Workers  int // Assembly goroutines, GOMAXPROCS when < 1
}

// Basis is everything a synthesizer needs from the precomputation
type Basis struct {
	Mesh        *tetmesh.TetMesh
	DOFs        *constraints.DOFSet
	Eigenvalues []float64
	*ModeShapes
	Rigid RigidBody
	UTMg  []float64

	RigidModeWarning bool
}

// NumModes is k, the number of retained modes
func (b *Basis) NumModes() int {
	_, k := b.U.Dims()
	return k
}

// SurfaceModes is the leading 3·n_S rows of U, the surface vertex block
func (b *Basis) SurfaceModes() *mat.Dense {
	_, k := b.U.Dims()
	return b.U.Slice(0, 3*b.Mesh.NumSurfaceVertices, 0, k).(*mat.Dense)
}

// Frequencies returns the natural frequencies ω/2π in Hz
func (b *Basis) Frequencies() []float64 {
	f := make([]float64, len(b.Eigenvalues))
	for i, l := range b.Eigenvalues {
		f[i] = math.Sqrt(math.Max(l, 0)) / (2 * math.Pi)
	}
	return f
}

// Compute assembles the mesh, solves for the requested modes and derives the
// normalized shapes, rigid body properties and modal gravity load
func Compute(in Input, opts Options) (*Basis, error) {
	log := opts.Logger
	if in.Mesh == nil {
		return nil, fmt.Errorf("no mesh")
	}
	mesh := in.Mesh

	sel := in.Selector
	if len(sel.FixedVertices) > 0 && mesh.FromOriginal != nil {
		// Indices arrive in input numbering
		if err := sel.Validate(len(mesh.FromOriginal)); err != nil {
			return nil, err
		}
		mapped, err := mesh.MapOriginal(sel.FixedVertices)
		if err != nil {
			return nil, err
		}
		sel.FixedVertices = mapped
	}
	dofs, err := sel.Resolve(mesh.Vertices, mesh.Surface)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("fixed", len(dofs.Fixed)).Int("free", len(dofs.Free)).Msg("resolved constraints")

	start := time.Now()
	sys, err := assembly.Assemble(mesh, in.Material, in.Workers)
	if err != nil {
		return nil, fmt.Errorf("assembly: %w", err)
	}
	log.Debug().Int("dof", sys.NumDOF()).Int("nnz", sys.K.NNZ()).
		Int("partitions", sys.Partitions.NumPartitions).Float64("imbalance", sys.Partitions.Imbalance).
		Dur("elapsed", time.Since(start)).
		Msg("assembled stiffness and mass")

	mass := sys.DOFMass()
	start = time.Now()
	pairs, err := Solve(sys.K, mass, dofs, in.Modes, opts)
	if err != nil {
		return nil, fmt.Errorf("eigensolve: %w", err)
	}
	log.Debug().Floats64("eigenvalues", pairs.Values).Dur("elapsed", time.Since(start)).Msg("solved modes")

	shapes, err := Normalize(pairs.Vectors, sys.K, mass)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}

	rigid, err := ComputeRigidBody(mesh.Vertices, VertexMasses(mass))
	if err != nil {
		return nil, fmt.Errorf("rigid body: %w", err)
	}
	log.Debug().Float64("mass", rigid.Mass).
		Floats64("com", []float64{rigid.COM.X, rigid.COM.Y, rigid.COM.Z}).Msg("rigid body properties")

	return &Basis{
		Mesh:             mesh,
		DOFs:             dofs,
		Eigenvalues:      pairs.Values,
		ModeShapes:       shapes,
		Rigid:            rigid,
		UTMg:             ProjectGravity(shapes.U, mass),
		RigidModeWarning: pairs.RigidModeWarning,
	}, nil
}
