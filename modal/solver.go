package modal

import (
	"fmt"
	"math"
	"sort"

	"github.com/james-bowman/sparse"
	"github.com/notargets/TetModes/assembly"
	"github.com/notargets/TetModes/constraints"
	"github.com/notargets/TetModes/utils"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// NumRigidModes is the dimension of the rigid-body null space of an
// unconstrained solid: three translations and three rotations
const NumRigidModes = 6

const (
	DefaultRigidModeTol = 1.e-6
	DefaultNegativeTol  = 1.e-8
)

// GeneralizedEigensolver finds the n pairs of A φ = λ diag(mass) φ with the
// smallest |λ|, returned ascending by |λ| with one eigenvector per column
type GeneralizedEigensolver interface {
	Solve(A mat.Symmetric, mass []float64, n int) (values []float64, vectors *mat.Dense, err error)
}

// Options controls the modal solve
type Options struct {
	Solver GeneralizedEigensolver // DenseEigensolver when nil

	// Discarded rigid eigenvalues must satisfy |λ| <= RigidModeTol·|λ₇|
	RigidModeTol     float64
	StrictRigidModes bool // Fail instead of warn on a rigid-mode violation

	// Kept eigenvalues below -NegativeTol·max|λ| mark an indefinite system
	NegativeTol float64

	Logger zerolog.Logger
}

// DefaultOptions returns the solver defaults with logging disabled
func DefaultOptions() Options {
	return Options{
		Solver:       DenseEigensolver{},
		RigidModeTol: DefaultRigidModeTol,
		NegativeTol:  DefaultNegativeTol,
		Logger:       zerolog.Nop(),
	}
}

func (o Options) withDefaults() Options {
	if o.Solver == nil {
		o.Solver = DenseEigensolver{}
	}
	if o.RigidModeTol <= 0 {
		o.RigidModeTol = DefaultRigidModeTol
	}
	if o.NegativeTol <= 0 {
		o.NegativeTol = DefaultNegativeTol
	}
	return o
}

// Eigenpairs are the retained modes of a solve in the full DOF space
type Eigenpairs struct {
	Values  []float64  // λ = ω², ascending
	Vectors *mat.Dense // NumDOF × k, fixed DOF rows exactly zero

	// Rigid holds the discarded eigenvalues of an unconstrained solve
	Rigid            []float64
	RigidModeWarning bool
}

// Solve computes k vibration modes of (K, diag(mass)) restricted to the free
// DOFs. With every DOF free, k+6 pairs are computed and the six lowest are
// dropped as rigid-body modes.
func Solve(K *sparse.CSR, mass []float64, dofs *constraints.DOFSet, k int, opts Options) (*Eigenpairs, error) {
	opts = opts.withDefaults()
	log := opts.Logger

	if k < 1 {
		return nil, fmt.Errorf("mode count must be positive, got %d", k)
	}
	nDOF, c := K.Dims()
	if nDOF != c || nDOF != dofs.NumDOF || len(mass) != nDOF {
		return nil, fmt.Errorf("dimension mismatch: K %d×%d, mass %d, DOF set %d",
			nDOF, c, len(mass), dofs.NumDOF)
	}
	dc, err := utils.NewDOFConnector(nDOF, dofs.Free)
	if err != nil {
		return nil, err
	}

	unconstrained := dc.IsFull()
	want := k
	if unconstrained {
		want += NumRigidModes
	}
	if dc.NumFree < want {
		return nil, &utils.InsufficientDOFError{Free: dc.NumFree, Requested: want}
	}

	A := assembly.Restrict(K, dc)
	m := dc.Gather(mass)
	log.Debug().Int("free", dc.NumFree).Int("pairs", want).Bool("unconstrained", unconstrained).
		Msg("solving restricted eigenproblem")

	vals, vecs, err := opts.Solver.Solve(A, m, want)
	if err != nil {
		return nil, err
	}

	order := make([]int, want)
	for i := range order {
		order[i] = i
	}
	var rigid []float64
	if unconstrained {
		sort.SliceStable(order, func(a, b int) bool { return vals[order[a]] < vals[order[b]] })
		for _, j := range order[:NumRigidModes] {
			rigid = append(rigid, vals[j])
		}
		order = order[NumRigidModes:]
	}

	res := &Eigenpairs{
		Values:  make([]float64, k),
		Vectors: mat.NewDense(nDOF, k, nil),
		Rigid:   rigid,
	}
	maxAbs := 0.
	for _, v := range vals {
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}
	col := make([]float64, dc.NumFree)
	for j, src := range order {
		lambda := vals[src]
		if lambda < -opts.NegativeTol*maxAbs {
			return nil, &utils.IllConditionedSystemError{
				Reason: fmt.Sprintf("eigenvalue %d is negative (%g), stiffness is indefinite", j, lambda),
			}
		}
		res.Values[j] = lambda
		mat.Col(col, src, vecs)
		res.Vectors.SetCol(j, dc.Scatter(col))
	}

	if unconstrained {
		if err := checkRigidModes(rigid, res.Values[0], opts); err != nil {
			if opts.StrictRigidModes {
				return nil, err
			}
			log.Warn().Err(err).Msg("rigid-body modes are not well separated from the first vibration mode")
			res.RigidModeWarning = true
		}
	}
	return res, nil
}

// checkRigidModes verifies the six discarded eigenvalues are numerically
// zero next to the first kept one
func checkRigidModes(rigid []float64, first float64, opts Options) error {
	limit := opts.RigidModeTol * math.Abs(first)
	for i, v := range rigid {
		if math.Abs(v) > limit {
			return &utils.IllConditionedSystemError{
				Reason: fmt.Sprintf("discarded rigid mode %d has |λ| = %g > %g·|λ₇| = %g",
					i, math.Abs(v), opts.RigidModeTol, limit),
			}
		}
	}
	return nil
}

// DenseEigensolver reduces the generalized problem with a lumped mass to the
// standard symmetric one S A S y = λ y, S = diag(mass)^{-1/2}, φ = S y.
// It forms the full free-DOF matrix and computes every eigenpair, so memory
// is O(n²) and time O(n³) in the free DOF count n (3·vertices when
// unconstrained). Meshes beyond a few thousand vertices need a sparse
// iterative GeneralizedEigensolver passed through Options.Solver.
type DenseEigensolver struct{}

func (DenseEigensolver) Solve(A mat.Symmetric, mass []float64, n int) ([]float64, *mat.Dense, error) {
	dim := A.SymmetricDim()
	if len(mass) != dim {
		panic(fmt.Sprintf("eigensolver: mass length %d, matrix order %d", len(mass), dim))
	}
	if n < 1 || n > dim {
		return nil, nil, &utils.InsufficientDOFError{Free: dim, Requested: n}
	}

	s := make([]float64, dim)
	for i, m := range mass {
		if !(m > 0) || math.IsInf(m, 0) {
			return nil, nil, &utils.IllConditionedSystemError{
				Reason: fmt.Sprintf("mass of DOF %d is %g", i, m),
			}
		}
		s[i] = 1 / math.Sqrt(m)
	}

	B := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			v := s[i] * A.At(i, j) * s[j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, nil, &utils.IllConditionedSystemError{
					Reason: fmt.Sprintf("stiffness entry (%d, %d) is not finite", i, j),
				}
			}
			B.SetSym(i, j, v)
		}
	}

	var es mat.EigenSym
	if ok := es.Factorize(B, true); !ok {
		return nil, nil, &utils.IllConditionedSystemError{Reason: "symmetric eigendecomposition did not converge"}
	}
	all := es.Values(nil)
	var Y mat.Dense
	es.VectorsTo(&Y)

	order := make([]int, dim)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return math.Abs(all[order[a]]) < math.Abs(all[order[b]]) })

	values := make([]float64, n)
	vectors := mat.NewDense(dim, n, nil)
	for j, src := range order[:n] {
		values[j] = all[src]
		for i := 0; i < dim; i++ {
			vectors.Set(i, j, s[i]*Y.At(i, src))
		}
	}
	return values, vectors, nil
}
