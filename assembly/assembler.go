package assembly

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/james-bowman/sparse"
	"github.com/notargets/TetModes/element"
	"github.com/notargets/TetModes/partitions"
	"github.com/notargets/TetModes/tetmesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// System is the assembled linear-elastic model of a mesh
type System struct {
	K          *sparse.CSR // 3n×3n stiffness, exactly symmetric
	VertexMass []float64   // Lumped mass per vertex

	Partitions partitions.PartitionStats // Element split used for assembly
}

// DOFMass expands the vertex masses to one entry per DOF, x, y and z of a
// vertex sharing its mass
func (s *System) DOFMass() []float64 {
	m := make([]float64, 3*len(s.VertexMass))
	for i, mv := range s.VertexMass {
		m[3*i], m[3*i+1], m[3*i+2] = mv, mv, mv
	}
	return m
}

// NumDOF is the order of K
func (s *System) NumDOF() int {
	r, _ := s.K.Dims()
	return r
}

type triplet struct {
	i, j int
	v    float64
}

// partResult holds one partition's element contributions
type partResult struct {
	entries []triplet
	mass    []float64
	err     error
}

// Assemble builds K and the lumped vertex masses for linear tetrahedra.
// Elements are split into block partitions computed concurrently by up to
// workers goroutines (GOMAXPROCS when workers < 1); contributions are summed
// in partition order so the result does not depend on scheduling.
func Assemble(mesh *tetmesh.TetMesh, mtl element.Material, workers int) (*System, error) {
	if err := mtl.Validate(); err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	pb := &partitions.PartitionBuilder{
		NumElements:   len(mesh.Tets),
		NumPartitions: workers,
	}
	layout, err := pb.BuildPartitions()
	if err != nil {
		return nil, fmt.Errorf("partitioning elements: %w", err)
	}

	results := make([]partResult, layout.NumPartitions)
	var wg sync.WaitGroup
	for p := range layout.Partitions {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			results[p] = assemblePartition(mesh, mtl, layout.Partitions[p].Elements)
		}(p)
	}
	wg.Wait()

	nDOF := mesh.NumDOF()
	dok := sparse.NewDOK(nDOF, nDOF)
	vertexMass := make([]float64, len(mesh.Vertices))
	for _, res := range results {
		if res.err != nil {
			return nil, res.err
		}
		for _, e := range res.entries {
			dok.Set(e.i, e.j, dok.At(e.i, e.j)+e.v)
		}
		for i, m := range res.mass {
			vertexMass[i] += m
		}
	}

	return &System{
		K:          Symmetrize(dok.ToCSR()),
		VertexMass: vertexMass,
		Partitions: layout.PartitionStatistics(),
	}, nil
}

func assemblePartition(mesh *tetmesh.TetMesh, mtl element.Material, elems []int) partResult {
	res := partResult{
		entries: make([]triplet, 0, 144*len(elems)),
		mass:    make([]float64, len(mesh.Vertices)),
	}
	for _, k := range elems {
		tet := mesh.Tets[k]
		var x [4]r3.Vec
		for a, v := range tet {
			x[a] = mesh.Vertices[v]
		}
		el, err := element.NewTetLinear(tet, x)
		if err != nil {
			res.err = fmt.Errorf("element %d: %w", k, err)
			return res
		}
		res.add(el, mtl)
	}
	return res
}

// add accumulates one element's stiffness entries and nodal masses
func (res *partResult) add(el element.Element, mtl element.Material) {
	nodes := el.Nodes()
	dpn := el.GetProperties().DOFPerNode
	global := func(a int) int { return dpn*nodes[a/dpn] + a%dpn }

	Ke := el.Stiffness(mtl)
	n := Ke.SymmetricDim()
	for a := 0; a < n; a++ {
		gi := global(a)
		for b := 0; b < n; b++ {
			if v := Ke.At(a, b); v != 0 {
				res.entries = append(res.entries, triplet{gi, global(b), v})
			}
		}
	}
	for a, m := range el.LumpedMass(mtl) {
		res.mass[nodes[a]] += m
	}
}
