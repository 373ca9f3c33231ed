package utils

import (
	"fmt"
)

// DOFConnector manages gather and scatter indices between the full DOF space
// of a mesh and the reduced space of its free DOFs
type DOFConnector struct {
	NumDOF  int // Size of the full space (3 * number of vertices)
	NumFree int // Size of the reduced space

	// Index maps
	LocalToGlobal []int // [local] → global DOF
	GlobalToLocal []int // [global] → local DOF, -1 for fixed DOFs
}

// NewDOFConnector creates a connector from an ascending list of free DOFs
func NewDOFConnector(numDOF int, free []int) (*DOFConnector, error) {
	if numDOF <= 0 {
		return nil, fmt.Errorf("invalid dimensions: numDOF=%d", numDOF)
	}
	if len(free) > numDOF {
		return nil, fmt.Errorf("free DOF count %d exceeds numDOF=%d", len(free), numDOF)
	}

	dc := &DOFConnector{
		NumDOF:        numDOF,
		NumFree:       len(free),
		LocalToGlobal: make([]int, len(free)),
		GlobalToLocal: make([]int, numDOF),
	}
	copy(dc.LocalToGlobal, free)

	for i := range dc.GlobalToLocal {
		dc.GlobalToLocal[i] = -1
	}
	for local, global := range free {
		if global < 0 || global >= numDOF {
			return nil, fmt.Errorf("free DOF %d out of range [0, %d)", global, numDOF)
		}
		if dc.GlobalToLocal[global] != -1 {
			return nil, fmt.Errorf("free DOF %d listed twice", global)
		}
		dc.GlobalToLocal[global] = local
	}

	if err := dc.Verify(); err != nil {
		return nil, err
	}
	return dc, nil
}

// IsFull reports whether every DOF is free
func (dc *DOFConnector) IsFull() bool {
	return dc.NumFree == dc.NumDOF
}

// Gather picks the free entries of a full-space vector
func (dc *DOFConnector) Gather(full []float64) []float64 {
	if len(full) != dc.NumDOF {
		panic(fmt.Sprintf("gather: vector length %d, expected %d", len(full), dc.NumDOF))
	}
	reduced := make([]float64, dc.NumFree)
	for local, global := range dc.LocalToGlobal {
		reduced[local] = full[global]
	}
	return reduced
}

// Scatter places reduced values into a new full-space vector, leaving fixed
// DOFs at exactly zero
func (dc *DOFConnector) Scatter(reduced []float64) []float64 {
	if len(reduced) != dc.NumFree {
		panic(fmt.Sprintf("scatter: vector length %d, expected %d", len(reduced), dc.NumFree))
	}
	full := make([]float64, dc.NumDOF)
	for local, global := range dc.LocalToGlobal {
		full[global] = reduced[local]
	}
	return full
}

// Verify checks index validity and that the two maps are inverses
func (dc *DOFConnector) Verify() error {
	// Verify 1: Local validity - every local index maps into the full space
	for local, global := range dc.LocalToGlobal {
		if global < 0 || global >= dc.NumDOF {
			return fmt.Errorf("invalid global index %d for local %d (max %d)",
				global, local, dc.NumDOF-1)
		}
	}

	// Verify 2: Correspondence - round trip through both maps
	var mapped int
	for global, local := range dc.GlobalToLocal {
		if local == -1 {
			continue
		}
		mapped++
		if local < 0 || local >= dc.NumFree || dc.LocalToGlobal[local] != global {
			return fmt.Errorf("map mismatch: global %d -> local %d", global, local)
		}
	}

	// Verify 3: Conservation - every free DOF is reachable
	if mapped != dc.NumFree {
		return fmt.Errorf("conservation error: %d mapped DOFs != %d free DOFs",
			mapped, dc.NumFree)
	}

	return nil
}
