package partitions

import (
	"fmt"
)

// PartitionBuilder splits a mesh's elements into a fixed number of blocks of
// consecutive elements
type PartitionBuilder struct {
	NumElements   int
	NumPartitions int // Requested partitions; clamped to [1, NumElements]
}

// BuildPartitions creates a partition layout
func (pb *PartitionBuilder) BuildPartitions() (*PartitionLayout, error) {
	if pb.NumElements <= 0 {
		return nil, fmt.Errorf("cannot partition %d elements", pb.NumElements)
	}

	numPartitions := pb.calculateNumPartitions()
	eToP := pb.partitionElements(numPartitions)
	partitions := createPartitions(eToP, numPartitions)

	kpartMax := 0
	for _, p := range partitions {
		if p.NumElements > kpartMax {
			kpartMax = p.NumElements
		}
	}

	layout := &PartitionLayout{
		Partitions:    partitions,
		KpartMax:      kpartMax,
		TotalElements: pb.NumElements,
		NumPartitions: numPartitions,
		EToP:          eToP,
	}

	if err := layout.ValidateLayout(); err != nil {
		return nil, fmt.Errorf("invalid partition layout: %w", err)
	}

	return layout, nil
}

// calculateNumPartitions clamps the requested count so no partition is empty
func (pb *PartitionBuilder) calculateNumPartitions() int {
	n := pb.NumPartitions
	if n < 1 {
		n = 1
	}
	if n > pb.NumElements {
		n = pb.NumElements
	}
	return n
}

// partitionElements assigns elements to partitions, the remainder spread
// over the leading partitions
func (pb *PartitionBuilder) partitionElements(numPartitions int) []int {
	eToP := make([]int, pb.NumElements)
	base, extra := pb.NumElements/numPartitions, pb.NumElements%numPartitions
	i := 0
	for p := 0; p < numPartitions; p++ {
		size := base
		if p < extra {
			size++
		}
		for j := 0; j < size; j++ {
			eToP[i] = p
			i++
		}
	}
	return eToP
}

// createPartitions builds partition structures from element assignments
func createPartitions(eToP []int, numPartitions int) []Partition {
	partitions := make([]Partition, numPartitions)
	for i := range partitions {
		partitions[i] = Partition{
			ID:       i,
			Elements: make([]int, 0),
		}
	}

	for elem, part := range eToP {
		partitions[part].Elements = append(partitions[part].Elements, elem)
		partitions[part].NumElements++
	}

	return partitions
}
