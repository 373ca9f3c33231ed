package main

import (
	"fmt"

	"github.com/notargets/TetModes/tetmesh"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	demoOpts  solveFlags
	demoCells []int
	demoSize  []float64
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Compute the modal basis of a structured box mesh",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(demoCells) != 3 || len(demoSize) != 3 {
			return fmt.Errorf("--cells and --size need three values each")
		}
		cfg, err := buildConfig(cmd, &demoOpts)
		if err != nil {
			return err
		}
		mesh, err := tetmesh.NewBoxMesh([3]int{demoCells[0], demoCells[1], demoCells[2]},
			r3.Vec{X: demoSize[0], Y: demoSize[1], Z: demoSize[2]})
		if err != nil {
			return err
		}
		source := fmt.Sprintf("box %v cells, %v m", demoCells, demoSize)
		return computeAndWrite(mesh, cfg, source, demoOpts.output)
	},
}

func init() {
	addSolveFlags(demoCmd, &demoOpts)
	demoCmd.Flags().IntSliceVar(&demoCells, "cells", []int{2, 2, 2}, "Cells along x,y,z")
	demoCmd.Flags().Float64SliceVar(&demoSize, "size", []float64{0.1, 0.1, 0.1}, "Box extent along x,y,z in meters")
	rootCmd.AddCommand(demoCmd)
}
