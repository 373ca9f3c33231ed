package main

import (
	"fmt"

	"github.com/notargets/TetModes/tetmesh"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <mesh>",
	Short: "Display a summary of a tetrahedral mesh",
	Long:  "Load a mesh the way solve does and print its topology and geometry.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mesh, err := tetmesh.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "File: %s\n\n%s", args[0], mesh)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
