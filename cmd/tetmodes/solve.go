package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/notargets/TetModes/config"
	"github.com/notargets/TetModes/constraints"
	"github.com/notargets/TetModes/modal"
	"github.com/notargets/TetModes/modalio"
	"github.com/notargets/TetModes/tetmesh"
	"github.com/notargets/TetModes/watcher"
	"github.com/spf13/cobra"
)

// solveFlags override values read from --config
type solveFlags struct {
	output      string
	configPath  string
	modes       int
	fix         []int
	boxes       []string
	young       float64
	density     float64
	strictRigid bool
	workers     int
	watch       bool
}

var solveOpts solveFlags

var solveCmd = &cobra.Command{
	Use:   "solve <mesh>",
	Short: "Compute the modal basis of a mesh file",
	Long: `Compute the modal basis of a volumetric mesh (.msh, .neu, .su2) or of an STL
surface with a volumetric companion of the same base name.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSolve(cmd, &solveOpts, args[0])
	},
}

func init() {
	addSolveFlags(solveCmd, &solveOpts)
	solveCmd.Flags().BoolVar(&solveOpts.watch, "watch", false, "Recompute whenever the mesh or config file changes")
	rootCmd.AddCommand(solveCmd)
}

func addSolveFlags(cmd *cobra.Command, f *solveFlags) {
	def := config.Default()
	flags := cmd.Flags()
	flags.StringVarP(&f.output, "output", "o", "", "Output record path (sidecar is written to <output>.meta.yaml)")
	flags.StringVar(&f.configPath, "config", "", "YAML or TOML config file")
	flags.IntVar(&f.modes, "modes", def.Modes, "Number of vibration modes")
	flags.IntSliceVar(&f.fix, "fix", nil, "Fixed vertex indices of the input mesh")
	flags.StringArrayVar(&f.boxes, "box", nil, "Fixed region minx,miny,minz,maxx,maxy,maxz (repeatable)")
	flags.Float64Var(&f.young, "young", def.Young, "Young's modulus in Pa")
	flags.Float64Var(&f.density, "density", def.Density, "Density in kg/m³")
	flags.BoolVar(&f.strictRigid, "strict-rigid", def.StrictRigidModes, "Fail when discarded rigid modes are not numerically zero")
	flags.IntVar(&f.workers, "workers", def.Workers, "Assembly goroutines, 0 for GOMAXPROCS")
	_ = cmd.MarkFlagRequired("output")
}

// buildConfig reads the config file, if any, and applies explicitly set flags
func buildConfig(cmd *cobra.Command, f *solveFlags) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("modes") {
		cfg.Modes = f.modes
	}
	// Constraint flags replace the file's constraint spec as a whole
	if flags.Changed("fix") || flags.Changed("box") {
		cfg.FixedVertices = f.fix
		cfg.FixedBoxes = nil
		for _, s := range f.boxes {
			b, err := parseBox(s)
			if err != nil {
				return cfg, err
			}
			cfg.FixedBoxes = append(cfg.FixedBoxes, b)
		}
	}
	if flags.Changed("young") {
		cfg.Young = f.young
	}
	if flags.Changed("density") {
		cfg.Density = f.density
	}
	if flags.Changed("strict-rigid") {
		cfg.StrictRigidModes = f.strictRigid
	}
	if flags.Changed("workers") {
		cfg.Workers = f.workers
	}
	return cfg, cfg.Validate()
}

func parseBox(s string) (constraints.Box, error) {
	parts := strings.Split(s, ",")
	c := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return constraints.Box{}, fmt.Errorf("box %q: %w", s, err)
		}
		c[i] = v
	}
	return constraints.NewBox(c)
}

func runSolve(cmd *cobra.Command, f *solveFlags, meshPath string) error {
	solveFile := func() error {
		cfg, err := buildConfig(cmd, f)
		if err != nil {
			return err
		}
		mesh, err := tetmesh.Load(meshPath)
		if err != nil {
			return err
		}
		return computeAndWrite(mesh, cfg, meshPath, f.output)
	}

	if err := solveFile(); err != nil {
		if !f.watch {
			return err
		}
		logger.Error().Err(err).Msg("solve failed, waiting for changes")
	}
	if !f.watch {
		return nil
	}

	watched := []string{meshPath}
	if strings.EqualFold(filepath.Ext(meshPath), ".stl") {
		for _, p := range tetmesh.CompanionPaths(meshPath) {
			if _, err := os.Stat(p); err == nil {
				watched = append(watched, p)
			}
		}
	}
	if f.configPath != "" {
		watched = append(watched, f.configPath)
	}
	return watchAndRun(watched, func() {
		if err := solveFile(); err != nil {
			logger.Error().Err(err).Msg("solve failed, waiting for changes")
		}
	})
}

// computeAndWrite runs the pipeline and writes the record and its sidecar
func computeAndWrite(mesh *tetmesh.TetMesh, cfg config.Config, source, out string) error {
	runID := uuid.NewString()
	log := logger.With().Str("run", runID).Logger()
	start := time.Now()

	log.Info().Str("mesh", source).Int("vertices", len(mesh.Vertices)).Int("tets", len(mesh.Tets)).
		Int("modes", cfg.Modes).Msg("computing modal basis")

	basis, err := modal.Compute(modal.Input{
		Mesh:     mesh,
		Material: cfg.Material(),
		Selector: cfg.Selector(),
		Modes:    cfg.Modes,
		Workers:  cfg.Workers,
	}, cfg.SolverOptions(log))
	if err != nil {
		return err
	}

	rec, err := modalio.NewRecord(basis)
	if err != nil {
		return err
	}
	meta := modalio.NewMeta(basis, cfg.Material(), runID, source)
	if err := modalio.WriteOutput(out, rec, meta); err != nil {
		return err
	}

	log.Info().Str("output", out).Floats64("frequencies_hz", meta.FrequenciesHz).
		Dur("elapsed", time.Since(start)).Msg("wrote modal basis")
	return nil
}

// watchAndRun calls run after each debounced change to files until
// interrupted
func watchAndRun(files []string, run func()) error {
	fw, err := watcher.NewFileWatcher(250*time.Millisecond, logger)
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Watch(files...); err != nil {
		return err
	}
	fw.Start(func(changed []string) {
		logger.Info().Strs("changed", changed).Msg("inputs changed, recomputing")
		run()
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Strs("files", files).Msg("watching for changes")
	<-ctx.Done()
	return nil
}
