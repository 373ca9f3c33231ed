package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/notargets/TetModes/constraints"
	"github.com/notargets/TetModes/utils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 10, cfg.Modes)
	assert.Equal(t, 1.e4, cfg.Young)
	assert.Equal(t, 5000., cfg.Density)
	assert.Equal(t, 1.e-6, cfg.RigidModeTol)
	assert.False(t, cfg.StrictRigidModes)
	assert.Empty(t, cfg.FixedVertices)
	assert.Empty(t, cfg.FixedBoxes)
	assert.NoError(t, cfg.Validate())

	mtl := cfg.Material()
	assert.Equal(t, 0.48, mtl.Poisson)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "run.yaml", `
modes: 4
young: 2.5e5
fixed_boxes:
  - min: [-1, -1, -1]
    max: [1, 0.1, 1]
strict_rigid_modes: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Modes)
	assert.Equal(t, 2.5e5, cfg.Young)
	assert.Equal(t, 5000., cfg.Density) // default kept
	assert.True(t, cfg.StrictRigidModes)
	assert.Equal(t, []constraints.Box{{Min: [3]float64{-1, -1, -1}, Max: [3]float64{1, 0.1, 1}}}, cfg.FixedBoxes)
	assert.NoError(t, cfg.Validate())

	opts := cfg.SolverOptions(zerolog.Nop())
	assert.True(t, opts.StrictRigidModes)
	assert.Equal(t, 1.e-6, opts.RigidModeTol)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "run.toml", `
modes = 6
density = 1200.0
fixed_vertices = [0, 4, 4]
rigid_mode_tol = 1e-4
workers = 2
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Modes)
	assert.Equal(t, 1200., cfg.Density)
	assert.Equal(t, []int{0, 4, 4}, cfg.FixedVertices)
	assert.Equal(t, 1.e-4, cfg.RigidModeTol)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, []int{0, 4, 4}, cfg.Selector().FixedVertices)
}

func TestLoadEmptyYAML(t *testing.T) {
	cfg, err := Load(writeFile(t, "empty.yml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeFile(t, "bad.yaml", "mode: 3\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.toml", "poisson = 0.3\n"))
	assert.ErrorContains(t, err, "poisson")

	_, err = Load(writeFile(t, "run.json", "{}"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Modes = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Young = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.FixedVertices = []int{1}
	cfg.FixedBoxes = []constraints.Box{{Max: [3]float64{1, 1, 1}}}
	var unsupported *utils.UnsupportedConstraintSpecError
	assert.True(t, errors.As(cfg.Validate(), &unsupported))

	cfg = Default()
	cfg.FixedVertices = []int{-2}
	assert.True(t, errors.As(cfg.Validate(), &unsupported))
}
