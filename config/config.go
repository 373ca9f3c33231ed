package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/notargets/TetModes/constraints"
	"github.com/notargets/TetModes/element"
	"github.com/notargets/TetModes/modal"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const DefaultModes = 10

// Config holds the parameters of one basis computation
type Config struct {
	Modes int `yaml:"modes" toml:"modes"`

	// Fixed vertices come from indices into the input mesh or from boxes,
	// never both
	FixedVertices []int             `yaml:"fixed_vertices" toml:"fixed_vertices"`
	FixedBoxes    []constraints.Box `yaml:"fixed_boxes" toml:"fixed_boxes"`

	Young   float64 `yaml:"young" toml:"young"`     // Pa
	Density float64 `yaml:"density" toml:"density"` // kg/m³

	RigidModeTol     float64 `yaml:"rigid_mode_tol" toml:"rigid_mode_tol"`
	StrictRigidModes bool    `yaml:"strict_rigid_modes" toml:"strict_rigid_modes"`

	Workers int `yaml:"workers" toml:"workers"` // 0 uses GOMAXPROCS
}

// Default returns the configuration used when no file or flag overrides it
func Default() Config {
	return Config{
		Modes:        DefaultModes,
		Young:        element.DefaultYoung,
		Density:      element.DefaultDensity,
		RigidModeTol: modal.DefaultRigidModeTol,
	}
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) file over the defaults.
// Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return cfg, fmt.Errorf("parsing %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	default:
		return cfg, fmt.Errorf("unsupported config format: %s", ext)
	}
	return cfg, nil
}

// Validate checks parameter ranges and the constraint specification
func (c Config) Validate() error {
	if c.Modes < 1 {
		return fmt.Errorf("modes must be at least 1, got %d", c.Modes)
	}
	if err := c.Material().Validate(); err != nil {
		return err
	}
	if c.RigidModeTol < 0 {
		return fmt.Errorf("rigid mode tolerance must not be negative, got %g", c.RigidModeTol)
	}
	return c.Selector().Validate(-1)
}

// Material is the elastic material described by the configuration
func (c Config) Material() element.Material {
	return element.Material{Young: c.Young, Poisson: element.DefaultPoisson, Density: c.Density}
}

// Selector is the fixed-vertex specification
func (c Config) Selector() constraints.Selector {
	return constraints.Selector{
		FixedVertices: append([]int(nil), c.FixedVertices...),
		Boxes:         append([]constraints.Box(nil), c.FixedBoxes...),
	}
}

// SolverOptions are the eigensolver settings, logging to log
func (c Config) SolverOptions(log zerolog.Logger) modal.Options {
	opts := modal.DefaultOptions()
	if c.RigidModeTol > 0 {
		opts.RigidModeTol = c.RigidModeTol
	}
	opts.StrictRigidModes = c.StrictRigidModes
	opts.Logger = log
	return opts
}
