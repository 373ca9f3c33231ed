package modalio

import (
	"fmt"
	"os"
	"time"

	"github.com/notargets/TetModes/element"
	"github.com/notargets/TetModes/modal"
	"gopkg.in/yaml.v3"
)

// FormatVersion identifies the record layout described by a sidecar
const FormatVersion = "tetmodes-basis/1"

// Meta is the YAML sidecar written next to a record
type Meta struct {
	Format  string    `yaml:"format"`
	RunID   string    `yaml:"run_id"`
	Created time.Time `yaml:"created"`
	Source  string    `yaml:"source,omitempty"`

	Dims     Dims             `yaml:"dims"`
	Material element.Material `yaml:"material"`

	FixedDOFs        int       `yaml:"fixed_dofs"`
	Eigenvalues      []float64 `yaml:"eigenvalues"`
	FrequenciesHz    []float64 `yaml:"frequencies_hz"`
	RigidModeWarning bool      `yaml:"rigid_mode_warning,omitempty"`
}

// MetaPath is the sidecar location for a record written to out
func MetaPath(out string) string {
	return out + ".meta.yaml"
}

// NewMeta describes a basis computed from source with material mtl
func NewMeta(b *modal.Basis, mtl element.Material, runID, source string) Meta {
	return Meta{
		Format:  FormatVersion,
		RunID:   runID,
		Created: time.Now().UTC().Truncate(time.Second),
		Source:  source,
		Dims: Dims{
			NumSurfaceVertices: b.Mesh.NumSurfaceVertices,
			NumFaces:           len(b.Mesh.Surface),
			Modes:              b.NumModes(),
		},
		Material:         mtl,
		FixedDOFs:        len(b.DOFs.Fixed),
		Eigenvalues:      b.Eigenvalues,
		FrequenciesHz:    b.Frequencies(),
		RigidModeWarning: b.RigidModeWarning,
	}
}

func encodeMeta(m Meta) ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding metadata: %w", err)
	}
	return data, nil
}

// ReadMeta loads a sidecar
func ReadMeta(path string) (Meta, error) {
	var m Meta
	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parsing %s: %w", path, err)
	}
	if m.Format != FormatVersion {
		return m, fmt.Errorf("%s: unsupported format %q", path, m.Format)
	}
	return m, nil
}
