package element

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

const (
	DefaultYoung   = 1.e4 // Pa
	DefaultPoisson = 0.48 // Nearly incompressible, rubber-like
	DefaultDensity = 5000 // kg/m³
)

// Material is an isotropic linear-elastic solid
type Material struct {
	Young   float64 `yaml:"young" toml:"young"`
	Poisson float64 `yaml:"poisson" toml:"poisson"`
	Density float64 `yaml:"density" toml:"density"`
}

// DefaultMaterial returns the default material parameters
func DefaultMaterial() Material {
	return Material{Young: DefaultYoung, Poisson: DefaultPoisson, Density: DefaultDensity}
}

func (m Material) Validate() error {
	if !(m.Young > 0) {
		return fmt.Errorf("young's modulus must be positive, got %g", m.Young)
	}
	if !(m.Poisson > -1 && m.Poisson < 0.5) {
		return fmt.Errorf("poisson ratio must lie in (-1, 0.5), got %g", m.Poisson)
	}
	if !(m.Density > 0) {
		return fmt.Errorf("density must be positive, got %g", m.Density)
	}
	return nil
}

// Lame returns the Lamé parameters λ and μ
func (m Material) Lame() (lambda, mu float64) {
	E, nu := m.Young, m.Poisson
	lambda = E * nu / ((1 + nu) * (1 - 2*nu))
	mu = E / (2 * (1 + nu))
	return
}

// Constitutive returns the 6×6 elasticity matrix in Voigt order
// (xx, yy, zz, yz, xz, xy) with engineering shear strains
func (m Material) Constitutive() *mat.SymDense {
	lambda, mu := m.Lame()
	D := mat.NewSymDense(6, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			D.SetSym(i, j, lambda)
		}
		D.SetSym(i, i, lambda+2*mu)
		D.SetSym(i+3, i+3, mu)
	}
	return D
}
