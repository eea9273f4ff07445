/*
Copyright © 2026 the Convect authors.
This file is part of Convect.

Convect is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Convect is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Convect.  If not, see <http://www.gnu.org/licenses/>.
*/

package convect

import (
	"fmt"
	"math"
)

// Scaling selects the non-dimensionalization of the governing equations.
type Scaling int

const (
	// ScalingViscous non-dimensionalizes time by the viscous diffusion
	// time: unit viscosity, thermal diffusivity 1/Pr, buoyancy Ra/Pr.
	ScalingViscous Scaling = iota
	// ScalingThermal non-dimensionalizes time by the thermal diffusion
	// time: viscosity Pr, unit thermal diffusivity, buoyancy Ra·Pr.
	ScalingThermal
)

// ParseScaling converts a tau selector string to a Scaling.
func ParseScaling(s string) (Scaling, error) {
	switch s {
	case "viscous":
		return ScalingViscous, nil
	case "thermal":
		return ScalingThermal, nil
	}
	return 0, fmt.Errorf("convect: invalid tau value %q, must be \"viscous\" or \"thermal\"", s)
}

func (s Scaling) String() string {
	switch s {
	case ScalingViscous:
		return "viscous"
	case ScalingThermal:
		return "thermal"
	}
	return fmt.Sprintf("Scaling(%d)", int(s))
}

// TempBC is a thermal boundary condition applied at one of the walls.
type TempBC int

const (
	// TempInsulating holds the vertical temperature gradient at zero.
	TempInsulating TempBC = iota
	// TempVanishing holds the temperature at zero.
	TempVanishing
	// TempFixedFlux holds the vertical temperature gradient at -F.
	TempFixedFlux
)

// ParseTempBC converts a thermal boundary selector string to a TempBC.
func ParseTempBC(s string) (TempBC, error) {
	switch s {
	case "insulating":
		return TempInsulating, nil
	case "vanishing":
		return TempVanishing, nil
	case "fixed_flux":
		return TempFixedFlux, nil
	}
	return 0, fmt.Errorf("convect: invalid boundary condition %q, must be 'insulating', 'vanishing' or 'fixed_flux'", s)
}

func (b TempBC) String() string {
	switch b {
	case TempInsulating:
		return "insulating"
	case TempVanishing:
		return "vanishing"
	case TempFixedFlux:
		return "fixed_flux"
	}
	return fmt.Sprintf("TempBC(%d)", int(b))
}

// SlipBC is the velocity boundary condition applied at both walls.
type SlipBC int

const (
	// FreeSlip holds the tangential velocity gradient and the normal
	// velocity at zero.
	FreeSlip SlipBC = iota
	// NoSlip holds all velocity components at zero.
	NoSlip
)

// ParseSlipBC converts a slip selector string to a SlipBC.
func ParseSlipBC(s string) (SlipBC, error) {
	switch s {
	case "free":
		return FreeSlip, nil
	case "no":
		return NoSlip, nil
	}
	return 0, fmt.Errorf("convect: invalid slip condition %q, must be 'no' or 'free'", s)
}

func (b SlipBC) String() string {
	switch b {
	case FreeSlip:
		return "free slip"
	case NoSlip:
		return "no slip"
	}
	return fmt.Sprintf("SlipBC(%d)", int(b))
}

// EquationCoefficients are the non-dimensional prefactors of the governing
// equations under the active scaling.
type EquationCoefficients struct {
	Viscosity   float64 // momentum diffusion
	Diffusivity float64 // thermal diffusion
	Buoyancy    float64 // thermal buoyancy forcing
	Coriolis    float64 // rotation forcing
	HeatScale   float64 // internal heating prefactor
}

// Coefficients maps the scaling variant and the physical numbers to the
// equation prefactors.
func (s Scaling) Coefficients(ra, pr, ta float64) EquationCoefficients {
	tah := math.Sqrt(ta)
	switch s {
	case ScalingThermal:
		return EquationCoefficients{
			Viscosity:   pr,
			Diffusivity: 1,
			Buoyancy:    ra * pr,
			Coriolis:    tah / pr,
			HeatScale:   1,
		}
	default: // viscous
		return EquationCoefficients{
			Viscosity:   1,
			Diffusivity: 1 / pr,
			Buoyancy:    ra / pr,
			Coriolis:    tah,
			HeatScale:   1 / pr,
		}
	}
}

// EquationSet describes the coupled system to be solved: the scaling
// variant, the boundary conditions, and the physical numbers.
type EquationSet struct {
	Scaling     Scaling
	Top, Bottom TempBC
	Slip        SlipBC

	Ra, Pr, Ta float64

	// Theta is the co-latitude of the box relative to the rotation
	// vector, in degrees.
	Theta float64

	// Flux is the non-dimensional heat flux F entering fixed-flux
	// boundaries and the heating profile normalization.
	Flux float64
}

// Assemble returns a function that installs the equation coefficients,
// the rotation vector and the boundary conditions on the domain. The
// buoyancy acts along z; the rotation vector for a box at co-latitude θ
// is (0, sin θ, cos θ).
func (e EquationSet) Assemble() DomainManipulator {
	return func(d *Convection) error {
		if e.Ra <= 0 {
			return fmt.Errorf("convect: Rayleigh number must be positive, got %g", e.Ra)
		}
		if e.Pr <= 0 {
			return fmt.Errorf("convect: Prandtl number must be positive, got %g", e.Pr)
		}
		d.Coef = e.Scaling.Coefficients(e.Ra, e.Pr, e.Ta)
		θ := e.Theta * math.Pi / 180
		d.Omega = [3]float64{0, math.Sin(θ), math.Cos(θ)}
		d.TopBC = e.Top
		d.BottomBC = e.Bottom
		d.Slip = e.Slip
		d.Flux = e.Flux
		return nil
	}
}

// ApplyBoundaries returns a function that enforces the wall conditions on
// the working fields after the interior update. The bottom wall is level
// 0 and the top wall is level Nz-1; both vanishing-temperature walls hold
// T = 0.
func ApplyBoundaries() DomainManipulator {
	return func(d *Convection) error {
		bottom, top := 0, d.Nz-1
		dz := d.Dz()
		d.Mesh.Each(d.Ny, func(jlo, jhi, ilo, ihi int) {
			for j := jlo; j < jhi; j++ {
				for i := ilo; i < ihi; i++ {
					bot := d.index(bottom, j, i)
					botIn := d.index(bottom+1, j, i)
					tp := d.index(top, j, i)
					tpIn := d.index(top-1, j, i)

					switch d.BottomBC {
					case TempVanishing:
						d.T.Elements[bot] = 0
					case TempFixedFlux:
						// (T[1]-T[0])/dz = -F
						d.T.Elements[bot] = d.T.Elements[botIn] + d.Flux*dz
					default: // insulating
						d.T.Elements[bot] = d.T.Elements[botIn]
					}
					switch d.TopBC {
					case TempVanishing:
						d.T.Elements[tp] = 0
					case TempFixedFlux:
						d.T.Elements[tp] = d.T.Elements[tpIn] - d.Flux*dz
					default: // insulating
						d.T.Elements[tp] = d.T.Elements[tpIn]
					}

					switch d.Slip {
					case NoSlip:
						d.U.Elements[bot], d.U.Elements[tp] = 0, 0
						d.V.Elements[bot], d.V.Elements[tp] = 0, 0
					default: // free slip: zero tangential gradient
						d.U.Elements[bot] = d.U.Elements[botIn]
						d.U.Elements[tp] = d.U.Elements[tpIn]
						d.V.Elements[bot] = d.V.Elements[botIn]
						d.V.Elements[tp] = d.V.Elements[tpIn]
					}
					// No flow through the walls under either condition.
					d.W.Elements[bot], d.W.Elements[tp] = 0, 0
				}
			}
		})
		return nil
	}
}
