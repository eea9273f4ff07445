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

// Package convect implements a three-dimensional rotating Rayleigh-Bénard
// convection model in a Cartesian box. The box is periodic in both
// horizontal directions and bounded by walls at z=0 and z=Lz. Velocity,
// pressure and temperature evolve under buoyancy, rotation and an optional
// internal heating profile.
package convect

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
)

// Version gives the current model version.
const Version = "1.1.0"

// Convection holds the simulation domain: the field unknowns, the grid
// geometry, the assembled equation coefficients, and the functions that
// initialize, advance and finalize the model.
type Convection struct {
	// InitFuncs are functions to be run in order at the beginning
	// of the simulation.
	InitFuncs []DomainManipulator

	// RunFuncs are functions to be run in order during each iteration
	// of the main loop.
	RunFuncs []DomainManipulator

	// CleanupFuncs are functions to be run in order after the main
	// loop has finished, regardless of how it finished.
	CleanupFuncs []DomainManipulator

	// Ny and Nz are the horizontal and vertical grid resolutions.
	// The horizontal plane is Ny×Ny points.
	Ny, Nz int

	// Ly and Lz are the horizontal extent and the depth of the box.
	Ly, Lz float64

	// Field unknowns, shape (Nz, Ny, Ny), indexed (k, j, i) = (z, y, x).
	U *sparse.DenseArray // x velocity
	V *sparse.DenseArray // y velocity
	W *sparse.DenseArray // z velocity
	P *sparse.DenseArray // pressure
	T *sparse.DenseArray // temperature

	// Field values at the beginning of the current step. Operators read
	// these and accumulate into the working fields above.
	U0, V0, W0, T0 *sparse.DenseArray

	// Heat is the internal heating profile over the vertical grid,
	// length Nz.
	Heat *sparse.DenseArray

	// Coef holds the non-dimensional equation coefficients.
	Coef EquationCoefficients

	// Omega is the rotation axis unit vector (x, y, z components).
	Omega [3]float64

	// TopBC and BottomBC are the thermal wall conditions; Slip is the
	// velocity wall condition. Flux is the non-dimensional heat flux F
	// used by fixed-flux walls and the heating profile.
	TopBC, BottomBC TempBC
	Slip            SlipBC
	Flux            float64

	// Dt is the current timestep.
	Dt float64

	// SimTime is the current simulation time.
	SimTime float64

	// StopTime is the simulation time at which the run finishes.
	StopTime float64

	// Iteration counts completed steps, including steps completed by a
	// previous run when restarting. StartIteration is the value of
	// Iteration when this run began.
	Iteration, StartIteration int

	// Mesh partitions the horizontal plane among workers.
	Mesh *Mesh

	// Done specifies whether the simulation is finished.
	Done bool
}

// DomainManipulator is a class of functions that operate on the entire
// model domain.
type DomainManipulator func(d *Convection) error

// PointManipulator is a class of functions that operate on a single grid
// point, given its (k, j, i) index and the timestep.
type PointManipulator func(d *Convection, k, j, i int, Δt float64)

// Init initializes the model, running d.InitFuncs in order.
func (d *Convection) Init() error {
	for _, f := range d.InitFuncs {
		if err := f(d); err != nil {
			return err
		}
	}
	return nil
}

// Run repeatedly runs d.RunFuncs in order until d.Done is true or one of
// them returns an error.
func (d *Convection) Run() error {
	for !d.Done {
		for _, f := range d.RunFuncs {
			if err := f(d); err != nil {
				return err
			}
		}
	}
	return nil
}

// Cleanup finalizes the model by running d.CleanupFuncs in order.
func (d *Convection) Cleanup() error {
	for _, f := range d.CleanupFuncs {
		if err := f(d); err != nil {
			return err
		}
	}
	return nil
}

// NewDomain allocates the field unknowns for the given geometry.
func NewDomain(ny, nz int, ly, lz float64) (*Convection, error) {
	if ny < 4 || nz < 4 {
		return nil, fmt.Errorf("convect: resolution %d×%d is too coarse", ny, nz)
	}
	if ly <= 0 || lz <= 0 {
		return nil, fmt.Errorf("convect: domain extents must be positive, got Ly=%g, Lz=%g", ly, lz)
	}
	d := &Convection{
		Ny: ny,
		Nz: nz,
		Ly: ly,
		Lz: lz,
	}
	d.U = sparse.ZerosDense(nz, ny, ny)
	d.V = sparse.ZerosDense(nz, ny, ny)
	d.W = sparse.ZerosDense(nz, ny, ny)
	d.P = sparse.ZerosDense(nz, ny, ny)
	d.T = sparse.ZerosDense(nz, ny, ny)
	d.U0 = sparse.ZerosDense(nz, ny, ny)
	d.V0 = sparse.ZerosDense(nz, ny, ny)
	d.W0 = sparse.ZerosDense(nz, ny, ny)
	d.T0 = sparse.ZerosDense(nz, ny, ny)
	d.Heat = sparse.ZerosDense(nz)
	return d, nil
}

// Dy returns the horizontal grid spacing. The horizontal directions are
// periodic, so Ny points span [0, Ly).
func (d *Convection) Dy() float64 { return d.Ly / float64(d.Ny) }

// Dz returns the vertical grid spacing. The walls lie on the first and
// last grid points.
func (d *Convection) Dz() float64 { return d.Lz / float64(d.Nz-1) }

// Z returns the vertical coordinate of level k.
func (d *Convection) Z(k int) float64 { return float64(k) * d.Dz() }

// ZCoords returns the vertical coordinates of all levels.
func (d *Convection) ZCoords() []float64 {
	z := make([]float64, d.Nz)
	for k := range z {
		z[k] = d.Z(k)
	}
	return z
}

// index converts a (k, j, i) grid index to a flat array offset.
func (d *Convection) index(k, j, i int) int {
	return (k*d.Ny+j)*d.Ny + i
}

// wrap maps a horizontal index onto the periodic range [0, Ny).
func (d *Convection) wrap(i int) int {
	if i < 0 {
		return i + d.Ny
	}
	if i >= d.Ny {
		return i - d.Ny
	}
	return i
}

// BeginStep returns a function that records the state of the fields at
// the start of a step so that operators integrate from a consistent
// snapshot.
func BeginStep() DomainManipulator {
	return func(d *Convection) error {
		copy(d.U0.Elements, d.U.Elements)
		copy(d.V0.Elements, d.V.Elements)
		copy(d.W0.Elements, d.W.Elements)
		copy(d.T0.Elements, d.T.Elements)
		return nil
	}
}

// AdvanceTime returns a function that advances the simulation clock and
// the iteration counter, and marks the run as done once the stop time is
// reached.
func AdvanceTime() DomainManipulator {
	return func(d *Convection) error {
		d.SimTime += d.Dt
		d.Iteration++
		if d.SimTime >= d.StopTime {
			d.Done = true
		}
		return nil
	}
}

// MaxVelocity returns the maximum pointwise velocity magnitude over the
// whole domain. NaN and infinite values propagate so that a diverged
// field is visible in the result.
func (d *Convection) MaxVelocity() float64 {
	var o float64
	for idx, u := range d.U.Elements {
		v := d.V.Elements[idx]
		w := d.W.Elements[idx]
		speed := math.Sqrt(u*u + v*v + w*w)
		if math.IsNaN(speed) || math.IsInf(speed, 0) {
			return speed
		}
		if speed > o {
			o = speed
		}
	}
	return o
}

// Calculations returns a function that runs a series of point operators
// over all grid points, partitioned among the workers of the mesh.
func Calculations(calculators ...PointManipulator) DomainManipulator {
	return func(d *Convection) error {
		d.Mesh.Each(d.Ny, func(jlo, jhi, ilo, ihi int) {
			for k := 0; k < d.Nz; k++ {
				for j := jlo; j < jhi; j++ {
					for i := ilo; i < ihi; i++ {
						for _, f := range calculators {
							f(d, k, j, i, d.Dt)
						}
					}
				}
			}
		})
		return nil
	}
}
