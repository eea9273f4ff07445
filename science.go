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
	"math"

	"github.com/ctessum/atmos/advect"
)

// Advection returns a function that calculates the transport of momentum
// and temperature by the flow based on the upwind differences scheme.
func Advection() PointManipulator {
	return func(d *Convection, k, j, i int, Δt float64) {
		if k == 0 || k == d.Nz-1 {
			return
		}
		dy := d.Dy()
		dz := d.Dz()
		idx := d.index(k, j, i)
		west := d.index(k, j, d.wrap(i-1))
		east := d.index(k, j, d.wrap(i+1))
		south := d.index(k, d.wrap(j-1), i)
		north := d.index(k, d.wrap(j+1), i)
		below := d.index(k-1, j, i)
		above := d.index(k+1, j, i)

		for _, q := range []struct {
			cur, old []float64
		}{
			{d.U.Elements, d.U0.Elements},
			{d.V.Elements, d.V0.Elements},
			{d.W.Elements, d.W0.Elements},
			{d.T.Elements, d.T0.Elements},
		} {
			// Flux in through the west face, out through the east face.
			flux := advect.UpwindFlux(d.U0.Elements[idx], q.old[west], q.old[idx], dy) * Δt
			flux -= advect.UpwindFlux(d.U0.Elements[east], q.old[idx], q.old[east], dy) * Δt
			// South and north faces.
			flux += advect.UpwindFlux(d.V0.Elements[idx], q.old[south], q.old[idx], dy) * Δt
			flux -= advect.UpwindFlux(d.V0.Elements[north], q.old[idx], q.old[north], dy) * Δt
			// Bottom and top faces.
			flux += advect.UpwindFlux(d.W0.Elements[idx], q.old[below], q.old[idx], dz) * Δt
			flux -= advect.UpwindFlux(d.W0.Elements[above], q.old[idx], q.old[above], dz) * Δt
			q.cur[idx] += flux
		}
	}
}

// Diffusion returns a function that calculates viscous momentum diffusion
// and thermal diffusion with central differences, scaled by the active
// equation coefficients.
func Diffusion() PointManipulator {
	return func(d *Convection, k, j, i int, Δt float64) {
		if k == 0 || k == d.Nz-1 {
			return
		}
		dy2 := d.Dy() * d.Dy()
		dz2 := d.Dz() * d.Dz()
		idx := d.index(k, j, i)
		west := d.index(k, j, d.wrap(i-1))
		east := d.index(k, j, d.wrap(i+1))
		south := d.index(k, d.wrap(j-1), i)
		north := d.index(k, d.wrap(j+1), i)
		below := d.index(k-1, j, i)
		above := d.index(k+1, j, i)

		laplacian := func(q []float64) float64 {
			return (q[east]-2*q[idx]+q[west])/dy2 +
				(q[north]-2*q[idx]+q[south])/dy2 +
				(q[above]-2*q[idx]+q[below])/dz2
		}
		d.U.Elements[idx] += Δt * d.Coef.Viscosity * laplacian(d.U0.Elements)
		d.V.Elements[idx] += Δt * d.Coef.Viscosity * laplacian(d.V0.Elements)
		d.W.Elements[idx] += Δt * d.Coef.Viscosity * laplacian(d.W0.Elements)
		d.T.Elements[idx] += Δt * d.Coef.Diffusivity * laplacian(d.T0.Elements)
	}
}

// Buoyancy returns a function that applies the thermal buoyancy forcing
// to the vertical momentum.
func Buoyancy() PointManipulator {
	return func(d *Convection, k, j, i int, Δt float64) {
		if k == 0 || k == d.Nz-1 {
			return
		}
		idx := d.index(k, j, i)
		d.W.Elements[idx] += Δt * d.Coef.Buoyancy * d.T0.Elements[idx]
	}
}

// Coriolis returns a function that applies the rotation forcing
// -cor·(Ω × u) to the momentum.
func Coriolis() PointManipulator {
	return func(d *Convection, k, j, i int, Δt float64) {
		if k == 0 || k == d.Nz-1 {
			return
		}
		idx := d.index(k, j, i)
		u := d.U0.Elements[idx]
		v := d.V0.Elements[idx]
		w := d.W0.Elements[idx]
		cx := d.Omega[1]*w - d.Omega[2]*v
		cy := d.Omega[2]*u - d.Omega[0]*w
		cz := d.Omega[0]*v - d.Omega[1]*u
		f := Δt * d.Coef.Coriolis
		d.U.Elements[idx] -= f * cx
		d.V.Elements[idx] -= f * cy
		d.W.Elements[idx] -= f * cz
	}
}

// HeatSource returns a function that applies the internal heating profile
// to the temperature.
func HeatSource() PointManipulator {
	return func(d *Convection, k, j, i int, Δt float64) {
		if k == 0 || k == d.Nz-1 {
			return
		}
		idx := d.index(k, j, i)
		d.T.Elements[idx] += Δt * d.Coef.HeatScale * d.Heat.Elements[k]
	}
}

// PressureSolver projects the velocity field onto its divergence-free
// part after each explicit update. The pressure null space is fixed by
// removing the domain mean, so the domain integral of pressure is zero.
type PressureSolver struct {
	// MaxIterations bounds the successive over-relaxation sweeps of the
	// pressure Poisson solve.
	MaxIterations int
	// Tolerance is the maximum residual at which the sweep stops early.
	Tolerance float64
	// Relaxation is the over-relaxation factor.
	Relaxation float64
}

// NewPressureSolver returns a solver with the default sweep limits.
func NewPressureSolver() *PressureSolver {
	return &PressureSolver{
		MaxIterations: 200,
		Tolerance:     1e-6,
		Relaxation:    1.5,
	}
}

// Project returns a function that solves ∇²p = div(u)/Δt and subtracts
// Δt·∇p from the velocity, enforcing mass conservation.
func (s *PressureSolver) Project() DomainManipulator {
	return func(d *Convection) error {
		if d.Dt <= 0 {
			return nil
		}
		ny, nz := d.Ny, d.Nz
		dy := d.Dy()
		dz := d.Dz()
		p := d.P.Elements

		// Divergence of the provisional velocity.
		rhs := make([]float64, len(p))
		for k := 1; k < nz-1; k++ {
			for j := 0; j < ny; j++ {
				for i := 0; i < ny; i++ {
					idx := d.index(k, j, i)
					div := (d.U.Elements[d.index(k, j, d.wrap(i+1))]-d.U.Elements[d.index(k, j, d.wrap(i-1))])/(2*dy) +
						(d.V.Elements[d.index(k, d.wrap(j+1), i)]-d.V.Elements[d.index(k, d.wrap(j-1), i)])/(2*dy) +
						(d.W.Elements[d.index(k+1, j, i)]-d.W.Elements[d.index(k-1, j, i)])/(2*dz)
					rhs[idx] = div / d.Dt
				}
			}
		}

		cy := 1 / (dy * dy)
		cz := 1 / (dz * dz)
		diag := 4*cy + 2*cz
		for it := 0; it < s.MaxIterations; it++ {
			// Neumann condition at the walls.
			for j := 0; j < ny; j++ {
				for i := 0; i < ny; i++ {
					p[d.index(0, j, i)] = p[d.index(1, j, i)]
					p[d.index(nz-1, j, i)] = p[d.index(nz-2, j, i)]
				}
			}
			var residual float64
			for k := 1; k < nz-1; k++ {
				for j := 0; j < ny; j++ {
					for i := 0; i < ny; i++ {
						idx := d.index(k, j, i)
						sum := cy*(p[d.index(k, j, d.wrap(i+1))]+p[d.index(k, j, d.wrap(i-1))]) +
							cy*(p[d.index(k, d.wrap(j+1), i)]+p[d.index(k, d.wrap(j-1), i)]) +
							cz*(p[d.index(k+1, j, i)]+p[d.index(k-1, j, i)])
						next := (sum - rhs[idx]) / diag
						delta := next - p[idx]
						p[idx] += s.Relaxation * delta
						if r := math.Abs(delta); r > residual {
							residual = r
						}
					}
				}
			}
			if residual < s.Tolerance {
				break
			}
		}

		// Remove the null-space component: the pressure integrates to zero.
		var mean float64
		for _, v := range p {
			mean += v
		}
		mean /= float64(len(p))
		for idx := range p {
			p[idx] -= mean
		}

		// Correct the velocity with the pressure gradient.
		for k := 1; k < nz-1; k++ {
			for j := 0; j < ny; j++ {
				for i := 0; i < ny; i++ {
					idx := d.index(k, j, i)
					d.U.Elements[idx] -= d.Dt * (p[d.index(k, j, d.wrap(i+1))] - p[d.index(k, j, d.wrap(i-1))]) / (2 * dy)
					d.V.Elements[idx] -= d.Dt * (p[d.index(k, d.wrap(j+1), i)] - p[d.index(k, d.wrap(j-1), i)]) / (2 * dy)
					d.W.Elements[idx] -= d.Dt * (p[d.index(k+1, j, i)] - p[d.index(k-1, j, i)]) / (2 * dz)
				}
			}
		}
		return nil
	}
}
