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
	"testing"
)

func TestParseSelectors(t *testing.T) {
	if s, err := ParseScaling("viscous"); err != nil || s != ScalingViscous {
		t.Errorf("ParseScaling(viscous) = %v, %v", s, err)
	}
	if s, err := ParseScaling("thermal"); err != nil || s != ScalingThermal {
		t.Errorf("ParseScaling(thermal) = %v, %v", s, err)
	}
	if _, err := ParseScaling("diffusive"); err == nil {
		t.Error("expected an error for unknown scaling")
	}

	if b, err := ParseTempBC("fixed_flux"); err != nil || b != TempFixedFlux {
		t.Errorf("ParseTempBC(fixed_flux) = %v, %v", b, err)
	}
	if _, err := ParseTempBC("adiabatic"); err == nil {
		t.Error("expected an error for unknown boundary condition")
	}

	if b, err := ParseSlipBC("free"); err != nil || b != FreeSlip {
		t.Errorf("ParseSlipBC(free) = %v, %v", b, err)
	}
	if _, err := ParseSlipBC("partial"); err == nil {
		t.Error("expected an error for unknown slip condition")
	}
}

func TestCoefficients(t *testing.T) {
	const ra, pr, ta = 1e6, 7.0, 1e4

	c := ScalingViscous.Coefficients(ra, pr, ta)
	if c.Viscosity != 1 {
		t.Errorf("viscous scaling: viscosity = %g, want 1", c.Viscosity)
	}
	if absDifferent(c.Diffusivity, 1/pr, 1e-12) {
		t.Errorf("viscous scaling: diffusivity = %g, want %g", c.Diffusivity, 1/pr)
	}
	if absDifferent(c.Buoyancy, ra/pr, 1e-6) {
		t.Errorf("viscous scaling: buoyancy = %g, want %g", c.Buoyancy, ra/pr)
	}
	if absDifferent(c.Coriolis, math.Sqrt(ta), 1e-9) {
		t.Errorf("viscous scaling: coriolis = %g, want %g", c.Coriolis, math.Sqrt(ta))
	}
	if absDifferent(c.HeatScale, 1/pr, 1e-12) {
		t.Errorf("viscous scaling: heat scale = %g, want %g", c.HeatScale, 1/pr)
	}

	c = ScalingThermal.Coefficients(ra, pr, ta)
	if c.Viscosity != pr {
		t.Errorf("thermal scaling: viscosity = %g, want %g", c.Viscosity, pr)
	}
	if c.Diffusivity != 1 {
		t.Errorf("thermal scaling: diffusivity = %g, want 1", c.Diffusivity)
	}
	if absDifferent(c.Buoyancy, ra*pr, 1e-3) {
		t.Errorf("thermal scaling: buoyancy = %g, want %g", c.Buoyancy, ra*pr)
	}
	if absDifferent(c.Coriolis, math.Sqrt(ta)/pr, 1e-9) {
		t.Errorf("thermal scaling: coriolis = %g, want %g", c.Coriolis, math.Sqrt(ta)/pr)
	}
	if c.HeatScale != 1 {
		t.Errorf("thermal scaling: heat scale = %g, want 1", c.HeatScale)
	}
}

func TestAssemble(t *testing.T) {
	d, err := NewDomain(8, 9, 4, 1)
	if err != nil {
		t.Fatal(err)
	}
	e := EquationSet{
		Scaling: ScalingViscous,
		Top:     TempInsulating,
		Bottom:  TempInsulating,
		Slip:    FreeSlip,
		Ra:      1e5,
		Pr:      1,
		Ta:      1e4,
		Theta:   5,
		Flux:    1,
	}
	if err := e.Assemble()(d); err != nil {
		t.Fatal(err)
	}
	θ := 5 * math.Pi / 180
	if absDifferent(d.Omega[1], math.Sin(θ), 1e-12) || absDifferent(d.Omega[2], math.Cos(θ), 1e-12) {
		t.Errorf("rotation vector = %v", d.Omega)
	}
	if d.Omega[0] != 0 {
		t.Errorf("rotation vector has x component %g", d.Omega[0])
	}

	e.Ra = 0
	if err := e.Assemble()(d); err == nil {
		t.Error("expected an error for Ra = 0")
	}
	e.Ra, e.Pr = 1e5, -1
	if err := e.Assemble()(d); err == nil {
		t.Error("expected an error for negative Pr")
	}
}

func TestApplyBoundaries(t *testing.T) {
	d, err := NewDomain(8, 9, 4, 1)
	if err != nil {
		t.Fatal(err)
	}
	d.Mesh = DefaultMesh(4)
	for idx := range d.T.Elements {
		d.T.Elements[idx] = 1
		d.U.Elements[idx] = 2
		d.V.Elements[idx] = 3
		d.W.Elements[idx] = 4
	}
	d.BottomBC = TempFixedFlux
	d.TopBC = TempVanishing
	d.Slip = NoSlip
	d.Flux = 1

	if err := ApplyBoundaries()(d); err != nil {
		t.Fatal(err)
	}
	top := d.Nz - 1
	dz := d.Dz()
	for j := 0; j < d.Ny; j++ {
		for i := 0; i < d.Ny; i++ {
			if v := d.T.Get(0, j, i); absDifferent(v, 1+dz, 1e-12) {
				t.Fatalf("fixed-flux bottom temperature = %g, want %g", v, 1+dz)
			}
			if v := d.T.Get(top, j, i); v != 0 {
				t.Fatalf("vanishing top temperature = %g, want 0", v)
			}
			if d.U.Get(0, j, i) != 0 || d.V.Get(0, j, i) != 0 {
				t.Fatal("no-slip wall has tangential velocity")
			}
			if d.W.Get(0, j, i) != 0 || d.W.Get(top, j, i) != 0 {
				t.Fatal("wall has normal velocity")
			}
		}
	}

	d.Slip = FreeSlip
	d.BottomBC = TempInsulating
	if err := ApplyBoundaries()(d); err != nil {
		t.Fatal(err)
	}
	if v := d.U.Get(0, 3, 3); v != d.U.Get(1, 3, 3) {
		t.Errorf("free-slip wall velocity = %g, want %g", v, d.U.Get(1, 3, 3))
	}
	if v := d.T.Get(0, 3, 3); v != d.T.Get(1, 3, 3) {
		t.Errorf("insulating wall temperature = %g, want %g", v, d.T.Get(1, 3, 3))
	}
}
