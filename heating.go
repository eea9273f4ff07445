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

// HeatingScheme selects the internal heating and cooling profile applied
// to the temperature equation.
type HeatingScheme int

const (
	// HeatingNone applies no internal heating; convection is driven by
	// the boundaries alone.
	HeatingNone HeatingScheme = iota
	// HeatingZoned heats in a cosine-shaped zone above the bottom wall
	// and cools in a matching zone below the top wall.
	HeatingZoned
	// HeatingExponential heats with an exponential profile decaying away
	// from the bottom wall, balanced by uniform cooling.
	HeatingExponential
)

func (h HeatingScheme) String() string {
	switch h {
	case HeatingNone:
		return "none"
	case HeatingZoned:
		return "zoned"
	case HeatingExponential:
		return "exponential"
	}
	return fmt.Sprintf("HeatingScheme(%d)", int(h))
}

// Exponential profile constants: decay length, uniform cooling rate, and
// the heating amplitude that balances the two over a unit-depth layer.
const (
	expDecayLength = 0.1
	expCooling     = 1.0
)

func expAmplitude() float64 {
	return 1 / (0.1 * (1 - math.Exp(-1/expDecayLength)))
}

// Heating describes an internal heating profile over the layer depth.
type Heating struct {
	Scheme HeatingScheme

	// Flux is the non-dimensional heat flux F carried by the profile.
	Flux float64

	// Width is the heating zone width of the zoned scheme as a fraction
	// of the zone height.
	Width float64
}

// zonedGeometry returns the zone height H = Lz/(1+2w) and the heating
// band thickness Δ = wH.
func (h Heating) zonedGeometry(lz float64) (height, band float64) {
	height = lz / (1 + 2*h.Width)
	band = h.Width * height
	return height, band
}

// Profile returns the heating rate at height z in a layer of depth lz.
func (h Heating) Profile(z, lz float64) float64 {
	switch h.Scheme {
	case HeatingZoned:
		_, Δ := h.zonedGeometry(lz)
		switch {
		case z <= Δ:
			return h.Flux / Δ * (1 + math.Cos(2*math.Pi*(z-Δ/2)/Δ))
		case z >= lz-Δ:
			return h.Flux / Δ * (-1 - math.Cos(2*math.Pi*(z-lz+Δ/2)/Δ))
		}
		return 0
	case HeatingExponential:
		return expAmplitude()*math.Exp(-z/expDecayLength) - expCooling
	}
	return 0
}

// ConductionProfile returns the steady conductive temperature at height z
// in a layer of depth lz: the temperature field that balances the heating
// profile with no flow.
func (h Heating) ConductionProfile(z, lz float64) float64 {
	switch h.Scheme {
	case HeatingZoned:
		_, Δ := h.zonedGeometry(lz)
		switch {
		case z <= Δ:
			return h.Flux * (Δ/(4*math.Pi*math.Pi)*(1+math.Cos(2*math.Pi/Δ*(z-Δ/2))) -
				z*z/(2*Δ) + lz - Δ)
		case z >= lz-Δ:
			return h.Flux * (-Δ/(4*math.Pi*math.Pi)*(1+math.Cos(2*math.Pi/Δ*(z-lz+Δ/2))) +
				(z*z-2*lz*z+lz*lz)/(2*Δ))
		}
		return h.Flux * (-z + lz - Δ/2)
	case HeatingExponential:
		a, ℓ := expAmplitude(), expDecayLength
		return a*ℓ*ℓ*(math.Exp(-lz/ℓ)-math.Exp(-z/ℓ)) +
			0.5*expCooling*(z*z-lz*lz) + a*ℓ*(lz-z)
	}
	return lz - z
}

// Install returns a function that evaluates the heating profile on the
// vertical grid of the domain.
func (h Heating) Install() DomainManipulator {
	return func(d *Convection) error {
		if h.Scheme == HeatingZoned {
			if h.Flux <= 0 {
				return fmt.Errorf("convect: heating flux must be positive, got %g", h.Flux)
			}
			if h.Width <= 0 || h.Width >= 1 {
				return fmt.Errorf("convect: heating zone width must be in (0, 1), got %g", h.Width)
			}
		}
		for k := 0; k < d.Nz; k++ {
			d.Heat.Elements[k] = h.Profile(d.Z(k), d.Lz)
		}
		return nil
	}
}
