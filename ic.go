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

import "math/rand"

// noiseSeed makes fresh runs at equal parameters reproducible.
const noiseSeed = 42

// noiseAmplitude scales the perturbation that seeds the instability.
const noiseAmplitude = 1e-5

// InitialConditions returns a function that fills the temperature field
// with the steady conduction profile of the heating scheme plus a small
// deterministic perturbation, leaving the flow at rest. The perturbation
// is damped to zero at the walls by a z(Lz-z) envelope.
func InitialConditions(h Heating) DomainManipulator {
	return func(d *Convection) error {
		rng := rand.New(rand.NewSource(noiseSeed))
		for k := 0; k < d.Nz; k++ {
			z := d.Z(k)
			envelope := noiseAmplitude * z * (d.Lz - z)
			background := h.ConductionProfile(z, d.Lz)
			for j := 0; j < d.Ny; j++ {
				for i := 0; i < d.Ny; i++ {
					d.T.Elements[d.index(k, j, i)] = background + envelope*rng.NormFloat64()
				}
			}
		}
		return nil
	}
}
