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

import "math"

// CFLController adapts the timestep to the advective stability limit of
// the current flow.
type CFLController struct {
	// Cadence is the number of iterations between timestep reevaluations.
	Cadence int
	// Safety scales the stability limit down to the target timestep.
	Safety float64
	// Threshold is the fractional dead band: the timestep is left alone
	// when the target is within this fraction of the current value.
	Threshold float64
	// MaxChange and MinChange bound the ratio of the new timestep to the
	// old one at a single reevaluation.
	MaxChange, MinChange float64
	// MaxDt is the hard upper bound on the timestep.
	MaxDt float64
}

// NewCFLController returns a controller with the standard tuning and the
// given timestep ceiling.
func NewCFLController(maxDt float64) *CFLController {
	return &CFLController{
		Cadence:   10,
		Safety:    0.5,
		Threshold: 0.1,
		MaxChange: 1.5,
		MinChange: 0.5,
		MaxDt:     maxDt,
	}
}

// limit returns the advective stability limit of the current flow, or
// +Inf when the flow is at rest.
func (c *CFLController) limit(d *Convection) float64 {
	umax := d.MaxVelocity()
	if umax == 0 {
		return math.Inf(1)
	}
	h := math.Min(d.Dy(), d.Dz())
	return h / umax
}

// SetTimestep returns a function that reevaluates the timestep every
// Cadence iterations. The new timestep never exceeds MaxDt, and the
// change relative to the previous value is clamped to
// [MinChange, MaxChange].
func (c *CFLController) SetTimestep() DomainManipulator {
	return func(d *Convection) error {
		if d.Dt <= 0 {
			d.Dt = c.MaxDt
		}
		if (d.Iteration-d.StartIteration)%c.Cadence != 0 {
			return nil
		}
		target := c.Safety * c.limit(d)
		if target > c.MaxDt {
			target = c.MaxDt
		}
		ratio := target / d.Dt
		if math.Abs(ratio-1) < c.Threshold {
			return nil
		}
		if ratio > c.MaxChange {
			ratio = c.MaxChange
		} else if ratio < c.MinChange {
			ratio = c.MinChange
		}
		dt := d.Dt * ratio
		if dt > c.MaxDt {
			dt = c.MaxDt
		}
		d.Dt = dt
		return nil
	}
}
