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
	"io"
	"math"
	"os"
	"time"
)

// DivergenceError is returned when the flow has become numerically
// unstable.
type DivergenceError struct {
	Iteration int
	SimTime   float64
	MaxSpeed  float64
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("convect: flow diverged at iteration %d (t=%g): max speed %g",
		e.Iteration, e.SimTime, e.MaxSpeed)
}

// InterruptedError is returned when the run was stopped by a signal
// before reaching its stop time.
type InterruptedError struct {
	Signal os.Signal
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("convect: interrupted by %v signal", e.Signal)
}

// FlowMonitor watches the velocity field for numerical instability.
type FlowMonitor struct {
	// Cadence is the number of iterations between full scans of the
	// velocity field.
	Cadence int

	maxSpeed float64
}

// NewFlowMonitor returns a monitor that rescans the flow every cadence
// iterations.
func NewFlowMonitor(cadence int) *FlowMonitor {
	if cadence < 1 {
		cadence = 1
	}
	return &FlowMonitor{Cadence: cadence}
}

// MaxSpeed returns the maximum velocity magnitude found by the most
// recent scan.
func (m *FlowMonitor) MaxSpeed() float64 { return m.maxSpeed }

// Monitor returns a function that rescans the flow at the monitor
// cadence and fails with a *DivergenceError when the velocity field
// contains a NaN or infinite value. The check against the cached maximum
// runs every iteration, so a blowup surfaces at the iteration after it
// enters the scan.
func (m *FlowMonitor) Monitor() DomainManipulator {
	return func(d *Convection) error {
		if (d.Iteration-d.StartIteration)%m.Cadence == 0 {
			m.maxSpeed = d.MaxVelocity()
		}
		if math.IsNaN(m.maxSpeed) || math.IsInf(m.maxSpeed, 0) {
			return &DivergenceError{
				Iteration: d.Iteration,
				SimTime:   d.SimTime,
				MaxSpeed:  m.maxSpeed,
			}
		}
		return nil
	}
}

// RunPeriodically returns a function that runs f every iters iterations.
func RunPeriodically(iters int, f DomainManipulator) DomainManipulator {
	if iters < 1 {
		iters = 1
	}
	return func(d *Convection) error {
		if (d.Iteration-d.StartIteration)%iters != 0 {
			return nil
		}
		return f(d)
	}
}

// InterruptCheck returns a function that stops the run with an
// *InterruptedError when a signal has arrived on sig.
func InterruptCheck(sig <-chan os.Signal) DomainManipulator {
	return func(d *Convection) error {
		select {
		case s := <-sig:
			return &InterruptedError{Signal: s}
		default:
			return nil
		}
	}
}

// Log returns a function that writes a progress line to w every cadence
// iterations.
func Log(w io.Writer, cadence int, monitor *FlowMonitor) DomainManipulator {
	if cadence < 1 {
		cadence = 1
	}
	startTime := time.Now()
	lastTime := time.Now()

	return func(d *Convection) error {
		if (d.Iteration-d.StartIteration)%cadence != 0 {
			return nil
		}
		fmt.Fprintf(w, "Iteration %-7d  walltime=%6.3gh  Δwalltime=%4.2gs  "+
			"timestep=%.3g  t=%.5g  max|u|=%.3g\n",
			d.Iteration, time.Since(startTime).Hours(),
			time.Since(lastTime).Seconds(), d.Dt, d.SimTime, monitor.MaxSpeed())
		lastTime = time.Now()
		return nil
	}
}
