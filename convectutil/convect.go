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

package convectutil

import (
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/thermalmodel/convect"
)

// ErrKilled is returned by a --kill run that built its problem
// successfully and stopped before the first iteration.
var ErrKilled = errors.New("convect: run stopped after setup")

// logCadence is the number of iterations between progress lines, and
// between flow-monitor scans.
const logCadence = 10

// Logger is the logger used by the run driver.
var Logger = logrus.StandardLogger()

// RunProblem builds the simulation described by p and integrates it to
// its stop time.
func RunProblem(p *Problem) error {
	log := Logger.WithFields(logrus.Fields{
		"Ra":   p.Params.Ra,
		"Pr":   p.Params.Pr,
		"Ta":   p.Params.Ta,
		"grid": logrus.Fields{"Ny": p.Params.Ny, "Nz": p.Params.Nz},
	})

	d, err := convect.NewDomain(p.Params.Ny, p.Params.Nz, p.Params.Ly, p.Params.Lz)
	if err != nil {
		return &ConfigurationError{Msg: err.Error()}
	}
	d.Mesh = p.Mesh
	d.StopTime = p.StopTime

	eqs := convect.EquationSet{
		Scaling: p.Scaling,
		Top:     p.Top,
		Bottom:  p.Bottom,
		Slip:    p.Slip,
		Ra:      p.Params.Ra,
		Pr:      p.Params.Pr,
		Ta:      p.Params.Ta,
		Theta:   p.Params.Theta,
		Flux:    p.Params.F,
	}
	cfl := convect.NewCFLController(p.Params.MaxTimestep)
	solver := convect.NewPressureSolver()
	monitor := convect.NewFlowMonitor(logCadence)

	d.InitFuncs = []convect.DomainManipulator{
		eqs.Assemble(),
		p.Heating.Install(),
	}
	if p.InputDir != "" {
		d.InitFuncs = append(d.InitFuncs,
			convect.LoadCheckpoint(filepath.Join(p.InputDir, convect.SnapshotDir)))
	} else {
		d.InitFuncs = append(d.InitFuncs, convect.InitialConditions(p.Heating))
	}

	d.RunFuncs = []convect.DomainManipulator{
		cfl.SetTimestep(),
		convect.BeginStep(),
		convect.Calculations(
			convect.Advection(),
			convect.Diffusion(),
			convect.Buoyancy(),
			convect.Coriolis(),
			convect.HeatSource(),
		),
		convect.ApplyBoundaries(),
		solver.Project(),
		convect.AdvanceTime(),
		monitor.Monitor(),
		convect.Log(Logger.Writer(), logCadence, monitor),
	}

	var out *convect.Outputter
	if !p.TestMode {
		out, err = convect.NewOutputter(convect.OutputConfig{
			Dir:               p.OutputDir,
			Append:            p.InputDir != "",
			SnapshotCadence:   p.Params.SnapshotIter,
			SliceCadence:      p.Params.SlicesIter,
			HorizCadence:      p.Params.HorizIter,
			ScalarCadence:     p.Params.ScalarIter,
			ScalarExpressions: convect.DefaultScalarExpressions(),
			ScalarParameters: map[string]float64{
				"Ra": p.Params.Ra,
				"Pr": p.Params.Pr,
				"Ta": p.Params.Ta,
			},
		}, nil)
		if err != nil {
			return err
		}
		d.RunFuncs = append(d.RunFuncs,
			out.CheckpointWriter(),
			out.SliceWriter(),
			out.ProfileWriter(),
			out.ScalarWriter(),
		)
		d.CleanupFuncs = append(d.CleanupFuncs, out.Flush())

		if err := WriteRunParameters(p.OutputDir, p.Params); err != nil {
			return err
		}
		if err := appendInvocationLog(p.OutputDir, os.Args); err != nil {
			return err
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)
	d.RunFuncs = append(d.RunFuncs, convect.InterruptCheck(sig))

	log.Info("initializing run")
	if err := d.Init(); err != nil {
		if cerr := d.Cleanup(); cerr != nil {
			log.WithError(cerr).Error("cleanup failed")
		}
		return err
	}
	if p.KillAfterSetup {
		log.Info("setup complete, stopping before the first iteration")
		if err := d.Cleanup(); err != nil {
			return err
		}
		return ErrKilled
	}

	log.WithField("stop", d.StopTime).Info("starting run")
	runErr := d.Run()
	cleanupErr := d.Cleanup()
	if out != nil {
		log.WithField("writes", out.WriteCounts()).Info("output summary")
	}
	log.WithFields(logrus.Fields{
		"iterations": d.Iteration - d.StartIteration,
		"t":          d.SimTime,
	}).Info("final state")
	switch {
	case runErr != nil:
		log.WithError(runErr).Error("run failed")
		return runErr
	case cleanupErr != nil:
		return cleanupErr
	}
	return nil
}

// ExitCode maps an error returned by the run driver to the process exit
// status of the model.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var cerr *ConfigurationError
	var derr *convect.DivergenceError
	var ierr *convect.InterruptedError
	var rerr *convect.RestartError
	switch {
	case errors.Is(err, ErrKilled):
		return -99
	case errors.As(err, &cerr):
		return 1
	case errors.As(err, &derr):
		return -50
	case errors.As(err, &ierr):
		return -1
	case errors.As(err, &rerr):
		return -10
	}
	return -10
}
