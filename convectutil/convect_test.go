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
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thermalmodel/convect"
)

func testProblem() *Problem {
	return &Problem{
		Params: RunParameters{
			Ly: 1, Lz: 1, Ny: 8, Nz: 9,
			Ra: 1e4, Pr: 1, Ta: 1e4, Theta: 5, F: 1,
			MaxTimestep:  1e-5,
			SnapshotIter: 500, SlicesIter: 250, HorizIter: 100, ScalarIter: 1,
		},
		Scaling:  convect.ScalingViscous,
		Top:      convect.TempInsulating,
		Bottom:   convect.TempInsulating,
		Slip:     convect.FreeSlip,
		Heating:  convect.Heating{Scheme: convect.HeatingZoned, Flux: 1, Width: 0.2},
		StopTime: 5e-5,
		Mesh:     convect.DefaultMesh(2),
		TestMode: true,
	}
}

func TestRunProblemTestMode(t *testing.T) {
	p := testProblem()
	require.NoError(t, RunProblem(p))
}

func TestRunProblemKill(t *testing.T) {
	p := testProblem()
	p.KillAfterSetup = true
	err := RunProblem(p)
	require.ErrorIs(t, err, ErrKilled)
	assert.Equal(t, -99, ExitCode(err))
}

func TestRunProblemWritesOutputTree(t *testing.T) {
	p := testProblem()
	p.TestMode = false
	p.OutputDir = t.TempDir()
	p.Params.SnapshotIter = 2
	p.Params.SlicesIter = 2
	p.Params.HorizIter = 2
	require.NoError(t, RunProblem(p))

	if _, err := os.Stat(filepath.Join(p.OutputDir, RunParamsDir, "runparams.json")); err != nil {
		t.Error(err)
	}
	if _, err := os.Stat(filepath.Join(p.OutputDir, RunParamsDir, "args.txt")); err != nil {
		t.Error(err)
	}
	snaps, err := filepath.Glob(filepath.Join(p.OutputDir, convect.SnapshotDir, "snapshot_*.gob"))
	require.NoError(t, err)
	assert.NotEmpty(t, snaps)

	// The scalar series carries the convective Rossby number as a derived
	// column; here sqrt(Ra/(Pr Ta)) = sqrt(1e4/1e4) = 1.
	f, err := os.Open(filepath.Join(p.OutputDir, convect.ScalarDir, "scalars.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Greater(t, len(rows), 1)
	col := -1
	for c, h := range rows[0] {
		if h == "Ro_c" {
			col = c
		}
	}
	require.GreaterOrEqual(t, col, 0, "header %v", rows[0])
	v, err := strconv.ParseFloat(rows[1][col], 64)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-12)
}

func TestRunFailureLogsFinalState(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	p := testProblem()
	p.Params.Ra = 1e12
	p.Params.MaxTimestep = 1
	p.StopTime = 1000
	err := RunProblem(p)
	var derr *convect.DivergenceError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, -50, ExitCode(err))

	var found bool
	for _, e := range hook.AllEntries() {
		if e.Message == "final state" {
			found = true
			assert.Contains(t, e.Data, "iterations")
			assert.Contains(t, e.Data, "t")
		}
	}
	assert.True(t, found, "final statistics missing after a failed run")
}

func TestRunProblemRestart(t *testing.T) {
	p := testProblem()
	p.TestMode = false
	p.OutputDir = t.TempDir()
	p.Params.SnapshotIter = 2
	require.NoError(t, RunProblem(p))

	p2 := testProblem()
	p2.TestMode = false
	p2.OutputDir = p.OutputDir
	p2.InputDir = p.OutputDir
	p2.StopTime = 1e-4
	require.NoError(t, RunProblem(p2))
}

func TestRestartWithoutSnapshots(t *testing.T) {
	p := testProblem()
	p.InputDir = t.TempDir()
	err := RunProblem(p)
	var rerr *convect.RestartError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, -10, ExitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(&ConfigurationError{Msg: "bad"}))
	assert.Equal(t, -50, ExitCode(&convect.DivergenceError{}))
	assert.Equal(t, -1, ExitCode(&convect.InterruptedError{}))
	assert.Equal(t, -10, ExitCode(&convect.RestartError{}))
	assert.Equal(t, -99, ExitCode(ErrKilled))
	assert.Equal(t, -10, ExitCode(fmt.Errorf("something else")))

	// Wrapped errors keep their exit codes.
	assert.Equal(t, -50, ExitCode(fmt.Errorf("outer: %w", &convect.DivergenceError{})))
}
