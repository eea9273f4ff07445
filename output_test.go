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
	"encoding/csv"
	"encoding/gob"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func outputTestDomain(t *testing.T) *Convection {
	t.Helper()
	d, err := NewDomain(8, 9, 4, 1)
	if err != nil {
		t.Fatal(err)
	}
	d.Mesh = DefaultMesh(2)
	d.Dt = 1e-5
	d.Coef = ScalingViscous.Coefficients(1e4, 1, 1e4)
	d.Flux = 1
	for k := 0; k < d.Nz; k++ {
		for j := 0; j < d.Ny; j++ {
			for i := 0; i < d.Ny; i++ {
				d.T.Set(d.Lz-d.Z(k), k, j, i)
			}
		}
	}
	return d
}

func TestScalarSeries(t *testing.T) {
	d := outputTestDomain(t)
	dir := t.TempDir()
	o, err := NewOutputter(OutputConfig{
		Dir:           dir,
		ScalarCadence: 1,
		ScalarExpressions: map[string]string{
			"rms_speed": "sqrt(2 * ke)",
			"abs_resid": "abs(flux_residual)",
		},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	write := o.ScalarWriter()
	for iter := 0; iter < 3; iter++ {
		d.Iteration = iter
		d.SimTime = float64(iter) * d.Dt
		if err := write(d); err != nil {
			t.Fatal(err)
		}
	}
	if err := o.Flush()(d); err != nil {
		t.Fatal(err)
	}
	if n := o.WriteCounts()[ScalarDir]; n != 3 {
		t.Errorf("scalar stream made %d writes, want 3", n)
	}

	f, err := os.Open(filepath.Join(dir, ScalarDir, "scalars.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("scalar series has %d rows, want header + 3", len(rows))
	}
	header := rows[0]
	if header[0] != "time" || header[len(header)-2] != "abs_resid" || header[len(header)-1] != "rms_speed" {
		t.Errorf("scalar header = %v", header)
	}
	// The flow is at rest, so the kinetic energy and rms speed are zero.
	for _, name := range []string{"ke", "rms_speed"} {
		col := -1
		for c, h := range header {
			if h == name {
				col = c
			}
		}
		if col < 0 {
			t.Fatalf("column %s missing from %v", name, header)
		}
		v, err := strconv.ParseFloat(rows[1][col], 64)
		if err != nil {
			t.Fatal(err)
		}
		if v != 0 {
			t.Errorf("%s = %g at rest, want 0", name, v)
		}
	}
}

func TestDefaultScalarExpressions(t *testing.T) {
	d := outputTestDomain(t)
	dir := t.TempDir()
	o, err := NewOutputter(OutputConfig{
		Dir:               dir,
		ScalarCadence:     1,
		ScalarExpressions: DefaultScalarExpressions(),
		ScalarParameters:  map[string]float64{"Ra": 1e6, "Pr": 1, "Ta": 1e4},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := o.ScalarWriter()(d); err != nil {
		t.Fatal(err)
	}
	if err := o.Flush()(d); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(dir, ScalarDir, "scalars.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("scalar series has %d rows, want header + 1", len(rows))
	}
	col := -1
	for c, h := range rows[0] {
		if h == "Ro_c" {
			col = c
		}
	}
	if col < 0 {
		t.Fatalf("Ro_c column missing from %v", rows[0])
	}
	v, err := strconv.ParseFloat(rows[1][col], 64)
	if err != nil {
		t.Fatal(err)
	}
	// Ro_c = sqrt(Ra/(Pr Ta)) = sqrt(1e6/1e4) = 10.
	if absDifferent(v, 10, 1e-12) {
		t.Errorf("Ro_c = %g, want 10", v)
	}
}

func TestProfileSeries(t *testing.T) {
	d := outputTestDomain(t)
	dir := t.TempDir()
	o, err := NewOutputter(OutputConfig{Dir: dir, HorizCadence: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := o.ProfileWriter()(d); err != nil {
		t.Fatal(err)
	}
	if err := o.Flush()(d); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(dir, HorizDir, "F_cond.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("profile series has %d rows, want header + 1", len(rows))
	}
	if len(rows[1]) != 1+d.Nz {
		t.Fatalf("profile row has %d columns, want %d", len(rows[1]), 1+d.Nz)
	}
	// The temperature is linear with gradient -1, so the conductive flux
	// is the diffusivity at every level.
	for k := 1; k < d.Nz; k++ {
		v, err := strconv.ParseFloat(rows[1][k+1], 64)
		if err != nil {
			t.Fatal(err)
		}
		if absDifferent(v, d.Coef.Diffusivity, 1e-9) {
			t.Errorf("conductive flux at level %d = %g, want %g", k, v, d.Coef.Diffusivity)
		}
	}
}

func TestSliceStream(t *testing.T) {
	d := outputTestDomain(t)
	d.Iteration = 12
	d.U.Set(3.5, d.Nz/2, 2, 1)
	dir := t.TempDir()
	o, err := NewOutputter(OutputConfig{Dir: dir, SliceCadence: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := o.SliceWriter()(d); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(dir, SliceDir, "slice_000012.gob"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var s FieldSlices
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		t.Fatal(err)
	}
	if s.Iteration != 12 {
		t.Errorf("slice iteration = %d, want 12", s.Iteration)
	}
	if len(s.TSide) != d.Nz || len(s.TSide[0]) != d.Ny {
		t.Errorf("vertical cut is %d×%d", len(s.TSide), len(s.TSide[0]))
	}
	if len(s.THoriz) != d.Ny {
		t.Errorf("horizontal cut has %d rows", len(s.THoriz))
	}
	if len(s.UHoriz) != d.Ny || len(s.UHoriz[0]) != d.Ny {
		t.Errorf("velocity horizontal cut is %d×%d", len(s.UHoriz), len(s.UHoriz[0]))
	}
	if v := s.UHoriz[2][1]; absDifferent(v, 3.5, 1e-12) {
		t.Errorf("mid-depth velocity in cut = %g, want 3.5", v)
	}
	if v := s.TSide[0][3]; absDifferent(v, d.Lz, 1e-12) {
		t.Errorf("bottom wall temperature in cut = %g, want %g", v, d.Lz)
	}
}

func TestCheckpointStreamIsRestartable(t *testing.T) {
	d := outputTestDomain(t)
	d.Iteration = 500
	d.SimTime = 0.25
	dir := t.TempDir()
	o, err := NewOutputter(OutputConfig{Dir: dir, SnapshotCadence: 500}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := o.CheckpointWriter()(d); err != nil {
		t.Fatal(err)
	}

	d2, err := NewDomain(d.Ny, d.Nz, d.Ly, d.Lz)
	if err != nil {
		t.Fatal(err)
	}
	if err := LoadCheckpoint(filepath.Join(dir, SnapshotDir))(d2); err != nil {
		t.Fatal(err)
	}
	if d2.Iteration != 500 || d2.SimTime != 0.25 {
		t.Errorf("restored clock = (%g, %d)", d2.SimTime, d2.Iteration)
	}
}
