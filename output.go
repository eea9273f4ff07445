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
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/Knetic/govaluate"
	"gonum.org/v1/gonum/floats"
)

// Output stream directory names.
const (
	SnapshotDir = "snapshots"
	SliceDir    = "slices"
	HorizDir    = "horiz_aves"
	ScalarDir   = "scalars"
)

// Upper bounds on the number of writes a stream may make during one run.
const (
	maxSnapshotWrites = 5000
	maxSliceWrites    = 5000
	maxHorizWrites    = 2500
	maxScalarWrites   = 5000
)

// OutputConfig describes where and how often the output streams write.
type OutputConfig struct {
	// Dir is the root of the output tree. Each stream writes under its
	// own subdirectory.
	Dir string

	// Append, when true, continues the time-series files of a previous
	// run instead of truncating them.
	Append bool

	// Per-stream cadences in iterations.
	SnapshotCadence, SliceCadence, HorizCadence, ScalarCadence int

	// ScalarExpressions are additional scalar columns derived from the
	// base scalars by expression, keyed by column name.
	ScalarExpressions map[string]string

	// ScalarParameters are constant values, such as the input parameters
	// of the run, made available to the scalar expressions alongside the
	// base scalars.
	ScalarParameters map[string]float64
}

// DefaultScalarExpressions returns the derived scalar columns written
// when the caller does not supply its own set. Ro_c is the convective
// Rossby number.
func DefaultScalarExpressions() map[string]string {
	return map[string]string{
		"Ro_c": "sqrt(Ra / (Pr * Ta))",
	}
}

// Outputter writes the four output streams of a run: full-state
// snapshots, plane slices, horizontally averaged profiles, and scalar
// time series.
type Outputter struct {
	config OutputConfig

	derived      map[string]*govaluate.EvaluableExpression
	derivedNames []string

	scalarFile  *os.File
	scalarCSV   *csv.Writer
	horizFiles  map[string]*os.File
	horizCSV    map[string]*csv.Writer
	writeCounts map[string]int
}

// NewOutputter creates the output tree under c.Dir and prepares the
// stream writers. The functions sqrt and abs are available to scalar
// expressions in addition to funcs.
func NewOutputter(c OutputConfig, funcs map[string]govaluate.ExpressionFunction) (*Outputter, error) {
	defaultFuncs := map[string]govaluate.ExpressionFunction{
		"sqrt": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("convect: got %d arguments for function 'sqrt', but needs 1", len(arg))
			}
			return math.Sqrt(arg[0].(float64)), nil
		},
		"abs": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("convect: got %d arguments for function 'abs', but needs 1", len(arg))
			}
			return math.Abs(arg[0].(float64)), nil
		},
	}
	for key, val := range funcs {
		defaultFuncs[key] = val
	}

	o := &Outputter{
		config:      c,
		derived:     make(map[string]*govaluate.EvaluableExpression),
		horizFiles:  make(map[string]*os.File),
		horizCSV:    make(map[string]*csv.Writer),
		writeCounts: make(map[string]int),
	}
	for name, expr := range c.ScalarExpressions {
		e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, defaultFuncs)
		if err != nil {
			return nil, fmt.Errorf("convect: parsing scalar expression %q: %v", name, err)
		}
		o.derived[name] = e
		o.derivedNames = append(o.derivedNames, name)
	}
	sort.Strings(o.derivedNames)

	for _, sub := range []string{SnapshotDir, SliceDir, HorizDir, ScalarDir} {
		if err := os.MkdirAll(filepath.Join(c.Dir, sub), 0755); err != nil {
			return nil, fmt.Errorf("convect: creating output directory: %v", err)
		}
	}
	return o, nil
}

// openSeries opens a CSV time-series file, truncating it or continuing
// it depending on the output mode. It reports whether a header still
// needs to be written.
func (o *Outputter) openSeries(path string) (*os.File, bool, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if o.config.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, false, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, false, err
	}
	return f, fi.Size() == 0, nil
}

// CheckpointWriter returns a function that periodically saves the full
// state of the run. The saved files double as restart states.
func (o *Outputter) CheckpointWriter() DomainManipulator {
	dir := filepath.Join(o.config.Dir, SnapshotDir)
	return RunPeriodically(o.config.SnapshotCadence, func(d *Convection) error {
		if o.writeCounts[SnapshotDir] >= maxSnapshotWrites {
			return nil
		}
		path := filepath.Join(dir, fmt.Sprintf("snapshot_%06d.gob", d.Iteration))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("convect: creating snapshot: %v", err)
		}
		defer f.Close()
		if err := d.Save(f); err != nil {
			return err
		}
		o.writeCounts[SnapshotDir]++
		return nil
	})
}

// FieldSlices holds the plane cuts written by the slice stream: vertical
// cuts at x=0 and x=Ly/2 and a horizontal cut at mid-depth, for the
// temperature and the x velocity. The domain is periodic in x, so the
// cut at x=Ly is the x=0 cut and is not stored separately. Vertical
// planes are indexed (k, j) and horizontal planes (j, i).
type FieldSlices struct {
	SimTime   float64
	Iteration int

	TSide, USide   [][]float64 // x = 0
	TMid, UMid     [][]float64 // x = Ly/2
	THoriz, UHoriz [][]float64 // z = Lz/2
}

func (d *Convection) verticalCut(field []float64, i int) [][]float64 {
	cut := make([][]float64, d.Nz)
	for k := range cut {
		cut[k] = make([]float64, d.Ny)
		for j := 0; j < d.Ny; j++ {
			cut[k][j] = field[d.index(k, j, i)]
		}
	}
	return cut
}

func (d *Convection) horizontalCut(field []float64, k int) [][]float64 {
	cut := make([][]float64, d.Ny)
	for j := range cut {
		cut[j] = make([]float64, d.Ny)
		for i := 0; i < d.Ny; i++ {
			cut[j][i] = field[d.index(k, j, i)]
		}
	}
	return cut
}

// SliceWriter returns a function that periodically writes plane cuts of
// the temperature and velocity fields.
func (o *Outputter) SliceWriter() DomainManipulator {
	dir := filepath.Join(o.config.Dir, SliceDir)
	return RunPeriodically(o.config.SliceCadence, func(d *Convection) error {
		if o.writeCounts[SliceDir] >= maxSliceWrites {
			return nil
		}
		s := FieldSlices{
			SimTime:   d.SimTime,
			Iteration: d.Iteration,
			TSide:     d.verticalCut(d.T.Elements, 0),
			USide:     d.verticalCut(d.U.Elements, 0),
			TMid:      d.verticalCut(d.T.Elements, d.Ny/2),
			UMid:      d.verticalCut(d.U.Elements, d.Ny/2),
			THoriz:    d.horizontalCut(d.T.Elements, d.Nz/2),
			UHoriz:    d.horizontalCut(d.U.Elements, d.Nz/2),
		}
		path := filepath.Join(dir, fmt.Sprintf("slice_%06d.gob", d.Iteration))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("convect: creating slice file: %v", err)
		}
		defer f.Close()
		if err := gob.NewEncoder(f).Encode(s); err != nil {
			return fmt.Errorf("convect: encoding slices: %v", err)
		}
		o.writeCounts[SliceDir]++
		return nil
	})
}

// Profiles holds the horizontally averaged vertical profiles of a run.
type Profiles struct {
	// T is the mean temperature at each level.
	T []float64
	// CondFlux is the conductive heat flux -κ d⟨T⟩/dz.
	CondFlux []float64
	// ConvFlux is the convective heat flux ⟨wT⟩.
	ConvFlux []float64
}

// HorizontalAverages computes the mean vertical profiles of the current
// state.
func (d *Convection) HorizontalAverages() Profiles {
	nplane := d.Ny * d.Ny
	p := Profiles{
		T:        make([]float64, d.Nz),
		CondFlux: make([]float64, d.Nz),
		ConvFlux: make([]float64, d.Nz),
	}
	for k := 0; k < d.Nz; k++ {
		lo := d.index(k, 0, 0)
		hi := d.index(k+1, 0, 0)
		p.T[k] = floats.Sum(d.T.Elements[lo:hi]) / float64(nplane)
		p.ConvFlux[k] = floats.Dot(d.W.Elements[lo:hi], d.T.Elements[lo:hi]) / float64(nplane)
	}
	dz := d.Dz()
	for k := 0; k < d.Nz; k++ {
		var grad float64
		switch k {
		case 0:
			grad = (p.T[1] - p.T[0]) / dz
		case d.Nz - 1:
			grad = (p.T[k] - p.T[k-1]) / dz
		default:
			grad = (p.T[k+1] - p.T[k-1]) / (2 * dz)
		}
		p.CondFlux[k] = -d.Coef.Diffusivity * grad
	}
	return p
}

// ProfileWriter returns a function that periodically appends the mean
// vertical profiles to per-profile CSV time series. Each row is the
// simulation time followed by one value per level.
func (o *Outputter) ProfileWriter() DomainManipulator {
	return RunPeriodically(o.config.HorizCadence, func(d *Convection) error {
		if o.writeCounts[HorizDir] >= maxHorizWrites {
			return nil
		}
		p := d.HorizontalAverages()
		for _, series := range []struct {
			name   string
			values []float64
		}{
			{"T_profile", p.T},
			{"F_cond", p.CondFlux},
			{"F_conv", p.ConvFlux},
		} {
			w, err := o.horizWriter(d, series.name)
			if err != nil {
				return err
			}
			row := make([]string, 1+d.Nz)
			row[0] = strconv.FormatFloat(d.SimTime, 'g', -1, 64)
			for k, v := range series.values {
				row[k+1] = strconv.FormatFloat(v, 'g', -1, 64)
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("convect: writing %s profile: %v", series.name, err)
			}
		}
		o.writeCounts[HorizDir]++
		return nil
	})
}

func (o *Outputter) horizWriter(d *Convection, name string) (*csv.Writer, error) {
	if w, ok := o.horizCSV[name]; ok {
		return w, nil
	}
	path := filepath.Join(o.config.Dir, HorizDir, name+".csv")
	f, needHeader, err := o.openSeries(path)
	if err != nil {
		return nil, fmt.Errorf("convect: opening %s profile series: %v", name, err)
	}
	w := csv.NewWriter(f)
	if needHeader {
		header := make([]string, 1+d.Nz)
		header[0] = "time"
		for k, z := range d.ZCoords() {
			header[k+1] = strconv.FormatFloat(z, 'g', -1, 64)
		}
		if err := w.Write(header); err != nil {
			f.Close()
			return nil, fmt.Errorf("convect: writing %s profile header: %v", name, err)
		}
	}
	o.horizFiles[name] = f
	o.horizCSV[name] = w
	return w, nil
}

// Scalars computes the base scalar diagnostics of the current state.
func (d *Convection) Scalars() map[string]float64 {
	n := float64(len(d.T.Elements))
	var ke float64
	for idx, u := range d.U.Elements {
		v := d.V.Elements[idx]
		w := d.W.Elements[idx]
		ke += u*u + v*v + w*w
	}
	ke = 0.5 * ke / n

	p := d.HorizontalAverages()
	tBottom := p.T[0]
	tMean := floats.Sum(d.T.Elements) / n

	// Total vertical heat flux at mid-depth, and its departure from the
	// imposed flux.
	mid := d.Nz / 2
	fTot := p.CondFlux[mid] + p.ConvFlux[mid]

	return map[string]float64{
		"time":          d.SimTime,
		"dt":            d.Dt,
		"ke":            ke,
		"re":            math.Sqrt(2*ke) / d.Coef.Viscosity,
		"T_bottom":      tBottom,
		"T_mean":        tMean,
		"F_tot":         fTot,
		"flux_residual": fTot - d.Flux,
	}
}

// scalarColumns is the column order of the base scalar series.
var scalarColumns = []string{"time", "dt", "ke", "re", "T_bottom", "T_mean", "F_tot", "flux_residual"}

// ScalarWriter returns a function that periodically appends the scalar
// diagnostics, and any derived expression columns, to a CSV time series.
func (o *Outputter) ScalarWriter() DomainManipulator {
	return RunPeriodically(o.config.ScalarCadence, func(d *Convection) error {
		if o.writeCounts[ScalarDir] >= maxScalarWrites {
			return nil
		}
		if o.scalarCSV == nil {
			path := filepath.Join(o.config.Dir, ScalarDir, "scalars.csv")
			f, needHeader, err := o.openSeries(path)
			if err != nil {
				return fmt.Errorf("convect: opening scalar series: %v", err)
			}
			o.scalarFile = f
			o.scalarCSV = csv.NewWriter(f)
			if needHeader {
				if err := o.scalarCSV.Write(append(append([]string{}, scalarColumns...), o.derivedNames...)); err != nil {
					return fmt.Errorf("convect: writing scalar header: %v", err)
				}
			}
		}

		scalars := d.Scalars()
		row := make([]string, 0, len(scalarColumns)+len(o.derivedNames))
		for _, name := range scalarColumns {
			row = append(row, strconv.FormatFloat(scalars[name], 'g', -1, 64))
		}
		if len(o.derivedNames) > 0 {
			params := make(map[string]interface{}, len(scalars)+len(o.config.ScalarParameters))
			for name, v := range o.config.ScalarParameters {
				params[name] = v
			}
			for name, v := range scalars {
				params[name] = v
			}
			for _, name := range o.derivedNames {
				result, err := o.derived[name].Evaluate(params)
				if err != nil {
					return fmt.Errorf("convect: evaluating scalar expression %q: %v", name, err)
				}
				v, ok := result.(float64)
				if !ok {
					return fmt.Errorf("convect: scalar expression %q gave %T, want float64", name, result)
				}
				row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
			}
		}
		if err := o.scalarCSV.Write(row); err != nil {
			return fmt.Errorf("convect: writing scalar row: %v", err)
		}
		o.writeCounts[ScalarDir]++
		return nil
	})
}

// WriteCounts reports the number of writes each stream has made,
// keyed by stream directory name.
func (o *Outputter) WriteCounts() map[string]int {
	counts := make(map[string]int, len(o.writeCounts))
	for name, n := range o.writeCounts {
		counts[name] = n
	}
	return counts
}

// Flush returns a function that flushes and closes the time-series
// files. It runs during cleanup, so it must be safe after a failed run.
func (o *Outputter) Flush() DomainManipulator {
	return func(d *Convection) error {
		var firstErr error
		if o.scalarCSV != nil {
			o.scalarCSV.Flush()
			if err := o.scalarCSV.Error(); err != nil && firstErr == nil {
				firstErr = err
			}
			if err := o.scalarFile.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
			o.scalarCSV = nil
			o.scalarFile = nil
		}
		for name, w := range o.horizCSV {
			w.Flush()
			if err := w.Error(); err != nil && firstErr == nil {
				firstErr = err
			}
			if err := o.horizFiles[name].Close(); err != nil && firstErr == nil {
				firstErr = err
			}
			delete(o.horizCSV, name)
			delete(o.horizFiles, name)
		}
		if firstErr != nil {
			return fmt.Errorf("convect: flushing output: %v", firstErr)
		}
		return nil
	}
}
