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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/lnashier/viper"
	"github.com/spf13/cast"
	"github.com/thermalmodel/convect"
)

// RunParamsDir is the output subdirectory holding the parameter record
// of a run.
const RunParamsDir = "run_params"

// ConfigurationError is returned when the requested run is inconsistent
// or incomplete.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return "convect: " + e.Msg }

func configErrorf(format string, args ...interface{}) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// RunParameters is the parameter record written alongside the output of
// every run, and read back when restarting.
type RunParameters struct {
	Ly    float64 `json:"Ly"`
	Lz    float64 `json:"Lz"`
	Ny    int     `json:"Ny"`
	Nz    int     `json:"Nz"`
	Ra    float64 `json:"Ra"`
	Pr    float64 `json:"Pr"`
	Ta    float64 `json:"Ta"`
	Theta float64 `json:"theta"`
	F     float64 `json:"F"`

	MaxTimestep  float64 `json:"max_timestep"`
	SnapshotIter int     `json:"snapshot_iter"`
	SlicesIter   int     `json:"slices_iter"`
	HorizIter    int     `json:"horiz_iter"`
	ScalarIter   int     `json:"scalar_iter"`
}

// Problem is a fully resolved run: the parameter record plus everything
// that is not serialized with the output.
type Problem struct {
	Params RunParameters

	Scaling     convect.Scaling
	Top, Bottom convect.TempBC
	Slip        convect.SlipBC
	Heating     convect.Heating

	StopTime  float64
	OutputDir string

	// InputDir is the output tree of a previous run to restart from.
	// Empty for a fresh run.
	InputDir string

	Mesh *convect.Mesh

	// TestMode disables all output.
	TestMode bool

	// KillAfterSetup stops the run before the first iteration.
	KillAfterSetup bool
}

// heatingFromConfig resolves the heating scheme selectors. The two
// profile flags are mutually exclusive.
func heatingFromConfig(cfg *viper.Viper) (convect.Heating, error) {
	currie := cfg.GetBool("currie")
	kazemi := cfg.GetBool("kazemi")
	if currie && kazemi {
		return convect.Heating{}, configErrorf("the currie and kazemi heating profiles are mutually exclusive")
	}
	h := convect.Heating{Flux: 1}
	switch {
	case currie:
		h.Scheme = convect.HeatingZoned
		h.Width = cast.ToFloat64(cfg.Get("Hwidth"))
	case kazemi:
		h.Scheme = convect.HeatingExponential
	}
	return h, nil
}

// LoadProblem resolves the configuration into a runnable problem,
// validating it and applying the saved parameters of the restart source
// when there is one.
func LoadProblem(cfg *viper.Viper) (*Problem, error) {
	h, err := heatingFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	scaling, err := convect.ParseScaling(cfg.GetString("tau"))
	if err != nil {
		return nil, &ConfigurationError{Msg: strings.TrimPrefix(err.Error(), "convect: ")}
	}
	top, err := convect.ParseTempBC(cfg.GetString("top"))
	if err != nil {
		return nil, &ConfigurationError{Msg: strings.TrimPrefix(err.Error(), "convect: ")}
	}
	bottom, err := convect.ParseTempBC(cfg.GetString("bottom"))
	if err != nil {
		return nil, &ConfigurationError{Msg: strings.TrimPrefix(err.Error(), "convect: ")}
	}
	slip, err := convect.ParseSlipBC(cfg.GetString("slip"))
	if err != nil {
		return nil, &ConfigurationError{Msg: strings.TrimPrefix(err.Error(), "convect: ")}
	}

	p := &Problem{
		Params: RunParameters{
			Ly:           cast.ToFloat64(cfg.Get("Ly")),
			Lz:           cast.ToFloat64(cfg.Get("Lz")),
			Ny:           cast.ToInt(cfg.Get("Ny")),
			Nz:           cast.ToInt(cfg.Get("Nz")),
			Ra:           cast.ToFloat64(cfg.Get("Ra")),
			Pr:           cast.ToFloat64(cfg.Get("Pr")),
			Ta:           cast.ToFloat64(cfg.Get("Ta")),
			Theta:        cast.ToFloat64(cfg.Get("theta")),
			F:            h.Flux,
			MaxTimestep:  cast.ToFloat64(cfg.Get("maxdt")),
			SnapshotIter: cast.ToInt(cfg.Get("snaps")),
			SlicesIter:   cast.ToInt(cfg.Get("slices")),
			HorizIter:    cast.ToInt(cfg.Get("horiz")),
			ScalarIter:   cast.ToInt(cfg.Get("scalar")),
		},
		Scaling:        scaling,
		Top:            top,
		Bottom:         bottom,
		Slip:           slip,
		Heating:        h,
		StopTime:       cast.ToFloat64(cfg.Get("stop")),
		OutputDir:      cfg.GetString("output"),
		InputDir:       cfg.GetString("input"),
		TestMode:       cfg.GetBool("test"),
		KillAfterSetup: cfg.GetBool("kill"),
	}

	if p.InputDir != "" {
		// The saved geometry of the restart source takes precedence over
		// the geometry flags: the discretization of a run cannot change
		// mid-flight. The physical numbers still come from the flags.
		saved, err := LoadRunParameters(filepath.Join(p.InputDir, RunParamsDir, "runparams.json"))
		if err != nil {
			return nil, err
		}
		p.Params.Ly = saved.Ly
		p.Params.Lz = saved.Lz
		p.Params.Ny = saved.Ny
		p.Params.Nz = saved.Nz
	}

	if p.Params.Ra <= 0 {
		return nil, configErrorf("the Rayleigh number must be set with --Ra")
	}
	if p.Params.Pr <= 0 {
		return nil, configErrorf("the Prandtl number must be positive, got %g", p.Params.Pr)
	}
	if p.Params.Ta < 0 {
		return nil, configErrorf("the Taylor number must be nonnegative, got %g", p.Params.Ta)
	}
	if p.Params.MaxTimestep <= 0 {
		return nil, configErrorf("maxdt must be positive, got %g", p.Params.MaxTimestep)
	}
	if p.StopTime <= 0 {
		return nil, configErrorf("the stop time must be positive, got %g", p.StopTime)
	}

	if m := cfg.GetString("mesh"); m != "" {
		p.Mesh, err = convect.ParseMesh(m)
		if err != nil {
			return nil, &ConfigurationError{Msg: strings.TrimPrefix(err.Error(), "convect: ")}
		}
	} else {
		p.Mesh = convect.DefaultMesh(runtime.GOMAXPROCS(0))
	}
	return p, nil
}

// LoadRunParameters reads the parameter record of a previous run. A
// missing or unreadable record is a *convect.RestartError.
func LoadRunParameters(path string) (*RunParameters, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &convect.RestartError{Path: path, Err: err}
	}
	defer f.Close()
	var p RunParameters
	if err := json.NewDecoder(f).Decode(&p); err != nil {
		return nil, &convect.RestartError{Path: path, Err: err}
	}
	return &p, nil
}

// WriteRunParameters records the parameters of a run under its output
// tree so that the run can be restarted later.
func WriteRunParameters(dir string, p RunParameters) error {
	if err := os.MkdirAll(filepath.Join(dir, RunParamsDir), 0755); err != nil {
		return fmt.Errorf("convect: creating parameter record directory: %v", err)
	}
	f, err := os.Create(filepath.Join(dir, RunParamsDir, "runparams.json"))
	if err != nil {
		return fmt.Errorf("convect: creating parameter record: %v", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("convect: writing parameter record: %v", err)
	}
	return nil
}

// appendInvocationLog records the command line of this run, timestamped,
// under the output tree. Restarted runs accumulate their invocations in
// the same file.
func appendInvocationLog(dir string, args []string) error {
	f, err := os.OpenFile(filepath.Join(dir, RunParamsDir, "args.txt"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("convect: opening invocation log: %v", err)
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "%s %s\n", time.Now().Format(time.RFC3339), strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("convect: writing invocation log: %v", err)
	}
	return nil
}
