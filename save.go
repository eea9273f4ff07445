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
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/ctessum/sparse"
)

// checkpoint is the serialized state of a run: everything needed to
// continue the time integration bit-for-bit.
type checkpoint struct {
	SimTime   float64
	Iteration int
	Dt        float64

	U, V, W, P, T *sparse.DenseArray
}

// RestartError is returned when a saved state cannot be found or read.
type RestartError struct {
	Path string
	Err  error
}

func (e *RestartError) Error() string {
	return fmt.Sprintf("convect: reading restart state %s: %v", e.Path, e.Err)
}

func (e *RestartError) Unwrap() error { return e.Err }

// Save writes the current state of the simulation to w.
func (d *Convection) Save(w io.Writer) error {
	c := checkpoint{
		SimTime:   d.SimTime,
		Iteration: d.Iteration,
		Dt:        d.Dt,
		U:         d.U,
		V:         d.V,
		W:         d.W,
		P:         d.P,
		T:         d.T,
	}
	if err := gob.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("convect: encoding state: %v", err)
	}
	return nil
}

// Load reads a saved state from r into the domain. The saved geometry
// must match the domain geometry.
func (d *Convection) Load(r io.Reader) error {
	var c checkpoint
	if err := gob.NewDecoder(r).Decode(&c); err != nil {
		return fmt.Errorf("convect: decoding state: %v", err)
	}
	want := d.Nz * d.Ny * d.Ny
	for _, f := range []*sparse.DenseArray{c.U, c.V, c.W, c.P, c.T} {
		if f == nil || len(f.Elements) != want {
			return fmt.Errorf("convect: saved state geometry does not match %d×%d×%d domain",
				d.Nz, d.Ny, d.Ny)
		}
	}
	copy(d.U.Elements, c.U.Elements)
	copy(d.V.Elements, c.V.Elements)
	copy(d.W.Elements, c.W.Elements)
	copy(d.P.Elements, c.P.Elements)
	copy(d.T.Elements, c.T.Elements)
	d.SimTime = c.SimTime
	d.Iteration = c.Iteration
	d.StartIteration = c.Iteration
	d.Dt = c.Dt
	return nil
}

// LatestCheckpoint returns the path of the most recent saved state in
// dir. Checkpoint names carry a zero-padded iteration number, so the
// lexically last file is the newest.
func LatestCheckpoint(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "snapshot_*.gob"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("convect: no saved states in %s", dir)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// LoadCheckpoint returns a function that resumes the simulation from the
// most recent saved state under dir. Failures are reported as a
// *RestartError.
func LoadCheckpoint(dir string) DomainManipulator {
	return func(d *Convection) error {
		path, err := LatestCheckpoint(dir)
		if err != nil {
			return &RestartError{Path: dir, Err: err}
		}
		f, err := os.Open(path)
		if err != nil {
			return &RestartError{Path: path, Err: err}
		}
		defer f.Close()
		if err := d.Load(f); err != nil {
			return &RestartError{Path: path, Err: err}
		}
		return nil
	}
}
