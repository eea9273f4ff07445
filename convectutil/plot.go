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
	"fmt"
	"os"
	"path/filepath"

	"github.com/thermalmodel/convect"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// plotPoints is the number of samples drawn over the layer depth.
const plotPoints = 512

// PlotHeating draws the heating profile and its steady conduction
// solution against height to heat_func.pdf under dir.
func PlotHeating(h convect.Heating, lz float64, dir string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Internal heating (%v)", h.Scheme)
	p.X.Label.Text = "z"
	p.Y.Label.Text = "rate / temperature"

	heat := make(plotter.XYs, plotPoints+1)
	cond := make(plotter.XYs, plotPoints+1)
	for k := 0; k <= plotPoints; k++ {
		z := lz * float64(k) / plotPoints
		heat[k].X, heat[k].Y = z, h.Profile(z, lz)
		cond[k].X, cond[k].Y = z, h.ConductionProfile(z, lz)
	}

	heatLine, err := plotter.NewLine(heat)
	if err != nil {
		return fmt.Errorf("convect: plotting heating profile: %v", err)
	}
	condLine, err := plotter.NewLine(cond)
	if err != nil {
		return fmt.Errorf("convect: plotting conduction profile: %v", err)
	}
	condLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(heatLine, condLine)
	p.Legend.Add("heating rate", heatLine)
	p.Legend.Add("conduction profile", condLine)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("convect: creating plot directory: %v", err)
	}
	path := filepath.Join(dir, "heat_func.pdf")
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("convect: saving heating plot: %v", err)
	}
	return nil
}
