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
	"math"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// Mesh is a 2D grid of workers that partitions the horizontal plane.
// Every worker owns a disjoint block of (j, i) columns and sweeps the
// whole vertical extent of its block.
type Mesh struct {
	Rows, Cols int
}

// ParseMesh parses a worker grid given as "R,C".
func ParseMesh(s string) (*Mesh, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("convect: mesh must be given as 'R,C', got %q", s)
	}
	r, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, fmt.Errorf("convect: invalid mesh rows %q: %v", parts[0], err)
	}
	c, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("convect: invalid mesh columns %q: %v", parts[1], err)
	}
	if r < 1 || c < 1 {
		return nil, fmt.Errorf("convect: mesh dimensions must be positive, got %d,%d", r, c)
	}
	return &Mesh{Rows: r, Cols: c}, nil
}

// DefaultMesh derives a worker grid from n workers. When n is a power of
// two the grid is as square as possible (2^⌈log2(n)/2⌉ × 2^⌊log2(n)/2⌋);
// otherwise the workers are arranged in a single row. If n < 1 the number
// of available processors is used.
func DefaultMesh(n int) *Mesh {
	if n < 1 {
		n = runtime.GOMAXPROCS(0)
	}
	log2 := math.Log2(float64(n))
	if log2 == math.Trunc(log2) {
		return &Mesh{
			Rows: 1 << int(math.Ceil(log2/2)),
			Cols: 1 << int(math.Floor(log2/2)),
		}
	}
	return &Mesh{Rows: 1, Cols: n}
}

func (m *Mesh) String() string {
	return fmt.Sprintf("%d,%d", m.Rows, m.Cols)
}

// Size returns the total number of workers.
func (m *Mesh) Size() int { return m.Rows * m.Cols }

// blockBounds returns the half-open range [lo, hi) owned by worker p when
// n points are divided among parts workers. Blocks cover the range exactly
// once; leftover points go to the lowest-numbered workers.
func (m *Mesh) blockBounds(n, parts, p int) (lo, hi int) {
	size := n / parts
	rem := n % parts
	lo = p*size + min(p, rem)
	hi = lo + size
	if p < rem {
		hi++
	}
	return lo, hi
}

// Each concurrently calls f once per worker with that worker's block
// bounds [jlo, jhi)×[ilo, ihi) of an n×n plane, and waits for all
// workers to finish.
func (m *Mesh) Each(n int, f func(jlo, jhi, ilo, ihi int)) {
	var wg sync.WaitGroup
	wg.Add(m.Rows * m.Cols)
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			go func(r, c int) {
				defer wg.Done()
				jlo, jhi := m.blockBounds(n, m.Rows, r)
				ilo, ihi := m.blockBounds(n, m.Cols, c)
				f(jlo, jhi, ilo, ihi)
			}(r, c)
		}
	}
	wg.Wait()
}
