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
	"sync"
	"testing"
)

func TestParseMesh(t *testing.T) {
	m, err := ParseMesh("4,2")
	if err != nil {
		t.Fatal(err)
	}
	if m.Rows != 4 || m.Cols != 2 {
		t.Errorf("mesh = %v, want 4,2", m)
	}
	for _, bad := range []string{"4", "4,2,1", "a,2", "2,b", "0,4", "-1,2"} {
		if _, err := ParseMesh(bad); err == nil {
			t.Errorf("expected an error for %q", bad)
		}
	}
}

func TestDefaultMesh(t *testing.T) {
	cases := []struct {
		n, rows, cols int
	}{
		{1, 1, 1},
		{2, 2, 1},
		{4, 2, 2},
		{8, 4, 2},
		{64, 8, 8},
		{128, 16, 8},
		{256, 16, 16},
		{6, 1, 6},
		{12, 1, 12},
	}
	for _, c := range cases {
		m := DefaultMesh(c.n)
		if m.Rows != c.rows || m.Cols != c.cols {
			t.Errorf("DefaultMesh(%d) = %v, want %d,%d", c.n, m, c.rows, c.cols)
		}
		if m.Size() != c.n {
			t.Errorf("DefaultMesh(%d) has %d workers", c.n, m.Size())
		}
	}
	if m := DefaultMesh(0); m.Size() < 1 {
		t.Errorf("DefaultMesh(0) has %d workers", m.Size())
	}
}

// Each worker block covers its share of the plane exactly once.
func TestMeshCoverage(t *testing.T) {
	const n = 13
	for _, m := range []*Mesh{{1, 1}, {2, 2}, {4, 2}, {3, 5}, {1, 16}} {
		var mu sync.Mutex
		visits := make([]int, n*n)
		m.Each(n, func(jlo, jhi, ilo, ihi int) {
			mu.Lock()
			defer mu.Unlock()
			for j := jlo; j < jhi; j++ {
				for i := ilo; i < ihi; i++ {
					visits[j*n+i]++
				}
			}
		})
		for idx, v := range visits {
			if v != 1 {
				t.Fatalf("mesh %v: point %d visited %d times", m, idx, v)
			}
		}
	}
}
