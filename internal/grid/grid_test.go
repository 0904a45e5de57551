/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package grid

import (
	"errors"
	"testing"
)

func TestSnapBoundaries(t *testing.T) {
	cases := []struct {
		name           string
		raw, anchor, f int
		want           int
	}{
		{"lower line", 100, 5, 40, 95},
		{"upper line", 100, 35, 40, 105},
		{"midway untouched", 100, 20, 40, 100},
		{"exact margin lower", 100, 10, 40, 90},
		{"exact margin upper", 100, 30, 40, 110},
		{"on the line", 100, 80, 40, 100},
		{"negative anchor flips", 100, -5, 40, 105},
		{"negative anchor upper flips", 100, -35, 40, 95},
		{"zero anchor", 7, 0, 40, 7},
		{"zero factor", 13, 5, 0, 13},
		{"negative factor", 13, 5, -40, 13},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Snap(c.raw, c.anchor, c.f); got != c.want {
				t.Fatalf("Snap(%d,%d,%d) = %d, want %d", c.raw, c.anchor, c.f, got, c.want)
			}
		})
	}
}

func TestSnapDeterministic(t *testing.T) {
	for raw := -60; raw <= 60; raw += 7 {
		for anchor := -90; anchor <= 90; anchor++ {
			a := Snap(raw, anchor, 40)
			b := Snap(raw, anchor, 40)
			if a != b {
				t.Fatalf("Snap not deterministic for raw=%d anchor=%d", raw, anchor)
			}
			if d := a - raw; d > 10 || d < -10 {
				t.Fatalf("correction %d exceeds margin for anchor %d", d, anchor)
			}
		}
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{Size: 10, Interval: 5}).Validate(); err != nil {
		t.Fatalf("valid grid rejected: %v", err)
	}
	for _, c := range []Config{{0, 5}, {10, 0}, {-1, 5}, {10, -2}} {
		if err := c.Validate(); !errors.Is(err, ErrInvalidGrid) {
			t.Fatalf("%+v: want ErrInvalidGrid, got %v", c, err)
		}
	}
	if f := (Config{Size: 10, Interval: 5}).Factor(); f != 50 {
		t.Fatalf("Factor = %d", f)
	}
}
