/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package render

import (
	"image"
	"image/color"
	"testing"

	"boarddesigner/internal/grid"
)

func TestRulerTickSpacing(t *testing.T) {
	r := BuildRulers(100, 100, grid.Config{Size: 10, Interval: 5}, 1, false)
	if r.Period != 50 {
		t.Fatalf("Period = %v, want 50", r.Period)
	}
	lines := r.Vertical.Lines()
	if len(lines) != 20 { // 0..190 step 10 over 100 + 2*50
		t.Fatalf("expected 20 ticks, got %d", len(lines))
	}
	for i, l := range lines {
		if l.X != float64(i*10) || l.X2 != l.X {
			t.Fatalf("tick %d at x=%v", i, l.X)
		}
		wantLen := float64(MinorTick)
		if i%5 == 0 {
			wantLen = MajorTick
		}
		if l.Y2-l.Y != wantLen {
			t.Fatalf("tick %d length %v, want %v", i, l.Y2-l.Y, wantLen)
		}
	}
	if got := len(r.Horizontal.Lines()); got != 20 {
		t.Fatalf("horizontal ticks = %d", got)
	}
}

func TestRulerGridLinesOnMajorTicks(t *testing.T) {
	r := BuildRulers(100, 100, grid.Config{Size: 10, Interval: 5}, 2, true)
	// width = 100 + 2*100 -> ticks 0..280 step 20: 15 ticks, 3 majors with a grid line each
	if got := r.Vertical.Len(); got != 18 {
		t.Fatalf("expected 18 strokes, got %d", got)
	}
	var gridLines int
	for _, l := range r.Vertical.Lines() {
		if l.Stroke == GridGray {
			gridLines++
			if l.Y2 != 300 {
				t.Fatalf("grid line should span the picture height, got %v", l.Y2)
			}
		}
	}
	if gridLines != 3 {
		t.Fatalf("grid lines = %d", gridLines)
	}
}

func TestRulerInvalidGridIsEmpty(t *testing.T) {
	for _, g := range []grid.Config{{Size: 0, Interval: 5}, {Size: 10, Interval: 0}, {Size: -3, Interval: 2}} {
		r := BuildRulers(100, 100, g, 1, true)
		if r.Vertical.Len() != 0 || r.Horizontal.Len() != 0 || r.Period != 0 {
			t.Fatalf("grid %+v produced ticks", g)
		}
	}
}

func TestRulerCacheSwap(t *testing.T) {
	var c RulerCache
	if c.Load() != nil {
		t.Fatalf("expected nil before build")
	}
	a := c.Build(50, 50, grid.Config{Size: 10, Interval: 5}, 1, true)
	if c.Load() != a {
		t.Fatalf("cache did not publish")
	}
}

func TestDrawFillsRect(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	red := color.RGBA{255, 0, 0, 255}
	NewRenderer().Draw(dst, []Renderable{Rect(5, 5, 10, 10, red, color.RGBA{}, 0)}, true)
	if got := dst.RGBAAt(10, 10); got != red {
		t.Fatalf("centre pixel = %v", got)
	}
	if got := dst.RGBAAt(1, 1); got.A != 0 {
		t.Fatalf("outside pixel should stay clear, got %v", got)
	}
}

func TestDrawClearResetsBuffer(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range dst.Pix {
		dst.Pix[i] = 255
	}
	NewRenderer().Draw(dst, nil, true)
	if got := dst.RGBAAt(2, 2); got.A != 0 {
		t.Fatalf("clear left %v", got)
	}
}

func TestParseColor(t *testing.T) {
	cases := map[string]color.RGBA{
		"#fff":      {255, 255, 255, 255},
		"#102030":   {16, 32, 48, 255},
		"#10203040": {16, 32, 48, 64},
	}
	for in, want := range cases {
		got, err := ParseColor(in)
		if err != nil || got != want {
			t.Fatalf("ParseColor(%q) = %v, %v", in, got, err)
		}
		if back, _ := ParseColor(FormatColor(got)); back != got {
			t.Fatalf("FormatColor round trip failed for %q", in)
		}
	}
	if _, err := ParseColor("#12"); err == nil {
		t.Fatalf("expected error for short color")
	}
}
