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
	"math"
	"sync/atomic"

	"boarddesigner/internal/grid"
)

// Ruler tick lengths in dip.
const (
	MajorTick = 12
	MinorTick = 4
)

// Rulers is one generation of ruler overlays. Vertical holds the ticks along
// the top edge (vertical strokes), Horizontal those along the left edge.
type Rulers struct {
	Vertical   *Picture
	Horizontal *Picture
	// Period is the device pixel distance between major ticks; the draw loop
	// shifts the pictures by scroll modulo Period. Zero for an invalid grid.
	Period float64
}

// BuildRulers records both ruler pictures for a viewport of viewW x viewH
// device pixels. The pictures cover the viewport plus one major interval on
// each side. An invalid grid or scale yields empty pictures.
func BuildRulers(viewW, viewH int, g grid.Config, scale float64, showGrid bool) *Rulers {
	if g.Validate() != nil || scale <= 0 || viewW < 0 || viewH < 0 {
		return &Rulers{Vertical: NewPicture(max(viewW, 0), max(viewH, 0)), Horizontal: NewPicture(max(viewW, 0), max(viewH, 0))}
	}
	step := scale * float64(g.Size)
	period := step * float64(g.Interval)
	width := float64(viewW) + 2*period
	height := float64(viewH) + 2*period
	pw, ph := int(math.Ceil(width)), int(math.Ceil(height))

	vert := NewPicture(pw, ph)
	for i := 0; ; i++ {
		x := float64(i) * step
		if x >= width {
			break
		}
		if i%g.Interval == 0 {
			vert.Line(x, 0, x, MajorTick*scale, Black, scale)
			if showGrid {
				vert.Line(x, 0, x, height, GridGray, scale)
			}
		} else {
			vert.Line(x, 0, x, MinorTick*scale, Black, scale)
		}
	}

	horiz := NewPicture(pw, ph)
	for i := 0; ; i++ {
		y := float64(i) * step
		if y >= height {
			break
		}
		if i%g.Interval == 0 {
			horiz.Line(0, y, MajorTick*scale, y, Black, scale)
			if showGrid {
				horiz.Line(0, y, width, y, GridGray, scale)
			}
		} else {
			horiz.Line(0, y, MinorTick*scale, y, Black, scale)
		}
	}
	return &Rulers{Vertical: vert, Horizontal: horiz, Period: period}
}

// RulerCache holds the current Rulers. Rebuilds swap the whole set at once,
// so readers never observe a half-built generation.
type RulerCache struct {
	cur atomic.Pointer[Rulers]
}

// Build records a new generation and publishes it.
func (c *RulerCache) Build(viewW, viewH int, g grid.Config, scale float64, showGrid bool) *Rulers {
	r := BuildRulers(viewW, viewH, g, scale, showGrid)
	c.cur.Store(r)
	return r
}

// Load returns the current generation, or nil before the first Build.
func (c *RulerCache) Load() *Rulers { return c.cur.Load() }
