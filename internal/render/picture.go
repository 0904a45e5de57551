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

	"github.com/fogleman/gg"
)

// Picture is a recorded list of line strokes that can be replayed at an
// offset. A Picture is immutable once handed out by the ruler cache.
type Picture struct {
	w, h  int
	lines []Renderable
}

// NewPicture starts an empty recording of the given size.
func NewPicture(w, h int) *Picture { return &Picture{w: w, h: h} }

// Line records a stroke.
func (p *Picture) Line(x1, y1, x2, y2 float64, c color.RGBA, width float64) {
	p.lines = append(p.lines, Line(x1, y1, x2, y2, c, width))
}

// Bounds is the recorded area.
func (p *Picture) Bounds() image.Rectangle { return image.Rect(0, 0, p.w, p.h) }

func (p *Picture) Len() int { return len(p.lines) }

// Lines returns a copy of the recorded strokes.
func (p *Picture) Lines() []Renderable { return append([]Renderable(nil), p.lines...) }

// Replay strokes the recording onto dc translated by dx,dy.
func (p *Picture) Replay(dc *gg.Context, dx, dy float64) {
	if p == nil || len(p.lines) == 0 {
		return
	}
	dc.Push()
	defer dc.Pop()
	dc.Translate(dx, dy)
	for _, l := range p.lines {
		dc.DrawLine(l.X, l.Y, l.X2, l.Y2)
		dc.SetColor(l.Stroke)
		dc.SetLineWidth(l.StrokeWidth)
		dc.Stroke()
	}
}
