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
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Renderer rasterizes Renderables with gg. It holds no per-draw state and may
// be shared between goroutines.
type Renderer struct {
	face font.Face
}

// NewRenderer returns a renderer using the built-in bitmap font for labels.
func NewRenderer() *Renderer { return &Renderer{face: basicfont.Face7x13} }

// Draw paints items into dst in order. With clear set, dst is reset to
// transparent first.
func (r *Renderer) Draw(dst *image.RGBA, items []Renderable, clear bool) {
	dc := gg.NewContextForRGBA(dst)
	if clear {
		dc.SetColor(color.Transparent)
		dc.Clear()
	}
	for _, it := range items {
		r.DrawOne(dc, it)
	}
}

// DrawOne paints a single item on an existing context.
func (r *Renderer) DrawOne(dc *gg.Context, it Renderable) {
	switch it.Kind {
	case KindRect:
		dc.DrawRectangle(it.X, it.Y, it.W, it.H)
		paint(dc, it)
	case KindRoundRect:
		rad := it.Radius
		if m := min(it.W, it.H) / 2; rad > m {
			rad = m
		}
		dc.DrawRoundedRectangle(it.X, it.Y, it.W, it.H, rad)
		paint(dc, it)
	case KindLine:
		dc.DrawLine(it.X, it.Y, it.X2, it.Y2)
		if it.Fill.A > 0 && it.Stroke.A == 0 {
			it.Stroke = it.Fill
		}
		it.Fill = color.RGBA{}
		paint(dc, it)
	case KindLabel:
		if it.Text == "" {
			return
		}
		c := it.Fill
		if c.A == 0 {
			c = Black
		}
		dc.SetFontFace(r.face)
		dc.SetColor(c)
		dc.DrawStringAnchored(it.Text, it.X, it.Y, 0.5, 0.5)
	}
}

func paint(dc *gg.Context, it Renderable) {
	if it.Fill.A > 0 {
		dc.SetColor(it.Fill)
		dc.FillPreserve()
	}
	if it.Stroke.A > 0 && it.StrokeWidth > 0 {
		dc.SetColor(it.Stroke)
		dc.SetLineWidth(it.StrokeWidth)
		dc.StrokePreserve()
	}
	dc.ClearPath()
}
