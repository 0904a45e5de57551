/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package render turns renderable descriptors into pixels and keeps the
// recorded ruler overlays used by the board view.
package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Kind tags the shape a Renderable describes.
type Kind int

const (
	KindRect Kind = iota
	KindRoundRect
	KindLine
	KindLabel
)

func (k Kind) String() string {
	switch k {
	case KindRect:
		return "rect"
	case KindRoundRect:
		return "roundrect"
	case KindLine:
		return "line"
	case KindLabel:
		return "label"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Renderable is a drawing description in device pixels. It is produced on
// demand from board objects and never persisted.
//
// Rects use X,Y,W,H. Lines run from X,Y to X2,Y2. Labels are anchored at their
// centre X,Y. A zero alpha Fill or Stroke disables that part.
type Renderable struct {
	Kind        Kind
	X, Y, W, H  float64
	X2, Y2      float64
	Radius      float64
	Fill        color.RGBA
	Stroke      color.RGBA
	StrokeWidth float64
	Text        string
}

// Rect is a shorthand for a filled, optionally stroked rectangle.
func Rect(x, y, w, h float64, fill, stroke color.RGBA, strokeWidth float64) Renderable {
	return Renderable{Kind: KindRect, X: x, Y: y, W: w, H: h, Fill: fill, Stroke: stroke, StrokeWidth: strokeWidth}
}

// Line is a shorthand for a stroked line segment.
func Line(x1, y1, x2, y2 float64, stroke color.RGBA, width float64) Renderable {
	return Renderable{Kind: KindLine, X: x1, Y: y1, X2: x2, Y2: y2, Stroke: stroke, StrokeWidth: width}
}

// Common colors.
var (
	Black     = color.RGBA{0, 0, 0, 255}
	White     = color.RGBA{255, 255, 255, 255}
	LightGray = color.RGBA{204, 204, 204, 255}
	GridGray  = color.RGBA{136, 136, 136, 30}
	Accent    = color.RGBA{33, 150, 243, 255}
)

// ParseColor parses "#rgb", "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.RGBA{}, fmt.Errorf("parse color %q: bad length", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// FormatColor renders c as "#rrggbbaa".
func FormatColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
