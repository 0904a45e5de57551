/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"strings"

	"boarddesigner/internal/board"
	"boarddesigner/internal/render"
)

// SVG writes the board as an SVG document. The viewBox is in board units and
// width/height are scaled by scale.
func SVG(b *board.Board, w io.Writer, scale float64) error {
	if b == nil {
		return errNilBoard
	}
	if scale <= 0 {
		scale = 1
	}
	bw, bh := b.Size()

	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%gpx\" height=\"%gpx\" viewBox=\"0 0 %d %d\">\n",
		float64(bw)*scale, float64(bh)*scale, bw, bh)
	for _, it := range b.Renderables(board.RenderContext{Scale: 1}) {
		switch it.Kind {
		case render.KindRect, render.KindRoundRect:
			rx := ""
			if it.Kind == render.KindRoundRect && it.Radius > 0 {
				rx = fmt.Sprintf(" rx=\"%g\" ry=\"%g\"", it.Radius, it.Radius)
			}
			wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\"%s fill=\"%s\"%s/>\n",
				it.X, it.Y, it.W, it.H, rx, svgPaint(it.Fill), svgStroke(it))
		case render.KindLine:
			wf("  <line x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\"%s/>\n", it.X, it.Y, it.X2, it.Y2, svgStroke(it))
		case render.KindLabel:
			wf("  <text x=\"%g\" y=\"%g\" text-anchor=\"middle\" dominant-baseline=\"middle\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"10\" fill=\"%s\">%s</text>\n",
				it.X, it.Y, svgPaint(it.Fill), escText(it.Text))
		}
	}
	wf("</svg>\n")
	if werr != nil {
		return fmt.Errorf("build svg: %w", werr)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func svgPaint(c color.RGBA) string {
	if c.A == 0 {
		return "none"
	}
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("rgba(%d,%d,%d,%.3g)", c.R, c.G, c.B, float64(c.A)/255)
}

func svgStroke(it render.Renderable) string {
	if it.Stroke.A == 0 || it.StrokeWidth <= 0 {
		return ""
	}
	return fmt.Sprintf(" stroke=\"%s\" stroke-width=\"%g\"", svgPaint(it.Stroke), it.StrokeWidth)
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escText(s string) string { return textEscaper.Replace(s) }
