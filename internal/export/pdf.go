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
	"fmt"
	"image/color"
	"io"

	"github.com/jung-kurt/gofpdf"

	"boarddesigner/internal/board"
	"boarddesigner/internal/render"
)

// PDFOptions controls PDF export. One board unit maps to one point.
type PDFOptions struct {
	Title  string
	Author string
	// Margin adds white space around the board, in points.
	Margin float64
}

// PDF writes the board as a single-page vector PDF.
func PDF(b *board.Board, w io.Writer, opt PDFOptions) error {
	if b == nil {
		return errNilBoard
	}
	bw, bh := b.Size()
	m := opt.Margin
	if m < 0 {
		m = 0
	}
	size := gofpdf.SizeType{Wd: float64(bw) + 2*m, Ht: float64(bh) + 2*m}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: size})
	title := opt.Title
	if title == "" {
		title = b.Name()
	}
	pdf.SetTitle(title, true)
	if opt.Author != "" {
		pdf.SetAuthor(opt.Author, true)
	}
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPageFormat("P", size)
	pdf.SetFont("Helvetica", "", 10)

	for _, it := range b.Renderables(board.RenderContext{Scale: 1, OffsetX: m, OffsetY: m}) {
		drawPDF(pdf, it)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func drawPDF(pdf *gofpdf.Fpdf, it render.Renderable) {
	style := pathStyle(it)
	switch it.Kind {
	case render.KindRect:
		if style == "" {
			return
		}
		setColors(pdf, it)
		pdf.Rect(it.X, it.Y, it.W, it.H, style)
	case render.KindRoundRect:
		if style == "" {
			return
		}
		setColors(pdf, it)
		roundedRect(pdf, it.X, it.Y, it.W, it.H, it.Radius, style)
	case render.KindLine:
		if it.Stroke.A == 0 {
			return
		}
		setColors(pdf, it)
		pdf.Line(it.X, it.Y, it.X2, it.Y2)
	case render.KindLabel:
		if it.Text == "" {
			return
		}
		pdf.SetTextColor(int(it.Fill.R), int(it.Fill.G), int(it.Fill.B))
		tw := pdf.GetStringWidth(it.Text)
		_, fh := pdf.GetFontSize()
		pdf.Text(it.X-tw/2, it.Y+fh/3, it.Text)
	}
}

func pathStyle(it render.Renderable) string {
	fill := it.Fill.A > 0
	stroke := it.Stroke.A > 0 && it.StrokeWidth > 0
	switch {
	case fill && stroke:
		return "FD"
	case fill:
		return "F"
	case stroke:
		return "D"
	}
	return ""
}

func setColors(pdf *gofpdf.Fpdf, it render.Renderable) {
	setFillColor(pdf, it.Fill)
	setDrawColor(pdf, it.Stroke)
	w := it.StrokeWidth
	if w <= 0 {
		w = 1
	}
	pdf.SetLineWidth(w)
}

func setDrawColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}

// roundedRect draws a rectangle with all four corners rounded by r.
func roundedRect(pdf *gofpdf.Fpdf, x, y, w, h, r float64, style string) {
	r = min(r, w/2, h/2)
	if r <= 0 {
		pdf.Rect(x, y, w, h, style)
		return
	}
	pdf.RoundedRect(x, y, w, h, r, "1234", style)
}
