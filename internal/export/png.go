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
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	xdraw "golang.org/x/image/draw"

	"boarddesigner/internal/board"
	"boarddesigner/internal/render"
)

// ThumbnailSide is the longest edge of catalog thumbnails.
const ThumbnailSide = 160

var errNilBoard = errors.New("board is nil")

// Raster renders the whole board at scale onto a new image.
func Raster(b *board.Board, scale float64) (*image.RGBA, error) {
	if b == nil {
		return nil, errNilBoard
	}
	if scale <= 0 {
		scale = 1
	}
	w, h := b.Size()
	pw := int(math.Ceil(float64(w) * scale))
	ph := int(math.Ceil(float64(h) * scale))
	img := image.NewRGBA(image.Rect(0, 0, pw, ph))
	render.NewRenderer().Draw(img, b.Renderables(board.RenderContext{Scale: scale}), true)
	return img, nil
}

// PNG encodes the board raster at scale into w.
func PNG(b *board.Board, w io.Writer, scale float64) error {
	img, err := Raster(b, scale)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Thumbnail returns the board scaled to fit a maxSide square, keeping the
// aspect ratio.
func Thumbnail(b *board.Board, maxSide int) (*image.RGBA, error) {
	if maxSide <= 0 {
		maxSide = ThumbnailSide
	}
	src, err := Raster(b, 1)
	if err != nil {
		return nil, err
	}
	sw, sh := src.Bounds().Dx(), src.Bounds().Dy()
	f := math.Min(float64(maxSide)/float64(sw), float64(maxSide)/float64(sh))
	if f >= 1 {
		return src, nil
	}
	dw := max(int(math.Round(float64(sw)*f)), 1)
	dh := max(int(math.Round(float64(sh)*f)), 1)
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst, nil
}

// ThumbnailPNG is Thumbnail encoded as PNG bytes, the form stored by the catalog.
func ThumbnailPNG(b *board.Board, maxSide int) ([]byte, error) {
	img, err := Thumbnail(b, maxSide)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
