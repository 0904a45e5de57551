//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image"
	"image/draw"
	"sync"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"boarddesigner/internal/boardview"
)

// BoardWidget hosts a boardview.View. It owns an ImageSurface the draw loop
// paints into and shows the last posted frame through a canvas.Raster.
// Mouse input is forwarded as pointer events in raster pixels.
type BoardWidget struct {
	widget.BaseWidget

	view   *boardview.View
	surf   *boardview.ImageSurface
	raster *canvas.Raster

	mu      sync.Mutex
	w, h    int
	started bool
	closed  bool

	refreshPending atomic.Bool

	inputMu sync.Mutex
	down    bool
	lastX   float64
	lastY   float64
}

var (
	_ desktop.Mouseable = (*BoardWidget)(nil)
	_ fyne.Draggable    = (*BoardWidget)(nil)
)

// NewBoardWidget wraps v. The draw loop starts on the first layout.
func NewBoardWidget(v *boardview.View) *BoardWidget {
	bw := &BoardWidget{view: v, surf: boardview.NewImageSurface(1, 1)}
	bw.raster = canvas.NewRaster(bw.frame)
	bw.surf.OnPost = bw.scheduleRefresh
	bw.ExtendBaseWidget(bw)
	return bw
}

func (bw *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(bw.raster)
}

func (bw *BoardWidget) MinSize() fyne.Size { return fyne.NewSize(320, 240) }

// frame is the raster generator. w and h are pixels; a size change resizes
// the surface and tells the view.
func (bw *BoardWidget) frame(w, h int) image.Image {
	bw.mu.Lock()
	if !bw.closed && (w != bw.w || h != bw.h) {
		bw.w, bw.h = w, h
		bw.surf.Resize(w, h)
		if !bw.started {
			bw.started = true
			bw.view.SurfaceCreated(bw.surf)
		}
		bw.view.SurfaceChanged(w, h)
	}
	bw.mu.Unlock()

	out := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	bw.surf.Front(func(img *image.RGBA) {
		draw.Draw(out, out.Bounds(), img, image.Point{}, draw.Src)
	})
	return out
}

// scheduleRefresh coalesces posted frames into at most one pending raster
// refresh on the UI goroutine.
func (bw *BoardWidget) scheduleRefresh() {
	if !bw.refreshPending.CompareAndSwap(false, true) {
		return
	}
	fyne.Do(func() {
		bw.refreshPending.Store(false)
		bw.raster.Refresh()
	})
}

// Close stops the draw loop and invalidates the surface.
func (bw *BoardWidget) Close() {
	bw.mu.Lock()
	bw.closed = true
	bw.mu.Unlock()
	bw.surf.Invalidate()
	bw.view.SurfaceDestroyed()
}

// devicePoint converts a widget position (dip) into raster pixels.
func (bw *BoardWidget) devicePoint(p fyne.Position) (float64, float64) {
	scale := float32(1)
	if app := fyne.CurrentApp(); app != nil {
		if c := app.Driver().CanvasForObject(bw); c != nil {
			scale = c.Scale()
		}
	}
	return float64(p.X * scale), float64(p.Y * scale)
}

func (bw *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	x, y := bw.devicePoint(e.Position)
	bw.inputMu.Lock()
	bw.down, bw.lastX, bw.lastY = true, x, y
	bw.inputMu.Unlock()
	bw.view.HandlePointer(boardview.PointerEvent{Kind: boardview.PointerDown, X: x, Y: y})
}

func (bw *BoardWidget) Dragged(e *fyne.DragEvent) {
	x, y := bw.devicePoint(e.Position)
	bw.inputMu.Lock()
	if !bw.down {
		bw.inputMu.Unlock()
		return
	}
	bw.lastX, bw.lastY = x, y
	bw.inputMu.Unlock()
	bw.view.HandlePointer(boardview.PointerEvent{Kind: boardview.PointerMove, X: x, Y: y})
}

func (bw *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	x, y := bw.devicePoint(e.Position)
	bw.release(x, y, true)
}

// DragEnd finishes a drag whose mouse-up went elsewhere.
func (bw *BoardWidget) DragEnd() {
	bw.inputMu.Lock()
	x, y := bw.lastX, bw.lastY
	bw.inputMu.Unlock()
	bw.release(x, y, false)
}

func (bw *BoardWidget) release(x, y float64, useXY bool) {
	bw.inputMu.Lock()
	if !bw.down {
		bw.inputMu.Unlock()
		return
	}
	bw.down = false
	if !useXY {
		x, y = bw.lastX, bw.lastY
	}
	bw.inputMu.Unlock()
	bw.view.HandlePointer(boardview.PointerEvent{Kind: boardview.PointerUp, X: x, Y: y})
}
