/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package board

import (
	"image"
	"sync"

	"boarddesigner/internal/render"

	"github.com/google/uuid"
)

// Handle indices of a selected object.
const (
	HandleBody   = 0
	HandleTop    = 1
	HandleLeft   = 2
	HandleRight  = 3
	HandleBottom = 4
)

// RenderContext carries what objects need to describe themselves in device pixels.
type RenderContext struct {
	Scale            float64 // device pixels per board unit
	OffsetX, OffsetY float64 // device pixel offset added after scaling
	HandleSize       int     // handle marker side in board units
	Styles           *StyleCatalog
}

func (rc RenderContext) scale() float64 {
	if rc.Scale <= 0 {
		return 1
	}
	return rc.Scale
}

// Geometry is the committed position and size of one object.
type Geometry struct {
	ID string `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
	W  int    `json:"w"`
	H  int    `json:"h"`
}

// Object is a placed item on a board. Every object keeps a committed geometry
// and a moving shadow that drags and resizes mutate until ApplyMovement.
type Object interface {
	ID() string
	Bounds() image.Rectangle
	MovingBounds() image.Rectangle
	Renderables(rc RenderContext) []render.Renderable
	// HandleAt returns the edge handle (1-4) under x,y or 0.
	HandleAt(x, y, size int) int
	HandleRenderables(rc RenderContext, active bool) []render.Renderable
	SetHandlePosition(handle, x, y int)
	MovingTo(x, y int)
	ApplyMovement()
	ResetHandles()
	Geometry() Geometry
	SetGeometry(g Geometry)
	StyleUID() string
	SetStyle(uid string)

	bind(onChange func())
}

// Box is the rectangular placed item.
type Box struct {
	mu       sync.RWMutex
	id       string
	name     string
	styleUID string

	x, y, w, h     int
	mx, my, mw, mh int

	onChange func()
}

// NewBox creates a box at x,y sized after style.
func NewBox(style BoxStyle, x, y int) *Box {
	w, h := max(style.Width, 1), max(style.Height, 1)
	return &Box{
		id: uuid.NewString(), styleUID: style.UID,
		x: x, y: y, w: w, h: h,
		mx: x, my: y, mw: w, mh: h,
	}
}

func (b *Box) ID() string { return b.id }

func (b *Box) Name() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.name
}

// SetName changes the label drawn inside the box.
func (b *Box) SetName(name string) {
	b.mu.Lock()
	b.name = name
	b.mu.Unlock()
	b.changed()
}

func (b *Box) StyleUID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.styleUID
}

// SetStyle switches the box to another style; size is kept.
func (b *Box) SetStyle(uid string) {
	b.mu.Lock()
	b.styleUID = uid
	b.mu.Unlock()
	b.changed()
}

func (b *Box) Bounds() image.Rectangle {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return image.Rect(b.x, b.y, b.x+b.w, b.y+b.h)
}

func (b *Box) MovingBounds() image.Rectangle {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return image.Rect(b.mx, b.my, b.mx+b.mw, b.my+b.mh)
}

func (b *Box) Geometry() Geometry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Geometry{ID: b.id, X: b.x, Y: b.y, W: b.w, H: b.h}
}

// SetGeometry overwrites both the committed and the moving geometry.
func (b *Box) SetGeometry(g Geometry) {
	b.mu.Lock()
	b.x, b.y, b.w, b.h = g.X, g.Y, max(g.W, 1), max(g.H, 1)
	b.mx, b.my, b.mw, b.mh = b.x, b.y, b.w, b.h
	b.mu.Unlock()
	b.changed()
}

func (b *Box) MovingTo(x, y int) {
	b.mu.Lock()
	b.mx, b.my = x, y
	b.mu.Unlock()
	b.changed()
}

// SetHandlePosition drags the named edge to x (left, right) or y (top,
// bottom). The opposite edge stays put and the size never drops below 1.
func (b *Box) SetHandlePosition(handle, x, y int) {
	b.mu.Lock()
	switch handle {
	case HandleTop:
		bottom := b.my + b.mh
		b.my = min(y, bottom-1)
		b.mh = bottom - b.my
	case HandleLeft:
		right := b.mx + b.mw
		b.mx = min(x, right-1)
		b.mw = right - b.mx
	case HandleRight:
		b.mw = max(x-b.mx, 1)
	case HandleBottom:
		b.mh = max(y-b.my, 1)
	default:
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()
	b.changed()
}

// ApplyMovement commits the moving geometry.
func (b *Box) ApplyMovement() {
	b.mu.Lock()
	b.x, b.y, b.w, b.h = b.mx, b.my, b.mw, b.mh
	b.mu.Unlock()
	b.changed()
}

// ResetHandles drops an in-flight drag.
func (b *Box) ResetHandles() {
	b.mu.Lock()
	b.mx, b.my, b.mw, b.mh = b.x, b.y, b.w, b.h
	b.mu.Unlock()
	b.changed()
}

func (b *Box) handleCenters() [5]image.Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return [5]image.Point{
		HandleBody:   {b.mx + b.mw/2, b.my + b.mh/2},
		HandleTop:    {b.mx + b.mw/2, b.my},
		HandleLeft:   {b.mx, b.my + b.mh/2},
		HandleRight:  {b.mx + b.mw, b.my + b.mh/2},
		HandleBottom: {b.mx + b.mw/2, b.my + b.mh},
	}
}

func (b *Box) HandleAt(x, y, size int) int {
	half := max(size/2, 1)
	c := b.handleCenters()
	for h := HandleTop; h <= HandleBottom; h++ {
		if abs(x-c[h].X) <= half && abs(y-c[h].Y) <= half {
			return h
		}
	}
	return 0
}

// Renderables draws the moving geometry so drags show while in progress.
func (b *Box) Renderables(rc RenderContext) []render.Renderable {
	s := rc.scale()
	b.mu.RLock()
	x, y, w, h := float64(b.mx), float64(b.my), float64(b.mw), float64(b.mh)
	name, styleUID := b.name, b.styleUID
	b.mu.RUnlock()

	style := DefaultBoxStyle()
	if rc.Styles != nil {
		if st, ok := rc.Styles.Get(styleUID); ok {
			style = st
		}
	}
	fill, stroke := style.colors()
	r := render.Rect(x*s+rc.OffsetX, y*s+rc.OffsetY, w*s, h*s, fill, stroke, style.StrokeWidth*s)
	if style.CornerRadius > 0 {
		r.Kind = render.KindRoundRect
		r.Radius = float64(style.CornerRadius) * s
	}
	out := []render.Renderable{r}
	if name != "" {
		out = append(out, render.Renderable{
			Kind: render.KindLabel,
			X:    (x+w/2)*s + rc.OffsetX, Y: (y+h/2)*s + rc.OffsetY,
			Fill: stroke, Text: name,
		})
	}
	return out
}

// HandleRenderables outlines the moving bounds and, when active, adds the
// four edge markers.
func (b *Box) HandleRenderables(rc RenderContext, active bool) []render.Renderable {
	s := rc.scale()
	mb := b.MovingBounds()
	outline := render.Rect(
		float64(mb.Min.X)*s+rc.OffsetX, float64(mb.Min.Y)*s+rc.OffsetY,
		float64(mb.Dx())*s, float64(mb.Dy())*s,
		transparent, render.Accent, s)
	out := []render.Renderable{outline}
	if !active {
		return out
	}
	size := float64(max(rc.HandleSize, 2)) * s
	c := b.handleCenters()
	for h := HandleTop; h <= HandleBottom; h++ {
		out = append(out, render.Renderable{
			Kind: render.KindRoundRect,
			X:    float64(c[h].X)*s + rc.OffsetX - size/2,
			Y:    float64(c[h].Y)*s + rc.OffsetY - size/2,
			W:    size, H: size, Radius: size / 2,
			Fill: render.White, Stroke: render.Accent, StrokeWidth: s,
		})
	}
	return out
}

func (b *Box) bind(onChange func()) {
	b.mu.Lock()
	b.onChange = onChange
	b.mu.Unlock()
}

func (b *Box) changed() {
	b.mu.RLock()
	fn := b.onChange
	b.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
