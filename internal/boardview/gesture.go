/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package boardview

import (
	"math"
	"sync"

	"boarddesigner/internal/board"
)

// EventKind is the phase of a pointer event.
type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	PointerCancel
)

// PointerEvent is a pointer sample in device pixels relative to the view.
type PointerEvent struct {
	Kind EventKind
	X, Y float64
}

// gesture tracks one pointer from down to up. The touchee and handle fields
// alone determine how moves are applied; panning mode bypasses them.
type gesture struct {
	mu sync.Mutex

	down         bool
	tap          bool // no movement beyond the touch slop so far
	downX, downY float64
	ptrX, ptrY   float64 // last pointer sample, device pixels

	touchee      board.Object
	handle       int
	lastX, lastY int // last applied board coordinates
	before       []board.Geometry
}

// HandlePointer feeds one pointer event through the interaction state
// machine. It reports whether the event was consumed.
func (v *View) HandlePointer(ev PointerEvent) bool {
	g := &v.gest
	g.mu.Lock()
	defer g.mu.Unlock()

	switch ev.Kind {
	case PointerDown:
		return v.pointerDownLocked(ev)
	case PointerMove:
		return v.pointerMoveLocked(ev)
	case PointerUp:
		return v.pointerUpLocked(ev)
	case PointerCancel:
		if g.touchee != nil {
			g.touchee.ResetHandles()
		}
		v.resetGestureLocked()
		return true
	}
	return false
}

// boardPoint converts a device pixel position into board units, honouring
// the current scroll offset.
func (v *View) boardPoint(x, y float64) (int, int) {
	sx, sy := v.state.Scroll()
	return int((x + sx) / v.opts.Scale), int((y + sy) / v.opts.Scale)
}

func (v *View) pointerDownLocked(ev PointerEvent) bool {
	g := &v.gest
	g.down, g.tap = true, true
	g.downX, g.downY = ev.X, ev.Y
	g.ptrX, g.ptrY = ev.X, ev.Y
	g.touchee = nil

	st := v.state.Snapshot()
	if st.Panning || st.Selected == nil {
		return true
	}
	x, y := v.boardPoint(ev.X, ev.Y)
	sel := st.Selected
	handle := sel.HandleAt(x, y, v.opts.HandleSize)
	if v.board.ObjectAtPosition(x, y) == sel || handle > 0 {
		g.touchee = sel
		g.handle = handle
		g.lastX, g.lastY = x, y
		g.before = v.board.Snapshot()
	}
	return true
}

func (v *View) pointerMoveLocked(ev PointerEvent) bool {
	g := &v.gest
	if !g.down {
		return false
	}
	if g.tap && math.Hypot(ev.X-g.downX, ev.Y-g.downY) > float64(v.opts.TouchSlop)*v.opts.Scale {
		g.tap = false
	}
	prevX, prevY := g.ptrX, g.ptrY
	g.ptrX, g.ptrY = ev.X, ev.Y

	if v.state.PanningActive() {
		v.state.ScrollBy(prevX-ev.X, prevY-ev.Y)
		return true
	}
	if g.touchee == nil {
		return false
	}
	v.dragLocked(ev)
	return true
}

// dragLocked applies a move to the engaged object, snapping the coordinate
// each handle controls against the major grid.
func (v *View) dragLocked(ev PointerEvent) {
	g := &v.gest
	t := g.touchee
	gc := v.board.Grid()
	rawX, rawY := v.boardPoint(ev.X, ev.Y)
	mb := t.MovingBounds()
	dx, dy := rawX-g.lastX, rawY-g.lastY

	var sx, sy int
	switch g.handle {
	case board.HandleBody:
		sx = gc.Snap(rawX, mb.Min.X+dx)
		sy = gc.Snap(rawY, mb.Min.Y+dy)
		t.MovingTo(mb.Min.X+(sx-g.lastX), mb.Min.Y+(sy-g.lastY))
	case board.HandleTop:
		sx = gc.Snap(rawX, mb.Min.X+dx)
		sy = rawY
		t.SetHandlePosition(board.HandleTop, sx, sy)
	case board.HandleLeft:
		sx = rawX
		sy = gc.Snap(rawY, mb.Min.Y+dy)
		t.SetHandlePosition(board.HandleLeft, sx, sy)
	case board.HandleRight:
		sx = gc.Snap(rawX, mb.Max.X+dx)
		sy = rawY
		t.SetHandlePosition(board.HandleRight, sx, sy)
	default:
		sx = rawX
		sy = gc.Snap(rawY, mb.Max.Y+dy)
		t.SetHandlePosition(board.HandleBottom, sx, sy)
	}
	g.lastX, g.lastY = sx, sy
}

func (v *View) pointerUpLocked(ev PointerEvent) bool {
	g := &v.gest
	if !g.down {
		return false
	}
	if t := g.touchee; t != nil {
		t.ApplyMovement()
		v.recordUndo(g.before)
	} else if g.tap {
		x, y := v.boardPoint(ev.X, ev.Y)
		v.state.SetSelected(v.board.ObjectAtPosition(x, y))
	}
	v.resetGestureLocked()
	return true
}

func (v *View) resetGestureLocked() {
	g := &v.gest
	g.down, g.tap = false, false
	g.touchee = nil
	g.handle = 0
	g.before = nil
}

// panningChanged drops any drag in progress; the engaged object snaps back to
// its committed geometry.
func (v *View) panningChanged(bool) {
	g := &v.gest
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.touchee != nil {
		g.touchee.ResetHandles()
		g.touchee = nil
		g.before = nil
	}
}
