/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package boardview is the interactive board canvas: it turns pointer events
// into board edits, keeps an offscreen rendering of the board up to date on
// background workers and composites that rendering, the rulers and the
// selection chrome onto a host surface on a fixed cadence.
package boardview

import (
	"context"
	"encoding/json"
	"image"
	"log/slog"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"boarddesigner/internal/board"
	"boarddesigner/internal/grid"
	"boarddesigner/internal/log"
	"boarddesigner/internal/render"
	"boarddesigner/internal/undo"
)

// Options tune a View. Zero values fall back to defaults.
type Options struct {
	Scale        float64       // device pixels per board unit
	DrawInterval time.Duration // draw loop cadence, default 5ms
	HandleSize   int           // handle hit box and marker side, board units
	TouchSlop    int           // movement in dip below which a down/up pair is a tap
	Logger       *slog.Logger
	Renderer     *render.Renderer
	Undo         *undo.Manager
	BoardID      int64 // undo history key
}

func (o Options) withDefaults() Options {
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.DrawInterval <= 0 {
		o.DrawInterval = 5 * time.Millisecond
	}
	if o.HandleSize <= 0 {
		o.HandleSize = 12
	}
	if o.TouchSlop < 0 {
		o.TouchSlop = 0
	}
	if o.Logger == nil {
		o.Logger = log.WithComponent("boardview")
	}
	if o.Renderer == nil {
		o.Renderer = render.NewRenderer()
	}
	return o
}

// View binds a board and its editing state to a display surface.
type View struct {
	board *board.Board
	state *board.State
	opts  Options
	log   *slog.Logger

	buf       *Buffer
	rulers    render.RulerCache
	renderJob *coalescer
	rulerJob  *coalescer

	sizeMu       sync.Mutex
	viewW, viewH int

	gest gesture

	loopMu     sync.Mutex
	loopCancel context.CancelFunc
	loopDone   chan struct{}

	dropped atomic.Uint64
	unbind  []func()
}

// New creates the view and immediately schedules the first ruler build and
// board render.
func New(b *board.Board, st *board.State, opts Options) *View {
	opts = opts.withDefaults()
	v := &View{board: b, state: st, opts: opts, log: opts.Logger}
	v.buf = NewBuffer(v.bufferSize())
	v.renderJob = newCoalescer(v.render)
	v.rulerJob = newCoalescer(v.buildRulers)

	cid := b.OnContentChange(v.renderJob.Trigger)
	sid := b.OnSizeChange(func(int, int) { v.boardResized() })
	gid := b.OnGridChange(func(grid.Config) { v.rulerJob.Trigger() })
	shid := st.OnShowGrid(func(bool) { v.rulerJob.Trigger() })
	pid := st.OnPanningActive(v.panningChanged)
	v.unbind = []func(){
		func() { b.RemoveContentListener(cid) },
		func() { b.RemoveSizeListener(sid) },
		func() { b.RemoveGridListener(gid) },
		func() { st.RemoveShowGridListener(shid) },
		func() { st.RemovePanningListener(pid) },
	}

	v.rulerJob.Trigger()
	v.renderJob.Trigger()
	return v
}

func (v *View) bufferSize() (int, int) {
	w, h := v.board.Size()
	return int(math.Ceil(float64(w) * v.opts.Scale)), int(math.Ceil(float64(h) * v.opts.Scale))
}

func (v *View) boardResized() {
	v.state.SetScroll(0, 0)
	v.buf.Resize(v.bufferSize())
	v.renderJob.Trigger()
}

// render regenerates the offscreen buffer from the board. Rasterizing happens
// outside the buffer lock; only the final copy holds it.
func (v *View) render() {
	seq := v.buf.NextSeq()
	w, h := v.buf.Size()
	scratch := image.NewRGBA(image.Rect(0, 0, w, h))
	v.opts.Renderer.Draw(scratch, v.board.Renderables(board.RenderContext{Scale: v.opts.Scale}), true)
	if !v.buf.Commit(seq, scratch) {
		v.log.Debug("stale render discarded", slog.Uint64("seq", seq))
	}
}

func (v *View) buildRulers() {
	v.sizeMu.Lock()
	w, h := v.viewW, v.viewH
	v.sizeMu.Unlock()
	v.rulers.Build(w, h, v.board.Grid(), v.opts.Scale, v.state.ShowGrid())
}

// RequestRender schedules a board render.
func (v *View) RequestRender() { v.renderJob.Trigger() }

// Flush waits until no render or ruler build is in flight.
func (v *View) Flush() {
	v.renderJob.Wait()
	v.rulerJob.Wait()
}

// SurfaceCreated starts the draw loop on s. A running loop is stopped first.
func (v *View) SurfaceCreated(s Surface) {
	v.SurfaceDestroyed()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	v.loopMu.Lock()
	v.loopCancel, v.loopDone = cancel, done
	v.loopMu.Unlock()
	v.log.Debug("surface created")
	go v.drawLoop(ctx, s, done)
}

// SurfaceChanged records the new viewport size and refreshes the size
// dependent caches.
func (v *View) SurfaceChanged(w, h int) {
	v.sizeMu.Lock()
	v.viewW, v.viewH = w, h
	v.sizeMu.Unlock()
	v.rulerJob.Trigger()
	v.renderJob.Trigger()
}

// SurfaceDestroyed stops the draw loop and returns once it no longer touches
// the surface.
func (v *View) SurfaceDestroyed() {
	v.loopMu.Lock()
	cancel, done := v.loopCancel, v.loopDone
	v.loopCancel, v.loopDone = nil, nil
	v.loopMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	v.log.Debug("surface destroyed")
}

// Close stops drawing, detaches from the board and state and waits for
// background work.
func (v *View) Close() {
	v.SurfaceDestroyed()
	for _, fn := range v.unbind {
		fn()
	}
	v.unbind = nil
	v.Flush()
}

// DroppedFrames counts frames lost to surface failures.
func (v *View) DroppedFrames() uint64 { return v.dropped.Load() }

// BoardPoint maps a device pixel position in the view to board units.
func (v *View) BoardPoint(x, y float64) (int, int) { return v.boardPoint(x, y) }

// ApplyStyleToSelection switches the selected object to style uid.
func (v *View) ApplyStyleToSelection(uid string) error {
	sel := v.state.Selected()
	if sel == nil {
		return ErrNothingSelected
	}
	return v.board.ApplyStyle(sel.ID(), uid)
}

// Undo restores the geometry before the last committed drag.
func (v *View) Undo() bool {
	if v.opts.Undo == nil {
		return false
	}
	s, ok := v.opts.Undo.Undo(v.opts.BoardID)
	if !ok {
		return false
	}
	return v.restore(s.Before)
}

// Redo reapplies the last undone drag.
func (v *View) Redo() bool {
	if v.opts.Undo == nil {
		return false
	}
	s, ok := v.opts.Undo.Redo(v.opts.BoardID)
	if !ok {
		return false
	}
	return v.restore(s.After)
}

func (v *View) restore(blob []byte) bool {
	var gs []board.Geometry
	if err := json.Unmarshal(blob, &gs); err != nil {
		v.log.Warn("undo snapshot unreadable", slog.Any("err", err))
		return false
	}
	v.board.Restore(gs)
	return true
}

func (v *View) recordUndo(before []board.Geometry) {
	if v.opts.Undo == nil || before == nil {
		return
	}
	after := v.board.Snapshot()
	if slices.Equal(before, after) {
		return
	}
	b, err := json.Marshal(before)
	if err != nil {
		return
	}
	a, err := json.Marshal(after)
	if err != nil {
		return
	}
	v.opts.Undo.PushSnapshot(undo.Snapshot{BoardID: v.opts.BoardID, Before: b, After: a, TS: time.Now()})
}
