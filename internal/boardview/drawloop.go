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
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"time"

	"boarddesigner/internal/board"
	"boarddesigner/internal/render"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
)

// drawLoop composites a frame every tick until ctx is cancelled. Frame
// failures are counted and the loop carries on with the next tick.
func (v *View) drawLoop(ctx context.Context, s Surface, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(v.opts.DrawInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		if err := v.drawFrame(s); err != nil {
			v.dropped.Add(1)
			v.log.Debug("frame dropped", slog.Any("err", err))
		}
	}
}

func (v *View) drawFrame(s Surface) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("draw frame: panic: %v", r)
		}
	}()
	if !s.Valid() {
		return ErrSurfaceInvalid
	}
	frame, err := s.Lock()
	if err != nil {
		return fmt.Errorf("lock surface: %w", err)
	}
	v.Compose(frame)
	if err := s.Post(frame); err != nil {
		return fmt.Errorf("post frame: %w", err)
	}
	return nil
}

// Compose paints one complete frame into dst: background, the offscreen board
// at minus the scroll offset and, with UI chrome on, rulers and selection
// handles.
func (v *View) Compose(dst *image.RGBA) {
	dc := gg.NewContextForRGBA(dst)
	dc.SetColor(render.LightGray)
	dc.Clear()

	st := v.state.Snapshot()
	sp := image.Pt(int(math.Round(st.ScrollX)), int(math.Round(st.ScrollY)))
	v.buf.View(func(src *image.RGBA) {
		xdraw.Draw(dst, dst.Bounds(), src, src.Bounds().Min.Add(sp), xdraw.Over)
	})
	if !st.ShowUI {
		return
	}
	if r := v.rulers.Load(); r != nil && r.Period > 0 {
		r.Vertical.Replay(dc, -posMod(st.ScrollX, r.Period), 0)
		r.Horizontal.Replay(dc, 0, -posMod(st.ScrollY, r.Period))
	}
	if st.Selected != nil {
		rc := board.RenderContext{Scale: v.opts.Scale, OffsetX: -st.ScrollX, OffsetY: -st.ScrollY, HandleSize: v.opts.HandleSize}
		for _, it := range st.Selected.HandleRenderables(rc, !st.Panning) {
			v.opts.Renderer.DrawOne(dc, it)
		}
	}
}

func posMod(a, m float64) float64 {
	r := math.Mod(a, m)
	if r < 0 {
		r += m
	}
	return r
}
