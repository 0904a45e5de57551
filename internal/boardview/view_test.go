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
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"boarddesigner/internal/board"
	"boarddesigner/internal/render"
)

func uniform(c color.RGBA, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestBufferDiscardsStaleCommit(t *testing.T) {
	b := NewBuffer(4, 4)
	older, newer := b.NextSeq(), b.NextSeq()
	blue := color.RGBA{0, 0, 255, 255}
	red := color.RGBA{255, 0, 0, 255}
	if !b.Commit(newer, uniform(blue, 4, 4)) {
		t.Fatalf("newer commit rejected")
	}
	if b.Commit(older, uniform(red, 4, 4)) {
		t.Fatalf("stale commit accepted")
	}
	b.View(func(src *image.RGBA) {
		if got := src.RGBAAt(1, 1); got != blue {
			t.Fatalf("stale render overwrote buffer: %v", got)
		}
	})
	if b.Commit(b.NextSeq(), uniform(red, 3, 3)) {
		t.Fatalf("commit with wrong size accepted")
	}
}

func TestBufferNeverTorn(t *testing.T) {
	const n = 8
	b := NewBuffer(64, 64)
	colors := make([]color.RGBA, n)
	for i := range colors {
		colors[i] = color.RGBA{uint8(30 * i), uint8(255 - 30*i), uint8(i), 255}
	}
	valid := func(c color.RGBA) bool {
		if c == (color.RGBA{}) {
			return true
		}
		for _, k := range colors {
			if c == k {
				return true
			}
		}
		return false
	}

	var stop atomic.Bool
	var readers sync.WaitGroup
	readers.Add(1)
	go func() {
		defer readers.Done()
		for !stop.Load() {
			b.View(func(src *image.RGBA) {
				first := src.RGBAAt(0, 0)
				if !valid(first) {
					t.Errorf("unknown color %v", first)
				}
				for y := 0; y < 64; y += 7 {
					for x := 0; x < 64; x += 5 {
						if src.RGBAAt(x, y) != first {
							t.Errorf("torn frame at %d,%d", x, y)
							return
						}
					}
				}
			})
		}
	}()

	var writers sync.WaitGroup
	for round := 0; round < 20; round++ {
		for i := 0; i < n; i++ {
			writers.Add(1)
			go func(c color.RGBA) {
				defer writers.Done()
				seq := b.NextSeq()
				b.Commit(seq, uniform(c, 64, 64))
			}(colors[i])
		}
	}
	writers.Wait()
	stop.Store(true)
	readers.Wait()
}

func TestCoalescerBoundsConcurrency(t *testing.T) {
	var inFlight, peak, runs atomic.Int32
	release := make(chan struct{})
	c := newCoalescer(func() {
		n := inFlight.Add(1)
		if n > peak.Load() {
			peak.Store(n)
		}
		runs.Add(1)
		<-release
		inFlight.Add(-1)
	})
	for i := 0; i < 50; i++ {
		c.Trigger()
	}
	close(release)
	c.Wait()
	if peak.Load() != 1 {
		t.Fatalf("peak concurrency = %d", peak.Load())
	}
	if r := runs.Load(); r < 1 || r > 2 {
		t.Fatalf("expected one run plus at most one rerun, got %d", r)
	}
}

func TestComposeBlitsAtScrollOffset(t *testing.T) {
	f := newFixture(t, 1)
	f.st.SetShowUI(false)
	f.v.Flush()
	f.st.SetScroll(-50, 0)
	frame := image.NewRGBA(image.Rect(0, 0, 200, 200))
	f.v.Compose(frame)
	if got := frame.RGBAAt(10, 10); got != render.LightGray {
		t.Fatalf("background pixel = %v", got)
	}
	if got := frame.RGBAAt(100, 50); got != render.White {
		t.Fatalf("board page pixel = %v", got)
	}
	want, _ := render.ParseColor(f.b.Styles().List()[0].Fill)
	if got := frame.RGBAAt(200-1, 130); got != want { // board x 149
		t.Fatalf("box pixel = %v want %v", got, want)
	}
}

func TestComposeDrawsRulersWithUI(t *testing.T) {
	f := newFixture(t, 1)
	f.v.SurfaceChanged(200, 200)
	f.v.Flush()
	frame := image.NewRGBA(image.Rect(0, 0, 200, 200))
	f.v.Compose(frame)
	// major tick at x=50 runs 12px down from the top edge
	if got := frame.RGBAAt(50, 5); got.R > 200 {
		t.Fatalf("expected a dark ruler tick, got %v", got)
	}
	if got := frame.RGBAAt(55, 5); got.R < 200 {
		t.Fatalf("minor ticks stop at 4px, got %v at 55,5", got)
	}
}

// flakySurface fails every other Lock and records access.
type flakySurface struct {
	*ImageSurface
	calls atomic.Int64
}

func (s *flakySurface) Lock() (*image.RGBA, error) {
	if s.calls.Add(1)%2 == 0 {
		return nil, errors.New("surface busy")
	}
	return s.ImageSurface.Lock()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestDrawLoopSurvivesErrorsAndStopsOnDestroy(t *testing.T) {
	f := newFixture(t, 1)
	s := &flakySurface{ImageSurface: NewImageSurface(100, 100)}
	f.v.SurfaceCreated(s)
	waitFor(t, func() bool { return s.Posted() >= 3 && f.v.DroppedFrames() >= 3 })
	f.v.SurfaceDestroyed()
	calls := s.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if s.calls.Load() != calls {
		t.Fatalf("surface accessed after destroy")
	}
}

func TestDrawLoopSkipsInvalidSurface(t *testing.T) {
	f := newFixture(t, 1)
	s := NewImageSurface(100, 100)
	s.Invalidate()
	f.v.SurfaceCreated(s)
	waitFor(t, func() bool { return f.v.DroppedFrames() >= 2 })
	if s.Posted() != 0 {
		t.Fatalf("posted to an invalid surface")
	}
	s.Revalidate()
	waitFor(t, func() bool { return s.Posted() >= 1 })
	f.v.SurfaceDestroyed()
	f.v.SurfaceDestroyed() // idempotent
}

func TestBoardResizeResetsScroll(t *testing.T) {
	f := newFixture(t, 2)
	f.st.SetScroll(30, 40)
	if err := f.b.SetSize(500, 100); err != nil {
		t.Fatalf("SetSize: %v", err)
	}
	if x, y := f.st.Scroll(); x != 0 || y != 0 {
		t.Fatalf("scroll not reset: %v,%v", x, y)
	}
	if w, h := f.v.buf.Size(); w != 1000 || h != 200 {
		t.Fatalf("buffer size = %dx%d", w, h)
	}
}

func TestBoardPointUsesViewScale(t *testing.T) {
	f := newFixture(t, 0.5)
	f.st.SetScroll(50, 20)
	if x, y := f.v.BoardPoint(0, 0); x != 100 || y != 40 {
		t.Fatalf("BoardPoint(0,0) = %d,%d, want 100,40", x, y)
	}
	if x, y := f.v.BoardPoint(10, 10); x != 120 || y != 60 {
		t.Fatalf("BoardPoint(10,10) = %d,%d, want 120,60", x, y)
	}
}

func TestApplyStyleToSelection(t *testing.T) {
	f := newFixture(t, 1)
	blue, err := f.b.Styles().Add(board.BoxStyle{Name: "Blue", Width: 40, Height: 40, Fill: "#0000ff", Stroke: "#000000", StrokeWidth: 1})
	if err != nil {
		t.Fatalf("Add style: %v", err)
	}
	if err := f.v.ApplyStyleToSelection(blue.UID); !errors.Is(err, ErrNothingSelected) {
		t.Fatalf("want ErrNothingSelected, got %v", err)
	}
	f.st.SetSelected(f.box)
	if err := f.v.ApplyStyleToSelection(blue.UID); err != nil {
		t.Fatalf("ApplyStyleToSelection: %v", err)
	}
	if f.box.StyleUID() != blue.UID {
		t.Fatalf("style not applied")
	}
	rs := f.box.Renderables(board.RenderContext{Styles: f.b.Styles()})
	if rs[0].Fill != (color.RGBA{B: 0xff, A: 0xff}) {
		t.Fatalf("fill = %v, want blue", rs[0].Fill)
	}
}
