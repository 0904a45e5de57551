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
	"image"
	"testing"

	"boarddesigner/internal/board"
	"boarddesigner/internal/grid"
	"boarddesigner/internal/log"
	"boarddesigner/internal/undo"
)

type fixture struct {
	v   *View
	b   *board.Board
	st  *board.State
	box *board.Box
}

// newFixture builds a 400x300 board with grid factor 50 and one 100x60 box at 100,100.
func newFixture(t *testing.T, scale float64) fixture {
	t.Helper()
	b, err := board.New("t", 400, 300, grid.Config{Size: 10, Interval: 5})
	if err != nil {
		t.Fatalf("board.New: %v", err)
	}
	st := b.Styles().List()[0]
	st.Width, st.Height = 100, 60
	if err := b.Styles().Update(st); err != nil {
		t.Fatalf("Update style: %v", err)
	}
	box, err := b.AddBox(st.UID, 100, 100)
	if err != nil {
		t.Fatalf("AddBox: %v", err)
	}
	state := board.NewState()
	v := New(b, state, Options{
		Scale:      scale,
		HandleSize: 12,
		TouchSlop:  4,
		Logger:     log.Discard(),
		Undo:       undo.NewManager(undo.Config{}),
		BoardID:    1,
	})
	t.Cleanup(v.Close)
	return fixture{v: v, b: b, st: state, box: box}
}

func (f fixture) send(kind EventKind, x, y float64) bool {
	return f.v.HandlePointer(PointerEvent{Kind: kind, X: x, Y: y})
}

func TestDragCommitsSnappedDeltas(t *testing.T) {
	f := newFixture(t, 1)
	f.st.SetSelected(f.box)
	f.send(PointerDown, 120, 120)
	f.send(PointerMove, 143, 120) // anchor 123: no snap
	if got := f.box.MovingBounds().Min; got != image.Pt(123, 100) {
		t.Fatalf("moving position after first move = %v", got)
	}
	f.send(PointerMove, 148, 120) // anchor 128: no snap
	f.send(PointerMove, 166, 120) // anchor 146: 4 short of 150, snaps up
	if got := f.box.Bounds().Min; got != image.Pt(100, 100) {
		t.Fatalf("committed position changed before release: %v", got)
	}
	f.send(PointerUp, 166, 120)
	if got := f.box.Bounds().Min; got != image.Pt(150, 100) {
		t.Fatalf("committed position = %v, want (150,100)", got)
	}
	if f.st.Selected() != f.box {
		t.Fatalf("a drag must not change the selection")
	}
}

func TestDragUndoRedo(t *testing.T) {
	f := newFixture(t, 1)
	f.st.SetSelected(f.box)
	f.send(PointerDown, 120, 120)
	f.send(PointerMove, 166, 120)
	f.send(PointerUp, 166, 120)
	moved := f.box.Bounds()
	if moved.Min == image.Pt(100, 100) {
		t.Fatalf("drag had no effect")
	}
	if !f.v.Undo() {
		t.Fatalf("Undo reported nothing to undo")
	}
	if got := f.box.Bounds().Min; got != image.Pt(100, 100) {
		t.Fatalf("undo left box at %v", got)
	}
	if !f.v.Redo() || f.box.Bounds() != moved {
		t.Fatalf("redo did not reapply: %v", f.box.Bounds())
	}
}

func TestResizeRightHandleSnaps(t *testing.T) {
	f := newFixture(t, 1)
	f.st.SetSelected(f.box)
	f.send(PointerDown, 200, 130) // right edge handle, outside the body
	f.send(PointerMove, 233, 130)
	if got := f.box.MovingBounds().Max.X; got != 233 {
		t.Fatalf("right edge after first move = %d", got)
	}
	f.send(PointerMove, 246, 130) // edge anchor 246 snaps to 250
	f.send(PointerUp, 246, 130)
	if got := f.box.Bounds(); got != image.Rect(100, 100, 250, 160) {
		t.Fatalf("bounds = %v", got)
	}
}

func TestTopHandleSnapsXAndFollowsRawY(t *testing.T) {
	f := newFixture(t, 1)
	f.st.SetSelected(f.box)
	f.send(PointerDown, 150, 100) // top edge handle
	f.send(PointerMove, 160, 80)  // x anchor 110 snaps, y stays raw
	if got := f.box.MovingBounds(); got != image.Rect(100, 80, 200, 160) {
		t.Fatalf("moving bounds = %v", got)
	}
	f.send(PointerMove, 150, 77)
	f.send(PointerUp, 150, 77)
	if got := f.box.Bounds(); got != image.Rect(100, 77, 200, 160) {
		t.Fatalf("bounds = %v", got)
	}
}

func TestLeftHandleKeepsXRaw(t *testing.T) {
	f := newFixture(t, 1)
	f.st.SetSelected(f.box)
	f.send(PointerDown, 100, 130) // left edge handle
	f.send(PointerMove, 52, 130)  // 2 past a grid line, x is not snapped
	if got := f.box.MovingBounds(); got != image.Rect(52, 100, 200, 160) {
		t.Fatalf("moving bounds = %v", got)
	}
	f.send(PointerMove, 83, 160)
	f.send(PointerUp, 83, 160)
	if got := f.box.Bounds(); got != image.Rect(83, 100, 200, 160) {
		t.Fatalf("bounds = %v", got)
	}
}

func TestBottomHandleSnapsBottomEdge(t *testing.T) {
	f := newFixture(t, 1)
	f.st.SetSelected(f.box)
	f.send(PointerDown, 150, 160) // bottom edge handle
	f.send(PointerMove, 150, 180) // edge anchor 180: no snap
	if got := f.box.MovingBounds(); got != image.Rect(100, 100, 200, 180) {
		t.Fatalf("moving bounds after first move = %v", got)
	}
	f.send(PointerMove, 150, 195) // edge anchor 195 snaps to 200
	f.send(PointerUp, 150, 195)
	if got := f.box.Bounds(); got != image.Rect(100, 100, 200, 200) {
		t.Fatalf("bounds = %v", got)
	}
}

func TestTapOnEmptyAreaClearsSelection(t *testing.T) {
	f := newFixture(t, 1)
	f.st.SetSelected(f.box)
	f.send(PointerDown, 10, 10)
	f.send(PointerUp, 11, 10)
	if f.st.Selected() != nil {
		t.Fatalf("selection should be cleared")
	}
}

func TestTapSelectsObject(t *testing.T) {
	f := newFixture(t, 2)
	f.send(PointerDown, 300, 260) // board 150,130
	f.send(PointerUp, 300, 260)
	if f.st.Selected() != f.box {
		t.Fatalf("tap did not select the box")
	}
}

func TestMoveBeyondSlopIsNotATap(t *testing.T) {
	f := newFixture(t, 1)
	f.send(PointerDown, 150, 130)
	f.send(PointerMove, 170, 130)
	f.send(PointerUp, 170, 130)
	if f.st.Selected() != nil {
		t.Fatalf("a drag over empty selection must not select")
	}
}

func TestPanningMovesScrollOnly(t *testing.T) {
	f := newFixture(t, 1)
	f.st.SetSelected(f.box)
	f.st.SetPanningActive(true)
	f.send(PointerDown, 120, 120)
	f.send(PointerMove, 110, 100)
	f.send(PointerMove, 115, 105)
	f.send(PointerUp, 115, 105)
	if x, y := f.st.Scroll(); x != 5 || y != 15 {
		t.Fatalf("scroll = %v,%v want 5,15", x, y)
	}
	if f.box.Bounds().Min != image.Pt(100, 100) || f.box.MovingBounds() != f.box.Bounds() {
		t.Fatalf("panning moved the object: %v", f.box.MovingBounds())
	}
}

func TestPanningToggleResetsDrag(t *testing.T) {
	f := newFixture(t, 1)
	f.st.SetSelected(f.box)
	f.send(PointerDown, 120, 120)
	f.send(PointerMove, 143, 120)
	f.st.SetPanningActive(true)
	if f.box.MovingBounds() != f.box.Bounds() {
		t.Fatalf("handles not reset on panning toggle")
	}
	f.st.SetPanningActive(false)
	f.send(PointerMove, 170, 120)
	f.send(PointerUp, 170, 120)
	if got := f.box.Bounds().Min; got != image.Pt(100, 100) {
		t.Fatalf("abandoned drag was committed: %v", got)
	}
}

func TestCancelDropsDrag(t *testing.T) {
	f := newFixture(t, 1)
	f.st.SetSelected(f.box)
	f.send(PointerDown, 120, 120)
	f.send(PointerMove, 143, 120)
	f.send(PointerCancel, 0, 0)
	f.send(PointerUp, 143, 120)
	if f.box.Bounds().Min != image.Pt(100, 100) || f.box.MovingBounds() != f.box.Bounds() {
		t.Fatalf("cancel did not drop the drag")
	}
}

func TestBoardPointHonoursScrollAndScale(t *testing.T) {
	f := newFixture(t, 2)
	f.st.SetScroll(50, -20)
	if x, y := f.v.boardPoint(100, 20); x != 75 || y != 0 {
		t.Fatalf("boardPoint = %d,%d", x, y)
	}
}
