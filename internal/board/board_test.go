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
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"testing"

	"boarddesigner/internal/grid"
)

func newTestBoard(t *testing.T) *Board {
	t.Helper()
	b, err := New("test", 400, 300, grid.Config{Size: 10, Interval: 5})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

func TestNewRejectsInvalidInput(t *testing.T) {
	if _, err := New("x", 0, 10, grid.Config{Size: 10, Interval: 5}); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("want ErrInvalidSize, got %v", err)
	}
	if _, err := New("x", 10, 10, grid.Config{Size: 10, Interval: 0}); !errors.Is(err, grid.ErrInvalidGrid) {
		t.Fatalf("want ErrInvalidGrid, got %v", err)
	}
}

func TestSetGridRejectsInvalidAndKeepsOld(t *testing.T) {
	b := newTestBoard(t)
	fired := 0
	b.OnGridChange(func(grid.Config) { fired++ })
	if err := b.SetGrid(grid.Config{Size: -1, Interval: 5}); !errors.Is(err, grid.ErrInvalidGrid) {
		t.Fatalf("want ErrInvalidGrid, got %v", err)
	}
	if b.Grid() != (grid.Config{Size: 10, Interval: 5}) || fired != 0 {
		t.Fatalf("invalid grid leaked: %+v fired=%d", b.Grid(), fired)
	}
	if err := b.SetGrid(grid.Config{Size: 8, Interval: 4}); err != nil || fired != 1 {
		t.Fatalf("SetGrid: err=%v fired=%d", err, fired)
	}
}

func TestObjectAtPositionReturnsTopmost(t *testing.T) {
	b := newTestBoard(t)
	style := b.Styles().List()[0]
	lower, _ := b.AddBox(style.UID, 0, 0)
	upper, _ := b.AddBox(style.UID, 50, 30)
	if got := b.ObjectAtPosition(60, 40); got != upper {
		t.Fatalf("expected upper box, got %v", got)
	}
	if got := b.ObjectAtPosition(10, 10); got != lower {
		t.Fatalf("expected lower box, got %v", got)
	}
	if got := b.ObjectAtPosition(390, 290); got != nil {
		t.Fatalf("expected nothing, got %v", got)
	}
	b.BringToFront(lower.ID())
	if got := b.ObjectAtPosition(60, 40); got != lower {
		t.Fatalf("BringToFront not honored")
	}
}

func TestContentChangeFiresOnMutation(t *testing.T) {
	b := newTestBoard(t)
	n := 0
	b.OnContentChange(func() { n++ })
	box, err := b.AddBox(b.Styles().List()[0].UID, 10, 10)
	if err != nil {
		t.Fatalf("AddBox: %v", err)
	}
	before := n
	box.MovingTo(20, 20)
	box.ApplyMovement()
	if n != before+2 {
		t.Fatalf("expected two content events, got %d", n-before)
	}
	b.RemoveObject(box.ID())
	after := n
	box.MovingTo(0, 0)
	if n != after {
		t.Fatalf("removed object still notifies board")
	}
}

func TestStyleInUseCannotBeRemoved(t *testing.T) {
	b := newTestBoard(t)
	uid := b.Styles().List()[0].UID
	box, _ := b.AddBox(uid, 0, 0)
	if err := b.RemoveStyle(uid); !errors.Is(err, ErrStyleInUse) {
		t.Fatalf("want ErrStyleInUse, got %v", err)
	}
	b.RemoveObject(box.ID())
	if err := b.RemoveStyle(uid); err != nil {
		t.Fatalf("RemoveStyle: %v", err)
	}
	if b.Styles().Len() != 0 {
		t.Fatalf("style not removed")
	}
	if err := b.RemoveStyle(uid); !errors.Is(err, ErrStyleNotFound) {
		t.Fatalf("want ErrStyleNotFound, got %v", err)
	}
}

func TestStyleValidation(t *testing.T) {
	c := NewStyleCatalog()
	bad := DefaultBoxStyle()
	bad.Fill = "#zz"
	if _, err := c.Add(bad); err == nil {
		t.Fatalf("expected color error")
	}
	bad = DefaultBoxStyle()
	bad.Width = 0
	if _, err := c.Add(bad); err == nil {
		t.Fatalf("expected size error")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	b := newTestBoard(t)
	st, err := b.Styles().Add(BoxStyle{Name: "Card", Width: 80, Height: 40, CornerRadius: 8, Fill: "#ffffff", Stroke: "#000", StrokeWidth: 2})
	if err != nil {
		t.Fatalf("Add style: %v", err)
	}
	box, _ := b.AddBox(st.UID, 12, 34)
	box.SetName("Login")
	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Name() != "test" || got.Grid() != b.Grid() || got.Styles().Len() != 2 {
		t.Fatalf("metadata mismatch: %s %+v %d", got.Name(), got.Grid(), got.Styles().Len())
	}
	o, ok := got.Object(box.ID())
	if !ok {
		t.Fatalf("object lost")
	}
	if o.Bounds() != image.Rect(12, 34, 92, 74) || o.StyleUID() != st.UID || o.(*Box).Name() != "Login" {
		t.Fatalf("object mismatch: %v %s", o.Bounds(), o.StyleUID())
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"version":1,"name":"x","width":10,"height":10,"gridSize":5,"gridInterval":2,"objects":[{"type":"ellipse","id":"a"}]}`))
	if err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestDecodeRejectsDuplicateObjectIDs(t *testing.T) {
	doc := `{"version":1,"name":"x","width":100,"height":100,"gridSize":5,"gridInterval":2,"objects":[
		{"type":"box","id":"a","x":0,"y":0,"w":10,"h":10},
		{"type":"box","id":"a","x":20,"y":20,"w":10,"h":10}]}`
	if _, err := Decode([]byte(doc)); err == nil {
		t.Fatalf("expected error for duplicate object id")
	}
}

func TestApplyStyleChangesRenderedFill(t *testing.T) {
	b := newTestBoard(t)
	box, _ := b.AddBox(b.Styles().List()[0].UID, 10, 10)
	red, err := b.Styles().Add(BoxStyle{Name: "Alert", Width: 50, Height: 20, Fill: "#ff0000", Stroke: "#000000", StrokeWidth: 1})
	if err != nil {
		t.Fatalf("Add style: %v", err)
	}
	fired := 0
	b.OnContentChange(func() { fired++ })

	if err := b.ApplyStyle(box.ID(), red.UID); err != nil {
		t.Fatalf("ApplyStyle: %v", err)
	}
	rs := b.Renderables(RenderContext{Scale: 1})
	if got := rs[1].Fill; got != (color.RGBA{R: 0xff, A: 0xff}) {
		t.Fatalf("fill = %v, want red", got)
	}
	if box.Bounds() != image.Rect(10, 10, 110, 70) {
		t.Fatalf("size changed: %v", box.Bounds())
	}
	if fired == 0 {
		t.Fatalf("content listener not notified")
	}
	if !b.StyleIsUsed(red.UID) {
		t.Fatalf("applied style not reported as used")
	}

	if err := b.ApplyStyle(box.ID(), "nope"); !errors.Is(err, ErrStyleNotFound) {
		t.Fatalf("want ErrStyleNotFound, got %v", err)
	}
	if err := b.ApplyStyle("nope", red.UID); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("want ErrObjectNotFound, got %v", err)
	}
}

func TestSnapshotRestore(t *testing.T) {
	b := newTestBoard(t)
	box, _ := b.AddBox(b.Styles().List()[0].UID, 0, 0)
	snap := b.Snapshot()
	box.MovingTo(50, 50)
	box.ApplyMovement()
	b.Restore(snap)
	if box.Bounds().Min != image.Pt(0, 0) || box.MovingBounds().Min != image.Pt(0, 0) {
		t.Fatalf("restore failed: %v", box.Bounds())
	}
}

func TestRenderablesScaleAndOrder(t *testing.T) {
	b := newTestBoard(t)
	box, _ := b.AddBox(b.Styles().List()[0].UID, 10, 20)
	box.SetName("A")
	rs := b.Renderables(RenderContext{Scale: 2})
	if len(rs) != 3 {
		t.Fatalf("expected page, box, label; got %d", len(rs))
	}
	if rs[0].W != 800 || rs[0].H != 600 {
		t.Fatalf("page not scaled: %+v", rs[0])
	}
	if rs[1].X != 20 || rs[1].Y != 40 || rs[1].W != 200 {
		t.Fatalf("box not scaled: %+v", rs[1])
	}
}
