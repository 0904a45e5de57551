/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package board is the document model of the designer: a sized, gridded
// board holding placed objects and their styles, plus the per-session
// editing state shared by the board view.
package board

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"boarddesigner/internal/grid"
	"boarddesigner/internal/notify"
	"boarddesigner/internal/render"
)

// FormatVersion is written into board.json.
const FormatVersion = 1

var transparent = color.RGBA{}

// ErrInvalidSize is returned for non-positive board dimensions.
var ErrInvalidSize = errors.New("invalid board size")

// ErrObjectNotFound is returned for unknown object ids.
var ErrObjectNotFound = errors.New("object not found")

// Board is a design document. It is safe for concurrent use; listeners are
// called synchronously on the mutating goroutine.
type Board struct {
	mu      sync.RWMutex
	name    string
	width   int
	height  int
	grid    grid.Config
	objects []Object
	styles  *StyleCatalog

	content notify.Registry[struct{}]
	sizeCh  notify.Registry[image.Point]
	gridCh  notify.Registry[grid.Config]
}

// New returns an empty board with one default box style.
func New(name string, width, height int, g grid.Config) (*Board, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	b := &Board{name: name, width: width, height: height, grid: g}
	b.setStyles(NewStyleCatalog(DefaultBoxStyle()))
	return b, nil
}

func (b *Board) setStyles(c *StyleCatalog) {
	b.styles = c
	c.OnChange(b.fireContent)
}

func (b *Board) Name() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.name
}

func (b *Board) SetName(name string) {
	b.mu.Lock()
	b.name = name
	b.mu.Unlock()
}

// Size returns width and height in board units.
func (b *Board) Size() (int, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.width, b.height
}

// SetSize resizes the board and notifies size listeners.
func (b *Board) SetSize(width, height int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	b.mu.Lock()
	b.width, b.height = width, height
	b.mu.Unlock()
	b.sizeCh.Fire(image.Pt(width, height))
	b.fireContent()
	return nil
}

func (b *Board) Grid() grid.Config {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.grid
}

// SetGrid changes the grid; invalid grids are rejected and leave the board untouched.
func (b *Board) SetGrid(g grid.Config) error {
	if err := g.Validate(); err != nil {
		return err
	}
	b.mu.Lock()
	b.grid = g
	b.mu.Unlock()
	b.gridCh.Fire(g)
	return nil
}

func (b *Board) Styles() *StyleCatalog { return b.styles }

// Objects returns the objects in paint order (last is topmost).
func (b *Board) Objects() []Object {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Object(nil), b.objects...)
}

// Object looks up an object by id.
func (b *Board) Object(id string) (Object, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i := b.indexLocked(id); i >= 0 {
		return b.objects[i], true
	}
	return nil, false
}

// ObjectAtPosition returns the topmost object whose committed bounds contain
// the board point x,y, or nil.
func (b *Board) ObjectAtPosition(x, y int) Object {
	p := image.Pt(x, y)
	b.mu.RLock()
	defer b.mu.RUnlock()
	for i := len(b.objects) - 1; i >= 0; i-- {
		if p.In(b.objects[i].Bounds()) {
			return b.objects[i]
		}
	}
	return nil
}

// AddObject appends o on top and wires its change hook to the board.
func (b *Board) AddObject(o Object) {
	o.bind(b.fireContent)
	b.mu.Lock()
	b.objects = append(b.objects, o)
	b.mu.Unlock()
	b.fireContent()
}

// AddBox creates a box from the named style at x,y.
func (b *Board) AddBox(styleUID string, x, y int) (*Box, error) {
	st, ok := b.styles.Get(styleUID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStyleNotFound, styleUID)
	}
	box := NewBox(st, x, y)
	b.AddObject(box)
	return box, nil
}

// RemoveObject deletes the object with the given id.
func (b *Board) RemoveObject(id string) bool {
	b.mu.Lock()
	i := b.indexLocked(id)
	if i < 0 {
		b.mu.Unlock()
		return false
	}
	o := b.objects[i]
	b.objects = append(b.objects[:i], b.objects[i+1:]...)
	b.mu.Unlock()
	o.bind(nil)
	b.fireContent()
	return true
}

// BringToFront moves the object to the top of the paint order.
func (b *Board) BringToFront(id string) bool {
	b.mu.Lock()
	i := b.indexLocked(id)
	if i < 0 {
		b.mu.Unlock()
		return false
	}
	o := b.objects[i]
	b.objects = append(append(b.objects[:i], b.objects[i+1:]...), o)
	b.mu.Unlock()
	b.fireContent()
	return true
}

// StyleIsUsed reports whether any object references the style.
func (b *Board) StyleIsUsed(uid string) bool {
	for _, o := range b.Objects() {
		if o.StyleUID() == uid {
			return true
		}
	}
	return false
}

// ApplyStyle switches object id to the style uid. The object keeps its size.
func (b *Board) ApplyStyle(id, uid string) error {
	if _, ok := b.styles.Get(uid); !ok {
		return fmt.Errorf("%w: %s", ErrStyleNotFound, uid)
	}
	o, ok := b.Object(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	o.SetStyle(uid)
	return nil
}

// RemoveStyle deletes an unused style.
func (b *Board) RemoveStyle(uid string) error {
	if b.StyleIsUsed(uid) {
		return fmt.Errorf("%w: %s", ErrStyleInUse, uid)
	}
	return b.styles.remove(uid)
}

// Renderables describes the whole board: a white page followed by every
// object in paint order.
func (b *Board) Renderables(rc RenderContext) []render.Renderable {
	rc.Styles = b.styles
	s := rc.scale()
	w, h := b.Size()
	out := []render.Renderable{render.Rect(rc.OffsetX, rc.OffsetY, float64(w)*s, float64(h)*s, render.White, transparent, 0)}
	for _, o := range b.Objects() {
		out = append(out, o.Renderables(rc)...)
	}
	return out
}

// Snapshot captures the committed geometry of every object.
func (b *Board) Snapshot() []Geometry {
	objs := b.Objects()
	out := make([]Geometry, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.Geometry())
	}
	return out
}

// Restore applies geometries captured by Snapshot. Unknown ids are skipped.
func (b *Board) Restore(gs []Geometry) {
	for _, g := range gs {
		if o, ok := b.Object(g.ID); ok {
			o.SetGeometry(g)
		}
	}
}

// OnContentChange registers fn for any visible change of the board.
func (b *Board) OnContentChange(fn func()) int {
	return b.content.Add(func(struct{}) { fn() })
}

// OnSizeChange registers fn for board resizes.
func (b *Board) OnSizeChange(fn func(width, height int)) int {
	return b.sizeCh.Add(func(p image.Point) { fn(p.X, p.Y) })
}

// OnGridChange registers fn for grid configuration changes.
func (b *Board) OnGridChange(fn func(grid.Config)) int { return b.gridCh.Add(fn) }

func (b *Board) RemoveContentListener(id int) { b.content.Remove(id) }
func (b *Board) RemoveSizeListener(id int)    { b.sizeCh.Remove(id) }
func (b *Board) RemoveGridListener(id int)    { b.gridCh.Remove(id) }

// ClearListeners drops every board listener.
func (b *Board) ClearListeners() {
	b.content.Clear()
	b.sizeCh.Clear()
	b.gridCh.Clear()
}

func (b *Board) fireContent() { b.content.Fire(struct{}{}) }

func (b *Board) indexLocked(id string) int {
	for i, o := range b.objects {
		if o.ID() == id {
			return i
		}
	}
	return -1
}

type fileObject struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Style string `json:"style"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	W     int    `json:"w"`
	H     int    `json:"h"`
}

type fileBoard struct {
	Version      int          `json:"version"`
	Name         string       `json:"name"`
	Width        int          `json:"width"`
	Height       int          `json:"height"`
	GridSize     int          `json:"gridSize"`
	GridInterval int          `json:"gridInterval"`
	Styles       []BoxStyle   `json:"styles"`
	Objects      []fileObject `json:"objects"`
}

// MarshalJSON writes the board.json document.
func (b *Board) MarshalJSON() ([]byte, error) {
	b.mu.RLock()
	fb := fileBoard{
		Version: FormatVersion, Name: b.name, Width: b.width, Height: b.height,
		GridSize: b.grid.Size, GridInterval: b.grid.Interval,
		Styles: b.styles.List(), Objects: make([]fileObject, 0, len(b.objects)),
	}
	objs := append([]Object(nil), b.objects...)
	b.mu.RUnlock()
	for _, o := range objs {
		g := o.Geometry()
		fo := fileObject{Type: "box", ID: g.ID, Style: o.StyleUID(), X: g.X, Y: g.Y, W: g.W, H: g.H}
		if bx, ok := o.(*Box); ok {
			fo.Name = bx.Name()
		}
		fb.Objects = append(fb.Objects, fo)
	}
	return json.Marshal(fb)
}

// Decode parses a board.json document.
func Decode(data []byte) (*Board, error) {
	var fb fileBoard
	if err := json.Unmarshal(data, &fb); err != nil {
		return nil, fmt.Errorf("decode board: %w", err)
	}
	if fb.Version > FormatVersion {
		return nil, fmt.Errorf("decode board: unsupported version %d", fb.Version)
	}
	b, err := New(fb.Name, fb.Width, fb.Height, grid.Config{Size: fb.GridSize, Interval: fb.GridInterval})
	if err != nil {
		return nil, fmt.Errorf("decode board: %w", err)
	}
	if len(fb.Styles) > 0 {
		cat := NewStyleCatalog()
		for _, s := range fb.Styles {
			if _, err := cat.Add(s); err != nil {
				return nil, fmt.Errorf("decode board: %w", err)
			}
		}
		b.setStyles(cat)
	}
	seen := make(map[string]bool, len(fb.Objects))
	for _, fo := range fb.Objects {
		if seen[fo.ID] {
			return nil, fmt.Errorf("decode board: duplicate object id %q", fo.ID)
		}
		seen[fo.ID] = true
		if !strings.EqualFold(fo.Type, "box") {
			return nil, fmt.Errorf("decode board: unknown object type %q", fo.Type)
		}
		box := &Box{id: fo.ID, name: fo.Name, styleUID: fo.Style}
		if box.id == "" {
			return nil, errors.New("decode board: object without id")
		}
		box.SetGeometry(Geometry{ID: fo.ID, X: fo.X, Y: fo.Y, W: fo.W, H: fo.H})
		b.objects = append(b.objects, box)
		box.bind(b.fireContent)
	}
	return b, nil
}
