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
	"sync"

	"boarddesigner/internal/notify"
)

// State is the editing state of one board session. A single RWMutex guards
// every field; the gesture path writes while the draw loop reads.
type State struct {
	mu       sync.RWMutex
	selected Object
	scrollX  float64 // device pixels, may be negative
	scrollY  float64
	panning  bool
	showGrid bool
	showUI   bool

	gridShown notify.Registry[bool]
	panningCh notify.Registry[bool]
	selection notify.Registry[Object]
}

// StateSnapshot is a consistent copy of State for a single frame.
type StateSnapshot struct {
	Selected         Object
	ScrollX, ScrollY float64
	Panning          bool
	ShowGrid         bool
	ShowUI           bool
}

// NewState returns a state with grid and UI chrome shown.
func NewState() *State { return &State{showGrid: true, showUI: true} }

// Snapshot reads every field under one lock.
func (s *State) Snapshot() StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StateSnapshot{
		Selected: s.selected, ScrollX: s.scrollX, ScrollY: s.scrollY,
		Panning: s.panning, ShowGrid: s.showGrid, ShowUI: s.showUI,
	}
}

func (s *State) Selected() Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// SetSelected changes the selection; nil clears it.
func (s *State) SetSelected(o Object) {
	s.mu.Lock()
	if s.selected == o {
		s.mu.Unlock()
		return
	}
	s.selected = o
	s.mu.Unlock()
	s.selection.Fire(o)
}

func (s *State) Scroll() (x, y float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scrollX, s.scrollY
}

func (s *State) SetScroll(x, y float64) {
	s.mu.Lock()
	s.scrollX, s.scrollY = x, y
	s.mu.Unlock()
}

// ScrollBy adds dx,dy to the scroll offset.
func (s *State) ScrollBy(dx, dy float64) {
	s.mu.Lock()
	s.scrollX += dx
	s.scrollY += dy
	s.mu.Unlock()
}

func (s *State) PanningActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.panning
}

// SetPanningActive toggles panning mode; listeners only run on a real change.
func (s *State) SetPanningActive(v bool) {
	s.mu.Lock()
	if s.panning == v {
		s.mu.Unlock()
		return
	}
	s.panning = v
	s.mu.Unlock()
	s.panningCh.Fire(v)
}

func (s *State) ShowGrid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.showGrid
}

func (s *State) SetShowGrid(v bool) {
	s.mu.Lock()
	if s.showGrid == v {
		s.mu.Unlock()
		return
	}
	s.showGrid = v
	s.mu.Unlock()
	s.gridShown.Fire(v)
}

func (s *State) ShowUI() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.showUI
}

func (s *State) SetShowUI(v bool) {
	s.mu.Lock()
	s.showUI = v
	s.mu.Unlock()
}

func (s *State) OnShowGrid(fn func(bool)) int          { return s.gridShown.Add(fn) }
func (s *State) OnPanningActive(fn func(bool)) int     { return s.panningCh.Add(fn) }
func (s *State) OnSelectionChange(fn func(Object)) int { return s.selection.Add(fn) }

func (s *State) RemoveShowGridListener(id int)  { s.gridShown.Remove(id) }
func (s *State) RemovePanningListener(id int)   { s.panningCh.Remove(id) }
func (s *State) RemoveSelectionListener(id int) { s.selection.Remove(id) }

// ClearListeners drops every state listener.
func (s *State) ClearListeners() {
	s.gridShown.Clear()
	s.panningCh.Clear()
	s.selection.Clear()
}
