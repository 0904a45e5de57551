/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package undo keeps per-board undo/redo history of geometry edits.
package undo

import (
	"sync"
	"time"
)

// Snapshot is one reversible edit of a board: the encoded state before and
// after it. Blob content is opaque to the manager; its size is estimated as
// len(Before)+len(After). TS is when the edit was committed.
type Snapshot struct {
	BoardID int64
	Before  []byte
	After   []byte
	TS      time.Time
}

func (s Snapshot) size() int { return len(s.Before) + len(s.After) }

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap; older entries are pruned when exceeded.
	MaxBytes int
	// MaxPerBoard limits the number of edits kept per board (0 means unlimited).
	MaxPerBoard int
	// MinInterval merges edits committed within the interval on the same board
	// into one step spanning both.
	MinInterval time.Duration
}

// Manager provides an in-memory undo/redo stack per board.
// It is safe for concurrent use.
type Manager struct {
	cfg  Config
	mu   sync.Mutex
	undo map[int64][]Snapshot
	redo map[int64][]Snapshot
	// accounting covers undo stacks only
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024 // 16 MiB
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	return &Manager{cfg: cfg, undo: make(map[int64][]Snapshot), redo: make(map[int64][]Snapshot)}
}

// PushSnapshot records an edit. If within MinInterval from the last edit on
// the same board, the two are merged. Clears the redo stack for that board.
func (m *Manager) PushSnapshot(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[s.BoardID]
	if n := len(stack); n > 0 && m.cfg.MinInterval > 0 {
		last := stack[n-1]
		if s.TS.Sub(last.TS) < m.cfg.MinInterval {
			merged := Snapshot{BoardID: s.BoardID, Before: last.Before, After: s.After, TS: s.TS}
			m.totalBytes += merged.size() - last.size()
			stack[n-1] = merged
			m.redo[s.BoardID] = nil
			m.enforceCapsLocked(s.BoardID)
			return
		}
	}
	m.undo[s.BoardID] = append(stack, s)
	m.totalBytes += s.size()
	// Any new change invalidates redo for the board
	m.redo[s.BoardID] = nil
	m.enforceCapsLocked(s.BoardID)
}

// Undo moves the latest edit of the board to its redo stack and returns it;
// callers restore Before.
func (m *Manager) Undo(boardID int64) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[boardID]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	s := stack[len(stack)-1]
	m.undo[boardID] = stack[:len(stack)-1]
	m.totalBytes -= s.size()
	m.redo[boardID] = append(m.redo[boardID], s)
	return s, true
}

// Redo moves the latest undone edit back; callers restore After.
func (m *Manager) Redo(boardID int64) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[boardID]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	s := r[len(r)-1]
	m.redo[boardID] = r[:len(r)-1]
	m.undo[boardID] = append(m.undo[boardID], s)
	m.totalBytes += s.size()
	m.enforceCapsLocked(boardID)
	return s, true
}

// ClearBoard drops all history of a board, e.g. when it is closed or deleted.
func (m *Manager) ClearBoard(boardID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.undo[boardID] {
		m.totalBytes -= s.size()
	}
	delete(m.undo, boardID)
	delete(m.redo, boardID)
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, boards int, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.undo {
		if len(v) > 0 {
			boards++
		}
		totalSnapshots += len(v)
	}
	return m.totalBytes, boards, totalSnapshots
}

func (m *Manager) enforceCapsLocked(boardID int64) {
	if m.cfg.MaxPerBoard > 0 {
		stack := m.undo[boardID]
		if len(stack) > m.cfg.MaxPerBoard {
			toDrop := len(stack) - m.cfg.MaxPerBoard
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= stack[i].size()
			}
			m.undo[boardID] = append([]Snapshot{}, stack[toDrop:]...)
		}
	}
	// Global memory cap: prune oldest across all boards
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes {
		var oldestBoard int64
		found := false
		var oldestTS time.Time
		for id, stack := range m.undo {
			if len(stack) == 0 {
				continue
			}
			if !found || stack[0].TS.Before(oldestTS) {
				oldestBoard, oldestTS, found = id, stack[0].TS, true
			}
		}
		if !found {
			break
		}
		stack := m.undo[oldestBoard]
		m.totalBytes -= stack[0].size()
		m.undo[oldestBoard] = stack[1:]
		if len(m.undo[oldestBoard]) == 0 {
			delete(m.undo, oldestBoard)
		}
	}
}
