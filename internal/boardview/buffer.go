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
	"sync"
	"sync/atomic"
)

// Buffer is the offscreen board bitmap shared by render workers and the draw
// loop. Writers stamp each commit with a sequence number taken before they
// started rendering; a commit older than the last accepted one is dropped, so
// a slow render can never overwrite a newer one.
type Buffer struct {
	mu   sync.Mutex
	img  *image.RGBA
	seq  uint64
	next atomic.Uint64
}

// NewBuffer allocates a transparent w x h buffer.
func NewBuffer(w, h int) *Buffer {
	return &Buffer{img: image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))}
}

// NextSeq reserves the stamp for a render that is about to start.
func (b *Buffer) NextSeq() uint64 { return b.next.Add(1) }

// Size returns the current pixel dimensions.
func (b *Buffer) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.img.Rect.Dx(), b.img.Rect.Dy()
}

// Commit copies src into the buffer if seq is not older than the last
// committed stamp and src matches the current size. It reports whether the
// pixels were accepted.
func (b *Buffer) Commit(seq uint64, src *image.RGBA) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if seq < b.seq || src.Rect != b.img.Rect {
		return false
	}
	copy(b.img.Pix, src.Pix)
	b.seq = seq
	return true
}

// Resize replaces the pixels with a fresh transparent w x h image.
// Renders started before the resize will fail their Commit on size.
func (b *Buffer) Resize(w, h int) {
	img := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	b.mu.Lock()
	b.img = img
	b.mu.Unlock()
}

// View runs fn with the pixels locked. fn must not retain src.
func (b *Buffer) View(fn func(src *image.RGBA)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b.img)
}

// Seq returns the stamp of the last accepted commit.
func (b *Buffer) Seq() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq
}
