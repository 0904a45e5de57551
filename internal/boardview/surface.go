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
	"sync"
	"sync/atomic"
)

// ErrSurfaceInvalid is returned when a frame is requested from a surface that
// is gone or not yet usable.
var ErrSurfaceInvalid = errors.New("surface invalid")

// ErrNothingSelected is returned by selection commands without a selection.
var ErrNothingSelected = errors.New("nothing selected")

// Surface is the display target the draw loop paints into. Lock hands out a
// frame to draw on; Post submits it. Both may fail at any time, for example
// while the host tears the surface down.
type Surface interface {
	Lock() (*image.RGBA, error)
	Post(frame *image.RGBA) error
	Valid() bool
}

// ImageSurface is a double-buffered in-memory Surface. Hosts that present
// pixels themselves (the desktop widget, headless tools) read the last posted
// frame with Front.
type ImageSurface struct {
	mu     sync.Mutex
	back   *image.RGBA
	front  *image.RGBA
	locked bool
	valid  atomic.Bool
	posted atomic.Uint64

	// OnPost, if set, runs after each successful Post.
	OnPost func()
}

// NewImageSurface returns a valid w x h surface.
func NewImageSurface(w, h int) *ImageSurface {
	s := &ImageSurface{}
	s.Resize(w, h)
	s.valid.Store(true)
	return s
}

// Resize reallocates both frames.
func (s *ImageSurface) Resize(w, h int) {
	r := image.Rect(0, 0, max(w, 1), max(h, 1))
	s.mu.Lock()
	s.back = image.NewRGBA(r)
	s.front = image.NewRGBA(r)
	s.locked = false
	s.mu.Unlock()
}

func (s *ImageSurface) Lock() (*image.RGBA, error) {
	if !s.Valid() {
		return nil, ErrSurfaceInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return nil, errors.New("surface already locked")
	}
	s.locked = true
	return s.back, nil
}

func (s *ImageSurface) Post(frame *image.RGBA) error {
	s.mu.Lock()
	if !s.locked || frame != s.back {
		s.mu.Unlock()
		return errors.New("post without matching lock")
	}
	s.locked = false
	if !s.Valid() {
		s.mu.Unlock()
		return ErrSurfaceInvalid
	}
	s.back, s.front = s.front, s.back
	s.mu.Unlock()
	s.posted.Add(1)
	if s.OnPost != nil {
		s.OnPost()
	}
	return nil
}

func (s *ImageSurface) Valid() bool { return s.valid.Load() }

// Invalidate marks the surface as gone; Lock and Post fail afterwards.
func (s *ImageSurface) Invalidate() { s.valid.Store(false) }

// Revalidate makes an invalidated surface usable again.
func (s *ImageSurface) Revalidate() { s.valid.Store(true) }

// Posted counts successfully submitted frames.
func (s *ImageSurface) Posted() uint64 { return s.posted.Load() }

// Front runs fn with the last posted frame locked.
func (s *ImageSurface) Front(fn func(img *image.RGBA)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.front)
}
