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
	"errors"
	"fmt"
	"image/color"
	"strings"
	"sync"

	"boarddesigner/internal/notify"
	"boarddesigner/internal/render"

	"github.com/google/uuid"
)

var (
	// ErrStyleNotFound is returned for unknown style ids.
	ErrStyleNotFound = errors.New("style not found")
	// ErrStyleInUse is returned when removing a style still referenced by an object.
	ErrStyleInUse = errors.New("style in use")
)

// BoxStyle is a reusable look for boxes. Width and Height are the size a new
// box gets when created from the style.
type BoxStyle struct {
	UID          string  `json:"uid"`
	Name         string  `json:"name"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	CornerRadius int     `json:"cornerRadius"`
	Fill         string  `json:"fill"`
	Stroke       string  `json:"stroke"`
	StrokeWidth  float64 `json:"strokeWidth"`
}

// DefaultBoxStyle returns the style seeded into new boards.
func DefaultBoxStyle() BoxStyle {
	return BoxStyle{
		UID:          uuid.NewString(),
		Name:         "Box",
		Width:        100,
		Height:       60,
		CornerRadius: 4,
		Fill:         "#e0e0e0",
		Stroke:       "#424242",
		StrokeWidth:  1,
	}
}

func (s BoxStyle) validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("style name required")
	}
	if s.Width < 1 || s.Height < 1 {
		return fmt.Errorf("style %q: size must be positive", s.Name)
	}
	if s.CornerRadius < 0 {
		return fmt.Errorf("style %q: negative corner radius", s.Name)
	}
	if _, err := render.ParseColor(s.Fill); err != nil {
		return err
	}
	if _, err := render.ParseColor(s.Stroke); err != nil {
		return err
	}
	return nil
}

func (s BoxStyle) colors() (fill, stroke color.RGBA) {
	fill, _ = render.ParseColor(s.Fill)
	stroke, _ = render.ParseColor(s.Stroke)
	return fill, stroke
}

// StyleCatalog is the ordered set of box styles of a board.
type StyleCatalog struct {
	mu      sync.RWMutex
	styles  []BoxStyle
	changed notify.Registry[struct{}]
}

// NewStyleCatalog returns a catalog holding the given styles.
func NewStyleCatalog(styles ...BoxStyle) *StyleCatalog {
	return &StyleCatalog{styles: append([]BoxStyle(nil), styles...)}
}

// OnChange registers fn to run after any add, update or removal.
func (c *StyleCatalog) OnChange(fn func()) int { return c.changed.Add(func(struct{}) { fn() }) }

// RemoveListener drops a listener added with OnChange.
func (c *StyleCatalog) RemoveListener(id int) { c.changed.Remove(id) }

// Add validates s, assigns a UID if missing and appends it.
func (c *StyleCatalog) Add(s BoxStyle) (BoxStyle, error) {
	if s.UID == "" {
		s.UID = uuid.NewString()
	}
	if err := s.validate(); err != nil {
		return BoxStyle{}, err
	}
	c.mu.Lock()
	for _, e := range c.styles {
		if e.UID == s.UID {
			c.mu.Unlock()
			return BoxStyle{}, fmt.Errorf("duplicate style uid %s", s.UID)
		}
	}
	c.styles = append(c.styles, s)
	c.mu.Unlock()
	c.changed.Fire(struct{}{})
	return s, nil
}

// Update replaces the style with the same UID.
func (c *StyleCatalog) Update(s BoxStyle) error {
	if err := s.validate(); err != nil {
		return err
	}
	c.mu.Lock()
	idx := c.indexLocked(s.UID)
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrStyleNotFound, s.UID)
	}
	c.styles[idx] = s
	c.mu.Unlock()
	c.changed.Fire(struct{}{})
	return nil
}

// Get returns the style with the given UID.
func (c *StyleCatalog) Get(uid string) (BoxStyle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexLocked(uid); i >= 0 {
		return c.styles[i], true
	}
	return BoxStyle{}, false
}

// List returns a copy of all styles in order.
func (c *StyleCatalog) List() []BoxStyle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]BoxStyle(nil), c.styles...)
}

// Len returns the number of styles.
func (c *StyleCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.styles)
}

// remove deletes a style without checking usage; Board.RemoveStyle checks.
func (c *StyleCatalog) remove(uid string) error {
	c.mu.Lock()
	idx := c.indexLocked(uid)
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrStyleNotFound, uid)
	}
	c.styles = append(c.styles[:idx], c.styles[idx+1:]...)
	c.mu.Unlock()
	c.changed.Fire(struct{}{})
	return nil
}

func (c *StyleCatalog) indexLocked(uid string) int {
	for i, s := range c.styles {
		if s.UID == uid {
			return i
		}
	}
	return -1
}
