/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package grid holds the board grid configuration and the snap-to-grid rule
// shared by the gesture handling and the ruler overlay.
package grid

import (
	"errors"
	"fmt"
)

// ErrInvalidGrid is returned for grids with a non-positive size or interval.
var ErrInvalidGrid = errors.New("invalid grid")

// Config describes the board grid: Size is the minor spacing in board units,
// Interval the number of minor steps between major lines.
type Config struct {
	Size     int `json:"gridSize"`
	Interval int `json:"gridInterval"`
}

// Factor is the distance between major grid lines.
func (c Config) Factor() int { return c.Size * c.Interval }

// Validate reports ErrInvalidGrid when either component is not positive.
func (c Config) Validate() error {
	if c.Size <= 0 || c.Interval <= 0 {
		return fmt.Errorf("%w: size=%d interval=%d", ErrInvalidGrid, c.Size, c.Interval)
	}
	return nil
}

// Snap adjusts raw so that the anchor snapPoint lands on the nearest major grid
// line, if it is within a quarter of factor of one. Anchors at or below zero
// are measured from the other side, so the correction flips sign.
// A non-positive factor disables snapping.
func Snap(raw, snapPoint, factor int) int {
	if factor <= 0 {
		return raw
	}
	margin := factor / 4
	distance := snapPoint % factor
	if distance < 0 {
		distance = -distance
	}
	inverted := factor - distance
	switch {
	case distance <= margin:
		if snapPoint > 0 {
			return raw - distance
		}
		return raw + distance
	case inverted <= margin:
		if snapPoint > 0 {
			return raw + inverted
		}
		return raw - inverted
	default:
		return raw
	}
}

// Snap is a convenience for Snap(raw, snapPoint, c.Factor()).
func (c Config) Snap(raw, snapPoint int) int { return Snap(raw, snapPoint, c.Factor()) }
