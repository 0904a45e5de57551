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

import "sync"

// coalescer runs fn on a background goroutine. Triggers that arrive while a
// run is in flight collapse into a single rerun, so at most one goroutine per
// coalescer exists at any time.
type coalescer struct {
	fn func()

	mu      sync.Mutex
	running bool
	pending bool
	wg      sync.WaitGroup
}

func newCoalescer(fn func()) *coalescer { return &coalescer{fn: fn} }

// Trigger schedules a run.
func (c *coalescer) Trigger() {
	c.mu.Lock()
	if c.running {
		c.pending = true
		c.mu.Unlock()
		return
	}
	c.running = true
	c.wg.Add(1)
	c.mu.Unlock()
	go c.loop()
}

func (c *coalescer) loop() {
	defer c.wg.Done()
	for {
		c.fn()
		c.mu.Lock()
		if !c.pending {
			c.running = false
			c.mu.Unlock()
			return
		}
		c.pending = false
		c.mu.Unlock()
	}
}

// Wait blocks until no run is in flight.
func (c *coalescer) Wait() { c.wg.Wait() }
