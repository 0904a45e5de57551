/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package notify holds the small observer lists used by boards, style catalogs
// and board state. Delivery is synchronous on the caller's goroutine.
package notify

import (
	"sort"
	"sync"
)

// Registry is a set of listeners receiving values of type T.
// The zero value is ready to use.
type Registry[T any] struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func(T)
}

// Add registers fn and returns an id usable with Remove.
func (r *Registry[T]) Add(fn func(T)) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fns == nil {
		r.fns = make(map[int]func(T))
	}
	r.nextID++
	r.fns[r.nextID] = fn
	return r.nextID
}

// Remove unregisters the listener with the given id. Unknown ids are ignored.
func (r *Registry[T]) Remove(id int) {
	r.mu.Lock()
	delete(r.fns, id)
	r.mu.Unlock()
}

// Clear drops all listeners.
func (r *Registry[T]) Clear() {
	r.mu.Lock()
	r.fns = nil
	r.mu.Unlock()
}

// Len reports the number of registered listeners.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fns)
}

// Fire calls every listener in registration order. The listener set is
// snapshotted first, so listeners may add or remove listeners while running.
func (r *Registry[T]) Fire(v T) {
	r.mu.Lock()
	ids := make([]int, 0, len(r.fns))
	for id := range r.fns {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(T), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, r.fns[id])
	}
	r.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}
