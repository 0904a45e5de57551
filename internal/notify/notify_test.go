/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package notify

import "testing"

func TestFireOrderAndRemove(t *testing.T) {
	var r Registry[int]
	var got []int
	a := r.Add(func(v int) { got = append(got, v*1) })
	r.Add(func(v int) { got = append(got, v*10) })
	r.Fire(2)
	if len(got) != 2 || got[0] != 2 || got[1] != 20 {
		t.Fatalf("unexpected fan-out: %v", got)
	}
	r.Remove(a)
	got = nil
	r.Fire(3)
	if len(got) != 1 || got[0] != 30 {
		t.Fatalf("remove failed: %v", got)
	}
	r.Clear()
	if r.Len() != 0 {
		t.Fatalf("clear left %d listeners", r.Len())
	}
	r.Fire(4) // no listeners, no panic
}

func TestListenerMayRemoveItself(t *testing.T) {
	var r Registry[string]
	calls := 0
	var id int
	id = r.Add(func(string) {
		calls++
		r.Remove(id)
	})
	r.Fire("x")
	r.Fire("y")
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
