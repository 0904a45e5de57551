/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"boarddesigner/internal/board"
	"boarddesigner/internal/grid"
	"boarddesigner/internal/storage"
)

func TestWriteReportCreatesFileInTemp(t *testing.T) {
	path, err := writeReport(nil, "boom", []byte("stacktrace"), "")
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	t.Cleanup(func() { _ = os.Remove(path) })
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "Board Designer Crash Report") {
		t.Fatalf("report header missing")
	}
	if !strings.Contains(s, "Panic: boom") {
		t.Fatalf("panic content missing: %s", s)
	}
}

func TestRecoverWritesReportAndSnapshot(t *testing.T) {
	var errOut bytes.Buffer
	oldStderr, oldExit := stderr, exitFn
	stderr = &errOut
	code := 0
	exitFn = func(c int) { code = c }
	t.Cleanup(func() { stderr, exitFn = oldStderr, oldExit })

	b, err := board.New("Crashy", 100, 100, grid.Config{Size: 10, Interval: 5})
	if err != nil {
		t.Fatalf("new board: %v", err)
	}
	root := t.TempDir()
	h, err := storage.Create(root, b)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	func() {
		defer Recover(h)
		panic("boom")
	}()

	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	bdir := filepath.Join(root, storage.BackupsDirName)
	files, err := os.ReadDir(bdir)
	if err != nil {
		t.Fatalf("read backups: %v", err)
	}
	var report, snapshot string
	for _, f := range files {
		switch {
		case strings.HasPrefix(f.Name(), storage.CrashFilePrefix) && strings.HasSuffix(f.Name(), ".log"):
			report = filepath.Join(bdir, f.Name())
		case strings.HasPrefix(f.Name(), storage.CrashFilePrefix) && strings.HasSuffix(f.Name(), ".json"):
			snapshot = filepath.Join(bdir, f.Name())
		}
	}
	if report == "" || snapshot == "" {
		t.Fatalf("want report and snapshot, got %v", files)
	}
	data, _ := os.ReadFile(report)
	if !bytes.Contains(data, []byte("Panic: boom")) || !bytes.Contains(data, []byte("Board: Crashy")) {
		t.Fatalf("report content: %s", data)
	}
	if !strings.Contains(errOut.String(), report) {
		t.Fatalf("stderr does not mention report: %s", errOut.String())
	}
	snap, _ := os.ReadFile(snapshot)
	if err := storage.ValidateBoardJSON(snap); err != nil {
		t.Fatalf("snapshot is not a valid board: %v", err)
	}
}

func TestRecoverWithoutPanicIsNoop(t *testing.T) {
	oldExit := exitFn
	called := false
	exitFn = func(int) { called = true }
	t.Cleanup(func() { exitFn = oldExit })
	func() {
		defer Recover(nil)
	}()
	if called {
		t.Fatalf("exit called without panic")
	}
}
