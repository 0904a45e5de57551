/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package crash turns panics in the CLI and the desktop host into a crash
// report plus an autosave of the open board.
package crash

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "boarddesigner/internal/log"
	"boarddesigner/internal/storage"
	"boarddesigner/internal/version"
)

// exitFn and stderr are swapped out by tests.
var (
	exitFn           = os.Exit
	stderr io.Writer = os.Stderr
)

// Recover captures a panic, logs it with the stack, writes a report and
// autosaves h (when non-nil) before exiting with status 2.
//
// Usage: defer crash.Recover(h)
func Recover(h *storage.BoardHandle) {
	r := recover()
	if r == nil {
		return
	}
	handle(h, r, debug.Stack())
	exitFn(2)
}

func handle(h *storage.BoardHandle, r any, stack []byte) {
	l := applog.WithComponent("crash")
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	snapshot := ""
	if h != nil && h.Board != nil {
		path, err := storage.AutosaveCrashSnapshot(h)
		if err != nil {
			l.Error("autosave crash snapshot failed", slog.Any("err", err))
		} else {
			snapshot = path
			l.Info("autosave crash snapshot written", slog.String("path", path))
		}
	}
	reportPath, err := writeReport(h, r, stack, snapshot)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	_, _ = fmt.Fprintf(stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath)
	if snapshot != "" {
		_, _ = fmt.Fprintf(stderr, "Unsaved changes were written to: %s\n", snapshot)
	}
	_, _ = fmt.Fprintf(stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
}

// writeReport stores the report in the board's backups directory, or the
// temp dir when no board is open.
func writeReport(h *storage.BoardHandle, panicVal any, stack []byte, snapshot string) (string, error) {
	dir := os.TempDir()
	if h != nil && h.Root != "" {
		dir = filepath.Join(h.Root, storage.BackupsDirName)
		_ = os.MkdirAll(dir, 0o755)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s%s.log", storage.CrashFilePrefix, time.Now().Format("20060102-150405")))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Board Designer Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if h != nil {
		_, _ = fmt.Fprintf(&buf, "BoardRoot: %s\n", h.Root)
		if h.Board != nil {
			w, hh := h.Board.Size()
			_, _ = fmt.Fprintf(&buf, "Board: %s (%dx%d, %d objects)\n", h.Board.Name(), w, hh, len(h.Board.Objects()))
		}
	}
	if snapshot != "" {
		_, _ = fmt.Fprintf(&buf, "Snapshot: %s\n", snapshot)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()
	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()
	return path, nil
}
