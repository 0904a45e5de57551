/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestInitAndStructuredLoggingToFile verifies that Init with a file handler writes JSON logs
// and that static and contextual attributes are present.
func TestInitAndStructuredLoggingToFile(t *testing.T) {
	// Use a file in the system temp dir to avoid Windows deleting a still-open handle
	fpath := filepath.Join(os.TempDir(), fmt.Sprintf("bd_log_%d.json", time.Now().UnixNano()))

	Init(Options{Level: "debug", Format: "json", File: fpath, Writer: &bytes.Buffer{}})

	l := WithComponent("testcomp")
	l = WithOperation(l, "op1")
	l.InfoContext(ContextWithBoard(context.Background(), 42), "hello world", slog.String("k", "v"))

	time.Sleep(50 * time.Millisecond)

	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(b) == 0 {
		t.Fatalf("log file is empty")
	}

	scanner := bufio.NewScanner(strings.NewReader(string(b)))
	var last string
	for scanner.Scan() {
		s := strings.TrimSpace(scanner.Text())
		if s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines found")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal json log: %v", err)
	}

	if m["app"] != "boarddesigner" {
		t.Fatalf("missing app attr: %v", m["app"])
	}
	if _, ok := m["ver"].(string); !ok {
		t.Fatalf("missing ver attr")
	}
	if m["component"] != "testcomp" {
		t.Fatalf("component attr mismatch: %v", m["component"])
	}
	if m["op"] != "op1" {
		t.Fatalf("op attr mismatch: %v", m["op"])
	}
	if m["board"] != float64(42) {
		t.Fatalf("board attr mismatch: %v", m["board"])
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("BD_LOG_LEVEL", "debug")
	t.Setenv("BD_LOG_FORMAT", "json")
	t.Setenv("BD_LOG_SOURCE", "TRUE")
	t.Setenv("BD_LOG_FILE", "")
	o := FromEnv()
	if o.Level != "debug" || o.Format != "json" || !o.AddSource || o.File != "" {
		t.Fatalf("unexpected options: %+v", o)
	}
}

func TestPrettyHandlerFormatsAttrsAndLevels(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "warn", Format: "console", Writer: &buf})
	l := L().WithGroup("grp")
	l.Info("dropped")
	l.Error("boom", slog.Int("n", 42), slog.Float64("pi", 3.14))
	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info record should be filtered at warn level: %q", out)
	}
	for _, want := range []string{"ERR", "boom", "grp.n=42", "grp.pi=3.14", "app=boarddesigner"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q: %q", want, out)
		}
	}
}

func TestDiscardDoesNotPanic(t *testing.T) {
	Discard().Error("nothing", slog.String("k", "v"))
}

func TestConsoleHandlerAddsSource(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "info", Format: "console", AddSource: true, Writer: &buf})
	L().Info("where")
	if out := buf.String(); !strings.Contains(out, " src=logger_test.go:") {
		t.Fatalf("missing source location: %q", out)
	}
}

func TestConsoleHandlerGroupsAndQuoting(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, slog.LevelInfo, false)
	l := slog.New(h).With(slog.String("board", "Login screen")).WithGroup("drag")
	l.Info("moved", slog.Group("to", slog.Int("x", 3), slog.Int("y", 4)), slog.String("empty", ""))
	out := buf.String()
	for _, want := range []string{`board="Login screen"`, "drag.to.x=3", "drag.to.y=4", `drag.empty=""`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q: %q", want, out)
		}
	}
	if strings.Contains(out, "drag.board") {
		t.Fatalf("attrs added before the group must not be prefixed: %q", out)
	}
}
