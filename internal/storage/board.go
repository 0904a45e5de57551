/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"boarddesigner/internal/board"
)

const (
	BoardFileName  = "board.json"
	BackupsDirName = "backups"
	// CrashFilePrefix names crash snapshots written by AutosaveCrashSnapshot.
	CrashFilePrefix = "crash-"
)

// ErrNoBackups is returned when a board cannot be recovered from backups.
var ErrNoBackups = errors.New("no backups found")

// BoardHandle is a board loaded from, and saved to, its directory.
type BoardHandle struct {
	Root      string
	BoardPath string
	Board     *board.Board
	// Recovered is set when Open had to fall back to a backup.
	Recovered bool
}

// Create makes root (if needed), scaffolds backups/ and writes b.
func Create(root string, b *board.Board) (*BoardHandle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if b == nil {
		return nil, errors.New("nil board")
	}
	if err := os.MkdirAll(filepath.Join(root, BackupsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create board dir: %w", err)
	}
	h := &BoardHandle{Root: root, BoardPath: filepath.Join(root, BoardFileName), Board: b}
	if err := Save(h); err != nil {
		return nil, err
	}
	return h, nil
}

// Open loads the board stored in root. If board.json cannot be read, parsed
// or validated, the latest backup is used instead.
func Open(root string) (*BoardHandle, error) {
	bpath := filepath.Join(root, BoardFileName)
	data, err := os.ReadFile(bpath)
	if err == nil {
		var b *board.Board
		if b, err = decode(data); err == nil {
			return &BoardHandle{Root: root, BoardPath: bpath, Board: b}, nil
		}
	}
	b, berr := openFromLatestBackup(root)
	if berr != nil {
		return nil, fmt.Errorf("open board: %w; backup attempt: %w", err, berr)
	}
	return &BoardHandle{Root: root, BoardPath: bpath, Board: b, Recovered: true}, nil
}

func decode(data []byte) (*board.Board, error) {
	if err := ValidateBoardJSON(data); err != nil {
		return nil, err
	}
	return board.Decode(data)
}

// Save writes the board with transactional semantics after copying the
// previous board.json into a timestamped backup.
func Save(h *BoardHandle) error {
	if h == nil || h.Board == nil {
		return errors.New("nil BoardHandle")
	}
	if h.Root == "" || h.BoardPath == "" {
		return errors.New("invalid BoardHandle: missing paths")
	}
	data, err := json.MarshalIndent(h.Board, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal board: %w", err)
	}
	data = append(data, '\n')

	bdir := filepath.Join(h.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	if _, statErr := os.Stat(h.BoardPath); statErr == nil {
		stamp := time.Now().Format("20060102-150405.000")
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", BoardFileName, stamp))
		if cerr := copyFile(h.BoardPath, bpath); cerr != nil {
			return fmt.Errorf("backup current board: %w", cerr)
		}
	}
	if err := writeAtomic(h.BoardPath, data); err != nil {
		return fmt.Errorf("replace board: %w", err)
	}
	h.Recovered = false
	return nil
}

// WriteBoardFile writes raw board.json bytes into root without a backup.
// Used when materializing imported or bundled boards.
func WriteBoardFile(root string, data []byte) error {
	if err := os.MkdirAll(filepath.Join(root, BackupsDirName), 0o755); err != nil {
		return fmt.Errorf("create board dir: %w", err)
	}
	return writeAtomic(filepath.Join(root, BoardFileName), data)
}

// PruneBackups keeps the newest keep backups of a board and removes the rest.
func PruneBackups(root string, keep int) (int, error) {
	cands, err := backups(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	if keep < 0 {
		keep = 0
	}
	removed := 0
	for i := 0; i < len(cands)-keep; i++ {
		if err := os.Remove(cands[i]); err != nil {
			return removed, fmt.Errorf("remove backup: %w", err)
		}
		removed++
	}
	return removed, nil
}

// Duplicate copies the board directory src to dst (without backups) and
// renames the copy.
func Duplicate(src, dst, newName string) (*BoardHandle, error) {
	h, err := Open(src)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(h.Board)
	if err != nil {
		return nil, fmt.Errorf("marshal board: %w", err)
	}
	cp, err := board.Decode(data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(newName) != "" {
		cp.SetName(newName)
	}
	return Create(dst, cp)
}

// Delete removes the board directory.
func Delete(root string) error {
	if strings.TrimSpace(root) == "" {
		return errors.New("root path is required")
	}
	if err := os.RemoveAll(root); err != nil {
		return fmt.Errorf("delete board dir: %w", err)
	}
	return nil
}

// AutosaveCrashSnapshot writes the in-memory board next to board.json under a
// crash- prefixed name so a later session can recover unsaved edits.
func AutosaveCrashSnapshot(h *BoardHandle) (string, error) {
	if h == nil || h.Board == nil || h.Root == "" {
		return "", errors.New("nil BoardHandle")
	}
	data, err := json.MarshalIndent(h.Board, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal board: %w", err)
	}
	name := fmt.Sprintf("%s%s.json", CrashFilePrefix, time.Now().Format("20060102-150405"))
	path := filepath.Join(h.Root, BackupsDirName, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := writeAtomic(path, append(data, '\n')); err != nil {
		return "", err
	}
	return path, nil
}

func writeAtomic(path string, data []byte) error {
	temp := filepath.Join(filepath.Dir(path), fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		return err
	}
	return nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// backups lists board.json backups oldest first.
func backups(root string) ([]string, error) {
	bdir := filepath.Join(root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, BoardFileName+".") && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

// openFromLatestBackup walks backups newest first and returns the first one
// that decodes.
func openFromLatestBackup(root string) (*board.Board, error) {
	cands, err := backups(root)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, ErrNoBackups
	}
	var lastErr error
	for i := len(cands) - 1; i >= 0; i-- {
		data, err := os.ReadFile(cands[i])
		if err != nil {
			lastErr = err
			continue
		}
		b, err := decode(data)
		if err != nil {
			lastErr = err
			continue
		}
		return b, nil
	}
	return nil, fmt.Errorf("%w: newest failure: %v", ErrNoBackups, lastErr)
}
