/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package catalog

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"boarddesigner/internal/board"
	applog "boarddesigner/internal/log"
	"boarddesigner/internal/storage"
	"boarddesigner/internal/version"
)

const (
	archiveBoardFile    = "board.json"
	archiveManifestFile = "manifest.txt"
	archiveThumbFile    = "thumbnail.png"

	// maxArchiveEntry bounds how much of one zip entry Import will read.
	maxArchiveEntry = 32 << 20
)

// ErrInvalidArchive is returned by Import for archives without a usable
// board.json.
var ErrInvalidArchive = errors.New("invalid board archive")

// Export writes board id as a zip archive holding board.json, a manifest
// and the thumbnail.
func (c *Catalog) Export(ctx context.Context, id int64, w io.Writer) error {
	l := applog.WithOperation(c.l, "export").With(slog.Int64("id", id))
	m, err := c.Get(ctx, id)
	if err != nil {
		return err
	}
	h, err := storage.Open(c.BoardDir(id))
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(h.Board, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal board: %w", err)
	}

	zw := zip.NewWriter(w)
	manifest := fmt.Sprintf("Board Designer archive\nCreated: %s\nApp: %s\nBoard: %s\nFormat: %d\n",
		time.Now().Format(time.RFC3339), version.String(), m.Name, board.FormatVersion)
	files := []struct {
		name string
		data []byte
	}{
		{archiveManifestFile, []byte(manifest)},
		{archiveBoardFile, append(data, '\n')},
	}
	if len(m.Thumbnail) > 0 {
		files = append(files, struct {
			name string
			data []byte
		}{archiveThumbFile, m.Thumbnail})
	}
	for _, f := range files {
		fw, err := zw.Create(f.name)
		if err != nil {
			return fmt.Errorf("add %s: %w", f.name, err)
		}
		if _, err := fw.Write(f.data); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	l.Info("board exported", slog.Int("files", len(files)))
	return nil
}

// ExportFile is Export into a new file at path.
func (c *Catalog) ExportFile(ctx context.Context, id int64, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return c.Export(ctx, id, f)
}

// Import adds the board held in a zip archive as a new catalog entry. The
// board.json entry must validate against the board schema; other entries
// are ignored.
func (c *Catalog) Import(ctx context.Context, r io.ReaderAt, size int64) (Meta, error) {
	l := applog.WithOperation(c.l, "import")
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Meta{}, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	var data []byte
	for _, f := range zr.File {
		if f.Name != archiveBoardFile {
			continue
		}
		data, err = readEntry(f)
		if err != nil {
			return Meta{}, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
		}
		break
	}
	if data == nil {
		return Meta{}, fmt.Errorf("%w: missing %s", ErrInvalidArchive, archiveBoardFile)
	}
	if err := storage.ValidateBoardJSON(data); err != nil {
		return Meta{}, fmt.Errorf("%w: %w", ErrInvalidArchive, err)
	}
	b, err := board.Decode(data)
	if err != nil {
		return Meta{}, fmt.Errorf("%w: %w", ErrInvalidArchive, err)
	}
	m, err := c.insert(ctx, b.Name(), func(dir string) (*board.Board, error) {
		if err := storage.WriteBoardFile(dir, data); err != nil {
			return nil, err
		}
		return b, nil
	})
	if err != nil {
		return Meta{}, err
	}
	l.Info("board imported", slog.Int64("id", m.ID), slog.String("name", m.Name))
	return m, nil
}

// ImportFile is Import from the zip file at path.
func (c *Catalog) ImportFile(ctx context.Context, path string) (Meta, error) {
	f, err := os.Open(path)
	if err != nil {
		return Meta{}, fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = f.Close() }()
	st, err := f.Stat()
	if err != nil {
		return Meta{}, fmt.Errorf("stat archive: %w", err)
	}
	return c.Import(ctx, f, st.Size())
}

func readEntry(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxArchiveEntry {
		return nil, fmt.Errorf("%s too large", f.Name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(io.LimitReader(rc, maxArchiveEntry))
}
