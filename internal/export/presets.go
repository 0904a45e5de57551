/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"boarddesigner/internal/board"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// BatchOptions controls batch export of one board into several formats.
//
// Output files are <OutDir>/<slug>.<ext>; when OutDir is empty the preset
// name is used as directory.
type BatchOptions struct {
	Preset  PresetName
	Formats []string // allowed: pdf, png, svg; empty means preset defaults
	Scale   float64  // raster scale for png; 0 means preset default
	OutDir  string
}

// BatchExport writes the board in every requested format and returns the
// paths written.
func BatchExport(b *board.Board, opt BatchOptions) ([]string, error) {
	if b == nil {
		return nil, errNilBoard
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	scale := opt.Scale
	if scale <= 0 {
		scale = presetScale(opt.Preset)
	}
	outDir := opt.OutDir
	if outDir == "" {
		outDir = string(opt.Preset)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}

	base := slug(b.Name())
	var written []string
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		var write func(io.Writer) error
		switch f {
		case "png":
			write = func(w io.Writer) error { return PNG(b, w, scale) }
		case "svg":
			write = func(w io.Writer) error { return SVG(b, w, 1) }
		case "pdf":
			write = func(w io.Writer) error { return PDF(b, w, PDFOptions{}) }
		default:
			return written, fmt.Errorf("unknown format: %s", f)
		}
		path := filepath.Join(outDir, base+"."+f)
		if err := writeFile(path, write); err != nil {
			return written, fmt.Errorf("%s: %w", f, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// WriteFile creates path and streams one export into it.
func WriteFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	return writeFile(path, write)
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWeb:
		return []string{"png", "svg"}
	case PresetPrint:
		return []string{"pdf", "png"}
	default:
		return []string{"pdf"}
	}
}

func presetScale(p PresetName) float64 {
	if p == PresetPrint {
		return 300.0 / 72.0
	}
	return 2
}

func slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		}
		return -1
	}, s)
	if s == "" {
		return "board"
	}
	return s
}
