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
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strconv"

	"boarddesigner/internal/board"
	applog "boarddesigner/internal/log"
	"boarddesigner/internal/storage"
)

//go:embed included/*.json
var includedFS embed.FS

const (
	// includedVersion is bumped whenever the bundled boards change so that
	// existing catalogs pick the new set up once.
	includedVersion = 1
	includedMetaKey = "included_boards_version"
)

// SetupIncluded adds the bundled template boards unless this catalog already
// has the current set. It returns the number of boards added.
func (c *Catalog) SetupIncluded(ctx context.Context) (int, error) {
	l := applog.WithOperation(c.l, "setup_included")
	v, ok, err := c.metaValue(ctx, includedMetaKey)
	if err != nil {
		return 0, err
	}
	if ok {
		if n, err := strconv.Atoi(v); err == nil && n >= includedVersion {
			return 0, nil
		}
	}
	names, err := fs.Glob(includedFS, "included/*.json")
	if err != nil {
		return 0, err
	}
	sort.Strings(names)
	added := 0
	for _, name := range names {
		data, err := includedFS.ReadFile(name)
		if err != nil {
			return added, err
		}
		if err := storage.ValidateBoardJSON(data); err != nil {
			return added, fmt.Errorf("%s: %w", name, err)
		}
		b, err := board.Decode(data)
		if err != nil {
			return added, fmt.Errorf("%s: %w", name, err)
		}
		if _, err := c.insert(ctx, b.Name(), func(dir string) (*board.Board, error) {
			return b, storage.WriteBoardFile(dir, data)
		}); err != nil {
			return added, err
		}
		added++
	}
	if err := c.setMeta(ctx, includedMetaKey, strconv.Itoa(includedVersion)); err != nil {
		return added, err
	}
	l.Info("included boards installed", slog.Int("count", added))
	return added, nil
}
