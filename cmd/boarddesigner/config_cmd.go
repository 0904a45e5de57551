/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"io"
	"strconv"

	"boarddesigner/internal/catalog"
	"boarddesigner/internal/config"
)

// envCatalogPassword supplies the postgres password to "config catalog"; it
// is stored in the OS keychain, never in the YAML file.
const envCatalogPassword = "BD_CATALOG_PASSWORD"

func configCommand(cfg config.AppConfig, args []string, password string, out io.Writer) error {
	if len(args) == 0 {
		return showConfig(cfg, out)
	}
	switch args[0] {
	case "catalog":
		if len(args) < 2 {
			return fmt.Errorf("%w: config catalog requires <driver>", errUsage)
		}
		switch args[1] {
		case catalog.DriverSQLite, catalog.DriverPostgres:
		default:
			return fmt.Errorf("%w: unknown catalog driver %q", errUsage, args[1])
		}
		cfg.Catalog.Driver = args[1]
		cfg.Catalog.DSN = ""
		if len(args) > 2 {
			cfg.Catalog.DSN = args[2]
		}
		if err := config.Save(cfg, password); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		path, _ := config.ConfigPath()
		_, _ = fmt.Fprintf(out, "Saved %s\n", path)
		return nil
	}
	return fmt.Errorf("%w: unknown config command %q", errUsage, args[0])
}

func showConfig(cfg config.AppConfig, out io.Writer) error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "file: %s\n", path)
	rows := []struct{ key, val string }{
		{"general.data_dir", cfg.General.DataDir},
		{"canvas.draw_interval_ms", strconv.Itoa(cfg.Canvas.DrawIntervalMs)},
		{"canvas.scale", strconv.FormatFloat(cfg.Canvas.Scale, 'g', -1, 64)},
		{"canvas.touch_slop_dip", strconv.Itoa(cfg.Canvas.TouchSlopDip)},
		{"canvas.grid_size", strconv.Itoa(cfg.Canvas.GridSize)},
		{"canvas.grid_interval", strconv.Itoa(cfg.Canvas.GridInterval)},
		{"catalog.driver", cfg.Catalog.Driver},
		{"catalog.dsn", cfg.Catalog.DSN},
		{"logging.level", cfg.Logging.Level},
		{"logging.format", cfg.Logging.Format},
		{"logging.file", cfg.Logging.File},
	}
	for _, r := range rows {
		if env, ok := config.EnvOverrideFor(r.key); ok {
			_, _ = fmt.Fprintf(out, "%s: %s (from %s)\n", r.key, r.val, env)
			continue
		}
		_, _ = fmt.Fprintf(out, "%s: %s\n", r.key, r.val)
	}
	return nil
}
