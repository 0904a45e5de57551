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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"boarddesigner/internal/catalog"
	"boarddesigner/internal/config"
	"boarddesigner/internal/crash"
	"boarddesigner/internal/export"
	"boarddesigner/internal/grid"
	applog "boarddesigner/internal/log"
	"boarddesigner/internal/storage"
	"boarddesigner/internal/ui"
	"boarddesigner/internal/version"
)

var errUsage = errors.New("usage")

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Board Designer")
	_, _ = fmt.Fprintf(w, "Version: %s\n", version.String())
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  boarddesigner version|-v|--version         Show version")
	_, _ = fmt.Fprintln(w, "  boarddesigner list                          List boards, most recently opened first")
	_, _ = fmt.Fprintln(w, "  boarddesigner create <name>                 Create an empty board")
	_, _ = fmt.Fprintln(w, "  boarddesigner duplicate <id> <name>         Copy a board")
	_, _ = fmt.Fprintln(w, "  boarddesigner delete <id>                   Delete a board")
	_, _ = fmt.Fprintln(w, "  boarddesigner import <zip>                  Import a board archive")
	_, _ = fmt.Fprintln(w, "  boarddesigner export <id> <zip>             Export a board archive")
	_, _ = fmt.Fprintln(w, "  boarddesigner png <id> <out.png> [scale]    Render a board to PNG")
	_, _ = fmt.Fprintln(w, "  boarddesigner svg <id> <out.svg>            Write a board as SVG")
	_, _ = fmt.Fprintln(w, "  boarddesigner pdf <id> <out.pdf>            Write a board as PDF")
	_, _ = fmt.Fprintln(w, "  boarddesigner batch <id> <web|print> <dir>  Export with a preset")
	_, _ = fmt.Fprintln(w, "  boarddesigner ui <id>                       Open the board editor (build with -tags fyne)")
	_, _ = fmt.Fprintln(w, "  boarddesigner schema                        Print the board.json JSON schema")
	_, _ = fmt.Fprintln(w, "  boarddesigner config                        Show the effective configuration")
	_, _ = fmt.Fprintln(w, "  boarddesigner config catalog <driver> [dsn] Store the catalog settings")
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	defer crash.Recover(nil)

	// A missing .env is fine.
	_ = godotenv.Load()

	cfg, secret, err := config.Load()
	if err != nil {
		applog.Init(applog.FromEnv())
		applog.WithComponent("cli").Error("load config failed", slog.Any("err", err))
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")
	l.Debug("start", slog.Int("args", len(args)))

	if len(args) == 0 {
		usage(stdout)
		return 0
	}
	switch args[0] {
	case "version", "--version", "-v":
		_, _ = fmt.Fprintln(stdout, "Board Designer")
		_, _ = fmt.Fprintln(stdout, version.String())
		return 0
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	case "schema":
		_, _ = stdout.Write(storage.BoardSchema())
		return 0
	case "config":
		if err := configCommand(cfg, args[1:], os.Getenv(envCatalogPassword), stdout); err != nil {
			if errors.Is(err, errUsage) {
				_, _ = fmt.Fprintln(stderr, err)
				usage(stderr)
				return 2
			}
			_, _ = fmt.Fprintln(stderr, "Error:", err)
			return 1
		}
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = dispatch(ctx, cfg, secret, args, stdout)
	switch {
	case errors.Is(err, errUsage):
		_, _ = fmt.Fprintln(stderr, err)
		usage(stderr)
		return 2
	case err != nil:
		l.Error("command failed", slog.String("cmd", args[0]), slog.Any("err", err))
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

func need(args []string, n int, what string) error {
	if len(args) < n+1 {
		return fmt.Errorf("%w: %s requires %s", errUsage, args[0], what)
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid board id %q", errUsage, s)
	}
	return id, nil
}

func openCatalog(ctx context.Context, cfg config.AppConfig, secret string) (*catalog.Catalog, error) {
	c, err := catalog.Open(ctx, catalog.Options{
		Driver:   cfg.Catalog.Driver,
		DSN:      cfg.Catalog.DSN,
		Password: secret,
		DataDir:  cfg.General.DataDir,
		Defaults: catalog.BoardDefaults{
			Grid: grid.Config{Size: cfg.Canvas.GridSize, Interval: cfg.Canvas.GridInterval},
		},
	})
	if err != nil {
		return nil, err
	}
	if _, err := c.SetupIncluded(ctx); err != nil {
		applog.WithComponent("cli").Warn("installing bundled boards failed", slog.Any("err", err))
	}
	return c, nil
}

func dispatch(ctx context.Context, cfg config.AppConfig, secret string, args []string, out io.Writer) error {
	cmd := args[0]
	switch cmd {
	case "list", "create", "duplicate", "delete", "import", "export", "png", "svg", "pdf", "batch", "ui":
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	c, err := openCatalog(ctx, cfg, secret)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	switch cmd {
	case "list":
		boards, err := c.List(ctx)
		if err != nil {
			return err
		}
		for _, m := range boards {
			_, _ = fmt.Fprintf(out, "%d\t%s\t%s\n", m.ID, m.Name, m.LastOpened.Format(time.DateTime))
		}
		return nil
	case "create":
		if err := need(args, 1, "<name>"); err != nil {
			return err
		}
		m, err := c.Create(ctx, args[1])
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Created board %d (%s)\n", m.ID, m.Name)
		return nil
	case "import":
		if err := need(args, 1, "<zip>"); err != nil {
			return err
		}
		m, err := c.ImportFile(ctx, args[1])
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Imported board %d (%s)\n", m.ID, m.Name)
		return nil
	}

	if err := need(args, 1, "<id>"); err != nil {
		return err
	}
	id, err := parseID(args[1])
	if err != nil {
		return err
	}
	switch cmd {
	case "duplicate":
		name := ""
		if len(args) > 2 {
			name = args[2]
		}
		m, err := c.Duplicate(ctx, id, name)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Created board %d (%s)\n", m.ID, m.Name)
		return nil
	case "delete":
		if err := c.Delete(ctx, id); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Deleted board %d\n", id)
		return nil
	case "export":
		if err := need(args, 2, "<id> <zip>"); err != nil {
			return err
		}
		if err := c.ExportFile(ctx, id, args[2]); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Exported board %d to %s\n", id, args[2])
		return nil
	case "ui":
		return ui.Run(ctx, ui.Options{Catalog: c, BoardID: id, Canvas: cfg.Canvas})
	}
	return renderCommand(ctx, c, cmd, id, args, out)
}

// renderCommand handles the exports that read the board without changing it.
func renderCommand(ctx context.Context, c *catalog.Catalog, cmd string, id int64, args []string, out io.Writer) error {
	if err := need(args, 2, "<id> <out>"); err != nil {
		return err
	}
	ctx = applog.ContextWithBoard(ctx, id)
	h, err := c.OpenBoard(ctx, id)
	if err != nil {
		return err
	}
	defer crash.Recover(h)
	dst := args[2]
	switch cmd {
	case "png":
		scale := 1.0
		if len(args) > 3 {
			if scale, err = strconv.ParseFloat(args[3], 64); err != nil || scale <= 0 {
				return fmt.Errorf("%w: invalid scale %q", errUsage, args[3])
			}
		}
		err = export.WriteFile(dst, func(w io.Writer) error { return export.PNG(h.Board, w, scale) })
	case "svg":
		err = export.WriteFile(dst, func(w io.Writer) error { return export.SVG(h.Board, w, 1) })
	case "pdf":
		err = export.WriteFile(dst, func(w io.Writer) error {
			return export.PDF(h.Board, w, export.PDFOptions{Author: "Board Designer " + version.String()})
		})
	case "batch":
		if err := need(args, 3, "<id> <preset> <dir>"); err != nil {
			return err
		}
		var paths []string
		paths, err = export.BatchExport(h.Board, export.BatchOptions{Preset: export.PresetName(args[2]), OutDir: args[3]})
		for _, p := range paths {
			_, _ = fmt.Fprintln(out, p)
		}
		return err
	}
	if err != nil {
		return err
	}
	applog.WithComponent("cli").InfoContext(ctx, "board rendered", slog.String("format", cmd), slog.String("out", dst))
	_, _ = fmt.Fprintf(out, "Wrote %s\n", dst)
	return nil
}
