/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package catalog keeps the list of boards (id, name, last opened, thumbnail)
// in a relational database and maps each id to its board directory.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"boarddesigner/internal/board"
	"boarddesigner/internal/export"
	"boarddesigner/internal/grid"
	applog "boarddesigner/internal/log"
	"boarddesigner/internal/storage"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// DBFileName is the SQLite catalog inside the data dir.
	DBFileName = "catalog.sqlite"

	// keepBackups bounds the timestamped backups kept per board on Save.
	keepBackups = 10
)

// ErrNotFound is returned for ids that are not in the catalog.
var ErrNotFound = errors.New("board not found")

// Meta is one catalog row.
type Meta struct {
	ID         int64
	Name       string
	LastOpened time.Time
	Thumbnail  []byte
}

// BoardDefaults sizes boards made by Create.
type BoardDefaults struct {
	Width  int
	Height int
	Grid   grid.Config
}

// Options configures Open.
type Options struct {
	Driver   string // sqlite (default) or postgres
	DSN      string // sqlite: file path (default <DataDir>/catalog.sqlite); postgres: connection URL
	Password string // postgres only; overrides the DSN password when set
	DataDir  string // root of the per-board directories
	Defaults BoardDefaults
}

// Catalog is safe for concurrent use.
type Catalog struct {
	db       *sql.DB
	dia      dialect
	dataDir  string
	defaults BoardDefaults
	l        *slog.Logger
	now      func() time.Time
}

// Open connects to the catalog database, creating and migrating the schema
// as needed.
func Open(ctx context.Context, opt Options) (*Catalog, error) {
	l := applog.WithComponent("catalog").With(slog.String("driver", driverName(opt.Driver)))
	if strings.TrimSpace(opt.DataDir) == "" {
		return nil, errors.New("data dir is required")
	}
	if err := os.MkdirAll(opt.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	var (
		db  *sql.DB
		dia dialect
		err error
	)
	switch driverName(opt.Driver) {
	case DriverSQLite:
		dia = sqliteDialect
		db, err = openSQLite(ctx, opt)
	case DriverPostgres:
		dia = postgresDialect
		db, err = openPostgres(ctx, opt)
	default:
		return nil, fmt.Errorf("unknown catalog driver %q", opt.Driver)
	}
	if err != nil {
		l.Error("open failed", slog.Any("err", err))
		return nil, err
	}

	c := &Catalog{db: db, dia: dia, dataDir: opt.DataDir, defaults: opt.Defaults, l: l, now: time.Now}
	if c.defaults.Width <= 0 || c.defaults.Height <= 0 {
		c.defaults.Width, c.defaults.Height = 360, 640
	}
	if c.defaults.Grid.Validate() != nil {
		c.defaults.Grid = grid.Config{Size: 10, Interval: 5}
	}
	if err := c.migrate(ctx); err != nil {
		_ = db.Close()
		l.Error("migrate failed", slog.Any("err", err))
		return nil, err
	}
	l.Info("catalog ready", slog.String("data", opt.DataDir))
	return c, nil
}

func driverName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "sqlite", "sqlite3":
		return DriverSQLite
	case "postgres", "postgresql", "pgx":
		return DriverPostgres
	}
	return s
}

func openSQLite(ctx context.Context, opt Options) (*sql.DB, error) {
	path := opt.DSN
	if path == "" {
		path = filepath.Join(opt.DataDir, DBFileName)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	return db, nil
}

func openPostgres(ctx context.Context, opt Options) (*sql.DB, error) {
	if strings.TrimSpace(opt.DSN) == "" {
		return nil, errors.New("postgres catalog requires a DSN")
	}
	cfg, err := pgx.ParseConfig(opt.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if opt.Password != "" {
		cfg.Password = opt.Password
	}
	db := stdlib.OpenDB(*cfg)
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Close releases the database.
func (c *Catalog) Close() error { return c.db.Close() }

// DataDir returns the root of the board directories.
func (c *Catalog) DataDir() string { return c.dataDir }

// BoardDir returns the directory holding board id.
func (c *Catalog) BoardDir(id int64) string {
	return filepath.Join(c.dataDir, strconv.FormatInt(id, 10))
}

// List returns every board, most recently opened first.
func (c *Catalog) List(ctx context.Context) ([]Meta, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, name, last_opened, thumbnail FROM boards ORDER BY last_opened DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Meta
	for rows.Next() {
		m, err := scanMeta(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return out, nil
}

// Get returns one catalog row.
func (c *Catalog) Get(ctx context.Context, id int64) (Meta, error) {
	row := c.db.QueryRowContext(ctx, c.dia.bind(`SELECT id, name, last_opened, thumbnail FROM boards WHERE id = ?`), id)
	m, err := scanMeta(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Meta{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return m, err
}

type scanner interface{ Scan(dest ...any) error }

func scanMeta(s scanner) (Meta, error) {
	var (
		m  Meta
		ms int64
	)
	if err := s.Scan(&m.ID, &m.Name, &ms, &m.Thumbnail); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Meta{}, err
		}
		return Meta{}, fmt.Errorf("scan board: %w", err)
	}
	m.LastOpened = time.UnixMilli(ms)
	return m, nil
}

// Create adds an empty board named name with the catalog defaults.
func (c *Catalog) Create(ctx context.Context, name string) (Meta, error) {
	if strings.TrimSpace(name) == "" {
		return Meta{}, errors.New("board name is required")
	}
	b, err := board.New(name, c.defaults.Width, c.defaults.Height, c.defaults.Grid)
	if err != nil {
		return Meta{}, err
	}
	return c.insert(ctx, name, func(dir string) (*board.Board, error) {
		h, err := storage.Create(dir, b)
		if err != nil {
			return nil, err
		}
		return h.Board, nil
	})
}

// insert adds a row, lets materialize fill the board directory and stores
// the thumbnail. The row is removed again if materialize fails.
func (c *Catalog) insert(ctx context.Context, name string, materialize func(dir string) (*board.Board, error)) (Meta, error) {
	now := c.now()
	var id int64
	err := c.db.QueryRowContext(ctx, c.dia.bind(`INSERT INTO boards (name, last_opened) VALUES (?, ?) RETURNING id`), name, now.UnixMilli()).Scan(&id)
	if err != nil {
		return Meta{}, fmt.Errorf("insert board: %w", err)
	}
	dir := c.BoardDir(id)
	b, err := materialize(dir)
	if err != nil {
		_, _ = c.db.ExecContext(ctx, c.dia.bind(`DELETE FROM boards WHERE id = ?`), id)
		_ = os.RemoveAll(dir)
		return Meta{}, err
	}
	if b.Name() != name {
		name = b.Name()
		if _, err := c.db.ExecContext(ctx, c.dia.bind(`UPDATE boards SET name = ? WHERE id = ?`), name, id); err != nil {
			return Meta{}, fmt.Errorf("rename board: %w", err)
		}
	}
	thumb := c.refreshThumbnail(ctx, id, b)
	c.l.Info("board added", slog.Int64("id", id), slog.String("name", name))
	return Meta{ID: id, Name: name, LastOpened: time.UnixMilli(now.UnixMilli()), Thumbnail: thumb}, nil
}

// OpenBoard marks the board as opened now and loads it from disk.
func (c *Catalog) OpenBoard(ctx context.Context, id int64) (*storage.BoardHandle, error) {
	res, err := c.db.ExecContext(ctx, c.dia.bind(`UPDATE boards SET last_opened = ? WHERE id = ?`), c.now().UnixMilli(), id)
	if err != nil {
		return nil, fmt.Errorf("touch board: %w", err)
	}
	if err := expectOne(res, id); err != nil {
		return nil, err
	}
	h, err := storage.Open(c.BoardDir(id))
	if err != nil {
		return nil, err
	}
	if h.Recovered {
		applog.WithOperation(c.l, "open").Warn("board restored from backup", slog.Int64("id", id))
	}
	return h, nil
}

// Save writes the board, prunes old backups and refreshes the catalog name
// and thumbnail.
func (c *Catalog) Save(ctx context.Context, id int64, h *storage.BoardHandle) error {
	if _, err := c.Get(ctx, id); err != nil {
		return err
	}
	if err := storage.Save(h); err != nil {
		return err
	}
	if _, err := storage.PruneBackups(h.Root, keepBackups); err != nil {
		c.l.Warn("prune backups failed", slog.Int64("id", id), slog.Any("err", err))
	}
	if _, err := c.db.ExecContext(ctx, c.dia.bind(`UPDATE boards SET name = ? WHERE id = ?`), h.Board.Name(), id); err != nil {
		return fmt.Errorf("update board name: %w", err)
	}
	c.refreshThumbnail(ctx, id, h.Board)
	return nil
}

// Duplicate copies board id into a new board named newName.
func (c *Catalog) Duplicate(ctx context.Context, id int64, newName string) (Meta, error) {
	src, err := c.Get(ctx, id)
	if err != nil {
		return Meta{}, err
	}
	if strings.TrimSpace(newName) == "" {
		newName = src.Name + " copy"
	}
	return c.insert(ctx, newName, func(dir string) (*board.Board, error) {
		h, err := storage.Duplicate(c.BoardDir(id), dir, newName)
		if err != nil {
			return nil, err
		}
		return h.Board, nil
	})
}

// Delete removes the catalog row and the board directory.
func (c *Catalog) Delete(ctx context.Context, id int64) error {
	res, err := c.db.ExecContext(ctx, c.dia.bind(`DELETE FROM boards WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	if err := expectOne(res, id); err != nil {
		return err
	}
	if err := storage.Delete(c.BoardDir(id)); err != nil {
		return err
	}
	c.l.Info("board deleted", slog.Int64("id", id))
	return nil
}

func (c *Catalog) refreshThumbnail(ctx context.Context, id int64, b *board.Board) []byte {
	thumb, err := export.ThumbnailPNG(b, export.ThumbnailSide)
	if err != nil {
		c.l.Warn("thumbnail failed", slog.Int64("id", id), slog.Any("err", err))
		return nil
	}
	if _, err := c.db.ExecContext(ctx, c.dia.bind(`UPDATE boards SET thumbnail = ? WHERE id = ?`), thumb, id); err != nil {
		c.l.Warn("store thumbnail failed", slog.Int64("id", id), slog.Any("err", err))
		return nil
	}
	return thumb
}

func expectOne(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}
