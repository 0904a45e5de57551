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
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"boarddesigner/internal/version"
)

// schemaVersion tracks the catalog schema. Bump it and add a step to
// migrate when changing tables.
const schemaVersion = 2

// dialect holds the SQL that differs between SQLite and Postgres.
type dialect struct {
	name       string
	dollarArgs bool
	boardsDDL  string
	blobType   string
}

var (
	sqliteDialect = dialect{
		name: DriverSQLite,
		boardsDDL: `CREATE TABLE IF NOT EXISTS boards (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT NOT NULL,
			last_opened INTEGER NOT NULL,
			thumbnail   BLOB
		);`,
		blobType: "BLOB",
	}
	postgresDialect = dialect{
		name:       DriverPostgres,
		dollarArgs: true,
		boardsDDL: `CREATE TABLE IF NOT EXISTS boards (
			id          BIGSERIAL PRIMARY KEY,
			name        TEXT NOT NULL,
			last_opened BIGINT NOT NULL,
			thumbnail   BYTEA
		);`,
		blobType: "BYTEA",
	}
)

// bind rewrites ? placeholders to $n for Postgres.
func (d dialect) bind(q string) string {
	if !d.dollarArgs {
		return q
	}
	var sb strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (c *Catalog) migrate(ctx context.Context) error {
	if err := c.ensureMetaAndVersion(ctx); err != nil {
		return err
	}
	if _, err := c.db.ExecContext(ctx, c.dia.boardsDDL); err != nil {
		return fmt.Errorf("create boards: %w", err)
	}
	return c.runMigrations(ctx)
}

func (c *Catalog) ensureMetaAndVersion(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := c.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := c.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// A fresh database gets the current schema straight away.
		if _, err := c.db.ExecContext(ctx, c.dia.bind(`INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`), schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := c.db.ExecContext(ctx, c.dia.bind(`UPDATE version SET app=?, updated_at=? WHERE id=1`), appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental steps up to schemaVersion. Newer
// databases are left alone.
func (c *Catalog) runMigrations(ctx context.Context) error {
	var cur int
	if err := c.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{
				`ALTER TABLE boards ADD COLUMN thumbnail ` + c.dia.blobType,
				`CREATE INDEX IF NOT EXISTS idx_boards_last_opened ON boards(last_opened)`,
			}
		}
		tx, err := c.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, c.dia.bind(`UPDATE version SET schema=?, updated_at=? WHERE id=1`), next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		c.l.Info("catalog migrated", "schema", next)
		cur = next
	}
	return nil
}

// SchemaVersion reports the schema stored in the database.
func (c *Catalog) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := c.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

func (c *Catalog) metaValue(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := c.db.QueryRowContext(ctx, c.dia.bind(`SELECT value FROM meta WHERE key = ?`), key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read meta %s: %w", key, err)
	}
	return v, true, nil
}

func (c *Catalog) setMeta(ctx context.Context, key, value string) error {
	q := c.dia.bind(`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`)
	if _, err := c.db.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("write meta %s: %w", key, err)
	}
	return nil
}
