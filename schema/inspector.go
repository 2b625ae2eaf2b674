/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package schema

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/tomoncle/revistadb/database"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// Column is one row of a table's catalog description.
type Column struct {
	Position int
	Name     string
	DataType string
	Nullable bool
	Default  sql.NullString
}

// DefaultString returns the default expression or "NULL" when none is set.
func (c Column) DefaultString() string {
	if !c.Default.Valid {
		return "NULL"
	}
	return c.Default.String
}

// Inspect returns the columns of table ordered by ascending ordinal position.
// A table without columns is reported as database.ErrTableNotFound.
func Inspect(ctx context.Context, db bun.IDB, table string) ([]Column, error) {
	if err := ValidateIdent("table", table); err != nil {
		return nil, err
	}

	var (
		cols []Column
		err  error
	)
	switch db.Dialect().Name() {
	case dialect.MySQL:
		cols, err = inspectCatalog(ctx, db, `SELECT ORDINAL_POSITION, COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_DEFAULT FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION`, table)
	case dialect.SQLite:
		cols, err = inspectPragma(ctx, db, table)
	default:
		cols, err = inspectCatalog(ctx, db, `SELECT ordinal_position, column_name, data_type, is_nullable, column_default FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = ? ORDER BY ordinal_position`, table)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query columns of %s: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: %s", database.ErrTableNotFound, table)
	}
	sort.SliceStable(cols, func(i, j int) bool {
		return cols[i].Position < cols[j].Position
	})
	return cols, nil
}

func inspectCatalog(ctx context.Context, db bun.IDB, query, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var cols []Column
	for rows.Next() {
		var (
			c        Column
			nullable string
		)
		if err := rows.Scan(&c.Position, &c.Name, &c.DataType, &nullable, &c.Default); err != nil {
			return nil, err
		}
		c.Nullable = strings.EqualFold(nullable, "YES")
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func inspectPragma(ctx context.Context, db bun.IDB, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(db, table)))
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var cols []Column
	for rows.Next() {
		var (
			c             Column
			cid, notnull  int
			primaryKeyPos int
		)
		if err := rows.Scan(&cid, &c.Name, &c.DataType, &notnull, &c.Default, &primaryKeyPos); err != nil {
			return nil, err
		}
		c.Position = cid + 1
		c.Nullable = notnull == 0
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// ColumnNames returns the names of cols, keeping their order.
func ColumnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether name is among cols, ignoring case.
func HasColumn(cols []Column, name string) bool {
	for _, c := range cols {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

// ListTables returns the base tables of the current schema sorted by name.
func ListTables(ctx context.Context, db bun.IDB) ([]string, error) {
	var query string
	switch db.Dialect().Name() {
	case dialect.MySQL:
		query = `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME`
	case dialect.SQLite:
		query = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	default:
		query = `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' ORDER BY table_name`
	}
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(tables)
	return tables, nil
}
