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

package migration

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/revistadb/database"
	"github.com/tomoncle/revistadb/schema"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newSQLiteDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, filepath.Join(t.TempDir(), "revista.db"))
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(context.Background(), `CREATE TABLE articulos (id INTEGER PRIMARY KEY, titulo TEXT NOT NULL)`)
	require.NoError(t, err)
	return db
}

func editorialRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	r.MustRegister(Step{
		Version: "001",
		Name:    "articulos_resumen",
		Up:      addColumnsStep("articulos", schema.ColumnSpec{Name: "resumen", Type: "TEXT"}),
	})
	r.MustRegister(Step{
		Version: "002",
		Name:    "articulos_area_tematica",
		Up: addColumnsStep("articulos", schema.ColumnSpec{
			Name: "area_tematica", Type: "TEXT", Default: "'cuidados-enfermeria'",
		}),
	})
	return r
}

func TestRunner_AppliesPendingStepsOnce(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	runner := NewRunner(db, editorialRegistry(t), database.NopLogger{})
	runner.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }

	pending, err := runner.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	applied, err := runner.Run(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 2)
	assert.Equal(t, "001", applied[0].Version)
	assert.Equal(t, "002", applied[1].Version)

	cols, err := schema.Inspect(ctx, db, "articulos")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "titulo", "resumen", "area_tematica"}, schema.ColumnNames(cols))

	again, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)

	records, err := runner.Applied(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "001", records[0].Version)
	assert.Equal(t, "articulos_area_tematica", records[1].Name)
	assert.True(t, records[0].AppliedAt.Equal(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)))

	pending, err = runner.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRunner_StepsSurviveMissingLedgerRows(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	_, err := db.ExecContext(ctx, `ALTER TABLE articulos ADD COLUMN resumen TEXT`)
	require.NoError(t, err)

	applied, err := NewRunner(db, editorialRegistry(t), database.NopLogger{}).Run(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, 2)
}

func TestRunner_FailingStepIsRolledBack(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	boom := errors.New("boom")

	r := NewRegistry()
	r.MustRegister(Step{
		Version: "001",
		Name:    "articulos_resumen",
		Up:      addColumnsStep("articulos", schema.ColumnSpec{Name: "resumen", Type: "TEXT"}),
	})
	r.MustRegister(Step{
		Version: "002",
		Name:    "revisiones",
		Up: func(ctx context.Context, db bun.IDB) error {
			if _, err := db.ExecContext(ctx, `CREATE TABLE revisiones (id INTEGER PRIMARY KEY)`); err != nil {
				return err
			}
			return boom
		},
	})
	r.MustRegister(Step{Version: "003", Name: "never", Up: noop})
	runner := NewRunner(db, r, database.NopLogger{})

	applied, err := runner.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "002")
	require.Len(t, applied, 1)
	assert.Equal(t, "001", applied[0].Version)

	tables, err := schema.ListTables(ctx, db)
	require.NoError(t, err)
	assert.NotContains(t, tables, "revisiones")

	pending, err := runner.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "002", pending[0].Version)
	assert.Equal(t, "003", pending[1].Version)
}

func TestRunner_NotConnected(t *testing.T) {
	_, err := NewRunner(nil, NewRegistry(), database.NopLogger{}).Run(context.Background())
	assert.ErrorIs(t, err, database.ErrNotConnected)
}
