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
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/revistadb/database"
)

var revistaRows = []string{
	`INSERT INTO usuarios (id, nombre) VALUES (1, 'Ana Ruiz'), (2, 'Luis Mora')`,
	`INSERT INTO articulos (id, titulo, usuario_id) VALUES
		(1, 'Higiene de manos', 1),
		(2, 'Manejo del dolor', 5),
		(3, 'Borrador sin autor', NULL),
		(4, 'Cuidados paliativos', 2)`,
}

func TestVerify_ClassifiesEveryRow(t *testing.T) {
	db := newSQLiteDB(t, append(revistaSchema, revistaRows...)...)

	v, err := Verify(context.Background(), db, Relationship{
		Table:          "articulos",
		Column:         "usuario_id",
		ReferenceTable: "usuarios",
		Label:          "titulo",
		ReferenceLabel: "nombre",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, v.Resolved)
	assert.Equal(t, 1, v.Orphaned)
	assert.Equal(t, 1, v.Unassigned)
	require.Len(t, v.References, 4)

	statuses := make([]ReferenceStatus, 0, len(v.References))
	for _, ref := range v.References {
		statuses = append(statuses, ref.Status)
	}
	assert.Equal(t, []ReferenceStatus{Resolved, Orphaned, Unassigned, Resolved}, statuses)

	assert.Equal(t, "Ana Ruiz", v.References[0].ReferenceLabel.String)
	assert.Equal(t, "Higiene de manos", v.References[0].Label.String)
	assert.False(t, v.References[2].ForeignKey.Valid)

	orphans := v.Orphans()
	require.Len(t, orphans, 1)
	assert.Equal(t, "2", orphans[0].Key)
	assert.Equal(t, "5", orphans[0].ForeignKey.String)
	assert.False(t, orphans[0].ReferenceLabel.Valid)
}

func TestVerify_EmptyTable(t *testing.T) {
	db := newSQLiteDB(t, revistaSchema...)

	v, err := Verify(context.Background(), db, Relationship{Table: "articulos", Column: "usuario_id", ReferenceTable: "usuarios"})
	require.NoError(t, err)
	assert.Empty(t, v.References)
	assert.Empty(t, v.Orphans())
}

func TestVerify_UnknownColumn(t *testing.T) {
	db := newSQLiteDB(t, revistaSchema...)

	_, err := Verify(context.Background(), db, Relationship{Table: "articulos", Column: "autor_id", ReferenceTable: "usuarios"})
	require.Error(t, err)
	assert.Equal(t, database.SchemaMismatchClass, database.Classify(err))
}

func TestVerify_PostgresQueryShape(t *testing.T) {
	db, mock := newPGMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT p."id", p."usuario_id", p."titulo", s."id", s."nombre" FROM "articulos" AS p LEFT JOIN "usuarios" AS s ON s."id" = p."usuario_id" ORDER BY p."id"`,
	)).WillReturnRows(mock.NewRows([]string{"id", "usuario_id", "titulo", "id", "nombre"}).
		AddRow(7, 5, "Manejo del dolor", nil, nil))

	v, err := Verify(context.Background(), db, Relationship{
		Table:          "articulos",
		Column:         "usuario_id",
		ReferenceTable: "usuarios",
		Label:          "titulo",
		ReferenceLabel: "nombre",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, v.Orphaned)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationship_Validate(t *testing.T) {
	ok := Relationship{Table: "articulos", Column: "usuario_id", ReferenceTable: "usuarios"}
	assert.NoError(t, ok.Validate())
	assert.Equal(t, "articulos.usuario_id -> usuarios.id", ok.withDefaults().String())

	bad := ok
	bad.Label = "titulo OR 1=1"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidIdentifier)
}

func TestRelationshipFromConfig(t *testing.T) {
	rel := RelationshipFromConfig(database.RelationshipConfig{
		Table:          "articulos",
		Column:         "usuario_id",
		ReferenceTable: "usuarios",
		Label:          "titulo",
	})
	assert.Equal(t, "id", rel.Key)
	assert.Equal(t, "id", rel.ReferenceColumn)
	assert.Equal(t, "titulo", rel.Label)
}
