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

	"github.com/tomoncle/revistadb/schema"
	"github.com/uptrace/bun"
)

func init() {
	defaultRegistry.MustRegister(Step{
		Version:     "001",
		Name:        "articulos_palabras_clave",
		Description: "Add keyword array to articulos",
		Up: addColumnsStep("articulos", schema.ColumnSpec{
			Name: "palabras_clave", Type: "TEXT[]", Default: "'{}'",
		}),
	})
	defaultRegistry.MustRegister(Step{
		Version:     "002",
		Name:        "articulos_area_tematica",
		Description: "Add thematic area to articulos",
		Up: addColumnsStep("articulos", schema.ColumnSpec{
			Name: "area_tematica", Type: "TEXT", Default: "'cuidados-enfermeria'",
		}),
	})
}

// addColumnsStep wraps the column adder so a step stays safe to re-run even
// when the ledger row is missing.
func addColumnsStep(table string, specs ...schema.ColumnSpec) StepFunc {
	return func(ctx context.Context, db bun.IDB) error {
		_, err := schema.AddColumns(ctx, db, table, specs)
		return err
	}
}

// Tables lists the tables touched by the built-in steps, in first-use order.
func Tables() []string {
	return []string{"articulos"}
}
