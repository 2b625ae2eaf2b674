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

package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tomoncle/revistadb/database"
	"github.com/tomoncle/revistadb/schema"
	"github.com/uptrace/bun"
)

func newInspectCommand(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "inspect [table...]",
		Short: "List the columns of one or more tables",
		Long: `List every column of a table with its type, nullability and default,
in ordinal order.

Examples:
  revistadb inspect articulos
  revistadb inspect articulos usuarios
  revistadb inspect --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return errors.New("inspect needs at least one table or --all")
			}
			return a.withManager(cmd.Context(), func(m *database.Manager) error {
				db := m.DB()
				tables := args
				if all {
					var err error
					if tables, err = schema.ListTables(cmd.Context(), db); err != nil {
						return err
					}
					a.printer.Info("Found %d tables", len(tables))
				}
				for _, t := range tables {
					if err := a.inspectTable(cmd.Context(), db, t); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "inspect every table of the current schema")
	return cmd
}

func (a *app) inspectTable(ctx context.Context, db bun.IDB, table string) error {
	cols, err := schema.Inspect(ctx, db, table)
	if err != nil {
		return err
	}
	a.printer.Section(MarkInspect, "Columns of %s (%d)", a.printer.Bold(table), len(cols))
	return a.renderColumns(cols)
}

func (a *app) renderColumns(cols []schema.Column) error {
	t := NewTable(a.printer.Out(), []string{"#", "COLUMN", "TYPE", "NULLABLE", "DEFAULT"})
	for _, c := range cols {
		t.AddRow(strconv.Itoa(c.Position), c.Name, c.DataType, yesNo(c.Nullable), c.DefaultString())
	}
	if err := t.Render(); err != nil {
		return fmt.Errorf("failed to render columns: %w", err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
