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
	"github.com/spf13/cobra"
	"github.com/tomoncle/revistadb/database"
	"github.com/tomoncle/revistadb/migration"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema steps and inspect the touched tables",
		Long: `Apply every built-in schema step that the ledger table does not list yet.
Each step runs in its own transaction together with its ledger row; a failing
step is rolled back and stays pending.

Examples:
  revistadb migrate
  revistadb migrate --query-log`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(cmd.Context(), func(m *database.Manager) error {
				runner := migration.NewRunner(m.DB(), migration.DefaultRegistry(), a.logger)
				applied, err := runner.Run(cmd.Context())
				for _, s := range applied {
					a.printer.Success("Applied %s %s", s.Version, s.Name)
				}
				if err != nil {
					return err
				}
				if len(applied) == 0 {
					a.printer.Success("Database schema is up to date")
				}
				for _, t := range migration.Tables() {
					if err := a.inspectTable(cmd.Context(), m.DB(), t); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending schema steps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(cmd.Context(), func(m *database.Manager) error {
				runner := migration.NewRunner(m.DB(), migration.DefaultRegistry(), a.logger)
				applied, err := runner.Applied(cmd.Context())
				if err != nil {
					return err
				}
				pending, err := runner.Pending(cmd.Context())
				if err != nil {
					return err
				}

				a.printer.Section(MarkMigration, "Schema steps")
				t := NewTable(a.printer.Out(), []string{"VERSION", "NAME", "STATE", "APPLIED AT"})
				for _, r := range applied {
					t.AddRow(r.Version, r.Name, "applied", r.AppliedAt.Format("2006-01-02 15:04:05"))
				}
				for _, s := range pending {
					t.AddRow(s.Version, s.Name, "pending", "")
				}
				if err := t.Render(); err != nil {
					return err
				}
				if len(pending) > 0 {
					a.printer.Warning("%d pending step(s), run: revistadb migrate", len(pending))
				} else {
					a.printer.Success("Database schema is up to date")
				}
				return nil
			})
		},
	}
}
