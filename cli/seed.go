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
	"time"

	"github.com/spf13/cobra"
	"github.com/tomoncle/revistadb/database"
	"github.com/tomoncle/revistadb/seed"
	"github.com/tomoncle/revistadb/utils"
)

func newSeedCommand(a *app) *cobra.Command {
	var (
		env  string
		path string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load SQL fixture files",
		Long: `Execute the *.sql files of <path>/common and <path>/<env> in numeric
prefix order. ${VAR} placeholders are replaced from the environment.

Examples:
  revistadb seed
  revistadb seed --env test --path configs/sql`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if env == "" {
				env = a.cfg.Migrate.Environment
			}
			if path == "" {
				path = a.cfg.Migrate.SeedPath
			}
			return a.withManager(cmd.Context(), func(m *database.Manager) error {
				a.printer.Section(MarkMigration, "Loading fixtures from %s (%s)", path, env)
				results, err := seed.NewLoader(m.DB(), path, env, a.logger).Run(cmd.Context())
				for _, r := range results {
					if r.Err != nil {
						a.printer.Error("%s: %v", r.File, r.Err)
						continue
					}
					a.printer.Success("%s: %d statement(s), %d row(s) in %s", r.File, r.Statements, r.RowsAffected, r.Duration.Round(time.Millisecond))
				}
				if err != nil {
					return err
				}
				if len(results) == 0 {
					a.printer.Warning("No SQL files found")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&env, "env", utils.EnvDefaultString("REVISTADB_ENV", ""), "fixture environment directory")
	cmd.Flags().StringVar(&path, "path", "", "fixture root directory")
	return cmd
}
