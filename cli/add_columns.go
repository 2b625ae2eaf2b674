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
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tomoncle/revistadb/database"
	"github.com/tomoncle/revistadb/schema"
)

type columnPlan struct {
	table string
	specs []schema.ColumnSpec
}

func newAddColumnsCommand(a *app) *cobra.Command {
	var (
		columns  []string
		planFile string
	)
	cmd := &cobra.Command{
		Use:   "add-columns [table]",
		Short: "Add columns to a table unless they already exist",
		Long: `Add one or more columns to a table. Columns that already exist are left
untouched, so the command can be repeated safely. The table is inspected
again afterwards and its columns are printed.

Columns come from --column name:type[:default] flags, from a --plan YAML file,
or, with neither, from the column_plans section of the config file.

Examples:
  revistadb add-columns articulos --column palabras_clave:"TEXT[]":"'{}'"
  revistadb add-columns articulos --column area_tematica:TEXT:"'cuidados-enfermeria'"
  revistadb add-columns --plan configs/plans/articulos.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plans, err := a.columnPlans(args, columns, planFile)
			if err != nil {
				return err
			}
			return a.withManager(cmd.Context(), func(m *database.Manager) error {
				for _, p := range plans {
					a.printer.Section(MarkMigration, "Adding %d column(s) to %s", len(p.specs), a.printer.Bold(p.table))
					res, err := schema.AddColumns(cmd.Context(), m.DB(), p.table, p.specs)
					if err != nil {
						return err
					}
					for _, c := range res.Changes {
						if c.Outcome == schema.ColumnAdded {
							a.printer.Success("Column %s.%s ready (%s)", p.table, c.Spec.Name, c.Spec)
						} else {
							a.printer.Success("Column %s.%s already exists", p.table, c.Spec.Name)
						}
					}
					a.printer.Section(MarkInspect, "Columns of %s (%d)", a.printer.Bold(p.table), len(res.Columns))
					if err := a.renderColumns(res.Columns); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVarP(&columns, "column", "c", nil, "column as name:type[:default], repeatable")
	cmd.Flags().StringVar(&planFile, "plan", "", "YAML file holding one plan or a column_plans list")
	return cmd
}

func (a *app) columnPlans(args, columns []string, planFile string) ([]columnPlan, error) {
	switch {
	case len(columns) > 0:
		if len(args) != 1 {
			return nil, errors.New("--column needs the table as argument")
		}
		if planFile != "" {
			return nil, errors.New("--column and --plan cannot be combined")
		}
		specs := make([]schema.ColumnSpec, 0, len(columns))
		for _, c := range columns {
			spec, err := schema.ParseColumnSpec(c)
			if err != nil {
				return nil, err
			}
			specs = append(specs, spec)
		}
		return []columnPlan{{table: args[0], specs: specs}}, nil
	case planFile != "":
		configured, err := database.LoadColumnPlans(planFile)
		if err != nil {
			return nil, err
		}
		return selectPlans(configured, args)
	default:
		if len(a.cfg.ColumnPlans) == 0 {
			return nil, errors.New("no columns given: use --column, --plan or column_plans in the config file")
		}
		return selectPlans(a.cfg.ColumnPlans, args)
	}
}

// selectPlans converts configured plans, keeping only the named table when
// one is given.
func selectPlans(configured []database.ColumnPlanConfig, args []string) ([]columnPlan, error) {
	var plans []columnPlan
	for _, c := range configured {
		if len(args) == 1 && c.Table != args[0] {
			continue
		}
		plans = append(plans, columnPlan{table: c.Table, specs: schema.SpecsFromConfig(c.Columns)})
	}
	if len(plans) == 0 && len(args) == 1 {
		return nil, fmt.Errorf("no column plan for table %s", args[0])
	}
	if len(plans) == 0 {
		return nil, errors.New("no column plans configured")
	}
	return plans, nil
}
