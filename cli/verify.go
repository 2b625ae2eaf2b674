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
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tomoncle/revistadb/database"
	"github.com/tomoncle/revistadb/schema"
)

// ErrOrphanedReferences is returned by verify --fail-on-orphans.
var ErrOrphanedReferences = errors.New("orphaned references found")

func newVerifyCommand(a *app) *cobra.Command {
	var (
		all           bool
		failOnOrphans bool
		rel           schema.Relationship
	)
	cmd := &cobra.Command{
		Use:   "verify [table column reference_table]",
		Short: "Report rows whose foreign key has no matching referenced row",
		Long: `Left-join a table to the table it references and classify every row:
resolved when the key matches, orphaned when it does not and unassigned
when the key is NULL. Nothing is repaired.

Examples:
  revistadb verify articulos usuario_id usuarios --label titulo --ref-label nombre
  revistadb verify --all                # every relationship of the config file
  revistadb verify --all --fail-on-orphans`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rels, err := a.relationships(all, args, rel)
			if err != nil {
				return err
			}
			orphaned := 0
			err = a.withManager(cmd.Context(), func(m *database.Manager) error {
				for _, r := range rels {
					v, err := schema.Verify(cmd.Context(), m.DB(), r)
					if err != nil {
						return err
					}
					if err := a.printVerification(v); err != nil {
						return err
					}
					orphaned += v.Orphaned
				}
				return nil
			})
			if err != nil {
				return err
			}
			if failOnOrphans && orphaned > 0 {
				return fmt.Errorf("%w: %d", ErrOrphanedReferences, orphaned)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&all, "all", false, "verify every relationship of the config file")
	f.BoolVar(&failOnOrphans, "fail-on-orphans", false, "exit with an error when orphans are found")
	f.StringVar(&rel.ReferenceColumn, "ref-column", "id", "referenced column")
	f.StringVar(&rel.Key, "key", "id", "key column of the primary table")
	f.StringVar(&rel.Label, "label", "", "label column of the primary table")
	f.StringVar(&rel.ReferenceLabel, "ref-label", "", "label column of the referenced table")
	return cmd
}

func (a *app) relationships(all bool, args []string, flags schema.Relationship) ([]schema.Relationship, error) {
	if all {
		if len(args) > 0 {
			return nil, errors.New("--all takes no arguments")
		}
		if len(a.cfg.Relationships) == 0 {
			return nil, errors.New("no relationships configured")
		}
		rels := make([]schema.Relationship, 0, len(a.cfg.Relationships))
		for _, c := range a.cfg.Relationships {
			rels = append(rels, schema.RelationshipFromConfig(c))
		}
		return rels, nil
	}
	if len(args) != 3 {
		return nil, errors.New("verify needs table, column and reference_table, or --all")
	}
	flags.Table, flags.Column, flags.ReferenceTable = args[0], args[1], args[2]
	return []schema.Relationship{flags}, nil
}

func (a *app) printVerification(v *schema.Verification) error {
	rel := v.Relationship
	a.printer.Section(MarkRelationship, "%s (%d rows)", a.printer.Bold(rel.String()), len(v.References))

	t := NewTable(a.printer.Out(), []string{rel.Key, rel.Column, "LABEL", "REFERENCE", "STATUS"})
	for _, ref := range v.References {
		t.AddRow(ref.Key, nullText(ref.ForeignKey), nullText(ref.Label), nullText(ref.ReferenceLabel), string(ref.Status))
	}
	if err := t.Render(); err != nil {
		return fmt.Errorf("failed to render references: %w", err)
	}

	for _, ref := range v.Orphans() {
		a.printer.Warning("%s %s=%s references missing %s.%s=%s",
			rel.Table, rel.Key, ref.Key, rel.ReferenceTable, rel.ReferenceColumn, ref.ForeignKey.String)
	}
	summary := fmt.Sprintf("%d resolved, %d orphaned, %d unassigned", v.Resolved, v.Orphaned, v.Unassigned)
	if v.Orphaned > 0 {
		a.printer.Warning("%s", summary)
	} else {
		a.printer.Success("%s", summary)
	}
	return nil
}

func nullText(s sql.NullString) string {
	if !s.Valid {
		return "NULL"
	}
	return s.String
}
