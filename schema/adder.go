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
	"fmt"
	"strings"

	"github.com/tomoncle/revistadb/database"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// ColumnSpec is one additive column: name, SQL type and optional default
// expression. Type and Default are SQL fragments used verbatim.
type ColumnSpec struct {
	Name    string
	Type    string
	Default string
}

func (c ColumnSpec) String() string {
	if c.Default == "" {
		return c.Name + " " + c.Type
	}
	return c.Name + " " + c.Type + " DEFAULT " + c.Default
}

func (c ColumnSpec) validate() error {
	if err := ValidateIdent("column", c.Name); err != nil {
		return err
	}
	if strings.TrimSpace(c.Type) == "" {
		return fmt.Errorf("column %s: type cannot be empty", c.Name)
	}
	if hasStatementBreak(c.Type) || hasStatementBreak(c.Default) {
		return fmt.Errorf("column %s: type and default must be a single SQL fragment", c.Name)
	}
	return nil
}

// ParseColumnSpec parses "name:type[:default]". The default keeps any further
// colons, so casts such as '{}'::text[] survive.
func ParseColumnSpec(s string) (ColumnSpec, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return ColumnSpec{}, fmt.Errorf("column spec %q: want name:type[:default]", s)
	}
	spec := ColumnSpec{
		Name: strings.TrimSpace(parts[0]),
		Type: strings.TrimSpace(parts[1]),
	}
	if len(parts) == 3 {
		spec.Default = strings.TrimSpace(parts[2])
	}
	if err := spec.validate(); err != nil {
		return ColumnSpec{}, err
	}
	return spec, nil
}

// SpecsFromConfig converts configured column triples.
func SpecsFromConfig(cols []database.ColumnConfig) []ColumnSpec {
	specs := make([]ColumnSpec, len(cols))
	for i, c := range cols {
		specs[i] = ColumnSpec{Name: c.Name, Type: c.Type, Default: c.Default}
	}
	return specs
}

// ColumnOutcome tells what AddColumns did for one spec.
type ColumnOutcome string

const (
	ColumnAdded   ColumnOutcome = "added"
	ColumnPresent ColumnOutcome = "present"
)

type ColumnChange struct {
	Spec      ColumnSpec
	Outcome   ColumnOutcome
	Statement string
}

// AddResult holds the per-column outcome and the table shape afterwards.
type AddResult struct {
	Table   string
	Changes []ColumnChange
	Columns []Column
}

// Added counts the columns created by this run.
func (r *AddResult) Added() int {
	n := 0
	for _, c := range r.Changes {
		if c.Outcome == ColumnAdded {
			n++
		}
	}
	return n
}

// AddColumns applies each spec as an idempotent ADD COLUMN and returns the
// re-inspected table. PostgreSQL gets ADD COLUMN IF NOT EXISTS for every spec;
// dialects without that clause skip columns already in the catalog. The first
// failing statement aborts the run; earlier statements are not undone.
func AddColumns(ctx context.Context, db bun.IDB, table string, specs []ColumnSpec) (*AddResult, error) {
	if err := ValidateIdent("table", table); err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("no columns given for %s", table)
	}
	seen := make(map[string]struct{}, len(specs))
	for _, s := range specs {
		if err := s.validate(); err != nil {
			return nil, err
		}
		key := strings.ToLower(s.Name)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("column %s listed twice", s.Name)
		}
		seen[key] = struct{}{}
	}

	existing, err := Inspect(ctx, db, table)
	if err != nil {
		return nil, err
	}

	ifNotExists := db.Dialect().Name() == dialect.PG
	result := &AddResult{Table: table}
	for _, spec := range specs {
		present := HasColumn(existing, spec.Name)
		change := ColumnChange{Spec: spec, Outcome: ColumnAdded}
		if present {
			change.Outcome = ColumnPresent
		}
		if present && !ifNotExists {
			result.Changes = append(result.Changes, change)
			continue
		}
		change.Statement = buildAddColumnSQL(db, table, spec, ifNotExists)
		if _, err := db.ExecContext(ctx, change.Statement); err != nil {
			return nil, fmt.Errorf("failed to add column %s.%s: %w", table, spec.Name, err)
		}
		result.Changes = append(result.Changes, change)
	}

	result.Columns, err = Inspect(ctx, db, table)
	if err != nil {
		return nil, err
	}
	for _, spec := range specs {
		if !HasColumn(result.Columns, spec.Name) {
			return nil, fmt.Errorf("%w: %s.%s after ADD COLUMN", database.ErrColumnNotFound, table, spec.Name)
		}
	}
	return result, nil
}

func buildAddColumnSQL(db bun.IDB, table string, c ColumnSpec, ifNotExists bool) string {
	clause := "ADD COLUMN"
	if ifNotExists {
		clause += " IF NOT EXISTS"
	}
	def := ""
	if c.Default != "" {
		def = " DEFAULT " + c.Default
	}
	return fmt.Sprintf("ALTER TABLE %s %s %s %s%s", quoteIdent(db, table), clause, quoteIdent(db, c.Name), c.Type, def)
}
