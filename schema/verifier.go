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

	"github.com/tomoncle/revistadb/database"
	"github.com/uptrace/bun"
)

// Relationship links Table.Column to ReferenceTable.ReferenceColumn. Key
// orders and identifies primary rows; the labels are optional columns
// printed next to each row (e.g. articulos.titulo, usuarios.nombre).
type Relationship struct {
	Table           string
	Column          string
	ReferenceTable  string
	ReferenceColumn string
	Key             string
	Label           string
	ReferenceLabel  string
}

// RelationshipFromConfig converts a configured relationship and fills in
// the "id" defaults.
func RelationshipFromConfig(c database.RelationshipConfig) Relationship {
	return Relationship{
		Table:           c.Table,
		Column:          c.Column,
		ReferenceTable:  c.ReferenceTable,
		ReferenceColumn: c.ReferenceColumn,
		Key:             c.Key,
		Label:           c.Label,
		ReferenceLabel:  c.ReferenceLabel,
	}.withDefaults()
}

func (r Relationship) withDefaults() Relationship {
	if r.Key == "" {
		r.Key = "id"
	}
	if r.ReferenceColumn == "" {
		r.ReferenceColumn = "id"
	}
	return r
}

func (r Relationship) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", r.Table, r.Column, r.ReferenceTable, r.ReferenceColumn)
}

// Validate checks every identifier of the relationship.
func (r Relationship) Validate() error {
	r = r.withDefaults()
	checks := []struct{ kind, name string }{
		{"table", r.Table},
		{"column", r.Column},
		{"reference table", r.ReferenceTable},
		{"reference column", r.ReferenceColumn},
		{"key", r.Key},
	}
	if r.Label != "" {
		checks = append(checks, struct{ kind, name string }{"label", r.Label})
	}
	if r.ReferenceLabel != "" {
		checks = append(checks, struct{ kind, name string }{"reference label", r.ReferenceLabel})
	}
	for _, c := range checks {
		if err := ValidateIdent(c.kind, c.name); err != nil {
			return fmt.Errorf("relationship %s: %w", r, err)
		}
	}
	return nil
}

type ReferenceStatus string

const (
	// Resolved: the foreign key matches a referenced row.
	Resolved ReferenceStatus = "resolved"
	// Orphaned: the foreign key is set but nothing matches it.
	Orphaned ReferenceStatus = "orphaned"
	// Unassigned: the foreign key is NULL.
	Unassigned ReferenceStatus = "unassigned"
)

// Reference is one primary row with the outcome of its join.
type Reference struct {
	Key            string
	ForeignKey     sql.NullString
	Label          sql.NullString
	ReferenceLabel sql.NullString
	Status         ReferenceStatus
}

// Verification is the outcome of Verify for one relationship.
type Verification struct {
	Relationship Relationship
	References   []Reference
	Resolved     int
	Orphaned     int
	Unassigned   int
}

// Orphans returns only the orphaned references.
func (v *Verification) Orphans() []Reference {
	var out []Reference
	for _, ref := range v.References {
		if ref.Status == Orphaned {
			out = append(out, ref)
		}
	}
	return out
}

// Verify left-joins the primary table to the referenced one and classifies
// every primary row. Nothing is repaired.
func Verify(ctx context.Context, db bun.IDB, rel Relationship) (*Verification, error) {
	rel = rel.withDefaults()
	if err := rel.Validate(); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, buildVerifySQL(db, rel))
	if err != nil {
		return nil, fmt.Errorf("failed to join %s: %w", rel, err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	v := &Verification{Relationship: rel}
	for rows.Next() {
		var (
			ref     Reference
			key     sql.NullString
			matched sql.NullString
		)
		if err := rows.Scan(&key, &ref.ForeignKey, &ref.Label, &matched, &ref.ReferenceLabel); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", rel, err)
		}
		ref.Key = key.String
		switch {
		case !ref.ForeignKey.Valid:
			ref.Status = Unassigned
			v.Unassigned++
		case matched.Valid:
			ref.Status = Resolved
			v.Resolved++
		default:
			ref.Status = Orphaned
			v.Orphaned++
		}
		v.References = append(v.References, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rel, err)
	}
	return v, nil
}

func buildVerifySQL(db bun.IDB, rel Relationship) string {
	q := func(s string) string { return quoteIdent(db, s) }
	label := "NULL"
	if rel.Label != "" {
		label = "p." + q(rel.Label)
	}
	refLabel := "NULL"
	if rel.ReferenceLabel != "" {
		refLabel = "s." + q(rel.ReferenceLabel)
	}
	return fmt.Sprintf(
		"SELECT p.%s, p.%s, %s, s.%s, %s FROM %s AS p LEFT JOIN %s AS s ON s.%s = p.%s ORDER BY p.%s",
		q(rel.Key), q(rel.Column), label, q(rel.ReferenceColumn), refLabel,
		q(rel.Table), q(rel.ReferenceTable), q(rel.ReferenceColumn), q(rel.Column), q(rel.Key),
	)
}
