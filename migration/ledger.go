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
	"fmt"
	"time"

	"github.com/tomoncle/revistadb/database"
	"github.com/uptrace/bun"
)

// Record is one applied step in the ledger table.
type Record struct {
	bun.BaseModel `bun:"table:revistadb_migrations,alias:m"`

	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name,notnull"`
	Description string    `bun:"description"`
	AppliedAt   time.Time `bun:"applied_at,notnull"`
}

// Runner applies registry steps against one database handle.
type Runner struct {
	db       *bun.DB
	logger   database.Logger
	registry *Registry
	now      func() time.Time
}

func NewRunner(db *bun.DB, registry *Registry, logger database.Logger) *Runner {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if logger == nil {
		logger = database.GetLogger()
	}
	return &Runner{
		db:       db,
		logger:   logger,
		registry: registry,
		now:      time.Now,
	}
}

// Init creates the ledger table if it does not exist.
func (r *Runner) Init(ctx context.Context) error {
	if r.db == nil {
		return database.ErrNotConnected
	}
	_, err := r.db.NewCreateTable().
		Model((*Record)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// Run applies every pending step in version order and returns the ones it
// applied. It stops at the first failing step; that step's transaction is
// rolled back and it stays pending.
func (r *Runner) Run(ctx context.Context) ([]Step, error) {
	if err := r.Init(ctx); err != nil {
		return nil, err
	}
	var applied []Step
	for _, step := range r.registry.Steps() {
		done, err := r.apply(ctx, step)
		if err != nil {
			return applied, fmt.Errorf("failed to execute migration %s (%s): %w", step.Version, step.Name, err)
		}
		if done {
			applied = append(applied, step)
		}
	}
	r.logger.Info("Database migrations completed", "applied", len(applied))
	return applied, nil
}

func (r *Runner) apply(ctx context.Context, step Step) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*Record)(nil)).
		Where("version = ?", step.Version).
		Exists(ctx)
	if err != nil {
		return false, err
	}
	if exists {
		r.logger.Debug("Migration already applied", "version", step.Version, "name", step.Name)
		return false, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	var committed bool
	defer func(tx bun.Tx) {
		if !committed {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				r.logger.Error("Failed to rollback transaction", "version", step.Version, "error", rollbackErr)
			}
		}
	}(tx)

	if err := step.Up(ctx, tx); err != nil {
		return false, err
	}

	record := &Record{
		Version:     step.Version,
		Name:        step.Name,
		Description: step.Description,
		AppliedAt:   r.now().UTC(),
	}
	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	r.logger.Info("Migration executed successfully", "version", step.Version, "name", step.Name)
	return true, nil
}

// Applied returns the ledger ordered by version.
func (r *Runner) Applied(ctx context.Context) ([]Record, error) {
	if err := r.Init(ctx); err != nil {
		return nil, err
	}
	var records []Record
	err := r.db.NewSelect().
		Model(&records).
		Order("version ASC").
		Scan(ctx)
	return records, err
}

// Pending returns registered steps that the ledger does not list yet.
func (r *Runner) Pending(ctx context.Context) ([]Step, error) {
	records, err := r.Applied(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[string]struct{}, len(records))
	for _, rec := range records {
		done[rec.Version] = struct{}{}
	}
	var pending []Step
	for _, step := range r.registry.Steps() {
		if _, ok := done[step.Version]; !ok {
			pending = append(pending, step)
		}
	}
	return pending, nil
}
