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
	"sort"
	"sync"

	"github.com/uptrace/bun"
)

// StepFunc runs inside the transaction that also records the step.
type StepFunc func(ctx context.Context, db bun.IDB) error

// Step is one versioned migration. Versions sort as strings, so they are
// zero padded ("001", "002").
type Step struct {
	Version     string
	Name        string
	Description string
	Up          StepFunc
}

// Registry keeps steps and returns them in ascending version order.
type Registry struct {
	mu    sync.RWMutex
	steps map[string]Step
}

func NewRegistry() *Registry {
	return &Registry{steps: make(map[string]Step)}
}

// Register adds a step. Versions must be unique and Up must be set.
func (r *Registry) Register(step Step) error {
	if step.Version == "" {
		return fmt.Errorf("migration step %q has no version", step.Name)
	}
	if step.Up == nil {
		return fmt.Errorf("migration step %s has no Up function", step.Version)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.steps[step.Version]; ok {
		return fmt.Errorf("migration version %s registered twice (%s, %s)", step.Version, prev.Name, step.Name)
	}
	r.steps[step.Version] = step
	return nil
}

// MustRegister is Register for init-time registration.
func (r *Registry) MustRegister(step Step) {
	if err := r.Register(step); err != nil {
		panic(err)
	}
}

func (r *Registry) Steps() []Step {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Step, 0, len(r.steps))
	for _, s := range r.steps {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Version < result[j].Version
	})
	return result
}

var defaultRegistry = NewRegistry()

// DefaultRegistry holds the built-in editorial steps.
func DefaultRegistry() *Registry {
	return defaultRegistry
}
