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

package database

import (
	"context"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// StatementHook logs every statement that is not a plain read, so schema
// changes leave a trail even when the query log is off.
type StatementHook struct {
	logger Logger
}

var _ bun.QueryHook = (*StatementHook)(nil)

func NewStatementHook(logger Logger) *StatementHook {
	return &StatementHook{logger: logger}
}

func (h *StatementHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *StatementHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if h.logger == nil || !isMutation(event.Query) {
		return
	}
	dur := time.Since(event.StartTime).Round(time.Microsecond)
	if event.Err != nil {
		h.logger.Error("Statement failed", "duration", dur, "query", event.Query, "error", event.Err)
		return
	}
	h.logger.Info("Statement executed", "duration", dur, "query", event.Query)
}

func isMutation(query string) bool {
	q := strings.ToUpper(strings.TrimSpace(query))
	for _, prefix := range []string{"ALTER", "CREATE", "DROP", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(q, prefix) {
			return true
		}
	}
	return false
}

type slowQueryHook struct {
	slowTime time.Duration
	logger   Logger
}

func (h *slowQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *slowQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if event.Err != nil || h.logger == nil {
		return
	}
	duration := time.Since(event.StartTime)
	if duration > h.slowTime {
		h.logger.Warn("Database slow query detected ⚠️",
			"duration", duration,
			"slow_threshold", h.slowTime,
			"query", event.Query,
		)
	}
}
