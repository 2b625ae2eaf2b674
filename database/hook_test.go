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
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
)

type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingLogger) record(level, msg string, fields []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, fmt.Sprintf("%s %s %v", level, msg, fields))
}

func (l *recordingLogger) Debug(msg string, fields ...interface{}) { l.record("DEBUG", msg, fields) }
func (l *recordingLogger) Info(msg string, fields ...interface{})  { l.record("INFO", msg, fields) }
func (l *recordingLogger) Warn(msg string, fields ...interface{})  { l.record("WARN", msg, fields) }
func (l *recordingLogger) Error(msg string, fields ...interface{}) { l.record("ERROR", msg, fields) }

func TestIsMutation(t *testing.T) {
	for _, q := range []string{
		"ALTER TABLE articulos ADD COLUMN x TEXT",
		"  create table t (id int)",
		"INSERT INTO usuarios VALUES (1)",
		"drop table t",
	} {
		assert.True(t, isMutation(q), q)
	}
	for _, q := range []string{"SELECT 1", "PRAGMA table_info(t)", "WITH x AS (SELECT 1) SELECT * FROM x"} {
		assert.False(t, isMutation(q), q)
	}
}

func TestStatementHook(t *testing.T) {
	log := &recordingLogger{}
	hook := NewStatementHook(log)
	ctx := context.Background()

	hook.AfterQuery(ctx, &bun.QueryEvent{Query: "SELECT 1", StartTime: time.Now()})
	hook.AfterQuery(ctx, &bun.QueryEvent{Query: "ALTER TABLE articulos ADD COLUMN x TEXT", StartTime: time.Now()})
	hook.AfterQuery(ctx, &bun.QueryEvent{Query: "ALTER TABLE nope ADD COLUMN x TEXT", StartTime: time.Now(), Err: errors.New("no such table")})

	if assert.Len(t, log.entries, 2) {
		assert.Contains(t, log.entries[0], "INFO Statement executed")
		assert.Contains(t, log.entries[1], "ERROR Statement failed")
	}
}

func TestSlowQueryHook(t *testing.T) {
	log := &recordingLogger{}
	hook := &slowQueryHook{slowTime: 10 * time.Millisecond, logger: log}
	ctx := context.Background()

	hook.AfterQuery(ctx, &bun.QueryEvent{Query: "SELECT 1", StartTime: time.Now()})
	hook.AfterQuery(ctx, &bun.QueryEvent{Query: "SELECT 2", StartTime: time.Now().Add(-time.Second)})

	if assert.Len(t, log.entries, 1) {
		assert.Contains(t, log.entries[0], "WARN Database slow query detected")
		assert.Contains(t, log.entries[0], "SELECT 2")
	}
}

func TestToFields(t *testing.T) {
	f := toFields([]interface{}{"table", "articulos", "added", 2, "dangling"})
	assert.Equal(t, "articulos", f["table"])
	assert.Equal(t, 2, f["added"])
	assert.Equal(t, "dangling", f["extra"])
}
