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
	"net"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil", nil, UnknownClass},
		{"table sentinel", fmt.Errorf("inspect: %w", ErrTableNotFound), SchemaMismatchClass},
		{"column sentinel", ErrColumnNotFound, SchemaMismatchClass},
		{"not connected", ErrNotConnected, ConnectionClass},
		{"pq undefined table", &pq.Error{Code: "42P01", Message: `relation "articulos" does not exist`}, SchemaMismatchClass},
		{"pq undefined column", fmt.Errorf("wrapped: %w", &pq.Error{Code: "42703"}), SchemaMismatchClass},
		{"pq auth failed", &pq.Error{Code: "28P01"}, ConnectionClass},
		{"pq unknown database", &pq.Error{Code: "3D000"}, ConnectionClass},
		{"pq connection failure", &pq.Error{Code: "08006"}, ConnectionClass},
		{"pq syntax error", &pq.Error{Code: "42601"}, QueryClass},
		{"mysql access denied", &mysql.MySQLError{Number: 1045, Message: "Access denied"}, ConnectionClass},
		{"mysql unknown table", &mysql.MySQLError{Number: 1146}, SchemaMismatchClass},
		{"mysql duplicate column", &mysql.MySQLError{Number: 1060}, QueryClass},
		{"dial", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connect: connection refused")}, ConnectionClass},
		{"dns", fmt.Errorf("ping: %w", &net.DNSError{Name: "db.invalid", Err: "no such host"}), ConnectionClass},
		{"sqlite missing table", errors.New("SQL logic error: no such table: articulos (1)"), SchemaMismatchClass},
		{"refused text", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), ConnectionClass},
		{"anything else", context.Canceled, QueryClass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestErrorClass_String(t *testing.T) {
	assert.Equal(t, "connection", ConnectionClass.String())
	assert.Equal(t, "query", QueryClass.String())
	assert.Equal(t, "schema-mismatch", SchemaMismatchClass.String())
	assert.Equal(t, "unknown", UnknownClass.String())
}
