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
	"errors"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

var (
	// ErrTableNotFound reports that an expected table has no columns in the
	// catalog.
	ErrTableNotFound = errors.New("table not found")
	// ErrColumnNotFound reports that an expected column is absent.
	ErrColumnNotFound = errors.New("column not found")
	// ErrNotConnected is returned by Manager methods used before Open.
	ErrNotConnected = errors.New("database not connected")
)

// ErrorClass groups failures the way operators triage them. The CLI handles
// every class the same way; the class only enriches the log line.
type ErrorClass int

const (
	UnknownClass ErrorClass = iota
	ConnectionClass
	QueryClass
	SchemaMismatchClass
)

func (c ErrorClass) String() string {
	switch c {
	case ConnectionClass:
		return "connection"
	case QueryClass:
		return "query"
	case SchemaMismatchClass:
		return "schema-mismatch"
	default:
		return "unknown"
	}
}

// Classify maps a driver or package error to its ErrorClass.
func Classify(err error) ErrorClass {
	if err == nil {
		return UnknownClass
	}
	if errors.Is(err, ErrTableNotFound) || errors.Is(err, ErrColumnNotFound) {
		return SchemaMismatchClass
	}
	if errors.Is(err, ErrNotConnected) {
		return ConnectionClass
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "28", "3D":
			return ConnectionClass
		}
		switch pqErr.Code {
		case "42P01", "42703":
			return SchemaMismatchClass
		}
		return QueryClass
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1044, 1045, 1049:
			return ConnectionClass
		case 1146, 1054:
			return SchemaMismatchClass
		default:
			return QueryClass
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ConnectionClass
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ConnectionClass
	}

	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "connection refused"),
		strings.Contains(s, "password authentication failed"),
		strings.Contains(s, "no such host"),
		strings.Contains(s, "i/o timeout"):
		return ConnectionClass
	case strings.Contains(s, "no such table"),
		strings.Contains(s, "no such column"),
		strings.Contains(s, "does not exist") && (strings.Contains(s, "relation") || strings.Contains(s, "column")):
		return SchemaMismatchClass
	}
	return QueryClass
}
