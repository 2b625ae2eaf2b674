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
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

var supportedTypes = []string{"postgres", "postgresql", "mysql", "sqlite", "sqlite3"}

// Manager owns one connection pool for the lifetime of a single command.
// It is not shared between commands; callers pass DB() to each operation.
type Manager struct {
	config *ConnectionConfig
	logger Logger

	mu    sync.RWMutex
	db    *bun.DB
	sqlDB *sql.DB
}

// NewManager validates the config and returns an unconnected manager.
func NewManager(cfg *ConnectionConfig, logger Logger) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	supported := false
	for _, t := range supportedTypes {
		if strings.EqualFold(cfg.Type, t) {
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("unsupported database type: %s, supported types: %v", cfg.Type, supportedTypes)
	}
	if logger == nil {
		logger = GetLogger()
	}
	return &Manager{config: cfg, logger: logger}, nil
}

// Open creates the pool and pings it within the configured connect timeout.
// On ping failure the pool is closed before returning.
func (m *Manager) Open(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		return nil
	}

	sqlDB, db, err := m.createConnection()
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	m.configureConnectionPool(sqlDB)

	timeout := m.config.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectionConfig().ConnectTimeout
	}
	ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(ctxTimeout); err != nil {
		_ = db.Close()
		return fmt.Errorf("database connection test failed: %w", err)
	}

	m.db = db
	m.sqlDB = sqlDB
	m.logger.Debug("Database connected", "type", m.config.Type, "host", m.config.Host, "dbname", m.config.DBName)
	return nil
}

// Attach wraps an already opened *sql.DB, used by tests and by callers that
// manage their own driver.
func (m *Manager) Attach(sqlDB *sql.DB) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sqlDB = sqlDB
	m.db = m.wrap(sqlDB)
}

func (m *Manager) createConnection() (*sql.DB, *bun.DB, error) {
	var (
		driverName string
		dsn        string
	)
	switch strings.ToLower(m.config.Type) {
	case "postgres", "postgresql":
		driverName, dsn = "postgres", m.postgresDSN()
	case "mysql":
		driverName, dsn = "mysql", m.mysqlDSN()
	case "sqlite", "sqlite3":
		driverName, dsn = sqliteshim.ShimName, m.sqliteDSN()
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", m.config.Type)
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, nil, err
	}
	return sqlDB, m.wrap(sqlDB), nil
}

func (m *Manager) wrap(sqlDB *sql.DB) *bun.DB {
	var db *bun.DB
	switch strings.ToLower(m.config.Type) {
	case "mysql":
		db = bun.NewDB(sqlDB, mysqldialect.New())
	case "sqlite", "sqlite3":
		db = bun.NewDB(sqlDB, sqlitedialect.New())
	default:
		db = bun.NewDB(sqlDB, pgdialect.New())
	}

	if m.config.EnableQueryLog {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}
	db.AddQueryHook(NewStatementHook(m.logger))
	if m.config.SlowQueryTime > 0 {
		db.AddQueryHook(&slowQueryHook{
			slowTime: m.config.SlowQueryTime,
			logger:   m.logger,
		})
	}
	return db
}

func (m *Manager) postgresDSN() string {
	sslMode := m.config.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(m.config.Username, m.config.Password),
		Host:   fmt.Sprintf("%s:%d", m.config.Host, m.config.Port),
		Path:   "/" + m.config.DBName,
	}
	q := url.Values{}
	q.Set("sslmode", sslMode)
	if secs := int(m.config.ConnectTimeout.Seconds()); secs > 0 {
		q.Set("connect_timeout", fmt.Sprintf("%d", secs))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (m *Manager) mysqlDSN() string {
	c := mysql.NewConfig()
	c.User = m.config.Username
	c.Passwd = m.config.Password
	c.Net = "tcp"
	c.Addr = fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	c.DBName = m.config.DBName
	c.ParseTime = true
	c.Timeout = m.config.ConnectTimeout
	return c.FormatDSN()
}

func (m *Manager) sqliteDSN() string {
	name := m.config.DBName
	if name == "" || name == ":memory:" {
		return "file::memory:?cache=shared"
	}
	if !strings.HasSuffix(name, ".db") {
		name += ".db"
	}
	return name
}

func (m *Manager) configureConnectionPool(sqlDB *sql.DB) {
	if sqlDB == nil {
		return
	}
	if m.config.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(m.config.MaxIdleConns)
	}
	if m.config.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(m.config.MaxOpenConns)
	}
	if m.config.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(m.config.ConnMaxLifetime)
	}
}

// DB returns the bun handle, or nil before Open.
func (m *Manager) DB() *bun.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

// MustDB returns the handle or ErrNotConnected.
func (m *Manager) MustDB() (*bun.DB, error) {
	db := m.DB()
	if db == nil {
		return nil, ErrNotConnected
	}
	return db, nil
}

func (m *Manager) Ping(ctx context.Context) error {
	db, err := m.MustDB()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// Stats reports pool usage, mostly for debug logging before close.
func (m *Manager) Stats() sql.DBStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sqlDB == nil {
		return sql.DBStats{}
	}
	return m.sqlDB.Stats()
}

// Close releases the pool. It is safe to call on a manager that never
// connected and safe to call twice.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db == nil {
		return nil
	}
	start := time.Now()
	err := m.db.Close()
	m.db = nil
	m.sqlDB = nil
	if err != nil {
		m.logger.Error("Failed to close database connection", "error", err)
		return err
	}
	m.logger.Debug("Database connection closed", "took", time.Since(start))
	return nil
}
