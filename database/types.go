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
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ConnectionConfig describes how to reach the database and size its pool.
type ConnectionConfig struct {
	Type            string        `yaml:"type"` // postgres, mysql, sqlite
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	SSLMode         string        `yaml:"sslmode"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	EnableQueryLog  bool          `yaml:"enable_query_log"`
	SlowQueryTime   time.Duration `yaml:"slow_query_time"`
}

// MigrateConfig locates the SQL fixture files loaded by the seed command.
type MigrateConfig struct {
	SeedPath    string `yaml:"seed_path"`
	Environment string `yaml:"environment"`
}

// ColumnConfig is one (name, type, default) triple of a column plan.
type ColumnConfig struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Default string `yaml:"default"`
}

// ColumnPlanConfig lists the additive columns wanted on one table.
type ColumnPlanConfig struct {
	Table   string         `yaml:"table"`
	Columns []ColumnConfig `yaml:"columns"`
}

// RelationshipConfig declares a foreign-key style link checked by the
// relationship verifier.
type RelationshipConfig struct {
	Table           string `yaml:"table"`
	Column          string `yaml:"column"`
	ReferenceTable  string `yaml:"reference_table"`
	ReferenceColumn string `yaml:"reference_column"`
	Key             string `yaml:"key"`
	Label           string `yaml:"label"`
	ReferenceLabel  string `yaml:"reference_label"`
	Description     string `yaml:"description"`
}

// Config aggregates everything read from a revistadb YAML file.
type Config struct {
	Connection    ConnectionConfig     `yaml:"connection"`
	Migrate       MigrateConfig        `yaml:"migrate"`
	ColumnPlans   []ColumnPlanConfig   `yaml:"column_plans"`
	Relationships []RelationshipConfig `yaml:"relationships"`
}

// DefaultConnectionConfig returns the built-in connection defaults used when
// neither a config file nor the environment provide a value.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		Type:            "postgres",
		Host:            "localhost",
		Port:            5432,
		Username:        "postgres",
		Password:        "",
		DBName:          "revista",
		SSLMode:         "disable",
		MaxIdleConns:    2,
		MaxOpenConns:    5,
		ConnMaxLifetime: time.Minute * 5,
		ConnectTimeout:  time.Second * 2,
		SlowQueryTime:   time.Second * 2,
	}
}

// DefaultConfig returns a Config holding only built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Connection: *DefaultConnectionConfig(),
		Migrate: MigrateConfig{
			SeedPath:    "configs/sql",
			Environment: "dev",
		},
	}
}

// LoadConfig reads a YAML file on top of the defaults. An empty path returns
// the defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadColumnPlans reads a standalone column plan file, either a single plan
// or a list under `column_plans`.
func LoadColumnPlans(path string) ([]ColumnPlanConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	var wrapped struct {
		ColumnPlans []ColumnPlanConfig `yaml:"column_plans"`
	}
	if err := yaml.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse plan file %s: %w", path, err)
	}
	if len(wrapped.ColumnPlans) > 0 {
		return wrapped.ColumnPlans, nil
	}
	var single ColumnPlanConfig
	if err := yaml.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("failed to parse plan file %s: %w", path, err)
	}
	if single.Table == "" {
		return nil, fmt.Errorf("plan file %s declares no table", path)
	}
	return []ColumnPlanConfig{single}, nil
}

// WriteConfig encodes cfg as YAML with the password masked.
func WriteConfig(w io.Writer, cfg *Config) error {
	out := *cfg
	if out.Connection.Password != "" {
		out.Connection.Password = "******"
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	return enc.Close()
}
