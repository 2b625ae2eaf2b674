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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dbEnvKeys = []string{
	"DB_TYPE", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD",
	"DB_NAME", "DB_SSLMODE", "DB_CONNECT_TIMEOUT", "DB_ENABLE_QUERY_LOG",
}

// clearDBEnv blanks every DB_* variable for the duration of the test.
func clearDBEnv(t *testing.T) {
	t.Helper()
	for _, k := range dbEnvKeys {
		t.Setenv(k, "")
	}
}

func TestApplyEnv_DefaultsWhenUnset(t *testing.T) {
	clearDBEnv(t)

	cfg := DefaultConnectionConfig()
	require.NoError(t, ApplyEnv(cfg))
	assert.Equal(t, DefaultConnectionConfig(), cfg)
	assert.Equal(t, "postgres", cfg.Username)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "revista", cfg.DBName)
	assert.Equal(t, "", cfg.Password)
}

func TestApplyEnv_OverridesWholeValues(t *testing.T) {
	clearDBEnv(t)
	t.Setenv("DB_USER", "editor")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "revista_prod")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_CONNECT_TIMEOUT", "5")
	t.Setenv("DB_ENABLE_QUERY_LOG", "true")

	cfg := DefaultConnectionConfig()
	require.NoError(t, ApplyEnv(cfg))
	assert.Equal(t, "editor", cfg.Username)
	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, "revista_prod", cfg.DBName)
	assert.Equal(t, "s3cret", cfg.Password)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.True(t, cfg.EnableQueryLog)
	assert.Equal(t, "disable", cfg.SSLMode)
}

func TestApplyEnv_InvalidPort(t *testing.T) {
	for _, port := range []string{"abc", "0", "70000", "54 32"} {
		t.Run(port, func(t *testing.T) {
			clearDBEnv(t)
			t.Setenv("DB_PORT", port)
			err := ApplyEnv(DefaultConnectionConfig())
			assert.ErrorContains(t, err, "invalid DB_PORT")
		})
	}
}

func TestApplyEnv_InvalidTimeout(t *testing.T) {
	clearDBEnv(t)
	t.Setenv("DB_CONNECT_TIMEOUT", "2s")
	assert.ErrorContains(t, ApplyEnv(DefaultConnectionConfig()), "invalid DB_CONNECT_TIMEOUT")
}

func TestApplyEnv_NilConfig(t *testing.T) {
	assert.Error(t, ApplyEnv(nil))
}

func TestLoadDotEnv(t *testing.T) {
	const fromFile = "REVISTADB_TEST_DOTENV_ONLY"
	const fromProcess = "REVISTADB_TEST_DOTENV_PROCESS"
	t.Setenv(fromProcess, "process")
	t.Cleanup(func() { _ = os.Unsetenv(fromFile) })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(fromFile+"=file\n"+fromProcess+"=file\n"), 0o600))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "file", os.Getenv(fromFile))
	assert.Equal(t, "process", os.Getenv(fromProcess))
}

func TestLoadDotEnv_MissingFileIsIgnored(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
