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

package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tomoncle/revistadb/database"
	"github.com/uptrace/bun"
)

const (
	commonDir    = "common"
	defaultOrder = 999
)

var (
	orderPattern       = regexp.MustCompile(`^(\d+)_`)
	placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)
)

// ErrMissingVariable is returned when a fixture references an unset variable.
var ErrMissingVariable = errors.New("missing environment variable")

// File describes a fixture discovered on disk.
type File struct {
	Path        string
	Name        string
	Order       int
	Environment string
}

// Result is the outcome of one fixture file.
type Result struct {
	File         string
	Statements   int
	RowsAffected int64
	Duration     time.Duration
	Err          error
}

// Loader discovers and executes fixtures for one environment.
type Loader struct {
	db          *bun.DB
	root        string
	environment string
	logger      database.Logger
	lookup      func(string) (string, bool)
}

func NewLoader(db *bun.DB, root, environment string, logger database.Logger) *Loader {
	if logger == nil {
		logger = database.GetLogger()
	}
	return &Loader{
		db:          db,
		root:        root,
		environment: environment,
		logger:      logger,
		lookup:      os.LookupEnv,
	}
}

// Files returns the fixtures in execution order. Missing directories are
// skipped.
func (l *Loader) Files() ([]File, error) {
	common, err := filesIn(filepath.Join(l.root, commonDir), commonDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list common SQL files: %w", err)
	}
	var env []File
	if l.environment != "" && l.environment != commonDir {
		env, err = filesIn(filepath.Join(l.root, l.environment), l.environment)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s SQL files: %w", l.environment, err)
		}
	}
	return append(common, env...), nil
}

// Run executes every fixture in order. It stops at the first failing file and
// returns the results gathered so far, the failing one included.
func (l *Loader) Run(ctx context.Context) ([]Result, error) {
	if l.db == nil {
		return nil, database.ErrNotConnected
	}
	files, err := l.Files()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		l.logger.Warn("No SQL files found", "root", l.root, "environment", l.environment)
		return nil, nil
	}

	results := make([]Result, 0, len(files))
	for _, f := range files {
		res := l.execFile(ctx, f)
		results = append(results, res)
		if res.Err != nil {
			l.logger.Error("SQL file execution failed", "file", f.Name, "error", res.Err)
			return results, fmt.Errorf("SQL file execution failed %s: %w", f.Name, res.Err)
		}
		l.logger.Info("SQL file executed successfully", "file", f.Name, "rows_affected", res.RowsAffected, "took", res.Duration)
	}
	return results, nil
}

func (l *Loader) execFile(ctx context.Context, f File) Result {
	start := time.Now()
	res := Result{File: f.Name}

	content, err := os.ReadFile(f.Path)
	if err != nil {
		res.Err = fmt.Errorf("failed to read file: %w", err)
		res.Duration = time.Since(start)
		return res
	}
	expanded, err := ExpandVariables(string(content), l.lookup)
	if err != nil {
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}
	statements := SplitStatements(expanded)
	res.Statements = len(statements)
	if len(statements) == 0 {
		res.Duration = time.Since(start)
		return res
	}

	res.Err = l.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, stmt := range statements {
			r, err := tx.ExecContext(ctx, stmt)
			if err != nil {
				return fmt.Errorf("failed to execute SQL statement: %s: %w", abbreviate(stmt), err)
			}
			if n, err := r.RowsAffected(); err == nil {
				res.RowsAffected += n
			}
		}
		return nil
	})
	res.Duration = time.Since(start)
	return res
}

func filesIn(dir, environment string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var files []File
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			continue
		}
		files = append(files, File{
			Path:        filepath.Join(dir, e.Name()),
			Name:        e.Name(),
			Order:       parseOrder(e.Name()),
			Environment: environment,
		})
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Order != files[j].Order {
			return files[i].Order < files[j].Order
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

func parseOrder(name string) int {
	m := orderPattern.FindStringSubmatch(name)
	if len(m) < 2 {
		return defaultOrder
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return defaultOrder
	}
	return n
}

// ExpandVariables replaces ${NAME} placeholders using lookup. Every missing
// name is reported in a single error.
func ExpandVariables(content string, lookup func(string) (string, bool)) (string, error) {
	var missing []string
	out := placeholderPattern.ReplaceAllStringFunc(content, func(m string) string {
		name := placeholderPattern.FindStringSubmatch(m)[1]
		v, ok := lookup(name)
		if !ok {
			missing = append(missing, name)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingVariable, strings.Join(missing, ", "))
	}
	return out, nil
}

// SplitStatements splits content on semicolons that are outside single
// quotes, double quotes and -- comments. Empty statements are dropped.
func SplitStatements(content string) []string {
	var (
		statements []string
		current    strings.Builder
		quote      rune
		comment    bool
	)
	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	runes := []rune(content)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case comment:
			if r == '\n' {
				comment = false
				current.WriteRune(r)
			}
		case quote != 0:
			current.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '-' && i+1 < len(runes) && runes[i+1] == '-':
			comment = true
			i++
		case r == '\'' || r == '"':
			quote = r
			current.WriteRune(r)
		case r == ';':
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return statements
}

func abbreviate(stmt string) string {
	stmt = strings.Join(strings.Fields(stmt), " ")
	if len(stmt) > 80 {
		return stmt[:77] + "..."
	}
	return stmt
}
