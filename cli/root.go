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

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tomoncle/revistadb/database"
	"github.com/tomoncle/revistadb/utils"
)

var version = "dev"

// SetVersion sets the version reported by "revistadb version".
func SetVersion(v string) {
	version = v
}

type app struct {
	configFile string
	envFile    string
	logLevel   string
	logFormat  string
	queryLog   bool
	noColor    bool

	stdout  io.Writer
	stderr  io.Writer
	cfg     *database.Config
	printer *Printer
	logger  database.Logger
}

// NewRootCommand builds the command tree writing to the given streams.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "revistadb",
		Short: "Schema migration and inspection utility for the revista database",
		Long: `revistadb adds columns, inspects tables and verifies foreign-key style
relationships on the revista database.

Example usage:
  revistadb inspect articulos                          # Show the columns of a table
  revistadb add-columns articulos --column area_tematica:TEXT:'general'
  revistadb verify articulos usuario_id usuarios       # Report orphaned references
  revistadb migrate                                    # Apply pending built-in steps
  revistadb status                                     # Show applied and pending steps`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "YAML config file (defaults are used when empty)")
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading DB_* variables")
	flags.StringVar(&a.logLevel, "log-level", utils.EnvDefaultString("LOG_LEVEL", "warn"), "log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", utils.EnvDefaultString("CONSOLE_LOG_FORMAT", "text"), "log format: text or json")
	flags.BoolVar(&a.queryLog, "query-log", false, "log every SQL statement")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newInspectCommand(a),
		newAddColumnsCommand(a),
		newVerifyCommand(a),
		newMigrateCommand(a),
		newStatusCommand(a),
		newSeedCommand(a),
		newConfigCommand(a),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command tree against the process streams.
func Execute(ctx context.Context) error {
	return NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

func (a *app) init() error {
	utils.SetConsoleWriter(a.stderr)
	utils.ConfigureConsoleLogFormat(a.logFormat)
	utils.ConfigureConsoleColors(!a.noColor)
	utils.ConfigureLogLevel(a.logLevel)
	a.logger = database.NewDefaultLogger("REVISTADB")
	database.InitLogger(a.logger)
	a.printer = NewPrinter(a.stdout, a.stderr, !a.noColor)

	if err := database.LoadDotEnv(a.envFile); err != nil {
		return err
	}
	cfg, err := database.LoadConfig(a.configFile)
	if err != nil {
		return err
	}
	if err := database.ApplyEnv(&cfg.Connection); err != nil {
		return err
	}
	if a.queryLog {
		cfg.Connection.EnableQueryLog = true
	}
	a.cfg = cfg
	a.logger.Debug("Configuration loaded",
		"config", a.configFile,
		"type", cfg.Connection.Type,
		"host", cfg.Connection.Host,
		"dbname", cfg.Connection.DBName,
	)
	return nil
}

// withManager opens a pool for the duration of fn and always closes it.
func (a *app) withManager(ctx context.Context, fn func(m *database.Manager) error) (err error) {
	m, err := database.NewManager(&a.cfg.Connection, a.logger)
	if err != nil {
		return err
	}
	if err := m.Open(ctx); err != nil {
		return fmt.Errorf("failed to connect to %s database %q at %s:%d: %w",
			a.cfg.Connection.Type, a.cfg.Connection.DBName, a.cfg.Connection.Host, a.cfg.Connection.Port, err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(m)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "revistadb %s\n", version)
			return err
		},
	}
}
