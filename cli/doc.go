// Package cli wires the revistadb command tree.
//
// Every command loads the effective configuration (built-in defaults, the
// optional YAML file, then DB_* environment variables, with a .env file read
// first), opens one connection pool, runs a single operation and closes the
// pool on return. Errors are returned to the caller, which prints them and
// exits with status 1.
package cli
