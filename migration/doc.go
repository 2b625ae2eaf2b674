// Package migration applies versioned, idempotent schema steps in order and
// records each applied version in a ledger table.
package migration
