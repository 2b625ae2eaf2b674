// Package schema inspects table shapes, applies additive idempotent column
// changes and verifies foreign-key style relationships. Every operation takes
// an explicit bun.IDB so it runs the same on a pool or inside a transaction.
package schema
