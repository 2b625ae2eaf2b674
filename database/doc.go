// Package database provides the connection manager, configuration loading,
// environment overrides, query hooks, logging and error classification
// shared by the revistadb commands. It is built on top of Bun.
package database
