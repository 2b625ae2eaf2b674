// Package seed loads ordered SQL fixture files into the database.
//
// Files live under <root>/common and <root>/<environment>. Each directory is
// ordered by the numeric file prefix (001_usuarios.sql) and the common
// directory runs first. ${VAR} placeholders are replaced from the process
// environment before the file is split into statements; every file runs in
// its own transaction.
package seed
