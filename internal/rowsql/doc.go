// Package rowsql compiles the row read of an extraction plan into a single
// parameterized SQLite SELECT.
//
// A plan reads exactly one logical row: the entity's primary table plus any
// joined subclass tables linked by Id. Values are never interpolated; table
// and column names are quoted identifiers.
package rowsql
