package dbx

import "regexp"

var pgPlaceholder = regexp.MustCompile(`\$(\d+)`)

// Rebind rewrites PostgreSQL "$n" placeholders for the target dialect.
// SQLite gets "?n", which binds the same positional argument.
func Rebind(d Dialect, query string) string {
	if d != DialectSQLite {
		return query
	}
	return pgPlaceholder.ReplaceAllString(query, "?$1")
}
