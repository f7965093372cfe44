package storekit

import "strings"

// joinColumns joins column names with commas for SQL queries.
func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}

// quoteIdent quotes a SQL identifier (database, savepoint or table
// name). Identifiers cannot be bound as statement parameters, so every
// place a name is spliced into SQL text goes through here.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// truncateSQL truncates SQL for error messages
func truncateSQL(sql string, maxLen int) string {
	if len(sql) <= maxLen {
		return sql
	}
	return sql[:maxLen] + "..."
}
