package db

import "strings"

// IsUniqueViolation reports whether the provided error is a unique
// violation. When constraintName is provided, the violated constraint
// (or column) must also appear in the error message. Matches both the
// Postgres and the SQLite wording so repository tests exercise the
// same translation path as production.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value") && !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return constraintName == "" || strings.Contains(msg, constraintName)
}
