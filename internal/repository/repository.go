package repository

import (
	"database/sql"
	"strings"
	"time"
)

// timeLayout is the wire format for DATETIME columns on both supported
// drivers.  Values are written and compared in UTC; lexicographic order
// of the stored strings matches chronological order.
const timeLayout = "2006-01-02 15:04:05"

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isDuplicateKey reports whether err is a unique-constraint violation.
// MySQL reports error 1062, sqlite a "UNIQUE constraint failed" message.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") || strings.Contains(msg, "unique constraint")
}

// IsRetryableTxError reports whether err looks like a transient
// transaction conflict worth a single retry: MySQL deadlock (1213) or
// lock wait timeout (1205), sqlite busy locks, or an ErrConflict
// surfaced by an upsert.
func IsRetryableTxError(err error) bool {
	if err == nil {
		return false
	}
	if err == ErrConflict {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1213") ||
		strings.Contains(msg, "1205") ||
		strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
