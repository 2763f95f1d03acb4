package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// duplicate-key markers per dialect; gorm only translates some of these into
// ErrDuplicatedKey, so the raw driver messages are matched as a fallback.
var duplicateKeyMarkers = []string{
	"duplicate key value violates unique constraint", // postgres 23505
	"Error 1062",                // mysql
	"UNIQUE constraint failed",  // sqlite 2067
	"constraint failed: UNIQUE", // glebarez sqlite
}

// IsDuplicateKeyErr reports whether err is a unique-constraint violation on
// any supported dialect.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	for _, marker := range duplicateKeyMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
