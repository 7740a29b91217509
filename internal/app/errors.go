package app

import (
	"cbcgrab/internal/domain"
	"cbcgrab/internal/ports"
)

var ErrNotFound = ports.ErrNotFound

// ErrorCode maps an error chain to the stable code persisted on failed jobs
// and used by the CLI for exit statuses.
func ErrorCode(err error) string {
	if kind := domain.KindOf(err); kind != "" {
		return string(kind)
	}
	return "internal_error"
}
