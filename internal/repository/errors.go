// Package repository holds the SQL data access for users, events, licenses
// and statistics. Lookups that find nothing return the sentinel errors
// below so handlers can translate them into 404 responses.
package repository

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrSeminarNotFound   = errors.New("seminar not found")
	ErrEventNotFound     = errors.New("event not found")
	ErrEventUserNotFound = errors.New("event participation not found")
)

// ErrConflict is returned when a write cannot proceed because of existing
// state, such as a still-fresh confirmation code.
var ErrConflict = errors.New("conflict")
