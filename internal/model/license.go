package model

import "time"

// Permission is a grantable license (permissions table).
type Permission struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// SuspendedLicense records that PermissionID was revoked from UserID and
// may be resumed later.
type SuspendedLicense struct {
	ID           uint64    `json:"id"`
	UserID       uint64    `json:"user_id"`
	PermissionID uint64    `json:"permission_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Certificate points at the certificate document issued with a license.
type Certificate struct {
	UserID    uint64 `json:"user_id"`
	SeminarID uint64 `json:"seminar_id"`
	Media     string `json:"media"`
}
