package model

import (
	"strconv"
	"strings"
	"time"
)

// User is a row of the `users` table. Hierarchy is stored twice: as
// direct pointers (DirectorID, MagistrID, UIDParent) and as the
// materialized StructurePath, e.g. "-1-7-42-", which lists every ancestor
// director plus the user itself.
type User struct {
	ID            uint64    `json:"id"`             // users.id
	LgID          uint64    `json:"lg_id"`          // users.lg_id, platform identity
	Login         string    `json:"login"`          // users.login
	Fio           string    `json:"fio"`            // users.fio
	Phone         string    `json:"phone"`          // users.phone
	Level         int       `json:"level"`          // users.level, gates event eligibility
	DirectorID    uint64    `json:"director_id"`    // users.director_id (lg_id of the director)
	MagistrID     uint64    `json:"magistr_id"`     // users.magistr_id (lg_id of the magister)
	UIDParent     uint64    `json:"uid_parent"`     // users.uid_parent (lg_id of the upline)
	StructurePath string    `json:"structure_path"` // users.structure_path
	Speaker       bool      `json:"speaker"`        // users.speaker
	Banned        bool      `json:"banned"`         // users.banned
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsMagister reports whether the user roots its own hierarchy.
func (u User) IsMagister() bool { return u.LgID != 0 && u.LgID == u.MagistrID }

// IsDirector reports whether the user heads its own structure.
func (u User) IsDirector() bool { return u.LgID != 0 && u.LgID == u.DirectorID }

// PathSegment is the substring that marks id inside a structure path.
func PathSegment(id uint64) string {
	return "-" + strconv.FormatUint(id, 10) + "-"
}

// PathContains reports whether id appears in path as a whole segment.
func PathContains(path string, id uint64) bool {
	return strings.Contains(path, PathSegment(id))
}

// ChildPath derives a structure path for id placed under parentPath.
// An empty parent path starts a new tree.
func ChildPath(parentPath string, id uint64) string {
	p := strings.TrimSuffix(parentPath, "-")
	if p == "" {
		return PathSegment(id)
	}
	if !strings.HasPrefix(p, "-") {
		p = "-" + p
	}
	return p + PathSegment(id)
}

// SpeakerOption is the compact projection used by speaker pickers
// (id, fio AS label, director_id, level).
type SpeakerOption struct {
	ID                 uint64 `json:"id"`
	Label              string `json:"label"`
	DirectorID         uint64 `json:"director_id"`
	Level              int    `json:"level"`
	EventWatchersCount *int   `json:"event_watchers_count,omitempty"`
}

// SpeakerCandidate is a user high enough to be offered as a speaker,
// together with the seminars they may lecture.
type SpeakerCandidate struct {
	ID            uint64   `json:"id"`
	Level         int      `json:"level"`
	SeminarAccess []uint64 `json:"seminar_access"`
}

// MinSpeakerLevel is the lowest level offered in the speaker filter.
const MinSpeakerLevel = 5
