package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/training-events/internal/model"
)

// SeminarRepo reads seminars, their events and the permissions they issue.
type SeminarRepo struct{ db *sql.DB }

func NewSeminarRepo(db *sql.DB) *SeminarRepo { return &SeminarRepo{db: db} }

// GetByID returns a seminar or ErrSeminarNotFound.
func (r *SeminarRepo) GetByID(ctx context.Context, id uint64) (*model.Seminar, error) {
	const q = `SELECT id, name, level, ed, jk, necessarily_passed, permission_id, license_level, count_of_watching
		FROM seminars WHERE id = ? LIMIT 1`
	var (
		s       model.Seminar
		prereq  sql.NullInt64
		permsID sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.Name, &s.Level, &s.Ed, &s.Jk, &prereq, &permsID, &s.LicenseLevel, &s.CountOfWatching)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSeminarNotFound
	}
	if err != nil {
		return nil, err
	}
	s.NecessarilyPassed = nullableID(prereq)
	s.PermissionID = nullableID(permsID)
	return &s, nil
}

// Permission returns the permission issued by the seminar, or nil when the
// seminar does not exist or issues none.
func (r *SeminarRepo) Permission(ctx context.Context, seminarID uint64) (*model.Permission, error) {
	const q = `SELECT p.id, p.name FROM seminars s
		JOIN permissions p ON p.id = s.permission_id
		WHERE s.id = ? LIMIT 1`
	var p model.Permission
	err := r.db.QueryRowContext(ctx, q, seminarID).Scan(&p.ID, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetEvent returns an event or ErrEventNotFound.
func (r *SeminarRepo) GetEvent(ctx context.Context, id uint64) (*model.Event, error) {
	const q = `SELECT id, seminar_id, COALESCE(user_id, 0), user_name, event_full_name, country, city,
			event_date, start_event, time_start_event, the_date_of_the_beginning, expiration_date,
			status, in_process
		FROM events WHERE id = ? LIMIT 1`
	var e model.Event
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&e.ID, &e.SeminarID, &e.OrganizerID, &e.OrganizerName, &e.FullName, &e.Country, &e.City,
		&e.EventDate, &e.StartEvent, &e.TimeStartEvent, &e.TheDateOfTheBeginning, &e.ExpirationDate,
		&e.Status, &e.InProcess)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func nullableID(n sql.NullInt64) *uint64 {
	if !n.Valid {
		return nil
	}
	v := uint64(n.Int64)
	return &v
}
