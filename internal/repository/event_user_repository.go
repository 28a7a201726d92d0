package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/training-events/internal/model"
)

// EventUserRepo drives the events_users participation workflow.
type EventUserRepo struct{ db *sql.DB }

func NewEventUserRepo(db *sql.DB) *EventUserRepo { return &EventUserRepo{db: db} }

const pivotColumns = `eu.id, eu.user_id, eu.event_id, eu.candidate, eu.member,
	eu.director_recommendation, eu.director_rejection_reason,
	eu.organizer_confirmation, eu.organizer_rejection_reason,
	eu.passed, eu.getting_deployment`

func pivotDest(p *model.EventUser) []any {
	return []any{
		&p.ID, &p.UserID, &p.EventID, &p.Candidate, &p.Member,
		&p.DirectorRecommendation, &p.DirectorRejectionReason,
		&p.OrganizerConfirmation, &p.OrganizerRejectionReason,
		&p.Passed, &p.GettingDeployment,
	}
}

func (r *EventUserRepo) getOne(ctx context.Context, cond string, args ...any) (*model.EventUser, error) {
	var p model.EventUser
	err := r.db.QueryRowContext(ctx,
		"SELECT "+pivotColumns+" FROM events_users eu WHERE "+cond+" LIMIT 1", args...).Scan(pivotDest(&p)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID returns a pivot row by id.
func (r *EventUserRepo) GetByID(ctx context.Context, id uint64) (*model.EventUser, error) {
	return r.getOne(ctx, "eu.id = ?", id)
}

// GetByUserAndEvent returns the pivot row linking a user to an event.
func (r *EventUserRepo) GetByUserAndEvent(ctx context.Context, userID, eventID uint64) (*model.EventUser, error) {
	return r.getOne(ctx, "eu.user_id = ? AND eu.event_id = ?", userID, eventID)
}

// update applies set to the rows matched by cond and fails with
// ErrEventUserNotFound when nothing matched.
func (r *EventUserRepo) update(ctx context.Context, set string, setArgs []any, cond string, condArgs ...any) error {
	res, err := r.db.ExecContext(ctx, "UPDATE events_users SET "+set+" WHERE "+cond, append(setArgs, condArgs...)...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrEventUserNotFound
	}
	return nil
}

// Recommend records the director's approval of a candidate.
func (r *EventUserRepo) Recommend(ctx context.Context, userID, eventID uint64) (*model.EventUser, error) {
	if err := r.update(ctx, "director_recommendation = ?", []any{model.Recommended},
		"user_id = ? AND event_id = ?", userID, eventID); err != nil {
		return nil, err
	}
	return r.GetByUserAndEvent(ctx, userID, eventID)
}

// Refuse records the director's refusal with a reason.
func (r *EventUserRepo) Refuse(ctx context.Context, userID, eventID uint64, reason string) (*model.EventUser, error) {
	if err := r.update(ctx, "director_recommendation = ?, director_rejection_reason = ?", []any{model.Refused, reason},
		"user_id = ? AND event_id = ?", userID, eventID); err != nil {
		return nil, err
	}
	return r.GetByUserAndEvent(ctx, userID, eventID)
}

// Confirm records the organizer's confirmation of a candidate.
func (r *EventUserRepo) Confirm(ctx context.Context, id uint64) (*model.EventUser, error) {
	if err := r.update(ctx, "organizer_confirmation = ?", []any{model.OrganizerConfirmed}, "id = ?", id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Reject records the organizer's refusal with a reason.
func (r *EventUserRepo) Reject(ctx context.Context, id uint64, reason string) (*model.EventUser, error) {
	if err := r.update(ctx, "organizer_confirmation = ?, organizer_rejection_reason = ?",
		[]any{model.OrganizerRefused, reason}, "id = ?", id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// SetMember turns the pivot into a membership.
func (r *EventUserRepo) SetMember(ctx context.Context, id uint64) (*model.EventUser, error) {
	if err := r.update(ctx, "member = ?", []any{model.Member}, "id = ?", id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// SetCandidate marks the pivot as a candidacy.
func (r *EventUserRepo) SetCandidate(ctx context.Context, id uint64) (*model.EventUser, error) {
	if err := r.update(ctx, "candidate = ?", []any{model.Candidate}, "id = ?", id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}
