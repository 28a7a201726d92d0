package service

import (
	"context"

	"github.com/iliyamo/training-events/internal/model"
	"github.com/iliyamo/training-events/internal/repository"
)

// Recommend is the director approving a user's candidacy for an event.
func (s *Service) Recommend(ctx context.Context, eventID, userID uint64) (*model.EventUser, error) {
	p, err := s.eventUsers.Recommend(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	s.log.Info("candidate recommended", "event_id", eventID, "user_id", userID)
	return p, nil
}

// Refuse is the director turning a candidacy down.
func (s *Service) Refuse(ctx context.Context, eventID, userID uint64, reason string) (*model.EventUser, error) {
	p, err := s.eventUsers.Refuse(ctx, userID, eventID, reason)
	if err != nil {
		return nil, err
	}
	s.log.Info("candidate refused by director", "event_id", eventID, "user_id", userID)
	return p, nil
}

// ConfirmCandidate is the organizer accepting a recommended candidate.
func (s *Service) ConfirmCandidate(ctx context.Context, pivotID uint64) (*model.EventUser, error) {
	return s.eventUsers.Confirm(ctx, pivotID)
}

// RefuseCandidate is the organizer rejecting a candidate.
func (s *Service) RefuseCandidate(ctx context.Context, pivotID uint64, reason string) (*model.EventUser, error) {
	return s.eventUsers.Reject(ctx, pivotID, reason)
}

func (s *Service) SetMember(ctx context.Context, pivotID uint64) (*model.EventUser, error) {
	return s.eventUsers.SetMember(ctx, pivotID)
}

func (s *Service) SetCandidate(ctx context.Context, pivotID uint64) (*model.EventUser, error) {
	return s.eventUsers.SetCandidate(ctx, pivotID)
}

// DirectorCandidates lists unreviewed candidacies of a director's users
// for planned events of a seminar.
func (s *Service) DirectorCandidates(ctx context.Context, directorID, seminarID uint64, f repository.CandidateFilters, sort repository.Sort, p *repository.Paging) (ListResult[repository.EventCandidateRow], error) {
	if _, err := s.seminars.GetByID(ctx, seminarID); err != nil {
		return ListResult[repository.EventCandidateRow]{}, err
	}
	rows, total, err := s.management.EventCandidates(ctx, repository.EventCandidateQuery{
		DirectorID: directorID, SeminarID: seminarID, Filters: f, Sort: sort,
	}, p)
	if err != nil {
		return ListResult[repository.EventCandidateRow]{}, err
	}
	return newListResult(rows, total, p), nil
}

// DirectorCandidatesOrArchive lists open candidacies, or with archive the
// participation in past events.
func (s *Service) DirectorCandidatesOrArchive(ctx context.Context, directorID uint64, archive bool, f repository.CandidateFilters, sort repository.Sort, p *repository.Paging) (ListResult[repository.EventCandidateRow], error) {
	rows, total, err := s.management.EventCandidates(ctx, repository.EventCandidateQuery{
		DirectorID: directorID, Archive: archive, Filters: f, Sort: sort,
	}, p)
	if err != nil {
		return ListResult[repository.EventCandidateRow]{}, err
	}
	return newListResult(rows, total, p), nil
}

// EventTab returns one management tab of an event. Without explicit
// directors the viewer's downstream directors are used.
func (s *Service) EventTab(ctx context.Context, eventID uint64, tab repository.EventTab, directors []uint64, viewer uint64) ([]repository.ManagedUser, error) {
	switch tab {
	case repository.TabCandidates, repository.TabMembers, repository.TabWatchers,
		repository.TabDeployment, repository.TabEligible:
	default:
		return nil, ErrInvalidTab
	}
	ev, err := s.seminars.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	sem, err := s.seminars.GetByID(ctx, ev.SeminarID)
	if err != nil {
		return nil, err
	}
	if len(directors) == 0 && viewer != 0 {
		if directors, err = s.users.DownstreamDirectorIDs(ctx, viewer); err != nil {
			return nil, err
		}
	}
	return s.management.EventTabUsers(ctx, repository.EventTabQuery{
		Tab: tab, Event: *ev, Seminar: *sem, Directors: directors,
	})
}
