package service

import (
	"context"
	"errors"

	"github.com/iliyamo/training-events/internal/model"
	"github.com/iliyamo/training-events/internal/repository"
)

func (s *Service) GetUser(ctx context.Context, lgID uint64) (*model.User, error) {
	return s.users.GetByLgID(ctx, lgID)
}

// GetParent returns the upline shown for a user. A magister is listed with
// its own parent, a director with its parent and anyone else with its
// director. Parents that do not exist are skipped.
func (s *Service) GetParent(ctx context.Context, lgID uint64) ([]model.User, error) {
	u, err := s.users.GetByLgID(ctx, lgID)
	if err != nil {
		return nil, err
	}

	out := make([]model.User, 0, 2)
	var parentID uint64
	switch {
	case u.IsMagister():
		out = append(out, *u)
		parentID = u.UIDParent
	case u.IsDirector():
		parentID = u.UIDParent
	default:
		parentID = u.DirectorID
	}
	if parentID == 0 || parentID == u.LgID {
		return out, nil
	}

	p, err := s.users.GetByLgID(ctx, parentID)
	if errors.Is(err, repository.ErrUserNotFound) {
		s.log.Warn("parent missing", "lg_id", lgID, "parent_lg_id", parentID)
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	return append(out, *p), nil
}

func (s *Service) DownstreamDirectorIDs(ctx context.Context, lgID uint64) ([]uint64, error) {
	return s.users.DownstreamDirectorIDs(ctx, lgID)
}

func (s *Service) DownstreamUsers(ctx context.Context, lgID uint64) ([]model.User, error) {
	return s.users.DownstreamUsers(ctx, lgID)
}

func (s *Service) DirectorsForMagister(ctx context.Context, magisterLgID uint64) (map[uint64]string, error) {
	return s.users.DirectorsForMagister(ctx, magisterLgID)
}

func (s *Service) UpdateOrCreate(ctx context.Context, u model.User) (*model.User, error) {
	saved, err := s.users.UpdateOrCreate(ctx, u)
	if err != nil {
		return nil, err
	}
	s.log.Info("user saved", "lg_id", saved.LgID, "id", saved.ID)
	return saved, nil
}

func (s *Service) SetSpeaker(ctx context.Context, id uint64, speaker bool) (*model.User, error) {
	return s.users.SetSpeaker(ctx, id, speaker)
}

func (s *Service) SpeakersByDirectors(ctx context.Context, directorIDs []uint64, seminarID uint64) ([]model.SpeakerOption, error) {
	return s.users.SpeakersByDirectors(ctx, directorIDs, seminarID)
}

func (s *Service) SpeakersForTicket(ctx context.Context, directorIDs []uint64) ([]model.SpeakerOption, error) {
	return s.users.SpeakersForTicket(ctx, directorIDs)
}

func (s *Service) SpeakerFilter(ctx context.Context) ([]model.SpeakerCandidate, error) {
	return s.users.SpeakerFilterUsers(ctx, model.MinSpeakerLevel)
}

func (s *Service) UserUnits(ctx context.Context, lgID uint64, w model.DateRange) (*model.UserUnits, error) {
	if w.From.IsZero() || w.To.IsZero() || w.To.Before(w.From) {
		return nil, ErrInvalidWindow
	}
	return s.users.UnitsBetween(ctx, lgID, w)
}

// SeminarPermission returns the permission the seminar issues, or nil.
func (s *Service) SeminarPermission(ctx context.Context, seminarID uint64) (*model.Permission, error) {
	return s.seminars.Permission(ctx, seminarID)
}

// EligibilityRequest asks for the users of Directors who may join events
// of SeminarID.
type EligibilityRequest struct {
	SeminarID           uint64
	Directors           []uint64
	RequirePrerequisite bool
	Window              *model.DateRange
}

func (s *Service) EligibleUsers(ctx context.Context, req EligibilityRequest) ([]repository.EligibleUser, error) {
	if req.Window != nil && req.Window.To.Before(req.Window.From) {
		return nil, ErrInvalidWindow
	}
	sem, err := s.seminars.GetByID(ctx, req.SeminarID)
	if err != nil {
		return nil, err
	}
	users, err := s.eligibility.UsersWithAccess(ctx, repository.EligibilityQuery{
		SeminarID:           sem.ID,
		SeminarLevel:        sem.Level,
		PermissionID:        sem.PermissionID,
		NecessarilyPassed:   sem.NecessarilyPassed,
		RequirePrerequisite: req.RequirePrerequisite,
		Directors:           req.Directors,
		Window:              req.Window,
		EnforceThresholds:   s.enforceThresholds,
		MinUnits:            sem.Ed,
		MinCorporate:        sem.Jk,
	})
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Totals != nil {
			ok := users[i].Totals.MeetsThresholds(*sem)
			users[i].MeetsThresholds = &ok
		}
	}
	return users, nil
}
