package service

import (
	"context"
	"time"

	"github.com/iliyamo/training-events/internal/model"
	"github.com/iliyamo/training-events/internal/repository"
)

type fakeUsers struct {
	byLg       map[uint64]model.User
	directors  map[uint64]map[uint64]string
	downstream map[uint64][]uint64
}

func (f *fakeUsers) GetByLgID(_ context.Context, lgID uint64) (*model.User, error) {
	u, ok := f.byLg[lgID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	for _, u := range f.byLg {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUsers) DownstreamDirectorIDs(_ context.Context, lgID uint64) ([]uint64, error) {
	return append([]uint64{lgID}, f.downstream[lgID]...), nil
}

func (f *fakeUsers) DownstreamUsers(context.Context, uint64) ([]model.User, error) { return nil, nil }

func (f *fakeUsers) DirectorsForMagister(_ context.Context, m uint64) (map[uint64]string, error) {
	return f.directors[m], nil
}

func (f *fakeUsers) UpdateOrCreate(_ context.Context, u model.User) (*model.User, error) {
	u.ID = 100
	return &u, nil
}

func (f *fakeUsers) SetSpeaker(context.Context, uint64, bool) (*model.User, error) { return nil, nil }

func (f *fakeUsers) SpeakersByDirectors(context.Context, []uint64, uint64) ([]model.SpeakerOption, error) {
	return nil, nil
}

func (f *fakeUsers) SpeakersForTicket(context.Context, []uint64) ([]model.SpeakerOption, error) {
	return nil, nil
}

func (f *fakeUsers) SpeakerFilterUsers(context.Context, int) ([]model.SpeakerCandidate, error) {
	return nil, nil
}

func (f *fakeUsers) UnitsBetween(_ context.Context, lgID uint64, _ model.DateRange) (*model.UserUnits, error) {
	return &model.UserUnits{User: model.User{LgID: lgID}}, nil
}

type fakeSeminars struct {
	seminars map[uint64]model.Seminar
	events   map[uint64]model.Event
}

func (f *fakeSeminars) GetByID(_ context.Context, id uint64) (*model.Seminar, error) {
	s, ok := f.seminars[id]
	if !ok {
		return nil, repository.ErrSeminarNotFound
	}
	return &s, nil
}

func (f *fakeSeminars) Permission(_ context.Context, id uint64) (*model.Permission, error) {
	s, ok := f.seminars[id]
	if !ok || s.PermissionID == nil {
		return nil, nil
	}
	return &model.Permission{ID: *s.PermissionID, Name: s.Name}, nil
}

func (f *fakeSeminars) GetEvent(_ context.Context, id uint64) (*model.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	return &e, nil
}

type fakeEventUsers struct{ calls []string }

func (f *fakeEventUsers) record(name string, id uint64) (*model.EventUser, error) {
	f.calls = append(f.calls, name)
	if id == 0 {
		return nil, repository.ErrEventUserNotFound
	}
	return &model.EventUser{ID: id}, nil
}

func (f *fakeEventUsers) Recommend(_ context.Context, userID, _ uint64) (*model.EventUser, error) {
	return f.record("recommend", userID)
}

func (f *fakeEventUsers) Refuse(_ context.Context, userID, _ uint64, _ string) (*model.EventUser, error) {
	return f.record("refuse", userID)
}

func (f *fakeEventUsers) Confirm(_ context.Context, id uint64) (*model.EventUser, error) {
	return f.record("confirm", id)
}

func (f *fakeEventUsers) Reject(_ context.Context, id uint64, _ string) (*model.EventUser, error) {
	return f.record("reject", id)
}

func (f *fakeEventUsers) SetMember(_ context.Context, id uint64) (*model.EventUser, error) {
	return f.record("member", id)
}

func (f *fakeEventUsers) SetCandidate(_ context.Context, id uint64) (*model.EventUser, error) {
	return f.record("candidate", id)
}

type fakeManagement struct {
	lastCandidates repository.EventCandidateQuery
	lastTab        repository.EventTabQuery
}

func (f *fakeManagement) EventCandidates(_ context.Context, q repository.EventCandidateQuery, _ *repository.Paging) ([]repository.EventCandidateRow, int64, error) {
	f.lastCandidates = q
	return []repository.EventCandidateRow{{PivotID: 1}}, 1, nil
}

func (f *fakeManagement) EventTabUsers(_ context.Context, q repository.EventTabQuery) ([]repository.ManagedUser, error) {
	f.lastTab = q
	return []repository.ManagedUser{}, nil
}

type grantCall struct {
	userID, permissionID uint64
	cert                 *model.Certificate
}

type fakeLicenses struct {
	rows      []repository.LicenseRow
	lastQuery repository.LicenseQuery
	grants    []grantCall
	suspended []grantCall
	resumed   []grantCall
}

func (f *fakeLicenses) List(_ context.Context, q repository.LicenseQuery, _ *repository.Paging) ([]repository.LicenseRow, int64, error) {
	f.lastQuery = q
	return f.rows, int64(len(f.rows)), nil
}

func (f *fakeLicenses) Grant(_ context.Context, userID, permissionID uint64, cert *model.Certificate) error {
	f.grants = append(f.grants, grantCall{userID, permissionID, cert})
	return nil
}

func (f *fakeLicenses) Suspend(_ context.Context, userID, permissionID uint64) error {
	f.suspended = append(f.suspended, grantCall{userID: userID, permissionID: permissionID})
	return nil
}

func (f *fakeLicenses) Resume(_ context.Context, userID, permissionID uint64) error {
	f.resumed = append(f.resumed, grantCall{userID: userID, permissionID: permissionID})
	return nil
}

type fakeStats struct {
	rows      []repository.StatisticRow
	notPassed []repository.NotPassedRow
	paging    []*repository.Paging
}

func (f *fakeStats) WithEvents(_ context.Context, _ repository.Scope, _ repository.Role, _ repository.StatisticFilters, p *repository.Paging) ([]repository.StatisticRow, int64, error) {
	f.paging = append(f.paging, p)
	return f.rows, int64(len(f.rows)), nil
}

func (f *fakeStats) NotPassed(_ context.Context, _ repository.Scope, _ repository.StatisticFilters, p *repository.Paging) ([]repository.NotPassedRow, int64, error) {
	f.paging = append(f.paging, p)
	return f.notPassed, int64(len(f.notPassed)), nil
}

type fakeEligibility struct {
	last repository.EligibilityQuery
	rows []repository.EligibleUser
}

func (f *fakeEligibility) UsersWithAccess(_ context.Context, q repository.EligibilityQuery) ([]repository.EligibleUser, error) {
	f.last = q
	if f.rows == nil {
		return []repository.EligibleUser{}, nil
	}
	return f.rows, nil
}

type fakeNotifications struct {
	items []model.Notification
	read  map[uint64]time.Time
}

func (f *fakeNotifications) Create(_ context.Context, n *model.Notification) error {
	n.ID = uint64(len(f.items) + 1)
	f.items = append(f.items, *n)
	return nil
}

func (f *fakeNotifications) Unread(_ context.Context, userID uint64, typ string) ([]model.Notification, error) {
	var out []model.Notification
	for i := len(f.items) - 1; i >= 0; i-- {
		n := f.items[i]
		if _, done := f.read[n.ID]; done || n.UserID != userID || n.Type != typ {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, id uint64, t time.Time) error {
	if f.read == nil {
		f.read = map[uint64]time.Time{}
	}
	f.read[id] = t
	return nil
}

type published struct {
	queue string
	event any
}

type fakePublisher struct {
	events []published
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, queue string, event any) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, published{queue, event})
	return nil
}
