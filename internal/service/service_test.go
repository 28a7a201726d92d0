package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/training-events/internal/model"
	"github.com/iliyamo/training-events/internal/queue"
	"github.com/iliyamo/training-events/internal/repository"
)

var fixedNow = time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc           *Service
	users         *fakeUsers
	seminars      *fakeSeminars
	eventUsers    *fakeEventUsers
	management    *fakeManagement
	licenses      *fakeLicenses
	stats         *fakeStats
	eligibility   *fakeEligibility
	notifications *fakeNotifications
	publisher     *fakePublisher
	now           time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	perm := uint64(4)
	prereq := uint64(1)
	f := &fixture{
		users: &fakeUsers{
			byLg: map[uint64]model.User{
				1:  {ID: 10, LgID: 1, Fio: "Магистр Верхний", MagistrID: 1, DirectorID: 1},
				9:  {ID: 90, LgID: 9, Fio: "Магистр", MagistrID: 9, DirectorID: 9, UIDParent: 1},
				7:  {ID: 70, LgID: 7, Fio: "Директор Петров", MagistrID: 9, DirectorID: 7, UIDParent: 9},
				42: {ID: 420, LgID: 42, Login: "ivan", Fio: "Иванов Иван", Phone: "+70000000000", MagistrID: 9, DirectorID: 7, UIDParent: 7},
				50: {ID: 500, LgID: 50, MagistrID: 9, DirectorID: 77},
			},
			directors:  map[uint64]map[uint64]string{9: {7: "Директор Петров"}},
			downstream: map[uint64][]uint64{9: {7}},
		},
		seminars: &fakeSeminars{
			seminars: map[uint64]model.Seminar{
				2: {ID: 2, Name: "Основы", Level: 3, Ed: 100, Jk: 2, PermissionID: &perm, NecessarilyPassed: &prereq},
				3: {ID: 3, Name: "Без лицензии", Level: 1},
			},
			events: map[uint64]model.Event{100: {ID: 100, SeminarID: 2}},
		},
		eventUsers:    &fakeEventUsers{},
		management:    &fakeManagement{},
		licenses:      &fakeLicenses{},
		stats:         &fakeStats{},
		eligibility:   &fakeEligibility{},
		notifications: &fakeNotifications{},
		publisher:     &fakePublisher{},
		now:           fixedNow,
	}
	f.svc = New(Deps{
		Users: f.users, Seminars: f.seminars, EventUsers: f.eventUsers, Management: f.management,
		Licenses: f.licenses, Statistics: f.stats, Eligibility: f.eligibility,
		Notifications: f.notifications, Publisher: f.publisher,
		Now:      func() time.Time { return f.now },
		CodeCost: bcrypt.MinCost,
	})
	return f
}

func lgIDs(users []model.User) []uint64 {
	out := make([]uint64, len(users))
	for i, u := range users {
		out[i] = u.LgID
	}
	return out
}

func TestGetParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	magister, err := f.svc.GetParent(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, []uint64{9, 1}, lgIDs(magister))

	director, err := f.svc.GetParent(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []uint64{9}, lgIDs(director))

	consultant, err := f.svc.GetParent(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, []uint64{7}, lgIDs(consultant))

	root, err := f.svc.GetParent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, lgIDs(root))

	orphan, err := f.svc.GetParent(ctx, 50)
	require.NoError(t, err)
	assert.Empty(t, orphan)

	_, err = f.svc.GetParent(ctx, 404)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserUnits_RejectsBadWindow(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UserUnits(context.Background(), 42, model.DateRange{From: fixedNow, To: fixedNow.AddDate(0, 0, -1)})
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = f.svc.UserUnits(context.Background(), 42, model.DateRange{})
	assert.ErrorIs(t, err, ErrInvalidWindow)

	res, err := f.svc.UserUnits(context.Background(), 42, model.DateRange{From: fixedNow, To: fixedNow})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), res.User.LgID)
}

func TestEligibleUsers_BuildsSeminarGate(t *testing.T) {
	f := newFixture(t)
	f.svc.enforceThresholds = true
	window := &model.DateRange{From: fixedNow.AddDate(0, -1, 0), To: fixedNow}

	_, err := f.svc.EligibleUsers(context.Background(), EligibilityRequest{
		SeminarID: 2, Directors: []uint64{7}, RequirePrerequisite: true, Window: window,
	})
	require.NoError(t, err)

	q := f.eligibility.last
	assert.Equal(t, 3, q.SeminarLevel)
	require.NotNil(t, q.PermissionID)
	assert.Equal(t, uint64(4), *q.PermissionID)
	assert.True(t, q.RequirePrerequisite)
	assert.True(t, q.EnforceThresholds)
	assert.Equal(t, 100.0, q.MinUnits)
	assert.Equal(t, 2, q.MinCorporate)

	_, err = f.svc.EligibleUsers(context.Background(), EligibilityRequest{SeminarID: 99})
	assert.ErrorIs(t, err, repository.ErrSeminarNotFound)
}

func TestEligibleUsers_FlagsThresholdsWhenNotEnforced(t *testing.T) {
	f := newFixture(t)
	f.eligibility.rows = []repository.EligibleUser{
		{User: model.User{LgID: 42}, Totals: &model.UnitTotals{UnitsSum: 120, Corporate: 2}},
		{User: model.User{LgID: 43}, Totals: &model.UnitTotals{UnitsSum: 120, Corporate: 1}},
		{User: model.User{LgID: 44}},
	}
	window := &model.DateRange{From: fixedNow.AddDate(0, -1, 0), To: fixedNow}

	out, err := f.svc.EligibleUsers(context.Background(), EligibilityRequest{SeminarID: 2, Directors: []uint64{7}, Window: window})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.False(t, f.eligibility.last.EnforceThresholds)
	require.NotNil(t, out[0].MeetsThresholds)
	assert.True(t, *out[0].MeetsThresholds)
	require.NotNil(t, out[1].MeetsThresholds)
	assert.False(t, *out[1].MeetsThresholds)
	assert.Nil(t, out[2].MeetsThresholds)
}

func TestStatisticsExport_FlattensRows(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	f.stats.rows = []repository.StatisticRow{
		{Login: "ivan", Fio: "Иванов Иван", Level: 2, DirectorID: 7, EventFullName: "Весна", TimeStartEvent: &start, Status: "Участник"},
		{Login: "anon", Fio: "Без даты", Level: 1, DirectorID: 8, EventFullName: "Осень", Status: "Лектор"},
	}

	table, err := f.svc.StatisticsExport(context.Background(), repository.Scope{Kind: repository.ScopeMagister, LgID: 9}, repository.RoleAll, repository.StatisticFilters{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Логин", "ФИО", "Уровень", "Директор", "Мероприятие", "Месяц", "Год", "Статус"}, table.Headings)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"ivan", "Иванов Иван", "Уровень 2", "Директор Петров", "Весна", "Март", "2024", "Участник"}, table.Rows[0])
	assert.Equal(t, []string{"anon", "Без даты", "Уровень 1", "", "Осень", "", "", "Лектор"}, table.Rows[1])
	assert.Nil(t, f.stats.paging[0], "export must not paginate")
}

func TestStatistics_PaginatesAndChecksHead(t *testing.T) {
	f := newFixture(t)
	f.stats.rows = []repository.StatisticRow{{Login: "ivan"}}
	page := &repository.Paging{Page: 2, Limit: 10}

	res, err := f.svc.Statistics(context.Background(), repository.Scope{Kind: repository.ScopeDirector, LgID: 7}, repository.RoleMembers, repository.StatisticFilters{}, page)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 10, res.Limit)
	assert.Same(t, page, f.stats.paging[0])

	_, err = f.svc.Statistics(context.Background(), repository.Scope{LgID: 404}, repository.RoleAll, repository.StatisticFilters{}, page)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestNotPassedExport_DirectorScopeUsesHead(t *testing.T) {
	f := newFixture(t)
	f.stats.notPassed = []repository.NotPassedRow{{Login: "ivan", Fio: "Иванов Иван", Level: 2, DirectorID: 7}}

	table, err := f.svc.NotPassedExport(context.Background(), repository.Scope{Kind: repository.ScopeDirector, LgID: 7}, repository.StatisticFilters{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Логин", "ФИО", "Уровень", "Директор"}, table.Headings)
	assert.Equal(t, [][]string{{"ivan", "Иванов Иван", "Уровень 2", "Директор Петров"}}, table.Rows)
}

func TestLicenses_RequireSeminarPermission(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Licenses(context.Background(), repository.LicenseCandidates, 3, 9, LicenseFilters{}, nil)
	assert.ErrorIs(t, err, ErrNoLicense)

	_, err = f.svc.Licenses(context.Background(), repository.LicenseCandidates, 2, 9, LicenseFilters{Fio: "Ив"}, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), f.licenses.lastQuery.PermissionID)
	assert.Equal(t, "Ив", f.licenses.lastQuery.Fio)
}

func TestLicensesExport(t *testing.T) {
	f := newFixture(t)
	f.licenses.rows = []repository.LicenseRow{{Login: "ivan", Fio: "Иванов Иван", DirectorID: 7, WatchersCount: 3}}

	table, err := f.svc.LicensesExport(context.Background(), repository.LicenseIssued, 2, 9, LicenseFilters{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Логин", "ФИО", "Директор", "Количество наблюдений"}, table.Headings)
	assert.Equal(t, [][]string{{"ivan", "Иванов Иван", "Директор Петров", "3"}}, table.Rows)
}

func TestCertify_GrantsAndPublishes(t *testing.T) {
	f := newFixture(t)

	cert, err := f.svc.Certify(context.Background(), 2, 420)
	require.NoError(t, err)
	assert.Equal(t, "sertifikats-pdf/2/ivan-ivanov-ivan-sertifikat.pdf", cert.Media)

	require.Len(t, f.licenses.grants, 1)
	assert.Equal(t, uint64(4), f.licenses.grants[0].permissionID)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, queue.LicenseEventsQueue, f.publisher.events[0].queue)
	ev := f.publisher.events[0].event.(queue.LicenseEvent)
	assert.Equal(t, queue.ActionCertify, ev.Action)
	assert.Equal(t, cert.Media, ev.Certificate)
}

func TestSuspendResume_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	require.NoError(t, f.svc.Suspend(context.Background(), 2, 420))
	require.NoError(t, f.svc.Resume(context.Background(), 2, 420))
	assert.Len(t, f.licenses.suspended, 1)
	assert.Len(t, f.licenses.resumed, 1)

	assert.ErrorIs(t, f.svc.Suspend(context.Background(), 2, 9999), repository.ErrUserNotFound)
	assert.ErrorIs(t, f.svc.Resume(context.Background(), 3, 420), ErrNoLicense)
}

func TestParticipation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Recommend(ctx, 100, 420)
	require.NoError(t, err)
	_, err = f.svc.Refuse(ctx, 100, 0, "reason")
	assert.ErrorIs(t, err, repository.ErrEventUserNotFound)
	_, err = f.svc.ConfirmCandidate(ctx, 5)
	require.NoError(t, err)
	_, err = f.svc.RefuseCandidate(ctx, 5, "no")
	require.NoError(t, err)
	_, err = f.svc.SetMember(ctx, 5)
	require.NoError(t, err)
	_, err = f.svc.SetCandidate(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"recommend", "refuse", "confirm", "reject", "member", "candidate"}, f.eventUsers.calls)
}

func TestDirectorCandidates(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.DirectorCandidates(context.Background(), 7, 2, repository.CandidateFilters{Fio: "Ив"}, repository.Sort{}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
	assert.Equal(t, uint64(2), f.management.lastCandidates.SeminarID)

	_, err = f.svc.DirectorCandidates(context.Background(), 7, 99, repository.CandidateFilters{}, repository.Sort{}, nil)
	assert.ErrorIs(t, err, repository.ErrSeminarNotFound)

	_, err = f.svc.DirectorCandidatesOrArchive(context.Background(), 7, true, repository.CandidateFilters{}, repository.Sort{}, nil)
	require.NoError(t, err)
	assert.True(t, f.management.lastCandidates.Archive)
}

func TestEventTab(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.EventTab(ctx, 100, "bogus", nil, 0)
	assert.ErrorIs(t, err, ErrInvalidTab)

	_, err = f.svc.EventTab(ctx, 404, repository.TabMembers, nil, 0)
	assert.ErrorIs(t, err, repository.ErrEventNotFound)

	_, err = f.svc.EventTab(ctx, 100, repository.TabCandidates, nil, 9)
	require.NoError(t, err)
	assert.Equal(t, []uint64{9, 7}, f.management.lastTab.Directors)
	assert.Equal(t, uint64(2), f.management.lastTab.Seminar.ID)

	_, err = f.svc.EventTab(ctx, 100, repository.TabWatchers, []uint64{7}, 9)
	require.NoError(t, err)
	assert.Equal(t, []uint64{7}, f.management.lastTab.Directors)

	for _, tab := range []repository.EventTab{repository.TabDeployment, repository.TabEligible} {
		_, err = f.svc.EventTab(ctx, 100, tab, []uint64{7}, 0)
		require.NoError(t, err, tab)
		assert.Equal(t, tab, f.management.lastTab.Tab)
	}
}

func TestConfirmationCodeLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n, err := f.svc.IssueConfirmationCode(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, uint64(420), n.UserID)
	require.Len(t, f.publisher.events, 1)
	ev := f.publisher.events[0].event.(queue.SMSConfirmationEvent)
	assert.Equal(t, "+70000000000", ev.Phone)
	assert.Len(t, ev.Code, 6)
	assert.NotEqual(t, ev.Code, f.notifications.items[0].CodeHash)

	_, err = f.svc.IssueConfirmationCode(ctx, 42)
	assert.ErrorIs(t, err, ErrCodeStillValid)

	assert.ErrorIs(t, f.svc.CheckConfirmationCode(ctx, 42, "not-it"), ErrCodeNotFound)
	require.NoError(t, f.svc.CheckConfirmationCode(ctx, 42, ev.Code))
	assert.Contains(t, f.notifications.read, n.ID)

	assert.ErrorIs(t, f.svc.CheckConfirmationCode(ctx, 42, ev.Code), ErrCodeNotFound, "a read code cannot be reused")
}

func TestConfirmationCodeExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.IssueConfirmationCode(ctx, 42)
	require.NoError(t, err)
	code := f.publisher.events[0].event.(queue.SMSConfirmationEvent).Code

	f.now = fixedNow.Add(6 * time.Minute)
	assert.ErrorIs(t, f.svc.CheckConfirmationCode(ctx, 42, code), ErrCodeExpired)

	// An expired code no longer blocks issuing a new one.
	_, err = f.svc.IssueConfirmationCode(ctx, 42)
	require.NoError(t, err)
}

func TestIssueConfirmationCode_DeliveryFailure(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")
	_, err := f.svc.IssueConfirmationCode(context.Background(), 42)
	assert.ErrorIs(t, err, ErrDeliveryUnavailable)

	_, err = f.svc.IssueConfirmationCode(context.Background(), 404)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestIssueConfirmationCode_RetryAfterDeliveryFailure(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")
	_, err := f.svc.IssueConfirmationCode(context.Background(), 42)
	require.ErrorIs(t, err, ErrDeliveryUnavailable)

	f.publisher.err = nil
	n, err := f.svc.IssueConfirmationCode(context.Background(), 42)
	require.NoError(t, err)
	assert.Len(t, f.publisher.events, 1)

	unread, err := f.notifications.Unread(context.Background(), 420, model.SMSConfirmation)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, n.ID, unread[0].ID)
}

func TestIssueConfirmationCode_NoPublisherStoresNothing(t *testing.T) {
	f := newFixture(t)
	svc := New(Deps{Users: f.users, Notifications: f.notifications, Now: func() time.Time { return f.now }})

	_, err := svc.IssueConfirmationCode(context.Background(), 42)
	assert.ErrorIs(t, err, ErrDeliveryUnavailable)
	assert.Empty(t, f.notifications.items)
}
