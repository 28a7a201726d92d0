package repository

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/training-events/internal/model"
)

var candidateCols = []string{
	"pivot_id", "user_id", "login", "fio", "level",
	"event_id", "event_status", "country", "city", "event_full_name", "start_event",
	"the_date_of_the_beginning", "expiration_date", "user_name",
	"seminar_id", "seminar_level", "seminar_ed", "seminar_jk", "director_recommendation",
	"units_sum", "virtual_cooperative_sum", "corporate",
}

func TestManagementRepo_EventCandidatesForSeminar(t *testing.T) {
	db, mock := newMock(t)
	repo := NewManagementRepo(db)

	mock.ExpectQuery(`un.date BETWEEN e.the_date_of_the_beginning AND e.expiration_date .* WHERE u.director_id = \? AND eu.candidate = \? AND eu.director_recommendation = \? AND e.seminar_id = \? AND e.status = \? AND u.fio LIKE \? ORDER BY e.start_event DESC, eu.id$`).
		WithArgs(7, model.Candidate, model.NotReviewed, 2, model.EventPlanned, "%Ив%").
		WillReturnRows(sqlmock.NewRows(candidateCols).AddRow(
			5, 1, "ivan", "Иванов", 3,
			100, 1, "RU", "Москва", "Весна", testNow,
			testNow, testNow, "Организатор Орг",
			2, 3, 100.0, 2, 0,
			150.25, 1, 3,
		))

	rows, total, err := repo.EventCandidates(context.Background(), EventCandidateQuery{
		DirectorID: 7, SeminarID: 2, Filters: CandidateFilters{Fio: "Ив"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, 150.25, rows[0].Totals.UnitsSum)
	assert.Equal(t, 3, rows[0].Totals.Corporate)
}

func TestManagementRepo_EventCandidatesArchive(t *testing.T) {
	db, mock := newMock(t)
	repo := NewManagementRepo(db)
	status := model.Refused

	mock.ExpectQuery(`WHERE u.director_id = \? AND e.status = \? AND e.city LIKE \? AND eu.director_recommendation = \? ORDER BY e.city DESC$`).
		WithArgs(7, model.EventPast, "%Каз%", model.Refused).
		WillReturnRows(sqlmock.NewRows(candidateCols))

	_, _, err := repo.EventCandidates(context.Background(), EventCandidateQuery{
		DirectorID: 7, Archive: true,
		Filters: CandidateFilters{City: "Каз", Status: &status},
		Sort:    Sort{Column: "city", Direction: "DESC"},
	}, nil)
	require.NoError(t, err)
}

func TestManagementRepo_EventTabCandidatesRequirePrerequisite(t *testing.T) {
	db, mock := newMock(t)
	repo := NewManagementRepo(db)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	prereq := uint64(1)

	rowCols := cols(userCols, totalsCols, pivotCols)
	mock.ExpectQuery(`JOIN events_users eu ON eu.user_id = u.id AND eu.event_id = \? WHERE u.director_id IN \(\?,\?\) AND eu.candidate = 1 AND eu.member <> 1 AND EXISTS \(SELECT 1 FROM events_users pm .* pe.seminar_id = \?\) ORDER BY u.fio`).
		WithArgs(from, to, from, to, from, to, from, to, 100, 7, 8, 1).
		WillReturnRows(sqlmock.NewRows(rowCols).AddRow(vals(
			userValues(model.User{ID: 1, LgID: 11, DirectorID: 7}),
			[]driver.Value{10.0, 0, 1},
			[]driver.Value{5, 1, 100, 1, 0, 1, nil, 0, nil, 0, 0},
		)...))

	out, err := repo.EventTabUsers(context.Background(), EventTabQuery{
		Tab:       TabCandidates,
		Event:     model.Event{ID: 100, TheDateOfTheBeginning: &from, ExpirationDate: &to},
		Seminar:   model.Seminar{ID: 2, NecessarilyPassed: &prereq},
		Directors: []uint64{7, 8},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].Pivot)
	assert.Nil(t, out[0].Watcher)
	assert.Equal(t, uint64(5), out[0].Pivot.ID)
}

func TestManagementRepo_EventTabMembersOfFinishedEvent(t *testing.T) {
	db, mock := newMock(t)
	repo := NewManagementRepo(db)

	mock.ExpectQuery(`AND eu.member = 1 AND eu.passed = 1 ORDER BY u.fio`).
		WithArgs(nil, nil, nil, nil, nil, nil, nil, nil, 100, 7).
		WillReturnRows(sqlmock.NewRows(cols(userCols, totalsCols, pivotCols)))

	out, err := repo.EventTabUsers(context.Background(), EventTabQuery{
		Tab:       TabMembers,
		Event:     model.Event{ID: 100, Status: model.EventPast, InProcess: model.NotInProcess},
		Directors: []uint64{7},
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestManagementRepo_EventTabWatchers(t *testing.T) {
	db, mock := newMock(t)
	repo := NewManagementRepo(db)

	mock.ExpectQuery(`ew.id, ew.user_id, ew.event_id, ew.status FROM users u JOIN event_watchers ew ON ew.user_id = u.id AND ew.event_id = \?`).
		WillReturnRows(sqlmock.NewRows(cols(userCols, totalsCols, []string{"id", "user_id", "event_id", "status"})).
			AddRow(vals(userValues(model.User{ID: 1, LgID: 11}), []driver.Value{0.0, 0, 0}, []driver.Value{9, 1, 100, 1})...))

	out, err := repo.EventTabUsers(context.Background(), EventTabQuery{
		Tab: TabWatchers, Event: model.Event{ID: 100}, Directors: []uint64{7},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].Watcher)
	assert.Equal(t, model.Confirmed, out[0].Watcher.Status)
}

func TestManagementRepo_EventTabNoDirectors(t *testing.T) {
	db, _ := newMock(t)
	out, err := NewManagementRepo(db).EventTabUsers(context.Background(), EventTabQuery{Tab: TabMembers})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestManagementRepo_EventTabDeployment(t *testing.T) {
	db, mock := newMock(t)
	repo := NewManagementRepo(db)

	mock.ExpectQuery(`FROM users u JOIN events_users eu ON eu.user_id = u.id AND eu.event_id = \? WHERE u.director_id IN \(\?\) AND eu.getting_deployment = 1 ORDER BY u.fio`).
		WithArgs(nil, nil, nil, nil, nil, nil, nil, nil, 100, 7).
		WillReturnRows(sqlmock.NewRows(cols(userCols, totalsCols, pivotCols)).AddRow(vals(
			userValues(model.User{ID: 1, LgID: 11, DirectorID: 7}),
			[]driver.Value{0.0, 0, 0},
			[]driver.Value{5, 1, 100, 1, 1, 1, nil, 0, nil, 1, 1},
		)...))

	out, err := repo.EventTabUsers(context.Background(), EventTabQuery{
		Tab: TabDeployment, Event: model.Event{ID: 100}, Directors: []uint64{7},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].Pivot)
	assert.Equal(t, model.GettingDeployment, out[0].Pivot.GettingDeployment)
}

func TestManagementRepo_EventTabEligibleMissingPrerequisite(t *testing.T) {
	db, mock := newMock(t)
	repo := NewManagementRepo(db)
	prereq := uint64(1)

	mock.ExpectQuery(`FROM users u WHERE u.director_id IN \(\?,\?\) AND NOT EXISTS \(SELECT 1 FROM events_users pm .* pe.seminar_id = \?\) ORDER BY u.fio`).
		WithArgs(nil, nil, nil, nil, nil, nil, nil, nil, 7, 8, 1).
		WillReturnRows(sqlmock.NewRows(cols(userCols, totalsCols)).
			AddRow(vals(userValues(model.User{ID: 2, LgID: 12, DirectorID: 8}), []driver.Value{40.5, 0, 1})...))

	out, err := repo.EventTabUsers(context.Background(), EventTabQuery{
		Tab:       TabEligible,
		Event:     model.Event{ID: 100},
		Seminar:   model.Seminar{ID: 2, NecessarilyPassed: &prereq},
		Directors: []uint64{7, 8},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Nil(t, out[0].Pivot)
	assert.Nil(t, out[0].Watcher)
	assert.Equal(t, 40.5, out[0].Totals.UnitsSum)
}

func TestManagementRepo_EventTabEligibleNotYetCandidates(t *testing.T) {
	db, mock := newMock(t)
	repo := NewManagementRepo(db)

	mock.ExpectQuery(`WHERE u.director_id IN \(\?\) AND NOT EXISTS \(SELECT 1 FROM events_users ce\s+WHERE ce.user_id = u.id AND ce.event_id = \? AND ce.candidate = 1\) ORDER BY u.fio`).
		WithArgs(nil, nil, nil, nil, nil, nil, nil, nil, 7, 100).
		WillReturnRows(sqlmock.NewRows(cols(userCols, totalsCols)))

	out, err := repo.EventTabUsers(context.Background(), EventTabQuery{
		Tab: TabEligible, Event: model.Event{ID: 100}, Directors: []uint64{7},
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}
