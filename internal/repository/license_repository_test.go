package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/training-events/internal/model"
)

var licenseCols = []string{"id", "lg_id", "login", "fio", "level", "director_id", "watchers_count", "sertifikat"}

func testSeminar() model.Seminar {
	perm := uint64(4)
	return model.Seminar{ID: 2, Name: "Основы", LicenseLevel: 3, CountOfWatching: 2, PermissionID: &perm}
}

func TestLicenseRepo_Candidates(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLicenseRepo(db)
	dir := uint64(7)

	mock.ExpectQuery(`e.seminar_id = \?\) AS watchers_count, NULL AS sertifikat FROM users u WHERE u.structure_path LIKE \? AND u.level >= \? AND NOT EXISTS \(SELECT 1 FROM user_permissions .*\) AND NOT EXISTS \(SELECT 1 FROM suspended_licenses .*\) AND u.director_id = \? HAVING watchers_count >= \? ORDER BY u.fio ASC$`).
		WithArgs(2, "%-9-%", 3, 4, 4, 7, 2).
		WillReturnRows(sqlmock.NewRows(licenseCols).AddRow(1, 11, "a", "Антонов", 4, 7, 3, nil))

	rows, total, err := repo.List(context.Background(), LicenseQuery{
		List: LicenseCandidates, Seminar: testSeminar(), PermissionID: 4, MagisterID: 9,
		DirectorID: &dir, Sort: Sort{Column: "fio"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, 3, rows[0].WatchersCount)
	assert.Nil(t, rows[0].CertificateMedia)
}

func TestLicenseRepo_IssuedWithCertificateAndWatchersFilter(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLicenseRepo(db)
	watched := 5

	mock.ExpectQuery(`\(SELECT c.media FROM sertifikats c WHERE c.user_id = u.id AND c.seminar_id = \? LIMIT 1\) AS sertifikat FROM users u WHERE u.structure_path LIKE \? AND EXISTS \(SELECT 1 FROM user_permissions up .*\) HAVING watchers_count = \? ORDER BY u.id$`).
		WithArgs(2, 2, "%-9-%", 4, 5).
		WillReturnRows(sqlmock.NewRows(licenseCols).AddRow(1, 11, "a", "Антонов", 4, 7, 5, "sertifikats-pdf/2/a-antonov-sertifikat.pdf"))

	rows, _, err := repo.List(context.Background(), LicenseQuery{
		List: LicenseIssued, Seminar: testSeminar(), PermissionID: 4, MagisterID: 9, WatchersCount: &watched,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, rows[0].CertificateMedia)
	assert.Equal(t, "sertifikats-pdf/2/a-antonov-sertifikat.pdf", *rows[0].CertificateMedia)
}

func TestLicenseRepo_Suspended(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLicenseRepo(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM \(.*EXISTS \(SELECT 1 FROM suspended_licenses sl .*\) AS counted`).
		WithArgs(2, "%-9-%", 4, "%Ант%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`u.fio LIKE \? ORDER BY u.id LIMIT \? OFFSET \?`).
		WithArgs(2, "%-9-%", 4, "%Ант%", 10, 0).
		WillReturnRows(sqlmock.NewRows(licenseCols))

	rows, total, err := repo.List(context.Background(), LicenseQuery{
		List: LicenseSuspended, Seminar: testSeminar(), PermissionID: 4, MagisterID: 9, Fio: "Ант",
	}, &Paging{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, rows)
}

func TestLicenseRepo_GrantWithCertificate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLicenseRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT IGNORE INTO user_permissions`).WithArgs(1, 4).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO sertifikats .* ON DUPLICATE KEY UPDATE`).
		WithArgs(1, 2, "sertifikats-pdf/2/a-b-sertifikat.pdf").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Grant(context.Background(), 1, 4, &model.Certificate{UserID: 1, SeminarID: 2, Media: "sertifikats-pdf/2/a-b-sertifikat.pdf"})
	require.NoError(t, err)
}

func TestLicenseRepo_SuspendRollsBackOnFailure(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLicenseRepo(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM user_permissions WHERE user_id = \? AND permission_id = \?`).
		WithArgs(1, 4).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO suspended_licenses`).WithArgs(1, 4).WillReturnError(boom)
	mock.ExpectRollback()

	err := repo.Suspend(context.Background(), 1, 4)
	assert.ErrorIs(t, err, boom)
}

func TestLicenseRepo_ResumeClearsOnlyThatPermission(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLicenseRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT IGNORE INTO user_permissions`).WithArgs(1, 4).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM suspended_licenses WHERE user_id = \? AND permission_id = \?`).
		WithArgs(1, 4).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Resume(context.Background(), 1, 4))
}
