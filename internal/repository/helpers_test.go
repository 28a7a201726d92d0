package repository

import (
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/training-events/internal/model"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

var userCols = []string{
	"id", "lg_id", "login", "fio", "phone", "level",
	"director_id", "magistr_id", "uid_parent",
	"structure_path", "speaker", "banned", "created_at", "updated_at",
}

func userValues(u model.User) []driver.Value {
	return []driver.Value{
		u.ID, u.LgID, u.Login, u.Fio, u.Phone, u.Level,
		u.DirectorID, u.MagistrID, u.UIDParent,
		u.StructurePath, u.Speaker, u.Banned, testNow, testNow,
	}
}

func userRows(users ...model.User) *sqlmock.Rows {
	rows := sqlmock.NewRows(userCols)
	for _, u := range users {
		rows.AddRow(userValues(u)...)
	}
	return rows
}

var totalsCols = []string{"units_sum", "virtual_cooperative_sum", "corporate"}

func cols(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func vals(groups ...[]driver.Value) []driver.Value {
	var out []driver.Value
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
