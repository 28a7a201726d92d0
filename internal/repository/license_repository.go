package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/training-events/internal/model"
)

// LicenseRepo lists and mutates the licenses (permissions) a seminar grants.
type LicenseRepo struct {
	db *sql.DB // writes run in transactions via withTx
}

func NewLicenseRepo(db *sql.DB) *LicenseRepo { return &LicenseRepo{db: db} }

// LicenseList selects which license list to read.
type LicenseList int

const (
	LicenseCandidates LicenseList = iota
	LicenseIssued
	LicenseSuspended
)

// LicenseQuery scopes a license list to a seminar and a magister's subtree.
type LicenseQuery struct {
	List          LicenseList
	Seminar       model.Seminar
	PermissionID  uint64  // the permission the seminar issues
	MagisterID    uint64  // lg_id whose subtree is listed
	Fio           string  // LIKE
	Login         string  // exact match
	Level         *int    // exact match
	DirectorID    *uint64 // exact match
	WatchersCount *int    // HAVING watchers_count = ?
	Sort          Sort
}

type LicenseRow struct {
	ID               uint64  `json:"id"`
	LgID             uint64  `json:"lg_id"`
	Login            string  `json:"login"`
	Fio              string  `json:"fio"`
	Level            int     `json:"level"`
	DirectorID       uint64  `json:"director_id"`
	WatchersCount    int     `json:"watchers_count"`
	CertificateMedia *string `json:"sertifikat,omitempty"`
}

var licenseSort = map[string]string{
	"id":             "u.id",
	"fio":            "u.fio",
	"login":          "u.login",
	"level":          "u.level",
	"director_id":    "u.director_id",
	"watchers_count": "watchers_count",
}

const hasPermissionSQL = `EXISTS (SELECT 1 FROM user_permissions up WHERE up.user_id = u.id AND up.permission_id = ?)`

const hasSuspensionSQL = `EXISTS (SELECT 1 FROM suspended_licenses sl WHERE sl.user_id = u.id AND sl.permission_id = ?)`

// List reads one of the license lists. watchers_count counts confirmed
// watcher rows on events of the seminar.
func (r *LicenseRepo) List(ctx context.Context, q LicenseQuery, p *Paging) ([]LicenseRow, int64, error) {
	args := []any{q.Seminar.ID}
	media := "NULL"
	if q.List == LicenseIssued {
		media = "(SELECT c.media FROM sertifikats c WHERE c.user_id = u.id AND c.seminar_id = ? LIMIT 1)"
		args = append(args, q.Seminar.ID)
	}

	w := where{}
	w.add("u.structure_path LIKE ?", pathLike(q.MagisterID))
	switch q.List {
	case LicenseIssued:
		w.add(hasPermissionSQL, q.PermissionID)
	case LicenseSuspended:
		w.add(hasSuspensionSQL, q.PermissionID)
	default:
		w.add("u.level >= ?", q.Seminar.LicenseLevel)
		w.add("NOT "+hasPermissionSQL, q.PermissionID)
		w.add("NOT "+hasSuspensionSQL, q.PermissionID)
	}
	if q.Fio != "" {
		w.add("u.fio LIKE ?", contains(q.Fio))
	}
	if q.Login != "" {
		w.add("u.login = ?", q.Login)
	}
	if q.Level != nil {
		w.add("u.level = ?", *q.Level)
	}
	if q.DirectorID != nil {
		w.add("u.director_id = ?", *q.DirectorID)
	}
	args = append(args, w.args...)

	having := where{}
	if q.List == LicenseCandidates {
		having.add("watchers_count >= ?", q.Seminar.CountOfWatching)
	}
	if q.WatchersCount != nil {
		having.add("watchers_count = ?", *q.WatchersCount)
	}
	args = append(args, having.args...)

	base := `SELECT u.id, u.lg_id, u.login, u.fio, u.level, COALESCE(u.director_id, 0),
			(SELECT COUNT(*) FROM event_watchers ew
				JOIN events e ON e.id = ew.event_id
				WHERE ew.user_id = u.id AND ew.status = 1 AND e.seminar_id = ?) AS watchers_count,
			` + media + ` AS sertifikat
		FROM users u` + w.sql() + having.clause("HAVING")

	return list(ctx, r.db, base, args, orderBy(q.Sort, licenseSort, "u.id"), p,
		func(rows *sql.Rows) (LicenseRow, error) {
			var l LicenseRow
			err := rows.Scan(&l.ID, &l.LgID, &l.Login, &l.Fio, &l.Level, &l.DirectorID, &l.WatchersCount, &l.CertificateMedia)
			return l, err
		})
}

// Grant gives the user the permission and, when cert is set, records the
// certificate issued with it.
func (r *LicenseRepo) Grant(ctx context.Context, userID, permissionID uint64, cert *model.Certificate) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT IGNORE INTO user_permissions (user_id, permission_id) VALUES (?, ?)", userID, permissionID); err != nil {
			return err
		}
		if cert == nil {
			return nil
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sertifikats (user_id, seminar_id, media) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE media = VALUES(media)`, cert.UserID, cert.SeminarID, cert.Media)
		return err
	})
}

// Suspend revokes the permission and records the suspension.
func (r *LicenseRepo) Suspend(ctx context.Context, userID, permissionID uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM user_permissions WHERE user_id = ? AND permission_id = ?", userID, permissionID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO suspended_licenses (user_id, permission_id) VALUES (?, ?)", userID, permissionID)
		return err
	})
}

// Resume restores the permission and clears its suspension. Suspensions of
// other permissions are left alone.
func (r *LicenseRepo) Resume(ctx context.Context, userID, permissionID uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT IGNORE INTO user_permissions (user_id, permission_id) VALUES (?, ?)", userID, permissionID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"DELETE FROM suspended_licenses WHERE user_id = ? AND permission_id = ?", userID, permissionID)
		return err
	})
}
