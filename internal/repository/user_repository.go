package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/iliyamo/training-events/internal/model"
)

// UserRepo reads and writes the users table and the hierarchy encoded in it.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) getOne(ctx context.Context, cond string, arg any) (*model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users u WHERE "+cond+" LIMIT 1", arg).Scan(userDest(&u)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByLgID returns the user with the given platform id.
func (r *UserRepo) GetByLgID(ctx context.Context, lgID uint64) (*model.User, error) {
	return r.getOne(ctx, "u.lg_id = ?", lgID)
}

// GetByID returns the user with the given primary key.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.getOne(ctx, "u.id = ?", id)
}

// DownstreamDirectorIDs returns lgID followed by the lg_id of every director
// whose structure path passes through lgID.
func (r *UserRepo) DownstreamDirectorIDs(ctx context.Context, lgID uint64) ([]uint64, error) {
	const q = `SELECT u.lg_id FROM users u
		WHERE u.lg_id = u.director_id AND u.structure_path LIKE ? AND u.lg_id <> ?
		ORDER BY u.lg_id`
	rows, err := r.db.QueryContext(ctx, q, pathLike(lgID), lgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uint64{lgID}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DownstreamUsers returns every user whose structure path contains lgID,
// including the user itself.
func (r *UserRepo) DownstreamUsers(ctx context.Context, lgID uint64) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users u WHERE u.structure_path LIKE ? ORDER BY u.id", pathLike(lgID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(userDest(&u)...); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// DirectorsForMagister maps lg_id to fio for the directors under a magister.
func (r *UserRepo) DirectorsForMagister(ctx context.Context, magisterLgID uint64) (map[uint64]string, error) {
	const q = `SELECT u.lg_id, u.fio FROM users u WHERE u.magistr_id = ? AND u.lg_id = u.director_id`
	rows, err := r.db.QueryContext(ctx, q, magisterLgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uint64]string)
	for rows.Next() {
		var (
			id  uint64
			fio string
		)
		if err := rows.Scan(&id, &fio); err != nil {
			return nil, err
		}
		out[id] = fio
	}
	return out, rows.Err()
}

// UpdateOrCreate upserts u keyed by lg_id and returns the stored row. An
// empty StructurePath is derived from the parent's path.
func (r *UserRepo) UpdateOrCreate(ctx context.Context, u model.User) (*model.User, error) {
	if u.StructurePath == "" {
		parentPath := ""
		if u.UIDParent != 0 {
			err := r.db.QueryRowContext(ctx,
				"SELECT structure_path FROM users WHERE lg_id = ? LIMIT 1", u.UIDParent).Scan(&parentPath)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return nil, err
			}
		}
		u.StructurePath = model.ChildPath(parentPath, u.LgID)
	}

	const q = `INSERT INTO users
		(lg_id, login, fio, phone, level, director_id, magistr_id, uid_parent, structure_path, banned)
		VALUES (?,?,?,?,?,?,?,?,?,?)
		ON DUPLICATE KEY UPDATE
			login = VALUES(login), fio = VALUES(fio), phone = VALUES(phone), level = VALUES(level),
			director_id = VALUES(director_id), magistr_id = VALUES(magistr_id),
			uid_parent = VALUES(uid_parent), structure_path = VALUES(structure_path),
			banned = VALUES(banned)`
	if _, err := r.db.ExecContext(ctx, q,
		u.LgID, u.Login, u.Fio, u.Phone, u.Level,
		nullID(u.DirectorID), nullID(u.MagistrID), nullID(u.UIDParent),
		u.StructurePath, u.Banned,
	); err != nil {
		return nil, err
	}
	return r.GetByLgID(ctx, u.LgID)
}

// SetSpeaker sets the speaker flag and returns the updated user.
func (r *UserRepo) SetSpeaker(ctx context.Context, id uint64, speaker bool) (*model.User, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET speaker = ? WHERE id = ?", speaker, id)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrUserNotFound
	}
	return r.GetByID(ctx, id)
}

// SpeakersByDirectors returns the non-banned directors among directorIDs
// whose seminar access includes seminarID.
func (r *UserRepo) SpeakersByDirectors(ctx context.Context, directorIDs []uint64, seminarID uint64) ([]model.SpeakerOption, error) {
	out := make([]model.SpeakerOption, 0)
	if len(directorIDs) == 0 {
		return out, nil
	}
	q := `SELECT u.id, u.fio, COALESCE(u.director_id, 0), u.level, d.seminar_access,
			(SELECT COUNT(*) FROM event_watchers ew WHERE ew.user_id = u.id) AS event_watchers_count
		FROM users u
		LEFT JOIN user_details d ON d.user_id = u.id
		WHERE u.banned = 0 AND u.lg_id = u.director_id AND u.director_id IN (` + placeholders(len(directorIDs)) + `)
		ORDER BY u.fio`
	rows, err := r.db.QueryContext(ctx, q, idArgs(directorIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			o       model.SpeakerOption
			access  []byte
			watched int
		)
		if err := rows.Scan(&o.ID, &o.Label, &o.DirectorID, &o.Level, &access, &watched); err != nil {
			return nil, err
		}
		if !slices.Contains(parseSeminarAccess(access), seminarID) {
			continue
		}
		o.EventWatchersCount = &watched
		out = append(out, o)
	}
	return out, rows.Err()
}

// SpeakersForTicket returns the non-banned users of the given directors.
func (r *UserRepo) SpeakersForTicket(ctx context.Context, directorIDs []uint64) ([]model.SpeakerOption, error) {
	out := make([]model.SpeakerOption, 0)
	if len(directorIDs) == 0 {
		return out, nil
	}
	q := `SELECT u.id, u.fio, COALESCE(u.director_id, 0), u.level FROM users u
		WHERE u.banned = 0 AND u.director_id IN (` + placeholders(len(directorIDs)) + `)
		ORDER BY u.fio`
	rows, err := r.db.QueryContext(ctx, q, idArgs(directorIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var o model.SpeakerOption
		if err := rows.Scan(&o.ID, &o.Label, &o.DirectorID, &o.Level); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// SpeakerFilterUsers returns users at or above minLevel with their seminar access.
func (r *UserRepo) SpeakerFilterUsers(ctx context.Context, minLevel int) ([]model.SpeakerCandidate, error) {
	const q = `SELECT u.id, u.level, d.seminar_access FROM users u
		LEFT JOIN user_details d ON d.user_id = u.id
		WHERE u.level >= ? ORDER BY u.id`
	rows, err := r.db.QueryContext(ctx, q, minLevel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.SpeakerCandidate, 0)
	for rows.Next() {
		var (
			c      model.SpeakerCandidate
			access []byte
		)
		if err := rows.Scan(&c.ID, &c.Level, &access); err != nil {
			return nil, err
		}
		c.SeminarAccess = parseSeminarAccess(access)
		out = append(out, c)
	}
	return out, rows.Err()
}

// UnitsBetween returns the user with its unit totals and per-operation
// breakdown for the window.
func (r *UserRepo) UnitsBetween(ctx context.Context, lgID uint64, w model.DateRange) (*model.UserUnits, error) {
	var res model.UserUnits
	q := "SELECT " + userColumns + ", " + unitTotalsSQL("?", "?") + " FROM users u WHERE u.lg_id = ? LIMIT 1"
	args := append(windowArgs(w), lgID)
	dest := append(userDest(&res.User), totalsDest(&res.Totals)...)
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	const ops = `SELECT un.type, un.product_id, un.consult_id, un.operation_id, ROUND(SUM(un.amount), 2)
		FROM units un
		WHERE un.consult_id = ? AND un.date BETWEEN ? AND ?
		GROUP BY un.operation_id, un.type, un.product_id, un.consult_id
		ORDER BY un.operation_id`
	rows, err := r.db.QueryContext(ctx, ops, lgID, w.From, w.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res.Operations = make([]model.UnitOperation, 0)
	for rows.Next() {
		var op model.UnitOperation
		if err := rows.Scan(&op.Type, &op.ProductID, &op.ConsultID, &op.OperationID, &op.Units); err != nil {
			return nil, err
		}
		res.Operations = append(res.Operations, op)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &res, nil
}

// parseSeminarAccess decodes user_details.seminar_access, a JSON array whose
// items may be numbers or numeric strings. Malformed input yields nil.
func parseSeminarAccess(raw []byte) []uint64 {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]uint64, 0, len(items))
	for _, it := range items {
		s := strings.Trim(strings.TrimSpace(string(it)), `"`)
		if id, err := strconv.ParseUint(s, 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}
