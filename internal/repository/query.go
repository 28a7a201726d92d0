package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/training-events/internal/model"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// Paging selects one page of a list. A nil *Paging returns every row; the
// export path relies on that to materialize the same query unpaginated.
type Paging struct {
	Page  int // 1-based; values below 1 read the first page
	Limit int // rows per page
}

func (p *Paging) offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Sort is a caller supplied ordering. Column is an API name and is only
// used after it has been looked up in a per-query whitelist.
type Sort struct {
	Column    string // API column name, mapped through a whitelist
	Direction string // "asc" or "desc", case-insensitive
}

func (s Sort) direction() string {
	if strings.EqualFold(strings.TrimSpace(s.Direction), "desc") {
		return "DESC"
	}
	return "ASC"
}

// orderBy renders an ORDER BY clause. Unknown columns fall back to def.
func orderBy(s Sort, allowed map[string]string, def string) string {
	if expr, ok := allowed[strings.ToLower(strings.TrimSpace(s.Column))]; ok {
		return " ORDER BY " + expr + " " + s.direction()
	}
	return " ORDER BY " + def
}

// where accumulates AND-ed conditions and their arguments.
type where struct {
	conds []string // joined with AND
	args  []any    // placeholder values in condition order
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) sql() string { return w.clause("WHERE") }

// clause renders the conditions behind keyword, or nothing when empty.
func (w *where) clause(keyword string) string {
	if len(w.conds) == 0 {
		return ""
	}
	return " " + keyword + " " + strings.Join(w.conds, " AND ")
}

// contains builds a LIKE argument matching s anywhere, with LIKE
// metacharacters escaped.
func contains(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// pathLike matches structure paths that contain id as a segment.
func pathLike(id uint64) string {
	return "%" + model.PathSegment(id) + "%"
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []uint64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

func nullID(id uint64) any {
	if id == 0 {
		return nil
	}
	return id
}

// list runs base (a full SELECT without ORDER BY) with order appended.
// With paging it also counts the unpaginated rows and applies LIMIT/OFFSET,
// so both paths read the same row set.
func list[T any](ctx context.Context, q querier, base string, args []any, order string, p *Paging, scan func(*sql.Rows) (T, error)) ([]T, int64, error) {
	query := base + order
	qargs := args
	var total int64
	if p != nil {
		countSQL := "SELECT COUNT(*) FROM (" + base + ") AS counted"
		if err := q.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count: %w", err)
		}
		query += " LIMIT ? OFFSET ?"
		qargs = append(append([]any{}, args...), p.Limit, p.offset())
	}

	rows, err := q.QueryContext(ctx, query, qargs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if p == nil {
		total = int64(len(out))
	}
	return out, total, nil
}

// withTx runs fn inside a transaction and commits when it returns nil.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// unitTotalsSQL renders units_sum, virtual_cooperative_sum and corporate
// for the users row aliased u, over the window [from, to]. from and to are
// SQL expressions: either column references or "?" placeholders, in which
// case windowArgs supplies the matching arguments.
func unitTotalsSQL(from, to string) string {
	coop := fmt.Sprintf(`(SELECT IFNULL(SUM(vc.coop_count), 0) FROM virtual_cooperatives vc
			WHERE vc.consult_id = u.lg_id AND vc.date_create BETWEEN %s AND %s)`, from, to)
	return fmt.Sprintf(`(SELECT IFNULL(ROUND(SUM(un.amount), 2), 0) FROM units un
			WHERE un.consult_id = u.lg_id AND un.date BETWEEN %[1]s AND %[2]s) AS units_sum,
		%[3]s AS virtual_cooperative_sum,
		((SELECT COUNT(DISTINCT un.operation_id) FROM units un
			WHERE un.consult_id = u.lg_id AND un.date BETWEEN %[1]s AND %[2]s AND un.product_id = %[4]d) + %[3]s) AS corporate`,
		from, to, coop, model.CorporateProductID)
}

// windowArgs returns the arguments for unitTotalsSQL("?", "?").
func windowArgs(w model.DateRange) []any {
	return rangeArgs(w.From, w.To)
}

// rangeArgs is windowArgs for bounds that may be NULL, in which case every
// aggregate is zero.
func rangeArgs(from, to any) []any {
	args := make([]any, 0, 8)
	for i := 0; i < 4; i++ {
		args = append(args, from, to)
	}
	return args
}

// passedSeminarSQL is true when u has been a member who passed a past event
// of the seminar bound to its single placeholder.
const passedSeminarSQL = `EXISTS (SELECT 1 FROM events_users pm
	JOIN events pe ON pe.id = pm.event_id
	WHERE pm.user_id = u.id AND pm.member = 1 AND pm.passed = 1 AND pe.status = 3 AND pe.seminar_id = ?)`

const userColumns = `u.id, u.lg_id, u.login, u.fio, u.phone, u.level,
	COALESCE(u.director_id, 0), COALESCE(u.magistr_id, 0), COALESCE(u.uid_parent, 0),
	u.structure_path, u.speaker, u.banned, u.created_at, u.updated_at`

// userDest returns scan destinations matching userColumns.
func userDest(u *model.User) []any {
	return []any{
		&u.ID, &u.LgID, &u.Login, &u.Fio, &u.Phone, &u.Level,
		&u.DirectorID, &u.MagistrID, &u.UIDParent,
		&u.StructurePath, &u.Speaker, &u.Banned, &u.CreatedAt, &u.UpdatedAt,
	}
}

func totalsDest(t *model.UnitTotals) []any {
	return []any{&t.UnitsSum, &t.VirtualCooperativeSum, &t.Corporate}
}
