package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// StatisticsRepo reports participation of a magister's or director's
// structure in events.
type StatisticsRepo struct{ db *sql.DB }

func NewStatisticsRepo(db *sql.DB) *StatisticsRepo { return &StatisticsRepo{db: db} }

type ScopeKind int

const (
	ScopeMagister ScopeKind = iota
	ScopeDirector
)

// Scope is the head of the structure a report covers. The head itself is
// excluded from its own report.
type Scope struct {
	Kind ScopeKind
	LgID uint64
}

func (s Scope) apply(w *where) {
	if s.Kind == ScopeMagister {
		w.add("u.magistr_id = ?", s.LgID)
	} else {
		w.add("u.director_id = ?", s.LgID)
	}
	w.add("u.lg_id <> ?", s.LgID)
}

// Role selects which participation tables feed the statistics.
type Role string

const (
	RoleAll        Role = "all"
	RoleMembers    Role = "members"
	RoleWatchers   Role = "watchers"
	RoleSpeakers   Role = "speakers"
	RoleOrganizers Role = "organizers"
)

// ParseRole maps a query value to a Role; unknown values mean RoleAll.
func ParseRole(s string) Role {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleMembers, RoleWatchers, RoleSpeakers, RoleOrganizers:
		return r
	}
	return RoleAll
}

type roleBranch struct {
	role  Role
	label string
	join  string
}

var roleBranches = []roleBranch{
	{RoleMembers, "Участник", `JOIN events_users eu ON eu.user_id = u.id AND eu.member = 1
		JOIN events e ON e.id = eu.event_id`},
	{RoleWatchers, "Наблюдатель", `JOIN event_watchers ew ON ew.user_id = u.id AND ew.status = 1
		JOIN events e ON e.id = ew.event_id`},
	{RoleSpeakers, "Лектор", `JOIN event_speakers es ON es.user_id = u.id AND es.status = 1
		JOIN events e ON e.id = es.event_id`},
	{RoleOrganizers, "Организатор", `JOIN events e ON e.user_id = u.id`},
}

// StatisticFilters narrow the reports. Zero values are ignored.
type StatisticFilters struct {
	Fio           string
	Login         string
	Level         *int
	Month         int
	Year          int
	EventFullName string
	DirectorName  string // magister scope only
	Sort          Sort
}

func (f StatisticFilters) applyUser(w *where, scope Scope) {
	if f.Fio != "" {
		w.add("u.fio LIKE ?", contains(f.Fio))
	}
	if f.Login != "" {
		w.add("u.login = ?", f.Login)
	}
	if f.Level != nil {
		w.add("u.level = ?", *f.Level)
	}
	if f.DirectorName != "" && scope.Kind == ScopeMagister {
		w.add("u.fio LIKE ?", contains(f.DirectorName))
		w.add("u.lg_id = u.director_id")
	}
}

func (f StatisticFilters) applyEvent(w *where) {
	if f.Month != 0 {
		w.add("MONTH(e.time_start_event) = ?", f.Month)
	}
	if f.Year != 0 {
		w.add("YEAR(e.time_start_event) = ?", f.Year)
	}
	if f.EventFullName != "" {
		w.add("e.event_full_name LIKE ?", contains(f.EventFullName))
	}
}

// StatisticRow is one (user, event, role) triple; Status carries the role label.
type StatisticRow struct {
	ID             uint64     `json:"id"`
	LgID           uint64     `json:"lg_id"`
	Login          string     `json:"login"`
	Fio            string     `json:"fio"`
	Level          int        `json:"level"`
	DirectorID     uint64     `json:"director_id"`
	EventID        uint64     `json:"event_id"`
	EventFullName  string     `json:"event_full_name"`
	Country        string     `json:"country"`
	City           string     `json:"city"`
	EventDate      *time.Time `json:"event_date"`
	TimeStartEvent *time.Time `json:"time_start_event"`
	Status         string     `json:"status"`
}

var statisticSort = map[string]string{
	"id":               "id",
	"fio":              "fio",
	"login":            "login",
	"level":            "level",
	"director_id":      "director_id",
	"event_full_name":  "event_full_name",
	"country":          "country",
	"city":             "city",
	"event_date":       "event_date",
	"time_start_event": "time_start_event",
	"status":           "status",
}

// WithEvents returns the participation rows of the scope for role. RoleAll
// is the UNION ALL of every role branch.
func (r *StatisticsRepo) WithEvents(ctx context.Context, scope Scope, role Role, f StatisticFilters, p *Paging) ([]StatisticRow, int64, error) {
	var (
		parts []string
		args  []any
	)
	for _, b := range roleBranches {
		if role != RoleAll && role != b.role {
			continue
		}
		w := where{}
		scope.apply(&w)
		f.applyUser(&w, scope)
		f.applyEvent(&w)
		parts = append(parts, `SELECT u.id, u.lg_id, u.login, u.fio, u.level,
				COALESCE(u.director_id, 0) AS director_id,
				e.id AS event_id, e.event_full_name, e.country, e.city, e.event_date, e.time_start_event,
				? AS status
			FROM users u `+b.join+w.sql())
		args = append(args, b.label)
		args = append(args, w.args...)
	}

	base := "SELECT * FROM (" + strings.Join(parts, " UNION ALL ") + ") AS stats"
	return list(ctx, r.db, base, args, orderBy(f.Sort, statisticSort, "time_start_event DESC, id"), p,
		func(rows *sql.Rows) (StatisticRow, error) {
			var s StatisticRow
			err := rows.Scan(&s.ID, &s.LgID, &s.Login, &s.Fio, &s.Level, &s.DirectorID,
				&s.EventID, &s.EventFullName, &s.Country, &s.City, &s.EventDate, &s.TimeStartEvent, &s.Status)
			return s, err
		})
}

type NotPassedRow struct {
	ID         uint64 `json:"id"`
	LgID       uint64 `json:"lg_id"`
	Login      string `json:"login"`
	Fio        string `json:"fio"`
	Level      int    `json:"level"`
	DirectorID uint64 `json:"director_id"`
}

var notPassedSort = map[string]string{
	"id":          "u.id",
	"lg_id":       "u.lg_id",
	"fio":         "u.fio",
	"login":       "u.login",
	"level":       "u.level",
	"director_id": "u.director_id",
}

// NotPassed returns the users of the scope that never passed a past event.
func (r *StatisticsRepo) NotPassed(ctx context.Context, scope Scope, f StatisticFilters, p *Paging) ([]NotPassedRow, int64, error) {
	w := where{}
	scope.apply(&w)
	w.add(`NOT EXISTS (SELECT 1 FROM events_users eu
		JOIN events e ON e.id = eu.event_id
		WHERE eu.user_id = u.id AND eu.member = 1 AND eu.passed = 1 AND e.status = 3)`)
	f.applyUser(&w, scope)

	base := `SELECT u.id, u.lg_id, u.login, u.fio, u.level, COALESCE(u.director_id, 0)
		FROM users u` + w.sql()
	return list(ctx, r.db, base, w.args, orderBy(f.Sort, notPassedSort, "u.fio, u.id"), p,
		func(rows *sql.Rows) (NotPassedRow, error) {
			var n NotPassedRow
			err := rows.Scan(&n.ID, &n.LgID, &n.Login, &n.Fio, &n.Level, &n.DirectorID)
			return n, err
		})
}
