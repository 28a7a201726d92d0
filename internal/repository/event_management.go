package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/training-events/internal/model"
)

// ManagementRepo serves the director and organizer views of event
// participation. Every row carries unit totals over its event's window.
type ManagementRepo struct {
	db *sql.DB // read-only; writes go through EventUserRepo
}

func NewManagementRepo(db *sql.DB) *ManagementRepo { return &ManagementRepo{db: db} }

// CandidateFilters narrow the director candidate lists. Zero values are ignored.
type CandidateFilters struct {
	Fio            string
	Login          string
	EventFullName  string
	OrganizerName  string
	Country        string
	City           string
	StartEvent     string   // YYYY-MM-DD
	ExpirationDate string   // YYYY-MM-DD
	Ed             *float64 // minimum units_sum
	Jk             *int     // minimum corporate
	Status         *int     // director_recommendation
}

// EventCandidateQuery selects the candidacies of one director's users.
// With SeminarID set only planned events of that seminar are considered;
// Archive switches to past events regardless of review state.
type EventCandidateQuery struct {
	DirectorID uint64
	SeminarID  uint64
	Archive    bool
	Filters    CandidateFilters
	Sort       Sort
}

type EventCandidateRow struct {
	PivotID                uint64           `json:"pivot_id"`
	UserID                 uint64           `json:"user_id"`
	Login                  string           `json:"login"`
	Fio                    string           `json:"fio"`
	Level                  int              `json:"level"`
	EventID                uint64           `json:"event_id"`
	EventStatus            int              `json:"event_status"`
	Country                string           `json:"country"`
	City                   string           `json:"city"`
	EventFullName          string           `json:"event_full_name"`
	StartEvent             *time.Time       `json:"start_event"`
	From                   *time.Time       `json:"the_date_of_the_beginning"`
	To                     *time.Time       `json:"expiration_date"`
	Organizer              string           `json:"user_name"`
	SeminarID              uint64           `json:"seminar_id"`
	SeminarLevel           int              `json:"seminar_level"`
	SeminarEd              float64          `json:"seminar_ed"`
	SeminarJk              int              `json:"seminar_jk"`
	DirectorRecommendation int              `json:"director_recommendation"`
	Totals                 model.UnitTotals `json:"totals"`
}

var candidateSort = map[string]string{
	"fio":             "u.fio",
	"login":           "u.login",
	"level":           "u.level",
	"event_full_name": "e.event_full_name",
	"start_event":     "e.start_event",
	"expiration_date": "e.expiration_date",
	"country":         "e.country",
	"city":            "e.city",
	"status":          "eu.director_recommendation",
}

// EventCandidates lists candidacies for a director.
func (r *ManagementRepo) EventCandidates(ctx context.Context, q EventCandidateQuery, p *Paging) ([]EventCandidateRow, int64, error) {
	w := where{}
	w.add("u.director_id = ?", q.DirectorID)
	switch {
	case q.Archive:
		w.add("e.status = ?", model.EventPast)
	case q.SeminarID != 0:
		w.add("eu.candidate = ?", model.Candidate)
		w.add("eu.director_recommendation = ?", model.NotReviewed)
		w.add("e.seminar_id = ?", q.SeminarID)
		w.add("e.status = ?", model.EventPlanned)
	default:
		w.add("eu.candidate = ?", model.Candidate)
		w.add("eu.director_recommendation = ?", model.NotReviewed)
		w.add("e.status <> ?", model.EventPast)
	}

	f := q.Filters
	if f.Fio != "" {
		w.add("u.fio LIKE ?", contains(f.Fio))
	}
	if f.Login != "" {
		w.add("u.login = ?", f.Login)
	}
	if f.EventFullName != "" {
		w.add("e.event_full_name LIKE ?", contains(f.EventFullName))
	}
	if f.OrganizerName != "" {
		w.add("e.user_name LIKE ?", contains(f.OrganizerName))
	}
	if f.Country != "" {
		w.add("e.country LIKE ?", contains(f.Country))
	}
	if f.City != "" {
		w.add("e.city LIKE ?", contains(f.City))
	}
	if f.StartEvent != "" {
		w.add("e.start_event = ?", f.StartEvent)
	}
	if f.ExpirationDate != "" {
		w.add("e.expiration_date = ?", f.ExpirationDate)
	}
	if f.Ed != nil {
		w.add("s.ed = ?", *f.Ed)
	}
	if f.Jk != nil {
		w.add("s.jk = ?", *f.Jk)
	}
	if f.Status != nil {
		w.add("eu.director_recommendation = ?", *f.Status)
	}

	base := `SELECT eu.id, u.id, u.login, u.fio, u.level,
			e.id, e.status, e.country, e.city, e.event_full_name, e.start_event,
			e.the_date_of_the_beginning, e.expiration_date, e.user_name,
			s.id, s.level, s.ed, s.jk, eu.director_recommendation,
			` + unitTotalsSQL("e.the_date_of_the_beginning", "e.expiration_date") + `
		FROM events_users eu
		JOIN users u    ON u.id = eu.user_id
		JOIN events e   ON e.id = eu.event_id
		JOIN seminars s ON s.id = e.seminar_id` + w.sql()

	return list(ctx, r.db, base, w.args, orderBy(q.Sort, candidateSort, "e.start_event DESC, eu.id"), p,
		func(rows *sql.Rows) (EventCandidateRow, error) {
			var c EventCandidateRow
			err := rows.Scan(&c.PivotID, &c.UserID, &c.Login, &c.Fio, &c.Level,
				&c.EventID, &c.EventStatus, &c.Country, &c.City, &c.EventFullName, &c.StartEvent,
				&c.From, &c.To, &c.Organizer,
				&c.SeminarID, &c.SeminarLevel, &c.SeminarEd, &c.SeminarJk, &c.DirectorRecommendation,
				&c.Totals.UnitsSum, &c.Totals.VirtualCooperativeSum, &c.Totals.Corporate)
			return c, err
		})
}

// EventTab names a management tab of an event.
type EventTab string

const (
	TabCandidates EventTab = "candidates"
	TabMembers    EventTab = "members"
	TabWatchers   EventTab = "watchers"
	TabDeployment EventTab = "deployment" // getting_deployment = 1
	TabEligible   EventTab = "eligible"   // not yet brought into the event
)

// ManagedUser is a user row of a management tab. Watcher is set for the
// watchers tab, Pivot for every tab except watchers and eligible.
type ManagedUser struct {
	User    model.User          `json:"user"`
	Totals  model.UnitTotals    `json:"totals"`
	Pivot   *model.EventUser    `json:"event_user,omitempty"`
	Watcher *model.EventWatcher `json:"event_watcher,omitempty"`
}

// EventTabQuery selects one tab of an event restricted to users of the
// given directors.
type EventTabQuery struct {
	Tab       EventTab
	Event     model.Event
	Seminar   model.Seminar
	Directors []uint64
}

// EventTabUsers returns the users shown on an event management tab.
func (r *ManagementRepo) EventTabUsers(ctx context.Context, q EventTabQuery) ([]ManagedUser, error) {
	out := make([]ManagedUser, 0)
	if len(q.Directors) == 0 {
		return out, nil
	}

	args := rangeArgs(q.Event.TheDateOfTheBeginning, q.Event.ExpirationDate)
	cond := "u.director_id IN (" + placeholders(len(q.Directors)) + ")"
	condArgs := idArgs(q.Directors)

	var join, cols string
	switch q.Tab {
	case TabWatchers:
		cols = ", ew.id, ew.user_id, ew.event_id, ew.status"
		join = " JOIN event_watchers ew ON ew.user_id = u.id AND ew.event_id = ?"
		args = append(args, q.Event.ID)
	case TabMembers:
		cols = ", " + pivotColumns
		join = " JOIN events_users eu ON eu.user_id = u.id AND eu.event_id = ?"
		args = append(args, q.Event.ID)
		cond += " AND eu.member = 1"
		if q.Event.Status == model.EventPast && q.Event.InProcess == model.NotInProcess {
			cond += " AND eu.passed = 1"
		}
	case TabDeployment:
		cols = ", " + pivotColumns
		join = " JOIN events_users eu ON eu.user_id = u.id AND eu.event_id = ?"
		args = append(args, q.Event.ID)
		cond += " AND eu.getting_deployment = 1"
	case TabEligible:
		// users still to be brought in: missing the prerequisite, or not yet
		// a candidate of this event
		if q.Seminar.NecessarilyPassed != nil {
			cond += " AND NOT " + passedSeminarSQL
			condArgs = append(condArgs, *q.Seminar.NecessarilyPassed)
		} else {
			cond += ` AND NOT EXISTS (SELECT 1 FROM events_users ce
		WHERE ce.user_id = u.id AND ce.event_id = ? AND ce.candidate = 1)`
			condArgs = append(condArgs, q.Event.ID)
		}
	default:
		cols = ", " + pivotColumns
		join = " JOIN events_users eu ON eu.user_id = u.id AND eu.event_id = ?"
		args = append(args, q.Event.ID)
		cond += " AND eu.candidate = 1 AND eu.member <> 1"
		if q.Seminar.NecessarilyPassed != nil {
			cond += " AND " + passedSeminarSQL
			condArgs = append(condArgs, *q.Seminar.NecessarilyPassed)
		}
	}
	args = append(args, condArgs...)

	query := "SELECT " + userColumns + ", " + unitTotalsSQL("?", "?") + cols +
		" FROM users u" + join + " WHERE " + cond + " ORDER BY u.fio"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m ManagedUser
		dest := append(userDest(&m.User), totalsDest(&m.Totals)...)
		switch q.Tab {
		case TabWatchers:
			m.Watcher = &model.EventWatcher{}
			dest = append(dest, &m.Watcher.ID, &m.Watcher.UserID, &m.Watcher.EventID, &m.Watcher.Status)
		case TabEligible:
		default:
			m.Pivot = &model.EventUser{}
			dest = append(dest, pivotDest(m.Pivot)...)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
