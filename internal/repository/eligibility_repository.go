package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/training-events/internal/model"
)

// EligibilityRepo finds the users that may take part in a seminar's events.
type EligibilityRepo struct{ db *sql.DB }

func NewEligibilityRepo(db *sql.DB) *EligibilityRepo { return &EligibilityRepo{db: db} }

// EligibilityQuery describes the gate of a seminar. With Window set the
// unit totals are computed for it; EnforceThresholds then also requires
// MinUnits and MinCorporate.
type EligibilityQuery struct {
	SeminarID           uint64
	SeminarLevel        int      // minimum users.level
	PermissionID        *uint64  // holders are excluded; nil when the seminar issues none
	NecessarilyPassed   *uint64  // prerequisite seminar id
	RequirePrerequisite bool     // only honoured when NecessarilyPassed is set
	Directors           []uint64 // director lg_ids; empty yields no rows

	Window            *model.DateRange
	EnforceThresholds bool
	MinUnits          float64 // seminar ed
	MinCorporate      int     // seminar jk
}

type EligibleUser struct {
	model.User
	Totals          *model.UnitTotals `json:"totals,omitempty"`           // set when a window was given
	MeetsThresholds *bool             `json:"meets_thresholds,omitempty"` // Totals against the seminar's ed and jk
}

// UsersWithAccess returns users of the directors who reach the seminar
// level, have not passed the seminar, do not hold its permission and, when
// required, passed the prerequisite seminar.
func (r *EligibilityRepo) UsersWithAccess(ctx context.Context, q EligibilityQuery) ([]EligibleUser, error) {
	out := make([]EligibleUser, 0)
	if len(q.Directors) == 0 {
		return out, nil
	}

	var args []any
	cols := userColumns
	if q.Window != nil {
		cols += ", " + unitTotalsSQL("?", "?")
		args = append(args, windowArgs(*q.Window)...)
	}

	w := where{}
	w.add("u.level >= ?", q.SeminarLevel)
	w.add("u.director_id IN ("+placeholders(len(q.Directors))+")", idArgs(q.Directors)...)
	w.add("NOT "+passedSeminarSQL, q.SeminarID)
	if q.PermissionID != nil {
		w.add("NOT "+hasPermissionSQL, *q.PermissionID)
	}
	if q.RequirePrerequisite && q.NecessarilyPassed != nil {
		w.add(passedSeminarSQL, *q.NecessarilyPassed)
	}
	args = append(args, w.args...)

	having := where{}
	if q.Window != nil && q.EnforceThresholds {
		having.add("units_sum >= ?", q.MinUnits)
		having.add("corporate >= ?", q.MinCorporate)
		args = append(args, having.args...)
	}

	query := "SELECT " + cols + " FROM users u" + w.sql() + having.clause("HAVING") + " ORDER BY u.fio, u.id"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var e EligibleUser
		dest := userDest(&e.User)
		if q.Window != nil {
			e.Totals = &model.UnitTotals{}
			dest = append(dest, totalsDest(e.Totals)...)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
