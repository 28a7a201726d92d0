package model

import "time"

// Event statuses (events.status).
const (
	EventPlanned    = 1
	EventInProgress = 2
	EventPast       = 3
)

// events.in_process values.
const (
	NotInProcess = 0
	InProcess    = 1
)

// Event is a scheduled run of a Seminar. The window between
// TheDateOfTheBeginning and ExpirationDate is the period whose units count
// toward the event's thresholds.
type Event struct {
	ID                    uint64     `json:"id"`
	SeminarID             uint64     `json:"seminar_id"`
	OrganizerID           uint64     `json:"user_id"`
	OrganizerName         string     `json:"user_name"`
	FullName              string     `json:"event_full_name"`
	Country               string     `json:"country"`
	City                  string     `json:"city"`
	EventDate             *time.Time `json:"event_date"`
	StartEvent            *time.Time `json:"start_event"`
	TimeStartEvent        *time.Time `json:"time_start_event"`
	TheDateOfTheBeginning *time.Time `json:"the_date_of_the_beginning"`
	ExpirationDate        *time.Time `json:"expiration_date"`
	Status                int        `json:"status"`
	InProcess             int        `json:"in_process"`
}

// Seminar describes a course type. Events of the seminar are gated by Level,
// the units (Ed) and corporate (Jk) thresholds and an optional prerequisite
// seminar; passing it can earn PermissionID once the user has watched
// CountOfWatching events and reached LicenseLevel.
type Seminar struct {
	ID                uint64  `json:"id"`
	Name              string  `json:"name"`
	Level             int     `json:"level"`
	Ed                float64 `json:"ed"`
	Jk                int     `json:"jk"`
	NecessarilyPassed *uint64 `json:"necessarily_passed"`
	PermissionID      *uint64 `json:"permission_id"`
	LicenseLevel      int     `json:"license_level"`
	CountOfWatching   int     `json:"count_of_watching"`
}

// DateRange is an inclusive [From, To] window.
type DateRange struct {
	From time.Time
	To   time.Time
}
