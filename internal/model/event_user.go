package model

// Values stored on the events_users pivot. The workflow is linear:
// a user becomes a candidate, the director recommends or refuses, the
// organizer confirms or refuses, and a confirmed candidate becomes a member.
const (
	Candidate = 1
	Member    = 1

	// director_recommendation
	NotReviewed = 0
	Recommended = 1
	Refused     = 2

	// organizer_confirmation
	OrganizerPending   = 0
	OrganizerConfirmed = 1
	OrganizerRefused   = 2

	Passed            = 1
	GettingDeployment = 1

	// event_watchers.status / event_speakers.status
	Confirmed = 1
)

// EventUser is one row of events_users.
type EventUser struct {
	ID                       uint64  `json:"id"`
	UserID                   uint64  `json:"user_id"`
	EventID                  uint64  `json:"event_id"`
	Candidate                int     `json:"candidate"`
	Member                   int     `json:"member"`
	DirectorRecommendation   int     `json:"director_recommendation"`
	DirectorRejectionReason  *string `json:"director_rejection_reason"`
	OrganizerConfirmation    int     `json:"organizer_confirmation"`
	OrganizerRejectionReason *string `json:"organizer_rejection_reason"`
	Passed                   int     `json:"passed"`
	GettingDeployment        int     `json:"getting_deployment"`
}

// EventWatcher is a row of event_watchers or event_speakers.
type EventWatcher struct {
	ID      uint64 `json:"id"`
	UserID  uint64 `json:"user_id"`
	EventID uint64 `json:"event_id"`
	Status  int    `json:"status"`
}
