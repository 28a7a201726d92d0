// Package service implements the use cases behind the HTTP API on top of
// the repositories, the redis cache and the event publisher.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/training-events/internal/logger"
	"github.com/iliyamo/training-events/internal/model"
	"github.com/iliyamo/training-events/internal/repository"
)

var (
	ErrInvalidWindow       = errors.New("invalid date window")
	ErrNoLicense           = errors.New("seminar does not issue a license")
	ErrInvalidTab          = errors.New("unknown event tab")
	ErrCodeStillValid      = errors.New("a confirmation code was sent less than 5 minutes ago")
	ErrCodeNotFound        = errors.New("confirmation code not found")
	ErrCodeExpired         = errors.New("confirmation code expired")
	ErrDeliveryUnavailable = errors.New("confirmation delivery unavailable")
)

type UserStore interface {
	GetByLgID(ctx context.Context, lgID uint64) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	DownstreamDirectorIDs(ctx context.Context, lgID uint64) ([]uint64, error)
	DownstreamUsers(ctx context.Context, lgID uint64) ([]model.User, error)
	DirectorsForMagister(ctx context.Context, magisterLgID uint64) (map[uint64]string, error)
	UpdateOrCreate(ctx context.Context, u model.User) (*model.User, error)
	SetSpeaker(ctx context.Context, id uint64, speaker bool) (*model.User, error)
	SpeakersByDirectors(ctx context.Context, directorIDs []uint64, seminarID uint64) ([]model.SpeakerOption, error)
	SpeakersForTicket(ctx context.Context, directorIDs []uint64) ([]model.SpeakerOption, error)
	SpeakerFilterUsers(ctx context.Context, minLevel int) ([]model.SpeakerCandidate, error)
	UnitsBetween(ctx context.Context, lgID uint64, w model.DateRange) (*model.UserUnits, error)
}

type SeminarStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Seminar, error)
	Permission(ctx context.Context, seminarID uint64) (*model.Permission, error)
	GetEvent(ctx context.Context, id uint64) (*model.Event, error)
}

type EventUserStore interface {
	Recommend(ctx context.Context, userID, eventID uint64) (*model.EventUser, error)
	Refuse(ctx context.Context, userID, eventID uint64, reason string) (*model.EventUser, error)
	Confirm(ctx context.Context, id uint64) (*model.EventUser, error)
	Reject(ctx context.Context, id uint64, reason string) (*model.EventUser, error)
	SetMember(ctx context.Context, id uint64) (*model.EventUser, error)
	SetCandidate(ctx context.Context, id uint64) (*model.EventUser, error)
}

type ManagementStore interface {
	EventCandidates(ctx context.Context, q repository.EventCandidateQuery, p *repository.Paging) ([]repository.EventCandidateRow, int64, error)
	EventTabUsers(ctx context.Context, q repository.EventTabQuery) ([]repository.ManagedUser, error)
}

type LicenseStore interface {
	List(ctx context.Context, q repository.LicenseQuery, p *repository.Paging) ([]repository.LicenseRow, int64, error)
	Grant(ctx context.Context, userID, permissionID uint64, cert *model.Certificate) error
	Suspend(ctx context.Context, userID, permissionID uint64) error
	Resume(ctx context.Context, userID, permissionID uint64) error
}

type StatisticsStore interface {
	WithEvents(ctx context.Context, scope repository.Scope, role repository.Role, f repository.StatisticFilters, p *repository.Paging) ([]repository.StatisticRow, int64, error)
	NotPassed(ctx context.Context, scope repository.Scope, f repository.StatisticFilters, p *repository.Paging) ([]repository.NotPassedRow, int64, error)
}

type EligibilityStore interface {
	UsersWithAccess(ctx context.Context, q repository.EligibilityQuery) ([]repository.EligibleUser, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	Unread(ctx context.Context, userID uint64, typ string) ([]model.Notification, error)
	MarkRead(ctx context.Context, id uint64, t time.Time) error
}

// EventPublisher delivers an event to a named queue.
type EventPublisher interface {
	Publish(ctx context.Context, queue string, event any) error
}

// Deps wires a Service. Log, Now and CodeCost have defaults.
type Deps struct {
	Users         UserStore
	Seminars      SeminarStore
	EventUsers    EventUserStore
	Management    ManagementStore
	Licenses      LicenseStore
	Statistics    StatisticsStore
	Eligibility   EligibilityStore
	Notifications NotificationStore
	Publisher     EventPublisher
	Log           *logger.Logger
	Now           func() time.Time

	EnforceEligibilityThresholds bool
	CodeCost                     int // bcrypt cost for confirmation codes
}

type Service struct {
	users         UserStore
	seminars      SeminarStore
	eventUsers    EventUserStore
	management    ManagementStore
	licenses      LicenseStore
	stats         StatisticsStore
	eligibility   EligibilityStore
	notifications NotificationStore
	publisher     EventPublisher
	log           *logger.Logger
	now           func() time.Time

	enforceThresholds bool
	codeCost          int
}

func New(d Deps) *Service {
	s := &Service{
		users:             d.Users,
		seminars:          d.Seminars,
		eventUsers:        d.EventUsers,
		management:        d.Management,
		licenses:          d.Licenses,
		stats:             d.Statistics,
		eligibility:       d.Eligibility,
		notifications:     d.Notifications,
		publisher:         d.Publisher,
		log:               d.Log,
		now:               d.Now,
		enforceThresholds: d.EnforceEligibilityThresholds,
		codeCost:          d.CodeCost,
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.codeCost == 0 {
		s.codeCost = 10
	}
	return s
}

// ListResult is one page of a list, or the whole list when exported.
type ListResult[T any] struct {
	Data  []T   `json:"data"`
	Total int64 `json:"total"`
	Page  int   `json:"page,omitempty"`
	Limit int   `json:"limit,omitempty"`
}

func newListResult[T any](items []T, total int64, p *repository.Paging) ListResult[T] {
	r := ListResult[T]{Data: items, Total: total}
	if p != nil {
		r.Page, r.Limit = p.Page, p.Limit
	}
	return r
}

// Table is a flat export: one heading row and string cells.
type Table struct {
	Headings []string
	Rows     [][]string
}
