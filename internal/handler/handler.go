// Package handler exposes the service over HTTP. Handlers parse and
// validate input, call the service and map its errors to status codes.
package handler

import (
	"context"

	"github.com/iliyamo/training-events/internal/logger"
	"github.com/iliyamo/training-events/internal/model"
	"github.com/iliyamo/training-events/internal/repository"
	"github.com/iliyamo/training-events/internal/service"
)

// API is the part of *service.Service the handlers call.
type API interface {
	GetParent(ctx context.Context, lgID uint64) ([]model.User, error)
	DownstreamDirectorIDs(ctx context.Context, lgID uint64) ([]uint64, error)
	DownstreamUsers(ctx context.Context, lgID uint64) ([]model.User, error)
	DirectorsForMagister(ctx context.Context, magisterLgID uint64) (map[uint64]string, error)
	UpdateOrCreate(ctx context.Context, u model.User) (*model.User, error)
	SetSpeaker(ctx context.Context, id uint64, speaker bool) (*model.User, error)
	SpeakersByDirectors(ctx context.Context, directorIDs []uint64, seminarID uint64) ([]model.SpeakerOption, error)
	SpeakersForTicket(ctx context.Context, directorIDs []uint64) ([]model.SpeakerOption, error)
	SpeakerFilter(ctx context.Context) ([]model.SpeakerCandidate, error)
	UserUnits(ctx context.Context, lgID uint64, w model.DateRange) (*model.UserUnits, error)
	SeminarPermission(ctx context.Context, seminarID uint64) (*model.Permission, error)
	EligibleUsers(ctx context.Context, req service.EligibilityRequest) ([]repository.EligibleUser, error)

	Statistics(ctx context.Context, scope repository.Scope, role repository.Role, f repository.StatisticFilters, p *repository.Paging) (service.ListResult[repository.StatisticRow], error)
	StatisticsExport(ctx context.Context, scope repository.Scope, role repository.Role, f repository.StatisticFilters) (service.Table, error)
	NotPassed(ctx context.Context, scope repository.Scope, f repository.StatisticFilters, p *repository.Paging) (service.ListResult[repository.NotPassedRow], error)
	NotPassedExport(ctx context.Context, scope repository.Scope, f repository.StatisticFilters) (service.Table, error)

	Licenses(ctx context.Context, list repository.LicenseList, seminarID, magisterID uint64, f service.LicenseFilters, p *repository.Paging) (service.ListResult[repository.LicenseRow], error)
	LicensesExport(ctx context.Context, list repository.LicenseList, seminarID, magisterID uint64, f service.LicenseFilters) (service.Table, error)
	Certify(ctx context.Context, seminarID, userID uint64) (*model.Certificate, error)
	Suspend(ctx context.Context, seminarID, userID uint64) error
	Resume(ctx context.Context, seminarID, userID uint64) error

	Recommend(ctx context.Context, eventID, userID uint64) (*model.EventUser, error)
	Refuse(ctx context.Context, eventID, userID uint64, reason string) (*model.EventUser, error)
	ConfirmCandidate(ctx context.Context, pivotID uint64) (*model.EventUser, error)
	RefuseCandidate(ctx context.Context, pivotID uint64, reason string) (*model.EventUser, error)
	SetMember(ctx context.Context, pivotID uint64) (*model.EventUser, error)
	SetCandidate(ctx context.Context, pivotID uint64) (*model.EventUser, error)
	DirectorCandidates(ctx context.Context, directorID, seminarID uint64, f repository.CandidateFilters, sort repository.Sort, p *repository.Paging) (service.ListResult[repository.EventCandidateRow], error)
	DirectorCandidatesOrArchive(ctx context.Context, directorID uint64, archive bool, f repository.CandidateFilters, sort repository.Sort, p *repository.Paging) (service.ListResult[repository.EventCandidateRow], error)
	EventTab(ctx context.Context, eventID uint64, tab repository.EventTab, directors []uint64, viewer uint64) ([]repository.ManagedUser, error)

	IssueConfirmationCode(ctx context.Context, lgID uint64) (*model.Notification, error)
	CheckConfirmationCode(ctx context.Context, lgID uint64, code string) error
}

// Handler serves every /v1 route.
type Handler struct {
	api          API            // api carries out every request
	log          *logger.Logger // log records internal errors before they are hidden
	defaultLimit int            // page size when ?limit is absent
	maxLimit     int            // upper bound for ?limit
}

// NewHandler constructs a Handler and panics if api is nil. Page sizes
// fall back to 10 when unset.
func NewHandler(api API, log *logger.Logger, defaultLimit, maxLimit int) *Handler {
	if api == nil {
		panic("nil API passed to NewHandler")
	}
	if log == nil {
		log = logger.Nop()
	}
	if defaultLimit < 1 {
		defaultLimit = 10
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	return &Handler{api: api, log: log, defaultLimit: defaultLimit, maxLimit: maxLimit}
}
