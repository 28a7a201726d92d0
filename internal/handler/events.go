package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/training-events/internal/model"
	"github.com/iliyamo/training-events/internal/repository"
)

type reasonRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// Recommend handles POST /v1/events/:event/users/:user/recommend.
func (h *Handler) Recommend(c echo.Context) error {
	eventID, ok1 := pathID(c, "event")
	userID, ok2 := pathID(c, "user")
	if !ok1 || !ok2 {
		return badRequest(c, "invalid event or user")
	}
	p, err := h.api.Recommend(c.Request().Context(), eventID, userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Refuse handles POST /v1/events/:event/users/:user/refuse.
func (h *Handler) Refuse(c echo.Context) error {
	eventID, ok1 := pathID(c, "event")
	userID, ok2 := pathID(c, "user")
	if !ok1 || !ok2 {
		return badRequest(c, "invalid event or user")
	}
	var req reasonRequest
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	p, err := h.api.Refuse(c.Request().Context(), eventID, userID, req.Reason)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// pivotAction runs a transition that is addressed by the pivot id alone.
func (h *Handler) pivotAction(c echo.Context, do func(ctx context.Context, id uint64) (*model.EventUser, error)) error {
	id, ok := pathID(c, "pivot")
	if !ok {
		return badRequest(c, "invalid pivot")
	}
	p, err := do(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// ConfirmCandidate handles POST /v1/event-users/:pivot/confirm.
func (h *Handler) ConfirmCandidate(c echo.Context) error {
	return h.pivotAction(c, h.api.ConfirmCandidate)
}

// RefuseCandidate handles POST /v1/event-users/:pivot/refuse.
func (h *Handler) RefuseCandidate(c echo.Context) error {
	var req reasonRequest
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	return h.pivotAction(c, func(ctx context.Context, id uint64) (*model.EventUser, error) {
		return h.api.RefuseCandidate(ctx, id, req.Reason)
	})
}

// SetMember handles POST /v1/event-users/:pivot/member.
func (h *Handler) SetMember(c echo.Context) error {
	return h.pivotAction(c, h.api.SetMember)
}

// SetCandidate handles POST /v1/event-users/:pivot/candidate.
func (h *Handler) SetCandidate(c echo.Context) error {
	return h.pivotAction(c, h.api.SetCandidate)
}

func candidateFilters(c echo.Context) (repository.CandidateFilters, bool) {
	f := repository.CandidateFilters{
		Fio:            strings.TrimSpace(c.QueryParam("fio")),
		Login:          strings.TrimSpace(c.QueryParam("login")),
		EventFullName:  strings.TrimSpace(c.QueryParam("event_full_name")),
		OrganizerName:  strings.TrimSpace(c.QueryParam("user_name")),
		Country:        strings.TrimSpace(c.QueryParam("country")),
		City:           strings.TrimSpace(c.QueryParam("city")),
		StartEvent:     strings.TrimSpace(c.QueryParam("start_event")),
		ExpirationDate: strings.TrimSpace(c.QueryParam("expiration_date")),
	}
	for _, d := range []string{f.StartEvent, f.ExpirationDate} {
		if d == "" {
			continue
		}
		if _, ok := parseDate(d, false); !ok {
			return f, false
		}
	}
	var ok1, ok2, ok3 bool
	f.Ed, ok1 = optFloat(c, "ed")
	f.Jk, ok2 = optInt(c, "jk")
	f.Status, ok3 = optInt(c, "status")
	return f, ok1 && ok2 && ok3
}

// SeminarCandidates handles GET /v1/directors/:id/seminars/:seminar/candidates.
func (h *Handler) SeminarCandidates(c echo.Context) error {
	directorID, ok1 := pathID(c, "id")
	seminarID, ok2 := pathID(c, "seminar")
	if !ok1 || !ok2 {
		return badRequest(c, "invalid director or seminar")
	}
	f, ok := candidateFilters(c)
	if !ok {
		return badRequest(c, "invalid filter")
	}
	p, ok := h.paging(c)
	if !ok || p == nil {
		return badRequest(c, "invalid page or limit")
	}
	res, err := h.api.DirectorCandidates(c.Request().Context(), directorID, seminarID, f, sortParam(c), p)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// DirectorCandidates handles GET /v1/directors/:id/candidates. With
// archive=1 it lists participation in past events instead.
func (h *Handler) DirectorCandidates(c echo.Context) error {
	directorID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid director")
	}
	f, ok := candidateFilters(c)
	if !ok {
		return badRequest(c, "invalid filter")
	}
	p, ok := h.paging(c)
	if !ok || p == nil {
		return badRequest(c, "invalid page or limit")
	}
	archive := c.QueryParam("archive")
	res, err := h.api.DirectorCandidatesOrArchive(c.Request().Context(), directorID,
		archive == "1" || strings.EqualFold(archive, "true"), f, sortParam(c), p)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// EventTab handles GET /v1/events/:event/:tab?directors=&viewer=.
func (h *Handler) EventTab(c echo.Context) error {
	eventID, ok := pathID(c, "event")
	if !ok {
		return badRequest(c, "invalid event")
	}
	directors, ok := idList(c.QueryParam("directors"))
	if !ok {
		return badRequest(c, "invalid directors")
	}
	viewer, ok := optUint(c, "viewer")
	if !ok {
		return badRequest(c, "invalid viewer")
	}
	var viewerID uint64
	if viewer != nil {
		viewerID = *viewer
	}
	users, err := h.api.EventTab(c.Request().Context(), eventID, repository.EventTab(c.Param("tab")), directors, viewerID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": users})
}
