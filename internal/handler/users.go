package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/training-events/internal/model"
	"github.com/iliyamo/training-events/internal/service"
)

type speakersRequest struct {
	Directors []uint64 `json:"directors" validate:"dive,gt=0"`
	SeminarID uint64   `json:"seminar_id" validate:"required"`
}

type ticketSpeakersRequest struct {
	Directors []uint64 `json:"directors" validate:"dive,gt=0"`
}

type userRequest struct {
	LgID          uint64 `json:"lg_id" validate:"required"`
	Login         string `json:"login" validate:"required,max=255"`
	Fio           string `json:"fio" validate:"required,max=255"`
	Phone         string `json:"phone" validate:"omitempty,max=32"`
	Level         int    `json:"level" validate:"gte=0"`
	DirectorID    uint64 `json:"director_id"` // equals lg_id for directors
	MagistrID     uint64 `json:"magistr_id"`
	UIDParent     uint64 `json:"uid_parent"` // parent for structure_path when none is sent
	StructurePath string `json:"structure_path" validate:"omitempty,max=1024"`
	Banned        bool   `json:"banned"`
}

type speakerFlagRequest struct {
	Speaker *bool `json:"speaker" validate:"required"`
}

type eligibilityRequest struct {
	Directors           []uint64 `json:"directors" validate:"required,dive,gt=0"`
	RequirePrerequisite bool     `json:"require_prerequisite"`
	From                string   `json:"from" validate:"required_with=To"` // YYYY-MM-DD or RFC3339
	To                  string   `json:"to" validate:"required_with=From"` // inclusive
}

// GetParents handles GET /v1/users/:id/parents.
func (h *Handler) GetParents(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	users, err := h.api.GetParent(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": users})
}

// DownstreamDirectors handles GET /v1/users/:id/downstream-directors.
func (h *Handler) DownstreamDirectors(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ids, err := h.api.DownstreamDirectorIDs(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": ids})
}

// Downstream handles GET /v1/users/:id/downstream.
func (h *Handler) Downstream(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	users, err := h.api.DownstreamUsers(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": users})
}

// Directors handles GET /v1/users/:id/directors. Items map lg_id to fio.
func (h *Handler) Directors(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	dirs, err := h.api.DirectorsForMagister(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": dirs})
}

// PutUser handles PUT /v1/users, an upsert keyed by lg_id.
func (h *Handler) PutUser(c echo.Context) error {
	var req userRequest
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	u, err := h.api.UpdateOrCreate(c.Request().Context(), model.User{
		LgID:          req.LgID,
		Login:         req.Login,
		Fio:           req.Fio,
		Phone:         req.Phone,
		Level:         req.Level,
		DirectorID:    req.DirectorID,
		MagistrID:     req.MagistrID,
		UIDParent:     req.UIDParent,
		StructurePath: req.StructurePath,
		Banned:        req.Banned,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// SetSpeaker handles PATCH /v1/users/:id/speaker where id is users.id.
func (h *Handler) SetSpeaker(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req speakerFlagRequest
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	u, err := h.api.SetSpeaker(c.Request().Context(), id, *req.Speaker)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// SpeakersByDirectors handles POST /v1/users/speakers-by-directors.
func (h *Handler) SpeakersByDirectors(c echo.Context) error {
	var req speakersRequest
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	speakers, err := h.api.SpeakersByDirectors(c.Request().Context(), req.Directors, req.SeminarID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"speakers": speakers})
}

// SpeakersForTicket handles POST /v1/users/speakers-by-directors-ticket.
func (h *Handler) SpeakersForTicket(c echo.Context) error {
	var req ticketSpeakersRequest
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	speakers, err := h.api.SpeakersForTicket(c.Request().Context(), req.Directors)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"speakers": speakers})
}

// SpeakerFilter handles GET /v1/users/speaker-filter.
func (h *Handler) SpeakerFilter(c echo.Context) error {
	users, err := h.api.SpeakerFilter(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": users})
}

// Units handles GET /v1/users/:id/units?from=&to=.
func (h *Handler) Units(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	w, present, ok := dateRange(c)
	if !ok || !present {
		return badRequest(c, "from and to must be dates (YYYY-MM-DD)")
	}
	units, err := h.api.UserUnits(c.Request().Context(), id, w)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, units)
}

// SeminarPermission handles GET /v1/users/:id/seminar-permission. The id
// is a seminar id; permission is null when the seminar issues none.
func (h *Handler) SeminarPermission(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	p, err := h.api.SeminarPermission(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"permission": p})
}

// EligibleUsers handles POST /v1/seminars/:id/eligible-users.
func (h *Handler) EligibleUsers(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req eligibilityRequest
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	er := service.EligibilityRequest{
		SeminarID:           id,
		Directors:           req.Directors,
		RequirePrerequisite: req.RequirePrerequisite,
	}
	if req.From != "" {
		from, okFrom := parseDate(req.From, false)
		to, okTo := parseDate(req.To, true)
		if !okFrom || !okTo {
			return badRequest(c, "from and to must be dates (YYYY-MM-DD)")
		}
		er.Window = &model.DateRange{From: from, To: to}
	}
	users, err := h.api.EligibleUsers(c.Request().Context(), er)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": users})
}
