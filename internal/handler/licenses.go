package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/training-events/internal/repository"
	"github.com/iliyamo/training-events/internal/service"
)

var licenseLists = map[string]repository.LicenseList{
	"candidates": repository.LicenseCandidates,
	"issued":     repository.LicenseIssued,
	"suspended":  repository.LicenseSuspended,
}

func licenseFilters(c echo.Context) (service.LicenseFilters, bool) {
	f := service.LicenseFilters{
		Fio:   strings.TrimSpace(c.QueryParam("fio")),
		Login: strings.TrimSpace(c.QueryParam("login")),
		Sort:  sortParam(c),
	}
	var ok1, ok2, ok3 bool
	f.Level, ok1 = optInt(c, "level")
	f.DirectorID, ok2 = optUint(c, "director_id")
	f.WatchersCount, ok3 = optInt(c, "watchers_count")
	return f, ok1 && ok2 && ok3
}

// Licenses handles GET /v1/licenses/:seminar/:list?magister=. The list is
// candidates, issued or suspended.
func (h *Handler) Licenses(c echo.Context) error {
	seminarID, ok := pathID(c, "seminar")
	if !ok {
		return badRequest(c, "invalid seminar")
	}
	list, ok := licenseLists[c.Param("list")]
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown license list"})
	}
	magister, ok := optUint(c, "magister")
	if !ok || magister == nil {
		return badRequest(c, "magister is required")
	}
	f, ok := licenseFilters(c)
	if !ok {
		return badRequest(c, "invalid filter")
	}
	p, ok := h.paging(c)
	if !ok {
		return badRequest(c, "invalid page or limit")
	}
	ctx := c.Request().Context()

	if p == nil {
		t, err := h.api.LicensesExport(ctx, list, seminarID, *magister, f)
		if err != nil {
			return h.fail(c, err)
		}
		return writeCSV(c, "licenses-"+c.Param("list"), t)
	}
	res, err := h.api.Licenses(ctx, list, seminarID, *magister, f, p)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func licenseTarget(c echo.Context) (seminarID, userID uint64, ok bool) {
	seminarID, ok1 := pathID(c, "seminar")
	userID, ok2 := pathID(c, "user")
	return seminarID, userID, ok1 && ok2
}

// Certify handles POST /v1/licenses/:seminar/users/:user/certify.
func (h *Handler) Certify(c echo.Context) error {
	seminarID, userID, ok := licenseTarget(c)
	if !ok {
		return badRequest(c, "invalid seminar or user")
	}
	cert, err := h.api.Certify(c.Request().Context(), seminarID, userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, cert)
}

// Suspend handles POST /v1/licenses/:seminar/users/:user/suspend.
func (h *Handler) Suspend(c echo.Context) error {
	seminarID, userID, ok := licenseTarget(c)
	if !ok {
		return badRequest(c, "invalid seminar or user")
	}
	if err := h.api.Suspend(c.Request().Context(), seminarID, userID); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Resume handles POST /v1/licenses/:seminar/users/:user/resume.
func (h *Handler) Resume(c echo.Context) error {
	seminarID, userID, ok := licenseTarget(c)
	if !ok {
		return badRequest(c, "invalid seminar or user")
	}
	if err := h.api.Resume(c.Request().Context(), seminarID, userID); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
