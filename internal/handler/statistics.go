package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/training-events/internal/repository"
	"github.com/iliyamo/training-events/internal/utils"
)

// statisticsScope reads the :scope and :id path parameters.
func statisticsScope(c echo.Context) (repository.Scope, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return repository.Scope{}, false
	}
	switch c.Param("scope") {
	case "magister":
		return repository.Scope{Kind: repository.ScopeMagister, LgID: id}, true
	case "director":
		return repository.Scope{Kind: repository.ScopeDirector, LgID: id}, true
	}
	return repository.Scope{}, false
}

func statisticFilters(c echo.Context) (repository.StatisticFilters, bool) {
	f := repository.StatisticFilters{
		Fio:           strings.TrimSpace(c.QueryParam("user_fio")),
		Login:         strings.TrimSpace(c.QueryParam("user_login")),
		EventFullName: strings.TrimSpace(c.QueryParam("event_full_name")),
		DirectorName:  strings.TrimSpace(c.QueryParam("director_name")),
		Sort:          sortParam(c),
	}
	level, ok := optInt(c, "user_level")
	if !ok {
		return f, false
	}
	f.Level = level
	if raw := c.QueryParam("event_month"); raw != "" {
		if f.Month = utils.ParseMonth(raw); f.Month == 0 {
			return f, false
		}
	}
	if raw := c.QueryParam("event_year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			return f, false
		}
		f.Year = y
	}
	return f, true
}

// StatisticsEvents handles GET /v1/statistics/:scope/:id/events: who took
// part in which event and in what role. export=1 returns CSV.
func (h *Handler) StatisticsEvents(c echo.Context) error {
	scope, ok := statisticsScope(c)
	if !ok {
		return badRequest(c, "invalid scope or id")
	}
	f, ok := statisticFilters(c)
	if !ok {
		return badRequest(c, "invalid filter")
	}
	p, ok := h.paging(c)
	if !ok {
		return badRequest(c, "invalid page or limit")
	}
	role := repository.ParseRole(c.QueryParam("role"))
	ctx := c.Request().Context()

	if p == nil {
		t, err := h.api.StatisticsExport(ctx, scope, role, f)
		if err != nil {
			return h.fail(c, err)
		}
		return writeCSV(c, "statistics", t)
	}
	res, err := h.api.Statistics(ctx, scope, role, f, p)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// StatisticsNotPassed handles GET /v1/statistics/:scope/:id: users of the
// structure who never passed an event.
func (h *Handler) StatisticsNotPassed(c echo.Context) error {
	scope, ok := statisticsScope(c)
	if !ok {
		return badRequest(c, "invalid scope or id")
	}
	f, ok := statisticFilters(c)
	if !ok {
		return badRequest(c, "invalid filter")
	}
	p, ok := h.paging(c)
	if !ok {
		return badRequest(c, "invalid page or limit")
	}
	ctx := c.Request().Context()

	if p == nil {
		t, err := h.api.NotPassedExport(ctx, scope, f)
		if err != nil {
			return h.fail(c, err)
		}
		return writeCSV(c, "not-passed", t)
	}
	res, err := h.api.NotPassed(ctx, scope, f, p)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
