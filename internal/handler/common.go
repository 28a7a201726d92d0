package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/training-events/internal/model"
	"github.com/iliyamo/training-events/internal/repository"
	"github.com/iliyamo/training-events/internal/service"
)

const dateLayout = "2006-01-02"

// statusFor maps service and repository errors to an HTTP status. Unknown
// errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrSeminarNotFound),
		errors.Is(err, repository.ErrEventNotFound),
		errors.Is(err, repository.ErrEventUserNotFound),
		errors.Is(err, service.ErrCodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrCodeExpired):
		return http.StatusForbidden
	case errors.Is(err, service.ErrCodeStillValid), errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrNoLicense):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidWindow), errors.Is(err, service.ErrInvalidTab):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrDeliveryUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// fail writes err as {"error": ...}. Internal errors are logged and hidden.
func (h *Handler) fail(c echo.Context, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// pathID reads a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// optInt parses an optional integer query parameter. ok is false only
// when the value is present and malformed.
func optInt(c echo.Context, name string) (v *int, ok bool) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, false
	}
	return &n, true
}

func optUint(c echo.Context, name string) (v *uint64, ok bool) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, true
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, false
	}
	return &n, true
}

func optFloat(c echo.Context, name string) (v *float64, ok bool) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, false
	}
	return &f, true
}

// idList parses "1,2,3". Empty input is an empty list.
func idList(raw string) ([]uint64, bool) {
	out := make([]uint64, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, false
		}
		out = append(out, id)
	}
	return out, true
}

// parseDate accepts YYYY-MM-DD or RFC3339. With endOfDay a bare date
// covers the whole day.
func parseDate(raw string, endOfDay bool) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(dateLayout, raw); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Second)
		}
		return t, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	return t, err == nil
}

// dateRange reads from/to. present is false when both are missing.
func dateRange(c echo.Context) (w model.DateRange, present, ok bool) {
	from, to := c.QueryParam("from"), c.QueryParam("to")
	if from == "" && to == "" {
		return w, false, true
	}
	var okFrom, okTo bool
	w.From, okFrom = parseDate(from, false)
	w.To, okTo = parseDate(to, true)
	return w, true, okFrom && okTo
}

func isExport(c echo.Context) bool {
	v := strings.TrimSpace(c.QueryParam("export"))
	return v == "1" || strings.EqualFold(v, "true")
}

// paging returns nil for exports, otherwise page and limit with the
// configured default and cap.
func (h *Handler) paging(c echo.Context) (*repository.Paging, bool) {
	if isExport(c) {
		return nil, true
	}
	p := &repository.Paging{Page: 1, Limit: h.defaultLimit}
	if raw := c.QueryParam("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, false
		}
		p.Page = n
	}
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, false
		}
		p.Limit = min(n, h.maxLimit)
	}
	return p, true
}

func sortParam(c echo.Context) repository.Sort {
	return repository.Sort{Column: c.QueryParam("sort"), Direction: c.QueryParam("direction")}
}

// writeCSV streams t as an attachment named name.csv.
func writeCSV(c echo.Context, name string, t service.Table) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.csv"`, name))
	res.WriteHeader(http.StatusOK)

	w := csv.NewWriter(res)
	if err := w.Write(t.Headings); err != nil {
		return err
	}
	return w.WriteAll(t.Rows)
}
