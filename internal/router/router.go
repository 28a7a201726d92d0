// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/training-events/internal/handler"
	"github.com/iliyamo/training-events/internal/middleware"
)

// Options controls the middleware placed in front of /v1.
type Options struct {
	// AuthEnabled puts JWTAuth and RequireRole in front of every mutating
	// route. Reads stay open.
	AuthEnabled bool
	JWTSecret   string
	// RateLimit runs on the whole /v1 group when set.
	RateLimit echo.MiddlewareFunc
	// ReportCache wraps the statistics and license list reports when set.
	ReportCache echo.MiddlewareFunc
}

// RegisterRoutes registers the health check and every /v1 endpoint.
func RegisterRoutes(e *echo.Echo, h *handler.Handler, db handler.Pinger, opts Options) {
	// Load balancers probe this; it is never rate limited.
	e.GET("/healthz", handler.Health(db))

	v1 := e.Group("/v1")
	if opts.RateLimit != nil {
		v1.Use(opts.RateLimit)
	}
	guard := func(roles ...string) []echo.MiddlewareFunc {
		if !opts.AuthEnabled {
			return nil
		}
		return []echo.MiddlewareFunc{middleware.JWTAuth(opts.JWTSecret), middleware.RequireRole(roles...)}
	}
	var reports []echo.MiddlewareFunc
	if opts.ReportCache != nil {
		reports = append(reports, opts.ReportCache)
	}

	// Hierarchy and user lookups. Static paths go first so they are not
	// read as :id.
	users := v1.Group("/users")
	users.POST("/speakers-by-directors", h.SpeakersByDirectors)
	users.POST("/speakers-by-directors-ticket", h.SpeakersForTicket)
	users.GET("/speaker-filter", h.SpeakerFilter)
	users.PUT("", h.PutUser, guard(middleware.RoleAdmin)...)
	users.GET("/:id/parents", h.GetParents)
	users.GET("/:id/seminar-permission", h.SeminarPermission)
	users.GET("/:id/downstream-directors", h.DownstreamDirectors)
	users.GET("/:id/downstream", h.Downstream)
	users.GET("/:id/directors", h.Directors)
	users.GET("/:id/units", h.Units)
	users.PATCH("/:id/speaker", h.SetSpeaker, guard(middleware.RoleAdmin)...)

	// SMS confirmation codes are requested by the user themselves.
	users.POST("/:id/sms-code", h.IssueCode, guard(middleware.AnyRole...)...)
	users.POST("/:id/sms-code/verify", h.VerifyCode, guard(middleware.AnyRole...)...)

	v1.POST("/seminars/:id/eligible-users", h.EligibleUsers)

	// Reports. :scope is magister or director; export=1 streams CSV.
	v1.GET("/statistics/:scope/:id", h.StatisticsNotPassed, reports...)
	v1.GET("/statistics/:scope/:id/events", h.StatisticsEvents, reports...)

	// Licenses of a seminar inside a magister's structure.
	v1.GET("/licenses/:seminar/:list", h.Licenses, reports...)
	lic := v1.Group("/licenses/:seminar/users/:user", guard(middleware.RoleAdmin, middleware.RoleMagister)...)
	lic.POST("/certify", h.Certify)
	lic.POST("/suspend", h.Suspend)
	lic.POST("/resume", h.Resume)

	// Director review of candidacies.
	review := v1.Group("/events/:event/users/:user", guard(middleware.RoleAdmin, middleware.RoleDirector)...)
	review.POST("/recommend", h.Recommend)
	review.POST("/refuse", h.Refuse)

	// Management tabs: candidates, members or watchers.
	v1.GET("/events/:event/:tab", h.EventTab)

	// Organizer decisions and manual pivot transitions.
	pivot := v1.Group("/event-users/:pivot", guard(middleware.RoleAdmin, middleware.RoleOrganizer)...)
	pivot.POST("/confirm", h.ConfirmCandidate)
	pivot.POST("/refuse", h.RefuseCandidate)
	pivot.POST("/member", h.SetMember)
	pivot.POST("/candidate", h.SetCandidate)

	v1.GET("/directors/:id/candidates", h.DirectorCandidates)
	v1.GET("/directors/:id/seminars/:seminar/candidates", h.SeminarCandidates)
}
