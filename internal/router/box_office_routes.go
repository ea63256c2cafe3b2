package router

import (
	"github.com/labstack/echo/v4"

	"github.com/skylight-cinema/box-office/internal/handler"
	"github.com/skylight-cinema/box-office/internal/middleware"
	"github.com/skylight-cinema/box-office/internal/repository"
)

// BoxOfficeDeps bundles the handlers and middleware for the staff
// API so RegisterBoxOffice does not grow a parameter per endpoint.
type BoxOfficeDeps struct {
	Auth       *handler.AuthHandler
	Bookings   *handler.BookingHandler
	SeatStatus *handler.SeatStatusHandler
	Print      *handler.PrintHandler
	JWTSecret  string

	// Optional per-route middleware; nil entries are skipped.
	Cache     echo.MiddlewareFunc
	RateLimit echo.MiddlewareFunc
}

// RegisterBoxOffice registers the staff endpoints under /v1.  All
// routes require a valid JWT for a MANAGER or CASHIER; the sequence
// reset is manager-only.
func RegisterBoxOffice(e *echo.Echo, d BoxOfficeDeps) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(repository.RoleManager, repository.RoleCashier),
	)
	if d.RateLimit != nil {
		g.Use(d.RateLimit)
	}

	g.GET("/me", d.Auth.Me)

	// ---- Bookings ----
	g.POST("/bookings", d.Bookings.Create)
	g.GET("/bookings", d.Bookings.List)
	g.GET("/bookings/stats", d.Bookings.Stats)
	g.PATCH("/bookings/:id", d.Bookings.Update)
	g.POST("/bookings/:id/printed", d.Bookings.MarkPrinted)
	g.DELETE("/bookings/:id", d.Bookings.Delete)

	// ---- Seat status ----
	// The read side is cacheable: every terminal polls the same
	// (date, show) view.
	if d.Cache != nil {
		g.GET("/seat-status", d.SeatStatus.Get, d.Cache)
	} else {
		g.GET("/seat-status", d.SeatStatus.Get)
	}
	g.POST("/seat-status/selection", d.SeatStatus.SetSelection)
	g.POST("/online-seats", d.SeatStatus.MarkOnline)
	g.DELETE("/online-seats", d.SeatStatus.UnmarkOnline)

	// ---- Tickets & printing ----
	g.GET("/tickets/sequence", d.Print.SequenceInfo)
	g.POST("/tickets/sequence/next", d.Print.SequenceNext)
	g.POST("/tickets/sequence/reset", d.Print.SequenceReset,
		middleware.RequireRole(repository.RoleManager))
	g.POST("/print", d.Print.Print)
	g.GET("/print/queue", d.Print.PrintStatus)
}
