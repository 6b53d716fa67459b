package router

import (
	"github.com/labstack/echo/v4"

	"github.com/andregamma/cinema-saas/internal/handler"
	"github.com/andregamma/cinema-saas/internal/middleware"
	"github.com/andregamma/cinema-saas/internal/utils"
)

// RegisterCustomer registers the purchase endpoints. Guest checkout needs
// no token; the /v1/bookings routes require the CUSTOMER role and only
// ever touch the caller's own bookings. Both write paths are rate limited.
func RegisterCustomer(e *echo.Echo, b *handler.BookingHandler, co *handler.CheckoutHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	e.POST("/v1/checkout", co.Checkout, limit)

	g := e.Group(
		"/v1/bookings",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RoleCustomer),
	)
	g.POST("", b.Create, limit)
	g.GET("", b.List)
	g.GET("/:id", b.Get)
	g.DELETE("/:id", b.Cancel)
	g.GET("/:id/ticket.png", b.Ticket)
}
