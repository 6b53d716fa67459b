package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/andregamma/cinema-saas/internal/handler"
)

// RegisterRoutes registers routes that need neither authentication nor
// caching.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated catalog reads. Seat layouts
// and screening lists go through the response cache; per-screening
// availability changes with every booking and does not.
func RegisterPublic(e *echo.Echo, h *handler.CatalogHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.GET("/screens/:id/seats", h.ScreenSeats, cache)
	g.GET("/movies/:id/screenings", h.MovieScreenings, cache)
	g.GET("/screenings/:id/seats", h.ScreeningSeats)
}

// RegisterPayments registers the payment provider callback. It is
// authenticated by a shared secret header, not a JWT.
func RegisterPayments(e *echo.Echo, h *handler.PaymentHandler) {
	e.POST("/v1/payments/webhook", h.Webhook)
}
