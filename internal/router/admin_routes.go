package router

import (
	"github.com/labstack/echo/v4"

	"github.com/andregamma/cinema-saas/internal/handler"
	"github.com/andregamma/cinema-saas/internal/middleware"
	"github.com/andregamma/cinema-saas/internal/utils"
)

// RegisterAdmin registers exhibitor administration under /v1/admin. All
// routes require the ADMIN role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RoleAdmin),
	)
	g.POST("/movies/:id/screenings", h.GenerateScreenings)
	g.PATCH("/seats/:id", h.SetSeatStatus)
}
