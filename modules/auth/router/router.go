package router

import (
	"github.com/labstack/echo/v4"

	"github.com/liyxianren/mmyq/core/middleware"
	"github.com/liyxianren/mmyq/modules/auth/controller"
)

func RegisterRoutes(e *echo.Echo, c *controller.AuthController, mw *middleware.Middleware) {
	auth := e.Group("/api/v1/auth")
	auth.POST("/register", c.Register)
	auth.POST("/login", c.Login)
	auth.POST("/logout", c.Logout, mw.AuthMiddleware())

	admin := e.Group("/api/v1/admin")
	admin.POST("/login", c.AdminLogin)
	admin.POST("/logout", c.Logout, mw.AdminMiddleware())
}
