package router

import (
	"github.com/labstack/echo/v4"

	"github.com/liyxianren/mmyq/core/middleware"
	"github.com/liyxianren/mmyq/modules/admin/controller"
)

func RegisterRoutes(e *echo.Echo, c *controller.AdminController, mw *middleware.Middleware) {
	admin := e.Group("/api/v1/admin", mw.AdminMiddleware())

	admin.GET("/dashboard", c.Dashboard)

	admin.GET("/users", c.ListUsers)
	admin.POST("/users/actions", c.BatchUserAction)
	admin.POST("/users/:id/password", c.ResetUserPassword)

	admin.GET("/submissions/pending", c.PendingSubmissions)
	admin.GET("/submissions/:id", c.GetSubmission)
	admin.POST("/submissions/:id/approve", c.ApproveSubmission)
	admin.DELETE("/submissions/:id", c.DeleteSubmission)

	admin.GET("/venues", c.VenuesByDate)
	admin.GET("/venues/exchange", c.ExchangeList)
	admin.GET("/venues/:id", c.GetVenue)
	admin.DELETE("/venues/:id", c.DeleteVenue)
	admin.POST("/venues/migrate", c.MigrateVenue)

	admin.POST("/cleanup", c.RunCleanup)
	admin.GET("/cleanup/stats", c.CleanupStats)
}
