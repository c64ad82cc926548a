package router

import (
	"github.com/labstack/echo/v4"

	"github.com/liyxianren/mmyq/core/middleware"
	"github.com/liyxianren/mmyq/modules/venue/controller"
)

// VenueRouter handles the user-facing venue routes.
type VenueRouter struct {
	VenueController *controller.VenueController
}

func NewVenueRouter(venueController *controller.VenueController) *VenueRouter {
	return &VenueRouter{VenueController: venueController}
}

// Setup registers venue routes.
func (r *VenueRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	// public availability and summary
	venues := v1.Group("/venues")
	venues.GET("/availability", r.VenueController.GetAvailability)
	venues.GET("/summary", r.VenueController.GetSummary)

	// authenticated submission routes
	private := v1.Group("/private", mw.AuthMiddleware())
	private.POST("/submissions", r.VenueController.CreateSubmission)
	private.GET("/submissions", r.VenueController.GetMySubmissions)
}
