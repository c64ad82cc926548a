package admin

import (
	"github.com/labstack/echo/v4"

	"github.com/liyxianren/mmyq/core/config"
	"github.com/liyxianren/mmyq/core/middleware"
	"github.com/liyxianren/mmyq/modules/admin/controller"
	"github.com/liyxianren/mmyq/modules/admin/router"
	"github.com/liyxianren/mmyq/modules/admin/service"
	authservice "github.com/liyxianren/mmyq/modules/auth/service"
	cleanupservice "github.com/liyxianren/mmyq/modules/cleanup/service"
	venueservice "github.com/liyxianren/mmyq/modules/venue/service"
)

// Init wires the admin module on top of the auth, venue and cleanup
// services.
func Init(e *echo.Echo, mw *middleware.Middleware, auth authservice.AuthServiceInterface, venues venueservice.VenueServiceInterface, cleanup cleanupservice.CleanupServiceInterface, cfg config.VenueConfig) {
	svc := service.NewAdminService(auth.Users(), venues, cfg.Groups)
	ctrl := controller.NewAdminController(svc, venues, cleanup)
	router.RegisterRoutes(e, ctrl, mw)
}
